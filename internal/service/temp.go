package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kiwari-pos/tableside/internal/catalog"
	"github.com/kiwari-pos/tableside/internal/database"
	"github.com/kiwari-pos/tableside/internal/enum"
	"github.com/shopspring/decimal"
)

// AddLineRequest adds a line to a table, or updates LineID when set.
// A nil Rate takes the current catalog rate.
type AddLineRequest struct {
	LineID   uuid.UUID
	TableID  int64
	ItemName string
	Quantity decimal.Decimal
	Rate     *decimal.Decimal
	WaiterID int64
	ActorID  int64
}

// UpdateLineRequest changes quantity and/or rate of one line.
type UpdateLineRequest struct {
	LineID   uuid.UUID
	Quantity *decimal.Decimal
	Rate     *decimal.Decimal
	ActorID  int64
}

// TempTransactionService manages the provisional lines of open tables.
type TempTransactionService struct {
	*core
}

// NewTempTransactionService creates a new TempTransactionService.
func NewTempTransactionService(d Deps) *TempTransactionService {
	return &TempTransactionService{core: newCore(d)}
}

// Places kept by the quantity and rate columns.
const (
	quantityPlaces = 3
	ratePlaces     = 2
	moneyPlaces    = 2
)

// lineAmount is qty × rate. Both are already at column precision so the
// product is exact and fits the amount column.
func lineAmount(qty, rate decimal.Decimal) decimal.Decimal {
	return qty.Mul(rate)
}

func checkQuantity(qty decimal.Decimal) error {
	if !qty.Equal(qty.Round(quantityPlaces)) {
		return ErrQuantityPrecision
	}
	if qty.IsZero() {
		return ErrQuantityRequired
	}
	return nil
}

func checkRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return ErrNegativeRate
	}
	if !rate.Equal(rate.Round(ratePlaces)) {
		return ErrRatePrecision
	}
	return nil
}

// AddOrUpdate records one line for a table. Negative quantities are
// reductions and may not take the table's total for the item below zero.
func (s *TempTransactionService) AddOrUpdate(ctx context.Context, req AddLineRequest) (database.TempTransaction, error) {
	if req.LineID != uuid.Nil {
		qty := req.Quantity
		return s.Update(ctx, UpdateLineRequest{
			LineID:   req.LineID,
			Quantity: &qty,
			Rate:     req.Rate,
			ActorID:  req.ActorID,
		})
	}

	if req.TableID <= 0 {
		return database.TempTransaction{}, ErrTableRequired
	}
	name := strings.TrimSpace(req.ItemName)
	if name == "" {
		return database.TempTransaction{}, ErrItemNameRequired
	}
	if err := checkQuantity(req.Quantity); err != nil {
		return database.TempTransaction{}, err
	}
	if req.WaiterID <= 0 {
		return database.TempTransaction{}, ErrWaiterRequired
	}

	var rate decimal.Decimal
	if req.Rate != nil {
		if err := checkRate(*req.Rate); err != nil {
			return database.TempTransaction{}, err
		}
		rate = *req.Rate
	} else {
		entry, err := s.resolveItem(ctx, name)
		if err != nil {
			return database.TempTransaction{}, err
		}
		name = entry.Name
		rate = entry.Rate
	}

	var line database.TempTransaction
	err := s.withTables(ctx, func(store Store) error {
		lines, err := store.ListTempTransactionsByTable(ctx, req.TableID)
		if err != nil {
			return fmt.Errorf("list lines: %w", err)
		}
		if netQuantity(lines, name, uuid.Nil).Add(req.Quantity).IsNegative() {
			return ErrOverReduction
		}
		line, err = store.CreateTempTransaction(ctx, database.CreateTempTransactionParams{
			TableID:  req.TableID,
			ItemName: name,
			Quantity: database.DecimalToNumeric(req.Quantity),
			Rate:     database.DecimalToNumeric(rate),
			Amount:   database.DecimalToNumeric(lineAmount(req.Quantity, rate)),
			WaiterID: req.WaiterID,
		})
		if err != nil {
			return fmt.Errorf("create line: %w", err)
		}
		return nil
	}, req.TableID)
	if err != nil {
		return database.TempTransaction{}, err
	}

	s.record(ctx, AuditEntry{
		EntityType: enum.AuditEntityTempLine,
		EntityID:   line.ID.String(),
		Action:     enum.AuditActionCreate,
		ActorID:    req.ActorID,
		Details: map[string]any{
			"table_id":  line.TableID,
			"item_name": line.ItemName,
			"quantity":  req.Quantity.String(),
			"rate":      rate.String(),
		},
	})
	s.tableChanged(ctx, line.TableID, "line_added", 0)
	return line, nil
}

// Update changes an existing line, recomputing its amount.
func (s *TempTransactionService) Update(ctx context.Context, req UpdateLineRequest) (database.TempTransaction, error) {
	if req.Quantity != nil {
		if err := checkQuantity(*req.Quantity); err != nil {
			return database.TempTransaction{}, err
		}
	}
	if req.Rate != nil {
		if err := checkRate(*req.Rate); err != nil {
			return database.TempTransaction{}, err
		}
	}

	var before, line database.TempTransaction
	err := s.withLineTable(ctx, req.LineID, func(store Store, current database.TempTransaction) error {
		before = current
		qty := database.NumericToDecimal(current.Quantity)
		rate := database.NumericToDecimal(current.Rate)
		if req.Quantity != nil {
			qty = *req.Quantity
		}
		if req.Rate != nil {
			rate = *req.Rate
		}

		lines, err := store.ListTempTransactionsByTable(ctx, current.TableID)
		if err != nil {
			return fmt.Errorf("list lines: %w", err)
		}
		if netQuantity(lines, current.ItemName, current.ID).Add(qty).IsNegative() {
			return ErrOverReduction
		}

		line, err = store.UpdateTempTransaction(ctx, database.UpdateTempTransactionParams{
			ID:       current.ID,
			Quantity: database.DecimalToNumeric(qty),
			Rate:     database.DecimalToNumeric(rate),
			Amount:   database.DecimalToNumeric(lineAmount(qty, rate)),
		})
		if err != nil {
			return fmt.Errorf("update line: %w", err)
		}
		return nil
	})
	if err != nil {
		return database.TempTransaction{}, err
	}

	s.record(ctx, AuditEntry{
		EntityType: enum.AuditEntityTempLine,
		EntityID:   line.ID.String(),
		Action:     enum.AuditActionUpdate,
		ActorID:    req.ActorID,
		Details: map[string]any{
			"table_id":     line.TableID,
			"old_quantity": database.NumericToDecimal(before.Quantity).String(),
			"new_quantity": database.NumericToDecimal(line.Quantity).String(),
			"old_rate":     database.NumericToDecimal(before.Rate).String(),
			"new_rate":     database.NumericToDecimal(line.Rate).String(),
		},
	})
	s.tableChanged(ctx, line.TableID, "line_updated", 0)
	return line, nil
}

// Remove deletes one line.
func (s *TempTransactionService) Remove(ctx context.Context, lineID uuid.UUID, actorID int64) error {
	var removed database.TempTransaction
	err := s.withLineTable(ctx, lineID, func(store Store, current database.TempTransaction) error {
		n, err := store.DeleteTempTransaction(ctx, current.ID)
		if err != nil {
			return fmt.Errorf("delete line: %w", err)
		}
		if n == 0 {
			return ErrLineNotFound
		}
		removed = current
		return nil
	})
	if err != nil {
		return err
	}

	s.record(ctx, AuditEntry{
		EntityType: enum.AuditEntityTempLine,
		EntityID:   removed.ID.String(),
		Action:     enum.AuditActionDelete,
		ActorID:    actorID,
		Details: map[string]any{
			"table_id":  removed.TableID,
			"item_name": removed.ItemName,
			"quantity":  database.NumericToDecimal(removed.Quantity).String(),
		},
	})
	s.tableChanged(ctx, removed.TableID, "line_removed", 0)
	return nil
}

// LinesForTable returns a table's lines in insertion order.
func (s *TempTransactionService) LinesForTable(ctx context.Context, tableID int64) ([]database.TempTransaction, error) {
	lines, err := s.store.ListTempTransactionsByTable(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("list lines: %w", err)
	}
	return lines, nil
}

// ClearForTable removes every line of a table. Clearing an empty table is a no-op.
func (s *TempTransactionService) ClearForTable(ctx context.Context, tableID int64) (int64, error) {
	var n int64
	err := s.withTables(ctx, func(store Store) error {
		var err error
		n, err = store.DeleteTempTransactionsByTable(ctx, tableID)
		if err != nil {
			return fmt.Errorf("clear lines: %w", err)
		}
		return nil
	}, tableID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.tableChanged(ctx, tableID, "lines_cleared", 0)
	}
	return n, nil
}

// ShiftToTable moves every line from one table to another. Shifting a
// table onto itself is a no-op.
func (s *TempTransactionService) ShiftToTable(ctx context.Context, fromTableID, toTableID int64) (int64, error) {
	if fromTableID == toTableID {
		return 0, nil
	}
	var n int64
	err := s.withTables(ctx, func(store Store) error {
		var err error
		n, err = shiftLines(ctx, store, fromTableID, toTableID)
		return err
	}, fromTableID, toTableID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.tableChanged(ctx, fromTableID, "lines_shifted", 0)
		s.tableChanged(ctx, toTableID, "lines_shifted", 0)
	}
	return n, nil
}

func shiftLines(ctx context.Context, store Store, fromTableID, toTableID int64) (int64, error) {
	n, err := store.ShiftTempTransactions(ctx, database.ShiftTempTransactionsParams{
		FromTableID: fromTableID,
		ToTableID:   toTableID,
	})
	if err != nil {
		return 0, fmt.Errorf("shift lines: %w", err)
	}
	return n, nil
}

// withLineTable locks the table a line currently sits on and runs fn
// with the line re-read inside the transaction. If the line moved to
// another table while waiting for the lock, it retries on the new table.
func (s *TempTransactionService) withLineTable(ctx context.Context, lineID uuid.UUID, fn func(store Store, line database.TempTransaction) error) error {
	const maxAttempts = 3
	for attempt := 0; attempt < maxAttempts; attempt++ {
		line, err := s.store.GetTempTransaction(ctx, lineID)
		if err != nil {
			if isNoRows(err) {
				return ErrLineNotFound
			}
			return fmt.Errorf("get line: %w", err)
		}

		moved := false
		err = s.withTables(ctx, func(store Store) error {
			current, err := store.GetTempTransaction(ctx, lineID)
			if err != nil {
				if isNoRows(err) {
					return ErrLineNotFound
				}
				return fmt.Errorf("get line: %w", err)
			}
			if current.TableID != line.TableID {
				moved = true
				return nil
			}
			return fn(store, current)
		}, line.TableID)
		if err != nil || !moved {
			return err
		}
	}
	return fmt.Errorf("line %s kept moving between tables", lineID)
}

func (s *TempTransactionService) resolveItem(ctx context.Context, name string) (catalog.Entry, error) {
	if s.catalog == nil {
		return catalog.Entry{}, &ItemNotFoundError{Name: name}
	}
	entry, err := s.catalog.Lookup(ctx, name)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.Entry{}, &ItemNotFoundError{
				Name:        name,
				Suggestions: s.catalog.Suggest(ctx, name),
			}
		}
		return catalog.Entry{}, fmt.Errorf("lookup item: %w", err)
	}
	return entry, nil
}

// netQuantity sums the quantity of an item over a table's lines,
// skipping the line being replaced.
func netQuantity(lines []database.TempTransaction, itemName string, skip uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.ID == skip || !strings.EqualFold(l.ItemName, itemName) {
			continue
		}
		total = total.Add(database.NumericToDecimal(l.Quantity))
	}
	return total
}
