package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/tableside/internal/database"
	"github.com/kiwari-pos/tableside/internal/enum"
	"github.com/shopspring/decimal"
)

// TicketLine is one item on a kitchen ticket.
type TicketLine struct {
	ItemID   *int64
	ItemName string
	Quantity decimal.Decimal
	Rate     decimal.Decimal
}

// SendRequest creates a ticket from explicit lines.
type SendRequest struct {
	TableID   int64
	TableName string
	WaiterID  int64
	Lines     []TicketLine
}

// TicketResult is a ticket with its lines.
type TicketResult struct {
	Ticket database.KitchenOrder
	Items  []database.KitchenOrderItem
}

// TableTickets groups tickets of one table.
type TableTickets struct {
	TableID   int64
	TableName string
	Tickets   []TicketResult
}

// KitchenService runs the ticket lifecycle SENT -> READY -> SERVE.
type KitchenService struct {
	*core
}

// NewKitchenService creates a new KitchenService.
func NewKitchenService(d Deps) *KitchenService {
	return &KitchenService{core: newCore(d)}
}

// Send creates a ticket in SENT status.
func (s *KitchenService) Send(ctx context.Context, req SendRequest) (*TicketResult, error) {
	if err := validateSend(req); err != nil {
		return nil, err
	}
	if req.TableName == "" {
		req.TableName = s.tableName(ctx, req.TableID)
	}

	var result *TicketResult
	err := s.withTables(ctx, func(store Store) error {
		var err error
		result, err = createTicket(ctx, store, req)
		return err
	}, req.TableID)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, result.Ticket, enum.AuditActionCreate)
	return result, nil
}

// SendToKitchen sends whatever part of a table's lines the kitchen has
// not seen yet and marks it as sent.
func (s *KitchenService) SendToKitchen(ctx context.Context, tableID, waiterID int64) (*TicketResult, error) {
	if tableID <= 0 {
		return nil, ErrTableRequired
	}
	if waiterID <= 0 {
		return nil, ErrWaiterRequired
	}
	tableName := s.tableName(ctx, tableID)

	var result *TicketResult
	err := s.withTables(ctx, func(store Store) error {
		lines, err := store.ListTempTransactionsByTable(ctx, tableID)
		if err != nil {
			return fmt.Errorf("list lines: %w", err)
		}

		req := SendRequest{TableID: tableID, TableName: tableName, WaiterID: waiterID}
		var sent []database.TempTransaction
		for _, l := range lines {
			qty := database.NumericToDecimal(l.Quantity)
			delta := qty.Sub(database.NumericToDecimal(l.PrintedQty))
			if !delta.IsPositive() {
				continue
			}
			req.Lines = append(req.Lines, TicketLine{
				ItemID:   s.itemID(ctx, l.ItemName),
				ItemName: l.ItemName,
				Quantity: delta,
				Rate:     database.NumericToDecimal(l.Rate),
			})
			sent = append(sent, l)
		}
		if len(req.Lines) == 0 {
			return ErrNothingToSend
		}

		result, err = createTicket(ctx, store, req)
		if err != nil {
			return err
		}
		for _, l := range sent {
			if err := store.SetTempTransactionPrinted(ctx, database.SetTempTransactionPrintedParams{
				ID:         l.ID,
				PrintedQty: l.Quantity,
			}); err != nil {
				return fmt.Errorf("mark line sent: %w", err)
			}
		}
		return nil
	}, tableID)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, result.Ticket, enum.AuditActionCreate)
	return result, nil
}

// MarkReady moves a SENT ticket to READY.
func (s *KitchenService) MarkReady(ctx context.Context, id uuid.UUID) (database.KitchenOrder, error) {
	return s.transition(ctx, id, enum.KitchenOrderStatusSent, enum.KitchenOrderStatusReady)
}

// MarkServe moves a READY ticket to SERVE.
func (s *KitchenService) MarkServe(ctx context.Context, id uuid.UUID) (database.KitchenOrder, error) {
	return s.transition(ctx, id, enum.KitchenOrderStatusReady, enum.KitchenOrderStatusServe)
}

// MarkAllReadyForTable readies every SENT ticket of a table. Tickets in
// other states are left alone. Each ticket moves independently; failures
// are joined and the rest still proceed.
func (s *KitchenService) MarkAllReadyForTable(ctx context.Context, tableID int64) ([]database.KitchenOrder, error) {
	return s.transitionTable(ctx, tableID, enum.KitchenOrderStatusSent, enum.KitchenOrderStatusReady)
}

// MarkAllServedForTable serves every READY ticket of a table.
func (s *KitchenService) MarkAllServedForTable(ctx context.Context, tableID int64) ([]database.KitchenOrder, error) {
	return s.transitionTable(ctx, tableID, enum.KitchenOrderStatusReady, enum.KitchenOrderStatusServe)
}

func (s *KitchenService) transitionTable(ctx context.Context, tableID int64, from, to string) ([]database.KitchenOrder, error) {
	tickets, err := s.store.ListKitchenOrdersByTableAndStatus(ctx, database.ListKitchenOrdersByTableAndStatusParams{
		TableID: tableID,
		Status:  from,
	})
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	var updated []database.KitchenOrder
	var errs []error
	for _, t := range tickets {
		ticket, err := s.transition(ctx, t.ID, from, to)
		if err != nil {
			// Someone else moved or cleared it first.
			if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrNotFound) {
				continue
			}
			errs = append(errs, fmt.Errorf("ticket %s: %w", t.ID, err))
			continue
		}
		updated = append(updated, ticket)
	}
	return updated, errors.Join(errs...)
}

func (s *KitchenService) transition(ctx context.Context, id uuid.UUID, from, to string) (database.KitchenOrder, error) {
	ticket, err := s.store.UpdateKitchenOrderStatus(ctx, database.UpdateKitchenOrderStatusParams{
		ID:         id,
		Status:     to,
		FromStatus: from,
	})
	if err != nil {
		if !isNoRows(err) {
			return database.KitchenOrder{}, fmt.Errorf("update ticket status: %w", err)
		}
		current, getErr := s.store.GetKitchenOrder(ctx, id)
		if getErr != nil {
			if isNoRows(getErr) {
				return database.KitchenOrder{}, ErrTicketNotFound
			}
			return database.KitchenOrder{}, fmt.Errorf("get ticket: %w", getErr)
		}
		return database.KitchenOrder{}, fmt.Errorf("%w: ticket is %s, expected %s", ErrInvalidTransition, current.Status, from)
	}
	s.announce(ctx, ticket, enum.AuditActionStatus)
	return ticket, nil
}

// ListPending returns SENT tickets grouped by table.
func (s *KitchenService) ListPending(ctx context.Context) ([]TableTickets, error) {
	return s.listByStatus(ctx, enum.KitchenOrderStatusSent)
}

// ListReady returns READY tickets grouped by table.
func (s *KitchenService) ListReady(ctx context.Context) ([]TableTickets, error) {
	return s.listByStatus(ctx, enum.KitchenOrderStatusReady)
}

// ListAll returns every ticket grouped by table.
func (s *KitchenService) ListAll(ctx context.Context) ([]TableTickets, error) {
	tickets, err := s.store.ListKitchenOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	results, err := s.withItems(ctx, tickets)
	if err != nil {
		return nil, err
	}
	return groupByTable(results), nil
}

// ListForTable returns a table's tickets in send order.
func (s *KitchenService) ListForTable(ctx context.Context, tableID int64) ([]TicketResult, error) {
	tickets, err := s.store.ListKitchenOrdersByTable(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return s.withItems(ctx, tickets)
}

// ClearForTable deletes every ticket of a table. No tickets is a no-op.
func (s *KitchenService) ClearForTable(ctx context.Context, tableID int64) (int64, error) {
	var n int64
	err := s.withTables(ctx, func(store Store) error {
		var err error
		n, err = store.DeleteKitchenOrdersByTable(ctx, tableID)
		if err != nil {
			return fmt.Errorf("clear tickets: %w", err)
		}
		return nil
	}, tableID)
	return n, err
}

func (s *KitchenService) listByStatus(ctx context.Context, status string) ([]TableTickets, error) {
	tickets, err := s.store.ListKitchenOrdersByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	results, err := s.withItems(ctx, tickets)
	if err != nil {
		return nil, err
	}
	return groupByTable(results), nil
}

func (s *KitchenService) withItems(ctx context.Context, tickets []database.KitchenOrder) ([]TicketResult, error) {
	results := make([]TicketResult, 0, len(tickets))
	for _, t := range tickets {
		items, err := s.store.ListKitchenOrderItems(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("list ticket items: %w", err)
		}
		results = append(results, TicketResult{Ticket: t, Items: items})
	}
	return results, nil
}

func (s *KitchenService) announce(ctx context.Context, t database.KitchenOrder, action string) {
	s.record(ctx, AuditEntry{
		EntityType: enum.AuditEntityKitchenOrder,
		EntityID:   t.ID.String(),
		Action:     action,
		ActorID:    t.WaiterID,
		Details:    map[string]any{"table_id": t.TableID, "status": t.Status},
	})
	s.ticketChanged(ctx, TicketEvent{
		TicketID:  t.ID,
		TableID:   t.TableID,
		TableName: t.TableName,
		Status:    t.Status,
	})
}

func (s *KitchenService) itemID(ctx context.Context, name string) *int64 {
	if s.catalog == nil {
		return nil
	}
	entry, err := s.catalog.Lookup(ctx, name)
	if err != nil {
		return nil
	}
	return &entry.ItemID
}

func validateSend(req SendRequest) error {
	if req.TableID <= 0 {
		return ErrTableRequired
	}
	if req.WaiterID <= 0 {
		return ErrWaiterRequired
	}
	if len(req.Lines) == 0 {
		return ErrNothingToSend
	}
	for _, l := range req.Lines {
		if l.ItemName == "" {
			return ErrItemNameRequired
		}
		if !l.Quantity.IsPositive() {
			return fmt.Errorf("%w: ticket quantity must be > 0", ErrInvalidInput)
		}
		if !l.Quantity.Equal(l.Quantity.Round(quantityPlaces)) {
			return ErrQuantityPrecision
		}
	}
	return nil
}

func createTicket(ctx context.Context, store Store, req SendRequest) (*TicketResult, error) {
	total := decimal.Zero
	for _, l := range req.Lines {
		total = total.Add(l.Quantity)
	}

	ticket, err := store.CreateKitchenOrder(ctx, database.CreateKitchenOrderParams{
		TableID:   req.TableID,
		TableName: req.TableName,
		WaiterID:  req.WaiterID,
		ItemCount: int32(len(req.Lines)),
		TotalQty:  database.DecimalToNumeric(total),
	})
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	items := make([]database.KitchenOrderItem, 0, len(req.Lines))
	for i, l := range req.Lines {
		var itemID pgtype.Int8
		if l.ItemID != nil {
			itemID = pgtype.Int8{Int64: *l.ItemID, Valid: true}
		}
		item, err := store.CreateKitchenOrderItem(ctx, database.CreateKitchenOrderItemParams{
			KitchenOrderID: ticket.ID,
			ItemID:         itemID,
			ItemName:       l.ItemName,
			Quantity:       database.DecimalToNumeric(l.Quantity),
			Rate:           database.DecimalToNumeric(l.Rate),
			Position:       int32(i),
		})
		if err != nil {
			return nil, fmt.Errorf("create ticket item: %w", err)
		}
		items = append(items, item)
	}
	return &TicketResult{Ticket: ticket, Items: items}, nil
}

// groupByTable keeps tables in order of first appearance.
func groupByTable(tickets []TicketResult) []TableTickets {
	var groups []TableTickets
	index := make(map[int64]int)
	for _, t := range tickets {
		i, ok := index[t.Ticket.TableID]
		if !ok {
			i = len(groups)
			index[t.Ticket.TableID] = i
			groups = append(groups, TableTickets{TableID: t.Ticket.TableID, TableName: t.Ticket.TableName})
		}
		groups[i].Tickets = append(groups[i].Tickets, t)
	}
	return groups
}
