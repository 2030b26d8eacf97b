package service

import (
	"context"
	"fmt"

	"github.com/kiwari-pos/tableside/internal/database"
	"github.com/kiwari-pos/tableside/internal/enum"
)

// ShiftRequest moves a table's guests to another table.
type ShiftRequest struct {
	FromTableID int64
	ToTableID   int64
	ActorID     int64
}

// ShiftResult reports what moved.
type ShiftResult struct {
	FromTableID  int64
	ToTableID    int64
	LinesMoved   int64
	TicketsMoved int64
	Bill         *database.Bill
}

// ShiftService moves pending lines, kitchen tickets and the open bill
// of one table to another in a single transaction.
type ShiftService struct {
	*core
}

// NewShiftService creates a new ShiftService.
func NewShiftService(d Deps) *ShiftService {
	return &ShiftService{core: newCore(d)}
}

// ShiftTable relocates everything on FromTableID to ToTableID. Both
// tables are locked for the duration.
func (s *ShiftService) ShiftTable(ctx context.Context, req ShiftRequest) (*ShiftResult, error) {
	if req.FromTableID <= 0 || req.ToTableID <= 0 {
		return nil, ErrTableRequired
	}
	if req.FromTableID == req.ToTableID {
		return nil, ErrSameTable
	}
	toName := s.tableName(ctx, req.ToTableID)

	result := &ShiftResult{FromTableID: req.FromTableID, ToTableID: req.ToTableID}
	err := s.withTables(ctx, func(store Store) error {
		source, err := store.GetOpenBillByTable(ctx, req.FromTableID)
		hasBill := err == nil
		if err != nil && !isNoRows(err) {
			return fmt.Errorf("get open bill: %w", err)
		}

		// Check the target before moving anything.
		if hasBill {
			if _, err := store.GetOpenBillByTable(ctx, req.ToTableID); err == nil {
				return ErrTargetHasOpenBill
			} else if !isNoRows(err) {
				return fmt.Errorf("get target open bill: %w", err)
			}
		}

		if result.LinesMoved, err = shiftLines(ctx, store, req.FromTableID, req.ToTableID); err != nil {
			return err
		}
		result.TicketsMoved, err = store.ShiftKitchenOrders(ctx, database.ShiftKitchenOrdersParams{
			FromTableID: req.FromTableID,
			ToTableID:   req.ToTableID,
			ToTableName: toName,
		})
		if err != nil {
			return fmt.Errorf("shift tickets: %w", err)
		}
		if hasBill {
			bill, err := shiftOpenBill(ctx, store, source, req.ToTableID)
			if err != nil {
				return err
			}
			result.Bill = &bill
		}
		return nil
	}, req.FromTableID, req.ToTableID)
	if err != nil {
		return nil, err
	}

	details := map[string]any{
		"to_table_id":   req.ToTableID,
		"lines_moved":   result.LinesMoved,
		"tickets_moved": result.TicketsMoved,
	}
	var billNo int64
	if result.Bill != nil {
		billNo = result.Bill.BillNo
		details["bill_no"] = billNo
	}
	s.record(ctx, AuditEntry{
		EntityType: enum.AuditEntityTable,
		EntityID:   fmt.Sprint(req.FromTableID),
		Action:     enum.AuditActionShift,
		ActorID:    req.ActorID,
		Details:    details,
	})
	s.tableChanged(ctx, req.FromTableID, "shifted_out", billNo)
	s.tableChanged(ctx, req.ToTableID, "shifted_in", billNo)
	return result, nil
}
