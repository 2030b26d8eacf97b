package service

import (
	"context"
	"fmt"

	"github.com/kiwari-pos/tableside/internal/enum"
)

// ResolveStatus derives a table's status. An open bill wins over lines.
func ResolveStatus(hasLines, hasOpenBill bool) string {
	switch {
	case hasOpenBill:
		return enum.TableStatusClosed
	case hasLines:
		return enum.TableStatusOngoing
	default:
		return enum.TableStatusAvailable
	}
}

// TableActivity is one row of the floor view.
type TableActivity struct {
	ID         int64
	Name       string
	Section    string
	Status     string
	LineCount  int64
	OpenBillNo *int64
}

// TableStatusService reads table status. It never takes table locks.
type TableStatusService struct {
	*core
}

// NewTableStatusService creates a new TableStatusService.
func NewTableStatusService(d Deps) *TableStatusService {
	return &TableStatusService{core: newCore(d)}
}

// Status returns AVAILABLE, ONGOING or CLOSED for a table. Unknown
// tables have nothing on them and read as AVAILABLE.
func (s *TableStatusService) Status(ctx context.Context, tableID int64) (string, error) {
	_, err := s.store.GetOpenBillByTable(ctx, tableID)
	switch {
	case err == nil:
		return ResolveStatus(false, true), nil
	case !isNoRows(err):
		return "", fmt.Errorf("get open bill: %w", err)
	}

	n, err := s.store.CountTempTransactionsByTable(ctx, tableID)
	if err != nil {
		return "", fmt.Errorf("count lines: %w", err)
	}
	return ResolveStatus(n > 0, false), nil
}

// ListTableStatuses returns every table with its derived status.
func (s *TableStatusService) ListTableStatuses(ctx context.Context) ([]TableActivity, error) {
	rows, err := s.store.ListTableActivity(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	tables := make([]TableActivity, 0, len(rows))
	for _, r := range rows {
		t := TableActivity{
			ID:        r.ID,
			Name:      r.Name,
			Section:   r.Section.String,
			LineCount: r.LineCount,
			Status:    ResolveStatus(r.LineCount > 0, r.OpenBillNo.Valid),
		}
		if r.OpenBillNo.Valid {
			billNo := r.OpenBillNo.Int64
			t.OpenBillNo = &billNo
		}
		tables = append(tables, t)
	}
	return tables, nil
}
