package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/tableside/internal/catalog"
)

// ItemCatalog resolves item names to rates. Satisfied by *catalog.Catalog.
type ItemCatalog interface {
	Lookup(ctx context.Context, name string) (catalog.Entry, error)
	Suggest(ctx context.Context, name string) []string
}

// NameLookup resolves display names. A false second return means the
// name is unknown; callers render the id instead of failing.
type NameLookup interface {
	TableName(ctx context.Context, id int64) (string, bool)
	CustomerName(ctx context.Context, id int64) (string, bool)
	WaiterName(ctx context.Context, id int64) (string, bool)
	BankName(ctx context.Context, id int64) (string, bool)
}

// AuditEntry is one committed mutation.
type AuditEntry struct {
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Action     string         `json:"action"`
	ActorID    int64          `json:"actor_id"`
	Details    map[string]any `json:"details,omitempty"`
	At         time.Time      `json:"at"`
}

// AuditSink receives audit entries after commit.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// TicketEvent describes a kitchen ticket entering a new status.
type TicketEvent struct {
	TicketID  uuid.UUID `json:"ticket_id"`
	TableID   int64     `json:"table_id"`
	TableName string    `json:"table_name"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

// TableEvent describes a change to what is on a table.
type TableEvent struct {
	TableID int64     `json:"table_id"`
	Reason  string    `json:"reason"`
	BillNo  int64     `json:"bill_no,omitempty"`
	At      time.Time `json:"at"`
}

// Notifier pushes live updates to screens. Implementations must not block.
type Notifier interface {
	TicketChanged(ctx context.Context, ev TicketEvent) error
	TableChanged(ctx context.Context, ev TableEvent) error
}

// AuditSinks fans an entry out to every sink.
type AuditSinks []AuditSink

func (s AuditSinks) Record(ctx context.Context, entry AuditEntry) error {
	var errs []error
	for _, sink := range s {
		if err := sink.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Notifiers fans events out to every notifier.
type Notifiers []Notifier

func (n Notifiers) TicketChanged(ctx context.Context, ev TicketEvent) error {
	var errs []error
	for _, x := range n {
		if err := x.TicketChanged(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n Notifiers) TableChanged(ctx context.Context, ev TableEvent) error {
	var errs []error
	for _, x := range n {
		if err := x.TableChanged(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogAudit writes audit entries to the process log.
type LogAudit struct{}

func (LogAudit) Record(_ context.Context, e AuditEntry) error {
	log.Printf("AUDIT: %s %s %s actor=%d details=%v", e.EntityType, e.EntityID, e.Action, e.ActorID, e.Details)
	return nil
}
