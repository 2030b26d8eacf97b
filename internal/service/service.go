package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kiwari-pos/tableside/internal/enum"
	"github.com/kiwari-pos/tableside/internal/tablelock"
)

// Deps wires the engines to their collaborators. Pool, NewStore, Store
// and Locker are required; the rest may be nil.
type Deps struct {
	Pool     TxBeginner
	NewStore NewStore
	Store    Store // pool-backed, used for lock-free reads
	Locker   tablelock.Locker
	Catalog  ItemCatalog
	Names    NameLookup
	Audit    AuditSink
	Notifier Notifier
	Clock    func() time.Time
	Location *time.Location
}

// core holds what every engine shares.
type core struct {
	pool     TxBeginner
	newStore NewStore
	store    Store
	locker   tablelock.Locker
	catalog  ItemCatalog
	names    NameLookup
	audit    AuditSink
	notifier Notifier
	clock    func() time.Time
	loc      *time.Location
}

func newCore(d Deps) *core {
	c := &core{
		pool:     d.Pool,
		newStore: d.NewStore,
		store:    d.Store,
		locker:   d.Locker,
		catalog:  d.Catalog,
		names:    d.Names,
		audit:    d.Audit,
		notifier: d.Notifier,
		clock:    d.Clock,
		loc:      d.Location,
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	return c
}

func (c *core) now() time.Time { return c.clock().In(c.loc) }

// today is the bill date for the current moment in the configured zone.
func (c *core) today() string { return c.now().Format(enum.DateLayout) }

// inTx runs fn in one transaction and commits if fn succeeds.
func (c *core) inTx(ctx context.Context, fn func(store Store) error) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(c.newStore(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// withTables holds the table locks for the whole transaction.
func (c *core) withTables(ctx context.Context, fn func(store Store) error, tableIDs ...int64) error {
	unlock, err := tablelock.LockAll(ctx, c.locker, tableIDs...)
	if err != nil {
		return fmt.Errorf("lock tables: %w", err)
	}
	defer unlock()
	return c.inTx(ctx, fn)
}

// record sends an audit entry. Failures are logged and never undo the mutation.
func (c *core) record(ctx context.Context, e AuditEntry) {
	if c.audit == nil {
		return
	}
	if e.At.IsZero() {
		e.At = c.now()
	}
	if err := c.audit.Record(context.WithoutCancel(ctx), e); err != nil {
		log.Printf("WARN: audit %s %s %s: %v", e.EntityType, e.EntityID, e.Action, err)
	}
}

func (c *core) ticketChanged(ctx context.Context, ev TicketEvent) {
	if c.notifier == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = c.now()
	}
	if err := c.notifier.TicketChanged(context.WithoutCancel(ctx), ev); err != nil {
		log.Printf("WARN: notify ticket %s: %v", ev.TicketID, err)
	}
}

func (c *core) tableChanged(ctx context.Context, tableID int64, reason string, billNo int64) {
	if c.notifier == nil {
		return
	}
	ev := TableEvent{TableID: tableID, Reason: reason, BillNo: billNo, At: c.now()}
	if err := c.notifier.TableChanged(context.WithoutCancel(ctx), ev); err != nil {
		log.Printf("WARN: notify table %d: %v", tableID, err)
	}
}

func (c *core) tableName(ctx context.Context, tableID int64) string {
	if c.names == nil {
		return ""
	}
	name, ok := c.names.TableName(ctx, tableID)
	if !ok {
		log.Printf("WARN: no name for table %d", tableID)
	}
	return name
}

func isNoRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }
