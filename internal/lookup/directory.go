// Package lookup resolves display names for tables, customers, waiters
// and banks.
package lookup

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/kiwari-pos/tableside/internal/database"
)

// Store is the subset of queries the directory reads.
type Store interface {
	GetRestaurantTable(ctx context.Context, id int64) (database.RestaurantTable, error)
	GetCustomer(ctx context.Context, id int64) (database.Customer, error)
	GetUserByID(ctx context.Context, id int64) (database.User, error)
	GetBank(ctx context.Context, id int64) (database.Bank, error)
}

// Directory reads names straight from the database.
type Directory struct {
	store Store
}

func NewDirectory(store Store) *Directory {
	return &Directory{store: store}
}

func (d *Directory) TableName(ctx context.Context, id int64) (string, bool) {
	t, err := d.store.GetRestaurantTable(ctx, id)
	return resolved(t.Name, err, "table", id)
}

func (d *Directory) CustomerName(ctx context.Context, id int64) (string, bool) {
	c, err := d.store.GetCustomer(ctx, id)
	return resolved(c.Name, err, "customer", id)
}

func (d *Directory) WaiterName(ctx context.Context, id int64) (string, bool) {
	u, err := d.store.GetUserByID(ctx, id)
	return resolved(u.FullName, err, "waiter", id)
}

func (d *Directory) BankName(ctx context.Context, id int64) (string, bool) {
	b, err := d.store.GetBank(ctx, id)
	return resolved(b.Name, err, "bank", id)
}

func resolved(name string, err error, kind string, id int64) (string, bool) {
	if err == nil {
		return name, true
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("WARN: lookup %s %d: %v", kind, id, err)
	}
	return "", false
}
