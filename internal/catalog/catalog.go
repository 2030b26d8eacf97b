// Package catalog resolves item names typed on the floor to catalog rates.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/kiwari-pos/tableside/internal/database"
	"github.com/shopspring/decimal"
)

const maxSuggestions = 3

// ErrNotFound is returned when no active item has the given name.
var ErrNotFound = errors.New("item not found")

// Store defines the DB methods the catalog reads.
// Satisfied by *database.Queries.
type Store interface {
	GetItemByName(ctx context.Context, name string) (database.Item, error)
	ListActiveItems(ctx context.Context) ([]database.Item, error)
}

// Entry is the resolved price of an item at lookup time.
type Entry struct {
	ItemID int64
	Name   string
	Rate   decimal.Decimal
}

// Catalog looks up current item rates.
type Catalog struct {
	store Store
}

// New creates a Catalog backed by store.
func New(store Store) *Catalog {
	return &Catalog{store: store}
}

// Lookup resolves name (case-insensitive) to its current rate.
func (c *Catalog) Lookup(ctx context.Context, name string) (Entry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Entry{}, ErrNotFound
	}
	item, err := c.store.GetItemByName(ctx, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("get item %q: %w", name, err)
	}
	return Entry{
		ItemID: item.ID,
		Name:   item.Name,
		Rate:   database.NumericToDecimal(item.Rate),
	}, nil
}

// Suggest returns close item names for a name that failed Lookup.
// Failures degrade to no suggestions.
func (c *Catalog) Suggest(ctx context.Context, name string) []string {
	items, err := c.store.ListActiveItems(ctx)
	if err != nil {
		log.Printf("WARN: list items for suggestions: %v", err)
		return nil
	}
	return NewMatcher(items).Suggest(name, maxSuggestions)
}
