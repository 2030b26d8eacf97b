package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getItemByName = `-- name: GetItemByName :one
SELECT id, name, rate, keywords, is_active, created_at
FROM items
WHERE lower(name) = lower($1) AND is_active = true`

func (q *Queries) GetItemByName(ctx context.Context, name string) (Item, error) {
	row := q.db.QueryRow(ctx, getItemByName, name)
	var i Item
	err := row.Scan(&i.ID, &i.Name, &i.Rate, &i.Keywords, &i.IsActive, &i.CreatedAt)
	return i, err
}

const listActiveItems = `-- name: ListActiveItems :many
SELECT id, name, rate, keywords, is_active, created_at
FROM items
WHERE is_active = true
ORDER BY name`

func (q *Queries) ListActiveItems(ctx context.Context) ([]Item, error) {
	rows, err := q.db.Query(ctx, listActiveItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		var i Item
		if err := rows.Scan(&i.ID, &i.Name, &i.Rate, &i.Keywords, &i.IsActive, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getRestaurantTable = `-- name: GetRestaurantTable :one
SELECT id, name, section, created_at FROM restaurant_tables WHERE id = $1`

func (q *Queries) GetRestaurantTable(ctx context.Context, id int64) (RestaurantTable, error) {
	var i RestaurantTable
	err := q.db.QueryRow(ctx, getRestaurantTable, id).Scan(&i.ID, &i.Name, &i.Section, &i.CreatedAt)
	return i, err
}

const listTableActivity = `-- name: ListTableActivity :many
SELECT t.id, t.name, t.section,
    (SELECT count(*) FROM temp_transactions tt WHERE tt.table_id = t.id) AS line_count,
    (SELECT b.bill_no FROM bills b WHERE b.table_id = t.id AND b.status = 'CLOSE') AS open_bill_no
FROM restaurant_tables t
ORDER BY t.id`

type ListTableActivityRow struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Section    pgtype.Text `json:"section"`
	LineCount  int64       `json:"line_count"`
	OpenBillNo pgtype.Int8 `json:"open_bill_no"`
}

func (q *Queries) ListTableActivity(ctx context.Context) ([]ListTableActivityRow, error) {
	rows, err := q.db.Query(ctx, listTableActivity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListTableActivityRow
	for rows.Next() {
		var i ListTableActivityRow
		if err := rows.Scan(&i.ID, &i.Name, &i.Section, &i.LineCount, &i.OpenBillNo); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCustomer = `-- name: GetCustomer :one
SELECT id, name, phone, created_at FROM customers WHERE id = $1`

func (q *Queries) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	var i Customer
	err := q.db.QueryRow(ctx, getCustomer, id).Scan(&i.ID, &i.Name, &i.Phone, &i.CreatedAt)
	return i, err
}

const getBank = `-- name: GetBank :one
SELECT id, name, is_cash, created_at FROM banks WHERE id = $1`

func (q *Queries) GetBank(ctx context.Context, id int64) (Bank, error) {
	var i Bank
	err := q.db.QueryRow(ctx, getBank, id).Scan(&i.ID, &i.Name, &i.IsCash, &i.CreatedAt)
	return i, err
}

const userColumns = `id, username, password_hash, full_name, role, is_active, created_at`

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	var i User
	err := q.db.QueryRow(ctx, getUserByID, id).Scan(
		&i.ID, &i.Username, &i.PasswordHash, &i.FullName, &i.Role, &i.IsActive, &i.CreatedAt,
	)
	return i, err
}

const getUserByUsername = `-- name: GetUserByUsername :one
SELECT ` + userColumns + ` FROM users WHERE username = $1 AND is_active = true`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var i User
	err := q.db.QueryRow(ctx, getUserByUsername, username).Scan(
		&i.ID, &i.Username, &i.PasswordHash, &i.FullName, &i.Role, &i.IsActive, &i.CreatedAt,
	)
	return i, err
}
