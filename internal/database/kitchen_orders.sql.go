package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const kitchenOrderColumns = `id, table_id, table_name, waiter_id, status, item_count, total_qty, seq, sent_at, ready_at, served_at`

func scanKitchenOrder(row pgx.Row) (KitchenOrder, error) {
	var i KitchenOrder
	err := row.Scan(
		&i.ID,
		&i.TableID,
		&i.TableName,
		&i.WaiterID,
		&i.Status,
		&i.ItemCount,
		&i.TotalQty,
		&i.Seq,
		&i.SentAt,
		&i.ReadyAt,
		&i.ServedAt,
	)
	return i, err
}

func collectKitchenOrders(rows pgx.Rows, err error) ([]KitchenOrder, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []KitchenOrder
	for rows.Next() {
		i, err := scanKitchenOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createKitchenOrder = `-- name: CreateKitchenOrder :one
INSERT INTO kitchen_orders (table_id, table_name, waiter_id, item_count, total_qty)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + kitchenOrderColumns

type CreateKitchenOrderParams struct {
	TableID   int64          `json:"table_id"`
	TableName string         `json:"table_name"`
	WaiterID  int64          `json:"waiter_id"`
	ItemCount int32          `json:"item_count"`
	TotalQty  pgtype.Numeric `json:"total_qty"`
}

func (q *Queries) CreateKitchenOrder(ctx context.Context, arg CreateKitchenOrderParams) (KitchenOrder, error) {
	row := q.db.QueryRow(ctx, createKitchenOrder,
		arg.TableID,
		arg.TableName,
		arg.WaiterID,
		arg.ItemCount,
		arg.TotalQty,
	)
	return scanKitchenOrder(row)
}

const createKitchenOrderItem = `-- name: CreateKitchenOrderItem :one
INSERT INTO kitchen_order_items (kitchen_order_id, item_id, item_name, quantity, rate, position)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, kitchen_order_id, item_id, item_name, quantity, rate, position`

type CreateKitchenOrderItemParams struct {
	KitchenOrderID uuid.UUID      `json:"kitchen_order_id"`
	ItemID         pgtype.Int8    `json:"item_id"`
	ItemName       string         `json:"item_name"`
	Quantity       pgtype.Numeric `json:"quantity"`
	Rate           pgtype.Numeric `json:"rate"`
	Position       int32          `json:"position"`
}

func (q *Queries) CreateKitchenOrderItem(ctx context.Context, arg CreateKitchenOrderItemParams) (KitchenOrderItem, error) {
	row := q.db.QueryRow(ctx, createKitchenOrderItem,
		arg.KitchenOrderID,
		arg.ItemID,
		arg.ItemName,
		arg.Quantity,
		arg.Rate,
		arg.Position,
	)
	var i KitchenOrderItem
	err := row.Scan(
		&i.ID,
		&i.KitchenOrderID,
		&i.ItemID,
		&i.ItemName,
		&i.Quantity,
		&i.Rate,
		&i.Position,
	)
	return i, err
}

const getKitchenOrder = `-- name: GetKitchenOrder :one
SELECT ` + kitchenOrderColumns + ` FROM kitchen_orders WHERE id = $1`

func (q *Queries) GetKitchenOrder(ctx context.Context, id uuid.UUID) (KitchenOrder, error) {
	return scanKitchenOrder(q.db.QueryRow(ctx, getKitchenOrder, id))
}

const listKitchenOrderItems = `-- name: ListKitchenOrderItems :many
SELECT id, kitchen_order_id, item_id, item_name, quantity, rate, position
FROM kitchen_order_items
WHERE kitchen_order_id = $1
ORDER BY position`

func (q *Queries) ListKitchenOrderItems(ctx context.Context, kitchenOrderID uuid.UUID) ([]KitchenOrderItem, error) {
	rows, err := q.db.Query(ctx, listKitchenOrderItems, kitchenOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []KitchenOrderItem
	for rows.Next() {
		var i KitchenOrderItem
		if err := rows.Scan(
			&i.ID,
			&i.KitchenOrderID,
			&i.ItemID,
			&i.ItemName,
			&i.Quantity,
			&i.Rate,
			&i.Position,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listKitchenOrders = `-- name: ListKitchenOrders :many
SELECT ` + kitchenOrderColumns + ` FROM kitchen_orders ORDER BY seq`

func (q *Queries) ListKitchenOrders(ctx context.Context) ([]KitchenOrder, error) {
	return collectKitchenOrders(q.db.Query(ctx, listKitchenOrders))
}

const listKitchenOrdersByStatus = `-- name: ListKitchenOrdersByStatus :many
SELECT ` + kitchenOrderColumns + ` FROM kitchen_orders WHERE status = $1 ORDER BY seq`

func (q *Queries) ListKitchenOrdersByStatus(ctx context.Context, status string) ([]KitchenOrder, error) {
	return collectKitchenOrders(q.db.Query(ctx, listKitchenOrdersByStatus, status))
}

const listKitchenOrdersByTable = `-- name: ListKitchenOrdersByTable :many
SELECT ` + kitchenOrderColumns + ` FROM kitchen_orders WHERE table_id = $1 ORDER BY seq`

func (q *Queries) ListKitchenOrdersByTable(ctx context.Context, tableID int64) ([]KitchenOrder, error) {
	return collectKitchenOrders(q.db.Query(ctx, listKitchenOrdersByTable, tableID))
}

const listKitchenOrdersByTableAndStatus = `-- name: ListKitchenOrdersByTableAndStatus :many
SELECT ` + kitchenOrderColumns + ` FROM kitchen_orders WHERE table_id = $1 AND status = $2 ORDER BY seq`

type ListKitchenOrdersByTableAndStatusParams struct {
	TableID int64  `json:"table_id"`
	Status  string `json:"status"`
}

func (q *Queries) ListKitchenOrdersByTableAndStatus(ctx context.Context, arg ListKitchenOrdersByTableAndStatusParams) ([]KitchenOrder, error) {
	return collectKitchenOrders(q.db.Query(ctx, listKitchenOrdersByTableAndStatus, arg.TableID, arg.Status))
}

// The WHERE on the previous status makes the transition a compare-and-set:
// no row comes back if another request moved the ticket first.
const updateKitchenOrderStatus = `-- name: UpdateKitchenOrderStatus :one
UPDATE kitchen_orders
SET status = $2::text,
    ready_at = CASE WHEN $2::text = 'READY' THEN now() ELSE ready_at END,
    served_at = CASE WHEN $2::text = 'SERVE' THEN now() ELSE served_at END
WHERE id = $1 AND status = $3::text
RETURNING ` + kitchenOrderColumns

type UpdateKitchenOrderStatusParams struct {
	ID         uuid.UUID `json:"id"`
	Status     string    `json:"status"`
	FromStatus string    `json:"from_status"`
}

func (q *Queries) UpdateKitchenOrderStatus(ctx context.Context, arg UpdateKitchenOrderStatusParams) (KitchenOrder, error) {
	return scanKitchenOrder(q.db.QueryRow(ctx, updateKitchenOrderStatus, arg.ID, arg.Status, arg.FromStatus))
}

const deleteKitchenOrdersByTable = `-- name: DeleteKitchenOrdersByTable :execrows
DELETE FROM kitchen_orders WHERE table_id = $1`

func (q *Queries) DeleteKitchenOrdersByTable(ctx context.Context, tableID int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteKitchenOrdersByTable, tableID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const shiftKitchenOrders = `-- name: ShiftKitchenOrders :execrows
UPDATE kitchen_orders SET table_id = $2, table_name = $3 WHERE table_id = $1`

type ShiftKitchenOrdersParams struct {
	FromTableID int64  `json:"from_table_id"`
	ToTableID   int64  `json:"to_table_id"`
	ToTableName string `json:"to_table_name"`
}

func (q *Queries) ShiftKitchenOrders(ctx context.Context, arg ShiftKitchenOrdersParams) (int64, error) {
	result, err := q.db.Exec(ctx, shiftKitchenOrders, arg.FromTableID, arg.ToTableID, arg.ToTableName)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
