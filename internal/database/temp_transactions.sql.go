package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const tempTransactionColumns = `id, table_id, item_name, quantity, rate, amount, waiter_id, printed_qty, seq, created_at, updated_at`

func scanTempTransaction(row pgx.Row) (TempTransaction, error) {
	var i TempTransaction
	err := row.Scan(
		&i.ID,
		&i.TableID,
		&i.ItemName,
		&i.Quantity,
		&i.Rate,
		&i.Amount,
		&i.WaiterID,
		&i.PrintedQty,
		&i.Seq,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createTempTransaction = `-- name: CreateTempTransaction :one
INSERT INTO temp_transactions (table_id, item_name, quantity, rate, amount, waiter_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + tempTransactionColumns

type CreateTempTransactionParams struct {
	TableID  int64          `json:"table_id"`
	ItemName string         `json:"item_name"`
	Quantity pgtype.Numeric `json:"quantity"`
	Rate     pgtype.Numeric `json:"rate"`
	Amount   pgtype.Numeric `json:"amount"`
	WaiterID int64          `json:"waiter_id"`
}

func (q *Queries) CreateTempTransaction(ctx context.Context, arg CreateTempTransactionParams) (TempTransaction, error) {
	row := q.db.QueryRow(ctx, createTempTransaction,
		arg.TableID,
		arg.ItemName,
		arg.Quantity,
		arg.Rate,
		arg.Amount,
		arg.WaiterID,
	)
	return scanTempTransaction(row)
}

const getTempTransaction = `-- name: GetTempTransaction :one
SELECT ` + tempTransactionColumns + ` FROM temp_transactions WHERE id = $1`

func (q *Queries) GetTempTransaction(ctx context.Context, id uuid.UUID) (TempTransaction, error) {
	return scanTempTransaction(q.db.QueryRow(ctx, getTempTransaction, id))
}

const updateTempTransaction = `-- name: UpdateTempTransaction :one
UPDATE temp_transactions
SET quantity = $2, rate = $3, amount = $4, updated_at = now()
WHERE id = $1
RETURNING ` + tempTransactionColumns

type UpdateTempTransactionParams struct {
	ID       uuid.UUID      `json:"id"`
	Quantity pgtype.Numeric `json:"quantity"`
	Rate     pgtype.Numeric `json:"rate"`
	Amount   pgtype.Numeric `json:"amount"`
}

func (q *Queries) UpdateTempTransaction(ctx context.Context, arg UpdateTempTransactionParams) (TempTransaction, error) {
	row := q.db.QueryRow(ctx, updateTempTransaction, arg.ID, arg.Quantity, arg.Rate, arg.Amount)
	return scanTempTransaction(row)
}

const setTempTransactionPrinted = `-- name: SetTempTransactionPrinted :exec
UPDATE temp_transactions SET printed_qty = $2, updated_at = now() WHERE id = $1`

type SetTempTransactionPrintedParams struct {
	ID         uuid.UUID      `json:"id"`
	PrintedQty pgtype.Numeric `json:"printed_qty"`
}

func (q *Queries) SetTempTransactionPrinted(ctx context.Context, arg SetTempTransactionPrintedParams) error {
	_, err := q.db.Exec(ctx, setTempTransactionPrinted, arg.ID, arg.PrintedQty)
	return err
}

const deleteTempTransaction = `-- name: DeleteTempTransaction :execrows
DELETE FROM temp_transactions WHERE id = $1`

func (q *Queries) DeleteTempTransaction(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteTempTransaction, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listTempTransactionsByTable = `-- name: ListTempTransactionsByTable :many
SELECT ` + tempTransactionColumns + ` FROM temp_transactions WHERE table_id = $1 ORDER BY seq`

func (q *Queries) ListTempTransactionsByTable(ctx context.Context, tableID int64) ([]TempTransaction, error) {
	rows, err := q.db.Query(ctx, listTempTransactionsByTable, tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TempTransaction
	for rows.Next() {
		i, err := scanTempTransaction(rows)
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

const countTempTransactionsByTable = `-- name: CountTempTransactionsByTable :one
SELECT count(*) FROM temp_transactions WHERE table_id = $1`

func (q *Queries) CountTempTransactionsByTable(ctx context.Context, tableID int64) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countTempTransactionsByTable, tableID).Scan(&count)
	return count, err
}

const deleteTempTransactionsByTable = `-- name: DeleteTempTransactionsByTable :execrows
DELETE FROM temp_transactions WHERE table_id = $1`

func (q *Queries) DeleteTempTransactionsByTable(ctx context.Context, tableID int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteTempTransactionsByTable, tableID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const shiftTempTransactions = `-- name: ShiftTempTransactions :execrows
UPDATE temp_transactions SET table_id = $2, updated_at = now() WHERE table_id = $1`

type ShiftTempTransactionsParams struct {
	FromTableID int64 `json:"from_table_id"`
	ToTableID   int64 `json:"to_table_id"`
}

func (q *Queries) ShiftTempTransactions(ctx context.Context, arg ShiftTempTransactionsParams) (int64, error) {
	result, err := q.db.Exec(ctx, shiftTempTransactions, arg.FromTableID, arg.ToTableID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
