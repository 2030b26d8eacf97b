package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const billColumns = `bill_no, table_id, customer_id, waiter_id, user_id, paymode, status, bill_amt, discount,
    cash_received, return_amt, net_amt, total_qty, bank_id, bill_date, created_at, closed_at, settled_at`

func scanBill(row pgx.Row) (Bill, error) {
	var i Bill
	err := row.Scan(
		&i.BillNo,
		&i.TableID,
		&i.CustomerID,
		&i.WaiterID,
		&i.UserID,
		&i.Paymode,
		&i.Status,
		&i.BillAmt,
		&i.Discount,
		&i.CashReceived,
		&i.ReturnAmt,
		&i.NetAmt,
		&i.TotalQty,
		&i.BankID,
		&i.BillDate,
		&i.CreatedAt,
		&i.ClosedAt,
		&i.SettledAt,
	)
	return i, err
}

func collectBills(rows pgx.Rows, err error) ([]Bill, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Bill
	for rows.Next() {
		i, err := scanBill(rows)
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

const createBill = `-- name: CreateBill :one
INSERT INTO bills (table_id, customer_id, waiter_id, user_id, bill_amt, net_amt, total_qty, bill_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + billColumns

type CreateBillParams struct {
	TableID    int64          `json:"table_id"`
	CustomerID pgtype.Int8    `json:"customer_id"`
	WaiterID   int64          `json:"waiter_id"`
	UserID     int64          `json:"user_id"`
	BillAmt    pgtype.Numeric `json:"bill_amt"`
	NetAmt     pgtype.Numeric `json:"net_amt"`
	TotalQty   pgtype.Numeric `json:"total_qty"`
	BillDate   string         `json:"bill_date"`
}

func (q *Queries) CreateBill(ctx context.Context, arg CreateBillParams) (Bill, error) {
	row := q.db.QueryRow(ctx, createBill,
		arg.TableID,
		arg.CustomerID,
		arg.WaiterID,
		arg.UserID,
		arg.BillAmt,
		arg.NetAmt,
		arg.TotalQty,
		arg.BillDate,
	)
	return scanBill(row)
}

const getBill = `-- name: GetBill :one
SELECT ` + billColumns + ` FROM bills WHERE bill_no = $1`

func (q *Queries) GetBill(ctx context.Context, billNo int64) (Bill, error) {
	return scanBill(q.db.QueryRow(ctx, getBill, billNo))
}

const getBillForUpdate = `-- name: GetBillForUpdate :one
SELECT ` + billColumns + ` FROM bills WHERE bill_no = $1 FOR NO KEY UPDATE`

func (q *Queries) GetBillForUpdate(ctx context.Context, billNo int64) (Bill, error) {
	return scanBill(q.db.QueryRow(ctx, getBillForUpdate, billNo))
}

const getOpenBillByTable = `-- name: GetOpenBillByTable :one
SELECT ` + billColumns + ` FROM bills WHERE table_id = $1 AND status = 'CLOSE'`

func (q *Queries) GetOpenBillByTable(ctx context.Context, tableID int64) (Bill, error) {
	return scanBill(q.db.QueryRow(ctx, getOpenBillByTable, tableID))
}

const createBillItem = `-- name: CreateBillItem :one
INSERT INTO bill_items (bill_no, item_name, quantity, rate, amount, position)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, bill_no, item_name, quantity, rate, amount, position`

type CreateBillItemParams struct {
	BillNo   int64          `json:"bill_no"`
	ItemName string         `json:"item_name"`
	Quantity pgtype.Numeric `json:"quantity"`
	Rate     pgtype.Numeric `json:"rate"`
	Amount   pgtype.Numeric `json:"amount"`
	Position int32          `json:"position"`
}

func (q *Queries) CreateBillItem(ctx context.Context, arg CreateBillItemParams) (BillItem, error) {
	row := q.db.QueryRow(ctx, createBillItem,
		arg.BillNo,
		arg.ItemName,
		arg.Quantity,
		arg.Rate,
		arg.Amount,
		arg.Position,
	)
	var i BillItem
	err := row.Scan(
		&i.ID,
		&i.BillNo,
		&i.ItemName,
		&i.Quantity,
		&i.Rate,
		&i.Amount,
		&i.Position,
	)
	return i, err
}

const listBillItems = `-- name: ListBillItems :many
SELECT id, bill_no, item_name, quantity, rate, amount, position
FROM bill_items
WHERE bill_no = $1
ORDER BY position`

func (q *Queries) ListBillItems(ctx context.Context, billNo int64) ([]BillItem, error) {
	rows, err := q.db.Query(ctx, listBillItems, billNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BillItem
	for rows.Next() {
		var i BillItem
		if err := rows.Scan(
			&i.ID,
			&i.BillNo,
			&i.ItemName,
			&i.Quantity,
			&i.Rate,
			&i.Amount,
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

const deleteBillItems = `-- name: DeleteBillItems :exec
DELETE FROM bill_items WHERE bill_no = $1`

func (q *Queries) DeleteBillItems(ctx context.Context, billNo int64) error {
	_, err := q.db.Exec(ctx, deleteBillItems, billNo)
	return err
}

const updateBillTotals = `-- name: UpdateBillTotals :one
UPDATE bills
SET bill_amt = $2, net_amt = $3, total_qty = $4, closed_at = now()
WHERE bill_no = $1 AND status = 'CLOSE'
RETURNING ` + billColumns

type UpdateBillTotalsParams struct {
	BillNo   int64          `json:"bill_no"`
	BillAmt  pgtype.Numeric `json:"bill_amt"`
	NetAmt   pgtype.Numeric `json:"net_amt"`
	TotalQty pgtype.Numeric `json:"total_qty"`
}

func (q *Queries) UpdateBillTotals(ctx context.Context, arg UpdateBillTotalsParams) (Bill, error) {
	return scanBill(q.db.QueryRow(ctx, updateBillTotals, arg.BillNo, arg.BillAmt, arg.NetAmt, arg.TotalQty))
}

const settleBill = `-- name: SettleBill :one
UPDATE bills
SET status = $2::text,
    customer_id = $3,
    paymode = $4,
    cash_received = $5,
    return_amt = $6,
    discount = $7,
    net_amt = $8,
    bank_id = $9,
    settled_at = now()
WHERE bill_no = $1 AND status = 'CLOSE'
RETURNING ` + billColumns

type SettleBillParams struct {
	BillNo       int64          `json:"bill_no"`
	Status       string         `json:"status"`
	CustomerID   pgtype.Int8    `json:"customer_id"`
	Paymode      pgtype.Text    `json:"paymode"`
	CashReceived pgtype.Numeric `json:"cash_received"`
	ReturnAmt    pgtype.Numeric `json:"return_amt"`
	Discount     pgtype.Numeric `json:"discount"`
	NetAmt       pgtype.Numeric `json:"net_amt"`
	BankID       pgtype.Int8    `json:"bank_id"`
}

func (q *Queries) SettleBill(ctx context.Context, arg SettleBillParams) (Bill, error) {
	row := q.db.QueryRow(ctx, settleBill,
		arg.BillNo,
		arg.Status,
		arg.CustomerID,
		arg.Paymode,
		arg.CashReceived,
		arg.ReturnAmt,
		arg.Discount,
		arg.NetAmt,
		arg.BankID,
	)
	return scanBill(row)
}

// CorrectBill ignores status on purpose: it is the override path for
// settled bills.
const correctBill = `-- name: CorrectBill :one
UPDATE bills
SET bill_amt = $2,
    discount = $3,
    cash_received = $4,
    return_amt = $5,
    net_amt = $6,
    total_qty = $7
WHERE bill_no = $1
RETURNING ` + billColumns

type CorrectBillParams struct {
	BillNo       int64          `json:"bill_no"`
	BillAmt      pgtype.Numeric `json:"bill_amt"`
	Discount     pgtype.Numeric `json:"discount"`
	CashReceived pgtype.Numeric `json:"cash_received"`
	ReturnAmt    pgtype.Numeric `json:"return_amt"`
	NetAmt       pgtype.Numeric `json:"net_amt"`
	TotalQty     pgtype.Numeric `json:"total_qty"`
}

func (q *Queries) CorrectBill(ctx context.Context, arg CorrectBillParams) (Bill, error) {
	row := q.db.QueryRow(ctx, correctBill,
		arg.BillNo,
		arg.BillAmt,
		arg.Discount,
		arg.CashReceived,
		arg.ReturnAmt,
		arg.NetAmt,
		arg.TotalQty,
	)
	return scanBill(row)
}

const shiftBill = `-- name: ShiftBill :one
UPDATE bills SET table_id = $2 WHERE bill_no = $1 AND status = 'CLOSE'
RETURNING ` + billColumns

type ShiftBillParams struct {
	BillNo  int64 `json:"bill_no"`
	TableID int64 `json:"table_id"`
}

func (q *Queries) ShiftBill(ctx context.Context, arg ShiftBillParams) (Bill, error) {
	return scanBill(q.db.QueryRow(ctx, shiftBill, arg.BillNo, arg.TableID))
}

const searchBillsByNo = `-- name: SearchBillsByNo :many
SELECT ` + billColumns + ` FROM bills
WHERE bill_no = $1 AND status IN ('PAID', 'CREDIT')`

func (q *Queries) SearchBillsByNo(ctx context.Context, billNo int64) ([]Bill, error) {
	return collectBills(q.db.Query(ctx, searchBillsByNo, billNo))
}

const searchBillsByDate = `-- name: SearchBillsByDate :many
SELECT ` + billColumns + ` FROM bills
WHERE bill_date = $1
  AND status IN ('PAID', 'CREDIT')
  AND ($2::text IS NULL OR status = $2::text)
ORDER BY bill_no`

type SearchBillsByDateParams struct {
	BillDate string      `json:"bill_date"`
	Status   pgtype.Text `json:"status"`
}

func (q *Queries) SearchBillsByDate(ctx context.Context, arg SearchBillsByDateParams) ([]Bill, error) {
	return collectBills(q.db.Query(ctx, searchBillsByDate, arg.BillDate, arg.Status))
}

const searchBillsByCustomer = `-- name: SearchBillsByCustomer :many
SELECT ` + billColumns + ` FROM bills
WHERE customer_id = $1 AND status IN ('PAID', 'CREDIT')
ORDER BY bill_no`

func (q *Queries) SearchBillsByCustomer(ctx context.Context, customerID int64) ([]Bill, error) {
	return collectBills(q.db.Query(ctx, searchBillsByCustomer, customerID))
}

const summarizeBillsByDate = `-- name: SummarizeBillsByDate :one
SELECT
    COALESCE(SUM(net_amt) FILTER (WHERE status = 'PAID'), 0)::numeric AS total_cash,
    COALESCE(SUM(net_amt) FILTER (WHERE status = 'CREDIT'), 0)::numeric AS total_credit,
    count(*) AS bill_count
FROM bills
WHERE bill_date = $1 AND status IN ('PAID', 'CREDIT')`

type SummarizeBillsByDateRow struct {
	TotalCash   pgtype.Numeric `json:"total_cash"`
	TotalCredit pgtype.Numeric `json:"total_credit"`
	BillCount   int64          `json:"bill_count"`
}

func (q *Queries) SummarizeBillsByDate(ctx context.Context, billDate string) (SummarizeBillsByDateRow, error) {
	var i SummarizeBillsByDateRow
	err := q.db.QueryRow(ctx, summarizeBillsByDate, billDate).Scan(&i.TotalCash, &i.TotalCredit, &i.BillCount)
	return i, err
}
