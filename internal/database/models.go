package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type RestaurantTable struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Section   pgtype.Text `json:"section"`
	CreatedAt time.Time   `json:"created_at"`
}

type Customer struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Phone     pgtype.Text `json:"phone"`
	CreatedAt time.Time   `json:"created_at"`
}

type Bank struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IsCash    bool      `json:"is_cash"`
	CreatedAt time.Time `json:"created_at"`
}

type Item struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Rate      pgtype.Numeric `json:"rate"`
	Keywords  string         `json:"keywords"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
}

// TempTransaction is a provisional order line on a table that has not been billed yet.
type TempTransaction struct {
	ID         uuid.UUID      `json:"id"`
	TableID    int64          `json:"table_id"`
	ItemName   string         `json:"item_name"`
	Quantity   pgtype.Numeric `json:"quantity"`
	Rate       pgtype.Numeric `json:"rate"`
	Amount     pgtype.Numeric `json:"amount"`
	WaiterID   int64          `json:"waiter_id"`
	PrintedQty pgtype.Numeric `json:"printed_qty"`
	Seq        int64          `json:"seq"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type KitchenOrder struct {
	ID        uuid.UUID          `json:"id"`
	TableID   int64              `json:"table_id"`
	TableName string             `json:"table_name"`
	WaiterID  int64              `json:"waiter_id"`
	Status    string             `json:"status"`
	ItemCount int32              `json:"item_count"`
	TotalQty  pgtype.Numeric     `json:"total_qty"`
	Seq       int64              `json:"seq"`
	SentAt    time.Time          `json:"sent_at"`
	ReadyAt   pgtype.Timestamptz `json:"ready_at"`
	ServedAt  pgtype.Timestamptz `json:"served_at"`
}

type KitchenOrderItem struct {
	ID             uuid.UUID      `json:"id"`
	KitchenOrderID uuid.UUID      `json:"kitchen_order_id"`
	ItemID         pgtype.Int8    `json:"item_id"`
	ItemName       string         `json:"item_name"`
	Quantity       pgtype.Numeric `json:"quantity"`
	Rate           pgtype.Numeric `json:"rate"`
	Position       int32          `json:"position"`
}

type Bill struct {
	BillNo       int64              `json:"bill_no"`
	TableID      int64              `json:"table_id"`
	CustomerID   pgtype.Int8        `json:"customer_id"`
	WaiterID     int64              `json:"waiter_id"`
	UserID       int64              `json:"user_id"`
	Paymode      pgtype.Text        `json:"paymode"`
	Status       string             `json:"status"`
	BillAmt      pgtype.Numeric     `json:"bill_amt"`
	Discount     pgtype.Numeric     `json:"discount"`
	CashReceived pgtype.Numeric     `json:"cash_received"`
	ReturnAmt    pgtype.Numeric     `json:"return_amt"`
	NetAmt       pgtype.Numeric     `json:"net_amt"`
	TotalQty     pgtype.Numeric     `json:"total_qty"`
	BankID       pgtype.Int8        `json:"bank_id"`
	BillDate     string             `json:"bill_date"`
	CreatedAt    time.Time          `json:"created_at"`
	ClosedAt     time.Time          `json:"closed_at"`
	SettledAt    pgtype.Timestamptz `json:"settled_at"`
}

type BillItem struct {
	ID       uuid.UUID      `json:"id"`
	BillNo   int64          `json:"bill_no"`
	ItemName string         `json:"item_name"`
	Quantity pgtype.Numeric `json:"quantity"`
	Rate     pgtype.Numeric `json:"rate"`
	Amount   pgtype.Numeric `json:"amount"`
	Position int32          `json:"position"`
}
