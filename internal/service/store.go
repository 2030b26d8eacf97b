package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kiwari-pos/tableside/internal/database"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TempStore covers the provisional order lines.
type TempStore interface {
	CreateTempTransaction(ctx context.Context, arg database.CreateTempTransactionParams) (database.TempTransaction, error)
	GetTempTransaction(ctx context.Context, id uuid.UUID) (database.TempTransaction, error)
	UpdateTempTransaction(ctx context.Context, arg database.UpdateTempTransactionParams) (database.TempTransaction, error)
	SetTempTransactionPrinted(ctx context.Context, arg database.SetTempTransactionPrintedParams) error
	DeleteTempTransaction(ctx context.Context, id uuid.UUID) (int64, error)
	ListTempTransactionsByTable(ctx context.Context, tableID int64) ([]database.TempTransaction, error)
	CountTempTransactionsByTable(ctx context.Context, tableID int64) (int64, error)
	DeleteTempTransactionsByTable(ctx context.Context, tableID int64) (int64, error)
	ShiftTempTransactions(ctx context.Context, arg database.ShiftTempTransactionsParams) (int64, error)
}

// KitchenStore covers kitchen order tickets and their lines.
type KitchenStore interface {
	CreateKitchenOrder(ctx context.Context, arg database.CreateKitchenOrderParams) (database.KitchenOrder, error)
	CreateKitchenOrderItem(ctx context.Context, arg database.CreateKitchenOrderItemParams) (database.KitchenOrderItem, error)
	GetKitchenOrder(ctx context.Context, id uuid.UUID) (database.KitchenOrder, error)
	ListKitchenOrderItems(ctx context.Context, kitchenOrderID uuid.UUID) ([]database.KitchenOrderItem, error)
	ListKitchenOrders(ctx context.Context) ([]database.KitchenOrder, error)
	ListKitchenOrdersByStatus(ctx context.Context, status string) ([]database.KitchenOrder, error)
	ListKitchenOrdersByTable(ctx context.Context, tableID int64) ([]database.KitchenOrder, error)
	ListKitchenOrdersByTableAndStatus(ctx context.Context, arg database.ListKitchenOrdersByTableAndStatusParams) ([]database.KitchenOrder, error)
	UpdateKitchenOrderStatus(ctx context.Context, arg database.UpdateKitchenOrderStatusParams) (database.KitchenOrder, error)
	DeleteKitchenOrdersByTable(ctx context.Context, tableID int64) (int64, error)
	ShiftKitchenOrders(ctx context.Context, arg database.ShiftKitchenOrdersParams) (int64, error)
}

// BillStore covers bills and their lines.
type BillStore interface {
	CreateBill(ctx context.Context, arg database.CreateBillParams) (database.Bill, error)
	GetBill(ctx context.Context, billNo int64) (database.Bill, error)
	GetBillForUpdate(ctx context.Context, billNo int64) (database.Bill, error)
	GetOpenBillByTable(ctx context.Context, tableID int64) (database.Bill, error)
	CreateBillItem(ctx context.Context, arg database.CreateBillItemParams) (database.BillItem, error)
	ListBillItems(ctx context.Context, billNo int64) ([]database.BillItem, error)
	DeleteBillItems(ctx context.Context, billNo int64) error
	UpdateBillTotals(ctx context.Context, arg database.UpdateBillTotalsParams) (database.Bill, error)
	SettleBill(ctx context.Context, arg database.SettleBillParams) (database.Bill, error)
	CorrectBill(ctx context.Context, arg database.CorrectBillParams) (database.Bill, error)
	ShiftBill(ctx context.Context, arg database.ShiftBillParams) (database.Bill, error)
	SearchBillsByNo(ctx context.Context, billNo int64) ([]database.Bill, error)
	SearchBillsByDate(ctx context.Context, arg database.SearchBillsByDateParams) ([]database.Bill, error)
	SearchBillsByCustomer(ctx context.Context, customerID int64) ([]database.Bill, error)
	SummarizeBillsByDate(ctx context.Context, billDate string) (database.SummarizeBillsByDateRow, error)
}

// TableStore covers the floor view.
type TableStore interface {
	ListTableActivity(ctx context.Context) ([]database.ListTableActivityRow, error)
}

// Store is everything the engines need from the database.
// Satisfied by *database.Queries (and its WithTx variant).
type Store interface {
	TempStore
	KitchenStore
	BillStore
	TableStore
}

// NewStore creates a Store from a DBTX (pool or tx).
type NewStore func(db database.DBTX) Store
