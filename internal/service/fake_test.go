package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/tableside/internal/catalog"
	"github.com/kiwari-pos/tableside/internal/database"
	"github.com/kiwari-pos/tableside/internal/enum"
	"github.com/kiwari-pos/tableside/internal/tablelock"
	"github.com/shopspring/decimal"
)

// --- In-memory database ---

type fakeState struct {
	lines       map[uuid.UUID]database.TempTransaction
	tickets     map[uuid.UUID]database.KitchenOrder
	ticketItems map[uuid.UUID][]database.KitchenOrderItem
	bills       map[int64]database.Bill
	billItems   map[int64][]database.BillItem
	seq         int64
	nextBillNo  int64
}

func (s *fakeState) clone() *fakeState {
	c := &fakeState{
		lines:       make(map[uuid.UUID]database.TempTransaction, len(s.lines)),
		tickets:     make(map[uuid.UUID]database.KitchenOrder, len(s.tickets)),
		ticketItems: make(map[uuid.UUID][]database.KitchenOrderItem, len(s.ticketItems)),
		bills:       make(map[int64]database.Bill, len(s.bills)),
		billItems:   make(map[int64][]database.BillItem, len(s.billItems)),
		seq:         s.seq,
		nextBillNo:  s.nextBillNo,
	}
	for k, v := range s.lines {
		c.lines[k] = v
	}
	for k, v := range s.tickets {
		c.tickets[k] = v
	}
	for k, v := range s.ticketItems {
		c.ticketItems[k] = append([]database.KitchenOrderItem(nil), v...)
	}
	for k, v := range s.bills {
		c.bills[k] = v
	}
	for k, v := range s.billItems {
		c.billItems[k] = append([]database.BillItem(nil), v...)
	}
	return c
}

// fakeDB implements Store over maps. By default transactions are
// serialized and roll back by restoring a snapshot taken at Begin.
// With interleave set, transactions overlap like they do in Postgres:
// writes land immediately, nothing rolls back, and every call pauses
// first so concurrent requests run between each other's statements.
type fakeDB struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	st     *fakeState
	tables map[int64]database.RestaurantTable

	// failOn makes the named method return errFake.
	failOn string

	interleave bool
}

var errFake = errors.New("fake failure")

func newFakeDB(tableIDs ...int64) *fakeDB {
	db := &fakeDB{
		st: &fakeState{
			lines:       map[uuid.UUID]database.TempTransaction{},
			tickets:     map[uuid.UUID]database.KitchenOrder{},
			ticketItems: map[uuid.UUID][]database.KitchenOrderItem{},
			bills:       map[int64]database.Bill{},
			billItems:   map[int64][]database.BillItem{},
			nextBillNo:  1,
		},
		tables: map[int64]database.RestaurantTable{},
	}
	for _, id := range tableIDs {
		db.tables[id] = database.RestaurantTable{ID: id, Name: tableLabel(id)}
	}
	return db
}

func tableLabel(id int64) string { return "T" + strconv.FormatInt(id, 10) }

func (db *fakeDB) fail(method string) error {
	if db.failOn == method {
		return errFake
	}
	return nil
}

// enter takes the state mutex for one statement.
func (db *fakeDB) enter() {
	if db.interleave {
		time.Sleep(20 * time.Microsecond)
	}
	db.mu.Lock()
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if db.interleave {
		return &fakeTx{db: db, shared: true}, nil
	}
	db.txMu.Lock()
	db.mu.Lock()
	snap := db.st.clone()
	db.mu.Unlock()
	return &fakeTx{db: db, snapshot: snap}, nil
}

// fakeTx implements pgx.Tx. The unused methods panic so we catch accidental calls.
type fakeTx struct {
	db       *fakeDB
	snapshot *fakeState
	shared   bool
	done     bool
}

func (t *fakeTx) finish(restore bool) {
	if t.done {
		return
	}
	t.done = true
	if t.shared {
		return
	}
	if restore {
		t.db.mu.Lock()
		t.db.st = t.snapshot
		t.db.mu.Unlock()
	}
	t.db.txMu.Unlock()
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (t *fakeTx) Commit(ctx context.Context) error          { t.finish(false); return nil }
func (t *fakeTx) Rollback(ctx context.Context) error        { t.finish(true); return nil }
func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (t *fakeTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (t *fakeTx) Conn() *pgx.Conn { panic("not implemented") }

// --- TempStore ---

func (db *fakeDB) CreateTempTransaction(ctx context.Context, arg database.CreateTempTransactionParams) (database.TempTransaction, error) {
	db.enter()
	defer db.mu.Unlock()
	if err := db.fail("CreateTempTransaction"); err != nil {
		return database.TempTransaction{}, err
	}
	db.st.seq++
	l := database.TempTransaction{
		ID:         uuid.New(),
		TableID:    arg.TableID,
		ItemName:   arg.ItemName,
		Quantity:   arg.Quantity,
		Rate:       arg.Rate,
		Amount:     arg.Amount,
		WaiterID:   arg.WaiterID,
		PrintedQty: makeNumeric("0"),
		Seq:        db.st.seq,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	db.st.lines[l.ID] = l
	return l, nil
}

func (db *fakeDB) GetTempTransaction(ctx context.Context, id uuid.UUID) (database.TempTransaction, error) {
	db.enter()
	defer db.mu.Unlock()
	l, ok := db.st.lines[id]
	if !ok {
		return database.TempTransaction{}, pgx.ErrNoRows
	}
	return l, nil
}

func (db *fakeDB) UpdateTempTransaction(ctx context.Context, arg database.UpdateTempTransactionParams) (database.TempTransaction, error) {
	db.enter()
	defer db.mu.Unlock()
	l, ok := db.st.lines[arg.ID]
	if !ok {
		return database.TempTransaction{}, pgx.ErrNoRows
	}
	l.Quantity, l.Rate, l.Amount = arg.Quantity, arg.Rate, arg.Amount
	db.st.lines[l.ID] = l
	return l, nil
}

func (db *fakeDB) SetTempTransactionPrinted(ctx context.Context, arg database.SetTempTransactionPrintedParams) error {
	db.enter()
	defer db.mu.Unlock()
	if err := db.fail("SetTempTransactionPrinted"); err != nil {
		return err
	}
	l := db.st.lines[arg.ID]
	l.PrintedQty = arg.PrintedQty
	db.st.lines[arg.ID] = l
	return nil
}

func (db *fakeDB) DeleteTempTransaction(ctx context.Context, id uuid.UUID) (int64, error) {
	db.enter()
	defer db.mu.Unlock()
	if _, ok := db.st.lines[id]; !ok {
		return 0, nil
	}
	delete(db.st.lines, id)
	return 1, nil
}

func (db *fakeDB) ListTempTransactionsByTable(ctx context.Context, tableID int64) ([]database.TempTransaction, error) {
	db.enter()
	defer db.mu.Unlock()
	var out []database.TempTransaction
	for _, l := range db.st.lines {
		if l.TableID == tableID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (db *fakeDB) CountTempTransactionsByTable(ctx context.Context, tableID int64) (int64, error) {
	lines, _ := db.ListTempTransactionsByTable(ctx, tableID)
	return int64(len(lines)), nil
}

func (db *fakeDB) DeleteTempTransactionsByTable(ctx context.Context, tableID int64) (int64, error) {
	db.enter()
	defer db.mu.Unlock()
	if err := db.fail("DeleteTempTransactionsByTable"); err != nil {
		return 0, err
	}
	var n int64
	for id, l := range db.st.lines {
		if l.TableID == tableID {
			delete(db.st.lines, id)
			n++
		}
	}
	return n, nil
}

func (db *fakeDB) ShiftTempTransactions(ctx context.Context, arg database.ShiftTempTransactionsParams) (int64, error) {
	db.enter()
	defer db.mu.Unlock()
	var n int64
	for id, l := range db.st.lines {
		if l.TableID == arg.FromTableID {
			l.TableID = arg.ToTableID
			db.st.lines[id] = l
			n++
		}
	}
	return n, nil
}

// --- KitchenStore ---

func (db *fakeDB) CreateKitchenOrder(ctx context.Context, arg database.CreateKitchenOrderParams) (database.KitchenOrder, error) {
	db.enter()
	defer db.mu.Unlock()
	db.st.seq++
	t := database.KitchenOrder{
		ID:        uuid.New(),
		TableID:   arg.TableID,
		TableName: arg.TableName,
		WaiterID:  arg.WaiterID,
		Status:    enum.KitchenOrderStatusSent,
		ItemCount: arg.ItemCount,
		TotalQty:  arg.TotalQty,
		Seq:       db.st.seq,
		SentAt:    time.Now(),
	}
	db.st.tickets[t.ID] = t
	return t, nil
}

func (db *fakeDB) CreateKitchenOrderItem(ctx context.Context, arg database.CreateKitchenOrderItemParams) (database.KitchenOrderItem, error) {
	db.enter()
	defer db.mu.Unlock()
	it := database.KitchenOrderItem{
		ID:             uuid.New(),
		KitchenOrderID: arg.KitchenOrderID,
		ItemID:         arg.ItemID,
		ItemName:       arg.ItemName,
		Quantity:       arg.Quantity,
		Rate:           arg.Rate,
		Position:       arg.Position,
	}
	db.st.ticketItems[arg.KitchenOrderID] = append(db.st.ticketItems[arg.KitchenOrderID], it)
	return it, nil
}

func (db *fakeDB) GetKitchenOrder(ctx context.Context, id uuid.UUID) (database.KitchenOrder, error) {
	db.enter()
	defer db.mu.Unlock()
	t, ok := db.st.tickets[id]
	if !ok {
		return database.KitchenOrder{}, pgx.ErrNoRows
	}
	return t, nil
}

func (db *fakeDB) ListKitchenOrderItems(ctx context.Context, id uuid.UUID) ([]database.KitchenOrderItem, error) {
	db.enter()
	defer db.mu.Unlock()
	return append([]database.KitchenOrderItem(nil), db.st.ticketItems[id]...), nil
}

func (db *fakeDB) listTickets(keep func(database.KitchenOrder) bool) []database.KitchenOrder {
	db.enter()
	defer db.mu.Unlock()
	var out []database.KitchenOrder
	for _, t := range db.st.tickets {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (db *fakeDB) ListKitchenOrders(ctx context.Context) ([]database.KitchenOrder, error) {
	return db.listTickets(func(database.KitchenOrder) bool { return true }), nil
}

func (db *fakeDB) ListKitchenOrdersByStatus(ctx context.Context, status string) ([]database.KitchenOrder, error) {
	return db.listTickets(func(t database.KitchenOrder) bool { return t.Status == status }), nil
}

func (db *fakeDB) ListKitchenOrdersByTable(ctx context.Context, tableID int64) ([]database.KitchenOrder, error) {
	return db.listTickets(func(t database.KitchenOrder) bool { return t.TableID == tableID }), nil
}

func (db *fakeDB) ListKitchenOrdersByTableAndStatus(ctx context.Context, arg database.ListKitchenOrdersByTableAndStatusParams) ([]database.KitchenOrder, error) {
	return db.listTickets(func(t database.KitchenOrder) bool {
		return t.TableID == arg.TableID && t.Status == arg.Status
	}), nil
}

func (db *fakeDB) UpdateKitchenOrderStatus(ctx context.Context, arg database.UpdateKitchenOrderStatusParams) (database.KitchenOrder, error) {
	db.enter()
	defer db.mu.Unlock()
	if err := db.fail("UpdateKitchenOrderStatus"); err != nil {
		return database.KitchenOrder{}, err
	}
	t, ok := db.st.tickets[arg.ID]
	if !ok || t.Status != arg.FromStatus {
		return database.KitchenOrder{}, pgx.ErrNoRows
	}
	t.Status = arg.Status
	now := pgtype.Timestamptz{Time: time.Now(), Valid: true}
	switch arg.Status {
	case enum.KitchenOrderStatusReady:
		t.ReadyAt = now
	case enum.KitchenOrderStatusServe:
		t.ServedAt = now
	}
	db.st.tickets[t.ID] = t
	return t, nil
}

func (db *fakeDB) DeleteKitchenOrdersByTable(ctx context.Context, tableID int64) (int64, error) {
	db.enter()
	defer db.mu.Unlock()
	var n int64
	for id, t := range db.st.tickets {
		if t.TableID == tableID {
			delete(db.st.tickets, id)
			delete(db.st.ticketItems, id)
			n++
		}
	}
	return n, nil
}

func (db *fakeDB) ShiftKitchenOrders(ctx context.Context, arg database.ShiftKitchenOrdersParams) (int64, error) {
	db.enter()
	defer db.mu.Unlock()
	var n int64
	for id, t := range db.st.tickets {
		if t.TableID == arg.FromTableID {
			t.TableID = arg.ToTableID
			t.TableName = arg.ToTableName
			db.st.tickets[id] = t
			n++
		}
	}
	return n, nil
}

// --- BillStore ---

func (db *fakeDB) CreateBill(ctx context.Context, arg database.CreateBillParams) (database.Bill, error) {
	db.enter()
	defer db.mu.Unlock()
	for _, b := range db.st.bills {
		if b.TableID == arg.TableID && b.Status == enum.BillStatusClose {
			return database.Bill{}, errors.New("duplicate key value violates unique constraint \"bills_open_table_key\"")
		}
	}
	b := database.Bill{
		BillNo:       db.st.nextBillNo,
		TableID:      arg.TableID,
		CustomerID:   arg.CustomerID,
		WaiterID:     arg.WaiterID,
		UserID:       arg.UserID,
		Status:       enum.BillStatusClose,
		BillAmt:      arg.BillAmt,
		Discount:     makeNumeric("0"),
		CashReceived: makeNumeric("0"),
		ReturnAmt:    makeNumeric("0"),
		NetAmt:       arg.NetAmt,
		TotalQty:     arg.TotalQty,
		BillDate:     arg.BillDate,
		CreatedAt:    time.Now(),
		ClosedAt:     time.Now(),
	}
	db.st.nextBillNo++
	db.st.bills[b.BillNo] = b
	return b, nil
}

func (db *fakeDB) GetBill(ctx context.Context, billNo int64) (database.Bill, error) {
	db.enter()
	defer db.mu.Unlock()
	b, ok := db.st.bills[billNo]
	if !ok {
		return database.Bill{}, pgx.ErrNoRows
	}
	return b, nil
}

func (db *fakeDB) GetBillForUpdate(ctx context.Context, billNo int64) (database.Bill, error) {
	return db.GetBill(ctx, billNo)
}

func (db *fakeDB) GetOpenBillByTable(ctx context.Context, tableID int64) (database.Bill, error) {
	db.enter()
	defer db.mu.Unlock()
	for _, b := range db.st.bills {
		if b.TableID == tableID && b.Status == enum.BillStatusClose {
			return b, nil
		}
	}
	return database.Bill{}, pgx.ErrNoRows
}

func (db *fakeDB) CreateBillItem(ctx context.Context, arg database.CreateBillItemParams) (database.BillItem, error) {
	db.enter()
	defer db.mu.Unlock()
	if err := db.fail("CreateBillItem"); err != nil {
		return database.BillItem{}, err
	}
	it := database.BillItem{
		ID:       uuid.New(),
		BillNo:   arg.BillNo,
		ItemName: arg.ItemName,
		Quantity: arg.Quantity,
		Rate:     arg.Rate,
		Amount:   arg.Amount,
		Position: arg.Position,
	}
	db.st.billItems[arg.BillNo] = append(db.st.billItems[arg.BillNo], it)
	return it, nil
}

func (db *fakeDB) ListBillItems(ctx context.Context, billNo int64) ([]database.BillItem, error) {
	db.enter()
	defer db.mu.Unlock()
	return append([]database.BillItem(nil), db.st.billItems[billNo]...), nil
}

func (db *fakeDB) DeleteBillItems(ctx context.Context, billNo int64) error {
	db.enter()
	defer db.mu.Unlock()
	delete(db.st.billItems, billNo)
	return nil
}

func (db *fakeDB) UpdateBillTotals(ctx context.Context, arg database.UpdateBillTotalsParams) (database.Bill, error) {
	db.enter()
	defer db.mu.Unlock()
	b, ok := db.st.bills[arg.BillNo]
	if !ok || b.Status != enum.BillStatusClose {
		return database.Bill{}, pgx.ErrNoRows
	}
	b.BillAmt, b.NetAmt, b.TotalQty = arg.BillAmt, arg.NetAmt, arg.TotalQty
	db.st.bills[b.BillNo] = b
	return b, nil
}

func (db *fakeDB) SettleBill(ctx context.Context, arg database.SettleBillParams) (database.Bill, error) {
	db.enter()
	defer db.mu.Unlock()
	b, ok := db.st.bills[arg.BillNo]
	if !ok || b.Status != enum.BillStatusClose {
		return database.Bill{}, pgx.ErrNoRows
	}
	b.Status = arg.Status
	b.CustomerID = arg.CustomerID
	b.Paymode = arg.Paymode
	b.CashReceived = arg.CashReceived
	b.ReturnAmt = arg.ReturnAmt
	b.Discount = arg.Discount
	b.NetAmt = arg.NetAmt
	b.BankID = arg.BankID
	b.SettledAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	db.st.bills[b.BillNo] = b
	return b, nil
}

func (db *fakeDB) CorrectBill(ctx context.Context, arg database.CorrectBillParams) (database.Bill, error) {
	db.enter()
	defer db.mu.Unlock()
	b, ok := db.st.bills[arg.BillNo]
	if !ok {
		return database.Bill{}, pgx.ErrNoRows
	}
	b.BillAmt = arg.BillAmt
	b.Discount = arg.Discount
	b.CashReceived = arg.CashReceived
	b.ReturnAmt = arg.ReturnAmt
	b.NetAmt = arg.NetAmt
	b.TotalQty = arg.TotalQty
	db.st.bills[b.BillNo] = b
	return b, nil
}

func (db *fakeDB) ShiftBill(ctx context.Context, arg database.ShiftBillParams) (database.Bill, error) {
	db.enter()
	defer db.mu.Unlock()
	if err := db.fail("ShiftBill"); err != nil {
		return database.Bill{}, err
	}
	b, ok := db.st.bills[arg.BillNo]
	if !ok || b.Status != enum.BillStatusClose {
		return database.Bill{}, pgx.ErrNoRows
	}
	b.TableID = arg.TableID
	db.st.bills[b.BillNo] = b
	return b, nil
}

func (db *fakeDB) settledBills(keep func(database.Bill) bool) []database.Bill {
	db.enter()
	defer db.mu.Unlock()
	var out []database.Bill
	for _, b := range db.st.bills {
		if b.Status != enum.BillStatusClose && keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BillNo < out[j].BillNo })
	return out
}

func (db *fakeDB) SearchBillsByNo(ctx context.Context, billNo int64) ([]database.Bill, error) {
	return db.settledBills(func(b database.Bill) bool { return b.BillNo == billNo }), nil
}

func (db *fakeDB) SearchBillsByDate(ctx context.Context, arg database.SearchBillsByDateParams) ([]database.Bill, error) {
	return db.settledBills(func(b database.Bill) bool {
		return b.BillDate == arg.BillDate && (!arg.Status.Valid || b.Status == arg.Status.String)
	}), nil
}

func (db *fakeDB) SearchBillsByCustomer(ctx context.Context, customerID int64) ([]database.Bill, error) {
	return db.settledBills(func(b database.Bill) bool {
		return b.CustomerID.Valid && b.CustomerID.Int64 == customerID
	}), nil
}

func (db *fakeDB) SummarizeBillsByDate(ctx context.Context, billDate string) (database.SummarizeBillsByDateRow, error) {
	cash, credit := decimal.Zero, decimal.Zero
	bills := db.settledBills(func(b database.Bill) bool { return b.BillDate == billDate })
	for _, b := range bills {
		net := database.NumericToDecimal(b.NetAmt)
		if b.Status == enum.BillStatusPaid {
			cash = cash.Add(net)
		} else {
			credit = credit.Add(net)
		}
	}
	return database.SummarizeBillsByDateRow{
		TotalCash:   database.DecimalToNumeric(cash),
		TotalCredit: database.DecimalToNumeric(credit),
		BillCount:   int64(len(bills)),
	}, nil
}

// --- TableStore ---

func (db *fakeDB) ListTableActivity(ctx context.Context) ([]database.ListTableActivityRow, error) {
	ids := make([]int64, 0, len(db.tables))
	for id := range db.tables {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var rows []database.ListTableActivityRow
	for _, id := range ids {
		n, _ := db.CountTempTransactionsByTable(ctx, id)
		row := database.ListTableActivityRow{ID: id, Name: db.tables[id].Name, LineCount: n}
		if b, err := db.GetOpenBillByTable(ctx, id); err == nil {
			row.OpenBillNo = pgtype.Int8{Int64: b.BillNo, Valid: true}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// --- Collaborators ---

type fakeCatalog struct {
	items       map[string]catalog.Entry
	suggestions []string
}

func newFakeCatalog() *fakeCatalog {
	c := &fakeCatalog{items: map[string]catalog.Entry{}, suggestions: []string{"Masala Tea"}}
	c.add(1, "Tea", "20")
	c.add(2, "Samosa", "15")
	c.add(3, "Masala Tea", "25")
	c.add(4, "Paneer Tikka", "50")
	return c
}

func (c *fakeCatalog) add(id int64, name, rate string) {
	c.items[strings.ToLower(name)] = catalog.Entry{ItemID: id, Name: name, Rate: decimal.RequireFromString(rate)}
}

func (c *fakeCatalog) Lookup(ctx context.Context, name string) (catalog.Entry, error) {
	e, ok := c.items[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return catalog.Entry{}, catalog.ErrNotFound
	}
	return e, nil
}

func (c *fakeCatalog) Suggest(ctx context.Context, name string) []string { return c.suggestions }

type fakeNames struct{ tables map[int64]string }

func (n *fakeNames) TableName(ctx context.Context, id int64) (string, bool) {
	name, ok := n.tables[id]
	return name, ok
}
func (n *fakeNames) CustomerName(ctx context.Context, id int64) (string, bool) {
	if id == 42 {
		return "Ravi", true
	}
	return "", false
}
func (n *fakeNames) WaiterName(ctx context.Context, id int64) (string, bool) { return "Anil", true }
func (n *fakeNames) BankName(ctx context.Context, id int64) (string, bool)   { return "", false }

type recordingAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
	err     error
}

func (a *recordingAudit) Record(ctx context.Context, e AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return a.err
}

func (a *recordingAudit) actions(entityType string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, e := range a.entries {
		if e.EntityType == entityType {
			out = append(out, e.Action)
		}
	}
	return out
}

type recordingNotifier struct {
	mu      sync.Mutex
	tickets []TicketEvent
	tables  []TableEvent
	err     error
}

func (n *recordingNotifier) TicketChanged(ctx context.Context, ev TicketEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tickets = append(n.tickets, ev)
	return n.err
}

func (n *recordingNotifier) TableChanged(ctx context.Context, ev TableEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tables = append(n.tables, ev)
	return n.err
}

// --- Test helpers ---

var testNow = time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)

const testDate = "14-03-2026"

type testEnv struct {
	db       *fakeDB
	audit    *recordingAudit
	notifier *recordingNotifier
	temp     *TempTransactionService
	kitchen  *KitchenService
	status   *TableStatusService
	bills    *BillService
	shift    *ShiftService
}

func newTestEnv(tableIDs ...int64) *testEnv {
	db := newFakeDB(tableIDs...)
	names := &fakeNames{tables: map[int64]string{}}
	for id, t := range db.tables {
		names.tables[id] = t.Name
	}
	audit := &recordingAudit{}
	notifier := &recordingNotifier{}
	d := Deps{
		Pool:     db,
		NewStore: func(database.DBTX) Store { return db },
		Store:    db,
		Locker:   tablelock.NewLocal(),
		Catalog:  newFakeCatalog(),
		Names:    names,
		Audit:    audit,
		Notifier: notifier,
		Clock:    func() time.Time { return testNow },
		Location: time.UTC,
	}
	return &testEnv{
		db:       db,
		audit:    audit,
		notifier: notifier,
		temp:     NewTempTransactionService(d),
		kitchen:  NewKitchenService(d),
		status:   NewTableStatusService(d),
		bills:    NewBillService(d),
		shift:    NewShiftService(d),
	}
}

func (e *testEnv) addLine(t testing.TB, tableID int64, item, qty, rate string) database.TempTransaction {
	t.Helper()
	req := AddLineRequest{
		TableID:  tableID,
		ItemName: item,
		Quantity: decimal.RequireFromString(qty),
		WaiterID: 3,
	}
	if rate != "" {
		r := decimal.RequireFromString(rate)
		req.Rate = &r
	}
	line, err := e.temp.AddOrUpdate(context.Background(), req)
	if err != nil {
		t.Fatalf("add %s to table %d: %v", item, tableID, err)
	}
	return line
}

func (e *testEnv) close(t testing.TB, tableID int64) *BillResult {
	t.Helper()
	res, err := e.bills.CloseTable(context.Background(), CloseTableRequest{TableID: tableID, WaiterID: 3, UserID: 1})
	if err != nil {
		t.Fatalf("close table %d: %v", tableID, err)
	}
	return res
}

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	return database.NumericToDecimal(n).Equal(decimal.RequireFromString(expected))
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func int64Ptr(v int64) *int64 { return &v }
