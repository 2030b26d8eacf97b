package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/tableside/internal/database"
	"github.com/kiwari-pos/tableside/internal/enum"
	"github.com/shopspring/decimal"
)

// CloseTableRequest turns a table's pending lines into its bill.
type CloseTableRequest struct {
	TableID    int64
	CustomerID *int64
	WaiterID   int64
	UserID     int64
}

// PayRequest settles an open bill as PAID.
type PayRequest struct {
	BillNo       int64
	CashReceived decimal.Decimal
	ReturnAmount decimal.Decimal
	Discount     decimal.Decimal
	Paymode      string
	BankID       *int64
	ActorID      int64
}

// CreditRequest settles an open bill on a customer's account.
type CreditRequest struct {
	BillNo       int64
	CustomerID   *int64
	CashReceived decimal.Decimal
	ReturnAmount decimal.Decimal
	Discount     decimal.Decimal
	ActorID      int64
}

// CorrectionLine replaces one bill line in an override.
type CorrectionLine struct {
	ItemName string
	Quantity decimal.Decimal
	Rate     decimal.Decimal
}

// CorrectBillRequest rewrites the lines and payment figures of any bill.
type CorrectBillRequest struct {
	BillNo       int64
	Lines        []CorrectionLine
	Discount     decimal.Decimal
	CashReceived decimal.Decimal
	ReturnAmount decimal.Decimal
	ActorID      int64
}

// SearchCriteria selects settled bills. Exactly one of BillNo, Date or
// CustomerID must be set; Status only narrows a date search.
type SearchCriteria struct {
	BillNo     *int64
	Date       string
	Status     string
	CustomerID *int64
}

// BillNames are display names for the references on a bill. Unknown
// names are left empty.
type BillNames struct {
	Table    string
	Customer string
	Waiter   string
	Bank     string
}

// BillResult is a bill with its lines.
type BillResult struct {
	Bill    database.Bill
	Items   []database.BillItem
	Created bool
	Names   *BillNames
}

// Summary is the settled total for one bill date.
type Summary struct {
	Date        string
	TotalCash   decimal.Decimal
	TotalCredit decimal.Decimal
	TotalAmount decimal.Decimal
	Count       int64
}

// BillService runs the bill lifecycle CLOSE -> PAID | CREDIT.
type BillService struct {
	*core
}

// NewBillService creates a new BillService.
func NewBillService(d Deps) *BillService {
	return &BillService{core: newCore(d)}
}

// CloseTable moves the table's pending lines onto its bill, creating the
// bill on first close and appending on later ones.
func (s *BillService) CloseTable(ctx context.Context, req CloseTableRequest) (*BillResult, error) {
	if req.TableID <= 0 {
		return nil, ErrTableRequired
	}
	if req.WaiterID <= 0 {
		return nil, ErrWaiterRequired
	}
	if req.UserID <= 0 {
		return nil, ErrUserRequired
	}

	result := &BillResult{}
	var added int
	err := s.withTables(ctx, func(store Store) error {
		pending, err := store.ListTempTransactionsByTable(ctx, req.TableID)
		if err != nil {
			return fmt.Errorf("list lines: %w", err)
		}

		open, err := store.GetOpenBillByTable(ctx, req.TableID)
		hasOpen := err == nil
		if err != nil && !isNoRows(err) {
			return fmt.Errorf("get open bill: %w", err)
		}

		switch {
		case len(pending) == 0 && hasOpen:
			return ErrNothingToClose
		case len(pending) == 0:
			return ErrNoItemsToClose
		}

		var existing []database.BillItem
		if hasOpen {
			existing, err = store.ListBillItems(ctx, open.BillNo)
			if err != nil {
				return fmt.Errorf("list bill items: %w", err)
			}
		}

		gross, qty := decimal.Zero, decimal.Zero
		for _, it := range existing {
			q, r := database.NumericToDecimal(it.Quantity), database.NumericToDecimal(it.Rate)
			gross = gross.Add(lineAmount(q, r))
			qty = qty.Add(q)
		}
		for _, l := range pending {
			q, r := database.NumericToDecimal(l.Quantity), database.NumericToDecimal(l.Rate)
			gross = gross.Add(lineAmount(q, r))
			qty = qty.Add(q)
		}
		gross = gross.Round(moneyPlaces)

		bill := open
		if hasOpen {
			discount := database.NumericToDecimal(open.Discount)
			bill, err = store.UpdateBillTotals(ctx, database.UpdateBillTotalsParams{
				BillNo:   open.BillNo,
				BillAmt:  database.DecimalToNumeric(gross),
				NetAmt:   database.DecimalToNumeric(gross.Sub(discount)),
				TotalQty: database.DecimalToNumeric(qty),
			})
			if err != nil {
				return fmt.Errorf("update bill totals: %w", err)
			}
		} else {
			bill, err = store.CreateBill(ctx, database.CreateBillParams{
				TableID:    req.TableID,
				CustomerID: optionalInt8(req.CustomerID),
				WaiterID:   req.WaiterID,
				UserID:     req.UserID,
				BillAmt:    database.DecimalToNumeric(gross),
				NetAmt:     database.DecimalToNumeric(gross),
				TotalQty:   database.DecimalToNumeric(qty),
				BillDate:   s.today(),
			})
			if err != nil {
				return fmt.Errorf("create bill: %w", err)
			}
		}

		items := existing
		for i, l := range pending {
			q, r := database.NumericToDecimal(l.Quantity), database.NumericToDecimal(l.Rate)
			item, err := store.CreateBillItem(ctx, database.CreateBillItemParams{
				BillNo:   bill.BillNo,
				ItemName: l.ItemName,
				Quantity: l.Quantity,
				Rate:     l.Rate,
				Amount:   database.DecimalToNumeric(lineAmount(q, r)),
				Position: int32(len(existing) + i),
			})
			if err != nil {
				return fmt.Errorf("create bill item: %w", err)
			}
			items = append(items, item)
		}

		if _, err := store.DeleteTempTransactionsByTable(ctx, req.TableID); err != nil {
			return fmt.Errorf("clear lines: %w", err)
		}

		result.Bill = bill
		result.Items = items
		result.Created = !hasOpen
		added = len(pending)
		return nil
	}, req.TableID)
	if err != nil {
		return nil, err
	}

	action := enum.AuditActionUpdate
	if result.Created {
		action = enum.AuditActionCreate
	}
	s.record(ctx, AuditEntry{
		EntityType: enum.AuditEntityBill,
		EntityID:   billID(result.Bill.BillNo),
		Action:     action,
		ActorID:    req.UserID,
		Details: map[string]any{
			"table_id":    req.TableID,
			"lines_added": added,
			"bill_amt":    database.NumericToDecimal(result.Bill.BillAmt).String(),
		},
	})
	s.tableChanged(ctx, req.TableID, "closed", result.Bill.BillNo)
	return result, nil
}

// MarkPaid settles an open bill as PAID. The table's kitchen tickets are
// cleared with it.
func (s *BillService) MarkPaid(ctx context.Context, req PayRequest) (*BillResult, error) {
	paymode := strings.ToUpper(strings.TrimSpace(req.Paymode))
	if paymode != enum.PaymodeCash && paymode != enum.PaymodeBank {
		return nil, ErrInvalidPaymode
	}
	if paymode == enum.PaymodeBank && (req.BankID == nil || *req.BankID <= 0) {
		return nil, ErrBankRequired
	}
	if err := checkMoney(req.CashReceived, req.ReturnAmount, req.Discount); err != nil {
		return nil, err
	}
	return s.settle(ctx, req.BillNo, req.ActorID, enum.BillStatusPaid, func(bill database.Bill) database.SettleBillParams {
		return database.SettleBillParams{
			CustomerID:   bill.CustomerID,
			Paymode:      pgtype.Text{String: paymode, Valid: true},
			CashReceived: database.DecimalToNumeric(req.CashReceived),
			ReturnAmt:    database.DecimalToNumeric(req.ReturnAmount),
			Discount:     database.DecimalToNumeric(req.Discount),
			BankID:       optionalInt8(req.BankID),
		}
	})
}

// MarkCredit settles an open bill against a customer account.
func (s *BillService) MarkCredit(ctx context.Context, req CreditRequest) (*BillResult, error) {
	if req.CustomerID == nil || *req.CustomerID <= 0 {
		return nil, ErrCustomerRequired
	}
	if err := checkMoney(req.CashReceived, req.ReturnAmount, req.Discount); err != nil {
		return nil, err
	}
	return s.settle(ctx, req.BillNo, req.ActorID, enum.BillStatusCredit, func(database.Bill) database.SettleBillParams {
		return database.SettleBillParams{
			CustomerID:   optionalInt8(req.CustomerID),
			CashReceived: database.DecimalToNumeric(req.CashReceived),
			ReturnAmt:    database.DecimalToNumeric(req.ReturnAmount),
			Discount:     database.DecimalToNumeric(req.Discount),
		}
	})
}

func (s *BillService) settle(ctx context.Context, billNo, actorID int64, status string, params func(database.Bill) database.SettleBillParams) (*BillResult, error) {
	result := &BillResult{}
	err := s.withBillTable(ctx, billNo, func(store Store, bill database.Bill) error {
		if bill.Status != enum.BillStatusClose {
			return ErrBillNotOpen
		}
		arg := params(bill)
		arg.BillNo = bill.BillNo
		arg.Status = status
		gross := database.NumericToDecimal(bill.BillAmt)
		arg.NetAmt = database.DecimalToNumeric(gross.Sub(database.NumericToDecimal(arg.Discount)))

		settled, err := store.SettleBill(ctx, arg)
		if err != nil {
			if isNoRows(err) {
				return ErrBillNotOpen
			}
			return fmt.Errorf("settle bill: %w", err)
		}
		items, err := store.ListBillItems(ctx, bill.BillNo)
		if err != nil {
			return fmt.Errorf("list bill items: %w", err)
		}
		if _, err := store.DeleteKitchenOrdersByTable(ctx, bill.TableID); err != nil {
			return fmt.Errorf("clear tickets: %w", err)
		}
		result.Bill = settled
		result.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := enum.AuditActionPaid
	if status == enum.BillStatusCredit {
		action = enum.AuditActionCredit
	}
	details := map[string]any{
		"table_id": result.Bill.TableID,
		"net_amt":  database.NumericToDecimal(result.Bill.NetAmt).String(),
		"discount": database.NumericToDecimal(result.Bill.Discount).String(),
	}
	if result.Bill.Paymode.Valid {
		details["paymode"] = result.Bill.Paymode.String
	}
	if result.Bill.CustomerID.Valid {
		details["customer_id"] = result.Bill.CustomerID.Int64
	}
	s.record(ctx, AuditEntry{
		EntityType: enum.AuditEntityBill,
		EntityID:   billID(result.Bill.BillNo),
		Action:     action,
		ActorID:    actorID,
		Details:    details,
	})
	s.tableChanged(ctx, result.Bill.TableID, strings.ToLower(status), result.Bill.BillNo)
	return result, nil
}

// ShiftBill moves an open bill to another table.
func (s *BillService) ShiftBill(ctx context.Context, billNo, targetTableID, actorID int64) (database.Bill, error) {
	if targetTableID <= 0 {
		return database.Bill{}, ErrTableRequired
	}
	current, err := s.getBill(ctx, billNo)
	if err != nil {
		return database.Bill{}, err
	}
	if current.TableID == targetTableID {
		return database.Bill{}, ErrSameTable
	}

	var shifted database.Bill
	err = s.withTables(ctx, func(store Store) error {
		bill, err := store.GetBillForUpdate(ctx, billNo)
		if err != nil {
			if isNoRows(err) {
				return ErrBillNotFound
			}
			return fmt.Errorf("get bill: %w", err)
		}
		if bill.TableID != current.TableID {
			return fmt.Errorf("%w: bill moved to table %d", ErrInvalidShift, bill.TableID)
		}
		shifted, err = shiftOpenBill(ctx, store, bill, targetTableID)
		return err
	}, current.TableID, targetTableID)
	if err != nil {
		return database.Bill{}, err
	}

	s.record(ctx, AuditEntry{
		EntityType: enum.AuditEntityBill,
		EntityID:   billID(billNo),
		Action:     enum.AuditActionShift,
		ActorID:    actorID,
		Details:    map[string]any{"from_table_id": current.TableID, "to_table_id": targetTableID},
	})
	s.tableChanged(ctx, current.TableID, "bill_shifted", billNo)
	s.tableChanged(ctx, targetTableID, "bill_shifted", billNo)
	return shifted, nil
}

// shiftOpenBill expects both tables to be locked.
func shiftOpenBill(ctx context.Context, store Store, bill database.Bill, targetTableID int64) (database.Bill, error) {
	if bill.Status != enum.BillStatusClose {
		return database.Bill{}, ErrBillNotOpen
	}
	if _, err := store.GetOpenBillByTable(ctx, targetTableID); err == nil {
		return database.Bill{}, ErrTargetHasOpenBill
	} else if !isNoRows(err) {
		return database.Bill{}, fmt.Errorf("get target open bill: %w", err)
	}
	shifted, err := store.ShiftBill(ctx, database.ShiftBillParams{BillNo: bill.BillNo, TableID: targetTableID})
	if err != nil {
		if isNoRows(err) {
			return database.Bill{}, ErrBillNotOpen
		}
		return database.Bill{}, fmt.Errorf("shift bill: %w", err)
	}
	return shifted, nil
}

// UpdateBill overrides the lines and figures of any bill, settled or not.
// Status is left as it is.
func (s *BillService) UpdateBill(ctx context.Context, req CorrectBillRequest) (*BillResult, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyCorrection
	}
	if err := checkMoney(req.CashReceived, req.ReturnAmount, req.Discount); err != nil {
		return nil, err
	}
	for _, l := range req.Lines {
		if strings.TrimSpace(l.ItemName) == "" {
			return nil, ErrItemNameRequired
		}
		if err := checkQuantity(l.Quantity); err != nil {
			return nil, err
		}
		if err := checkRate(l.Rate); err != nil {
			return nil, err
		}
	}

	var before database.Bill
	result := &BillResult{}
	err := s.withBillTable(ctx, req.BillNo, func(store Store, bill database.Bill) error {
		before = bill
		if err := store.DeleteBillItems(ctx, bill.BillNo); err != nil {
			return fmt.Errorf("delete bill items: %w", err)
		}

		gross, qty := decimal.Zero, decimal.Zero
		items := make([]database.BillItem, 0, len(req.Lines))
		for i, l := range req.Lines {
			amount := lineAmount(l.Quantity, l.Rate)
			item, err := store.CreateBillItem(ctx, database.CreateBillItemParams{
				BillNo:   bill.BillNo,
				ItemName: strings.TrimSpace(l.ItemName),
				Quantity: database.DecimalToNumeric(l.Quantity),
				Rate:     database.DecimalToNumeric(l.Rate),
				Amount:   database.DecimalToNumeric(amount),
				Position: int32(i),
			})
			if err != nil {
				return fmt.Errorf("create bill item: %w", err)
			}
			items = append(items, item)
			gross = gross.Add(amount)
			qty = qty.Add(l.Quantity)
		}
		gross = gross.Round(moneyPlaces)

		corrected, err := store.CorrectBill(ctx, database.CorrectBillParams{
			BillNo:       bill.BillNo,
			BillAmt:      database.DecimalToNumeric(gross),
			Discount:     database.DecimalToNumeric(req.Discount),
			CashReceived: database.DecimalToNumeric(req.CashReceived),
			ReturnAmt:    database.DecimalToNumeric(req.ReturnAmount),
			NetAmt:       database.DecimalToNumeric(gross.Sub(req.Discount)),
			TotalQty:     database.DecimalToNumeric(qty),
		})
		if err != nil {
			return fmt.Errorf("correct bill: %w", err)
		}
		result.Bill = corrected
		result.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, AuditEntry{
		EntityType: enum.AuditEntityBill,
		EntityID:   billID(req.BillNo),
		Action:     enum.AuditActionCorrection,
		ActorID:    req.ActorID,
		Details: map[string]any{
			"status":       result.Bill.Status,
			"old_bill_amt": database.NumericToDecimal(before.BillAmt).String(),
			"new_bill_amt": database.NumericToDecimal(result.Bill.BillAmt).String(),
			"old_net_amt":  database.NumericToDecimal(before.NetAmt).String(),
			"new_net_amt":  database.NumericToDecimal(result.Bill.NetAmt).String(),
		},
	})
	return result, nil
}

// SearchBills finds settled bills. Open bills are never returned.
func (s *BillService) SearchBills(ctx context.Context, c SearchCriteria) ([]database.Bill, error) {
	set := 0
	if c.BillNo != nil {
		set++
	}
	if c.Date != "" {
		set++
	}
	if c.CustomerID != nil {
		set++
	}
	if set != 1 {
		return nil, ErrInvalidCriteria
	}

	var (
		bills []database.Bill
		err   error
	)
	switch {
	case c.BillNo != nil:
		bills, err = s.store.SearchBillsByNo(ctx, *c.BillNo)
	case c.CustomerID != nil:
		bills, err = s.store.SearchBillsByCustomer(ctx, *c.CustomerID)
	default:
		if _, perr := time.Parse(enum.DateLayout, c.Date); perr != nil {
			return nil, ErrInvalidDate
		}
		var status pgtype.Text
		if st := strings.ToUpper(strings.TrimSpace(c.Status)); st != "" {
			if st != enum.BillStatusPaid && st != enum.BillStatusCredit {
				return nil, ErrInvalidStatusFilter
			}
			status = pgtype.Text{String: st, Valid: true}
		}
		bills, err = s.store.SearchBillsByDate(ctx, database.SearchBillsByDateParams{BillDate: c.Date, Status: status})
	}
	if err != nil {
		return nil, fmt.Errorf("search bills: %w", err)
	}
	return bills, nil
}

// TodaysSummary totals today's settled bills: PAID as cash, CREDIT as credit.
func (s *BillService) TodaysSummary(ctx context.Context) (Summary, error) {
	date := s.today()
	row, err := s.store.SummarizeBillsByDate(ctx, date)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize bills: %w", err)
	}
	cash := database.NumericToDecimal(row.TotalCash)
	credit := database.NumericToDecimal(row.TotalCredit)
	return Summary{
		Date:        date,
		TotalCash:   cash,
		TotalCredit: credit,
		TotalAmount: cash.Add(credit),
		Count:       row.BillCount,
	}, nil
}

// GetBill returns a bill, its lines and display names.
func (s *BillService) GetBill(ctx context.Context, billNo int64) (*BillResult, error) {
	bill, err := s.getBill(ctx, billNo)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, bill)
}

// OpenBillForTable returns the table's CLOSE bill.
func (s *BillService) OpenBillForTable(ctx context.Context, tableID int64) (*BillResult, error) {
	bill, err := s.store.GetOpenBillByTable(ctx, tableID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("get open bill: %w", err)
	}
	return s.detail(ctx, bill)
}

func (s *BillService) detail(ctx context.Context, bill database.Bill) (*BillResult, error) {
	items, err := s.store.ListBillItems(ctx, bill.BillNo)
	if err != nil {
		return nil, fmt.Errorf("list bill items: %w", err)
	}
	return &BillResult{Bill: bill, Items: items, Names: s.billNames(ctx, bill)}, nil
}

func (s *BillService) billNames(ctx context.Context, bill database.Bill) *BillNames {
	names := &BillNames{}
	if s.names == nil {
		return names
	}
	lookup := func(kind string, id int64, fn func(context.Context, int64) (string, bool)) string {
		name, ok := fn(ctx, id)
		if !ok {
			log.Printf("WARN: bill %d: no %s name for id %d", bill.BillNo, kind, id)
		}
		return name
	}
	names.Table = lookup("table", bill.TableID, s.names.TableName)
	names.Waiter = lookup("waiter", bill.WaiterID, s.names.WaiterName)
	if bill.CustomerID.Valid {
		names.Customer = lookup("customer", bill.CustomerID.Int64, s.names.CustomerName)
	}
	if bill.BankID.Valid {
		names.Bank = lookup("bank", bill.BankID.Int64, s.names.BankName)
	}
	return names
}

func (s *BillService) getBill(ctx context.Context, billNo int64) (database.Bill, error) {
	bill, err := s.store.GetBill(ctx, billNo)
	if err != nil {
		if isNoRows(err) {
			return database.Bill{}, ErrBillNotFound
		}
		return database.Bill{}, fmt.Errorf("get bill: %w", err)
	}
	return bill, nil
}

// withBillTable locks the bill's table and runs fn with the bill
// re-read FOR UPDATE. A bill shifted while waiting is retried on its new table.
func (s *BillService) withBillTable(ctx context.Context, billNo int64, fn func(store Store, bill database.Bill) error) error {
	const maxAttempts = 3
	for attempt := 0; attempt < maxAttempts; attempt++ {
		bill, err := s.getBill(ctx, billNo)
		if err != nil {
			return err
		}

		moved := false
		err = s.withTables(ctx, func(store Store) error {
			current, err := store.GetBillForUpdate(ctx, billNo)
			if err != nil {
				if isNoRows(err) {
					return ErrBillNotFound
				}
				return fmt.Errorf("get bill: %w", err)
			}
			if current.TableID != bill.TableID {
				moved = true
				return nil
			}
			return fn(store, current)
		}, bill.TableID)
		if err != nil || !moved {
			return err
		}
	}
	return fmt.Errorf("bill %d kept moving between tables", billNo)
}

// checkMoney rejects negative or sub-cent settlement figures.
func checkMoney(vals ...decimal.Decimal) error {
	for _, v := range vals {
		if v.IsNegative() {
			return ErrNegativeAmount
		}
		if !v.Equal(v.Round(moneyPlaces)) {
			return ErrMoneyPrecision
		}
	}
	return nil
}

func optionalInt8(id *int64) pgtype.Int8 {
	if id == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *id, Valid: true}
}

func billID(billNo int64) string { return strconv.FormatInt(billNo, 10) }
