package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/tableside/internal/database"
	"github.com/kiwari-pos/tableside/internal/service"
)

type tableResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Section    *string `json:"section"`
	Status     string  `json:"status"`
	LineCount  int64   `json:"line_count"`
	OpenBillNo *int64  `json:"open_bill_no"`
}

type lineResponse struct {
	ID         uuid.UUID `json:"id"`
	TableID    int64     `json:"table_id"`
	ItemName   string    `json:"item_name"`
	Quantity   string    `json:"quantity"`
	Rate       string    `json:"rate"`
	Amount     string    `json:"amount"`
	WaiterID   int64     `json:"waiter_id"`
	PrintedQty string    `json:"printed_qty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ticketItemResponse struct {
	ID       uuid.UUID `json:"id"`
	ItemID   *int64    `json:"item_id"`
	ItemName string    `json:"item_name"`
	Quantity string    `json:"quantity"`
	Rate     string    `json:"rate"`
}

type ticketResponse struct {
	ID        uuid.UUID            `json:"id"`
	TableID   int64                `json:"table_id"`
	TableName string               `json:"table_name"`
	WaiterID  int64                `json:"waiter_id"`
	Status    string               `json:"status"`
	ItemCount int32                `json:"item_count"`
	TotalQty  string               `json:"total_qty"`
	SentAt    time.Time            `json:"sent_at"`
	ReadyAt   *time.Time           `json:"ready_at"`
	ServedAt  *time.Time           `json:"served_at"`
	Items     []ticketItemResponse `json:"items,omitempty"`
}

type tableTicketsResponse struct {
	TableID   int64            `json:"table_id"`
	TableName string           `json:"table_name"`
	Tickets   []ticketResponse `json:"tickets"`
}

type billItemResponse struct {
	ID       uuid.UUID `json:"id"`
	ItemName string    `json:"item_name"`
	Quantity string    `json:"quantity"`
	Rate     string    `json:"rate"`
	Amount   string    `json:"amount"`
}

type billNamesResponse struct {
	Table    string `json:"table,omitempty"`
	Customer string `json:"customer,omitempty"`
	Waiter   string `json:"waiter,omitempty"`
	Bank     string `json:"bank,omitempty"`
}

type billResponse struct {
	BillNo       int64              `json:"bill_no"`
	TableID      int64              `json:"table_id"`
	CustomerID   *int64             `json:"customer_id"`
	WaiterID     int64              `json:"waiter_id"`
	UserID       int64              `json:"user_id"`
	Paymode      *string            `json:"paymode"`
	Status       string             `json:"status"`
	BillAmt      string             `json:"bill_amt"`
	Discount     string             `json:"discount"`
	CashReceived string             `json:"cash_received"`
	ReturnAmt    string             `json:"return_amt"`
	NetAmt       string             `json:"net_amt"`
	TotalQty     string             `json:"total_qty"`
	BankID       *int64             `json:"bank_id"`
	BillDate     string             `json:"bill_date"`
	ClosedAt     time.Time          `json:"closed_at"`
	SettledAt    *time.Time         `json:"settled_at"`
	Items        []billItemResponse `json:"items,omitempty"`
	Names        *billNamesResponse `json:"names,omitempty"`
}

type summaryResponse struct {
	Date        string `json:"date"`
	TotalCash   string `json:"total_cash"`
	TotalCredit string `json:"total_credit"`
	TotalAmount string `json:"total_amount"`
	Count       int64  `json:"count"`
}

type shiftResponse struct {
	FromTableID  int64         `json:"from_table_id"`
	ToTableID    int64         `json:"to_table_id"`
	LinesMoved   int64         `json:"lines_moved"`
	TicketsMoved int64         `json:"tickets_moved"`
	Bill         *billResponse `json:"bill"`
}

func toTableResponse(t service.TableActivity) tableResponse {
	resp := tableResponse{
		ID:         t.ID,
		Name:       t.Name,
		Status:     t.Status,
		LineCount:  t.LineCount,
		OpenBillNo: t.OpenBillNo,
	}
	if t.Section != "" {
		s := t.Section
		resp.Section = &s
	}
	return resp
}

func toLineResponse(l database.TempTransaction) lineResponse {
	return lineResponse{
		ID:         l.ID,
		TableID:    l.TableID,
		ItemName:   l.ItemName,
		Quantity:   qty(l.Quantity),
		Rate:       money(l.Rate),
		Amount:     lineMoney(l.Amount),
		WaiterID:   l.WaiterID,
		PrintedQty: qty(l.PrintedQty),
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

func toLineResponses(lines []database.TempTransaction) []lineResponse {
	out := make([]lineResponse, len(lines))
	for i, l := range lines {
		out[i] = toLineResponse(l)
	}
	return out
}

func toTicketResponse(t database.KitchenOrder, items []database.KitchenOrderItem) ticketResponse {
	resp := ticketResponse{
		ID:        t.ID,
		TableID:   t.TableID,
		TableName: t.TableName,
		WaiterID:  t.WaiterID,
		Status:    t.Status,
		ItemCount: t.ItemCount,
		TotalQty:  qty(t.TotalQty),
		SentAt:    t.SentAt,
	}
	if t.ReadyAt.Valid {
		resp.ReadyAt = &t.ReadyAt.Time
	}
	if t.ServedAt.Valid {
		resp.ServedAt = &t.ServedAt.Time
	}
	for _, it := range items {
		resp.Items = append(resp.Items, ticketItemResponse{
			ID:       it.ID,
			ItemID:   int8Ptr(it.ItemID),
			ItemName: it.ItemName,
			Quantity: qty(it.Quantity),
			Rate:     money(it.Rate),
		})
	}
	return resp
}

func toTicketResponses(tickets []database.KitchenOrder) []ticketResponse {
	out := make([]ticketResponse, len(tickets))
	for i, t := range tickets {
		out[i] = toTicketResponse(t, nil)
	}
	return out
}

func toTicketResultResponses(results []service.TicketResult) []ticketResponse {
	out := make([]ticketResponse, len(results))
	for i, r := range results {
		out[i] = toTicketResponse(r.Ticket, r.Items)
	}
	return out
}

func toTableTicketsResponses(groups []service.TableTickets) []tableTicketsResponse {
	out := make([]tableTicketsResponse, len(groups))
	for i, g := range groups {
		out[i] = tableTicketsResponse{
			TableID:   g.TableID,
			TableName: g.TableName,
			Tickets:   toTicketResultResponses(g.Tickets),
		}
	}
	return out
}

func toBillResponse(b database.Bill) billResponse {
	resp := billResponse{
		BillNo:       b.BillNo,
		TableID:      b.TableID,
		CustomerID:   int8Ptr(b.CustomerID),
		WaiterID:     b.WaiterID,
		UserID:       b.UserID,
		Status:       b.Status,
		BillAmt:      money(b.BillAmt),
		Discount:     money(b.Discount),
		CashReceived: money(b.CashReceived),
		ReturnAmt:    money(b.ReturnAmt),
		NetAmt:       money(b.NetAmt),
		TotalQty:     qty(b.TotalQty),
		BankID:       int8Ptr(b.BankID),
		BillDate:     b.BillDate,
		ClosedAt:     b.ClosedAt,
	}
	if b.Paymode.Valid {
		resp.Paymode = &b.Paymode.String
	}
	if b.SettledAt.Valid {
		resp.SettledAt = &b.SettledAt.Time
	}
	return resp
}

func toBillResultResponse(r *service.BillResult) billResponse {
	resp := toBillResponse(r.Bill)
	resp.Items = make([]billItemResponse, len(r.Items))
	for i, it := range r.Items {
		resp.Items[i] = billItemResponse{
			ID:       it.ID,
			ItemName: it.ItemName,
			Quantity: qty(it.Quantity),
			Rate:     money(it.Rate),
			Amount:   lineMoney(it.Amount),
		}
	}
	if r.Names != nil {
		resp.Names = &billNamesResponse{
			Table:    r.Names.Table,
			Customer: r.Names.Customer,
			Waiter:   r.Names.Waiter,
			Bank:     r.Names.Bank,
		}
	}
	return resp
}
