package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/tableside/internal/database"
	"github.com/kiwari-pos/tableside/internal/middleware"
	"github.com/kiwari-pos/tableside/internal/service"
	"github.com/shopspring/decimal"
)

// BillServicer is satisfied by *service.BillService.
type BillServicer interface {
	MarkPaid(ctx context.Context, req service.PayRequest) (*service.BillResult, error)
	MarkCredit(ctx context.Context, req service.CreditRequest) (*service.BillResult, error)
	UpdateBill(ctx context.Context, req service.CorrectBillRequest) (*service.BillResult, error)
	SearchBills(ctx context.Context, c service.SearchCriteria) ([]database.Bill, error)
	TodaysSummary(ctx context.Context) (service.Summary, error)
	GetBill(ctx context.Context, billNo int64) (*service.BillResult, error)
}

// BillHandler handles settlement, search and correction of bills.
type BillHandler struct {
	svc BillServicer
}

func NewBillHandler(svc BillServicer) *BillHandler {
	return &BillHandler{svc: svc}
}

// RegisterRoutes registers cashier bill endpoints. Expected mount: /bills
func (h *BillHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Search)
	r.Get("/today", h.Today)
	r.Get("/{no}", h.Get)
	r.Post("/{no}/pay", h.Pay)
	r.Post("/{no}/credit", h.Credit)
}

// RegisterOwnerRoutes registers the correction override. Mount it behind
// an OWNER role check.
func (h *BillHandler) RegisterOwnerRoutes(r chi.Router) {
	r.Put("/{no}", h.Correct)
}

// --- Request types ---

type payRequest struct {
	CashReceived decimal.Decimal `json:"cash_received"`
	ReturnAmount decimal.Decimal `json:"return_amount"`
	Discount     decimal.Decimal `json:"discount"`
	Paymode      string          `json:"paymode"`
	BankID       *int64          `json:"bank_id"`
}

type creditRequest struct {
	CustomerID   *int64          `json:"customer_id"`
	CashReceived decimal.Decimal `json:"cash_received"`
	ReturnAmount decimal.Decimal `json:"return_amount"`
	Discount     decimal.Decimal `json:"discount"`
}

type correctionLineRequest struct {
	ItemName string          `json:"item_name"`
	Quantity decimal.Decimal `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`
}

type correctBillRequest struct {
	Lines        []correctionLineRequest `json:"lines"`
	Discount     decimal.Decimal         `json:"discount"`
	CashReceived decimal.Decimal         `json:"cash_received"`
	ReturnAmount decimal.Decimal         `json:"return_amount"`
}

// --- Handlers ---

// Search handles GET /bills?bill_no=|date=&status=|customer_id=.
func (h *BillHandler) Search(w http.ResponseWriter, r *http.Request) {
	billNo, ok := optionalInt64Query(r, "bill_no")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid bill_no"})
		return
	}
	customerID, ok := optionalInt64Query(r, "customer_id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer_id"})
		return
	}

	q := r.URL.Query()
	bills, err := h.svc.SearchBills(r.Context(), service.SearchCriteria{
		BillNo:     billNo,
		Date:       q.Get("date"),
		Status:     q.Get("status"),
		CustomerID: customerID,
	})
	if err != nil {
		writeServiceError(w, "search bills", err)
		return
	}

	resp := make([]billResponse, len(bills))
	for i, b := range bills {
		resp[i] = toBillResponse(b)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Today handles GET /bills/today.
func (h *BillHandler) Today(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.TodaysSummary(r.Context())
	if err != nil {
		writeServiceError(w, "todays summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Date:        sum.Date,
		TotalCash:   decimalString(sum.TotalCash),
		TotalCredit: decimalString(sum.TotalCredit),
		TotalAmount: decimalString(sum.TotalAmount),
		Count:       sum.Count,
	})
}

// Get handles GET /bills/{no}.
func (h *BillHandler) Get(w http.ResponseWriter, r *http.Request) {
	billNo, ok := int64Param(r, "no")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid bill number"})
		return
	}
	result, err := h.svc.GetBill(r.Context(), billNo)
	if err != nil {
		writeServiceError(w, "get bill", err)
		return
	}
	writeJSON(w, http.StatusOK, toBillResultResponse(result))
}

// Pay handles POST /bills/{no}/pay.
func (h *BillHandler) Pay(w http.ResponseWriter, r *http.Request) {
	billNo, ok := int64Param(r, "no")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid bill number"})
		return
	}
	var req payRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.MarkPaid(r.Context(), service.PayRequest{
		BillNo:       billNo,
		CashReceived: req.CashReceived,
		ReturnAmount: req.ReturnAmount,
		Discount:     req.Discount,
		Paymode:      req.Paymode,
		BankID:       req.BankID,
		ActorID:      middleware.ActorID(r.Context()),
	})
	if err != nil {
		writeServiceError(w, "mark paid", err)
		return
	}
	writeJSON(w, http.StatusOK, toBillResultResponse(result))
}

// Credit handles POST /bills/{no}/credit.
func (h *BillHandler) Credit(w http.ResponseWriter, r *http.Request) {
	billNo, ok := int64Param(r, "no")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid bill number"})
		return
	}
	var req creditRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.MarkCredit(r.Context(), service.CreditRequest{
		BillNo:       billNo,
		CustomerID:   req.CustomerID,
		CashReceived: req.CashReceived,
		ReturnAmount: req.ReturnAmount,
		Discount:     req.Discount,
		ActorID:      middleware.ActorID(r.Context()),
	})
	if err != nil {
		writeServiceError(w, "mark credit", err)
		return
	}
	writeJSON(w, http.StatusOK, toBillResultResponse(result))
}

// Correct handles PUT /bills/{no}.
func (h *BillHandler) Correct(w http.ResponseWriter, r *http.Request) {
	billNo, ok := int64Param(r, "no")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid bill number"})
		return
	}
	var req correctBillRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	lines := make([]service.CorrectionLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = service.CorrectionLine{ItemName: l.ItemName, Quantity: l.Quantity, Rate: l.Rate}
	}

	result, err := h.svc.UpdateBill(r.Context(), service.CorrectBillRequest{
		BillNo:       billNo,
		Lines:        lines,
		Discount:     req.Discount,
		CashReceived: req.CashReceived,
		ReturnAmount: req.ReturnAmount,
		ActorID:      middleware.ActorID(r.Context()),
	})
	if err != nil {
		writeServiceError(w, "correct bill", err)
		return
	}
	writeJSON(w, http.StatusOK, toBillResultResponse(result))
}
