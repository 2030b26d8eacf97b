package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/tableside/internal/middleware"
	"github.com/kiwari-pos/tableside/internal/service"
)

// TableStatusServicer is satisfied by *service.TableStatusService.
type TableStatusServicer interface {
	Status(ctx context.Context, tableID int64) (string, error)
	ListTableStatuses(ctx context.Context) ([]service.TableActivity, error)
}

// TableBillServicer is the part of *service.BillService a table needs.
type TableBillServicer interface {
	CloseTable(ctx context.Context, req service.CloseTableRequest) (*service.BillResult, error)
	OpenBillForTable(ctx context.Context, tableID int64) (*service.BillResult, error)
}

// ShiftServicer is satisfied by *service.ShiftService.
type ShiftServicer interface {
	ShiftTable(ctx context.Context, req service.ShiftRequest) (*service.ShiftResult, error)
}

// TableHandler serves the floor view and whole-table commands.
type TableHandler struct {
	status TableStatusServicer
	bills  TableBillServicer
	shift  ShiftServicer
}

func NewTableHandler(status TableStatusServicer, bills TableBillServicer, shift ShiftServicer) *TableHandler {
	return &TableHandler{status: status, bills: bills, shift: shift}
}

// RegisterRoutes registers table endpoints. Expected mount: /tables
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{tid}/status", h.Status)
	r.Post("/{tid}/close", h.Close)
	r.Post("/{tid}/shift", h.Shift)
	r.Get("/{tid}/bill", h.OpenBill)
}

type closeTableRequest struct {
	CustomerID *int64 `json:"customer_id"`
	WaiterID   int64  `json:"waiter_id"`
}

type shiftTableRequest struct {
	TargetTableID int64 `json:"target_table_id"`
}

// List handles GET /tables.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.status.ListTableStatuses(r.Context())
	if err != nil {
		writeServiceError(w, "list tables", err)
		return
	}
	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = toTableResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Status handles GET /tables/{tid}/status.
func (h *TableHandler) Status(w http.ResponseWriter, r *http.Request) {
	tableID, ok := int64Param(r, "tid")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	status, err := h.status.Status(r.Context(), tableID)
	if err != nil {
		writeServiceError(w, "table status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"table_id": tableID, "status": status})
}

// Close handles POST /tables/{tid}/close. A new bill answers 201, an
// append to the open bill 200.
func (h *TableHandler) Close(w http.ResponseWriter, r *http.Request) {
	tableID, ok := int64Param(r, "tid")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	var req closeTableRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	actor := middleware.ActorID(r.Context())
	waiterID := req.WaiterID
	if waiterID == 0 {
		waiterID = actor
	}

	result, err := h.bills.CloseTable(r.Context(), service.CloseTableRequest{
		TableID:    tableID,
		CustomerID: req.CustomerID,
		WaiterID:   waiterID,
		UserID:     actor,
	})
	if err != nil {
		writeServiceError(w, "close table", err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toBillResultResponse(result))
}

// Shift handles POST /tables/{tid}/shift.
func (h *TableHandler) Shift(w http.ResponseWriter, r *http.Request) {
	tableID, ok := int64Param(r, "tid")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	var req shiftTableRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.TargetTableID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "target_table_id is required"})
		return
	}

	result, err := h.shift.ShiftTable(r.Context(), service.ShiftRequest{
		FromTableID: tableID,
		ToTableID:   req.TargetTableID,
		ActorID:     middleware.ActorID(r.Context()),
	})
	if err != nil {
		writeServiceError(w, "shift table", err)
		return
	}

	resp := shiftResponse{
		FromTableID:  result.FromTableID,
		ToTableID:    result.ToTableID,
		LinesMoved:   result.LinesMoved,
		TicketsMoved: result.TicketsMoved,
	}
	if result.Bill != nil {
		b := toBillResponse(*result.Bill)
		resp.Bill = &b
	}
	writeJSON(w, http.StatusOK, resp)
}

// OpenBill handles GET /tables/{tid}/bill.
func (h *TableHandler) OpenBill(w http.ResponseWriter, r *http.Request) {
	tableID, ok := int64Param(r, "tid")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	result, err := h.bills.OpenBillForTable(r.Context(), tableID)
	if err != nil {
		writeServiceError(w, "open bill", err)
		return
	}
	writeJSON(w, http.StatusOK, toBillResultResponse(result))
}
