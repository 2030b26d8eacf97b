package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiwari-pos/tableside/internal/database"
	"github.com/kiwari-pos/tableside/internal/middleware"
	"github.com/kiwari-pos/tableside/internal/service"
	"github.com/shopspring/decimal"
)

// LineServicer is satisfied by *service.TempTransactionService.
type LineServicer interface {
	AddOrUpdate(ctx context.Context, req service.AddLineRequest) (database.TempTransaction, error)
	Update(ctx context.Context, req service.UpdateLineRequest) (database.TempTransaction, error)
	Remove(ctx context.Context, lineID uuid.UUID, actorID int64) error
	LinesForTable(ctx context.Context, tableID int64) ([]database.TempTransaction, error)
}

// LineHandler handles provisional order lines.
type LineHandler struct {
	svc LineServicer
}

func NewLineHandler(svc LineServicer) *LineHandler {
	return &LineHandler{svc: svc}
}

// RegisterTableRoutes registers per-table line endpoints.
// Expected mount: /tables/{tid}/lines
func (h *LineHandler) RegisterTableRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Add)
}

// RegisterRoutes registers single-line endpoints. Expected mount: /lines
func (h *LineHandler) RegisterRoutes(r chi.Router) {
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Remove)
}

type addLineRequest struct {
	LineID   string           `json:"line_id"`
	ItemName string           `json:"item_name"`
	Quantity decimal.Decimal  `json:"quantity"`
	Rate     *decimal.Decimal `json:"rate"`
	WaiterID int64            `json:"waiter_id"`
}

type updateLineRequest struct {
	Quantity *decimal.Decimal `json:"quantity"`
	Rate     *decimal.Decimal `json:"rate"`
}

// List handles GET /tables/{tid}/lines.
func (h *LineHandler) List(w http.ResponseWriter, r *http.Request) {
	tableID, ok := int64Param(r, "tid")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	lines, err := h.svc.LinesForTable(r.Context(), tableID)
	if err != nil {
		writeServiceError(w, "list lines", err)
		return
	}
	writeJSON(w, http.StatusOK, toLineResponses(lines))
}

// Add handles POST /tables/{tid}/lines. With line_id it updates that line.
func (h *LineHandler) Add(w http.ResponseWriter, r *http.Request) {
	tableID, ok := int64Param(r, "tid")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	var req addLineRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var lineID uuid.UUID
	if req.LineID != "" {
		id, err := uuid.Parse(req.LineID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line_id"})
			return
		}
		lineID = id
	}

	actor := middleware.ActorID(r.Context())
	waiterID := req.WaiterID
	if waiterID == 0 {
		waiterID = actor
	}

	line, err := h.svc.AddOrUpdate(r.Context(), service.AddLineRequest{
		LineID:   lineID,
		TableID:  tableID,
		ItemName: req.ItemName,
		Quantity: req.Quantity,
		Rate:     req.Rate,
		WaiterID: waiterID,
		ActorID:  actor,
	})
	if err != nil {
		writeServiceError(w, "add line", err)
		return
	}

	status := http.StatusCreated
	if lineID != uuid.Nil {
		status = http.StatusOK
	}
	writeJSON(w, status, toLineResponse(line))
}

// Update handles PATCH /lines/{id}.
func (h *LineHandler) Update(w http.ResponseWriter, r *http.Request) {
	lineID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line ID"})
		return
	}
	var req updateLineRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Quantity == nil && req.Rate == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity or rate is required"})
		return
	}

	line, err := h.svc.Update(r.Context(), service.UpdateLineRequest{
		LineID:   lineID,
		Quantity: req.Quantity,
		Rate:     req.Rate,
		ActorID:  middleware.ActorID(r.Context()),
	})
	if err != nil {
		writeServiceError(w, "update line", err)
		return
	}
	writeJSON(w, http.StatusOK, toLineResponse(line))
}

// Remove handles DELETE /lines/{id}.
func (h *LineHandler) Remove(w http.ResponseWriter, r *http.Request) {
	lineID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line ID"})
		return
	}
	if err := h.svc.Remove(r.Context(), lineID, middleware.ActorID(r.Context())); err != nil {
		writeServiceError(w, "remove line", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
