package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiwari-pos/tableside/internal/database"
	"github.com/kiwari-pos/tableside/internal/middleware"
	"github.com/kiwari-pos/tableside/internal/service"
)

// KitchenServicer is satisfied by *service.KitchenService.
type KitchenServicer interface {
	SendToKitchen(ctx context.Context, tableID, waiterID int64) (*service.TicketResult, error)
	MarkReady(ctx context.Context, id uuid.UUID) (database.KitchenOrder, error)
	MarkServe(ctx context.Context, id uuid.UUID) (database.KitchenOrder, error)
	MarkAllReadyForTable(ctx context.Context, tableID int64) ([]database.KitchenOrder, error)
	MarkAllServedForTable(ctx context.Context, tableID int64) ([]database.KitchenOrder, error)
	ListPending(ctx context.Context) ([]service.TableTickets, error)
	ListReady(ctx context.Context) ([]service.TableTickets, error)
	ListAll(ctx context.Context) ([]service.TableTickets, error)
	ListForTable(ctx context.Context, tableID int64) ([]service.TicketResult, error)
}

// KitchenHandler handles kitchen order tickets.
type KitchenHandler struct {
	svc KitchenServicer
}

func NewKitchenHandler(svc KitchenServicer) *KitchenHandler {
	return &KitchenHandler{svc: svc}
}

// RegisterTableRoutes registers per-table ticket endpoints.
// Expected mount: /tables/{tid}/kitchen
func (h *KitchenHandler) RegisterTableRoutes(r chi.Router) {
	r.Get("/", h.ListForTable)
	r.Post("/", h.Send)
	r.Post("/ready", h.ReadyAll)
	r.Post("/served", h.ServedAll)
}

// RegisterRoutes registers the kitchen display endpoints.
// Expected mount: /kitchen/tickets
func (h *KitchenHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/{id}/ready", h.Ready)
	r.Post("/{id}/served", h.Served)
}

type sendToKitchenRequest struct {
	WaiterID int64 `json:"waiter_id"`
}

// Send handles POST /tables/{tid}/kitchen.
func (h *KitchenHandler) Send(w http.ResponseWriter, r *http.Request) {
	tableID, ok := int64Param(r, "tid")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	var req sendToKitchenRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	waiterID := req.WaiterID
	if waiterID == 0 {
		waiterID = middleware.ActorID(r.Context())
	}

	result, err := h.svc.SendToKitchen(r.Context(), tableID, waiterID)
	if err != nil {
		writeServiceError(w, "send to kitchen", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTicketResponse(result.Ticket, result.Items))
}

// ReadyAll handles POST /tables/{tid}/kitchen/ready.
func (h *KitchenHandler) ReadyAll(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, "mark tickets ready", h.svc.MarkAllReadyForTable)
}

// ServedAll handles POST /tables/{tid}/kitchen/served.
func (h *KitchenHandler) ServedAll(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, "mark tickets served", h.svc.MarkAllServedForTable)
}

func (h *KitchenHandler) bulk(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, int64) ([]database.KitchenOrder, error)) {
	tableID, ok := int64Param(r, "tid")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	moved, err := fn(r.Context(), tableID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toTicketResponses(moved))
}

// ListForTable handles GET /tables/{tid}/kitchen.
func (h *KitchenHandler) ListForTable(w http.ResponseWriter, r *http.Request) {
	tableID, ok := int64Param(r, "tid")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	tickets, err := h.svc.ListForTable(r.Context(), tableID)
	if err != nil {
		writeServiceError(w, "list table tickets", err)
		return
	}
	writeJSON(w, http.StatusOK, toTicketResultResponses(tickets))
}

// List handles GET /kitchen/tickets?view=pending|ready|all.
func (h *KitchenHandler) List(w http.ResponseWriter, r *http.Request) {
	var list func(context.Context) ([]service.TableTickets, error)
	switch view := r.URL.Query().Get("view"); view {
	case "", "pending":
		list = h.svc.ListPending
	case "ready":
		list = h.svc.ListReady
	case "all":
		list = h.svc.ListAll
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "view must be pending, ready or all"})
		return
	}

	groups, err := list(r.Context())
	if err != nil {
		writeServiceError(w, "list tickets", err)
		return
	}
	writeJSON(w, http.StatusOK, toTableTicketsResponses(groups))
}

// Ready handles POST /kitchen/tickets/{id}/ready.
func (h *KitchenHandler) Ready(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, "mark ticket ready", h.svc.MarkReady)
}

// Served handles POST /kitchen/tickets/{id}/served.
func (h *KitchenHandler) Served(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, "mark ticket served", h.svc.MarkServe)
}

func (h *KitchenHandler) single(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, uuid.UUID) (database.KitchenOrder, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ticket ID"})
		return
	}
	ticket, err := fn(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toTicketResponse(ticket, nil))
}
