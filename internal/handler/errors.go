package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/tableside/internal/database"
	"github.com/kiwari-pos/tableside/internal/service"
	"github.com/shopspring/decimal"
)

// statusFor maps a service error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrNothingToClose),
		errors.Is(err, service.ErrNoItemsToClose),
		errors.Is(err, service.ErrNothingToSend),
		errors.Is(err, service.ErrInvalidShift):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err with the status of its kind. Unknown errors
// are logged under op and hidden behind a generic message.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, status, map[string]string{"error": "internal server error"})
		return
	}

	var notFound *service.ItemNotFoundError
	if errors.As(err, &notFound) {
		suggestions := notFound.Suggestions
		if suggestions == nil {
			suggestions = []string{}
		}
		writeJSON(w, status, map[string]interface{}{
			"error":       err.Error(),
			"suggestions": suggestions,
		})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// --- Param helpers ---

func int64Param(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func optionalInt64Query(r *http.Request, name string) (*int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, false
	}
	return &v, true
}

// decodeBody decodes an optional JSON body. An empty body leaves v as is.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// money formats a NUMERIC amount with two decimals.
func money(n pgtype.Numeric) string {
	return database.NumericToDecimal(n).StringFixed(2)
}

// qty formats a NUMERIC quantity without trailing zeros.
// lineMoney shows a line amount with two places unless it carries more.
func lineMoney(n pgtype.Numeric) string {
	d := database.NumericToDecimal(n)
	if d.Equal(d.Round(2)) {
		return d.StringFixed(2)
	}
	return d.String()
}

func qty(n pgtype.Numeric) string {
	return database.NumericToDecimal(n).String()
}

func decimalString(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func int8Ptr(n pgtype.Int8) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
