package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/tableside/internal/auth"
	"github.com/kiwari-pos/tableside/internal/database"
	"github.com/kiwari-pos/tableside/internal/middleware"
	"github.com/shopspring/decimal"
)

// newAuthedRouter returns a router that authenticates like production.
func newAuthedRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testSecret))
	return r
}

func doAuthRequest(t *testing.T, router http.Handler, method, path string, body interface{}, claims *auth.Claims) *httptest.ResponseRecorder {
	t.Helper()

	// Generate a real JWT token from claims
	token, err := auth.GenerateToken(testSecret, claims.UserID, claims.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func waiterClaims() *auth.Claims  { return &auth.Claims{UserID: 7, Role: "WAITER"} }
func cashierClaims() *auth.Claims { return &auth.Claims{UserID: 3, Role: "CASHIER"} }

func numeric(s string) pgtype.Numeric {
	return database.DecimalToNumeric(decimal.RequireFromString(s))
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, want, rr.Body.String())
	}
}
