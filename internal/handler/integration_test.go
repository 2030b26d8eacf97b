//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiwari-pos/tableside/internal/catalog"
	"github.com/kiwari-pos/tableside/internal/config"
	"github.com/kiwari-pos/tableside/internal/database"
	"github.com/kiwari-pos/tableside/internal/lookup"
	"github.com/kiwari-pos/tableside/internal/router"
	"github.com/kiwari-pos/tableside/internal/service"
	"github.com/kiwari-pos/tableside/internal/tablelock"
	"github.com/kiwari-pos/tableside/internal/ws"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// TestIntegrationFlow runs a table visit end to end against a real
// PostgreSQL database: order, kitchen, close, re-close, pay, search, shift.
func TestIntegrationFlow(t *testing.T) {
	ctx := context.Background()

	_, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	cfg := &config.Config{
		JWTSecret:   "integration-test-secret",
		CORSOrigins: []string{"http://localhost:3000"},
	}
	queries := database.New(pool)
	hub := ws.NewHub()
	// hub.Run() has no shutdown; the goroutine ends with the test binary.
	go hub.Run()

	deps := service.Deps{
		Pool:     pool,
		NewStore: func(db database.DBTX) service.Store { return database.New(db) },
		Store:    queries,
		Locker:   tablelock.NewLocal(),
		Catalog:  catalog.New(queries),
		Names:    lookup.NewDirectory(queries),
		Audit:    service.LogAudit{},
		Notifier: ws.NewNotifier(hub),
		Location: time.UTC,
	}
	r := router.New(cfg, queries, router.Services{
		Status:  service.NewTableStatusService(deps),
		Lines:   service.NewTempTransactionService(deps),
		Kitchen: service.NewKitchenService(deps),
		Bills:   service.NewBillService(deps),
		Shift:   service.NewShiftService(deps),
	}, hub)

	server := httptest.NewServer(r)
	defer server.Close()

	// --- Fixtures (manual DB inserts; there is no admin API) ---
	createUser(t, ctx, pool, "owner", "OWNER")
	createUser(t, ctx, pool, "anil", "WAITER")
	table4 := createTable(t, ctx, pool, "T4")
	table9 := createTable(t, ctx, pool, "T9")
	createItem(t, ctx, pool, "Masala Tea", "25.00", "chai masala")
	createItem(t, ctx, pool, "Samosa", "15.00", "samosa")

	ownerToken := login(t, server, "owner", "password123")
	waiterToken := login(t, server, "anil", "password123")

	// --- 1. Order two items and send them to the kitchen ---
	apiJSON(t, server, "POST", fmt.Sprintf("/tables/%d/lines", table4), map[string]interface{}{
		"item_name": "masala tea", "quantity": "2",
	}, waiterToken, http.StatusCreated)
	apiJSON(t, server, "POST", fmt.Sprintf("/tables/%d/lines", table4), map[string]interface{}{
		"item_name": "Samosa", "quantity": "1",
	}, waiterToken, http.StatusCreated)

	var status map[string]interface{}
	decode(t, apiJSON(t, server, "GET", fmt.Sprintf("/tables/%d/status", table4), nil, waiterToken, http.StatusOK), &status)
	if status["status"] != "ONGOING" {
		t.Fatalf("status after ordering: %v", status)
	}

	var ticket map[string]interface{}
	decode(t, apiJSON(t, server, "POST", fmt.Sprintf("/tables/%d/kitchen", table4), nil, waiterToken, http.StatusCreated), &ticket)
	if ticket["total_qty"] != "3" {
		t.Fatalf("ticket total_qty: %v", ticket["total_qty"])
	}
	apiJSON(t, server, "POST", fmt.Sprintf("/tables/%d/kitchen", table4), nil, waiterToken, http.StatusConflict)

	var pending []map[string]interface{}
	decode(t, apiJSON(t, server, "GET", "/kitchen/tickets?view=pending", nil, waiterToken, http.StatusOK), &pending)
	if len(pending) != 1 {
		t.Fatalf("pending groups: %v", pending)
	}
	apiJSON(t, server, "POST", fmt.Sprintf("/kitchen/tickets/%s/ready", ticket["id"]), nil, waiterToken, http.StatusOK)
	apiJSON(t, server, "POST", fmt.Sprintf("/kitchen/tickets/%s/ready", ticket["id"]), nil, waiterToken, http.StatusConflict)

	// --- 2. Close, order more, re-close onto the same bill ---
	var bill map[string]interface{}
	decode(t, apiJSON(t, server, "POST", fmt.Sprintf("/tables/%d/close", table4), nil, ownerToken, http.StatusCreated), &bill)
	billNo := int64(bill["bill_no"].(float64))
	if bill["bill_amt"] != "65.00" {
		t.Fatalf("bill_amt after close: %v", bill["bill_amt"])
	}

	apiJSON(t, server, "POST", fmt.Sprintf("/tables/%d/lines", table4), map[string]interface{}{
		"item_name": "Samosa", "quantity": "2",
	}, waiterToken, http.StatusCreated)
	decode(t, apiJSON(t, server, "POST", fmt.Sprintf("/tables/%d/close", table4), nil, ownerToken, http.StatusOK), &bill)
	if int64(bill["bill_no"].(float64)) != billNo || bill["bill_amt"] != "95.00" {
		t.Fatalf("re-close should append to bill %d: %v", billNo, bill)
	}

	// --- 3. Shift the closed table, then pay ---
	var shifted map[string]interface{}
	decode(t, apiJSON(t, server, "POST", fmt.Sprintf("/tables/%d/shift", table4), map[string]interface{}{
		"target_table_id": table9,
	}, waiterToken, http.StatusOK), &shifted)
	if b, _ := shifted["bill"].(map[string]interface{}); b == nil || int64(b["table_id"].(float64)) != table9 {
		t.Fatalf("bill did not follow the shift: %v", shifted)
	}

	var paid map[string]interface{}
	decode(t, apiJSON(t, server, "POST", fmt.Sprintf("/bills/%d/pay", billNo), map[string]interface{}{
		"cash_received": "100", "return_amount": "5", "paymode": "CASH",
	}, ownerToken, http.StatusOK), &paid)
	if paid["status"] != "PAID" || paid["net_amt"] != "95.00" {
		t.Fatalf("paid bill: %v", paid)
	}
	apiJSON(t, server, "POST", fmt.Sprintf("/bills/%d/pay", billNo), map[string]interface{}{"paymode": "CASH"}, ownerToken, http.StatusConflict)

	decode(t, apiJSON(t, server, "GET", fmt.Sprintf("/tables/%d/status", table9), nil, waiterToken, http.StatusOK), &status)
	if status["status"] != "AVAILABLE" {
		t.Fatalf("table after payment: %v", status)
	}

	// --- 4. Search and summary ---
	today := time.Now().UTC().Format("02-01-2006")
	var found []map[string]interface{}
	decode(t, apiJSON(t, server, "GET", "/bills?date="+today+"&status=paid", nil, ownerToken, http.StatusOK), &found)
	if len(found) != 1 {
		t.Fatalf("search by date: %v", found)
	}

	var summary map[string]interface{}
	decode(t, apiJSON(t, server, "GET", "/bills/today", nil, ownerToken, http.StatusOK), &summary)
	if summary["total_cash"] != "95.00" || summary["count"] != float64(1) {
		t.Fatalf("summary: %v", summary)
	}

	// --- 5. Role guards ---
	apiJSON(t, server, "GET", "/bills/today", nil, waiterToken, http.StatusForbidden)
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("tableside_test"),
		tcpostgres.WithUsername("pos"),
		tcpostgres.WithPassword("pos"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return pgContainer, connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Go test sets cwd to the package directory (internal/handler/).
	m, err := migrate.NewWithDatabaseInstance("file://../../migrations", "postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

func createUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool, username, role string) int64 {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	var id int64
	err = pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, full_name, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		username, string(hashed), "Test "+username, role,
	).Scan(&id)
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return id
}

func createTable(t *testing.T, ctx context.Context, pool *pgxpool.Pool, name string) int64 {
	t.Helper()
	var id int64
	if err := pool.QueryRow(ctx, `INSERT INTO restaurant_tables (name) VALUES ($1) RETURNING id`, name).Scan(&id); err != nil {
		t.Fatalf("create table %s: %v", name, err)
	}
	return id
}

func createItem(t *testing.T, ctx context.Context, pool *pgxpool.Pool, name, rate, keywords string) {
	t.Helper()
	if _, err := pool.Exec(ctx, `INSERT INTO items (name, rate, keywords) VALUES ($1, $2, $3)`, name, rate, keywords); err != nil {
		t.Fatalf("create item %s: %v", name, err)
	}
}

func login(t *testing.T, server *httptest.Server, username, password string) string {
	t.Helper()
	var resp map[string]interface{}
	decode(t, apiJSON(t, server, "POST", "/auth/login", map[string]interface{}{
		"username": username,
		"password": password,
	}, "", http.StatusOK), &resp)
	token, ok := resp["access_token"].(string)
	if !ok || token == "" {
		t.Fatalf("login failed: no access_token in response: %+v", resp)
	}
	return token
}

// --- HTTP helpers ---

func apiJSON(t *testing.T, server *httptest.Server, method, path string, body map[string]interface{}, token string, want int) []byte {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if resp.StatusCode != want {
		t.Fatalf("%s %s: status %d, want %d, body: %s", method, path, resp.StatusCode, want, buf.String())
	}
	return buf.Bytes()
}

func decode(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode response: %v (%s)", err, data)
	}
}
