// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielhkuo/groupbuy/auth"
	"github.com/danielhkuo/groupbuy/cliparse"
	"github.com/danielhkuo/groupbuy/db"
	"github.com/danielhkuo/groupbuy/notify"
)

// TestSecret signs claims in tests
const TestSecret = "test-secret"

// SetupTestDB opens a fresh on-disk SQLite database with the full schema.
// The database lives in the test's temp dir and is closed on cleanup.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "groupbuy_test.db")
	conn, err := db.Open(context.Background(), db.TypeSQLite, path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  "groupbuy_test.db",
		DatabaseType: db.TypeSQLite,
		ClaimsSecret: TestSecret,
		Notifiers:    []string{"log"},
		NotifyTopic:  "test-settlements",
		SavingsRate:  decimal.RequireFromString("0.15"),
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// Recorder is a notifier that keeps every published message.
// Setting Fail makes Publish return it without recording.
type Recorder struct {
	mu       sync.Mutex
	messages []notify.Message
	Fail     error
}

func (r *Recorder) Publish(ctx context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	r.messages = append(r.messages, msg)
	return nil
}

// SetFail changes the error returned by later Publish calls
func (r *Recorder) SetFail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Fail = err
}

// Messages returns a copy of everything published so far
func (r *Recorder) Messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.messages...)
}

// CreateTestProduct inserts a product owned by email and returns its ID
func CreateTestProduct(t *testing.T, conn *sql.DB, email, name, unitPrice string) string {
	t.Helper()

	id := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO product (id, email, name, description, category, unit_price, image_url, created_at)
		VALUES ($1, $2, $3, 'A test product', 'test', $4, '', $5)
	`, id, email, name, decimal.RequireFromString(unitPrice), db.Timestamp(time.Now()))
	if err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}

	return id
}

// CreateTestPool inserts a pool for productID and returns its ID.
// The pool started an hour before endAt.
func CreateTestPool(t *testing.T, conn *sql.DB, productID string, minQuantity int, endAt time.Time, status string) string {
	t.Helper()

	id := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO pool (id, product_id, min_quantity, start_at, end_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, productID, minQuantity, db.Timestamp(endAt.Add(-time.Hour)), db.Timestamp(endAt), status, db.Timestamp(time.Now()))
	if err != nil {
		t.Fatalf("Failed to create test pool: %v", err)
	}

	return id
}

// AddTestRequest joins email to a pool and returns the request ID
func AddTestRequest(t *testing.T, conn *sql.DB, poolID, email string, quantity int) string {
	t.Helper()

	id := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO request (id, pool_id, email, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, poolID, email, quantity, db.Timestamp(time.Now()))
	if err != nil {
		t.Fatalf("Failed to create test request: %v", err)
	}

	// Keep join order strictly increasing at timestamp precision
	time.Sleep(time.Millisecond)

	return id
}

// SetTestRole assigns role to the subject
func SetTestRole(t *testing.T, conn *sql.DB, subject, email, role string) {
	t.Helper()

	if _, err := auth.UpsertRole(context.Background(), conn, auth.Claims{Subject: subject, Email: email}, email, role); err != nil {
		t.Fatalf("Failed to set test role: %v", err)
	}
}

// PoolStatus reads a pool's current status
func PoolStatus(t *testing.T, conn *sql.DB, poolID string) string {
	t.Helper()

	var status string
	if err := conn.QueryRow("SELECT status FROM pool WHERE id = $1", poolID).Scan(&status); err != nil {
		t.Fatalf("Failed to read pool status: %v", err)
	}
	return status
}

// AuthHeaders returns the gateway identity headers signed with secret
func AuthHeaders(subject, email, secret string) map[string]string {
	return map[string]string{
		"X-Auth-Sub":       subject,
		"X-Auth-Email":     email,
		"X-Auth-Signature": auth.SignClaims(subject, email, secret),
	}
}

// WithAuth attaches verified claims to the request context, the way the
// claims middleware does
func WithAuth(req *http.Request, subject, email string) *http.Request {
	return req.WithContext(auth.WithClaims(req.Context(), auth.Claims{Subject: subject, Email: email}))
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
