// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/groupbuy/auth"
	"github.com/danielhkuo/groupbuy/models"
)

func TestWithLogging(t *testing.T) {
	// Create a simple handler that returns OK
	handlerCalled := false
	testHandler := func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	}

	// Wrap with logging middleware
	wrappedHandler := WithLogging(testHandler)

	// Create test request and recorder
	req := httptest.NewRequest("GET", "/test-path", nil)
	w := httptest.NewRecorder()

	// Execute
	wrappedHandler(w, req)

	// Verify handler was called
	if !handlerCalled {
		t.Error("Expected handler to be called")
	}

	// Verify response was written correctly
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "success" {
		t.Errorf("Expected body 'success', got '%s'", w.Body.String())
	}
}

func TestWithLogging_PreservesResponse(t *testing.T) {
	// Test that logging doesn't interfere with various response codes
	testCases := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"OK", http.StatusOK, "ok"},
		{"Created", http.StatusCreated, `{"id":"123"}`},
		{"BadRequest", http.StatusBadRequest, `{"error":"bad request"}`},
		{"NotFound", http.StatusNotFound, "not found"},
		{"InternalError", http.StatusInternalServerError, "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				w.Write([]byte(tc.body))
			})

			req := httptest.NewRequest("POST", "/api/test", nil)
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if w.Body.String() != tc.body {
				t.Errorf("Expected body '%s', got '%s'", tc.body, w.Body.String())
			}
		})
	}
}

func TestJSONResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		data       interface{}
		expected   string
	}{
		{
			name:       "simple struct",
			statusCode: http.StatusOK,
			data:       map[string]string{"message": "hello"},
			expected:   `{"message":"hello"}`,
		},
		{
			name:       "join response",
			statusCode: http.StatusCreated,
			data:       models.JoinPoolResponse{ID: "req-1", PoolStatus: "success"},
			expected:   `{"id":"req-1","pool_status":"success"}`,
		},
		{
			name:       "error response",
			statusCode: http.StatusBadRequest,
			data:       models.ErrorResponse{Error: "Bad Request", Message: "quantity must be positive"},
			expected:   `{"error":"Bad Request","message":"quantity must be positive"}`,
		},
		{
			name:       "array data",
			statusCode: http.StatusOK,
			data:       []string{"a", "b", "c"},
			expected:   `["a","b","c"]`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			JSONResponse(w, tc.statusCode, tc.data)

			// Check status code
			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}

			// Check Content-Type header
			contentType := w.Header().Get("Content-Type")
			if contentType != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", contentType)
			}

			// Check body (trim newline added by Encode)
			body := strings.TrimSpace(w.Body.String())
			if body != tc.expected {
				t.Errorf("Expected body '%s', got '%s'", tc.expected, body)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	testCases := []struct {
		name          string
		statusCode    int
		message       string
		expectedError string
	}{
		{
			name:          "bad request",
			statusCode:    http.StatusBadRequest,
			message:       "min_quantity must be positive",
			expectedError: "Bad Request",
		},
		{
			name:          "unauthorized",
			statusCode:    http.StatusUnauthorized,
			message:       "Authentication required",
			expectedError: "Unauthorized",
		},
		{
			name:          "forbidden",
			statusCode:    http.StatusForbidden,
			message:       "company role required",
			expectedError: "Forbidden",
		},
		{
			name:          "not found",
			statusCode:    http.StatusNotFound,
			message:       "Pool not found",
			expectedError: "Not Found",
		},
		{
			name:          "conflict",
			statusCode:    http.StatusConflict,
			message:       "Pool is no longer open",
			expectedError: "Conflict",
		},
		{
			name:          "internal error",
			statusCode:    http.StatusInternalServerError,
			message:       "database error",
			expectedError: "Internal Server Error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			ErrorResponse(w, tc.statusCode, tc.message)

			// Check status code
			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}

			// Check Content-Type
			if w.Header().Get("Content-Type") != "application/json" {
				t.Error("Expected Content-Type 'application/json'")
			}

			// Decode and verify error response
			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}

			if resp.Error != tc.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectedError, resp.Error)
			}
			if resp.Message != tc.message {
				t.Errorf("Expected message '%s', got '%s'", tc.message, resp.Message)
			}
		})
	}
}

func TestParseJSONBody(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		body := `{"email":"alice@example.com","quantity":40}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.JoinPoolRequest
		err := ParseJSONBody(req, &parsed)

		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if parsed.Email != "alice@example.com" {
			t.Errorf("Expected email 'alice@example.com', got '%s'", parsed.Email)
		}
		if parsed.Quantity != 40 {
			t.Errorf("Expected quantity 40, got %d", parsed.Quantity)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		body := `{invalid json}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.JoinPoolRequest
		err := ParseJSONBody(req, &parsed)

		if err == nil {
			t.Error("Expected error for invalid JSON")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(""))

		var parsed models.JoinPoolRequest
		err := ParseJSONBody(req, &parsed)

		if err == nil {
			t.Error("Expected error for empty body")
		}
	})

	t.Run("null body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader("null"))

		var parsed *models.JoinPoolRequest
		err := ParseJSONBody(req, &parsed)

		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if parsed != nil {
			t.Error("Expected nil result for null JSON")
		}
	})

	t.Run("extra fields ignored", func(t *testing.T) {
		body := `{"quantity":3,"unknown_field":"ignored"}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.JoinPoolRequest
		err := ParseJSONBody(req, &parsed)

		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if parsed.Quantity != 3 {
			t.Errorf("Expected quantity 3, got %d", parsed.Quantity)
		}
	})

	t.Run("body is closed after parsing", func(t *testing.T) {
		body := `{"quantity":1}`
		bodyReader := io.NopCloser(bytes.NewReader([]byte(body)))
		req := httptest.NewRequest("POST", "/", bodyReader)

		var parsed models.JoinPoolRequest
		_ = ParseJSONBody(req, &parsed)

		// Try to read from body again - should return empty/error since it's closed
		remaining, err := io.ReadAll(req.Body)
		if err != nil && err != io.EOF {
			// Body closed is expected
		}
		if len(remaining) > 0 {
			t.Error("Expected body to be consumed/closed")
		}
	})
}

func TestCORS(t *testing.T) {
	// Create a simple handler that returns OK
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("handled"))
	})

	corsHandler := CORS(nextHandler)

	t.Run("preflight OPTIONS request", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/pools", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		// Should return 200 OK without calling next handler
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}

		// Body should be empty (preflight doesn't call next)
		if w.Body.String() != "" {
			t.Errorf("Expected empty body for preflight, got '%s'", w.Body.String())
		}

		// Check CORS headers
		if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
			t.Error("Expected Access-Control-Allow-Origin to match request origin")
		}
		if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
			t.Error("Expected Access-Control-Allow-Credentials to be 'true'")
		}
	})

	t.Run("regular request with origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/pools", nil)
		req.Header.Set("Origin", "https://example.com")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		// Should call next handler
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if w.Body.String() != "handled" {
			t.Error("Expected next handler to be called")
		}

		// Check CORS headers reflect the origin
		if w.Header().Get("Access-Control-Allow-Origin") != "https://example.com" {
			t.Error("Expected Access-Control-Allow-Origin to reflect request origin")
		}
	})

	t.Run("request without origin defaults to wildcard", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/pools", nil)
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("Expected Access-Control-Allow-Origin to default to '*'")
		}
	})

	t.Run("allows custom headers", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/pools", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		allowedHeaders := w.Header().Get("Access-Control-Allow-Headers")

		for _, h := range []string{HeaderSubject, HeaderEmail, HeaderSignature} {
			if !strings.Contains(allowedHeaders, h) {
				t.Errorf("Expected %s in allowed headers", h)
			}
		}
		if !strings.Contains(allowedHeaders, "Content-Type") {
			t.Error("Expected Content-Type in allowed headers")
		}
	})

	t.Run("allows required methods", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/pools", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		allowedMethods := w.Header().Get("Access-Control-Allow-Methods")

		requiredMethods := []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
		for _, method := range requiredMethods {
			if !strings.Contains(allowedMethods, method) {
				t.Errorf("Expected %s in allowed methods", method)
			}
		}
	})
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expectedIP string
	}{
		{
			name:       "X-Forwarded-For single IP",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.100"},
			remoteAddr: "10.0.0.1:12345",
			expectedIP: "192.168.1.100",
		},
		{
			name:       "X-Forwarded-For chained IPs (comma separated)",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.100, 10.0.0.1, 172.16.0.1"},
			remoteAddr: "127.0.0.1:12345",
			expectedIP: "192.168.1.100",
		},
		{
			name:       "X-Forwarded-For chained IPs (space after comma)",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18, 150.172.238.178"},
			remoteAddr: "127.0.0.1:12345",
			expectedIP: "203.0.113.195",
		},
		{
			name:       "X-Real-IP takes precedence over RemoteAddr",
			headers:    map[string]string{"X-Real-IP": "203.0.113.50"},
			remoteAddr: "10.0.0.1:12345",
			expectedIP: "203.0.113.50",
		},
		{
			name:       "X-Forwarded-For takes precedence over X-Real-IP",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.100", "X-Real-IP": "203.0.113.50"},
			remoteAddr: "10.0.0.1:12345",
			expectedIP: "192.168.1.100",
		},
		{
			name:       "RemoteAddr with port",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.50:54321",
			expectedIP: "192.168.1.50",
		},
		{
			name:       "RemoteAddr without port",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.50",
			expectedIP: "192.168.1.50",
		},
		{
			name:       "IPv6 RemoteAddr with port",
			headers:    map[string]string{},
			remoteAddr: "[::1]:12345",
			expectedIP: "[::1]", // Implementation strips port after last colon
		},
		{
			name:       "IPv6 in X-Forwarded-For",
			headers:    map[string]string{"X-Forwarded-For": "2001:db8::1"},
			remoteAddr: "127.0.0.1:12345",
			expectedIP: "2001:db8::1",
		},
		{
			name:       "empty X-Forwarded-For falls through to RemoteAddr",
			headers:    map[string]string{"X-Forwarded-For": ""},
			remoteAddr: "10.0.0.5:8080",
			expectedIP: "10.0.0.5",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr

			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			result := GetClientIP(req)

			if result != tc.expectedIP {
				t.Errorf("Expected IP '%s', got '%s'", tc.expectedIP, result)
			}
		})
	}
}

func TestWithClaims(t *testing.T) {
	const secret = "test-secret"

	testCases := []struct {
		name       string
		headers    map[string]string
		statusCode int
		subject    string
	}{
		{
			name: "valid signature",
			headers: map[string]string{
				HeaderSubject:   "sub-1",
				HeaderEmail:     "alice@example.com",
				HeaderSignature: auth.SignClaims("sub-1", "alice@example.com", secret),
			},
			statusCode: http.StatusOK,
			subject:    "sub-1",
		},
		{
			name: "valid signature without email",
			headers: map[string]string{
				HeaderSubject:   "sub-2",
				HeaderSignature: auth.SignClaims("sub-2", "", secret),
			},
			statusCode: http.StatusOK,
			subject:    "sub-2",
		},
		{
			name:       "anonymous passes through",
			headers:    map[string]string{},
			statusCode: http.StatusOK,
			subject:    "",
		},
		{
			name: "tampered email",
			headers: map[string]string{
				HeaderSubject:   "sub-1",
				HeaderEmail:     "mallory@example.com",
				HeaderSignature: auth.SignClaims("sub-1", "alice@example.com", secret),
			},
			statusCode: http.StatusUnauthorized,
		},
		{
			name: "wrong secret",
			headers: map[string]string{
				HeaderSubject:   "sub-1",
				HeaderSignature: auth.SignClaims("sub-1", "", "other"),
			},
			statusCode: http.StatusUnauthorized,
		},
		{
			name:       "missing signature",
			headers:    map[string]string{HeaderSubject: "sub-1"},
			statusCode: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var seen auth.Claims
			called := false
			handler := WithClaims(secret, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				seen = auth.ClaimsFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", "/roles/me", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if tc.statusCode != http.StatusOK {
				if called {
					t.Error("Expected next handler not to be called")
				}
				return
			}
			if seen.Subject != tc.subject {
				t.Errorf("Expected subject '%s', got '%s'", tc.subject, seen.Subject)
			}
		})
	}
}
