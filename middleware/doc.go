// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, client IP, caller subject) and completion
(duration_ms).

# Identity Claims

The upstream gateway forwards the caller's identity as X-Auth-Sub,
X-Auth-Email and X-Auth-Signature, an HMAC of "sub|email" keyed with
CLAIMS_SECRET. WithClaims verifies the signature once and stores an
auth.Claims on the request context:

	handler := middleware.WithClaims(cfg.ClaimsSecret, mux)

	c := auth.ClaimsFromContext(r.Context())

Requests without X-Auth-Sub stay anonymous. A bad signature is a 401.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type, Authorization and the three X-Auth headers.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse JSON request bodies:

	var req models.JoinPoolRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Used in request logs.
*/
package middleware
