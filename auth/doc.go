// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identity claims, role checks, and ID generation.

# Claims

The identity provider sits in front of the API. The gateway verifies the
user's token and forwards the subject and email claims together with an
HMAC-SHA256 signature keyed by a shared secret:

	sig := auth.SignClaims(sub, email, secret)
	err := auth.VerifyClaims(auth.Claims{Subject: sub, Email: email}, sig, secret)

The signature is URL-safe base64 without padding. Middleware verifies it once
and stores the typed Claims on the request context:

	claims := auth.ClaimsFromContext(r.Context())

A missing subject is an authentication failure (401).

# Roles

Each subject maps to one role, client or company:

	ur, err := auth.RequireRole(ctx, db, claims, models.RoleCompany)

RequireRole returns ErrUnauthenticated (401) or ErrForbidden (403) before
any mutation happens. UpsertRole assigns a role, matching an existing row by
subject first and by email second. Only the caller's verified email claim can
move an existing row to a new subject.

# ID Generation

Random UUIDv4 strings for database records:

	id := auth.NewID()
*/
package auth
