// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated  = errors.New("no subject in identity claims")
	ErrInvalidSignature = errors.New("invalid claims signature")
	ErrForbidden        = errors.New("required role missing")
	ErrNoRole           = errors.New("no role assigned")
)

// Claims is the verified identity forwarded by the upstream gateway.
// Email is optional; Subject is required for any authenticated operation.
type Claims struct {
	Subject string
	Email   string
}

func (c Claims) Authenticated() bool {
	return c.Subject != ""
}

// NewID creates a random UUIDv4 for database records
func NewID() string {
	return uuid.NewString()
}

// SignClaims creates the HMAC signature the gateway attaches to forwarded claims.
// This is deterministic and verifiable
func SignClaims(subject, email, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(subject))
	h.Write([]byte{'|'})
	h.Write([]byte(email))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner headers
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// VerifyClaims checks that signature was produced for c with secret
func VerifyClaims(c Claims, signature, secret string) error {
	expected := SignClaims(c.Subject, c.Email, secret)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}

type claimsKey struct{}

// WithClaims stores verified claims on the context
func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the claims stored by WithClaims.
// A context without claims yields the zero Claims, which is unauthenticated.
func ClaimsFromContext(ctx context.Context) Claims {
	c, _ := ctx.Value(claimsKey{}).(Claims)
	return c
}
