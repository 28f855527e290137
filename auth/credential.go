// Package auth carries the caller's bearer credential from the inbound HTTP
// request to the tool handler that forwards it upstream.
//
// The credential lives only in the request's context.Context. Nothing here
// stores it anywhere else, so one call's token can never leak into another.
package auth

import (
	"context"
	"net/http"
	"regexp"
)

// bearerPattern matches "Bearer <token>" with a case-insensitive scheme.
var bearerPattern = regexp.MustCompile(`(?i)^Bearer\s+(.+)$`)

type credentialKey struct{}

// ParseBearer extracts the token from an Authorization header value.
// It reports false for an empty header, a different scheme, or a scheme
// with no token.
func ParseBearer(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	m := bearerPattern.FindStringSubmatch(header)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// WithCredential returns a copy of ctx carrying token.
func WithCredential(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, credentialKey{}, token)
}

// CredentialFromContext returns the credential stored by WithCredential.
func CredentialFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(credentialKey{}).(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// HTTPContextFunc derives the per-request context for the MCP transport.
// A missing or malformed Authorization header is not rejected here: the
// context simply carries no credential and the tool handler reports it.
func HTTPContextFunc(ctx context.Context, r *http.Request) context.Context {
	token, ok := ParseBearer(r.Header.Get("Authorization"))
	if !ok {
		return ctx
	}
	return WithCredential(ctx, token)
}
