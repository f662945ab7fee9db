// Package identity resolves the caller of a request into a ledger identity.
//
// The ledger never authenticates anyone itself; transports hand the raw
// credentials to a Resolver and thread the resulting identity into each
// mutating call.
package identity

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/alfredjeanlab/ballot/internal/model"
)

// CallerHeader is the HTTP header (and lower-cased gRPC metadata key) naming
// the caller when identities are asserted by a trusted front end.
const CallerHeader = "X-Ballot-Caller"

var (
	// ErrUnauthenticated is returned when credentials are missing or invalid.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrMissingIdentity is returned when credentials are valid but name no caller.
	ErrMissingIdentity = errors.New("caller identity is required")
)

// Credentials are the raw values a transport extracted from a request.
type Credentials struct {
	Authorization string // full Authorization header value
	Caller        string // value of CallerHeader
}

// Resolver turns credentials into a caller identity.
type Resolver interface {
	Resolve(ctx context.Context, creds Credentials) (model.Identity, error)
}

// HeaderResolver trusts the caller header. When Token is non-empty, the
// request must also carry "Authorization: Bearer <Token>".
type HeaderResolver struct {
	Token string
}

// Resolve implements Resolver.
func (r HeaderResolver) Resolve(_ context.Context, creds Credentials) (model.Identity, error) {
	if r.Token != "" {
		provided, ok := bearer(creds.Authorization)
		if !ok || subtle.ConstantTimeCompare([]byte(provided), []byte(r.Token)) != 1 {
			return "", ErrUnauthenticated
		}
	}
	caller := strings.TrimSpace(creds.Caller)
	if caller == "" {
		return "", ErrMissingIdentity
	}
	return model.Identity(caller), nil
}

// bearer extracts the token from a "Bearer <token>" header value.
func bearer(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(header, "Bearer "), true
}

type callerKey struct{}

// WithCaller stores the resolved caller in ctx.
func WithCaller(ctx context.Context, caller model.Identity) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// FromContext returns the caller stored in ctx, if any.
func FromContext(ctx context.Context) (model.Identity, bool) {
	caller, ok := ctx.Value(callerKey{}).(model.Identity)
	return caller, ok && caller != ""
}
