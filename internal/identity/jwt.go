package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alfredjeanlab/ballot/internal/model"
)

// JWTResolver verifies an HS256 bearer token and uses its subject as the
// caller identity. The caller header is ignored.
type JWTResolver struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTResolver returns a resolver for tokens signed with secret. When
// issuer is non-empty the iss claim must match it.
func NewJWTResolver(secret, issuer string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// WithClock overrides the clock used for exp/nbf checks.
func (r *JWTResolver) WithClock(now func() time.Time) *JWTResolver {
	r.now = now
	return r
}

// Resolve implements Resolver.
func (r *JWTResolver) Resolve(_ context.Context, creds Credentials) (model.Identity, error) {
	raw, ok := bearer(creds.Authorization)
	if !ok || raw == "" {
		return "", ErrUnauthenticated
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(r.now),
	}
	if r.issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.issuer))
	}

	var claims jwt.RegisteredClaims
	if _, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return r.secret, nil
	}, opts...); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return "", ErrMissingIdentity
	}
	return model.Identity(claims.Subject), nil
}

// IssueToken signs a token for subject. It is used by the CLI and tests.
func IssueToken(secret, issuer, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  subject,
		Issuer:   issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
