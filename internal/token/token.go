// Package token issues and verifies HS256-signed tokens carrying arbitrary
// claims plus an expiry.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claim names injected by Issue.
const (
	ExpiresAtClaim = "exp"
	IssuedAtClaim  = "iat"
)

// DefaultTTLMinutes applies when Issue is called with a non-positive TTL.
const DefaultTTLMinutes = 60

// Verification failures. Callers branch on these with errors.Is.
var (
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenSignature = errors.New("token signature is invalid")
	ErrTokenInvalid   = errors.New("token is invalid")
)

// Issuer signs and verifies tokens with a shared secret.
type Issuer struct {
	secret     []byte
	defaultTTL int
	now        func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock replaces time.Now, for both issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// WithDefaultTTL sets the TTL in minutes used when Issue gets ttlMinutes <= 0.
func WithDefaultTTL(minutes int) Option {
	return func(i *Issuer) {
		if minutes > 0 {
			i.defaultTTL = minutes
		}
	}
}

// NewIssuer creates an Issuer for the given secret.
func NewIssuer(secret string, opts ...Option) *Issuer {
	i := &Issuer{
		secret:     []byte(secret),
		defaultTTL: DefaultTTLMinutes,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue signs claims with an expiry ttlMinutes from now. The caller's map is
// copied, never modified.
func (i *Issuer) Issue(claims map[string]any, ttlMinutes int) (string, error) {
	if ttlMinutes <= 0 {
		ttlMinutes = i.defaultTTL
	}

	now := i.now()
	payload := make(jwt.MapClaims, len(claims)+2)
	maps.Copy(payload, claims)
	payload[IssuedAtClaim] = now.Unix()
	payload[ExpiresAtClaim] = now.Add(time.Duration(ttlMinutes) * time.Minute).Unix()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the claims, including
// the injected exp and iat values. Whole numbers come back as int and other
// numbers as float64. Arrays come back as []any and objects as
// map[string]any, whatever type was passed to Issue.
func (i *Issuer) Verify(tokenString string) (map[string]any, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
		jwt.WithJSONNumber(),
	)
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	out := make(map[string]any, len(claims))
	for k, v := range claims {
		out[k] = normalize(v)
	}
	return out, nil
}

// normalize replaces json.Number values, at any depth, with int or float64.
func normalize(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil && int64(int(n)) == n {
			return int(n)
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case []any:
		for idx, item := range val {
			val[idx] = normalize(item)
		}
		return val
	default:
		return v
	}
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTokenSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}
