package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Django-Rwanda/django-rwanda-portal/internal/token"
)

const testSecret = "test-secret-key-32-chars-minimum"

// fakeClock is advanced explicitly by tests.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestIssue_ProducesThreeSegments(t *testing.T) {
	t.Parallel()

	issuer := token.NewIssuer(testSecret)

	signed, err := issuer.Issue(map[string]any{"sub": "user-1"}, 60)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(signed, "."))
}

func TestIssue_DoesNotMutateClaims(t *testing.T) {
	t.Parallel()

	claims := map[string]any{"sub": "user-1"}
	_, err := token.NewIssuer(testSecret).Issue(claims, 60)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"sub": "user-1"}, claims)
}

func TestVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	clock := newClock()
	issuer := token.NewIssuer(testSecret, token.WithClock(clock.Now))
	original := map[string]any{"sub": "user-42", "role": "editor"}

	signed, err := issuer.Issue(original, 60)
	require.NoError(t, err)

	clock.now = clock.now.Add(59 * time.Minute)
	got, err := issuer.Verify(signed)
	require.NoError(t, err)

	assert.Equal(t, int(newClock().now.Add(60*time.Minute).Unix()), got[token.ExpiresAtClaim])
	assert.Equal(t, int(newClock().now.Unix()), got[token.IssuedAtClaim])

	delete(got, token.ExpiresAtClaim)
	delete(got, token.IssuedAtClaim)
	assert.Equal(t, original, got)
}

func TestVerify_RoundTripKeepsNumericClaims(t *testing.T) {
	t.Parallel()

	issuer := token.NewIssuer(testSecret)
	original := map[string]any{
		"user_id": 42,
		"score":   0.75,
		"roles":   []any{"author", "reviewer"},
		"profile": map[string]any{"age": 30, "ratio": 1.5},
		"big":     int64(1) << 53,
	}

	signed, err := issuer.Issue(original, 60)
	require.NoError(t, err)

	got, err := issuer.Verify(signed)
	require.NoError(t, err)

	assert.Equal(t, 42, got["user_id"])
	assert.Equal(t, 0.75, got["score"])
	assert.Equal(t, []any{"author", "reviewer"}, got["roles"])
	assert.Equal(t, map[string]any{"age": 30, "ratio": 1.5}, got["profile"])
	assert.Equal(t, 1<<53, got["big"])
}

func TestVerify_ExpiredAfterTTL(t *testing.T) {
	t.Parallel()

	clock := newClock()
	issuer := token.NewIssuer(testSecret, token.WithClock(clock.Now))

	signed, err := issuer.Issue(map[string]any{"sub": "user-1"}, 30)
	require.NoError(t, err)

	clock.now = clock.now.Add(31 * time.Minute)
	_, err = issuer.Verify(signed)

	require.Error(t, err)
	assert.ErrorIs(t, err, token.ErrTokenExpired)
	assert.NotErrorIs(t, err, token.ErrTokenSignature)
}

func TestIssue_DefaultTTL(t *testing.T) {
	t.Parallel()

	clock := newClock()
	issuer := token.NewIssuer(testSecret, token.WithClock(clock.Now), token.WithDefaultTTL(10))

	signed, err := issuer.Issue(nil, 0)
	require.NoError(t, err)

	clock.now = clock.now.Add(9 * time.Minute)
	_, err = issuer.Verify(signed)
	require.NoError(t, err)

	clock.now = clock.now.Add(2 * time.Minute)
	_, err = issuer.Verify(signed)
	assert.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestVerify_InvalidSignature(t *testing.T) {
	t.Parallel()

	signed, err := token.NewIssuer("secret-key-one-32-chars-minimum1").Issue(map[string]any{"sub": "x"}, 60)
	require.NoError(t, err)

	_, err = token.NewIssuer("secret-key-two-32-chars-minimum2").Verify(signed)
	assert.ErrorIs(t, err, token.ErrTokenSignature)
}

func TestVerify_MalformedToken(t *testing.T) {
	t.Parallel()

	issuer := token.NewIssuer(testSecret)

	for _, raw := range []string{"", "not-a-token", "only.two.parts.here"} {
		_, err := issuer.Verify(raw)
		assert.ErrorIs(t, err, token.ErrTokenMalformed, "token %q", raw)
	}
}
