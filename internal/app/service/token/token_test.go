package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/brainac/backend/pkg/config"
)

func newService(secret string) *Service {
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = secret
	cfg.Auth.TokenTTL = time.Hour
	return New(cfg)
}

func TestIssueParse_RoundTrip(t *testing.T) {
	s := newService("secret")
	raw, err := s.Issue("uid-1", "a@b.c")
	require.NoError(t, err)

	claims, err := s.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "uid-1", claims.UID)
	require.Equal(t, "a@b.c", claims.Email)
	require.False(t, claims.Admin)
}

func TestIssueAdmin(t *testing.T) {
	s := newService("secret")
	raw, err := s.IssueAdmin("admin@brainac.in")
	require.NoError(t, err)
	claims, err := s.Parse(raw)
	require.NoError(t, err)
	require.True(t, claims.Admin)
}

func TestParse_Rejects(t *testing.T) {
	s := newService("secret")
	raw, err := s.Issue("uid-1", "a@b.c")
	require.NoError(t, err)

	_, err = newService("other").Parse(raw)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Parse("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)

	expired := newService("secret")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue("uid-1", "a@b.c")
	require.NoError(t, err)
	_, err = s.Parse(old)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	s := newService("secret")
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{UID: "uid-1"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = s.Parse(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}
