// Package token issues and validates the self-signed HS256 tokens handed out
// by the login endpoints.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/fx"

	"github.com/brainac/backend/pkg/config"
)

var ErrInvalidToken = errors.New("token: invalid")

const issuer = "brainac-api"

// Claims keeps the uid/email field names used by already-issued tokens.
type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Admin bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(cfg *config.Config) *Service {
	ttl := cfg.Auth.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{secret: []byte(cfg.Auth.JWTSecret), ttl: ttl, now: time.Now}
}

func (s *Service) TTL() time.Duration { return s.ttl }

func (s *Service) issue(uid, email string, admin bool) (string, error) {
	now := s.now()
	claims := Claims{
		UID:   uid,
		Email: email,
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}
	return signed, nil
}

// Issue returns a student token for uid.
func (s *Service) Issue(uid, email string) (string, error) {
	return s.issue(uid, email, false)
}

// IssueAdmin returns a token carrying the admin flag.
func (s *Service) IssueAdmin(email string) (string, error) {
	return s.issue("admin", email, true)
}

// Parse validates signature, algorithm and expiry.
func (s *Service) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid || (claims.UID == "" && !claims.Admin) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
