// Package identity wraps the external identity provider. The service only
// treats it as a credential verifier and a profile store.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrUserNotFound       = errors.New("identity: user not found")
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	ErrUnavailable        = errors.New("identity: provider not configured")
	// ErrPasswordCheckDisabled is returned when no web API key is configured and
	// the provider cannot check passwords server-side.
	ErrPasswordCheckDisabled = errors.New("identity: password verification disabled")
)

// Token is a verified provider-issued credential.
type Token struct {
	UID    string
	Claims map[string]any
}

// Profile is the provider-side view of an account.
type Profile struct {
	UID           string
	Email         string
	DisplayName   string
	EmailVerified bool
	CustomClaims  map[string]any
	CreatedAt     time.Time
	LastSignInAt  time.Time
}

// SplitName splits the display name into first and remaining names.
func (p *Profile) SplitName() (first, last string) {
	parts := strings.Fields(p.DisplayName)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

type NewAccount struct {
	Email       string
	Password    string
	DisplayName string
}

type Provider interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Token, error)
	GetUser(ctx context.Context, uid string) (*Profile, error)
	GetUserByEmail(ctx context.Context, email string) (*Profile, error)
	CreateUser(ctx context.Context, acc NewAccount) (*Profile, error)
	DeleteUser(ctx context.Context, uid string) error
	// ListUsers calls fn for every account, stopping at the first error.
	ListUsers(ctx context.Context, fn func(*Profile) error) error
	UpdateDisplayName(ctx context.Context, uid, displayName string) error
	SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error
	// VerifyPassword checks an email/password pair and returns the account uid.
	VerifyPassword(ctx context.Context, email, password string) (string, error)
}

// Unavailable is used when no service-account credentials are configured.
// Every call fails with ErrUnavailable.
type Unavailable struct{}

var _ Provider = Unavailable{}

func (Unavailable) VerifyIDToken(context.Context, string) (*Token, error) { return nil, ErrUnavailable }
func (Unavailable) GetUser(context.Context, string) (*Profile, error)     { return nil, ErrUnavailable }
func (Unavailable) GetUserByEmail(context.Context, string) (*Profile, error) {
	return nil, ErrUnavailable
}
func (Unavailable) CreateUser(context.Context, NewAccount) (*Profile, error) {
	return nil, ErrUnavailable
}
func (Unavailable) DeleteUser(context.Context, string) error { return ErrUnavailable }
func (Unavailable) ListUsers(context.Context, func(*Profile) error) error {
	return ErrUnavailable
}
func (Unavailable) UpdateDisplayName(context.Context, string, string) error { return ErrUnavailable }
func (Unavailable) SetCustomClaims(context.Context, string, map[string]any) error {
	return ErrUnavailable
}
func (Unavailable) VerifyPassword(context.Context, string, string) (string, error) {
	return "", ErrUnavailable
}
