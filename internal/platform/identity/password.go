package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// passwordVerifier checks email/password credentials through the Identity
// Toolkit relying-party API, which the Admin SDK does not expose.
type passwordVerifier struct {
	rp *identitytoolkit.RelyingpartyService
}

func newPasswordVerifier(ctx context.Context, opts ...option.ClientOption) (*passwordVerifier, error) {
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("init identity toolkit: %w", err)
	}
	return &passwordVerifier{rp: svc.Relyingparty}, nil
}

var credentialErrors = []string{"INVALID_PASSWORD", "EMAIL_NOT_FOUND", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED", "INVALID_EMAIL"}

func (v *passwordVerifier) verify(ctx context.Context, email, password string) (string, error) {
	res, err := v.rp.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			for _, code := range credentialErrors {
				if strings.HasPrefix(gerr.Message, code) {
					return "", ErrInvalidCredentials
				}
			}
		}
		return "", fmt.Errorf("verify password: %w", err)
	}
	if res.LocalId == "" {
		return "", errors.New("verify password: empty local id")
	}
	return res.LocalId, nil
}
