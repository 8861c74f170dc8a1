package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/brainac/backend/pkg/config"
	"github.com/brainac/backend/pkg/logctx"
)

const profileCacheTTL = time.Minute

// Firebase implements Provider with the Firebase Admin SDK. Profiles are
// cached briefly because every authenticated request looks one up.
type Firebase struct {
	client   *auth.Client
	profiles *cache.Cache
	password *passwordVerifier
	log      *zap.SugaredLogger
}

var _ Provider = (*Firebase)(nil)

func serviceAccountJSON(cfg config.FirebaseConfig) ([]byte, error) {
	return json.Marshal(map[string]string{
		"type":                        "service_account",
		"project_id":                  cfg.ProjectID,
		"private_key_id":              cfg.PrivateKeyID,
		"private_key":                 cfg.PrivateKey,
		"client_email":                cfg.ClientEmail,
		"client_id":                   cfg.ClientID,
		"auth_uri":                    "https://accounts.google.com/o/oauth2/auth",
		"token_uri":                   "https://oauth2.googleapis.com/token",
		"auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
		"client_x509_cert_url":        cfg.ClientCertURL,
	})
}

func NewFirebase(ctx context.Context, cfg config.FirebaseConfig, log *zap.SugaredLogger) (*Firebase, error) {
	creds, err := serviceAccountJSON(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode service account: %w", err)
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	f := &Firebase{
		client:   client,
		profiles: cache.New(profileCacheTTL, 5*time.Minute),
		log:      log.Named("identity"),
	}
	if cfg.WebAPIKey != "" {
		f.password, err = newPasswordVerifier(ctx, option.WithAPIKey(cfg.WebAPIKey))
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

func toProfile(rec *auth.UserRecord) *Profile {
	p := &Profile{
		UID:           rec.UID,
		Email:         rec.Email,
		DisplayName:   rec.DisplayName,
		EmailVerified: rec.EmailVerified,
		CustomClaims:  rec.CustomClaims,
	}
	if rec.UserMetadata != nil {
		p.CreatedAt = time.UnixMilli(rec.UserMetadata.CreationTimestamp)
		p.LastSignInAt = time.UnixMilli(rec.UserMetadata.LastLogInTimestamp)
	}
	return p
}

func mapAuthErr(err error) error {
	if auth.IsUserNotFound(err) {
		return ErrUserNotFound
	}
	return err
}

func (f *Firebase) VerifyIDToken(ctx context.Context, idToken string) (*Token, error) {
	tok, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return &Token{UID: tok.UID, Claims: tok.Claims}, nil
}

func (f *Firebase) GetUser(ctx context.Context, uid string) (*Profile, error) {
	if v, ok := f.profiles.Get(uid); ok {
		return v.(*Profile), nil
	}
	rec, err := f.client.GetUser(ctx, uid)
	if err != nil {
		return nil, mapAuthErr(err)
	}
	p := toProfile(rec)
	f.profiles.SetDefault(uid, p)
	return p, nil
}

func (f *Firebase) GetUserByEmail(ctx context.Context, email string) (*Profile, error) {
	rec, err := f.client.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, mapAuthErr(err)
	}
	return toProfile(rec), nil
}

func (f *Firebase) CreateUser(ctx context.Context, acc NewAccount) (*Profile, error) {
	params := (&auth.UserToCreate{}).
		Email(acc.Email).
		Password(acc.Password).
		DisplayName(acc.DisplayName).
		EmailVerified(false)
	rec, err := f.client.CreateUser(ctx, params)
	if err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, f.log).Infow("identity_user_created", "uid", rec.UID)
	return toProfile(rec), nil
}

func (f *Firebase) DeleteUser(ctx context.Context, uid string) error {
	err := f.client.DeleteUser(ctx, uid)
	f.profiles.Delete(uid)
	if err == nil {
		logctx.FromCtx(ctx, f.log).Infow("identity_user_deleted", "uid", uid)
	}
	return mapAuthErr(err)
}

// ListUsers pages through the project's accounts in provider order.
func (f *Firebase) ListUsers(ctx context.Context, fn func(*Profile) error) error {
	it := f.client.Users(ctx, "")
	for {
		rec, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("list identity users: %w", err)
		}
		if err := fn(toProfile(rec.UserRecord)); err != nil {
			return err
		}
	}
}

func (f *Firebase) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	_, err := f.client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).DisplayName(displayName))
	f.profiles.Delete(uid)
	return mapAuthErr(err)
}

func (f *Firebase) SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error {
	err := f.client.SetCustomUserClaims(ctx, uid, claims)
	f.profiles.Delete(uid)
	return mapAuthErr(err)
}

func (f *Firebase) VerifyPassword(ctx context.Context, email, password string) (string, error) {
	if f.password == nil {
		return "", ErrPasswordCheckDisabled
	}
	return f.password.verify(ctx, email, password)
}
