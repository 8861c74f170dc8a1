// Package account handles registration, login and the caller's profile.
package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"

	"github.com/brainac/backend/internal/app/service/subscription"
	"github.com/brainac/backend/internal/app/service/token"
	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/internal/platform/identity"
	"github.com/brainac/backend/internal/store"
	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/config"
	"github.com/brainac/backend/pkg/logctx"
	"github.com/brainac/backend/pkg/types"
)

type Service struct {
	ident  identity.Provider
	tokens *token.Service
	users  store.UserStore
	subs   *subscription.Service
	log    *zap.SugaredLogger

	adminEmail string
	adminHash  string
}

func NewService(cfg *config.Config, log *zap.SugaredLogger, ident identity.Provider, tokens *token.Service, repo store.Store, subs *subscription.Service) *Service {
	return &Service{
		ident:      ident,
		tokens:     tokens,
		users:      repo,
		subs:       subs,
		log:        log.Named("account"),
		adminEmail: strings.ToLower(strings.TrimSpace(cfg.Auth.AdminEmail)),
		adminHash:  cfg.Auth.AdminPasswordHash,
	}
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Class     int    `json:"class"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	UID                string                   `json:"uid"`
	Email              string                   `json:"email"`
	DisplayName        string                   `json:"displayName"`
	Class              int                      `json:"class"`
	SubscriptionStatus types.SubscriptionStatus `json:"subscriptionStatus"`
	TrialEndDate       *time.Time               `json:"trialEndDate,omitempty"`
	CustomToken        string                   `json:"customToken"`
}

type AdminAuthResult struct {
	Token string     `json:"token"`
	Email string     `json:"email"`
	Role  types.Role `json:"role"`
}

// identityErr classifies identity provider failures for the endpoint doing msg.
func identityErr(err error, feature, msg string) error {
	if errors.Is(err, identity.ErrUnavailable) {
		return apperr.Wrap(apperr.KindUnavailable, err, feature+" not available")
	}
	return apperr.Upstream(err, msg)
}

func (s *Service) result(u *models.User) (*AuthResult, error) {
	tok, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to issue token")
	}
	return &AuthResult{
		UID:                u.ID,
		Email:              u.Email,
		DisplayName:        lo.CoalesceOrEmpty(u.DisplayName, u.FullName()),
		Class:              u.Grade,
		SubscriptionStatus: u.SubscriptionStatus,
		TrialEndDate:       u.TrialEndDate,
		CustomToken:        tok,
	}, nil
}

// Register creates the identity account and the stored profile, starts the
// trial and returns a session token.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" || req.Class == 0 {
		return nil, apperr.Validation("All fields are required")
	}
	if req.Class < types.MinContentGrade || req.Class > types.MaxGrade {
		return nil, apperr.Validation("Class must be between 6 and 10")
	}

	_, err := s.ident.GetUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, apperr.Validation("User already exists with this email")
	case errors.Is(err, identity.ErrUserNotFound):
	default:
		return nil, identityErr(err, "Registration", "Registration failed")
	}

	displayName := req.FirstName + " " + req.LastName
	profile, err := s.ident.CreateUser(ctx, identity.NewAccount{Email: req.Email, Password: req.Password, DisplayName: displayName})
	if err != nil {
		return nil, identityErr(err, "Registration", "Registration failed")
	}

	u := &models.User{
		ID:            profile.UID,
		Email:         profile.Email,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		DisplayName:   displayName,
		Grade:         req.Class,
		Role:          types.RoleStudent,
		EmailVerified: profile.EmailVerified,
		Preferences:   datatypes.NewJSONType(models.DefaultPreferences()),
	}
	s.subs.InitTrial(ctx, u)
	if err := s.users.CreateUser(ctx, u); err != nil {
		// without the profile row the identity account would block the email forever
		if derr := s.ident.DeleteUser(ctx, u.ID); derr != nil {
			logctx.FromCtx(ctx, s.log).Errorw("failed to roll back identity account", "user_id", u.ID, "err", derr)
		}
		return nil, apperr.Internal(err, "Registration failed")
	}
	logctx.FromCtx(ctx, s.log).Infow("user registered", "user_id", u.ID, "class", u.Grade)
	return s.result(u)
}

// Login checks the password through the identity provider when it can. Without
// a web API key only the account's existence is checked.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, apperr.Validation("Email and password are required")
	}
	lg := logctx.FromCtx(ctx, s.log)

	var profile *identity.Profile
	uid, err := s.ident.VerifyPassword(ctx, req.Email, req.Password)
	if errors.Is(err, identity.ErrPasswordCheckDisabled) {
		lg.Warnw("password verification disabled, checking account existence only")
		profile, err = s.ident.GetUserByEmail(ctx, req.Email)
		if profile != nil {
			uid = profile.UID
		}
	}
	switch {
	case err == nil:
	case errors.Is(err, identity.ErrUserNotFound), errors.Is(err, identity.ErrInvalidCredentials):
		return nil, apperr.Unauthenticated("Invalid email or password")
	default:
		return nil, identityErr(err, "Login", "Login failed")
	}

	u, err := s.resolve(ctx, uid, profile, nil)
	if err != nil {
		return nil, err
	}
	lg.Infow("user logged in", "user_id", u.ID)
	return s.result(u)
}

// AdminLogin checks the configured administrator credentials.
func (s *Service) AdminLogin(ctx context.Context, req *LoginRequest) (*AdminAuthResult, error) {
	if s.adminEmail == "" || s.adminHash == "" {
		return nil, apperr.Unavailable("Admin login not available")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, apperr.Validation("Email and password are required")
	}
	if email != s.adminEmail || bcrypt.CompareHashAndPassword([]byte(s.adminHash), []byte(req.Password)) != nil {
		logctx.FromCtx(ctx, s.log).Warnw("admin login rejected", "email", email)
		return nil, apperr.Unauthenticated("Invalid admin credentials")
	}
	tok, err := s.tokens.IssueAdmin(email)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to issue token")
	}
	return &AdminAuthResult{Token: tok, Email: email, Role: types.RoleAdmin}, nil
}

type ProfileView struct {
	UID                string                   `json:"uid"`
	Email              string                   `json:"email"`
	FirstName          string                   `json:"firstName"`
	LastName           string                   `json:"lastName"`
	DisplayName        string                   `json:"displayName"`
	Class              int                      `json:"class"`
	Role               types.Role               `json:"role"`
	SubscriptionStatus types.SubscriptionStatus `json:"subscriptionStatus"`
	TrialEndDate       *time.Time               `json:"trialEndDate,omitempty"`
	IsEmailVerified    bool                     `json:"isEmailVerified"`
	Preferences        *models.UserPreferences  `json:"preferences,omitempty"`
	CreatedAt          time.Time                `json:"createdAt"`
	UpdatedAt          time.Time                `json:"updatedAt"`
}

func (s *Service) Profile(u *models.User) *ProfileView {
	return &ProfileView{
		UID:                u.ID,
		Email:              u.Email,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		DisplayName:        u.FullName(),
		Class:              u.Grade,
		Role:               u.Role,
		SubscriptionStatus: u.SubscriptionStatus,
		TrialEndDate:       u.TrialEndDate,
		IsEmailVerified:    u.EmailVerified,
		Preferences:        u.Preferences.Data(),
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

type UpdateProfileRequest struct {
	FirstName   string                  `json:"firstName"`
	LastName    string                  `json:"lastName"`
	Class       int                     `json:"class"`
	Preferences *models.UserPreferences `json:"preferences"`
}

// UpdateProfile applies the non-empty fields of req and mirrors a name change
// onto the identity display name.
func (s *Service) UpdateProfile(ctx context.Context, u *models.User, req *UpdateProfileRequest) (*ProfileView, error) {
	if u.Synthetic {
		return nil, apperr.Validation("Administrator accounts have no profile")
	}
	if req.Class != 0 && (req.Class < types.MinGrade || req.Class > types.MaxGrade) {
		return nil, apperr.Validation("Class must be between 5 and 10")
	}
	renamed := req.FirstName != "" || req.LastName != ""
	if req.FirstName != "" {
		u.FirstName = req.FirstName
	}
	if req.LastName != "" {
		u.LastName = req.LastName
	}
	if renamed {
		u.DisplayName = u.FullName()
	}
	if req.Class != 0 {
		u.Grade = req.Class
	}
	if req.Preferences != nil {
		u.Preferences = datatypes.NewJSONType(req.Preferences)
	}
	if err := s.users.SaveUser(ctx, u); err != nil {
		return nil, apperr.Internal(err, "Profile update failed")
	}
	if renamed {
		if err := s.ident.UpdateDisplayName(ctx, u.ID, u.DisplayName); err != nil && !errors.Is(err, identity.ErrUnavailable) {
			logctx.FromCtx(ctx, s.log).Warnw("identity display name sync failed", "user_id", u.ID, "err", err)
		}
	}
	return s.Profile(u), nil
}
