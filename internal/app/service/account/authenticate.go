package account

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"

	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/internal/platform/identity"
	"github.com/brainac/backend/internal/store"
	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/logctx"
	"github.com/brainac/backend/pkg/types"
)

const defaultGrade = 6

var errInvalidToken = apperr.Unauthenticated("Invalid token.")

// Authenticate resolves a bearer credential to a user. Provider ID tokens are
// tried first, then self-issued tokens; an admin token yields a synthetic
// administrator that is never stored.
func (s *Service) Authenticate(ctx context.Context, raw string) (*models.User, error) {
	if raw == "" {
		return nil, apperr.Unauthenticated("Access denied. No token provided.")
	}
	lg := logctx.FromCtx(ctx, s.log)

	if tok, err := s.ident.VerifyIDToken(ctx, raw); err == nil {
		profile, err := s.ident.GetUser(ctx, tok.UID)
		if err != nil {
			lg.Infow("identity profile lookup failed", "uid", tok.UID, "err", err)
			return nil, errInvalidToken
		}
		return s.authenticated(ctx, tok.UID, profile, tok.Claims)
	}

	claims, err := s.tokens.Parse(raw)
	if err != nil {
		lg.Debugw("token rejected", "err", err)
		return nil, errInvalidToken
	}
	if claims.Admin {
		return SyntheticAdmin(claims.Email), nil
	}
	u, err := s.authenticated(ctx, claims.UID, nil, nil)
	if err != nil {
		return nil, err
	}
	if u.Email == "" {
		u.Email = claims.Email
	}
	return u, nil
}

// authenticated resolves the token subject. A failed store lookup rejects the
// credential rather than surfacing a server error to the client.
func (s *Service) authenticated(ctx context.Context, uid string, profile *identity.Profile, claims map[string]any) (*models.User, error) {
	u, err := s.resolve(ctx, uid, profile, claims)
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("user lookup failed during authentication", "uid", uid, "err", err)
		return nil, errInvalidToken
	}
	return u, nil
}

// SyntheticAdmin is the administrator built from an admin token. Grade 0
// means every grade.
func SyntheticAdmin(email string) *models.User {
	return &models.User{
		ID:                 "admin",
		Email:              email,
		FirstName:          "Admin",
		LastName:           "User",
		Role:               types.RoleAdmin,
		SubscriptionStatus: types.SubscriptionStatusActive,
		Synthetic:          true,
	}
}

// resolve loads the stored user for uid. Stored fields win; the identity
// profile fills the email and accounts that were never stored are rebuilt
// from custom claims. profile is fetched lazily when nil.
func (s *Service) resolve(ctx context.Context, uid string, profile *identity.Profile, claims map[string]any) (*models.User, error) {
	u, err := s.users.GetUser(ctx, uid)
	if err == nil {
		if profile != nil {
			u.Email = lo.CoalesceOrEmpty(u.Email, profile.Email)
			u.EmailVerified = u.EmailVerified || profile.EmailVerified
		}
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal(err, "Failed to load user")
	}

	if profile == nil {
		profile, err = s.ident.GetUser(ctx, uid)
		if err != nil {
			// self-issued token for an account the provider cannot describe
			logctx.FromCtx(ctx, s.log).Infow("no stored or identity profile, using token identity", "uid", uid, "err", err)
			profile = &identity.Profile{UID: uid}
		}
	}
	if claims == nil {
		claims = profile.CustomClaims
	}
	return FromClaims(profile, claims), nil
}

// FromClaims builds a transient user from identity custom claims, defaulting
// to grade 6 in trial.
func FromClaims(p *identity.Profile, claims map[string]any) *models.User {
	first, last := p.SplitName()
	u := &models.User{
		ID:                 p.UID,
		Email:              p.Email,
		FirstName:          lo.CoalesceOrEmpty(claimString(claims, "firstName"), first),
		LastName:           lo.CoalesceOrEmpty(claimString(claims, "lastName"), last),
		DisplayName:        p.DisplayName,
		Grade:              defaultGrade,
		Role:               types.RoleStudent,
		SubscriptionStatus: types.SubscriptionStatusTrial,
		EmailVerified:      p.EmailVerified,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          lo.Ternary(p.LastSignInAt.IsZero(), p.CreatedAt, p.LastSignInAt),
	}
	if g := claimInt(claims, "class"); g > 0 {
		u.Grade = g
	}
	if st := types.SubscriptionStatus(claimString(claims, "subscriptionStatus")); st.Valid() {
		u.SubscriptionStatus = st
	}
	if plan := types.PlanID(claimString(claims, "subscriptionPlan")); plan.Valid() {
		u.SubscriptionPlan = &plan
	}
	u.TrialEndDate = claimTime(claims, "trialEndDate")
	u.SubscriptionStartDate = claimTime(claims, "subscriptionStartDate")
	u.SubscriptionEndDate = claimTime(claims, "subscriptionEndDate")
	return u
}

func claimString(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return s
}

// claimInt accepts JSON numbers as well as the int forms used by callers
// building claims in process.
func claimInt(claims map[string]any, key string) int {
	switch v := claims[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

func claimTime(claims map[string]any, key string) *time.Time {
	raw := claimString(claims, key)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}
