package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/internal/platform/identity"
	"github.com/brainac/backend/internal/platform/paygateway"
	"github.com/brainac/backend/internal/store"
	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/config"
	"github.com/brainac/backend/pkg/logctx"
	"github.com/brainac/backend/pkg/metrics"
	"github.com/brainac/backend/pkg/tool"
	"github.com/brainac/backend/pkg/types"
)

// Repository is the slice of the store the lifecycle engine touches.
type Repository interface {
	store.UserStore
	store.PaymentStore
	store.HistoryStore
}

// Trigger names what caused a transition; it is logged and counted.
type Trigger string

const (
	TriggerRegister      Trigger = "register"
	TriggerVerifyPayment Trigger = "verify_payment"
	TriggerWebhook       Trigger = "webhook"
	TriggerUserRequest   Trigger = "user_request"
	TriggerExpirySweep   Trigger = "expiry_sweep"
	TriggerAdmin         Trigger = "admin"
)

// Service owns every write to a user's subscription fields.
type Service struct {
	repo     Repository
	gateway  paygateway.Gateway
	identity identity.Provider
	log      *zap.SugaredLogger
	currency string
	trial    time.Duration
	now      func() time.Time
}

func NewService(cfg *config.Config, log *zap.SugaredLogger, repo store.Store, gateway paygateway.Gateway, ident identity.Provider) *Service {
	currency := cfg.Razorpay.Currency
	if currency == "" {
		currency = "INR"
	}
	return &Service{
		repo:     repo,
		gateway:  gateway,
		identity: ident,
		log:      log.Named("subscription"),
		currency: currency,
		trial:    cfg.TrialDuration(),
		now:      time.Now,
	}
}

func (s *Service) Now() time.Time { return s.now() }

func (s *Service) TrialDuration() time.Duration { return s.trial }

func (s *Service) Currency() string { return s.currency }

// Snapshot derives the caller's current subscription view.
func (s *Service) Snapshot(u *models.User) *Snapshot {
	return SnapshotOf(u, s.now())
}

// History lists the user's audit rows, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]*models.SubscriptionHistory, error) {
	items, err := s.repo.ListHistory(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch subscription history")
	}
	return items, nil
}

func (s *Service) appendHistory(ctx context.Context, u *models.User, status types.SubscriptionStatus, start time.Time, end *time.Time, paymentID *string) {
	plan := types.PlanMonthly
	if u.SubscriptionPlan != nil {
		plan = *u.SubscriptionPlan
	}
	h := &models.SubscriptionHistory{
		ID:                    tool.GenerateUUIDV7(),
		UserID:                u.ID,
		PlanID:                plan,
		Status:                status,
		StartDate:             start,
		EndDate:               end,
		PaymentID:             paymentID,
		GatewaySubscriptionID: u.GatewaySubscriptionID,
	}
	if err := s.repo.AppendHistory(ctx, h); err != nil {
		// history is an audit trail; the transition itself already happened
		logctx.FromCtx(ctx, s.log).Errorf("failed to append subscription history: %v", err)
	}
}

func (s *Service) transitioned(ctx context.Context, u *models.User, from types.SubscriptionStatus, trigger Trigger) {
	metrics.RecordTransition(string(u.SubscriptionStatus), string(trigger))
	logctx.FromCtx(ctx, s.log).Infow("subscription_transition",
		"user_id", u.ID, "from", from, "to", u.SubscriptionStatus, "trigger", trigger)
}

// InitTrial starts the trial of a freshly registered user and records it.
func (s *Service) InitTrial(ctx context.Context, u *models.User) {
	now := s.now()
	StartTrial(u, now, s.trial)
	u.SubscriptionPlan = nil
	s.appendHistory(ctx, u, types.SubscriptionStatusTrial, now, u.TrialEndDate, nil)
}

// Import stores a user rebuilt outside the lifecycle, such as from identity
// claims, with one history row for its current window. A trial user without
// a trial window starts one now.
func (s *Service) Import(ctx context.Context, u *models.User) error {
	now := s.now()
	if u.SubscriptionStatus == types.SubscriptionStatusTrial && u.TrialEndDate == nil {
		StartTrial(u, now, s.trial)
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return err
	}
	start := lo.FromPtrOr(lo.CoalesceOrEmpty(u.SubscriptionStartDate, u.TrialStartDate), now)
	end := lo.Ternary(u.SubscriptionStatus == types.SubscriptionStatusTrial, u.TrialEndDate, u.SubscriptionEndDate)
	s.appendHistory(ctx, u, u.SubscriptionStatus, start, end, nil)
	return nil
}

// ActivateRequest describes a settled payment for plan.
type ActivateRequest struct {
	Plan                  types.PlanID
	GatewayOrderID        string
	GatewayPaymentID      string
	GatewaySubscriptionID string
	Signature             string
	Method                string
	Trigger               Trigger
}

// Activation is the outcome of Activate. Replayed reports a gateway payment
// that was already recorded for the user; nothing was changed.
type Activation struct {
	Payment  *models.Payment
	Replayed bool
}

var errPaymentClaimed = apperr.Validation("Payment already used by another account")

// Activate moves u to active for one period of the plan, records the payment
// and a history row, then refreshes identity claims best-effort. A gateway
// payment activates at most once.
func (s *Service) Activate(ctx context.Context, u *models.User, req ActivateRequest) (*Activation, error) {
	plan, ok := PlanByID(req.Plan)
	if !ok {
		return nil, apperr.Validation("Invalid plan selected")
	}
	if u.Synthetic {
		return nil, errAdminAccount
	}
	if req.GatewayPaymentID != "" {
		existing, err := s.repo.FindPaymentByGatewayPaymentID(ctx, req.GatewayPaymentID)
		switch {
		case err == nil && existing.UserID != u.ID:
			logctx.FromCtx(ctx, s.log).Warnw("payment belongs to another user",
				"payment_id", req.GatewayPaymentID, "user_id", u.ID, "owner_id", existing.UserID)
			return nil, errPaymentClaimed
		case err == nil:
			return &Activation{Payment: existing, Replayed: true}, nil
		case !errors.Is(err, store.ErrNotFound):
			return nil, apperr.Internal(err, "Failed to record payment")
		}
	}

	now := s.now()
	end := PlanEnd(now, plan.ID)
	from := u.SubscriptionStatus

	u.SubscriptionStatus = types.SubscriptionStatusActive
	u.SubscriptionPlan = lo.ToPtr(plan.ID)
	u.SubscriptionStartDate = &now
	u.SubscriptionEndDate = &end
	u.CancelledAt = nil
	if req.GatewaySubscriptionID != "" {
		u.GatewaySubscriptionID = lo.ToPtr(req.GatewaySubscriptionID)
	}
	if err := s.saveUser(ctx, u); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ID:                    tool.GenerateUUIDV7(),
		UserID:                u.ID,
		GatewayOrderID:        req.GatewayOrderID,
		GatewayPaymentID:      lo.EmptyableToPtr(req.GatewayPaymentID),
		GatewaySubscriptionID: req.GatewaySubscriptionID,
		Signature:             req.Signature,
		PlanID:                plan.ID,
		Amount:                plan.Price,
		Currency:              s.currency,
		Status:                types.PaymentStatusCompleted,
		PaymentMethod:         lo.Ternary(req.Method != "", req.Method, "razorpay"),
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, apperr.Internal(err, "Failed to record payment")
	}
	s.appendHistory(ctx, u, types.SubscriptionStatusActive, now, &end, lo.EmptyableToPtr(req.GatewayPaymentID))
	s.transitioned(ctx, u, from, req.Trigger)
	s.syncClaims(ctx, u)
	return &Activation{Payment: payment}, nil
}

var errAdminAccount = apperr.Validation("Administrator accounts have no subscription")

// saveUser persists u; transient users (no stored row yet) are created.
func (s *Service) saveUser(ctx context.Context, u *models.User) error {
	if u.Synthetic {
		return errAdminAccount
	}
	if err := s.repo.SaveUser(ctx, u); err != nil {
		return apperr.Internal(err, "Failed to update subscription")
	}
	return nil
}

// syncClaims mirrors the subscription onto identity custom claims so that
// accounts without a stored profile still gate correctly.
func (s *Service) syncClaims(ctx context.Context, u *models.User) {
	claims := map[string]any{
		"class":              u.Grade,
		"subscriptionStatus": string(u.SubscriptionStatus),
	}
	if u.SubscriptionPlan != nil {
		claims["subscriptionPlan"] = string(*u.SubscriptionPlan)
	}
	if u.SubscriptionStartDate != nil {
		claims["subscriptionStartDate"] = u.SubscriptionStartDate.UTC().Format(time.RFC3339)
	}
	if u.SubscriptionEndDate != nil {
		claims["subscriptionEndDate"] = u.SubscriptionEndDate.UTC().Format(time.RFC3339)
	}
	if u.TrialEndDate != nil {
		claims["trialEndDate"] = u.TrialEndDate.UTC().Format(time.RFC3339)
	}
	if err := s.identity.SetCustomClaims(ctx, u.ID, claims); err != nil && !errors.Is(err, identity.ErrUnavailable) {
		logctx.FromCtx(ctx, s.log).Warnw("identity claims sync failed", "user_id", u.ID, "err", err)
	}
}

// AttachGatewaySubscription remembers the recurring subscription created for u
// so later webhooks and cancel/pause/resume can find it.
func (s *Service) AttachGatewaySubscription(ctx context.Context, u *models.User, subscriptionID string) error {
	u.GatewaySubscriptionID = lo.ToPtr(subscriptionID)
	if err := s.saveUser(ctx, u); err != nil {
		return err
	}
	logctx.FromCtx(ctx, s.log).Infow("gateway subscription attached", "user_id", u.ID, "subscription_id", subscriptionID)
	return nil
}

// Cancel cancels the gateway subscription and marks u cancelled. A failing
// gateway call does not block the local transition.
func (s *Service) Cancel(ctx context.Context, u *models.User) error {
	if u.GatewaySubscriptionID == nil || *u.GatewaySubscriptionID == "" {
		return apperr.Validation("No active subscription found")
	}
	start := time.Now()
	_, err := s.gateway.CancelSubscription(ctx, *u.GatewaySubscriptionID, false)
	metrics.ObserveProcess("gateway", "cancel_subscription", start, err)
	if err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("gateway cancel failed, cancelling locally",
			"subscription_id", *u.GatewaySubscriptionID, "err", err)
	}
	return s.MarkCancelled(ctx, u, TriggerUserRequest)
}

// MarkCancelled records a cancellation that already happened at the gateway.
func (s *Service) MarkCancelled(ctx context.Context, u *models.User, trigger Trigger) error {
	now := s.now()
	from := u.SubscriptionStatus
	u.SubscriptionStatus = types.SubscriptionStatusCancelled
	u.CancelledAt = &now
	if err := s.saveUser(ctx, u); err != nil {
		return err
	}
	s.appendHistory(ctx, u, types.SubscriptionStatusCancelled, now, u.SubscriptionEndDate, nil)
	s.transitioned(ctx, u, from, trigger)
	s.syncClaims(ctx, u)
	return nil
}

// Pause pauses the gateway subscription; gateway errors abort with no local change.
func (s *Service) Pause(ctx context.Context, u *models.User) error {
	return s.toggle(ctx, u, types.SubscriptionStatusActive, types.SubscriptionStatusPaused, s.gateway.PauseSubscription)
}

// Resume resumes a paused gateway subscription.
func (s *Service) Resume(ctx context.Context, u *models.User) error {
	return s.toggle(ctx, u, types.SubscriptionStatusPaused, types.SubscriptionStatusActive, s.gateway.ResumeSubscription)
}

func (s *Service) toggle(ctx context.Context, u *models.User, from, to types.SubscriptionStatus, call func(context.Context, string) (*paygateway.Subscription, error)) error {
	if u.GatewaySubscriptionID == nil || *u.GatewaySubscriptionID == "" {
		return apperr.Validation("No active subscription found")
	}
	if u.SubscriptionStatus != from {
		return apperr.Validation(fmt.Sprintf("Subscription is not %s", from))
	}
	start := time.Now()
	_, err := call(ctx, *u.GatewaySubscriptionID)
	metrics.ObserveProcess("gateway", string(to), start, err)
	if err != nil {
		return paygateway.Classify(err, fmt.Sprintf("Failed to %s subscription", verb(to)))
	}
	return s.SetStatus(ctx, u, to, TriggerUserRequest)
}

func verb(to types.SubscriptionStatus) string {
	if to == types.SubscriptionStatusPaused {
		return "pause"
	}
	return "resume"
}

// SetStatus persists a plain status change (pause/resume mirrors, expiry).
func (s *Service) SetStatus(ctx context.Context, u *models.User, to types.SubscriptionStatus, trigger Trigger) error {
	from := u.SubscriptionStatus
	u.SubscriptionStatus = to
	if err := s.saveUser(ctx, u); err != nil {
		return err
	}
	s.appendHistory(ctx, u, to, s.now(), u.SubscriptionEndDate, nil)
	s.transitioned(ctx, u, from, trigger)
	return nil
}

// Override is an administrator correction of the stored subscription fields.
type Override struct {
	Status  types.SubscriptionStatus
	Plan    *types.PlanID
	EndDate *time.Time
}

func (s *Service) AdminOverride(ctx context.Context, userID string, o Override) (*models.User, error) {
	if !o.Status.Valid() {
		return nil, apperr.Validation("Invalid subscription status")
	}
	if o.Plan != nil && !o.Plan.Valid() {
		return nil, apperr.Validation("Invalid plan selected")
	}
	u, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "Failed to update user subscription")
	}
	if o.Plan != nil {
		u.SubscriptionPlan = o.Plan
	}
	if o.EndDate != nil {
		u.SubscriptionEndDate = o.EndDate
	}
	if err := s.SetStatus(ctx, u, o.Status, TriggerAdmin); err != nil {
		return nil, err
	}
	s.syncClaims(ctx, u)
	return u, nil
}

// ExpireLapsed marks every trial/active user whose window closed as expired.
// It returns how many users were moved.
func (s *Service) ExpireLapsed(ctx context.Context) (int, error) {
	now := s.now()
	users, err := s.repo.ListLapsed(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list lapsed users: %w", err)
	}
	moved := 0
	for _, u := range users {
		ok, err := s.expire(ctx, u, now)
		if err != nil {
			logctx.FromCtx(ctx, s.log).Errorw("expire user failed", "user_id", u.ID, "err", err)
			continue
		}
		if ok {
			moved++
		}
	}
	return moved, nil
}

// expire moves a listed user to expired through a conditional store update;
// a user renewed since the listing is left alone.
func (s *Service) expire(ctx context.Context, u *models.User, now time.Time) (bool, error) {
	ok, err := s.repo.ExpireIfLapsed(ctx, u.ID, now)
	if err != nil || !ok {
		return false, err
	}
	from := u.SubscriptionStatus
	u.SubscriptionStatus = types.SubscriptionStatusExpired
	s.appendHistory(ctx, u, u.SubscriptionStatus, now, u.SubscriptionEndDate, nil)
	s.transitioned(ctx, u, from, TriggerExpirySweep)
	return true, nil
}
