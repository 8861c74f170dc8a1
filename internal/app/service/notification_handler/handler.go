package notification_handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	notificationlog "github.com/brainac/backend/internal/app/service/notification_log"
	"github.com/brainac/backend/internal/app/service/subscription"
	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/internal/platform/paygateway"
	"github.com/brainac/backend/internal/store"
	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/config"
	"github.com/brainac/backend/pkg/logctx"
	"github.com/brainac/backend/pkg/metrics"
	"github.com/brainac/backend/pkg/types"
)

var errInvalidSignature = apperr.Validation("Invalid webhook signature")

// Delivery is one raw provider callback.
type Delivery struct {
	Body      []byte
	Signature string
	TraceID   string
}

// Outcome reports how a delivery was handled.
type Outcome struct {
	Event  string                  `json:"event"`
	Status models.WebhookLogStatus `json:"status"`
	UserID string                  `json:"userId,omitempty"`
	Reason string                  `json:"reason,omitempty"`
}

type NotificationHandler struct {
	secret   string
	notifSvc *notificationlog.Service
	subSvc   *subscription.Service
	users    store.UserStore
	Logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewNotificationHandler(cfg *config.Config, notif *notificationlog.Service, sub *subscription.Service, repo store.Store, log *zap.SugaredLogger) *NotificationHandler {
	return &NotificationHandler{
		secret:   cfg.Razorpay.WebhookSecret,
		notifSvc: notif,
		subSvc:   sub,
		users:    repo,
		Logger:   log.Named("webhook"),
		now:      time.Now,
	}
}

// HandleNotification verifies, logs and applies one gateway callback. Events
// that cannot be tied to a stored user, or that need no transition, are
// acknowledged as ignored so the gateway stops retrying.
func (h *NotificationHandler) HandleNotification(ctx context.Context, provider types.PaymentProvider, d Delivery) (out *Outcome, resErr error) {
	if provider != types.PaymentProviderRazorpay {
		return nil, apperr.Validation(fmt.Sprintf("unsupported provider: %s", provider))
	}
	if h.secret != "" && !paygateway.VerifyWebhookSignature(h.secret, d.Body, d.Signature) {
		metrics.RecordWebhook("unknown", "rejected")
		return nil, errInvalidSignature
	}
	parser, err := GetRazorpayNotificationParser(d.Body, h.now())
	if err != nil {
		metrics.RecordWebhook("unknown", "rejected")
		return nil, apperr.Wrap(apperr.KindValidation, err, "Invalid webhook payload")
	}

	event := parser.GetEvent(ctx)
	lg := logctx.FromCtx(ctx, h.Logger).With("event", event, "entity_id", parser.GetEntityID(ctx))
	entry := func(status models.WebhookLogStatus, userID string, result *datatypes.JSON) *models.WebhookLog {
		return &models.WebhookLog{
			ProviderID: string(provider),
			Event:      event,
			UserID:     lo.EmptyableToPtr(userID),
			TraceID:    d.TraceID,
			EntityID:   parser.GetEntityID(ctx),
			Data:       datatypes.JSON(d.Body),
			Result:     result,
			Status:     status,
		}
	}

	u := h.resolveUser(ctx, parser)
	userID := ""
	if u != nil {
		userID = u.ID
	}
	h.notifSvc.Save(ctx, entry(models.WebhookLogStatusReceived, userID, nil))

	out = &Outcome{Event: event, UserID: userID}
	defer func() {
		resMap := map[string]any{"outcome": out}
		if resErr != nil {
			resMap["error"] = resErr.Error()
			out.Status = models.WebhookLogStatusHandleFailed
		}
		resBytes, _ := json.Marshal(resMap)
		h.notifSvc.Save(ctx, entry(out.Status, userID, lo.ToPtr(datatypes.JSON(resBytes))))
		metrics.RecordWebhook(event, string(out.Status))
		if resErr != nil {
			lg.Errorw("webhook handling failed", "user_id", userID, "err", resErr)
			return
		}
		lg.Infow("webhook handled", "user_id", userID, "status", out.Status, "reason", out.Reason)
	}()

	if u == nil {
		return out.ignore("no matching user"), nil
	}
	return h.apply(ctx, parser, u, out)
}

func (o *Outcome) ignore(reason string) *Outcome {
	o.Status = models.WebhookLogStatusIgnored
	o.Reason = reason
	return o
}

func (o *Outcome) handled() *Outcome {
	o.Status = models.WebhookLogStatusHandled
	return o
}

// resolveUser finds the user by the stored gateway subscription id, falling
// back to the userId the checkout put in the entity notes.
func (h *NotificationHandler) resolveUser(ctx context.Context, p NotificationParser) *models.User {
	lg := logctx.FromCtx(ctx, h.Logger)
	if subID := p.GetSubscriptionID(ctx); subID != "" {
		u, err := h.users.FindUserByGatewaySubscription(ctx, subID)
		if err == nil {
			return u
		}
		if !errors.Is(err, store.ErrNotFound) {
			lg.Warnw("user lookup by subscription failed", "subscription_id", subID, "err", err)
		}
	}
	id, err := p.GetUserID(ctx)
	if err != nil {
		return nil
	}
	u, err := h.users.GetUser(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			lg.Warnw("user lookup by notes failed", "user_id", id, "err", err)
		}
		return nil
	}
	return u
}

// apply runs the transition for the event. Subscription events only touch the
// user whose stored subscription they name; the notes fallback in resolveUser
// is for payment events.
func (h *NotificationHandler) apply(ctx context.Context, p NotificationParser, u *models.User, out *Outcome) (*Outcome, error) {
	if strings.HasPrefix(out.Event, "subscription.") {
		if subID := p.GetSubscriptionID(ctx); subID == "" || subID != lo.FromPtr(u.GatewaySubscriptionID) {
			return out.ignore("subscription is not the user's current one"), nil
		}
	}
	switch out.Event {
	case EventSubscriptionActivated, EventSubscriptionCharged, EventPaymentCaptured:
		pay := p.GetPayment(ctx)
		if pay == nil && u.SubscriptionStatus == types.SubscriptionStatusActive {
			return out.ignore("already active"), nil
		}
		req := subscription.ActivateRequest{
			Plan:                  h.planFor(ctx, p, u),
			GatewaySubscriptionID: p.GetSubscriptionID(ctx),
			Trigger:               subscription.TriggerWebhook,
		}
		if pay != nil {
			req.GatewayPaymentID, req.GatewayOrderID, req.Method = pay.ID, pay.OrderID, pay.Method
		}
		act, err := h.subSvc.Activate(ctx, u, req)
		if err != nil {
			return out, err
		}
		if act.Replayed {
			return out.ignore("payment already recorded"), nil
		}
		return out.handled(), nil
	case EventSubscriptionCancelled:
		if u.SubscriptionStatus == types.SubscriptionStatusCancelled {
			return out.ignore("already cancelled"), nil
		}
		if err := h.subSvc.MarkCancelled(ctx, u, subscription.TriggerWebhook); err != nil {
			return out, err
		}
		return out.handled(), nil
	case EventSubscriptionPaused:
		if err := h.subSvc.SetStatus(ctx, u, types.SubscriptionStatusPaused, subscription.TriggerWebhook); err != nil {
			return out, err
		}
		return out.handled(), nil
	case EventSubscriptionResumed:
		if err := h.subSvc.SetStatus(ctx, u, types.SubscriptionStatusActive, subscription.TriggerWebhook); err != nil {
			return out, err
		}
		return out.handled(), nil
	default:
		return out.ignore("unhandled event"), nil
	}
}

// planFor picks the plan to activate: the notes first, then the user's
// current plan, then monthly.
func (h *NotificationHandler) planFor(ctx context.Context, p NotificationParser, u *models.User) types.PlanID {
	if id := p.GetPlanID(ctx); id.Valid() {
		return id
	}
	if u.SubscriptionPlan != nil && u.SubscriptionPlan.Valid() {
		return *u.SubscriptionPlan
	}
	return types.PlanMonthly
}

var Module = fx.Options(
	fx.Provide(NewNotificationHandler),
)
