package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/brainac/backend/internal/app/service/subscription"
	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/internal/platform/paygateway"
	"github.com/brainac/backend/internal/store"
	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/logctx"
	"github.com/brainac/backend/pkg/types"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// adminStatuses are the values an administrator may set by hand.
var adminStatuses = []types.PaymentStatus{
	types.PaymentStatusCompleted,
	types.PaymentStatusPending,
	types.PaymentStatusFailed,
	types.PaymentStatusRefunded,
}

// rangeStart resolves a dashboard date range to its first instant.
// Unknown ranges and "all" mean no lower bound.
func rangeStart(r string, now time.Time) *time.Time {
	var start time.Time
	y, m, d := now.Date()
	switch r {
	case "today":
		start = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case "week":
		start = now.Add(-7 * 24 * time.Hour)
	case "month":
		start = time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	case "quarter":
		start = time.Date(y, ((m-1)/3)*3+1, 1, 0, 0, 0, 0, now.Location())
	default:
		return nil
	}
	return &start
}

func (s *Service) ListPayments(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	page := max(req.Page, 1)
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	limit = min(limit, maxPageLimit)

	q := store.PaymentQuery{
		Page:  store.Page{From: (page - 1) * limit, Size: limit},
		Since: rangeStart(req.DateRange, s.subs.Now()),
	}
	if req.Status != "" && req.Status != "all" {
		q.Statuses = []types.PaymentStatus{types.PaymentStatus(req.Status)}
	}
	if req.Method != "" && req.Method != "all" {
		q.Method = req.Method
	}

	var (
		items []*models.Payment
		total int64
		err   error
	)
	search := strings.ToLower(strings.TrimSpace(req.Search))
	if search == "" {
		items, total, err = s.repo.ListPayments(ctx, q)
		if err != nil {
			return nil, apperr.Internal(err, "Failed to fetch payments")
		}
		views := s.enrich(ctx, items)
		return &ListResponse{Payments: views, Pagination: paginate(page, limit, total)}, nil
	}

	// Searching covers the owner's name and email, so filter after enrichment.
	all := q
	all.Page = store.Page{}
	items, _, err = s.repo.ListPayments(ctx, all)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch payments")
	}
	views := lo.Filter(s.enrich(ctx, items), func(v *View, _ int) bool { return v.matches(search) })
	total = int64(len(views))
	views = lo.Subset(views, q.From, uint(limit))
	return &ListResponse{Payments: views, Pagination: paginate(page, limit, total)}, nil
}

func paginate(page, limit int, total int64) *Pagination {
	return &Pagination{
		CurrentPage: page,
		TotalPages:  int((total + int64(limit) - 1) / int64(limit)),
		TotalCount:  total,
		PerPage:     limit,
	}
}

func (v *View) matches(search string) bool {
	fields := []string{v.UserName, v.UserEmail, v.PlanName}
	if v.GatewayPaymentID != nil {
		fields = append(fields, *v.GatewayPaymentID)
	}
	return lo.SomeBy(fields, func(f string) bool { return strings.Contains(strings.ToLower(f), search) })
}

// enrich attaches owner and plan names, looking each user up once.
func (s *Service) enrich(ctx context.Context, items []*models.Payment) []*View {
	users := map[string]*models.User{}
	return lo.Map(items, func(p *models.Payment, _ int) *View {
		u, seen := users[p.UserID]
		if !seen {
			var err error
			u, err = s.repo.GetUser(ctx, p.UserID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				logctx.FromCtx(ctx, s.log).Warnw("payment owner lookup failed", "payment_id", p.ID, "err", err)
			}
			users[p.UserID] = u
		}
		return toView(p, u)
	})
}

func toView(p *models.Payment, u *models.User) *View {
	v := &View{Payment: p, UserName: "Unknown User", UserEmail: "unknown@email.com", PlanName: subscription.PlanName(p.PlanID)}
	if u != nil {
		v.UserName = u.FullName()
		v.UserEmail = u.Email
	}
	return v
}

func (s *Service) loadPayment(ctx context.Context, id string) (*models.Payment, error) {
	p, err := s.repo.GetPayment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Payment not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch payment details")
	}
	return p, nil
}

func (s *Service) GetPayment(ctx context.Context, id string) (*View, error) {
	p, err := s.loadPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, []*models.Payment{p})[0], nil
}

// UpdateStatus sets a payment status by hand. Refunded payments are final.
func (s *Service) UpdateStatus(ctx context.Context, id string, status types.PaymentStatus) error {
	if !lo.Contains(adminStatuses, status) {
		return apperr.Validation("Invalid payment status")
	}
	p, err := s.loadPayment(ctx, id)
	if err != nil {
		return err
	}
	if p.Status.Terminal() {
		return apperr.Validation("Refunded payments cannot be changed")
	}
	from := p.Status
	p.Status = status
	if status == types.PaymentStatusRefunded {
		p.RefundedAt = lo.ToPtr(s.subs.Now())
	}
	if err := s.repo.SavePayment(ctx, p); err != nil {
		return apperr.Internal(err, "Failed to update payment status")
	}
	logctx.FromCtx(ctx, s.log).Infow("payment status updated", "payment_id", id, "from", from, "to", status)
	return nil
}

// Refund refunds a payment in full at the gateway, when it has a gateway
// payment id, and marks it refunded. Without a configured gateway only the
// local record changes.
func (s *Service) Refund(ctx context.Context, id string, reason string) (*models.Payment, error) {
	p, err := s.loadPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status.Terminal() {
		return nil, apperr.Validation("Payment already refunded")
	}
	if reason == "" {
		reason = "Admin refund"
	}
	lg := logctx.FromCtx(ctx, s.log)
	if p.GatewayPaymentID != nil && *p.GatewayPaymentID != "" {
		r, err := s.gateway.Refund(ctx, *p.GatewayPaymentID, 0, map[string]string{"reason": reason, "paymentId": p.ID})
		switch {
		case errors.Is(err, paygateway.ErrUnavailable):
			lg.Warnw("gateway not configured, refunding locally", "payment_id", p.ID)
		case err != nil:
			return nil, paygateway.Classify(err, "Failed to refund payment")
		default:
			p.RefundID = r.ID
		}
	}
	p.Status = types.PaymentStatusRefunded
	p.RefundReason = reason
	p.RefundedAt = lo.ToPtr(s.subs.Now())
	if err := s.repo.SavePayment(ctx, p); err != nil {
		return nil, apperr.Internal(err, "Failed to refund payment")
	}
	lg.Infow("payment refunded", "payment_id", p.ID, "refund_id", p.RefundID)
	return p, nil
}
