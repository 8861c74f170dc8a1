// Package statistics computes the admin dashboard figures.
package statistics

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"

	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/internal/store"
	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/types"
)

const (
	recentLimit  = 5
	activeLimit  = 5
	trendMonths  = 12
	activeWindow = 24 * time.Hour
)

type UsersByStatus struct {
	Active    int `json:"active"`
	Trial     int `json:"trial"`
	Expired   int `json:"expired"`
	Cancelled int `json:"cancelled"`
	Paused    int `json:"paused"`
}

type RecentTransaction struct {
	ID        string              `json:"id"`
	User      string              `json:"user"`
	Email     string              `json:"email"`
	Plan      types.PlanID        `json:"plan"`
	Amount    int64               `json:"amount"`
	Status    types.PaymentStatus `json:"status"`
	Date      time.Time           `json:"date"`
	PaymentID *string             `json:"paymentId,omitempty"`
}

type ActiveUser struct {
	ID         string                   `json:"id"`
	Name       string                   `json:"name"`
	Email      string                   `json:"email"`
	Grade      int                      `json:"grade"`
	Status     types.SubscriptionStatus `json:"status"`
	LastActive time.Time                `json:"lastActive"`
	JoinDate   time.Time                `json:"joinDate"`
}

type MonthRevenue struct {
	Month         string `json:"month"`
	Revenue       int64  `json:"revenue"`
	Subscriptions int    `json:"subscriptions"`
}

type MonthGrowth struct {
	Month       string `json:"month"`
	NewUsers    int    `json:"newUsers"`
	ActiveUsers int    `json:"activeUsers"`
	TrialUsers  int    `json:"trialUsers"`
}

// Dashboard amounts are in the smallest currency unit.
type Dashboard struct {
	TotalStudents       int                  `json:"totalStudents"`
	ActiveSubscriptions int                  `json:"activeSubscriptions"`
	TrialUsers          int                  `json:"trialUsers"`
	ExpiredUsers        int                  `json:"expiredUsers"`
	MonthlyRevenue      int64                `json:"monthlyRevenue"`
	TotalRevenue        int64                `json:"totalRevenue"`
	TotalVideos         int64                `json:"totalVideos"`
	TotalSubjects       int                  `json:"totalSubjects"`
	NewStudentsToday    int                  `json:"newStudentsToday"`
	PaymentsPending     int64                `json:"paymentsPending"`
	RecentTransactions  []*RecentTransaction `json:"recentTransactions"`
	ActiveUsers         []*ActiveUser        `json:"activeUsers"`
	UsersByStatus       UsersByStatus        `json:"usersByStatus"`
	RevenueByMonth      []*MonthRevenue      `json:"revenueByMonth"`
	UserGrowthByMonth   []*MonthGrowth       `json:"userGrowthByMonth"`
}

// Service provides statistics operations
type Service struct {
	repo store.Store
	now  func() time.Time
}

func New(repo store.Store) *Service { return &Service{repo: repo, now: time.Now} }

var completed = []types.PaymentStatus{types.PaymentStatusCompleted}

// GetDashboard gathers every dashboard figure, querying the store concurrently.
func (s *Service) GetDashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	trendStart := monthStart.AddDate(0, -(trendMonths - 1), 0)

	var (
		d        Dashboard
		users    []*models.User
		recent   []*models.Payment
		trend    []*models.Payment
		subjects []*models.Subject
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, _, err = s.repo.ListUsers(gctx, store.UserQuery{})
		return wrap(err, "users")
	})
	g.Go(func() (err error) {
		d.TotalRevenue, err = s.repo.SumPayments(gctx, store.PaymentQuery{Statuses: completed})
		return wrap(err, "total revenue")
	})
	g.Go(func() (err error) {
		d.MonthlyRevenue, err = s.repo.SumPayments(gctx, store.PaymentQuery{Statuses: completed, Since: &monthStart})
		return wrap(err, "monthly revenue")
	})
	g.Go(func() (err error) {
		q := store.PaymentQuery{Page: store.Page{Size: 1}, Statuses: []types.PaymentStatus{types.PaymentStatusPending}}
		_, d.PaymentsPending, err = s.repo.ListPayments(gctx, q)
		return wrap(err, "pending payments")
	})
	g.Go(func() (err error) {
		recent, _, err = s.repo.ListPayments(gctx, store.PaymentQuery{Page: store.Page{Size: recentLimit}})
		return wrap(err, "recent payments")
	})
	g.Go(func() (err error) {
		trend, _, err = s.repo.ListPayments(gctx, store.PaymentQuery{Statuses: completed, Since: &trendStart})
		return wrap(err, "revenue trend")
	})
	g.Go(func() (err error) {
		d.TotalVideos, err = s.repo.CountVideos(gctx, store.VideoQuery{})
		return wrap(err, "videos")
	})
	g.Go(func() (err error) {
		subjects, err = s.repo.ListSubjects(gctx, 0)
		return wrap(err, "subjects")
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal(err, "Failed to fetch dashboard stats")
	}

	students := lo.Filter(users, func(u *models.User, _ int) bool { return !u.IsAdmin() })
	d.TotalSubjects = len(subjects)
	d.TotalStudents = len(students)
	d.UsersByStatus = countByStatus(students)
	d.ActiveSubscriptions = d.UsersByStatus.Active
	d.TrialUsers = d.UsersByStatus.Trial
	d.ExpiredUsers = d.UsersByStatus.Expired
	d.NewStudentsToday = lo.CountBy(students, func(u *models.User) bool { return u.CreatedAt.After(now.Add(-activeWindow)) })
	d.ActiveUsers = activeUsers(students, now)
	d.RecentTransactions = recentTransactions(recent, lo.KeyBy(users, func(u *models.User) string { return u.ID }))
	d.RevenueByMonth, d.UserGrowthByMonth = monthlyTrends(trend, students, trendStart)
	return &d, nil
}

func wrap(err error, what string) error {
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", what, err)
	}
	return nil
}

func countByStatus(users []*models.User) UsersByStatus {
	var c UsersByStatus
	for _, u := range users {
		switch u.SubscriptionStatus {
		case types.SubscriptionStatusActive:
			c.Active++
		case types.SubscriptionStatusTrial:
			c.Trial++
		case types.SubscriptionStatusExpired:
			c.Expired++
		case types.SubscriptionStatusCancelled:
			c.Cancelled++
		case types.SubscriptionStatusPaused:
			c.Paused++
		}
	}
	return c
}

// activeUsers lists students touched within the last day, most recent first.
func activeUsers(users []*models.User, now time.Time) []*ActiveUser {
	recent := lo.Filter(users, func(u *models.User, _ int) bool { return u.UpdatedAt.After(now.Add(-activeWindow)) })
	slices.SortStableFunc(recent, func(a, b *models.User) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return lo.Map(lo.Subset(recent, 0, activeLimit), func(u *models.User, _ int) *ActiveUser {
		return &ActiveUser{
			ID:         u.ID,
			Name:       u.FullName(),
			Email:      u.Email,
			Grade:      u.Grade,
			Status:     u.SubscriptionStatus,
			LastActive: u.UpdatedAt,
			JoinDate:   u.CreatedAt,
		}
	})
}

func recentTransactions(payments []*models.Payment, users map[string]*models.User) []*RecentTransaction {
	return lo.Map(payments, func(p *models.Payment, _ int) *RecentTransaction {
		t := &RecentTransaction{
			ID:        p.ID,
			User:      "Unknown User",
			Email:     "unknown@email.com",
			Plan:      p.PlanID,
			Amount:    p.Amount,
			Status:    p.Status,
			Date:      p.CreatedAt,
			PaymentID: p.GatewayPaymentID,
		}
		if u, ok := users[p.UserID]; ok {
			t.User, t.Email = u.FullName(), u.Email
		}
		return t
	})
}

// monthlyTrends buckets completed payments and sign-ups into the calendar
// months starting at from. Active and trial counts are cumulative by join
// date against the current status.
func monthlyTrends(payments []*models.Payment, users []*models.User, from time.Time) ([]*MonthRevenue, []*MonthGrowth) {
	revenue := make([]*MonthRevenue, 0, trendMonths)
	growth := make([]*MonthGrowth, 0, trendMonths)
	for i := range trendMonths {
		start := from.AddDate(0, i, 0)
		end := start.AddDate(0, 1, 0)
		in := func(t time.Time) bool { return !t.Before(start) && t.Before(end) }

		paid := lo.Filter(payments, func(p *models.Payment, _ int) bool { return in(p.CreatedAt) })
		revenue = append(revenue, &MonthRevenue{
			Month:         start.Format("Jan"),
			Revenue:       lo.SumBy(paid, func(p *models.Payment) int64 { return p.Amount }),
			Subscriptions: len(paid),
		})

		joined := func(status types.SubscriptionStatus) int {
			return lo.CountBy(users, func(u *models.User) bool { return u.CreatedAt.Before(end) && u.SubscriptionStatus == status })
		}
		growth = append(growth, &MonthGrowth{
			Month:       start.Format("Jan"),
			NewUsers:    lo.CountBy(users, func(u *models.User) bool { return in(u.CreatedAt) }),
			ActiveUsers: joined(types.SubscriptionStatusActive),
			TrialUsers:  joined(types.SubscriptionStatusTrial),
		})
	}
	return revenue, growth
}

var Module = fx.Options(
	fx.Provide(New),
)
