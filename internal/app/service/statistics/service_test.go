package statistics

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/internal/store"
	"github.com/brainac/backend/pkg/types"
)

func seedUser(t *testing.T, mem *store.MemoryStore, id string, status types.SubscriptionStatus, created time.Time) {
	t.Helper()
	require.NoError(t, mem.CreateUser(context.Background(), &models.User{
		ID: id, Email: id + "@example.com", FirstName: "Stu", LastName: id,
		Grade: 7, Role: types.RoleStudent, SubscriptionStatus: status, CreatedAt: created,
	}))
}

func seedPayment(t *testing.T, mem *store.MemoryStore, id, userID string, status types.PaymentStatus, amount int64, created time.Time) {
	t.Helper()
	require.NoError(t, mem.CreatePayment(context.Background(), &models.Payment{
		ID: id, UserID: userID, PlanID: types.PlanMonthly, Amount: amount, Currency: "INR",
		Status: status, GatewayPaymentID: lo.ToPtr("pay_" + id), CreatedAt: created,
	}))
}

func TestGetDashboard(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	now := time.Now()
	longAgo := now.AddDate(-2, 0, 0)
	lastYear := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -11, 0).Add(time.Hour)

	seedUser(t, mem, "a", types.SubscriptionStatusActive, longAgo)
	seedUser(t, mem, "b", types.SubscriptionStatusTrial, now)
	seedUser(t, mem, "c", types.SubscriptionStatusExpired, longAgo)
	seedUser(t, mem, "d", types.SubscriptionStatusActive, longAgo)
	require.NoError(t, mem.CreateUser(ctx, &models.User{ID: "root", Role: types.RoleAdmin, CreatedAt: longAgo}))

	seedPayment(t, mem, "p1", "a", types.PaymentStatusCompleted, 29900, now)
	seedPayment(t, mem, "p2", "d", types.PaymentStatusCompleted, 249900, lastYear)
	seedPayment(t, mem, "p3", "a", types.PaymentStatusPending, 79900, now)
	seedPayment(t, mem, "p4", "ghost", types.PaymentStatusFailed, 29900, now)
	require.NoError(t, mem.CreateSubject(ctx, &models.Subject{ID: "s1", Name: "Science", Grade: 7}))
	require.NoError(t, mem.CreateVideo(ctx, &models.Video{ID: "v1", SubjectID: "s1", Grade: 7}))

	d, err := New(mem).GetDashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, d.TotalStudents, "admins are not students")
	assert.Equal(t, 2, d.ActiveSubscriptions)
	assert.Equal(t, 1, d.TrialUsers)
	assert.Equal(t, 1, d.ExpiredUsers)
	assert.Equal(t, UsersByStatus{Active: 2, Trial: 1, Expired: 1}, d.UsersByStatus)
	assert.Equal(t, 1, d.NewStudentsToday)
	assert.EqualValues(t, 29900+249900, d.TotalRevenue)
	assert.EqualValues(t, 29900, d.MonthlyRevenue)
	assert.EqualValues(t, 1, d.PaymentsPending)
	assert.EqualValues(t, 1, d.TotalVideos)
	assert.Equal(t, 1, d.TotalSubjects)

	require.Len(t, d.RecentTransactions, 4)
	assert.Equal(t, "p4", d.RecentTransactions[0].ID, "newest first")
	assert.Equal(t, "Unknown User", d.RecentTransactions[0].User)
	assert.Equal(t, "Stu a", d.RecentTransactions[1].User)

	require.Len(t, d.RevenueByMonth, trendMonths)
	assert.EqualValues(t, 249900, d.RevenueByMonth[0].Revenue)
	assert.EqualValues(t, 29900, d.RevenueByMonth[trendMonths-1].Revenue)
	assert.Equal(t, 1, d.RevenueByMonth[trendMonths-1].Subscriptions)
	assert.Equal(t, now.Format("Jan"), d.RevenueByMonth[trendMonths-1].Month)

	last := d.UserGrowthByMonth[trendMonths-1]
	assert.Equal(t, 1, last.NewUsers)
	assert.Equal(t, 2, last.ActiveUsers)
	assert.Equal(t, 1, last.TrialUsers)

	assert.Len(t, d.ActiveUsers, 4, "every seeded student was just written")
}

func TestGetDashboard_Empty(t *testing.T) {
	d, err := New(store.NewMemory()).GetDashboard(context.Background())
	require.NoError(t, err)
	assert.Zero(t, d.TotalStudents)
	assert.Empty(t, d.RecentTransactions)
	assert.Len(t, d.UserGrowthByMonth, trendMonths)
}
