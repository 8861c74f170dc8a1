package subscription

import (
	"math"
	"time"

	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/pkg/types"
)

const day = 24 * time.Hour

// Gate decides whether premium content is reachable: active always passes,
// trial passes strictly before its end, everything else is denied.
func Gate(status types.SubscriptionStatus, trialEnd *time.Time, now time.Time) bool {
	switch status {
	case types.SubscriptionStatusActive:
		return true
	case types.SubscriptionStatusTrial:
		return trialEnd != nil && now.Before(*trialEnd)
	}
	return false
}

// HasAccess applies Gate to a user.
func HasAccess(u *models.User, now time.Time) bool {
	if u == nil {
		return false
	}
	return Gate(u.SubscriptionStatus, u.TrialEndDate, now)
}

// addMonths moves t by n calendar months keeping the time of day. Days past
// the end of the target month clamp to its last day.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// PlanEnd returns the end of a paid period that starts at start.
func PlanEnd(start time.Time, plan types.PlanID) time.Time {
	return addMonths(start, plan.Months())
}

// DaysRemaining is ceil((end-now)/24h) floored at zero.
func DaysRemaining(end *time.Time, now time.Time) int {
	if end == nil {
		return 0
	}
	left := end.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(float64(left) / float64(day)))
}

// Snapshot is the derived, never persisted, view of a user's subscription.
type Snapshot struct {
	SubscriptionStatus    types.SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionPlan      *types.PlanID            `json:"subscriptionPlan,omitempty"`
	TrialEndDate          *time.Time               `json:"trialEndDate,omitempty"`
	SubscriptionStartDate *time.Time               `json:"subscriptionStartDate,omitempty"`
	SubscriptionEndDate   *time.Time               `json:"subscriptionEndDate,omitempty"`
	GatewaySubscriptionID *string                  `json:"razorpaySubscriptionId,omitempty"`
	DaysRemaining         int                      `json:"daysRemaining"`
	IsExpired             bool                     `json:"isExpired"`
	NeedsSubscription     bool                     `json:"needsSubscription"`
	HasAccess             bool                     `json:"hasAccess"`
}

// SnapshotOf derives the subscription view of u at now. Only trial and active
// carry a window; every other status reports expired.
func SnapshotOf(u *models.User, now time.Time) *Snapshot {
	s := &Snapshot{
		SubscriptionStatus:    u.SubscriptionStatus,
		SubscriptionPlan:      u.SubscriptionPlan,
		TrialEndDate:          u.TrialEndDate,
		SubscriptionStartDate: u.SubscriptionStartDate,
		SubscriptionEndDate:   u.SubscriptionEndDate,
		GatewaySubscriptionID: u.GatewaySubscriptionID,
		HasAccess:             HasAccess(u, now),
	}
	switch u.SubscriptionStatus {
	case types.SubscriptionStatusTrial:
		s.DaysRemaining = DaysRemaining(u.TrialEndDate, now)
		s.IsExpired = s.DaysRemaining == 0
	case types.SubscriptionStatusActive:
		s.DaysRemaining = DaysRemaining(u.SubscriptionEndDate, now)
		s.IsExpired = s.DaysRemaining == 0
	default:
		s.IsExpired = true
	}
	s.NeedsSubscription = s.IsExpired
	return s
}

// StartTrial puts a new user into the trial state.
func StartTrial(u *models.User, now time.Time, length time.Duration) {
	end := now.Add(length)
	u.SubscriptionStatus = types.SubscriptionStatusTrial
	u.TrialStartDate = &now
	u.TrialEndDate = &end
}
