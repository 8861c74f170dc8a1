package types

type SubscriptionStatus string

const (
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionStatusTrial, SubscriptionStatusActive, SubscriptionStatusExpired,
		SubscriptionStatusCancelled, SubscriptionStatusPaused:
		return true
	}
	return false
}

type PlanID string

const (
	PlanMonthly   PlanID = "monthly"
	PlanQuarterly PlanID = "quarterly"
	PlanYearly    PlanID = "yearly"
)

func (p PlanID) Valid() bool {
	return p == PlanMonthly || p == PlanQuarterly || p == PlanYearly
}

// Months is the calendar length of the plan.
func (p PlanID) Months() int {
	switch p {
	case PlanMonthly:
		return 1
	case PlanQuarterly:
		return 3
	case PlanYearly:
		return 12
	}
	return 0
}

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Grade bounds. Students register for 6-10 while profile updates accept 5-10;
// content is authored for 6-10.
const (
	MinGrade        = 5
	MinContentGrade = 6
	MaxGrade        = 10
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func (d Difficulty) Valid() bool {
	return d == DifficultyBeginner || d == DifficultyIntermediate || d == DifficultyAdvanced
}
