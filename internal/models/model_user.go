package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/brainac/backend/pkg/types"
)

type UserPreferences struct {
	Notifications bool   `json:"notifications"`
	EmailUpdates  bool   `json:"emailUpdates"`
	Language      string `json:"language"`
}

func DefaultPreferences() *UserPreferences {
	return &UserPreferences{Notifications: true, EmailUpdates: true, Language: "en"}
}

// User is the learner profile keyed by the identity provider's subject id.
// SubscriptionStatus selects which window (trial or paid) gates access.
type User struct {
	ID                    string                   `gorm:"column:id;type:varchar(128);primary_key" json:"uid"`
	Email                 string                   `gorm:"column:email;type:varchar(320);index" json:"email"`
	FirstName             string                   `gorm:"column:first_name;type:varchar(128)" json:"firstName"`
	LastName              string                   `gorm:"column:last_name;type:varchar(128)" json:"lastName"`
	DisplayName           string                   `gorm:"column:display_name;type:varchar(256)" json:"displayName"`
	Grade                 int                      `gorm:"column:grade;not null" json:"class"`
	Role                  types.Role               `gorm:"column:role;type:varchar(32);not null;default:student" json:"role"`
	SubscriptionStatus    types.SubscriptionStatus `gorm:"column:subscription_status;type:varchar(32);not null;index" json:"subscriptionStatus"`
	SubscriptionPlan      *types.PlanID            `gorm:"column:subscription_plan;type:varchar(32)" json:"subscriptionPlan,omitempty"`
	SubscriptionStartDate *time.Time               `gorm:"column:subscription_start_date" json:"subscriptionStartDate,omitempty"`
	SubscriptionEndDate   *time.Time               `gorm:"column:subscription_end_date;index" json:"subscriptionEndDate,omitempty"`
	TrialStartDate        *time.Time               `gorm:"column:trial_start_date" json:"trialStartDate,omitempty"`
	TrialEndDate          *time.Time               `gorm:"column:trial_end_date;index" json:"trialEndDate,omitempty"`
	GatewaySubscriptionID *string                  `gorm:"column:gateway_subscription_id;type:varchar(64);index" json:"razorpaySubscriptionId,omitempty"`
	CancelledAt           *time.Time               `gorm:"column:cancelled_at" json:"cancelledAt,omitempty"`
	EmailVerified         bool                     `gorm:"column:email_verified" json:"isEmailVerified"`

	Preferences datatypes.JSONType[*UserPreferences] `gorm:"column:preferences;type:jsonb;default:'{}'" json:"preferences"`
	CreatedAt   time.Time                            `json:"createdAt"`
	UpdatedAt   time.Time                            `json:"updatedAt"`

	// Synthetic marks the administrator built from an admin token; it is never persisted.
	Synthetic bool `gorm:"-" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == types.RoleAdmin
}

func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// CanAccessGrade reports whether the user may see content authored for grade.
func (u *User) CanAccessGrade(grade int) bool {
	return u.IsAdmin() || u.Grade == grade
}
