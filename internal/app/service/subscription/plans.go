package subscription

import (
	"github.com/samber/lo"

	"github.com/brainac/backend/pkg/types"
)

// Plan is a purchasable catalog entry. Prices are in paise.
type Plan struct {
	ID            types.PlanID `json:"id"`
	Name          string       `json:"name"`
	Price         int64        `json:"price"`
	Currency      string       `json:"currency"`
	Duration      string       `json:"duration"`
	OriginalPrice int64        `json:"originalPrice"`
	Discount      string       `json:"discount"`
	Popular       bool         `json:"popular"`
	Features      []string     `json:"features"`
}

// BillingPeriod maps the plan onto the gateway's recurring period/interval.
func (p *Plan) BillingPeriod() (period string, interval int) {
	if p.ID == types.PlanYearly {
		return "yearly", 1
	}
	return "monthly", p.ID.Months()
}

var catalog = []*Plan{
	{
		ID: types.PlanMonthly, Name: "Monthly Plan", Price: 29900, Currency: "INR", Duration: "1 month",
		OriginalPrice: 39900, Discount: "25% OFF",
		Features: []string{"Access to all subjects", "HD video content", "Practice exercises", "Basic progress tracking", "Email support"},
	},
	{
		ID: types.PlanQuarterly, Name: "Quarterly Plan", Price: 79900, Currency: "INR", Duration: "3 months",
		OriginalPrice: 119700, Discount: "33% OFF", Popular: true,
		Features: []string{"Everything in Monthly", "Downloadable content", "Advanced analytics", "Priority support", "Study reminders", "Parent reports"},
	},
	{
		ID: types.PlanYearly, Name: "Yearly Plan", Price: 249900, Currency: "INR", Duration: "12 months",
		OriginalPrice: 478800, Discount: "48% OFF",
		Features: []string{"Everything in Quarterly", "Offline access", "1-on-1 doubt sessions", "Performance certificates", "Career guidance", "Free study materials"},
	},
}

// Plans returns the catalog in display order.
func Plans() []*Plan {
	return catalog
}

func PlanByID(id types.PlanID) (*Plan, bool) {
	return lo.Find(catalog, func(p *Plan) bool { return p.ID == id })
}

// PlanName returns the display name, or "Unknown Plan".
func PlanName(id types.PlanID) string {
	if p, ok := PlanByID(id); ok {
		return p.Name
	}
	return "Unknown Plan"
}
