package quota

import "strings"

// Plan is a purchasable subscription tier.
type Plan struct {
	Price       int64
	WeeklyQuota int
	Name        string
}

// Pricing for quest credits and job postings, in IDR.
const (
	UnitQuotaPrice int64 = 15000
	JobPostingFee  int64 = 50000
)

var subscriptionPlans = map[string]Plan{
	"ENTRY": {Price: 100000, WeeklyQuota: 5, Name: "Entry Tier (5 Quest/Week)"},
	"MID":   {Price: 250000, WeeklyQuota: 20, Name: "Mid Tier (20 Quest/Week)"},
	"HIGH":  {Price: 750000, WeeklyQuota: 100, Name: "High Tier (100 Quest/Week)"},
}

// PlanForTier resolves a tier name to its plan. Tier matching is
// case-insensitive; the returned tier name is the canonical upper-case one.
func PlanForTier(tier string) (string, Plan, bool) {
	t := strings.ToUpper(strings.TrimSpace(tier))
	p, ok := subscriptionPlans[t]
	return t, p, ok
}

// Tiers lists the canonical tier names.
func Tiers() []string {
	return []string{"ENTRY", "MID", "HIGH"}
}
