package models

// Plan is the canonical subscription plan enumeration.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanStarter Plan = "starter"
	PlanPro     Plan = "pro"
)

// StoreQuotaUnlimited marks a plan without a store cap.
const StoreQuotaUnlimited = -1

// StoreQuota returns the number of stores the plan permits a user to own.
// Unknown plans fall back to the free quota rather than granting more.
func (p Plan) StoreQuota() int {
	switch p {
	case PlanStarter:
		return 3
	case PlanPro:
		return StoreQuotaUnlimited
	default:
		return 1
	}
}

// Label returns the human-readable plan name for user-facing messages.
func (p Plan) Label() string {
	switch p {
	case PlanStarter:
		return "Starter"
	case PlanPro:
		return "Pro"
	default:
		return "Free"
	}
}

// Valid reports whether p is one of the known plans.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanStarter, PlanPro:
		return true
	}
	return false
}
