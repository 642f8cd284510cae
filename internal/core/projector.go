package core

import (
	"encoding/json"
	"time"

	"qreta-backend-go/internal/models"
)

// SubscriptionProjection is the user-facing view derived from the
// denormalized subscription snapshot on a user record.
type SubscriptionProjection struct {
	PlanLabel   string `json:"planLabel"`
	StatusLabel string `json:"statusLabel"`
	// RenewalDate is YYYY-MM-DD (UTC), empty unless the status is
	// active-like.
	RenewalDate string `json:"renewalDate,omitempty"`
	// IsBillingManaged is true iff a Stripe customer exists; it gates
	// whether "manage subscription" opens the portal or a fresh checkout.
	IsBillingManaged bool `json:"isBillingManaged"`
}

// ProjectSubscription derives the billing view shown to the user. The
// snapshot itself is eventually consistent: after a checkout or portal
// redirect this projection lags Stripe by the webhook's delivery latency,
// and no optimistic client-side write is permitted to paper over that.
func ProjectSubscription(sub models.Subscription) SubscriptionProjection {
	projection := SubscriptionProjection{
		PlanLabel:        sub.Plan.Label(),
		StatusLabel:      statusLabel(sub.Status),
		IsBillingManaged: sub.StripeCustomerID != "",
	}

	if sub.Status == models.SubscriptionStatusActive || sub.Status == models.SubscriptionStatusTrialing {
		if renewal, ok := normalizeRenewal(sub.RenewalAt); ok {
			projection.RenewalDate = renewal.UTC().Format("2006-01-02")
		}
	}
	return projection
}

func statusLabel(status string) string {
	switch status {
	case models.SubscriptionStatusActive:
		return "Active"
	case models.SubscriptionStatusTrialing:
		return "Trialing"
	case models.SubscriptionStatusPastDue:
		return "Past due"
	case models.SubscriptionStatusCanceled:
		return "Canceled"
	case "":
		return "Free"
	}
	return status
}

// normalizeRenewal accepts the renewal timestamp in every form the snapshot
// can carry: a structured time.Time from the server-side write path, raw
// epoch seconds from the cached client read path, or the decoded
// {seconds: N} map form. Epoch seconds are authoritative wall-clock time.
func normalizeRenewal(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case int64:
		return time.Unix(t, 0), t != 0
	case int:
		return time.Unix(int64(t), 0), t != 0
	case float64:
		return time.Unix(int64(t), 0), t != 0
	case json.Number:
		secs, err := t.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(secs, 0), secs != 0
	case map[string]interface{}:
		if secs, ok := t["seconds"]; ok {
			return normalizeRenewal(secs)
		}
	}
	return time.Time{}, false
}
