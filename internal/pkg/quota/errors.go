package quota

import "errors"

var (
	// ErrActiveSubscriptionExists rejects a subscription purchase while an
	// earlier one is still active for the employer.
	ErrActiveSubscriptionExists = errors.New("quota: employer already has an active subscription")

	ErrInvalidTier        = errors.New("quota: unknown subscription tier")
	ErrInvalidQuantity    = errors.New("quota: quantity must be at least 1")
	ErrInvalidQuotaSource = errors.New("quota: quota source must be SUBSCRIPTION or ONE_TIME")

	ErrNoActiveSubscription = errors.New("quota: no active subscription")
	ErrSubscriptionExpired  = errors.New("quota: subscription has expired")
	ErrQuotaExhausted       = errors.New("quota: weekly quota exhausted")
	ErrInsufficientBalance  = errors.New("quota: no one-time quota balance")
)
