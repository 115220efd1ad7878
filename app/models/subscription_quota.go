package models

import "time"

// SubscriptionQuota is a weekly quest allowance bought as a subscription.
// Created inactive with a placeholder RenewsAt; activation (and the real
// RenewsAt/ResetAt) happens when the funding payment settles. The daily
// scheduler deactivates it after RenewsAt and refills Remaining at ResetAt.
// At most one active row exists per employer.
type SubscriptionQuota struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	EmployerID  uint       `gorm:"not null;index:idx_subscription_quotas_employer_active,priority:1" json:"employer_id"`
	Employer    *Employer  `gorm:"foreignKey:EmployerID" json:"employer,omitempty"`
	PaymentID   *uint      `gorm:"uniqueIndex" json:"payment_id,omitempty"`
	Tier        string     `gorm:"type:varchar(16);not null" json:"tier"`
	WeeklyQuota int        `gorm:"not null" json:"weekly_quota"`
	Remaining   int        `gorm:"not null;default:0" json:"remaining"`
	IsActive    bool       `gorm:"not null;default:false;index:idx_subscription_quotas_employer_active,priority:2" json:"is_active"`
	RenewsAt    time.Time  `gorm:"type:timestamp;not null" json:"renews_at"`
	ResetAt     *time.Time `gorm:"type:timestamp;default:null" json:"reset_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsExpired reports whether the subscription window has passed.
func (s *SubscriptionQuota) IsExpired(now time.Time) bool {
	return now.After(s.RenewsAt)
}

// NeedsRefill reports whether the weekly refill instant has been reached.
func (s *SubscriptionQuota) NeedsRefill(now time.Time) bool {
	return s.ResetAt != nil && !now.Before(*s.ResetAt)
}
