package models

import "time"

const (
	PaymentStatusPending = "PENDING"
	PaymentStatusSuccess = "SUCCESS"
	PaymentStatusFailed  = "FAILED"
)

const (
	PaymentTypeJobPost           = "JOB_POST"
	PaymentTypeQuestQuota        = "QUEST_QUOTA"
	PaymentTypeQuestSubscription = "QUEST_SUBSCRIPTION"
)

// Payment is the funding record for exactly one purchase. It is created
// PENDING together with the resource it funds and flipped to a terminal
// status exactly once by the reconciliation handler; re-delivery of a
// terminal gateway notification must not mutate it again.
type Payment struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	Amount     int64      `gorm:"not null" json:"amount"`
	Type       string     `gorm:"type:varchar(32);not null;index" json:"type"`
	Status     string     `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	SnapToken  string     `gorm:"type:varchar(191)" json:"snap_token,omitempty"`
	PaymentURL string     `gorm:"type:varchar(255)" json:"payment_url,omitempty"`
	PaidAt     *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Back-references to the single resource this payment funds. At most
	// one of these is ever non-nil, keyed by Type.
	Job          *Job               `gorm:"foreignKey:PaymentID" json:"job,omitempty"`
	Subscription *SubscriptionQuota `gorm:"foreignKey:PaymentID" json:"subscription,omitempty"`
	OneTimeQuota *OneTimeQuota      `gorm:"foreignKey:PaymentID" json:"one_time_quota,omitempty"`
}

// IsTerminal reports whether the payment already reached SUCCESS or FAILED.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusSuccess || p.Status == PaymentStatusFailed
}
