package models

import "time"

const (
	QuestTierEntry = "ENTRY"
	QuestTierMid   = "MID"
	QuestTierHigh  = "HIGH"
)

const (
	QuotaSourceSubscription = "SUBSCRIPTION"
	QuotaSourceOneTime      = "ONE_TIME"
)

// Quest is a micro-task charged against quota at creation time, unlike a
// Job which pays a flat posting fee.
type Quest struct {
	ID                      uint               `gorm:"primaryKey" json:"id"`
	EmployerID              uint               `gorm:"not null;index" json:"employer_id"`
	Employer                *Employer          `gorm:"foreignKey:EmployerID" json:"employer,omitempty"`
	Title                   string             `gorm:"type:varchar(200);not null" json:"title" validate:"required,min=3,max=200"`
	Description             string             `gorm:"type:text;not null" json:"description" validate:"required"`
	Tier                    string             `gorm:"type:varchar(16);not null;index" json:"tier" validate:"oneof=ENTRY MID HIGH"`
	MaxSubmissions          int                `gorm:"not null;default:10" json:"max_submissions"`
	Deadline                *time.Time         `gorm:"type:timestamp;default:null" json:"deadline,omitempty"`
	UsedSubscriptionQuotaID *uint              `gorm:"index" json:"used_subscription_quota_id,omitempty"`
	UsedSubscriptionQuota   *SubscriptionQuota `gorm:"foreignKey:UsedSubscriptionQuotaID" json:"-"`
	CreatedAt               time.Time          `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt               time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}
