package models

import "time"

// OneTimeQuota is a purchased batch of quest credits. Remaining is
// pre-loaded with the bought quantity at purchase time; a FAILED payment
// zeroes it, a SUCCESS payment activates it and credits the employer's
// aggregate OnetimeQuota balance.
type OneTimeQuota struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EmployerID uint      `gorm:"not null;index" json:"employer_id"`
	Employer   *Employer `gorm:"foreignKey:EmployerID" json:"employer,omitempty"`
	PaymentID  *uint     `gorm:"uniqueIndex" json:"payment_id,omitempty"`
	Remaining  int       `gorm:"not null;default:0" json:"remaining"`
	IsActive   bool      `gorm:"not null;default:false" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
