package models

import "time"

// Employer is the hiring side of the marketplace. OnetimeQuota is the
// aggregate balance of purchased quest credits; it is credited only when a
// QUEST_QUOTA payment settles, never at purchase time.
type Employer struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	User         *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CompanyName  string    `gorm:"type:varchar(150)" json:"company_name"`
	About        string    `gorm:"type:text" json:"about"`
	Location     string    `gorm:"type:varchar(150)" json:"location"`
	OnetimeQuota int       `gorm:"not null;default:0" json:"onetime_quota"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
