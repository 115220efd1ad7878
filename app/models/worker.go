package models

import "time"

type Worker struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Headline  string    `gorm:"type:varchar(200)" json:"headline"`
	Skills    string    `gorm:"type:text" json:"skills"`
	Location  string    `gorm:"type:varchar(150)" json:"location"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
