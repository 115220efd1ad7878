package models

import "time"

const (
	SubmissionStatusInProgress = "IN_PROGRESS"
	SubmissionStatusCompleted  = "COMPLETED"
	SubmissionStatusOverdue    = "OVERDUE"
)

type QuestSubmission struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	QuestID     uint       `gorm:"not null;index:idx_quest_submissions_quest_worker,unique,priority:1" json:"quest_id"`
	Quest       *Quest     `gorm:"foreignKey:QuestID" json:"quest,omitempty"`
	WorkerID    uint       `gorm:"not null;index:idx_quest_submissions_quest_worker,unique,priority:2" json:"worker_id"`
	Worker      *Worker    `gorm:"foreignKey:WorkerID" json:"worker,omitempty"`
	Status      string     `gorm:"type:varchar(16);not null;default:'IN_PROGRESS'" json:"status"`
	FileURL     string     `gorm:"type:varchar(255)" json:"file_url,omitempty"`
	IsApproved  *bool      `gorm:"default:null" json:"is_approved,omitempty"`
	Rating      *int       `gorm:"default:null" json:"rating,omitempty"`
	Feedback    string     `gorm:"type:text" json:"feedback,omitempty"`
	SubmittedAt *time.Time `gorm:"type:timestamp;default:null" json:"submitted_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
