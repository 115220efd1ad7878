package models

import "time"

// Portfolio records approved quest work. One entry per submission, created
// when the employer approves it.
type Portfolio struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	WorkerID     uint             `gorm:"not null;index" json:"worker_id"`
	Worker       *Worker          `gorm:"foreignKey:WorkerID" json:"worker,omitempty"`
	QuestID      uint             `gorm:"not null;index" json:"quest_id"`
	Quest        *Quest           `gorm:"foreignKey:QuestID" json:"quest,omitempty"`
	SubmissionID uint             `gorm:"not null;uniqueIndex" json:"submission_id"`
	Submission   *QuestSubmission `gorm:"foreignKey:SubmissionID" json:"submission,omitempty"`
	Points       int              `gorm:"not null;default:10" json:"points"`
	CreatedAt    time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}
