package models

import "time"

const (
	ApplicationStatusPending  = "PENDING"
	ApplicationStatusAccepted = "ACCEPTED"
	ApplicationStatusRejected = "REJECTED"
)

type Application struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JobID     uint      `gorm:"not null;index:idx_applications_job_worker,unique,priority:1" json:"job_id"`
	Job       *Job      `gorm:"foreignKey:JobID" json:"job,omitempty"`
	WorkerID  uint      `gorm:"not null;index:idx_applications_job_worker,unique,priority:2" json:"worker_id"`
	Worker    *Worker   `gorm:"foreignKey:WorkerID" json:"worker,omitempty"`
	Status    string    `gorm:"type:varchar(16);not null;default:'PENDING'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
