package models

import "time"

const (
	JobStatusUnpaid = "UNPAID"
	JobStatusOpen   = "OPEN"
	JobStatusClosed = "CLOSED"
)

const (
	JobTypeFullTime  = "FULL_TIME"
	JobTypePartTime  = "PART_TIME"
	JobTypeFreelance = "FREELANCE"
	JobTypeContract  = "CONTRACT"
)

// Job is a paid posting. It starts UNPAID and is opened or closed only by
// the outcome of its funding payment.
type Job struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	EmployerID    uint       `gorm:"not null;index" json:"employer_id"`
	Employer      *Employer  `gorm:"foreignKey:EmployerID" json:"employer,omitempty"`
	PaymentID     *uint      `gorm:"uniqueIndex" json:"payment_id,omitempty"`
	Title         string     `gorm:"type:varchar(200);not null" json:"title" validate:"required,min=3,max=200"`
	Description   string     `gorm:"type:text;not null" json:"description" validate:"required"`
	Location      string     `gorm:"type:varchar(150);not null" json:"location" validate:"required"`
	Latitude      float64    `gorm:"type:double;default:0" json:"latitude"`
	Longitude     float64    `gorm:"type:double;default:0" json:"longitude"`
	Salary        int64      `gorm:"not null" json:"salary" validate:"required,gt=0"`
	JobType       string     `gorm:"type:varchar(32);not null" json:"job_type" validate:"oneof=FULL_TIME PART_TIME FREELANCE CONTRACT"`
	MaxApplicants int        `gorm:"not null;default:50" json:"max_applicants"`
	Deadline      *time.Time `gorm:"type:timestamp;default:null" json:"deadline,omitempty"`
	Status        string     `gorm:"type:varchar(16);not null;default:'UNPAID';index" json:"status"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Coordinates exposes the posting location for distance sorting.
func (j Job) Coordinates() (float64, float64) {
	return j.Latitude, j.Longitude
}
