package repository

import (
	"github.com/KerjaQuest/KerjaQuest/app/models"
	"gorm.io/gorm"
)

// jobRepository implements the JobRepository interface
type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository instance
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) GetByID(id uint) (*models.Job, error) {
	var job models.Job
	err := r.db.Preload("Employer").First(&job, id).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListOpen returns paid, visible postings only; UNPAID and CLOSED jobs
// never surface in listings.
func (r *jobRepository) ListOpen(f JobFilter) ([]models.Job, int64, error) {
	q := r.db.Model(&models.Job{}).Where("status = ?", models.JobStatusOpen)

	if f.Search != "" {
		q = q.Where("title LIKE ?", "%"+f.Search+"%")
	}
	if f.Location != "" {
		q = q.Where("location LIKE ?", "%"+f.Location+"%")
	}
	if f.JobType != "" {
		q = q.Where("job_type = ?", f.JobType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit)
	var jobs []models.Job
	err := q.Preload("Employer").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&jobs).Error
	return jobs, total, err
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}
