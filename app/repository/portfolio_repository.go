package repository

import (
	"github.com/KerjaQuest/KerjaQuest/app/models"
	"gorm.io/gorm"
)

// portfolioRepository implements the PortfolioRepository interface
type portfolioRepository struct {
	db *gorm.DB
}

// NewPortfolioRepository creates a new portfolio repository instance
func NewPortfolioRepository(db *gorm.DB) PortfolioRepository {
	return &portfolioRepository{db: db}
}

func (r *portfolioRepository) GetByID(id uint) (*models.Portfolio, error) {
	var item models.Portfolio
	err := r.db.
		Preload("Worker").
		Preload("Quest").
		Preload("Quest.Employer").
		Preload("Submission").
		First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *portfolioRepository) ListByUser(userID uint, page, limit int) ([]models.Portfolio, int64, error) {
	q := r.db.Model(&models.Portfolio{}).
		Joins("JOIN workers ON workers.id = portfolios.worker_id").
		Where("workers.user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit = normalizePage(page, limit)
	var items []models.Portfolio
	err := q.Preload("Quest").
		Preload("Submission").
		Order("portfolios.created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&items).Error
	return items, total, err
}
