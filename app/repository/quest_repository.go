package repository

import (
	"time"

	"github.com/KerjaQuest/KerjaQuest/app/models"
	"gorm.io/gorm"
)

// questRepository implements the QuestRepository interface
type questRepository struct {
	db *gorm.DB
}

// NewQuestRepository creates a new quest repository instance
func NewQuestRepository(db *gorm.DB) QuestRepository {
	return &questRepository{db: db}
}

func (r *questRepository) GetByID(id uint) (*models.Quest, error) {
	var quest models.Quest
	err := r.db.Preload("Employer").Preload("Employer.User").First(&quest, id).Error
	if err != nil {
		return nil, err
	}
	return &quest, nil
}

func (r *questRepository) ListCurrent(f QuestFilter) ([]models.Quest, int64, error) {
	q := r.db.Model(&models.Quest{}).
		Where("deadline > ? OR deadline IS NULL", time.Now())

	if f.Search != "" {
		q = q.Where("title LIKE ?", "%"+f.Search+"%")
	}
	if f.Tier != "" {
		q = q.Where("tier = ?", f.Tier)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit)
	var quests []models.Quest
	err := q.Preload("Employer").Preload("Employer.User").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&quests).Error
	return quests, total, err
}

func (r *questRepository) CountSubmissions(questID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.QuestSubmission{}).Where("quest_id = ?", questID).Count(&count).Error
	return count, err
}
