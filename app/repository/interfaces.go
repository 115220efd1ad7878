package repository

import "github.com/KerjaQuest/KerjaQuest/app/models"

// JobFilter narrows job listings.
type JobFilter struct {
	Search   string
	Location string
	JobType  string
	Page     int
	Limit    int
}

// QuestFilter narrows quest listings.
type QuestFilter struct {
	Search string
	Tier   string
	Page   int
	Limit  int
}

// JobRepository defines the read surface for job listings.
type JobRepository interface {
	GetByID(id uint) (*models.Job, error)
	// ListOpen returns OPEN jobs matching the filter plus the unpaged total.
	ListOpen(f JobFilter) ([]models.Job, int64, error)
}

// QuestRepository defines the read surface for quest listings.
type QuestRepository interface {
	GetByID(id uint) (*models.Quest, error)
	// ListCurrent returns quests whose deadline has not passed, newest
	// first, plus the unpaged total.
	ListCurrent(f QuestFilter) ([]models.Quest, int64, error)
	CountSubmissions(questID uint) (int64, error)
}

// PortfolioRepository defines the read surface for worker portfolios.
type PortfolioRepository interface {
	GetByID(id uint) (*models.Portfolio, error)
	ListByUser(userID uint, page, limit int) ([]models.Portfolio, int64, error)
}
