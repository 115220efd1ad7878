package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Repositories bundles all repository instances
type Repositories struct {
	Job       JobRepository
	Quest     QuestRepository
	Portfolio PortfolioRepository
}

// NewRepositories creates all repositories backed by the given database
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Job:       NewJobRepository(db),
		Quest:     NewQuestRepository(db),
		Portfolio: NewPortfolioRepository(db),
	}
}

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetJobRepository returns the job repository instance
func (f *Factory) GetJobRepository() JobRepository {
	return f.GetRepositories().Job
}

// GetQuestRepository returns the quest repository instance
func (f *Factory) GetQuestRepository() QuestRepository {
	return f.GetRepositories().Quest
}

// GetPortfolioRepository returns the portfolio repository instance
func (f *Factory) GetPortfolioRepository() PortfolioRepository {
	return f.GetRepositories().Portfolio
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
