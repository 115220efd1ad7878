package ledger

import (
	"errors"
	"time"

	"github.com/KerjaQuest/KerjaQuest/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transact(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *gormRepository) CreatePayment(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *gormRepository) PaymentForUpdate(id uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Job").Preload("Subscription").Preload("OneTimeQuota").
		First(&p, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *gormRepository) SavePayment(p *models.Payment) error {
	return r.db.Save(p).Error
}

func (r *gormRepository) SetPaymentCheckout(id uint, snapToken, paymentURL string) error {
	return r.db.Model(&models.Payment{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"snap_token":  snapToken,
			"payment_url": paymentURL,
		}).Error
}

func (r *gormRepository) CreateJob(j *models.Job) error {
	return r.db.Create(j).Error
}

func (r *gormRepository) SetJobStatus(id uint, status string) error {
	return r.db.Model(&models.Job{}).Where("id = ?", id).
		Update("status", status).Error
}

func (r *gormRepository) CreateSubscriptionQuota(s *models.SubscriptionQuota) error {
	return r.db.Create(s).Error
}

func (r *gormRepository) ActiveSubscriptionForEmployer(employerID uint) (*models.SubscriptionQuota, error) {
	var s models.SubscriptionQuota
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employer_id = ? AND is_active = ?", employerID, true).
		Order("created_at DESC").
		First(&s).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *gormRepository) SubscriptionForUpdate(id uint) (*models.SubscriptionQuota, error) {
	var s models.SubscriptionQuota
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *gormRepository) SaveSubscriptionQuota(s *models.SubscriptionQuota) error {
	return r.db.Save(s).Error
}

func (r *gormRepository) ActiveSubscriptionIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.SubscriptionQuota{}).
		Where("is_active = ?", true).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *gormRepository) CreateOneTimeQuota(q *models.OneTimeQuota) error {
	return r.db.Create(q).Error
}

func (r *gormRepository) SaveOneTimeQuota(q *models.OneTimeQuota) error {
	return r.db.Save(q).Error
}

func (r *gormRepository) EmployerForUpdate(id uint) (*models.Employer, error) {
	var e models.Employer
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&e, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (r *gormRepository) AddEmployerOnetimeQuota(employerID uint, delta int) error {
	return r.db.Model(&models.Employer{}).Where("id = ?", employerID).
		Update("onetime_quota", gorm.Expr("onetime_quota + ?", delta)).Error
}

func (r *gormRepository) CreateQuest(q *models.Quest) error {
	return r.db.Create(q).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, notFound(err)
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PaymentWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
