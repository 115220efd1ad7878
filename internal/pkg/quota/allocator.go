package quota

import (
	"errors"
	"time"

	"github.com/KerjaQuest/KerjaQuest/app/models"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/ledger"
	"github.com/gofiber/fiber/v2/log"
)

// Allocator reserves and consumes quota. Reservations create the resource
// together with its PENDING payment in one transaction; consumption couples
// the quota charge with the quest row so neither exists without the other.
type Allocator struct {
	repo ledger.Repository
}

// NewAllocator creates an allocator over the given ledger.
func NewAllocator(repo ledger.Repository) *Allocator {
	return &Allocator{repo: repo}
}

// ReserveSubscription creates an inactive SubscriptionQuota plus its PENDING
// payment. It fails with ErrActiveSubscriptionExists while the employer
// still has an active subscription.
func (a *Allocator) ReserveSubscription(userID, employerID uint, tier string) (*models.SubscriptionQuota, *models.Payment, error) {
	canonical, plan, ok := PlanForTier(tier)
	if !ok {
		return nil, nil, ErrInvalidTier
	}

	var (
		sub     *models.SubscriptionQuota
		payment *models.Payment
	)
	err := a.repo.Transact(func(tx ledger.Repository) error {
		_, err := tx.ActiveSubscriptionForEmployer(employerID)
		if err == nil {
			return ErrActiveSubscriptionExists
		}
		if !errors.Is(err, ledger.ErrNotFound) {
			return err
		}

		payment = &models.Payment{
			UserID: userID,
			Amount: plan.Price,
			Type:   models.PaymentTypeQuestSubscription,
			Status: models.PaymentStatusPending,
		}
		if err := tx.CreatePayment(payment); err != nil {
			return err
		}

		sub = &models.SubscriptionQuota{
			EmployerID:  employerID,
			PaymentID:   &payment.ID,
			Tier:        canonical,
			WeeklyQuota: plan.WeeklyQuota,
			Remaining:   plan.WeeklyQuota,
			IsActive:    false,
			RenewsAt:    time.Now(), // placeholder until the payment settles
		}
		return tx.CreateSubscriptionQuota(sub)
	})
	if err != nil {
		return nil, nil, err
	}
	return sub, payment, nil
}

// ReserveOneTimeQuota creates a OneTimeQuota pre-loaded with the bought
// quantity plus its PENDING payment. The employer's aggregate balance is
// not touched here; it is credited only on payment SUCCESS.
func (a *Allocator) ReserveOneTimeQuota(userID, employerID uint, quantity int) (*models.OneTimeQuota, *models.Payment, error) {
	if quantity < 1 {
		return nil, nil, ErrInvalidQuantity
	}

	var (
		quotaRow *models.OneTimeQuota
		payment  *models.Payment
	)
	err := a.repo.Transact(func(tx ledger.Repository) error {
		payment = &models.Payment{
			UserID: userID,
			Amount: int64(quantity) * UnitQuotaPrice,
			Type:   models.PaymentTypeQuestQuota,
			Status: models.PaymentStatusPending,
		}
		if err := tx.CreatePayment(payment); err != nil {
			return err
		}

		quotaRow = &models.OneTimeQuota{
			EmployerID: employerID,
			PaymentID:  &payment.ID,
			Remaining:  quantity,
			IsActive:   false,
		}
		return tx.CreateOneTimeQuota(quotaRow)
	})
	if err != nil {
		return nil, nil, err
	}
	return quotaRow, payment, nil
}

// ReserveJobPosting creates job in UNPAID state together with its PENDING
// flat-fee payment. Job posts are fee-per-post; no quota is charged.
func (a *Allocator) ReserveJobPosting(userID uint, job *models.Job) (*models.Payment, error) {
	var payment *models.Payment
	err := a.repo.Transact(func(tx ledger.Repository) error {
		payment = &models.Payment{
			UserID: userID,
			Amount: JobPostingFee,
			Type:   models.PaymentTypeJobPost,
			Status: models.PaymentStatusPending,
		}
		if err := tx.CreatePayment(payment); err != nil {
			return err
		}

		job.Status = models.JobStatusUnpaid
		job.PaymentID = &payment.ID
		return tx.CreateJob(job)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// ChargeQuestCreation debits one quest credit from the chosen source and
// creates quest, all in one transaction. An expired subscription is
// deactivated even though the charge itself fails.
func (a *Allocator) ChargeQuestCreation(employerID uint, source string, quest *models.Quest) error {
	var expiredSubID uint

	err := a.repo.Transact(func(tx ledger.Repository) error {
		switch source {
		case models.QuotaSourceSubscription:
			sub, err := tx.ActiveSubscriptionForEmployer(employerID)
			if err != nil {
				if errors.Is(err, ledger.ErrNotFound) {
					return ErrNoActiveSubscription
				}
				return err
			}
			if sub.IsExpired(time.Now()) {
				expiredSubID = sub.ID
				return ErrSubscriptionExpired
			}
			if sub.Remaining <= 0 {
				return ErrQuotaExhausted
			}
			sub.Remaining--
			if err := tx.SaveSubscriptionQuota(sub); err != nil {
				return err
			}
			quest.UsedSubscriptionQuotaID = &sub.ID

		case models.QuotaSourceOneTime:
			employer, err := tx.EmployerForUpdate(employerID)
			if err != nil {
				return err
			}
			if employer.OnetimeQuota <= 0 {
				return ErrInsufficientBalance
			}
			if err := tx.AddEmployerOnetimeQuota(employerID, -1); err != nil {
				return err
			}

		default:
			return ErrInvalidQuotaSource
		}

		quest.EmployerID = employerID
		return tx.CreateQuest(quest)
	})

	// The expiry flag must stick even though the charge rolled back.
	if errors.Is(err, ErrSubscriptionExpired) && expiredSubID != 0 {
		if deactivateErr := a.deactivateSubscription(expiredSubID); deactivateErr != nil {
			log.Errorf("[Quota] Failed to deactivate expired subscription %d: %v", expiredSubID, deactivateErr)
		}
	}
	return err
}

func (a *Allocator) deactivateSubscription(id uint) error {
	return a.repo.Transact(func(tx ledger.Repository) error {
		sub, err := tx.SubscriptionForUpdate(id)
		if err != nil {
			return err
		}
		if !sub.IsActive {
			return nil
		}
		sub.IsActive = false
		return tx.SaveSubscriptionQuota(sub)
	})
}
