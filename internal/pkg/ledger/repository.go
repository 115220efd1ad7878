package ledger

import (
	"errors"

	"github.com/KerjaQuest/KerjaQuest/app/models"
)

// ErrNotFound is returned when a requested ledger record does not exist.
var ErrNotFound = errors.New("ledger: record not found")

// Repository is the durable read/write contract of the payment ledger.
// Every multi-row mutation in the engine runs through Transact so that a
// reservation, a reconciliation or a scheduler step either commits whole
// or not at all. Implementations must make the *ForUpdate reads lock the
// row for the rest of the transaction.
type Repository interface {
	// Transact runs fn against a transaction-scoped repository. If fn
	// returns an error the transaction is rolled back and the error is
	// returned unchanged.
	Transact(fn func(Repository) error) error

	CreatePayment(p *models.Payment) error
	// PaymentForUpdate loads a payment with the resource it funds and
	// locks the row.
	PaymentForUpdate(id uint) (*models.Payment, error)
	SavePayment(p *models.Payment) error
	SetPaymentCheckout(id uint, snapToken, paymentURL string) error

	CreateJob(j *models.Job) error
	SetJobStatus(id uint, status string) error

	CreateSubscriptionQuota(s *models.SubscriptionQuota) error
	// ActiveSubscriptionForEmployer returns the employer's single active
	// subscription, locked. ErrNotFound when none is active.
	ActiveSubscriptionForEmployer(employerID uint) (*models.SubscriptionQuota, error)
	SubscriptionForUpdate(id uint) (*models.SubscriptionQuota, error)
	SaveSubscriptionQuota(s *models.SubscriptionQuota) error
	// ActiveSubscriptionIDs lists ids of all active subscriptions for the
	// scheduler sweep. Snapshot only; each record is re-read under lock.
	ActiveSubscriptionIDs() ([]uint, error)

	CreateOneTimeQuota(q *models.OneTimeQuota) error
	SaveOneTimeQuota(q *models.OneTimeQuota) error

	EmployerForUpdate(id uint) (*models.Employer, error)
	// AddEmployerOnetimeQuota adjusts the employer's aggregate one-time
	// credit balance by delta (positive or negative).
	AddEmployerOnetimeQuota(employerID uint, delta int) error

	CreateQuest(q *models.Quest) error

	CreateWebhookEventIfNotExists(e *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}
