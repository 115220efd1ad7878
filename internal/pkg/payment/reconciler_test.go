package payment

import (
	"context"
	"testing"
	"time"

	"github.com/KerjaQuest/KerjaQuest/app/models"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSubscriptionPurchase(t *testing.T, repo *ledger.MemoryRepository) (paymentID, subID, employerID uint) {
	t.Helper()

	employerID = repo.SeedEmployer(models.Employer{UserID: 1})
	p := &models.Payment{UserID: 1, Amount: 250000, Type: models.PaymentTypeQuestSubscription}
	require.NoError(t, repo.CreatePayment(p))

	sub := &models.SubscriptionQuota{
		EmployerID:  employerID,
		PaymentID:   &p.ID,
		Tier:        models.QuestTierMid,
		WeeklyQuota: 20,
		Remaining:   20,
		RenewsAt:    time.Now(),
	}
	require.NoError(t, repo.CreateSubscriptionQuota(sub))
	return p.ID, sub.ID, employerID
}

func seedQuotaPurchase(t *testing.T, repo *ledger.MemoryRepository, quantity int) (paymentID, quotaID, employerID uint) {
	t.Helper()

	employerID = repo.SeedEmployer(models.Employer{UserID: 1})
	p := &models.Payment{UserID: 1, Amount: int64(quantity) * 15000, Type: models.PaymentTypeQuestQuota}
	require.NoError(t, repo.CreatePayment(p))

	q := &models.OneTimeQuota{EmployerID: employerID, PaymentID: &p.ID, Remaining: quantity}
	require.NoError(t, repo.CreateOneTimeQuota(q))
	return p.ID, q.ID, employerID
}

func seedJobPurchase(t *testing.T, repo *ledger.MemoryRepository) (paymentID, jobID uint) {
	t.Helper()

	employerID := repo.SeedEmployer(models.Employer{UserID: 1})
	p := &models.Payment{UserID: 1, Amount: 50000, Type: models.PaymentTypeJobPost}
	require.NoError(t, repo.CreatePayment(p))

	j := &models.Job{EmployerID: employerID, PaymentID: &p.ID, Title: "Barista", Status: models.JobStatusUnpaid}
	require.NoError(t, repo.CreateJob(j))
	return p.ID, j.ID
}

func notification(orderID, transactionStatus, fraudStatus string) Notification {
	return Notification{
		OrderID:           orderID,
		TransactionID:     "trx-" + orderID,
		TransactionStatus: transactionStatus,
		FraudStatus:       fraudStatus,
		PayloadJSON:       `{"order_id":"` + orderID + `"}`,
		SignatureValid:    true,
	}
}

func TestApplyNotificationActivatesSubscription(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	paymentID, subID, _ := seedSubscriptionPurchase(t, repo)
	rec := NewReconciler(repo)

	orderID := BuildOrderRef(models.PaymentTypeQuestSubscription, paymentID)
	before := time.Now()
	err := rec.ApplyNotification(context.Background(), notification(orderID, TransactionSettlement, ""))
	require.NoError(t, err)

	p, ok := repo.Payment(paymentID)
	require.True(t, ok)
	assert.Equal(t, models.PaymentStatusSuccess, p.Status)
	require.NotNil(t, p.PaidAt)

	sub, ok := repo.Subscription(subID)
	require.True(t, ok)
	assert.True(t, sub.IsActive)
	assert.WithinDuration(t, before.Add(SubscriptionTerm), sub.RenewsAt, 5*time.Second)
	require.NotNil(t, sub.ResetAt)
	assert.WithinDuration(t, before.Add(QuotaResetInterval), *sub.ResetAt, 5*time.Second)
}

func TestApplyNotificationFailedSubscriptionStaysInactive(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	paymentID, subID, _ := seedSubscriptionPurchase(t, repo)
	rec := NewReconciler(repo)

	orderID := BuildOrderRef(models.PaymentTypeQuestSubscription, paymentID)
	err := rec.ApplyNotification(context.Background(), notification(orderID, TransactionExpire, ""))
	require.NoError(t, err)

	p, _ := repo.Payment(paymentID)
	assert.Equal(t, models.PaymentStatusFailed, p.Status)
	assert.Nil(t, p.PaidAt)

	sub, _ := repo.Subscription(subID)
	assert.False(t, sub.IsActive)
}

func TestApplyNotificationCreditsOneTimeQuotaOnce(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	paymentID, quotaID, employerID := seedQuotaPurchase(t, repo, 5)
	rec := NewReconciler(repo)

	orderID := BuildOrderRef(models.PaymentTypeQuestQuota, paymentID)
	n := notification(orderID, TransactionCapture, FraudAccept)

	require.NoError(t, rec.ApplyNotification(context.Background(), n))

	employer, _ := repo.Employer(employerID)
	assert.Equal(t, 5, employer.OnetimeQuota)

	q, _ := repo.OneTimeQuotaRow(quotaID)
	assert.True(t, q.IsActive)

	// A re-delivered success notification must not credit again.
	require.NoError(t, rec.ApplyNotification(context.Background(), n))
	employer, _ = repo.Employer(employerID)
	assert.Equal(t, 5, employer.OnetimeQuota)
}

func TestApplyNotificationFailedQuotaVoidsCredits(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	paymentID, quotaID, employerID := seedQuotaPurchase(t, repo, 5)
	rec := NewReconciler(repo)

	orderID := BuildOrderRef(models.PaymentTypeQuestQuota, paymentID)
	err := rec.ApplyNotification(context.Background(), notification(orderID, TransactionDeny, ""))
	require.NoError(t, err)

	employer, _ := repo.Employer(employerID)
	assert.Equal(t, 0, employer.OnetimeQuota)

	q, _ := repo.OneTimeQuotaRow(quotaID)
	assert.Equal(t, 0, q.Remaining)
	assert.False(t, q.IsActive)
}

func TestApplyNotificationJobLifecycle(t *testing.T) {
	tests := []struct {
		name              string
		transactionStatus string
		expectedJobStatus string
	}{
		{"settlement opens the job", TransactionSettlement, models.JobStatusOpen},
		{"expire closes the job", TransactionExpire, models.JobStatusClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := ledger.NewMemoryRepository()
			paymentID, jobID := seedJobPurchase(t, repo)
			rec := NewReconciler(repo)

			orderID := BuildOrderRef(models.PaymentTypeJobPost, paymentID)
			err := rec.ApplyNotification(context.Background(), notification(orderID, tt.transactionStatus, ""))
			require.NoError(t, err)

			j, _ := repo.Job(jobID)
			assert.Equal(t, tt.expectedJobStatus, j.Status)
		})
	}
}

func TestApplyNotificationChallengedCaptureStaysPending(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	paymentID, subID, _ := seedSubscriptionPurchase(t, repo)
	rec := NewReconciler(repo)

	orderID := BuildOrderRef(models.PaymentTypeQuestSubscription, paymentID)
	err := rec.ApplyNotification(context.Background(), notification(orderID, TransactionCapture, FraudChallenge))
	require.NoError(t, err)

	p, _ := repo.Payment(paymentID)
	assert.Equal(t, models.PaymentStatusPending, p.Status)

	sub, _ := repo.Subscription(subID)
	assert.False(t, sub.IsActive)

	// The final accept can still settle it afterwards.
	err = rec.ApplyNotification(context.Background(), notification(orderID, TransactionCapture, FraudAccept))
	require.NoError(t, err)

	p, _ = repo.Payment(paymentID)
	assert.Equal(t, models.PaymentStatusSuccess, p.Status)
	sub, _ = repo.Subscription(subID)
	assert.True(t, sub.IsActive)
}

func TestApplyNotificationTerminalPaymentIsImmutable(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	paymentID, jobID := seedJobPurchase(t, repo)
	rec := NewReconciler(repo)

	orderID := BuildOrderRef(models.PaymentTypeJobPost, paymentID)
	require.NoError(t, rec.ApplyNotification(context.Background(), notification(orderID, TransactionSettlement, "")))

	// A late failure notification must not close an already opened job.
	require.NoError(t, rec.ApplyNotification(context.Background(), notification(orderID, TransactionExpire, "")))

	p, _ := repo.Payment(paymentID)
	assert.Equal(t, models.PaymentStatusSuccess, p.Status)
	j, _ := repo.Job(jobID)
	assert.Equal(t, models.JobStatusOpen, j.Status)
}

func TestApplyNotificationUnknownOrder(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	rec := NewReconciler(repo)

	err := rec.ApplyNotification(context.Background(), notification("JOBPOST-999-1", TransactionSettlement, ""))
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	err = rec.ApplyNotification(context.Background(), notification("garbage", TransactionSettlement, ""))
	assert.ErrorIs(t, err, ErrInvalidOrderRef)
}

func TestRecordNotificationDeduplicates(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	rec := NewReconciler(repo)
	ctx := context.Background()

	n := notification("SUBS-1-1", "pending", "")

	created, stored, err := rec.RecordNotification(ctx, n)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, stored)

	// Exact re-delivery is a duplicate.
	created, _, err = rec.RecordNotification(ctx, n)
	require.NoError(t, err)
	assert.False(t, created)

	// The same transaction progressing to a new status is a fresh event.
	n.TransactionStatus = TransactionSettlement
	created, _, err = rec.RecordNotification(ctx, n)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestMarkProcessedStoresError(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	rec := NewReconciler(repo)
	ctx := context.Background()

	_, stored, err := rec.RecordNotification(ctx, notification("SUBS-1-1", "pending", ""))
	require.NoError(t, err)

	require.NoError(t, rec.MarkProcessed(ctx, stored.ID, assert.AnError))
}

func TestRecordNotificationFraudResolutionIsFreshEvent(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	paymentID, subID, _ := seedSubscriptionPurchase(t, repo)
	rec := NewReconciler(repo)
	ctx := context.Background()

	orderID := BuildOrderRef(models.PaymentTypeQuestSubscription, paymentID)

	// Challenged capture arrives first and leaves the payment pending.
	challenged := notification(orderID, TransactionCapture, FraudChallenge)
	created, _, err := rec.RecordNotification(ctx, challenged)
	require.NoError(t, err)
	require.True(t, created)
	require.NoError(t, rec.ApplyNotification(ctx, challenged))

	p, _ := repo.Payment(paymentID)
	require.Equal(t, models.PaymentStatusPending, p.Status)

	// Midtrans resolves the challenge by re-notifying the same
	// transaction status with fraud accept. That must be stored as a
	// fresh event, not swallowed as a duplicate of the challenge.
	accepted := notification(orderID, TransactionCapture, FraudAccept)
	created, _, err = rec.RecordNotification(ctx, accepted)
	require.NoError(t, err)
	require.True(t, created)
	require.NoError(t, rec.ApplyNotification(ctx, accepted))

	p, _ = repo.Payment(paymentID)
	assert.Equal(t, models.PaymentStatusSuccess, p.Status)
	sub, _ := repo.Subscription(subID)
	assert.True(t, sub.IsActive)
}

func TestEventHandled(t *testing.T) {
	now := time.Now()

	assert.False(t, EventHandled(nil))
	assert.False(t, EventHandled(&models.PaymentWebhookEvent{}))
	assert.False(t, EventHandled(&models.PaymentWebhookEvent{ProcessedAt: &now, ProcessingError: "db offline"}))
	assert.True(t, EventHandled(&models.PaymentWebhookEvent{ProcessedAt: &now}))
}

func TestRetryAfterProcessingFailureReapplies(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	paymentID, jobID := seedJobPurchase(t, repo)
	rec := NewReconciler(repo)
	ctx := context.Background()

	orderID := BuildOrderRef(models.PaymentTypeJobPost, paymentID)
	n := notification(orderID, TransactionSettlement, "")

	// First delivery is stored but its application fails.
	created, stored, err := rec.RecordNotification(ctx, n)
	require.NoError(t, err)
	require.True(t, created)
	require.NoError(t, rec.MarkProcessed(ctx, stored.ID, assert.AnError))

	// The gateway retries the exact same notification. The event row
	// already exists, but it was not handled cleanly, so the retry must
	// be applied instead of skipped.
	created, stored, err = rec.RecordNotification(ctx, n)
	require.NoError(t, err)
	require.False(t, created)
	require.False(t, EventHandled(stored))

	require.NoError(t, rec.ApplyNotification(ctx, n))
	require.NoError(t, rec.MarkProcessed(ctx, stored.ID, nil))

	p, _ := repo.Payment(paymentID)
	assert.Equal(t, models.PaymentStatusSuccess, p.Status)
	j, _ := repo.Job(jobID)
	assert.Equal(t, models.JobStatusOpen, j.Status)

	// Once handled cleanly, the next re-delivery is a true duplicate.
	created, stored, err = rec.RecordNotification(ctx, n)
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, EventHandled(stored))
}

// failingLedger simulates a storage fault on job status writes while
// delegating everything else, inside transactions included.
type failingLedger struct {
	ledger.Repository
}

func (f *failingLedger) SetJobStatus(id uint, status string) error {
	return assert.AnError
}

func (f *failingLedger) Transact(fn func(ledger.Repository) error) error {
	return f.Repository.Transact(func(tx ledger.Repository) error {
		return fn(&failingLedger{Repository: tx})
	})
}

func TestApplyNotificationRollsBackOnSideEffectFailure(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	paymentID, jobID := seedJobPurchase(t, repo)
	rec := NewReconciler(&failingLedger{Repository: repo})

	orderID := BuildOrderRef(models.PaymentTypeJobPost, paymentID)
	err := rec.ApplyNotification(context.Background(), notification(orderID, TransactionSettlement, ""))
	require.ErrorIs(t, err, assert.AnError)

	// The payment status write happens before the job side effect, but
	// the rollback must take both back together.
	p, _ := repo.Payment(paymentID)
	assert.Equal(t, models.PaymentStatusPending, p.Status)
	assert.Nil(t, p.PaidAt)
	j, _ := repo.Job(jobID)
	assert.Equal(t, models.JobStatusUnpaid, j.Status)
}
