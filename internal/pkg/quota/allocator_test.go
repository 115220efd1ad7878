package quota

import (
	"testing"
	"time"

	"github.com/KerjaQuest/KerjaQuest/app/models"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedActiveSubscription(t *testing.T, repo *ledger.MemoryRepository, employerID uint, remaining int, renewsAt time.Time) uint {
	t.Helper()

	sub := &models.SubscriptionQuota{
		EmployerID:  employerID,
		Tier:        models.QuestTierMid,
		WeeklyQuota: 20,
		Remaining:   remaining,
		IsActive:    true,
		RenewsAt:    renewsAt,
	}
	require.NoError(t, repo.CreateSubscriptionQuota(sub))
	return sub.ID
}

func TestReserveSubscription(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	employerID := repo.SeedEmployer(models.Employer{UserID: 1})
	allocator := NewAllocator(repo)

	sub, pending, err := allocator.ReserveSubscription(1, employerID, "MID")
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusPending, pending.Status)
	assert.Equal(t, models.PaymentTypeQuestSubscription, pending.Type)
	assert.Equal(t, int64(250000), pending.Amount)

	assert.False(t, sub.IsActive)
	assert.Equal(t, 20, sub.WeeklyQuota)
	assert.Equal(t, 20, sub.Remaining)
	require.NotNil(t, sub.PaymentID)
	assert.Equal(t, pending.ID, *sub.PaymentID)
}

func TestReserveSubscriptionInvalidTier(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	employerID := repo.SeedEmployer(models.Employer{UserID: 1})
	allocator := NewAllocator(repo)

	_, _, err := allocator.ReserveSubscription(1, employerID, "ULTRA")
	assert.ErrorIs(t, err, ErrInvalidTier)
}

func TestReserveSubscriptionRejectsSecondActive(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	employerID := repo.SeedEmployer(models.Employer{UserID: 1})
	seedActiveSubscription(t, repo, employerID, 20, time.Now().Add(14*24*time.Hour))
	allocator := NewAllocator(repo)

	_, _, err := allocator.ReserveSubscription(1, employerID, "ENTRY")
	assert.ErrorIs(t, err, ErrActiveSubscriptionExists)
}

func TestReserveOneTimeQuota(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	employerID := repo.SeedEmployer(models.Employer{UserID: 1})
	allocator := NewAllocator(repo)

	quotaRow, pending, err := allocator.ReserveOneTimeQuota(1, employerID, 4)
	require.NoError(t, err)

	assert.Equal(t, int64(60000), pending.Amount)
	assert.Equal(t, models.PaymentTypeQuestQuota, pending.Type)
	assert.Equal(t, 4, quotaRow.Remaining)
	assert.False(t, quotaRow.IsActive)

	// The aggregate balance is untouched until the payment settles.
	employer, _ := repo.Employer(employerID)
	assert.Equal(t, 0, employer.OnetimeQuota)
}

func TestReserveOneTimeQuotaInvalidQuantity(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	employerID := repo.SeedEmployer(models.Employer{UserID: 1})
	allocator := NewAllocator(repo)

	for _, quantity := range []int{0, -3} {
		_, _, err := allocator.ReserveOneTimeQuota(1, employerID, quantity)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
}

func TestReserveJobPosting(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	employerID := repo.SeedEmployer(models.Employer{UserID: 1})
	allocator := NewAllocator(repo)

	job := &models.Job{EmployerID: employerID, Title: "Kurir", Salary: 3000000, JobType: models.JobTypeFullTime}
	pending, err := allocator.ReserveJobPosting(1, job)
	require.NoError(t, err)

	assert.Equal(t, int64(JobPostingFee), pending.Amount)
	assert.Equal(t, models.JobStatusUnpaid, job.Status)
	require.NotNil(t, job.PaymentID)
	assert.Equal(t, pending.ID, *job.PaymentID)
}

func TestChargeQuestCreationFromSubscription(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	employerID := repo.SeedEmployer(models.Employer{UserID: 1})
	subID := seedActiveSubscription(t, repo, employerID, 5, time.Now().Add(14*24*time.Hour))
	allocator := NewAllocator(repo)

	quest := &models.Quest{Title: "Desain logo", Description: "x", Tier: models.QuestTierEntry}
	err := allocator.ChargeQuestCreation(employerID, models.QuotaSourceSubscription, quest)
	require.NoError(t, err)

	sub, _ := repo.Subscription(subID)
	assert.Equal(t, 4, sub.Remaining)
	assert.Equal(t, 1, repo.QuestCount())
	require.NotNil(t, quest.UsedSubscriptionQuotaID)
	assert.Equal(t, subID, *quest.UsedSubscriptionQuotaID)
}

func TestChargeQuestCreationNoActiveSubscription(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	employerID := repo.SeedEmployer(models.Employer{UserID: 1})
	allocator := NewAllocator(repo)

	quest := &models.Quest{Title: "Desain logo", Description: "x", Tier: models.QuestTierEntry}
	err := allocator.ChargeQuestCreation(employerID, models.QuotaSourceSubscription, quest)
	assert.ErrorIs(t, err, ErrNoActiveSubscription)
	assert.Equal(t, 0, repo.QuestCount())
}

func TestChargeQuestCreationExhaustedQuota(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	employerID := repo.SeedEmployer(models.Employer{UserID: 1})
	subID := seedActiveSubscription(t, repo, employerID, 0, time.Now().Add(14*24*time.Hour))
	allocator := NewAllocator(repo)

	quest := &models.Quest{Title: "Desain logo", Description: "x", Tier: models.QuestTierEntry}
	err := allocator.ChargeQuestCreation(employerID, models.QuotaSourceSubscription, quest)
	assert.ErrorIs(t, err, ErrQuotaExhausted)
	assert.Equal(t, 0, repo.QuestCount())

	// Still active: exhaustion is not expiry.
	sub, _ := repo.Subscription(subID)
	assert.True(t, sub.IsActive)
}

func TestChargeQuestCreationExpiredSubscriptionIsDeactivated(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	employerID := repo.SeedEmployer(models.Employer{UserID: 1})
	subID := seedActiveSubscription(t, repo, employerID, 5, time.Now().Add(-time.Hour))
	allocator := NewAllocator(repo)

	quest := &models.Quest{Title: "Desain logo", Description: "x", Tier: models.QuestTierEntry}
	err := allocator.ChargeQuestCreation(employerID, models.QuotaSourceSubscription, quest)
	assert.ErrorIs(t, err, ErrSubscriptionExpired)

	// The charge rolled back but the expiry flag must stick.
	sub, _ := repo.Subscription(subID)
	assert.False(t, sub.IsActive)
	assert.Equal(t, 5, sub.Remaining)
	assert.Equal(t, 0, repo.QuestCount())
}

func TestChargeQuestCreationFromOneTimeBalance(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	employerID := repo.SeedEmployer(models.Employer{UserID: 1, OnetimeQuota: 3})
	allocator := NewAllocator(repo)

	quest := &models.Quest{Title: "Desain logo", Description: "x", Tier: models.QuestTierEntry}
	err := allocator.ChargeQuestCreation(employerID, models.QuotaSourceOneTime, quest)
	require.NoError(t, err)

	employer, _ := repo.Employer(employerID)
	assert.Equal(t, 2, employer.OnetimeQuota)
	assert.Equal(t, 1, repo.QuestCount())
}

func TestChargeQuestCreationInsufficientBalance(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	employerID := repo.SeedEmployer(models.Employer{UserID: 1, OnetimeQuota: 0})
	allocator := NewAllocator(repo)

	quest := &models.Quest{Title: "Desain logo", Description: "x", Tier: models.QuestTierEntry}
	err := allocator.ChargeQuestCreation(employerID, models.QuotaSourceOneTime, quest)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	employer, _ := repo.Employer(employerID)
	assert.Equal(t, 0, employer.OnetimeQuota)
	assert.Equal(t, 0, repo.QuestCount())
}

func TestChargeQuestCreationInvalidSource(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	employerID := repo.SeedEmployer(models.Employer{UserID: 1})
	allocator := NewAllocator(repo)

	quest := &models.Quest{Title: "Desain logo", Description: "x", Tier: models.QuestTierEntry}
	err := allocator.ChargeQuestCreation(employerID, "GIFT", quest)
	assert.ErrorIs(t, err, ErrInvalidQuotaSource)
}

func TestChargeQuestCreationRollsBackOnFailure(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	allocator := NewAllocator(repo)

	// Charging a missing employer fails inside the transaction; nothing
	// may leak out of it.
	quest := &models.Quest{Title: "Desain logo", Description: "x", Tier: models.QuestTierEntry}
	err := allocator.ChargeQuestCreation(999, models.QuotaSourceOneTime, quest)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.Equal(t, 0, repo.QuestCount())
}
