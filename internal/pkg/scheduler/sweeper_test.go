package scheduler

import (
	"testing"
	"time"

	"github.com/KerjaQuest/KerjaQuest/app/models"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSubscription(t *testing.T, repo *ledger.MemoryRepository, employerID uint, remaining int, renewsAt time.Time, resetAt *time.Time) uint {
	t.Helper()

	sub := &models.SubscriptionQuota{
		EmployerID:  employerID,
		Tier:        models.QuestTierMid,
		WeeklyQuota: 20,
		Remaining:   remaining,
		IsActive:    true,
		RenewsAt:    renewsAt,
		ResetAt:     resetAt,
	}
	require.NoError(t, repo.CreateSubscriptionQuota(sub))
	return sub.ID
}

func TestSweepExpiresSubscriptionPastRenewal(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	now := time.Now()
	resetAt := now.Add(3 * 24 * time.Hour)
	subID := seedSubscription(t, repo, 1, 7, now.Add(-time.Hour), &resetAt)

	stats := NewSweeper(repo).Sweep(now)

	assert.Equal(t, SweepStats{Checked: 1, Expired: 1}, stats)

	sub, _ := repo.Subscription(subID)
	assert.False(t, sub.IsActive)
	assert.Equal(t, 0, sub.Remaining)
}

func TestSweepRefillsWeeklyQuota(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	now := time.Now()
	resetAt := now.Add(-time.Hour)
	subID := seedSubscription(t, repo, 1, 2, now.Add(14*24*time.Hour), &resetAt)

	stats := NewSweeper(repo).Sweep(now)

	assert.Equal(t, SweepStats{Checked: 1, Refilled: 1}, stats)

	sub, _ := repo.Subscription(subID)
	assert.True(t, sub.IsActive)
	assert.Equal(t, 20, sub.Remaining)
	require.NotNil(t, sub.ResetAt)
	assert.WithinDuration(t, resetAt.Add(7*24*time.Hour), *sub.ResetAt, time.Second)
}

func TestSweepExpiryWinsOverRefill(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	now := time.Now()
	// Both thresholds passed; the subscription must expire, not refill.
	resetAt := now.Add(-2 * time.Hour)
	subID := seedSubscription(t, repo, 2, 2, now.Add(-time.Hour), &resetAt)

	stats := NewSweeper(repo).Sweep(now)

	assert.Equal(t, SweepStats{Checked: 1, Expired: 1}, stats)

	sub, _ := repo.Subscription(subID)
	assert.False(t, sub.IsActive)
	assert.Equal(t, 0, sub.Remaining)
}

func TestSweepLeavesHealthySubscriptionAlone(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	now := time.Now()
	resetAt := now.Add(2 * 24 * time.Hour)
	subID := seedSubscription(t, repo, 1, 13, now.Add(14*24*time.Hour), &resetAt)

	stats := NewSweeper(repo).Sweep(now)

	assert.Equal(t, SweepStats{Checked: 1}, stats)

	sub, _ := repo.Subscription(subID)
	assert.True(t, sub.IsActive)
	assert.Equal(t, 13, sub.Remaining)
}

func TestSweepHandlesMixedBatch(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	now := time.Now()

	expiredReset := now.Add(24 * time.Hour)
	expiredID := seedSubscription(t, repo, 1, 5, now.Add(-24*time.Hour), &expiredReset)

	dueReset := now.Add(-time.Minute)
	dueID := seedSubscription(t, repo, 2, 0, now.Add(10*24*time.Hour), &dueReset)

	healthyReset := now.Add(4 * 24 * time.Hour)
	healthyID := seedSubscription(t, repo, 3, 9, now.Add(20*24*time.Hour), &healthyReset)

	stats := NewSweeper(repo).Sweep(now)

	assert.Equal(t, SweepStats{Checked: 3, Expired: 1, Refilled: 1}, stats)

	expired, _ := repo.Subscription(expiredID)
	assert.False(t, expired.IsActive)

	due, _ := repo.Subscription(dueID)
	assert.Equal(t, 20, due.Remaining)

	healthy, _ := repo.Subscription(healthyID)
	assert.Equal(t, 9, healthy.Remaining)
}

func TestSweepWithoutResetAtNeverRefills(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	now := time.Now()
	subID := seedSubscription(t, repo, 1, 3, now.Add(14*24*time.Hour), nil)

	stats := NewSweeper(repo).Sweep(now)

	assert.Equal(t, SweepStats{Checked: 1}, stats)
	sub, _ := repo.Subscription(subID)
	assert.Equal(t, 3, sub.Remaining)
}
