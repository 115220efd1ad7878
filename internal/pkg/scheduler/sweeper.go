package scheduler

import (
	"time"

	"github.com/KerjaQuest/KerjaQuest/internal/pkg/ledger"
	"github.com/gofiber/fiber/v2/log"
)

// Sweeper applies time-based subscription transitions: deactivating
// subscriptions past their renewal date and refilling weekly quota. It is
// independent of any payment event.
type Sweeper struct {
	repo ledger.Repository
}

// NewSweeper creates a sweeper over the given ledger.
func NewSweeper(repo ledger.Repository) *Sweeper {
	return &Sweeper{repo: repo}
}

// SweepStats summarizes one sweep cycle.
type SweepStats struct {
	Checked  int
	Expired  int
	Refilled int
	Failed   int
}

// Sweep processes every active subscription once. Each record is handled
// in its own transaction so a failure on one subscription never blocks the
// rest of the sweep.
func (s *Sweeper) Sweep(now time.Time) SweepStats {
	var stats SweepStats

	ids, err := s.repo.ActiveSubscriptionIDs()
	if err != nil {
		log.Errorf("[Scheduler] Failed to list active subscriptions: %v", err)
		return stats
	}

	for _, id := range ids {
		stats.Checked++
		expired, refilled, err := s.sweepOne(id, now)
		if err != nil {
			stats.Failed++
			log.Errorf("[Scheduler] Sweep failed for subscription %d: %v", id, err)
			continue
		}
		if expired {
			stats.Expired++
		}
		if refilled {
			stats.Refilled++
		}
	}
	return stats
}

// sweepOne re-reads the subscription under lock so a concurrent payment
// reconciliation touching the same row serializes with this update.
func (s *Sweeper) sweepOne(id uint, now time.Time) (expired, refilled bool, err error) {
	err = s.repo.Transact(func(tx ledger.Repository) error {
		sub, err := tx.SubscriptionForUpdate(id)
		if err != nil {
			return err
		}
		// May have flipped between the listing and the lock.
		if !sub.IsActive {
			return nil
		}

		if sub.IsExpired(now) {
			sub.IsActive = false
			sub.Remaining = 0
			expired = true
			log.Infof("[Scheduler] Subscription %d expired (renewsAt %s)", sub.ID, sub.RenewsAt.Format(time.RFC3339))
			return tx.SaveSubscriptionQuota(sub)
		}

		if sub.NeedsRefill(now) {
			nextReset := sub.ResetAt.Add(7 * 24 * time.Hour)
			sub.Remaining = sub.WeeklyQuota
			sub.ResetAt = &nextReset
			refilled = true
			log.Infof("[Scheduler] Subscription %d refilled to %d, next reset %s", sub.ID, sub.WeeklyQuota, nextReset.Format(time.RFC3339))
			return tx.SaveSubscriptionQuota(sub)
		}
		return nil
	})
	return expired, refilled, err
}
