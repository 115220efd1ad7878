package payment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/KerjaQuest/KerjaQuest/app/models"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/ledger"
	"github.com/gofiber/fiber/v2/log"
)

// ErrPaymentNotFound is returned when a notification references a payment
// that does not exist in the ledger.
var ErrPaymentNotFound = errors.New("payment: payment not found")

// GatewayProvider identifies the payment gateway in stored webhook events.
const GatewayProvider = "midtrans"

// Subscription activation windows applied on payment SUCCESS.
const (
	SubscriptionTerm   = 28 * 24 * time.Hour
	QuotaResetInterval = 7 * 24 * time.Hour
)

// Notification is the verified content of one gateway webhook delivery.
type Notification struct {
	OrderID           string
	TransactionID     string
	TransactionStatus string
	FraudStatus       string
	PayloadJSON       string
	SignatureValid    bool
}

// Reconciler applies gateway notifications to the ledger exactly once per
// logical event. Re-delivery after a terminal payment status is a no-op.
type Reconciler struct {
	repo ledger.Repository
}

// NewReconciler creates a reconciler over the given ledger.
func NewReconciler(repo ledger.Repository) *Reconciler {
	return &Reconciler{repo: repo}
}

// RecordNotification persists the raw webhook payload idempotently and
// reports whether this delivery is the first of its kind.
func (r *Reconciler) RecordNotification(ctx context.Context, n Notification) (bool, *models.PaymentWebhookEvent, error) {
	_ = ctx
	eventID := n.TransactionID
	if eventID == "" {
		sum := sha256.Sum256([]byte(n.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}
	// A retried notification for the same transaction may carry a new
	// status, and a challenged capture is resolved by re-notifying the
	// same transaction status with a changed fraud status. Key the event
	// on transaction + status + fraud status so both progressions are
	// stored while true re-deliveries deduplicate.
	eventID = eventID + ":" + n.TransactionStatus
	if n.FraudStatus != "" {
		eventID = eventID + ":" + n.FraudStatus
	}

	event := &models.PaymentWebhookEvent{
		Provider:        GatewayProvider,
		ProviderEventID: eventID,
		OrderID:         n.OrderID,
		EventType:       n.TransactionStatus,
		PayloadJSON:     n.PayloadJSON,
		SignatureValid:  n.SignatureValid,
	}
	return r.repo.CreateWebhookEventIfNotExists(event)
}

// EventHandled reports whether a stored webhook event has already been
// applied cleanly. A re-delivery of an event that was never processed, or
// whose processing failed, must be applied again rather than skipped;
// ApplyNotification's terminal-status guard keeps the re-application safe.
func EventHandled(e *models.PaymentWebhookEvent) bool {
	return e != nil && e.ProcessedAt != nil && e.ProcessingError == ""
}

// MarkProcessed marks a stored webhook event as handled, keeping the
// processing error if any.
func (r *Reconciler) MarkProcessed(ctx context.Context, eventID uint, processingErr error) error {
	_ = ctx
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return r.repo.MarkWebhookProcessed(eventID, errMsg)
}

// ApplyNotification resolves the payment from the order reference, derives
// the new status and applies it together with the funded resource's side
// effects in one transaction. Payments already in a terminal state are
// left untouched.
func (r *Reconciler) ApplyNotification(ctx context.Context, n Notification) error {
	_ = ctx
	paymentID, err := ParseOrderRef(n.OrderID)
	if err != nil {
		return err
	}

	newStatus := DeriveStatus(n.TransactionStatus, n.FraudStatus)

	return r.repo.Transact(func(tx ledger.Repository) error {
		p, err := tx.PaymentForUpdate(paymentID)
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}

		// Idempotency guard: a terminal payment is immutable. Gateway
		// retries after SUCCESS/FAILED must not re-apply side effects.
		if p.IsTerminal() {
			log.Infof("[Reconcile] Payment %d already %s, ignoring %q notification", p.ID, p.Status, n.TransactionStatus)
			return nil
		}

		now := time.Now()
		p.Status = newStatus
		if newStatus == models.PaymentStatusSuccess {
			p.PaidAt = &now
		}
		if err := tx.SavePayment(p); err != nil {
			return err
		}

		if newStatus == models.PaymentStatusPending {
			return nil
		}
		return r.applySideEffects(tx, p, newStatus, now)
	})
}

func (r *Reconciler) applySideEffects(tx ledger.Repository, p *models.Payment, newStatus string, now time.Time) error {
	switch p.Type {
	case models.PaymentTypeJobPost:
		if p.Job == nil {
			log.Warnf("[Reconcile] Payment %d has type JOB_POST but no job attached", p.ID)
			return nil
		}
		status := models.JobStatusOpen
		if newStatus == models.PaymentStatusFailed {
			status = models.JobStatusClosed
		}
		log.Infof("[Reconcile] Job %d -> %s (payment %d %s)", p.Job.ID, status, p.ID, newStatus)
		return tx.SetJobStatus(p.Job.ID, status)

	case models.PaymentTypeQuestSubscription:
		if p.Subscription == nil {
			log.Warnf("[Reconcile] Payment %d has type QUEST_SUBSCRIPTION but no subscription attached", p.ID)
			return nil
		}
		// Re-read under lock so a concurrent scheduler sweep serializes
		// with this activation instead of losing one of the writes.
		sub, err := tx.SubscriptionForUpdate(p.Subscription.ID)
		if err != nil {
			return err
		}
		if newStatus == models.PaymentStatusSuccess {
			resetAt := now.Add(QuotaResetInterval)
			sub.IsActive = true
			sub.RenewsAt = now.Add(SubscriptionTerm)
			sub.ResetAt = &resetAt
			log.Infof("[Reconcile] Subscription %d activated until %s", sub.ID, sub.RenewsAt.Format(time.RFC3339))
		} else {
			sub.IsActive = false
			log.Infof("[Reconcile] Subscription %d stays inactive (payment failed)", sub.ID)
		}
		return tx.SaveSubscriptionQuota(sub)

	case models.PaymentTypeQuestQuota:
		if p.OneTimeQuota == nil {
			log.Warnf("[Reconcile] Payment %d has type QUEST_QUOTA but no quota attached", p.ID)
			return nil
		}
		q := p.OneTimeQuota
		if newStatus == models.PaymentStatusSuccess {
			q.IsActive = true
			if err := tx.SaveOneTimeQuota(q); err != nil {
				return err
			}
			// The aggregate balance is credited only here, never at
			// purchase time; that ordering is what makes the FAILED
			// rollback below safe.
			log.Infof("[Reconcile] One-time quota %d confirmed, crediting employer %d with %d", q.ID, q.EmployerID, q.Remaining)
			return tx.AddEmployerOnetimeQuota(q.EmployerID, q.Remaining)
		}
		q.Remaining = 0
		log.Infof("[Reconcile] One-time quota %d voided (payment failed)", q.ID)
		return tx.SaveOneTimeQuota(q)
	}
	return nil
}
