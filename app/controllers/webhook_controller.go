package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/KerjaQuest/KerjaQuest/internal/pkg/gateway"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/payment"
)

// HandlePaymentNotification ingests Midtrans HTTP notifications. The
// gateway retries anything that is not a 200, so every outcome acks with
// 200; failures are recorded on the stored event and logged instead.
func HandlePaymentNotification(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	payload, err := gateway.ParseNotification(rawBody)
	if err != nil {
		log.Warnf("[Webhook] Unparseable notification: %v", err)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": false, "reason": "invalid_payload"})
	}

	client := gateway.NewClientFromEnv()
	signatureValid := client.VerifySignature(payload)

	n := payment.Notification{
		OrderID:           payload.OrderID,
		TransactionID:     payload.TransactionID,
		TransactionStatus: payload.TransactionStatus,
		FraudStatus:       payload.FraudStatus,
		PayloadJSON:       string(rawBody),
		SignatureValid:    signatureValid,
	}

	reconciler := payment.NewReconciler(ledgerRepo())
	ctx, cancel := requestContext()
	defer cancel()

	created, stored, err := reconciler.RecordNotification(ctx, n)
	if err != nil {
		log.Errorf("[Webhook] Failed to persist notification for order %s: %v", n.OrderID, err)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": false, "reason": "persist_failed"})
	}
	// Skip only re-deliveries of events that were already applied
	// cleanly. A retry of an event whose processing failed (or never
	// ran) goes through ApplyNotification again; its terminal-status
	// guard makes that safe.
	if !created && payment.EventHandled(stored) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}

	if !signatureValid {
		log.Warnf("[Webhook] Invalid signature for order %s, ignoring", n.OrderID)
		_ = reconciler.MarkProcessed(ctx, stored.ID, errors.New("invalid signature"))
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": false, "reason": "invalid_signature"})
	}

	applyErr := reconciler.ApplyNotification(ctx, n)
	if markErr := reconciler.MarkProcessed(ctx, stored.ID, applyErr); markErr != nil {
		log.Errorf("[Webhook] Failed to mark event %d processed: %v", stored.ID, markErr)
	}
	if applyErr != nil {
		if errors.Is(applyErr, payment.ErrInvalidOrderRef) || errors.Is(applyErr, payment.ErrPaymentNotFound) {
			log.Warnf("[Webhook] Unresolvable order %s: %v", n.OrderID, applyErr)
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": false, "reason": "unknown_order"})
		}
		log.Errorf("[Webhook] Failed to apply notification for order %s: %v", n.OrderID, applyErr)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": false, "reason": "apply_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}
