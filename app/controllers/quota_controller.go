package controllers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/KerjaQuest/KerjaQuest/app/models"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/database"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/gateway"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/middleware"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/quota"
)

type buyQuotaRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// HandleBuyQuota creates a one-time quota purchase with its pending
// payment and returns the gateway checkout. The employer's balance is
// credited only when the payment settles.
func HandleBuyQuota(c *fiber.Ctx) error {
	var req buyQuotaRequest
	if err := parseAndValidate(c, &req); err != nil {
		return badRequest(c, err)
	}

	allocator := quota.NewAllocator(ledgerRepo())
	quotaRow, pending, err := allocator.ReserveOneTimeQuota(middleware.UserID(c), middleware.EmployerID(c), req.Quantity)
	if err != nil {
		if errors.Is(err, quota.ErrInvalidQuantity) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Quantity must be at least 1"})
		}
		log.Errorf("[Quota] Reservation failed for employer %d: %v", middleware.EmployerID(c), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create quota purchase"})
	}

	ctx, cancel := requestContext()
	defer cancel()

	checkout, orderRef, err := startCheckout(ctx, pending, []gateway.Item{{
		ID:       fmt.Sprintf("quota-%d", quotaRow.ID),
		Price:    quota.UnitQuotaPrice,
		Quantity: req.Quantity,
		Name:     "Quest quota credit",
	}})
	if err != nil {
		log.Errorf("[Quota] Checkout failed for payment %d: %v", pending.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "gateway_error", "message": "Payment gateway is unavailable"})
	}

	resp := checkoutResponse(pending, orderRef, checkout)
	resp["quota"] = quotaRow
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// HandleGetQuotaBalance returns the employer's spendable quota: one-time
// credits plus whatever remains on the active subscription.
func HandleGetQuotaBalance(c *fiber.Ctx) error {
	var employer models.Employer
	if err := database.GetDB().First(&employer, middleware.EmployerID(c)).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load balance"})
	}

	resp := fiber.Map{
		"onetime_quota":      employer.OnetimeQuota,
		"subscription_quota": 0,
	}

	var sub models.SubscriptionQuota
	err := database.GetDB().
		Where("employer_id = ? AND is_active = ?", employer.ID, true).
		Order("created_at DESC").
		First(&sub).Error
	if err == nil {
		resp["subscription_quota"] = sub.Remaining
		resp["subscription"] = sub
	}

	return c.JSON(resp)
}
