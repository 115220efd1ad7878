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

type buySubscriptionRequest struct {
	Tier string `json:"tier" validate:"required"`
}

// HandleListPlans returns the available subscription tiers with price and
// weekly quota.
func HandleListPlans(c *fiber.Ctx) error {
	plans := make([]fiber.Map, 0, 3)
	for _, tier := range quota.Tiers() {
		_, plan, _ := quota.PlanForTier(tier)
		plans = append(plans, fiber.Map{
			"tier":         tier,
			"price":        plan.Price,
			"weekly_quota": plan.WeeklyQuota,
			"name":         plan.Name,
		})
	}
	return c.JSON(fiber.Map{"plans": plans})
}

// HandleBuySubscription creates an inactive subscription with its pending
// payment and returns the gateway checkout. Activation happens only via
// the payment webhook.
func HandleBuySubscription(c *fiber.Ctx) error {
	var req buySubscriptionRequest
	if err := parseAndValidate(c, &req); err != nil {
		return badRequest(c, err)
	}

	allocator := quota.NewAllocator(ledgerRepo())
	sub, pending, err := allocator.ReserveSubscription(middleware.UserID(c), middleware.EmployerID(c), req.Tier)
	if err != nil {
		switch {
		case errors.Is(err, quota.ErrInvalidTier):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unknown subscription tier"})
		case errors.Is(err, quota.ErrActiveSubscriptionExists):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "An active subscription already exists"})
		}
		log.Errorf("[Subscription] Reservation failed for employer %d: %v", middleware.EmployerID(c), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create subscription"})
	}

	ctx, cancel := requestContext()
	defer cancel()

	checkout, orderRef, err := startCheckout(ctx, pending, []gateway.Item{{
		ID:       fmt.Sprintf("subscription-%d", sub.ID),
		Price:    pending.Amount,
		Quantity: 1,
		Name:     fmt.Sprintf("%s subscription (28 days)", sub.Tier),
	}})
	if err != nil {
		log.Errorf("[Subscription] Checkout failed for payment %d: %v", pending.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "gateway_error", "message": "Payment gateway is unavailable"})
	}

	resp := checkoutResponse(pending, orderRef, checkout)
	resp["subscription"] = sub
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// HandleGetMySubscription returns the employer's active subscription, if
// any.
func HandleGetMySubscription(c *fiber.Ctx) error {
	var sub models.SubscriptionQuota
	err := database.GetDB().
		Where("employer_id = ? AND is_active = ?", middleware.EmployerID(c), true).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return c.JSON(fiber.Map{"subscription": nil})
	}
	return c.JSON(fiber.Map{"subscription": sub})
}
