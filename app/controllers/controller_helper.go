package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/KerjaQuest/KerjaQuest/app/models"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/database"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/gateway"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/ledger"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/payment"
)

var validate = validator.New()

// parseAndValidate decodes the JSON body into out and runs struct
// validation. A nil return means out is safe to use; callers answer a
// non-nil error with HTTP 400.
func parseAndValidate(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errors.New("invalid request body")
	}
	return validate.Struct(out)
}

// badRequest writes the standard 400 response for a rejected body.
func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
}

// totalPages derives the page count for list responses.
func totalPages(total int64, limit int) int64 {
	if limit < 1 {
		limit = 1
	}
	return (total + int64(limit) - 1) / int64(limit)
}

// ledgerRepo returns the ledger backed by the global database handle.
func ledgerRepo() ledger.Repository {
	return ledger.NewRepository(database.GetDB())
}

// startCheckout registers the pending payment with the gateway and stores
// the returned snap token on the payment row. The order reference embeds
// the payment id so the webhook can resolve it later.
func startCheckout(ctx context.Context, p *models.Payment, items []gateway.Item) (*gateway.Checkout, string, error) {
	var user models.User
	if err := database.GetDB().First(&user, p.UserID).Error; err != nil {
		return nil, "", err
	}

	orderRef := payment.BuildOrderRef(p.Type, p.ID)
	client := gateway.NewClientFromEnv()

	checkout, err := client.CreateTransaction(ctx, gateway.CheckoutRequest{
		OrderID:       orderRef,
		GrossAmount:   p.Amount,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
		Items:         items,
	})
	if err != nil {
		return nil, "", err
	}

	if err := ledgerRepo().SetPaymentCheckout(p.ID, checkout.Token, checkout.RedirectURL); err != nil {
		return nil, "", err
	}
	return checkout, orderRef, nil
}

// checkoutResponse is the common payload returned by every purchase
// endpoint: the pending payment plus the gateway handle to pay it with.
func checkoutResponse(p *models.Payment, orderRef string, checkout *gateway.Checkout) fiber.Map {
	return fiber.Map{
		"payment": fiber.Map{
			"id":       p.ID,
			"amount":   p.Amount,
			"type":     p.Type,
			"status":   p.Status,
			"order_id": orderRef,
		},
		"checkout": fiber.Map{
			"token":        checkout.Token,
			"redirect_url": checkout.RedirectURL,
		},
	}
}

// requestContext bounds outbound gateway calls made on behalf of a request.
func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 20*time.Second)
}
