package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/KerjaQuest/KerjaQuest/app/repository"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/middleware"
)

// HandleListMyPortfolio returns the caller's portfolio entries newest
// first.
func HandleListMyPortfolio(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)

	items, total, err := repository.GetGlobalFactory().GetPortfolioRepository().ListByUser(middleware.UserID(c), page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list portfolio"})
	}

	return c.JSON(fiber.Map{
		"portfolio":   items,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": totalPages(total, limit),
	})
}

// HandleGetPortfolioItem returns one portfolio entry.
func HandleGetPortfolioItem(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid portfolio id"})
	}

	item, err := repository.GetGlobalFactory().GetPortfolioRepository().GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Portfolio entry not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load portfolio entry"})
	}

	return c.JSON(fiber.Map{"portfolio": item})
}
