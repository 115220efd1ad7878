package middleware

import (
	"errors"
	"strings"

	"github.com/KerjaQuest/KerjaQuest/app/models"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/database"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/token"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Locals keys set by the auth middleware chain.
const (
	KeyUserID     = "USER_ID"
	KeyUserRole   = "USER_ROLE"
	KeyEmployerID = "EMPLOYER_ID"
	KeyWorkerID   = "WORKER_ID"
)

// VerifyToken authenticates the request via its Bearer token and stores the
// user id and role in locals.
func VerifyToken(c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if raw == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing token"})
	}
	raw = strings.TrimPrefix(raw, "Bearer ")

	claims, err := token.Parse(raw)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid or expired token"})
	}

	c.Locals(KeyUserID, claims.UserID)
	c.Locals(KeyUserRole, claims.Role)
	return c.Next()
}

// VerifyEmployer resolves the caller's employer profile; requires
// VerifyToken earlier in the chain.
func VerifyEmployer(c *fiber.Ctx) error {
	if UserRole(c) != models.RoleEmployer {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Employer account required"})
	}

	var employer models.Employer
	err := database.GetDB().Where("user_id = ?", UserID(c)).First(&employer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Employer profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Profile lookup failed"})
	}

	c.Locals(KeyEmployerID, employer.ID)
	return c.Next()
}

// VerifyWorker resolves the caller's worker profile; requires VerifyToken
// earlier in the chain.
func VerifyWorker(c *fiber.Ctx) error {
	if UserRole(c) != models.RoleWorker {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Worker account required"})
	}

	var worker models.Worker
	err := database.GetDB().Where("user_id = ?", UserID(c)).First(&worker).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Worker profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Profile lookup failed"})
	}

	c.Locals(KeyWorkerID, worker.ID)
	return c.Next()
}

// UserID reads the authenticated user id from locals.
func UserID(c *fiber.Ctx) uint {
	if v, ok := c.Locals(KeyUserID).(uint); ok {
		return v
	}
	return 0
}

// UserRole reads the authenticated role from locals.
func UserRole(c *fiber.Ctx) string {
	if v, ok := c.Locals(KeyUserRole).(string); ok {
		return v
	}
	return ""
}

// EmployerID reads the resolved employer id from locals.
func EmployerID(c *fiber.Ctx) uint {
	if v, ok := c.Locals(KeyEmployerID).(uint); ok {
		return v
	}
	return 0
}

// WorkerID reads the resolved worker id from locals.
func WorkerID(c *fiber.Ctx) uint {
	if v, ok := c.Locals(KeyWorkerID).(uint); ok {
		return v
	}
	return 0
}
