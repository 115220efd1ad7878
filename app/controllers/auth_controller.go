package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/KerjaQuest/KerjaQuest/app/models"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/database"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/middleware"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/token"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"oneof=EMPLOYER WORKER"`

	// Profile fields; which ones apply depends on the role.
	CompanyName string `json:"company_name"`
	Headline    string `json:"headline"`
	Location    string `json:"location"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates an account plus its role profile and returns an
// access token.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseAndValidate(c, &req); err != nil {
		return badRequest(c, err)
	}

	user, err := models.CreateUser(req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		switch req.Role {
		case models.RoleEmployer:
			return tx.Create(&models.Employer{
				UserID:      user.ID,
				CompanyName: req.CompanyName,
				Location:    req.Location,
			}).Error
		default:
			return tx.Create(&models.Worker{
				UserID:   user.ID,
				Headline: req.Headline,
				Location: req.Location,
			}).Error
		}
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Email is already registered"})
		}
		log.Errorf("[Auth] Registration failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Registration failed"})
	}

	accessToken, err := token.Issue(user.ID, user.Role)
	if err != nil {
		log.Errorf("[Auth] Token signing failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Token signing failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": accessToken,
		"user":  userResponse(user),
	})
}

// HandleLogin verifies credentials and returns an access token.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseAndValidate(c, &req); err != nil {
		return badRequest(c, err)
	}

	var user models.User
	err := database.GetDB().Where("email = ?", req.Email).First(&user).Error
	if err != nil || !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid email or password"})
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := database.GetDB().Model(&user).Update("last_login_at", now).Error; err != nil {
		log.Warnf("[Auth] Failed to record login time for user %d: %v", user.ID, err)
	}

	accessToken, err := token.Issue(user.ID, user.Role)
	if err != nil {
		log.Errorf("[Auth] Token signing failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Token signing failed"})
	}

	return c.JSON(fiber.Map{
		"token": accessToken,
		"user":  userResponse(&user),
	})
}

// HandleMe returns the authenticated account with its role profile.
func HandleMe(c *fiber.Ctx) error {
	var user models.User
	if err := database.GetDB().First(&user, middleware.UserID(c)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
	}

	resp := fiber.Map{"user": userResponse(&user)}
	switch user.Role {
	case models.RoleEmployer:
		var employer models.Employer
		if err := database.GetDB().Where("user_id = ?", user.ID).First(&employer).Error; err == nil {
			resp["employer"] = employer
		}
	case models.RoleWorker:
		var worker models.Worker
		if err := database.GetDB().Where("user_id = ?", user.ID).First(&worker).Error; err == nil {
			resp["worker"] = worker
		}
	}
	return c.JSON(resp)
}

func userResponse(u *models.User) fiber.Map {
	return fiber.Map{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	}
}
