package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/KerjaQuest/KerjaQuest/app/models"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/database"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/middleware"
)

// HandleEmployerStats returns posting and quota counters for the caller's
// dashboard.
func HandleEmployerStats(c *fiber.Ctx) error {
	employerID := middleware.EmployerID(c)
	db := database.GetDB()

	var employer models.Employer
	if err := db.First(&employer, employerID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load employer"})
	}

	var openJobs, totalJobs, totalQuests, pendingApplications, totalSubmissions int64
	if err := db.Model(&models.Job{}).Where("employer_id = ? AND status = ?", employerID, models.JobStatusOpen).Count(&openJobs).Error; err != nil {
		log.Errorf("[Employer] Stats query failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load stats"})
	}
	if err := db.Model(&models.Job{}).Where("employer_id = ?", employerID).Count(&totalJobs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load stats"})
	}
	if err := db.Model(&models.Quest{}).Where("employer_id = ?", employerID).Count(&totalQuests).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load stats"})
	}
	if err := db.Model(&models.Application{}).
		Joins("JOIN jobs ON jobs.id = applications.job_id").
		Where("jobs.employer_id = ? AND applications.status = ?", employerID, models.ApplicationStatusPending).
		Count(&pendingApplications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load stats"})
	}
	if err := db.Model(&models.QuestSubmission{}).
		Joins("JOIN quests ON quests.id = quest_submissions.quest_id").
		Where("quests.employer_id = ?", employerID).
		Count(&totalSubmissions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load stats"})
	}

	resp := fiber.Map{
		"open_jobs":            openJobs,
		"total_jobs":           totalJobs,
		"total_quests":         totalQuests,
		"pending_applications": pendingApplications,
		"total_submissions":    totalSubmissions,
		"onetime_quota":        employer.OnetimeQuota,
		"subscription_quota":   0,
	}

	var sub models.SubscriptionQuota
	err := db.Where("employer_id = ? AND is_active = ?", employerID, true).
		Order("created_at DESC").
		First(&sub).Error
	if err == nil {
		resp["subscription_quota"] = sub.Remaining
		resp["subscription_tier"] = sub.Tier
		resp["subscription_renews_at"] = sub.RenewsAt
	}

	return c.JSON(resp)
}
