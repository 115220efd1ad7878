package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/KerjaQuest/KerjaQuest/app/models"
	"github.com/KerjaQuest/KerjaQuest/app/repository"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/database"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/middleware"
)

// HandleApplyToJob creates a PENDING application for the caller. Only OPEN
// jobs accept applications, and only until the deadline or the applicant
// cap is reached.
func HandleApplyToJob(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid job id"})
	}

	job, err := repository.GetGlobalFactory().GetJobRepository().GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Job not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load job"})
	}

	if job.Status != models.JobStatusOpen {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "job_not_open", "message": "Job is not accepting applications"})
	}
	if job.Deadline != nil && time.Now().After(*job.Deadline) {
		return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": "deadline_passed", "message": "Application deadline has passed"})
	}

	var count int64
	if err := database.GetDB().Model(&models.Application{}).Where("job_id = ?", job.ID).Count(&count).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load job"})
	}
	if count >= int64(job.MaxApplicants) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "job_full", "message": "Job has reached its applicant limit"})
	}

	application := &models.Application{
		JobID:    job.ID,
		WorkerID: middleware.WorkerID(c),
		Status:   models.ApplicationStatusPending,
	}
	if err := database.GetDB().Create(application).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "You already applied to this job"})
		}
		log.Errorf("[Application] Failed to apply worker %d to job %d: %v", middleware.WorkerID(c), job.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to apply"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"application": application})
}

// HandleListJobApplications returns all applications for a job the caller
// owns.
func HandleListJobApplications(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid job id"})
	}

	job, err := repository.GetGlobalFactory().GetJobRepository().GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Job not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load job"})
	}
	if job.EmployerID != middleware.EmployerID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "You do not own this job"})
	}

	var applications []models.Application
	err = database.GetDB().
		Where("job_id = ?", job.ID).
		Preload("Worker").Preload("Worker.User").
		Order("created_at ASC").
		Find(&applications).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list applications"})
	}

	return c.JSON(fiber.Map{"applications": applications, "total": len(applications)})
}

// HandleUpdateApplicationStatus lets the job owner accept or reject an
// application.
func HandleUpdateApplicationStatus(c *fiber.Ctx) error {
	applicationID, err := c.ParamsInt("applicationId")
	if err != nil || applicationID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid application id"})
	}

	var req struct {
		Status string `json:"status" validate:"oneof=ACCEPTED REJECTED"`
	}
	if err := parseAndValidate(c, &req); err != nil {
		return badRequest(c, err)
	}

	var application models.Application
	err = database.GetDB().Preload("Job").First(&application, applicationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Application not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load application"})
	}
	if application.Job == nil || application.Job.EmployerID != middleware.EmployerID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "You do not own this job"})
	}

	application.Status = req.Status
	if err := database.GetDB().Model(&application).Update("status", req.Status).Error; err != nil {
		log.Errorf("[Application] Failed to update application %d: %v", application.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update application"})
	}

	return c.JSON(fiber.Map{"application": application})
}

// HandleListMyApplications returns the caller's applications newest first.
func HandleListMyApplications(c *fiber.Ctx) error {
	var applications []models.Application
	err := database.GetDB().
		Where("worker_id = ?", middleware.WorkerID(c)).
		Preload("Job").
		Order("created_at DESC").
		Find(&applications).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list applications"})
	}

	return c.JSON(fiber.Map{"applications": applications, "total": len(applications)})
}
