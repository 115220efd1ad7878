package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/KerjaQuest/KerjaQuest/app/models"
	"github.com/KerjaQuest/KerjaQuest/app/repository"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/gateway"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/geo"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/middleware"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/quota"
)

type createJobRequest struct {
	Title         string     `json:"title" validate:"required,min=3,max=200"`
	Description   string     `json:"description" validate:"required"`
	Location      string     `json:"location" validate:"required"`
	Latitude      float64    `json:"latitude"`
	Longitude     float64    `json:"longitude"`
	Salary        int64      `json:"salary" validate:"required,gt=0"`
	JobType       string     `json:"job_type" validate:"oneof=FULL_TIME PART_TIME FREELANCE CONTRACT"`
	MaxApplicants int        `json:"max_applicants"`
	Deadline      *time.Time `json:"deadline"`
}

// HandleCreateJob creates an UNPAID job with its pending posting-fee
// payment and returns the gateway checkout. The job opens only when the
// payment settles.
func HandleCreateJob(c *fiber.Ctx) error {
	var req createJobRequest
	if err := parseAndValidate(c, &req); err != nil {
		return badRequest(c, err)
	}

	job := &models.Job{
		EmployerID:    middleware.EmployerID(c),
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Salary:        req.Salary,
		JobType:       req.JobType,
		MaxApplicants: req.MaxApplicants,
		Deadline:      req.Deadline,
	}
	if job.MaxApplicants <= 0 {
		job.MaxApplicants = 50
	}

	allocator := quota.NewAllocator(ledgerRepo())
	pending, err := allocator.ReserveJobPosting(middleware.UserID(c), job)
	if err != nil {
		log.Errorf("[Job] Failed to reserve posting for employer %d: %v", job.EmployerID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create job"})
	}

	ctx, cancel := requestContext()
	defer cancel()

	checkout, orderRef, err := startCheckout(ctx, pending, []gateway.Item{{
		ID:       fmt.Sprintf("job-%d", job.ID),
		Price:    quota.JobPostingFee,
		Quantity: 1,
		Name:     "Job posting fee",
	}})
	if err != nil {
		log.Errorf("[Job] Checkout failed for payment %d: %v", pending.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "gateway_error", "message": "Payment gateway is unavailable"})
	}

	resp := checkoutResponse(pending, orderRef, checkout)
	resp["job"] = job
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// HandleListJobs lists OPEN jobs with optional search, location, type and
// pagination filters. When the caller supplies coordinates the page is
// re-ordered nearest first.
func HandleListJobs(c *fiber.Ctx) error {
	filter := repository.JobFilter{
		Search:   c.Query("search"),
		Location: c.Query("location"),
		JobType:  c.Query("job_type"),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 10),
	}

	jobs, total, err := repository.GetGlobalFactory().GetJobRepository().ListOpen(filter)
	if err != nil {
		log.Errorf("[Job] Listing failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list jobs"})
	}

	lat := c.QueryFloat("lat", 0)
	lon := c.QueryFloat("lon", 0)
	if lat != 0 || lon != 0 {
		geo.SortByDistance(jobs, lat, lon)
	}

	return c.JSON(fiber.Map{
		"jobs":        jobs,
		"total":       total,
		"page":        filter.Page,
		"limit":       filter.Limit,
		"total_pages": totalPages(total, filter.Limit),
	})
}

// HandleGetJob returns one job by id. UNPAID jobs are only visible to the
// employer who created them.
func HandleGetJob(c *fiber.Ctx) error {
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

	if job.Status != models.JobStatusOpen && job.EmployerID != middleware.EmployerID(c) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Job not found"})
	}

	return c.JSON(fiber.Map{"job": job})
}
