package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/KerjaQuest/KerjaQuest/app/models"
	"github.com/KerjaQuest/KerjaQuest/app/repository"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/cache"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/database"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/middleware"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/quota"
)

const questListCacheTTL = 60 * time.Second

type createQuestRequest struct {
	Title          string     `json:"title" validate:"required,min=3,max=200"`
	Description    string     `json:"description" validate:"required"`
	Tier           string     `json:"tier" validate:"oneof=ENTRY MID HIGH"`
	MaxSubmissions int        `json:"max_submissions"`
	Deadline       *time.Time `json:"deadline"`
	QuotaSource    string     `json:"quota_source" validate:"oneof=SUBSCRIPTION ONE_TIME"`
}

type assessSubmissionRequest struct {
	IsApproved bool   `json:"is_approved"`
	Rating     *int   `json:"rating" validate:"omitempty,min=1,max=5"`
	Feedback   string `json:"feedback"`
}

// HandleCreateQuest creates a quest, charging one credit from the chosen
// quota source in the same transaction. No payment is collected here;
// quests spend quota that earlier payments funded.
func HandleCreateQuest(c *fiber.Ctx) error {
	var req createQuestRequest
	if err := parseAndValidate(c, &req); err != nil {
		return badRequest(c, err)
	}

	quest := &models.Quest{
		Title:          req.Title,
		Description:    req.Description,
		Tier:           req.Tier,
		MaxSubmissions: req.MaxSubmissions,
		Deadline:       req.Deadline,
	}
	if quest.MaxSubmissions <= 0 {
		quest.MaxSubmissions = 10
	}

	allocator := quota.NewAllocator(ledgerRepo())
	err := allocator.ChargeQuestCreation(middleware.EmployerID(c), req.QuotaSource, quest)
	if err != nil {
		switch {
		case errors.Is(err, quota.ErrNoActiveSubscription):
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "no_active_subscription", "message": "No active subscription; buy a plan or use one-time quota"})
		case errors.Is(err, quota.ErrSubscriptionExpired):
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "subscription_expired", "message": "Subscription has expired and was deactivated"})
		case errors.Is(err, quota.ErrQuotaExhausted):
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "quota_exhausted", "message": "Weekly quota is used up; wait for the reset or use one-time quota"})
		case errors.Is(err, quota.ErrInsufficientBalance):
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "insufficient_balance", "message": "No one-time quota left; buy more credits"})
		case errors.Is(err, quota.ErrInvalidQuotaSource):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "quota_source must be SUBSCRIPTION or ONE_TIME"})
		}
		log.Errorf("[Quest] Creation failed for employer %d: %v", middleware.EmployerID(c), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create quest"})
	}

	invalidateQuestListCache()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"quest": quest})
}

// HandleListQuests lists quests whose deadline has not passed. Results are
// cached briefly per filter combination.
func HandleListQuests(c *fiber.Ctx) error {
	filter := repository.QuestFilter{
		Search: c.Query("search"),
		Tier:   c.Query("tier"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 10),
	}

	cacheKey := fmt.Sprintf("quests:list:%s:%s:%d:%d", filter.Search, filter.Tier, filter.Page, filter.Limit)
	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	quests, total, err := repository.GetGlobalFactory().GetQuestRepository().ListCurrent(filter)
	if err != nil {
		log.Errorf("[Quest] Listing failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list quests"})
	}

	resp := fiber.Map{
		"quests":      quests,
		"total":       total,
		"page":        filter.Page,
		"limit":       filter.Limit,
		"total_pages": totalPages(total, filter.Limit),
	}
	if payload, err := json.Marshal(resp); err == nil {
		if err := cache.Set(cacheKey, payload, questListCacheTTL); err != nil {
			log.Warnf("[Quest] Failed to cache listing: %v", err)
		}
	}
	return c.JSON(resp)
}

// HandleGetQuest returns one quest with its current submission count.
func HandleGetQuest(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid quest id"})
	}

	repo := repository.GetGlobalFactory().GetQuestRepository()
	quest, err := repo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Quest not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load quest"})
	}

	count, err := repo.CountSubmissions(quest.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load quest"})
	}

	return c.JSON(fiber.Map{
		"quest":            quest,
		"submission_count": count,
		"slots_left":       int64(quest.MaxSubmissions) - count,
	})
}

// HandleStartQuest registers the worker on a quest with an IN_PROGRESS
// submission. One submission per worker per quest.
func HandleStartQuest(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid quest id"})
	}

	repo := repository.GetGlobalFactory().GetQuestRepository()
	quest, err := repo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Quest not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load quest"})
	}

	if quest.Deadline != nil && time.Now().After(*quest.Deadline) {
		return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": "deadline_passed", "message": "Quest deadline has passed"})
	}

	count, err := repo.CountSubmissions(quest.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load quest"})
	}
	if count >= int64(quest.MaxSubmissions) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "quest_full", "message": "Quest has reached its submission limit"})
	}

	submission := &models.QuestSubmission{
		QuestID:  quest.ID,
		WorkerID: middleware.WorkerID(c),
		Status:   models.SubmissionStatusInProgress,
	}
	if err := database.GetDB().Create(submission).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "You already started this quest"})
		}
		log.Errorf("[Quest] Failed to start quest %d for worker %d: %v", quest.ID, middleware.WorkerID(c), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to start quest"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"submission": submission})
}

// HandleSubmitQuest attaches the work result to the caller's submission.
// Work handed in after the deadline is marked OVERDUE instead of COMPLETED.
func HandleSubmitQuest(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid quest id"})
	}

	var req struct {
		FileURL string `json:"file_url" validate:"required,url"`
	}
	if err := parseAndValidate(c, &req); err != nil {
		return badRequest(c, err)
	}

	var submission models.QuestSubmission
	err = database.GetDB().Preload("Quest").
		Where("quest_id = ? AND worker_id = ?", id, middleware.WorkerID(c)).
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Start the quest before submitting"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load submission"})
	}
	if submission.Status != models.SubmissionStatusInProgress {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Submission was already handed in"})
	}

	now := time.Now()
	submission.FileURL = req.FileURL
	submission.SubmittedAt = &now
	submission.Status = models.SubmissionStatusCompleted
	if submission.Quest != nil && submission.Quest.Deadline != nil && now.After(*submission.Quest.Deadline) {
		submission.Status = models.SubmissionStatusOverdue
	}

	if err := database.GetDB().Save(&submission).Error; err != nil {
		log.Errorf("[Quest] Failed to store submission %d: %v", submission.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store submission"})
	}

	return c.JSON(fiber.Map{"submission": submission})
}

// HandleAssessSubmission lets the quest owner approve or reject handed-in
// work. Approval creates a portfolio entry for the worker.
func HandleAssessSubmission(c *fiber.Ctx) error {
	submissionID, err := c.ParamsInt("submissionId")
	if err != nil || submissionID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid submission id"})
	}

	var req assessSubmissionRequest
	if err := parseAndValidate(c, &req); err != nil {
		return badRequest(c, err)
	}

	var submission models.QuestSubmission
	err = database.GetDB().Preload("Quest").First(&submission, submissionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Submission not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load submission"})
	}
	if submission.Quest == nil || submission.Quest.EmployerID != middleware.EmployerID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "You do not own this quest"})
	}
	if submission.SubmittedAt == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "No work has been handed in yet"})
	}
	if submission.IsApproved != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Submission was already assessed"})
	}
	if req.IsApproved && (req.Rating == nil || req.Feedback == "") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Approval requires a rating and feedback"})
	}

	approved := req.IsApproved
	submission.IsApproved = &approved
	submission.Rating = req.Rating
	submission.Feedback = req.Feedback

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&submission).Error; err != nil {
			return err
		}
		if !approved {
			return nil
		}
		return tx.Create(&models.Portfolio{
			WorkerID:     submission.WorkerID,
			QuestID:      submission.QuestID,
			SubmissionID: submission.ID,
			Points:       portfolioPointsForTier(submission.Quest.Tier),
		}).Error
	})
	if err != nil {
		log.Errorf("[Quest] Failed to assess submission %d: %v", submission.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to assess submission"})
	}

	return c.JSON(fiber.Map{"submission": submission})
}

func portfolioPointsForTier(tier string) int {
	switch tier {
	case models.QuestTierHigh:
		return 30
	case models.QuestTierMid:
		return 20
	default:
		return 10
	}
}

func invalidateQuestListCache() {
	// Listings are keyed per filter; rather than tracking every key the
	// short TTL bounds staleness and this clears only the default page.
	if err := cache.Delete("quests:list:::1:10"); err != nil {
		log.Debugf("[Quest] Cache invalidation skipped: %v", err)
	}
}
