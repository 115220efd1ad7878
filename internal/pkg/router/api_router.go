package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/KerjaQuest/KerjaQuest/app/controllers"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/cache"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/env"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/middleware"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api/v1", limiter.New(limiter.Config{
		Max:        env.GetEnvInt("RATE_LIMIT_MAX", 120),
		Expiration: 1 * time.Minute,
		Storage:    newLimiterStorage(),
	}))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth
	api.Post("/auth/register", controllers.HandleRegister)
	api.Post("/auth/login", controllers.HandleLogin)
	api.Get("/auth/me", middleware.VerifyToken, controllers.HandleMe)

	// Gateway notifications are authenticated by signature, not by token.
	api.Post("/payments/notification", controllers.HandlePaymentNotification)

	// Plans and purchases
	api.Get("/plans", controllers.HandleListPlans)
	api.Post("/subscriptions", middleware.VerifyToken, middleware.VerifyEmployer, controllers.HandleBuySubscription)
	api.Get("/subscriptions/me", middleware.VerifyToken, middleware.VerifyEmployer, controllers.HandleGetMySubscription)
	api.Post("/quota", middleware.VerifyToken, middleware.VerifyEmployer, controllers.HandleBuyQuota)
	api.Get("/quota/balance", middleware.VerifyToken, middleware.VerifyEmployer, controllers.HandleGetQuotaBalance)

	// Jobs
	api.Get("/jobs", controllers.HandleListJobs)
	api.Get("/jobs/:id", controllers.HandleGetJob)
	api.Post("/jobs", middleware.VerifyToken, middleware.VerifyEmployer, controllers.HandleCreateJob)
	api.Post("/jobs/:id/apply", middleware.VerifyToken, middleware.VerifyWorker, controllers.HandleApplyToJob)
	api.Get("/jobs/:id/applications", middleware.VerifyToken, middleware.VerifyEmployer, controllers.HandleListJobApplications)
	api.Patch("/applications/:applicationId", middleware.VerifyToken, middleware.VerifyEmployer, controllers.HandleUpdateApplicationStatus)
	api.Get("/applications/me", middleware.VerifyToken, middleware.VerifyWorker, controllers.HandleListMyApplications)

	// Quests
	api.Get("/quests", controllers.HandleListQuests)
	api.Get("/quests/:id", controllers.HandleGetQuest)
	api.Post("/quests", middleware.VerifyToken, middleware.VerifyEmployer, controllers.HandleCreateQuest)
	api.Post("/quests/:id/start", middleware.VerifyToken, middleware.VerifyWorker, controllers.HandleStartQuest)
	api.Post("/quests/:id/submit", middleware.VerifyToken, middleware.VerifyWorker, controllers.HandleSubmitQuest)
	api.Patch("/submissions/:submissionId/assess", middleware.VerifyToken, middleware.VerifyEmployer, controllers.HandleAssessSubmission)

	// Portfolio
	api.Get("/portfolio/me", middleware.VerifyToken, middleware.VerifyWorker, controllers.HandleListMyPortfolio)
	api.Get("/portfolio/:id", controllers.HandleGetPortfolioItem)

	// Employer dashboard
	api.Get("/employer/stats", middleware.VerifyToken, middleware.VerifyEmployer, controllers.HandleEmployerStats)
}

// newLimiterStorage backs the rate limiter with Redis so counters survive
// restarts and are shared between instances. Database 1 keeps limiter keys
// out of the cache keyspace.
func newLimiterStorage() *redis.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if client := cache.GetClient(); client != nil {
		if h, p, err := net.SplitHostPort(client.Options().Addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := client.Options().Password; p != "" {
			password = p
		}
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}
