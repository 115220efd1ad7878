package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/KerjaQuest/KerjaQuest/app/repository"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/cache"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/database"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/env"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/ledger"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/router"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/scheduler"
)

func main() {
	app, manager := NewApplication()

	if err := manager.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Graceful shutdown: finish in-flight requests and a running sweep
	// before the process exits.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		log.Info("Shutting down...")
		manager.Stop()
		if err := app.Shutdown(); err != nil {
			log.Errorf("Server shutdown failed: %v", err)
		}
	}()

	addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "0.0.0.0"), env.GetEnv("APP_PORT", "4000"))
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func NewApplication() (*fiber.App, *scheduler.Manager) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	app := fiber.New(fiber.Config{
		AppName:   "KerjaQuest",
		BodyLimit: 4 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// ROUTER
	router.InstallRouter(app)

	repo := ledger.NewRepository(database.GetDB())
	manager := scheduler.NewManager(scheduler.NewSweeper(repo))

	return app, manager
}
