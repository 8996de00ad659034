package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/FreshTrackApp/FreshTrack/app/models"
	"github.com/FreshTrackApp/FreshTrack/app/repository"
	"github.com/FreshTrackApp/FreshTrack/internal/pkg/cache"
	"github.com/FreshTrackApp/FreshTrack/internal/pkg/connectivity"
	"github.com/FreshTrackApp/FreshTrack/internal/pkg/database"
	"github.com/FreshTrackApp/FreshTrack/internal/pkg/enforcer"
	"github.com/FreshTrackApp/FreshTrack/internal/pkg/entitlementcache"
	"github.com/FreshTrackApp/FreshTrack/internal/pkg/env"
	"github.com/FreshTrackApp/FreshTrack/internal/pkg/router"
	"github.com/FreshTrackApp/FreshTrack/internal/pkg/subscription"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()
	repository.InitializeFactory(db)
	if err := models.LoadSettings(db); err != nil {
		log.Printf("Warning: could not load settings, using defaults: %v", err)
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName: "FreshTrack",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// entitlement engine wiring
	settings := models.GetAppSettings()
	repos := repository.GetGlobalRepositories()
	probe := connectivity.NewDBProbe(db, settings.GetConnectivityProbeInterval())
	store := entitlementcache.NewStore(
		entitlementcache.NewRedisKV(),
		settings.GetEntitlementTTL(),
		entitlementcache.DefaultDurableTTL,
	)
	manager := enforcer.GetManager()
	svc := subscription.NewService(
		repos.Account,
		repos.Record,
		store,
		manager.GetEnforcer(),
		probe,
		settings.GetRecordCountTTL(),
	)

	// lapsed-subscription sweep
	manager.Start()

	// ROUTER
	router.InstallRouter(app, svc)

	return app
}
