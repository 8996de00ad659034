package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/FreshTrackApp/FreshTrack/app/repository"
	apiv1 "github.com/FreshTrackApp/FreshTrack/internal/api/v1"
	"github.com/FreshTrackApp/FreshTrack/internal/pkg/middleware"
	"github.com/FreshTrackApp/FreshTrack/internal/pkg/subscription"
)

type ApiRouter struct {
	svc *subscription.Service
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	repos := repository.GetGlobalRepositories()
	v1 := api.Group("/v1", middleware.APIKeyAuthMiddleware())
	apiServer := apiv1.NewAPIServer(h.svc, repos.Account, repos.Record)
	apiv1.RegisterHandlers(v1, apiServer)
}

func NewApiRouter(svc *subscription.Service) *ApiRouter {
	return &ApiRouter{svc: svc}
}
