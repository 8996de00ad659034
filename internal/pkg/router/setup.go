package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/FreshTrackApp/FreshTrack/internal/pkg/subscription"
)

// Router installs a group of routes on the app
type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter wires all routers into the app.
func InstallRouter(app *fiber.App, svc *subscription.Service) {
	setup(app, NewApiRouter(svc))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
