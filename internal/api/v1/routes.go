package apiv1

import "github.com/gofiber/fiber/v2"

// RegisterHandlers attaches all v1 routes to the given router group.
func RegisterHandlers(r fiber.Router, s *APIServer) {
	r.Get("/ping", s.GetPing)

	r.Post("/accounts", s.PostAccount)
	r.Get("/accounts/:uuid/entitlement", s.GetEntitlement)
	r.Get("/accounts/:uuid/can-add", s.GetCanAdd)
	r.Put("/accounts/:uuid/tier", s.PutTier)
	r.Post("/accounts/:uuid/enforce", s.PostEnforce)
	r.Post("/accounts/:uuid/records", s.PostRecord)

	r.Post("/records/:uuid/resolve", s.PostResolveRecord)
}
