package httpapi

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", h.Health)

	v1 := app.Group("/v1")
	v1.Post("/fetch", h.Fetch)
	v1.Post("/relations", h.SetRelation)
	v1.Delete("/relations", h.RemoveRelation)
}
