// Package httpapi exposes the fetcher's public surface over HTTP,
// grounded on the internal/engine.Handler + router.go pattern.
// It carries no business logic beyond request decoding, delegating to
// internal/fetch, and mapping apperr kinds to status codes.
package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"graphfetch/internal/dbconn"
	"graphfetch/internal/fetch"
)

// Handler holds the dependencies every route needs.
type Handler struct {
	DB      *dbconn.Pool
	Fetcher *fetch.Fetcher
}

func NewHandler(db *dbconn.Pool, f *fetch.Fetcher) *Handler {
	return &Handler{DB: db, Fetcher: f}
}

type fetchRequest struct {
	Tree fetch.Tree `json:"tree"`
	IDs  []string   `json:"ids"`
}

// Fetch handles POST /v1/fetch: {tree: {entity, nested}, ids: [...]} ->
// one JSON object per existing id.
func (h *Handler) Fetch(c *fiber.Ctx) error {
	var req fetchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	rows, err := h.Fetcher.Entities(c.Context(), h.DB, req.Tree, req.IDs, nil)
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

type setRelationRequest struct {
	From fetch.EntityID `json:"from"`
	To   fetch.EntityID `json:"to"`
}

// SetRelation handles POST /v1/relations.
func (h *Handler) SetRelation(c *fiber.Ctx) error {
	var req setRelationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.Fetcher.SetRelation(c.Context(), h.DB, req.From, req.To); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type removeRelationRequest struct {
	Pairs []fetch.RelationPair `json:"pairs"`
}

// RemoveRelation handles DELETE /v1/relations.
func (h *Handler) RemoveRelation(c *fiber.Ctx) error {
	var req removeRelationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.Fetcher.RemoveRelation(c.Context(), h.DB, req.Pairs); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Health handles GET /health.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
