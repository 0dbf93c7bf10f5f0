package admin

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"timetrack-backend/internal/settings"
	"timetrack-backend/internal/timelog"
)

// Handler exposes the webhook settings to administrators. Settings are
// read and written through the DB store, so a change takes effect for
// the very next event; the pipeline re-reads on every decision.
type Handler struct {
	settings *settings.DBStore
}

func NewHandler(s *settings.DBStore) *Handler {
	return &Handler{settings: s}
}

func RegisterRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	grp := app.Group("/api/admin", middleware...)
	grp.Get("/webhook_settings", h.Get)
	grp.Put("/webhook_settings", h.Update)
}

// Get handles GET /api/admin/webhook_settings
func (h *Handler) Get(c *fiber.Ctx) error {
	cfg, err := h.settings.Load(c.Context())
	if err != nil {
		return fmt.Errorf("load webhook settings: %w", err)
	}
	return c.JSON(fiber.Map{"data": cfg})
}

// Update handles PUT /api/admin/webhook_settings
func (h *Handler) Update(c *fiber.Ctx) error {
	var cfg settings.Settings
	if err := c.BodyParser(&cfg); err != nil {
		return respondError(c, timelog.NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body"))
	}
	if cfg.Enabled != "0" && cfg.Enabled != "1" {
		return respondError(c, timelog.NewAppError("INVALID_PAYLOAD", 400, `enabled must be "0" or "1"`))
	}

	if err := h.settings.Save(c.Context(), cfg); err != nil {
		return fmt.Errorf("save webhook settings: %w", err)
	}
	return c.JSON(fiber.Map{"data": cfg})
}

func respondError(c *fiber.Ctx, appErr *timelog.AppError) error {
	return c.Status(appErr.Status).JSON(timelog.ErrorResponse{Error: appErr})
}
