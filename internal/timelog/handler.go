package timelog

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"timetrack-backend/internal/store"
)

// Handler exposes the host's time entry operations over HTTP. Each
// route maps to one Service mutation path, which is what drives the
// lifecycle hooks.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func RegisterRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	api := app.Group("/api", middleware...)
	api.Get("/time_entries/:id", h.GetByID)
	api.Post("/time_entries", h.Create)
	api.Put("/time_entries/:id", h.Update)
	api.Patch("/time_entries/:id", h.InlineUpdate)
	api.Post("/time_entries/bulk_edit", h.BulkEdit)
	api.Post("/time_entries/update_all", h.UpdateAll)
	api.Delete("/time_entries/:id", h.Delete)
	api.Delete("/issues/:id", h.DeleteIssue)
}

type timeEntryRequest struct {
	UserID            int64                     `json:"user_id"`
	ProjectID         int64                     `json:"project_id"`
	IssueID           *int64                    `json:"issue_id"`
	ActivityID        int64                     `json:"activity_id"`
	Hours             float64                   `json:"hours"`
	Comments          string                    `json:"comments"`
	SpentOn           string                    `json:"spent_on"`
	CustomFieldValues []customFieldValueRequest `json:"custom_field_values"`
}

type customFieldValueRequest struct {
	CustomFieldID int64  `json:"custom_field_id"`
	Value         string `json:"value"`
}

func (req *timeEntryRequest) toEntry(id int64) *TimeEntry {
	entry := &TimeEntry{
		ID:         id,
		UserID:     req.UserID,
		ProjectID:  req.ProjectID,
		IssueID:    req.IssueID,
		ActivityID: req.ActivityID,
		Hours:      req.Hours,
		Comments:   req.Comments,
		SpentOn:    req.SpentOn,
	}
	for _, cfv := range req.CustomFieldValues {
		entry.CustomFieldValues = append(entry.CustomFieldValues, CustomFieldValue{
			FieldID: cfv.CustomFieldID,
			Value:   cfv.Value,
		})
	}
	return entry
}

// GetByID handles GET /api/time_entries/:id
func (h *Handler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	entry, err := h.service.Repository().FindByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return respondError(c, NotFoundError("time entry", id))
		}
		return fmt.Errorf("get time entry %d: %w", id, err)
	}
	return c.JSON(fiber.Map{"data": entryView(entry)})
}

// Create handles POST /api/time_entries (quick log / log time form).
func (h *Handler) Create(c *fiber.Ctx) error {
	var req timeEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body"))
	}

	entry, err := h.service.LogTime(c.Context(), req.toEntry(0))
	if err != nil {
		return fmt.Errorf("create time entry: %w", err)
	}
	return c.Status(201).JSON(fiber.Map{"data": entryView(entry)})
}

// Update handles PUT /api/time_entries/:id (edit form, same hook path
// as logging time while editing an issue).
func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req timeEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body"))
	}

	entry, err := h.service.LogTime(c.Context(), req.toEntry(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return respondError(c, NotFoundError("time entry", id))
		}
		return fmt.Errorf("update time entry %d: %w", id, err)
	}
	return c.JSON(fiber.Map{"data": entryView(entry)})
}

// InlineUpdate handles PATCH /api/time_entries/:id (inline edit from
// the spent-time list; the row commits before the hook fires).
func (h *Handler) InlineUpdate(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var changes map[string]any
	if err := c.BodyParser(&changes); err != nil {
		return respondError(c, NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body"))
	}

	entry, err := h.service.Repository().FindByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return respondError(c, NotFoundError("time entry", id))
		}
		return fmt.Errorf("fetch time entry %d: %w", id, err)
	}
	applyChanges(entry, KeyValueUpdate(changes))

	entry, err = h.service.UpdateFromList(c.Context(), entry)
	if err != nil {
		return fmt.Errorf("inline update %d: %w", id, err)
	}
	return c.JSON(fiber.Map{"data": entryView(entry)})
}

// BulkEdit handles POST /api/time_entries/bulk_edit
func (h *Handler) BulkEdit(c *fiber.Ctx) error {
	var req struct {
		IDs     []int64        `json:"ids"`
		Changes map[string]any `json:"changes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body"))
	}
	if len(req.IDs) == 0 {
		return respondError(c, NewAppError("INVALID_PAYLOAD", 400, "No entry ids given"))
	}

	entries, err := h.service.BulkEdit(c.Context(), req.IDs, KeyValueUpdate(req.Changes))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return respondError(c, NewAppError("NOT_FOUND", 404, "One or more entries not found"))
		}
		return fmt.Errorf("bulk edit: %w", err)
	}

	views := make([]fiber.Map, 0, len(entries))
	for _, entry := range entries {
		views = append(views, entryView(entry))
	}
	return c.JSON(fiber.Map{"data": views})
}

// UpdateAll handles POST /api/time_entries/update_all, the raw bulk
// primitive. The body carries exactly one update shape: "updates" (key
// value), "template" + "values" (positional), or "raw".
func (h *Handler) UpdateAll(c *fiber.Ctx) error {
	var req struct {
		Scope    map[string]any `json:"scope"`
		Updates  map[string]any `json:"updates"`
		Template string         `json:"template"`
		Values   []any          `json:"values"`
		Raw      string         `json:"raw"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body"))
	}

	var spec UpdateSpec
	switch {
	case len(req.Updates) > 0:
		spec = KeyValueUpdate(req.Updates)
	case req.Template != "":
		spec = PositionalUpdate{Template: req.Template, Values: req.Values}
	case req.Raw != "":
		spec = RawUpdate(req.Raw)
	default:
		return respondError(c, NewAppError("INVALID_PAYLOAD", 400, "No update specification given"))
	}

	affected, err := h.service.UpdateAll(c.Context(), Scope(req.Scope), spec)
	if err != nil {
		return fmt.Errorf("update_all: %w", err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"affected": affected}})
}

// Delete handles DELETE /api/time_entries/:id
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.service.Destroy(c.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return respondError(c, NotFoundError("time entry", id))
		}
		return fmt.Errorf("delete time entry %d: %w", id, err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id}})
}

// DeleteIssue handles DELETE /api/issues/:id. Linked time entries are
// detached with the raw bulk primitive before the issue row goes away,
// which is the mutation path that bypasses per-record hooks.
func (h *Handler) DeleteIssue(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if _, err := h.service.UpdateAll(c.Context(),
		Scope{"issue_id": id}, RawUpdate("issue_id = NULL")); err != nil {
		return fmt.Errorf("detach entries of issue %d: %w", id, err)
	}

	repo := h.service.Repository()
	pb := repo.store.Dialect.NewParamBuilder()
	affected, err := store.Exec(c.Context(), repo.store.DB,
		fmt.Sprintf(`DELETE FROM issues WHERE id = %s`, pb.Add(id)), pb.Params()...)
	if err != nil {
		return fmt.Errorf("delete issue %d: %w", id, err)
	}
	if affected == 0 {
		return respondError(c, NotFoundError("issue", id))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id}})
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, respondError(c, NewAppError("INVALID_ID", 400, "Invalid id"))
	}
	return id, nil
}

func respondError(c *fiber.Ctx, appErr *AppError) error {
	return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
}

func entryView(entry *TimeEntry) fiber.Map {
	view := fiber.Map{
		"id":          entry.ID,
		"user_id":     entry.UserID,
		"project_id":  entry.ProjectID,
		"issue_id":    entry.IssueID,
		"activity_id": entry.ActivityID,
		"hours":       entry.Hours,
		"comments":    entry.Comments,
		"spent_on":    entry.SpentOn,
	}
	if entry.Activity != nil {
		view["activity"] = fiber.Map{"id": entry.Activity.ID, "name": entry.Activity.Name}
	}
	return view
}
