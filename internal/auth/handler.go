package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"timetrack-backend/internal/store"
	"timetrack-backend/internal/timelog"
)

// Handler serves login and token refresh for admin accounts.
type Handler struct {
	store     *store.Store
	jwtSecret string
}

func NewHandler(s *store.Store, jwtSecret string) *Handler {
	return &Handler{store: s, jwtSecret: jwtSecret}
}

func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Post("/auth/login", h.Login)
	app.Post("/auth/refresh", h.Refresh)
}

// Login handles POST /auth/login
func (h *Handler) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondAppError(c, timelog.NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body"))
	}

	pb := h.store.Dialect.NewParamBuilder()
	row, err := store.QueryRow(c.Context(), h.store.DB,
		fmt.Sprintf(`SELECT id, password_hash, roles FROM _users WHERE email = %s AND active = %s`,
			pb.Add(req.Email), pb.Add(true)),
		pb.Params()...)
	if errors.Is(err, store.ErrNotFound) {
		return respondAppError(c, timelog.UnauthorizedError("Invalid credentials"))
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	hash, _ := row["password_hash"].(string)
	if !CheckPassword(req.Password, hash) {
		return respondAppError(c, timelog.UnauthorizedError("Invalid credentials"))
	}

	userID := fmt.Sprintf("%v", row["id"])
	roles := parseRoles(row["roles"])

	access, err := GenerateAccessToken(userID, roles, h.jwtSecret)
	if err != nil {
		return fmt.Errorf("issue access token: %w", err)
	}

	refresh := GenerateRefreshToken()
	pb = h.store.Dialect.NewParamBuilder()
	_, err = store.Exec(c.Context(), h.store.DB,
		fmt.Sprintf(`INSERT INTO _refresh_tokens (id, user_id, token, expires_at) VALUES (%s, %s, %s, %s)`,
			pb.Add(store.GenerateUUID()), pb.Add(userID), pb.Add(refresh),
			pb.Add(time.Now().Add(RefreshTokenTTL).UTC().Format(time.RFC3339))),
		pb.Params()...)
	if err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}

	return c.JSON(fiber.Map{"access_token": access, "refresh_token": refresh})
}

// Refresh handles POST /auth/refresh
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondAppError(c, timelog.NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body"))
	}

	pb := h.store.Dialect.NewParamBuilder()
	row, err := store.QueryRow(c.Context(), h.store.DB,
		fmt.Sprintf(`SELECT rt.user_id, rt.expires_at, u.roles
		 FROM _refresh_tokens rt JOIN _users u ON u.id = rt.user_id
		 WHERE rt.token = %s`, pb.Add(req.RefreshToken)),
		pb.Params()...)
	if errors.Is(err, store.ErrNotFound) {
		return respondAppError(c, timelog.UnauthorizedError("Invalid refresh token"))
	}
	if err != nil {
		return fmt.Errorf("lookup refresh token: %w", err)
	}

	if expired(row["expires_at"]) {
		return respondAppError(c, timelog.UnauthorizedError("Refresh token expired"))
	}

	userID := fmt.Sprintf("%v", row["user_id"])
	access, err := GenerateAccessToken(userID, parseRoles(row["roles"]), h.jwtSecret)
	if err != nil {
		return fmt.Errorf("issue access token: %w", err)
	}
	return c.JSON(fiber.Map{"access_token": access})
}

func parseRoles(v any) []string {
	s, _ := v.(string)
	var roles []string
	if s != "" {
		if err := json.Unmarshal([]byte(s), &roles); err != nil {
			return nil
		}
	}
	return roles
}

func expired(v any) bool {
	switch t := v.(type) {
	case time.Time:
		return t.Before(time.Now())
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return true
		}
		return parsed.Before(time.Now())
	default:
		return true
	}
}
