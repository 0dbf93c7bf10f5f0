package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"timetrack-backend/internal/timelog"
)

// UserContext identifies the authenticated caller on a request.
type UserContext struct {
	ID    string
	Roles []string
}

func (u *UserContext) IsAdmin() bool {
	for _, role := range u.Roles {
		if role == "admin" {
			return true
		}
	}
	return false
}

// Middleware returns a Fiber middleware that validates JWT tokens and
// sets the UserContext on the request.
func Middleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return respondAppError(c, timelog.UnauthorizedError("Missing auth token"))
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return respondAppError(c, timelog.UnauthorizedError("Invalid auth header format"))
		}

		claims, err := ParseAccessToken(parts[1], secret)
		if err != nil {
			return respondAppError(c, timelog.UnauthorizedError("Invalid or expired token"))
		}

		c.Locals("user", &UserContext{ID: claims.Subject, Roles: claims.Roles})
		return c.Next()
	}
}

// RequireAdmin checks the authenticated user has the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*UserContext)
		if !ok || user == nil {
			return respondAppError(c, timelog.UnauthorizedError("Missing auth token"))
		}
		if !user.IsAdmin() {
			return respondAppError(c, timelog.ForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

func respondAppError(c *fiber.Ctx, appErr *timelog.AppError) error {
	return c.Status(appErr.Status).JSON(timelog.ErrorResponse{Error: appErr})
}
