package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// RequireRole returns a middleware function that enforces that the
// authenticated actor holds one of the given workflow roles.  It assumes
// JWTAuth already ran and stored the role claim under "role"; a missing or
// disallowed role aborts the request with 403 Forbidden.  Fine-grained
// checks (a verifier may only act on requests delegated to them, a
// requester may only withdraw their own request) live in the engine, not
// here.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[string(r)] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
