package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strconv"  // numeric claim conversion
	"strings"  // string utilities for prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// issued by the campus identity provider and injects the caller's identity
// into the request context.  Tokens carry the subject (numeric user id), a
// display name and a workflow role.  Handlers read the identity back with
// CurrentActor(c); the raw string claims stay available under "user_id" and
// "role" for the rate limiter and the role gate.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Only HS256 tokens are accepted; a token signed with any other
			// method is rejected before the secret is ever used.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			actor := model.Actor{
				ID:   claimUint64(claims, "sub"),
				Name: claimString(claims, "name"),
				Role: model.Role(claimString(claims, "role")),
			}
			if actor.ID == 0 || !actor.Role.Valid() {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid identity claims"})
			}

			c.Set("actor", actor)
			c.Set("user_id", strconv.FormatUint(actor.ID, 10))
			c.Set("role", string(actor.Role))
			return next(c)
		}
	}
}
