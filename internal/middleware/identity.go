package middleware

// identity.go defines helper functions shared across middleware files and
// handlers: reading the authenticated actor back out of the Echo context and
// converting individual JWT claims.

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// CurrentActor returns the authenticated actor stored by JWTAuth.  The
// second return is false on routes that skipped authentication.
func CurrentActor(c echo.Context) (model.Actor, bool) {
	actor, ok := c.Get("actor").(model.Actor)
	return actor, ok
}

// claimString reads a string claim, tolerating absence.
func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// claimUint64 reads a numeric claim.  JSON numbers arrive as float64; string
// subjects are accepted too since some issuers serialize ids that way.
func claimUint64(claims jwt.MapClaims, key string) uint64 {
	switch v := claims[key].(type) {
	case float64:
		if v > 0 {
			return uint64(v)
		}
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
