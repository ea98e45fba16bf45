package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-room-reservation/internal/engine"
	"github.com/iliyamo/campus-room-reservation/internal/middleware"
	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// currentActor extracts the authenticated actor placed in the context by the
// JWT middleware.  Handlers behind JWTAuth can rely on it being present; a
// missing actor means the route was wired without authentication.
func currentActor(c echo.Context) (model.Actor, error) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return model.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return actor, nil
}

// pathID parses the numeric :id path parameter.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// queryUint parses a required numeric query parameter.
func queryUint(c echo.Context, name string) (uint64, error) {
	v, err := strconv.ParseUint(c.QueryParam(name), 10, 64)
	if err != nil || v == 0 {
		return 0, errors.New("invalid " + name)
	}
	return v, nil
}

// engineError translates an engine error into the HTTP response contract:
// validation failures are 400, authorization failures 403, missing entities
// 404, illegal transitions 409, and a broken occupancy invariant is a plain
// 500 so it pages rather than retries.
func engineError(c echo.Context, err error) error {
	switch {
	case engine.IsValidation(err):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrNotAuthorizedActor):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrRequestNotFound), errors.Is(err, engine.ErrAllocationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case engine.IsTransition(err):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrInvariantViolation):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "occupancy invariant violated"})
	default:
		c.Logger().Errorf("internal error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
