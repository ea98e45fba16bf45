package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-room-reservation/internal/engine"
)

// AvailabilityHandler serves the derived availability view.  The endpoint is
// public: prospective requesters browse free cells before authenticating.
// Results are advisory; the ledger write at approval time remains the only
// authoritative check.
type AvailabilityHandler struct {
	View *engine.AvailabilityView
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(v *engine.AvailabilityView) *AvailabilityHandler {
	if v == nil {
		panic("nil availability view passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{View: v}
}

// Query handles GET /v1/availability.  Exactly one of building_id or
// room_id selects the scope; from and to bound the date range.
func (h *AvailabilityHandler) Query(c echo.Context) error {
	from := c.QueryParam("from")
	to := c.QueryParam("to")

	buildingParam := c.QueryParam("building_id")
	roomParam := c.QueryParam("room_id")
	if (buildingParam == "") == (roomParam == "") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "exactly one of building_id or room_id is required"})
	}

	var (
		matrix *engine.AvailabilityMatrix
		err    error
	)
	if buildingParam != "" {
		buildingID, perr := strconv.ParseUint(buildingParam, 10, 64)
		if perr != nil || buildingID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid building_id"})
		}
		matrix, err = h.View.QueryBuilding(c.Request().Context(), buildingID, from, to)
	} else {
		roomID, perr := strconv.ParseUint(roomParam, 10, 64)
		if perr != nil || roomID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room_id"})
		}
		matrix, err = h.View.QueryRoom(c.Request().Context(), roomID, from, to)
	}
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, matrix)
}
