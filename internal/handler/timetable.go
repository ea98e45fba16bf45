package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-room-reservation/internal/engine"
	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// TimetableHandler exposes bulk allocation operations: activating a
// timetable and re-targeting a single allocation to a new slot or room.
// These routes are restricted to the APPROVER role; the engine records the
// resulting requests under the system actor.
type TimetableHandler struct {
	Generator *engine.Generator
}

// NewTimetableHandler constructs a TimetableHandler.
func NewTimetableHandler(g *engine.Generator) *TimetableHandler {
	if g == nil {
		panic("nil generator passed to NewTimetableHandler")
	}
	return &TimetableHandler{Generator: g}
}

// Activate handles POST /v1/timetables/:id/activate.  Every allocation of
// the timetable is expanded over the semester and written to the ledger;
// contended cells become gaps in the report and never abort the batch.
func (h *TimetableHandler) Activate(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid timetable id"})
	}
	report, err := h.Generator.ActivateTimetable(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// ChangeSlot handles POST /v1/allocations/:id/slot.  The enrollment clash
// check runs first: a CONFLICTING outcome returns the report without
// applying anything, and a course without enrollment data proceeds with the
// check recorded as BYPASSED.
func (h *TimetableHandler) ChangeSlot(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid allocation id"})
	}
	var body struct {
		SlotID uint64 `json:"slot_id"`
	}
	if err := c.Bind(&body); err != nil || body.SlotID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot_id is required"})
	}
	report, err := h.Generator.ApplySlotChange(c.Request().Context(), id, body.SlotID)
	if err != nil {
		return engineError(c, err)
	}
	if report.EnrollmentCheck == model.EnrollmentConflicting {
		// Nothing was applied; surface the conflicting students.
		return c.JSON(http.StatusConflict, report)
	}
	return c.JSON(http.StatusOK, report)
}

// ChangeRoom handles POST /v1/allocations/:id/room.  Room moves carry no
// enrollment risk, so the change releases the old cells and re-materializes
// directly.
func (h *TimetableHandler) ChangeRoom(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid allocation id"})
	}
	var body struct {
		RoomID uint64 `json:"room_id"`
	}
	if err := c.Bind(&body); err != nil || body.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id is required"})
	}
	report, err := h.Generator.ApplyRoomChange(c.Request().Context(), id, body.RoomID)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}
