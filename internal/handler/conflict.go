package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-room-reservation/internal/engine"
	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// ConflictHandler exposes conflict arbitration: listing the contending
// requests for a cell and applying an explicit resolution.  Routes using it
// are restricted to the ARBITRATOR role in the router.
type ConflictHandler struct {
	Arbiter *engine.Arbiter
}

// NewConflictHandler constructs a ConflictHandler.
func NewConflictHandler(a *engine.Arbiter) *ConflictHandler {
	if a == nil {
		panic("nil arbiter passed to NewConflictHandler")
	}
	return &ConflictHandler{Arbiter: a}
}

// Pending handles GET /v1/conflicts/pending.  Query parameters room_id,
// date and slot_id select the cell; the response lists the requests parked
// in arbitration for it, oldest first.
func (h *ConflictHandler) Pending(c echo.Context) error {
	key, err := cellKeyFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	reqs, err := h.Arbiter.PendingForCell(c.Request().Context(), key)
	if err != nil {
		return engineError(c, err)
	}
	views := make([]requestView, 0, len(reqs))
	for _, req := range reqs {
		views = append(views, viewOf(req))
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": views})
}

// Resolve handles POST /v1/conflicts/resolve.  The body names the full
// contending set and exactly one winner; the engine seats the winner,
// rejects every loser and freezes the outcome as an immutable case.
func (h *ConflictHandler) Resolve(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var body struct {
		MemberIDs []uint64 `json:"member_ids"`
		WinnerID  uint64   `json:"winner_id"`
		Notes     string   `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	cse, err := h.Arbiter.Resolve(c.Request().Context(), body.MemberIDs, body.WinnerID, actor, body.Notes)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"case_id":    cse.ID,
		"public_id":  cse.PublicID,
		"room_id":    cse.RoomID,
		"date":       cse.Date,
		"slot_id":    cse.SlotID,
		"winner_id":  cse.WinnerID,
		"member_ids": cse.MemberIDs,
	})
}

// Dismiss handles POST /v1/conflicts/dismiss.  It rejects one request stuck
// in arbitration without a counterpart to arbitrate against, typically an
// insisting submission whose cell already has a confirmed occupant.  Notes
// are mandatory.
func (h *ConflictHandler) Dismiss(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var body struct {
		RequestID uint64 `json:"request_id"`
		Notes     string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	state, err := h.Arbiter.Dismiss(c.Request().Context(), body.RequestID, actor, body.Notes)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": body.RequestID, "state": string(state)})
}

// cellKeyFromQuery parses the room_id/date/slot_id query triple.
func cellKeyFromQuery(c echo.Context) (model.CellKey, error) {
	var key model.CellKey
	roomID, err := queryUint(c, "room_id")
	if err != nil {
		return key, err
	}
	slotID, err := queryUint(c, "slot_id")
	if err != nil {
		return key, err
	}
	date := c.QueryParam("date")
	if _, err := model.ParseDate(date); err != nil {
		return key, err
	}
	return model.CellKey{RoomID: roomID, Date: date, SlotID: slotID}, nil
}
