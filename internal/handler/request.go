package handler

import (
	"net/http" // HTTP status codes
	"time"     // timestamp formatting in views

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/campus-room-reservation/internal/engine"
	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// RequestHandler exposes the reservation workflow over HTTP: submitting a
// request, reviewing it (verify / approve / reject / forward) and
// withdrawing it.  All methods assume JWT authentication and role
// validation already ran in middleware; ownership and reviewer checks are
// enforced by the engine itself.
type RequestHandler struct {
	Workflow *engine.Workflow
	Requests engine.RequestStore
}

// NewRequestHandler constructs a RequestHandler.  Both dependencies must be
// non-nil.
func NewRequestHandler(wf *engine.Workflow, store engine.RequestStore) *RequestHandler {
	if wf == nil || store == nil {
		panic("nil dependency passed to NewRequestHandler")
	}
	return &RequestHandler{Workflow: wf, Requests: store}
}

// decisionView is one audit-trail entry as rendered to clients.
type decisionView struct {
	Seq       uint32  `json:"seq"`
	ActorID   uint64  `json:"actor_id"`
	ActorName string  `json:"actor_name,omitempty"`
	ActorRole string  `json:"actor_role"`
	Action    string  `json:"action"`
	Comment   string  `json:"comment,omitempty"`
	CaseID    *uint64 `json:"case_id,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// requestView is the client-facing shape of a reservation request.  Internal
// numeric ids stay present for reviewer tooling; the public uuid is what
// requesters normally reference.
type requestView struct {
	ID            uint64         `json:"id"`
	PublicID      string         `json:"public_id"`
	RequesterID   uint64         `json:"requester_id"`
	RequesterRole string         `json:"requester_role"`
	RoomID        uint64         `json:"room_id"`
	Date          string         `json:"date"`
	SlotID        uint64         `json:"slot_id"`
	PartySize     uint32         `json:"party_size"`
	Category      string         `json:"category"`
	Payload       model.Payload  `json:"payload"`
	Justification string         `json:"justification,omitempty"`
	VerifierID    *uint64        `json:"verifier_id,omitempty"`
	ApproverID    *uint64        `json:"approver_id,omitempty"`
	Source        string         `json:"source"`
	State         string         `json:"state"`
	Decisions     []decisionView `json:"decisions,omitempty"`
	CreatedAt     string         `json:"created_at,omitempty"`
}

func viewOf(req *model.ReservationRequest) requestView {
	v := requestView{
		ID:            req.ID,
		PublicID:      req.PublicID,
		RequesterID:   req.RequesterID,
		RequesterRole: string(req.RequesterRole),
		RoomID:        req.RoomID,
		Date:          req.Date,
		SlotID:        req.SlotID,
		PartySize:     req.PartySize,
		Category:      string(req.Category),
		Payload:       req.Payload,
		Justification: req.Justification,
		VerifierID:    req.VerifierID,
		ApproverID:    req.ApproverID,
		Source:        string(req.Source),
		State:         string(req.State),
	}
	if !req.CreatedAt.IsZero() {
		v.CreatedAt = req.CreatedAt.UTC().Format(time.RFC3339)
	}
	for _, rec := range req.Decisions {
		dv := decisionView{
			Seq:       rec.Seq,
			ActorID:   rec.ActorID,
			ActorName: rec.ActorName,
			ActorRole: string(rec.ActorRole),
			Action:    string(rec.Action),
			Comment:   rec.Comment,
			CaseID:    rec.CaseID,
		}
		if !rec.CreatedAt.IsZero() {
			dv.CreatedAt = rec.CreatedAt.UTC().Format(time.RFC3339)
		}
		v.Decisions = append(v.Decisions, dv)
	}
	return v
}

// roomView is the reduced room shape used in alternative suggestions.
type roomView struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Capacity uint32 `json:"capacity"`
	RoomType string `json:"room_type"`
}

// Submit handles POST /v1/requests.  The body carries the target cell, the
// party size, a category with its payload variant, an optional designated
// verifier and the insist flag.  When the cell is already occupied and the
// caller did not insist, no request is created and the response is a 409
// carrying up to five alternative rooms; insisting creates the request
// directly in arbitration.
func (h *RequestHandler) Submit(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var body struct {
		RoomID        uint64        `json:"room_id"`
		Date          string        `json:"date"`
		SlotID        uint64        `json:"slot_id"`
		PartySize     uint32        `json:"party_size"`
		Category      string        `json:"category"`
		Payload       model.Payload `json:"payload"`
		Justification string        `json:"justification"`
		VerifierID    *uint64       `json:"verifier_id"`
		Insist        bool          `json:"insist"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	result, err := h.Workflow.Submit(c.Request().Context(), engine.SubmitDraft{
		Requester:     actor,
		RoomID:        body.RoomID,
		Date:          body.Date,
		SlotID:        body.SlotID,
		PartySize:     body.PartySize,
		Category:      model.Category(body.Category),
		Payload:       body.Payload,
		Justification: body.Justification,
		VerifierID:    body.VerifierID,
		Insist:        body.Insist,
	})
	if err != nil {
		return engineError(c, err)
	}

	if result.Request == nil {
		// Occupied cell, no insist: offer alternatives, create nothing.
		alts := make([]roomView, 0, len(result.Alternatives))
		for _, r := range result.Alternatives {
			alts = append(alts, roomView{ID: r.ID, Name: r.Name, Capacity: r.Capacity, RoomType: string(r.RoomType)})
		}
		return c.JSON(http.StatusConflict, echo.Map{
			"error":        "cell occupied",
			"alternatives": alts,
		})
	}
	return c.JSON(http.StatusCreated, viewOf(result.Request))
}

// Get handles GET /v1/requests/:id.  Requesters may read their own
// requests; reviewer and arbitrator roles may read any.
func (h *RequestHandler) Get(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	req, err := h.Requests.Get(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	if isRequesterRole(actor.Role) && req.RequesterID != actor.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, viewOf(req))
}

// MyRequests handles GET /v1/my-requests and lists the caller's own
// requests, oldest first.
func (h *RequestHandler) MyRequests(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	reqs, err := h.Requests.ListByRequester(c.Request().Context(), actor.ID)
	if err != nil {
		return engineError(c, err)
	}
	views := make([]requestView, 0, len(reqs))
	for _, req := range reqs {
		views = append(views, viewOf(req))
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": views})
}

// Decide handles POST /v1/requests/:id/decision.  The body names the action
// (VERIFY, APPROVE, REJECT or FORWARD), an optional comment (mandatory on
// REJECT) and, for FORWARD, the approver to hand the request to.
func (h *RequestHandler) Decide(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	var body struct {
		Action    string  `json:"action"`
		Comment   string  `json:"comment"`
		ForwardTo *uint64 `json:"forward_to"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	state, err := h.Workflow.Decide(c.Request().Context(), id, actor, engine.DecideInput{
		Action:    model.DecisionAction(body.Action),
		Comment:   body.Comment,
		ForwardTo: body.ForwardTo,
	})
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "state": string(state)})
}

// Withdraw handles POST /v1/requests/:id/withdraw.  Withdrawal is
// idempotent: repeating it on an already-withdrawn request reports the same
// terminal state with 200.
func (h *RequestHandler) Withdraw(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	state, err := h.Workflow.Withdraw(c.Request().Context(), id, actor)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "state": string(state)})
}

func isRequesterRole(r model.Role) bool {
	return r == model.RoleRequester || r == model.RoleRequesterWithDelegate
}
