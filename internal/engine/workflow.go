package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/campus-room-reservation/internal/model"
	"github.com/iliyamo/campus-room-reservation/internal/queue"
)

// Workflow owns a reservation request from submission through a terminal
// state.  Every advisory check it performs may be stale by design; the only
// authoritative step is the ledger write at approval time.
type Workflow struct {
	Ledger   CellLedger
	Requests RequestStore
	Clash    *ClashDetector
	Rooms    RoomCatalog
	Slots    SlotCatalog
	Notifier Notifier
}

// SubmitDraft carries everything the caller supplies at submission.  The
// requester's role is snapshotted onto the created request; later role
// changes never alter an in-flight workflow.
type SubmitDraft struct {
	Requester     model.Actor
	RoomID        uint64
	Date          string
	SlotID        uint64
	PartySize     uint32
	Category      model.Category
	Payload       model.Payload
	Justification string
	VerifierID    *uint64
	// Insist opts into arbitration when the target cell is already occupied
	// at submission time.  Without it the submitter only receives
	// alternatives and no request is created.
	Insist bool
}

// SubmitResult is either a created request or, when the cell was occupied
// and the submitter did not insist, an offer of alternative rooms with no
// state created.
type SubmitResult struct {
	Request      *model.ReservationRequest
	Alternatives []*model.Room
}

// DecideInput is one review action on a pending request.
type DecideInput struct {
	Action  model.DecisionAction
	Comment string
	// ForwardTo re-assigns the approver on a FORWARD action.
	ForwardTo *uint64
}

// Submit validates a draft and creates the request in its entry state.
//
// Entry rule: if the target cell is free per the advisory read, the request
// takes the direct path - a delegated requester starts at
// PENDING_VERIFICATION, an unmediated one at PENDING_APPROVAL.  If the cell
// already shows occupied, the submitter is offered alternatives; only an
// explicit insist creates the request, and then directly in
// PENDING_ARBITRATION, skipping the review chain entirely.
func (w *Workflow) Submit(ctx context.Context, draft SubmitDraft) (*SubmitResult, error) {
	if _, err := model.ParseDate(draft.Date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadDateRange, draft.Date)
	}
	room, err := w.Rooms.Room(ctx, draft.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil || !room.IsActive {
		return nil, fmt.Errorf("%w: room %d", ErrCellUnknown, draft.RoomID)
	}
	slot, err := w.Slots.Slot(ctx, draft.SlotID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: slot %d", ErrCellUnknown, draft.SlotID)
	}
	if draft.PartySize == 0 {
		return nil, fmt.Errorf("%w: party size must be positive", ErrBadRequest)
	}
	if draft.PartySize > room.Capacity {
		return nil, fmt.Errorf("%w: party %d, capacity %d", ErrCapacityExceeded, draft.PartySize, room.Capacity)
	}
	if err := draft.Payload.Validate(draft.Category); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	delegated := draft.Requester.Role == model.RoleRequesterWithDelegate
	if delegated && draft.VerifierID == nil {
		return nil, fmt.Errorf("%w: delegated requests require a designated verifier", ErrBadRequest)
	}

	key := model.CellKey{RoomID: draft.RoomID, Date: draft.Date, SlotID: draft.SlotID}
	status, err := w.Clash.CheckCell(ctx, key)
	if err != nil {
		return nil, err
	}

	var state model.RequestState
	switch {
	case status == CellOccupied && !draft.Insist:
		alts, err := w.Clash.SuggestAlternativeRooms(ctx, draft.Date, draft.SlotID, draft.PartySize, DefaultAlternativeLimit)
		if err != nil {
			return nil, err
		}
		return &SubmitResult{Alternatives: alts}, nil
	case status == CellOccupied:
		// Insisting on an occupied cell: straight to arbitration, the
		// review chain never applies.
		state = model.StatePendingArbitration
	case delegated:
		state = model.StatePendingVerification
	default:
		state = model.StatePendingApproval
	}

	now := time.Now().UTC()
	req := &model.ReservationRequest{
		PublicID:      uuid.NewString(),
		RequesterID:   draft.Requester.ID,
		RequesterRole: draft.Requester.Role,
		RoomID:        draft.RoomID,
		Date:          draft.Date,
		SlotID:        draft.SlotID,
		PartySize:     draft.PartySize,
		Category:      draft.Category,
		Payload:       draft.Payload,
		Justification: draft.Justification,
		VerifierID:    draft.VerifierID,
		Source:        model.SourceManual,
		State:         state,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := w.Requests.Create(ctx, req); err != nil {
		return nil, err
	}
	w.notify(queue.ReservationEvent{
		Kind:        queue.EventSubmitted,
		RecipientID: req.RequesterID,
		RequestID:   req.ID,
		PublicID:    req.PublicID,
		RoomID:      req.RoomID,
		RoomName:    room.Name,
		Date:        req.Date,
		SlotID:      req.SlotID,
		State:       string(req.State),
		OccurredAt:  now.Format(time.RFC3339),
	})
	return &SubmitResult{Request: req}, nil
}

// Decide applies one review action and returns the new state.  Contention
// at approval time is absorbed into PENDING_ARBITRATION and never surfaces
// as an error to the caller.
func (w *Workflow) Decide(ctx context.Context, requestID uint64, actor model.Actor, in DecideInput) (model.RequestState, error) {
	req, err := w.Requests.Get(ctx, requestID)
	if err != nil {
		return "", err
	}

	switch req.State {
	case model.StatePendingVerification:
		return w.decideVerification(ctx, req, actor, in)
	case model.StatePendingApproval:
		return w.decideApproval(ctx, req, actor, in)
	default:
		// PENDING_ARBITRATION is resolved by the arbiter, never
		// self-service; terminal and confirmed states accept no review
		// actions.
		return "", fmt.Errorf("%w: %s from %s", ErrInvalidTransition, in.Action, req.State)
	}
}

func (w *Workflow) decideVerification(ctx context.Context, req *model.ReservationRequest, actor model.Actor, in DecideInput) (model.RequestState, error) {
	if req.VerifierID == nil || actor.ID != *req.VerifierID {
		return "", fmt.Errorf("%w: only the designated verifier may act", ErrNotAuthorizedActor)
	}
	switch in.Action {
	case model.ActionVerify:
		return w.transition(ctx, req, model.StatePendingApproval, actor, model.ActionVerify, in.Comment, nil)
	case model.ActionReject:
		if in.Comment == "" {
			return "", ErrCommentRequired
		}
		return w.transition(ctx, req, model.StateRejected, actor, model.ActionReject, in.Comment, nil)
	default:
		return "", fmt.Errorf("%w: %s from %s", ErrInvalidTransition, in.Action, req.State)
	}
}

func (w *Workflow) decideApproval(ctx context.Context, req *model.ReservationRequest, actor model.Actor, in DecideInput) (model.RequestState, error) {
	if actor.Role != model.RoleApprover {
		return "", fmt.Errorf("%w: approval requires the approver role", ErrNotAuthorizedActor)
	}
	if req.ApproverID != nil && actor.ID != *req.ApproverID {
		return "", fmt.Errorf("%w: request was forwarded to another approver", ErrNotAuthorizedActor)
	}
	switch in.Action {
	case model.ActionApprove:
		// The authoritative step.  Multiple requests may sit in
		// PENDING_APPROVAL for one cell; only this write decides.
		outcome, err := w.Ledger.TryOccupy(ctx, req.Cell(), req.ID)
		if err != nil {
			return "", err
		}
		if outcome.Committed {
			return w.transition(ctx, req, model.StateConfirmed, actor, model.ActionApprove, in.Comment, nil)
		}
		comment := fmt.Sprintf("cell held by request %d; diverted to arbitration", outcome.Occupant)
		if in.Comment != "" {
			comment = in.Comment + "; " + comment
		}
		return w.transition(ctx, req, model.StatePendingArbitration, actor, model.ActionApprove, comment, nil)
	case model.ActionReject:
		if in.Comment == "" {
			return "", ErrCommentRequired
		}
		return w.transition(ctx, req, model.StateRejected, actor, model.ActionReject, in.Comment, nil)
	case model.ActionForward:
		if in.ForwardTo == nil {
			return "", fmt.Errorf("%w: forward requires a target approver", ErrBadRequest)
		}
		// Forward records the hand-off and re-assigns the approver; the
		// state does not change.
		rec := w.record(req, actor, model.ActionForward, in.Comment, nil)
		if err := w.Requests.Transition(ctx, req.ID, req.State, req.State, rec); err != nil {
			return "", err
		}
		if err := w.Requests.AssignApprover(ctx, req.ID, *in.ForwardTo); err != nil {
			return "", err
		}
		return req.State, nil
	default:
		return "", fmt.Errorf("%w: %s from %s", ErrInvalidTransition, in.Action, req.State)
	}
}

// Withdraw cancels a request.  It is permitted from any non-terminal state
// and from CONFIRMED; withdrawing a confirmed request releases its cell.
// Withdrawal is idempotent: a second attempt observes a no-op.
func (w *Workflow) Withdraw(ctx context.Context, requestID uint64, actor model.Actor) (model.RequestState, error) {
	req, err := w.Requests.Get(ctx, requestID)
	if err != nil {
		return "", err
	}
	if actor.Role != model.RoleSystem && actor.ID != req.RequesterID {
		return "", fmt.Errorf("%w: only the requester may withdraw", ErrNotAuthorizedActor)
	}
	if req.State == model.StateWithdrawn {
		return req.State, nil
	}
	if req.State == model.StateRejected {
		return "", fmt.Errorf("%w: WITHDRAW from %s", ErrInvalidTransition, req.State)
	}
	wasConfirmed := req.State == model.StateConfirmed
	state, err := w.transition(ctx, req, model.StateWithdrawn, actor, model.ActionWithdraw, "", nil)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			// Lost a race with another withdrawal: observe the no-op.
			if cur, gerr := w.Requests.Get(ctx, requestID); gerr == nil && cur.State == model.StateWithdrawn {
				return cur.State, nil
			}
		}
		return "", err
	}
	if wasConfirmed {
		if err := w.Ledger.Release(ctx, req.Cell()); err != nil {
			return "", err
		}
	}
	return state, nil
}

// transition applies one state move with its decision record and publishes
// the matching event.
func (w *Workflow) transition(ctx context.Context, req *model.ReservationRequest, to model.RequestState, actor model.Actor, action model.DecisionAction, comment string, caseID *uint64) (model.RequestState, error) {
	rec := w.record(req, actor, action, comment, caseID)
	if err := w.Requests.Transition(ctx, req.ID, req.State, to, rec); err != nil {
		return "", err
	}
	w.notify(queue.ReservationEvent{
		Kind:        queue.EventStateChanged,
		RecipientID: req.RequesterID,
		RequestID:   req.ID,
		PublicID:    req.PublicID,
		RoomID:      req.RoomID,
		Date:        req.Date,
		SlotID:      req.SlotID,
		State:       string(to),
		Action:      string(action),
		Comment:     comment,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	})
	return to, nil
}

func (w *Workflow) record(req *model.ReservationRequest, actor model.Actor, action model.DecisionAction, comment string, caseID *uint64) model.DecisionRecord {
	return model.DecisionRecord{
		RequestID: req.ID,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		ActorRole: actor.Role,
		Action:    action,
		Comment:   comment,
		CaseID:    caseID,
		CreatedAt: time.Now().UTC(),
	}
}

// notify hands the event to the broker without ever blocking the workflow.
// Publish failures are logged by the publisher and dropped here.
func (w *Workflow) notify(ev queue.ReservationEvent) {
	if w.Notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.Notifier.Publish(ctx, ev); err != nil {
			log.Printf("workflow: publish %s for request %d failed: %v", ev.Kind, ev.RequestID, err)
		}
	}()
}
