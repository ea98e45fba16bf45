package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/campus-room-reservation/internal/model"
	"github.com/iliyamo/campus-room-reservation/internal/queue"
)

// Arbiter resolves sets of requests that collided at commit time on one
// cell.  Cases accumulate lazily: any request landing in PENDING_ARBITRATION
// is groupable with the others sharing its cell, with no pre-aggregation
// step.  The arbiter never picks a winner itself - resolution is an explicit
// external decision; it only enforces that the decision is applied
// atomically and exhaustively across the whole contending set.
type Arbiter struct {
	Ledger    CellLedger
	Requests  RequestStore
	Conflicts ConflictStore
	Notifier  Notifier
}

// PendingForCell lists the requests currently awaiting arbitration for one
// cell, the input an arbitrator reviews before resolving.
func (a *Arbiter) PendingForCell(ctx context.Context, key model.CellKey) ([]*model.ReservationRequest, error) {
	return a.Requests.ListByCellAndState(ctx, key, model.StatePendingArbitration)
}

// Resolve applies an arbitration decision: the winner is seated on the cell
// and confirmed, every other member is rejected with a system decision
// record referencing the case, and the immutable case row is written.
//
// By construction the cell must still be free here: once a conflict is open
// for a cell no request reaches CONFIRMED outside arbitration.  A contended
// ledger write is therefore ErrInvariantViolation - a fatal breach to
// surface loudly, never a retryable condition.
func (a *Arbiter) Resolve(ctx context.Context, memberIDs []uint64, winnerID uint64, resolver model.Actor, notes string) (*model.ConflictCase, error) {
	if len(memberIDs) < 2 {
		return nil, fmt.Errorf("%w: a conflict case needs at least two members", ErrBadRequest)
	}
	winnerIncluded := false
	for _, id := range memberIDs {
		if id == winnerID {
			winnerIncluded = true
			break
		}
	}
	if !winnerIncluded {
		return nil, fmt.Errorf("%w: request %d", ErrWinnerNotContending, winnerID)
	}

	members := make([]*model.ReservationRequest, 0, len(memberIDs))
	for _, id := range memberIDs {
		req, err := a.Requests.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if req.State != model.StatePendingArbitration {
			return nil, fmt.Errorf("%w: request %d is %s, not %s", ErrInvalidTransition, id, req.State, model.StatePendingArbitration)
		}
		members = append(members, req)
	}
	cell := members[0].Cell()
	for _, req := range members[1:] {
		if req.Cell() != cell {
			return nil, fmt.Errorf("%w: members target different cells", ErrBadRequest)
		}
	}

	outcome, err := a.Ledger.TryOccupy(ctx, cell, winnerID)
	if err != nil {
		return nil, err
	}
	if !outcome.Committed {
		log.Printf("arbiter: FATAL cell %s already held by request %d while resolving for winner %d", cell, outcome.Occupant, winnerID)
		return nil, fmt.Errorf("%w: cell %s held by request %d", ErrInvariantViolation, cell, outcome.Occupant)
	}

	now := time.Now().UTC()
	cse := &model.ConflictCase{
		PublicID:   uuid.NewString(),
		RoomID:     cell.RoomID,
		Date:       cell.Date,
		SlotID:     cell.SlotID,
		MemberIDs:  memberIDs,
		WinnerID:   winnerID,
		ResolverID: resolver.ID,
		Notes:      notes,
		CreatedAt:  now,
	}
	records := make([]model.DecisionRecord, 0, len(members))
	for _, req := range members {
		action := model.ActionResolve
		comment := fmt.Sprintf("confirmed by conflict resolution: %s", notes)
		if req.ID != winnerID {
			action = model.ActionReject
			comment = fmt.Sprintf("rejected by conflict resolution in favor of request %d: %s", winnerID, notes)
		}
		records = append(records, model.DecisionRecord{
			RequestID: req.ID,
			ActorID:   model.SystemActor.ID,
			ActorName: model.SystemActor.Name,
			ActorRole: model.SystemActor.Role,
			Action:    action,
			Comment:   comment,
			CreatedAt: now,
		})
	}
	if err := a.Conflicts.ApplyResolution(ctx, cse, records); err != nil {
		// Undo the seat so the cell is not left held by an unconfirmed
		// winner.  Release is idempotent, so a retry of Resolve stays safe.
		if relErr := a.Ledger.Release(ctx, cell); relErr != nil {
			log.Printf("arbiter: release after failed resolution on %s: %v", cell, relErr)
		}
		return nil, err
	}

	for _, req := range members {
		state := model.StateRejected
		if req.ID == winnerID {
			state = model.StateConfirmed
		}
		a.notify(queue.ReservationEvent{
			Kind:        queue.EventConflictResolved,
			RecipientID: req.RequesterID,
			RequestID:   req.ID,
			PublicID:    req.PublicID,
			RoomID:      cell.RoomID,
			Date:        cell.Date,
			SlotID:      cell.SlotID,
			State:       string(state),
			CaseID:      cse.ID,
			Comment:     notes,
			OccurredAt:  now.Format(time.RFC3339),
		})
	}
	return cse, nil
}

// Dismiss rejects a single request parked in arbitration without opening a
// conflict case.  It exists for the degenerate contention shape a case cannot
// express: one insisting request against an already confirmed occupant.  The
// decision trail records the arbitrator and the mandatory notes, so the
// outcome is as auditable as a full resolution.
func (a *Arbiter) Dismiss(ctx context.Context, requestID uint64, resolver model.Actor, notes string) (model.RequestState, error) {
	if notes == "" {
		return "", ErrCommentRequired
	}
	req, err := a.Requests.Get(ctx, requestID)
	if err != nil {
		return "", err
	}
	if req.State != model.StatePendingArbitration {
		return "", fmt.Errorf("%w: request %d is %s, not %s", ErrInvalidTransition, requestID, req.State, model.StatePendingArbitration)
	}
	now := time.Now().UTC()
	rec := model.DecisionRecord{
		RequestID: req.ID,
		ActorID:   resolver.ID,
		ActorName: resolver.Name,
		ActorRole: resolver.Role,
		Action:    model.ActionReject,
		Comment:   notes,
		CreatedAt: now,
	}
	if err := a.Requests.Transition(ctx, req.ID, model.StatePendingArbitration, model.StateRejected, rec); err != nil {
		return "", err
	}
	a.notify(queue.ReservationEvent{
		Kind:        queue.EventStateChanged,
		RecipientID: req.RequesterID,
		RequestID:   req.ID,
		PublicID:    req.PublicID,
		RoomID:      req.RoomID,
		Date:        req.Date,
		SlotID:      req.SlotID,
		State:       string(model.StateRejected),
		Action:      string(model.ActionReject),
		Comment:     notes,
		OccurredAt:  now.Format(time.RFC3339),
	})
	return model.StateRejected, nil
}

func (a *Arbiter) notify(ev queue.ReservationEvent) {
	if a.Notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Notifier.Publish(ctx, ev); err != nil {
			log.Printf("arbiter: publish %s for request %d failed: %v", ev.Kind, ev.RequestID, err)
		}
	}()
}
