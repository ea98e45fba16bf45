// Package engine implements the reservation and workflow core: the cell
// ledger contract, the time grid, the clash detector, the reservation
// workflow state machine, the conflict arbiter, the allocation generator and
// the availability view.  The engine owns all occupancy and workflow
// semantics; persistence lives behind the interfaces in ports.go and HTTP
// concerns stay in the handler layer.
package engine

import "errors"

// Sentinel errors grouped by how callers recover.  Handlers translate them
// to HTTP statuses; nothing in this package returns raw database errors for
// conditions a caller can act on.
//
// Validation errors are rejected before any state is created and the caller
// may retry with corrected input.  Transition errors leave state untouched
// and the caller should re-fetch.  ErrInvariantViolation is fatal: it means
// the at-most-one-occupant invariant was already broken upstream and must
// surface loudly rather than be retried.
var (
	// ErrCapacityExceeded – party size larger than the room's capacity.
	ErrCapacityExceeded = errors.New("party size exceeds room capacity")
	// ErrCellUnknown – the referenced room or slot does not exist or the
	// room is inactive.
	ErrCellUnknown = errors.New("unknown cell")
	// ErrBadDateRange – malformed date or from after to.
	ErrBadDateRange = errors.New("invalid date range")
	// ErrBadRequest – payload or draft failed category validation.
	ErrBadRequest = errors.New("invalid request")
	// ErrWinnerNotContending – resolution named a winner outside the case.
	ErrWinnerNotContending = errors.New("winner is not among the contending requests")

	// ErrInvalidTransition – the action is not legal from the current state.
	ErrInvalidTransition = errors.New("illegal state transition")
	// ErrNotAuthorizedActor – the actor is not the required verifier or
	// approver for the request.
	ErrNotAuthorizedActor = errors.New("actor is not the required reviewer")
	// ErrCommentRequired – a rejection was attempted without a comment.
	ErrCommentRequired = errors.New("rejection requires a comment")

	// ErrRequestNotFound – no request with the given id.
	ErrRequestNotFound = errors.New("request not found")
	// ErrAllocationNotFound – no allocation or timetable with the given id.
	ErrAllocationNotFound = errors.New("allocation not found")

	// ErrInvariantViolation – the arbiter tried to seat a winner on a cell
	// the ledger refused.  By construction the cell must be free once a
	// conflict is open for it, so this is a ledger or arbiter bug.
	ErrInvariantViolation = errors.New("occupancy invariant violated")
)

// IsValidation reports whether err is a pre-state validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrCellUnknown) ||
		errors.Is(err, ErrBadDateRange) ||
		errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrCommentRequired) ||
		errors.Is(err, ErrWinnerNotContending)
}

// IsTransition reports whether err is an illegal state move with no
// mutation applied.
func IsTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}
