package model

import (
	"errors"
	"strings"
	"time"
)

// RequestState is the workflow state of a reservation request.
//
// Legal moves:
//
//	PENDING_VERIFICATION -> PENDING_APPROVAL | REJECTED | WITHDRAWN
//	PENDING_APPROVAL     -> CONFIRMED | REJECTED | PENDING_ARBITRATION | WITHDRAWN
//	PENDING_ARBITRATION  -> CONFIRMED | REJECTED | WITHDRAWN
//	CONFIRMED            -> WITHDRAWN (manual cancellation only)
//
// REJECTED and WITHDRAWN are terminal.  A request submitted against an
// occupied cell with the submitter insisting is created directly in
// PENDING_ARBITRATION and never visits the two pending-review states.
type RequestState string

const (
	StatePendingVerification RequestState = "PENDING_VERIFICATION"
	StatePendingApproval     RequestState = "PENDING_APPROVAL"
	StatePendingArbitration  RequestState = "PENDING_ARBITRATION"
	StateConfirmed           RequestState = "CONFIRMED"
	StateRejected            RequestState = "REJECTED"
	StateWithdrawn           RequestState = "WITHDRAWN"
)

// Terminal reports whether no further transition may leave the state.
// CONFIRMED is not terminal: a manual withdrawal may still release it.
func (s RequestState) Terminal() bool {
	return s == StateRejected || s == StateWithdrawn
}

// DecisionAction is the kind of a decision record.
type DecisionAction string

const (
	ActionVerify  DecisionAction = "VERIFY"
	ActionApprove DecisionAction = "APPROVE"
	ActionReject  DecisionAction = "REJECT"
	ActionForward DecisionAction = "FORWARD"
	// ActionWithdraw and ActionResolve are engine-recorded kinds so that the
	// audit trail covers every transition, not only human review actions.
	ActionWithdraw DecisionAction = "WITHDRAW"
	ActionResolve  DecisionAction = "RESOLVE"
)

// RequestSource distinguishes manual submissions from timetable
// materialization.  Timetable-derived requests skip the human approval chain.
type RequestSource string

const (
	SourceManual    RequestSource = "MANUAL"
	SourceTimetable RequestSource = "TIMETABLE"
)

// Category keys the payload variant carried by a request.  Each category has
// its own validated field set; validation happens once, at the submission
// boundary.
type Category string

const (
	CategoryClass Category = "CLASS"
	CategoryEvent Category = "EVENT"
	CategoryGuest Category = "GUEST"
)

// Payload is the category-specific detail block of a request.  Exactly the
// fields of the request's category variant are meaningful; the rest stay
// zero.  A sum type keyed by Category rather than an open map keeps the
// submission boundary checkable.
type Payload struct {
	// CLASS: the course the booking is for.
	CourseID uint64 `json:"course_id,omitempty"`
	// EVENT: title and expected attendance.
	EventTitle         string `json:"event_title,omitempty"`
	ExpectedAttendance uint32 `json:"expected_attendance,omitempty"`
	// GUEST: names of external guests.
	GuestNames []string `json:"guest_names,omitempty"`
}

// Validate checks the payload against its category.  Cross-field rules (for
// example attendance against room capacity) belong to the workflow, not
// here.
func (p Payload) Validate(cat Category) error {
	switch cat {
	case CategoryClass:
		if p.CourseID == 0 {
			return errors.New("class request requires a course reference")
		}
	case CategoryEvent:
		if strings.TrimSpace(p.EventTitle) == "" {
			return errors.New("event request requires a title")
		}
		if p.ExpectedAttendance == 0 {
			return errors.New("event request requires expected attendance")
		}
	case CategoryGuest:
		if len(p.GuestNames) == 0 {
			return errors.New("guest request requires at least one guest name")
		}
		for _, n := range p.GuestNames {
			if strings.TrimSpace(n) == "" {
				return errors.New("guest names must be non-empty")
			}
		}
	default:
		return errors.New("unknown request category")
	}
	return nil
}

// EnrollmentCheck is the recorded outcome of an enrollment clash validation.
// BYPASSED means the course had no enrollment rows at check time; it is a
// normal outcome, not an error, and is stamped on the resulting change
// request rather than merely logged.
type EnrollmentCheck string

const (
	EnrollmentClear       EnrollmentCheck = "CLEAR"
	EnrollmentConflicting EnrollmentCheck = "CONFLICTING"
	EnrollmentBypassed    EnrollmentCheck = "BYPASSED"
)

// DecisionRecord is one immutable entry in a request's audit trail.  Records
// are owned by their request, appended in strict order and never edited.
//
// Fields:
//  Seq       – 1-based position within the request's trail.
//  ActorID   – identity that acted; 0 for the system actor.
//  ActorRole – the actor's role at the time of the action.
//  Action    – what was done.
//  Comment   – free text; mandatory on REJECT.
//  CaseID    – set on system records produced by conflict resolution,
//              referencing the conflict case by value.
type DecisionRecord struct {
	ID        uint64         // decisions.id
	RequestID uint64         // decisions.request_id
	Seq       uint32         // decisions.seq
	ActorID   uint64         // decisions.actor_id
	ActorName string         // decisions.actor_name
	ActorRole Role           // decisions.actor_role
	Action    DecisionAction // decisions.action
	Comment   string         // decisions.comment
	CaseID    *uint64        // decisions.case_id (nullable)
	CreatedAt time.Time      // decisions.created_at
}

// ReservationRequest is a single reservation attempt moving through the
// workflow.  The requester's role is frozen at submission; the designated
// verifier and current approver are identities by value, never embedded
// records.
type ReservationRequest struct {
	ID            uint64        // requests.id
	PublicID      string        // requests.public_id (uuid shown to clients)
	RequesterID   uint64        // requests.requester_id
	RequesterRole Role          // requests.requester_role (snapshot)
	RoomID        uint64        // requests.room_id
	Date          string        // requests.date
	SlotID        uint64        // requests.slot_id
	PartySize     uint32        // requests.party_size
	Category      Category      // requests.category
	Payload       Payload       // requests.payload (JSON column)
	Justification string        // requests.justification
	VerifierID    *uint64       // requests.verifier_id (nullable)
	ApproverID    *uint64       // requests.approver_id (nullable, set by FORWARD)
	Source        RequestSource // requests.source
	State         RequestState  // requests.state
	Decisions     []DecisionRecord
	CreatedAt     time.Time // requests.created_at
	UpdatedAt     time.Time // requests.updated_at
}

// Cell returns the target cell of the request.
func (r *ReservationRequest) Cell() CellKey {
	return CellKey{RoomID: r.RoomID, Date: r.Date, SlotID: r.SlotID}
}
