// Package queue defines message payloads exchanged over the message broker.
package queue

// EventKind labels what happened to a reservation request.
type EventKind string

const (
	EventSubmitted          EventKind = "REQUEST_SUBMITTED"
	EventStateChanged       EventKind = "REQUEST_STATE_CHANGED"
	EventConflictResolved   EventKind = "CONFLICT_RESOLVED"
	EventMaterializationGap EventKind = "MATERIALIZATION_GAP"
)

// ReservationEvent is published on every workflow state transition and every
// materialization gap.  It contains enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.
type ReservationEvent struct {
	Kind        EventKind `json:"kind"`
	RecipientID uint64    `json:"recipient_id"`
	RequestID   uint64    `json:"request_id"`
	PublicID    string    `json:"public_id,omitempty"`
	RoomID      uint64    `json:"room_id"`
	RoomName    string    `json:"room_name,omitempty"`
	Date        string    `json:"date"`
	SlotID      uint64    `json:"slot_id"`
	State       string    `json:"state,omitempty"`
	Action      string    `json:"action,omitempty"`
	Comment     string    `json:"comment,omitempty"`
	CaseID      uint64    `json:"case_id,omitempty"`
	OccurredAt  string    `json:"occurred_at"`
}
