package model

import "time"

// ConflictCase records the resolution of a set of requests that collided at
// commit time on one cell.  The case references its members by id only and
// is immutable once written; the state changes it caused live in the member
// requests' decision trails.
//
// Fields:
//  MemberIDs  – the contending request ids (at least two).
//  WinnerID   – the member transitioned to CONFIRMED.
//  ResolverID – identity of the arbitrator that decided.
//  Notes      – the resolver's reasoning, shown on every loser's timeline.
type ConflictCase struct {
	ID         uint64    // conflict_cases.id
	PublicID   string    // conflict_cases.public_id (uuid shown to clients)
	RoomID     uint64    // conflict_cases.room_id
	Date       string    // conflict_cases.date
	SlotID     uint64    // conflict_cases.slot_id
	MemberIDs  []uint64  // conflict_case_members rows
	WinnerID   uint64    // conflict_cases.winner_request_id
	ResolverID uint64    // conflict_cases.resolver_id
	Notes      string    // conflict_cases.notes
	CreatedAt  time.Time // conflict_cases.created_at
}

// Cell returns the contested cell.
func (c *ConflictCase) Cell() CellKey {
	return CellKey{RoomID: c.RoomID, Date: c.Date, SlotID: c.SlotID}
}
