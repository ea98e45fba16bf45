package model

import (
	"fmt"
	"time"
)

// CellKey identifies one reservable unit: a room on a calendar date in a
// named time slot.  Date is always the canonical YYYY-MM-DD form so that the
// key is usable as a map key and stable across time zones.
type CellKey struct {
	RoomID uint64 // rooms.id
	Date   string // civil date, DateLayout
	SlotID uint64 // time_slots.id
}

// String renders the key in a fixed room/date/slot form used in log lines,
// cache keys and decision comments.
func (k CellKey) String() string {
	return fmt.Sprintf("%d/%s/%d", k.RoomID, k.Date, k.SlotID)
}

// Cell is the authoritative occupancy record for one CellKey.  Rows are
// created lazily on first write and never deleted; occupancy history lives in
// the requests that reference the cell, not in the cell itself.
//
// At most one non-withdrawn confirmed request may occupy a cell at any time.
// No other table may be consulted to decide occupancy.
type Cell struct {
	ID                uint64    // cells.id
	RoomID            uint64    // cells.room_id
	Date              string    // cells.date
	SlotID            uint64    // cells.slot_id
	OccupantRequestID *uint64   // cells.occupant_request_id (NULL when free)
	CreatedAt         time.Time // cells.created_at
	UpdatedAt         time.Time // cells.updated_at
}

// Key returns the identity portion of the cell.
func (c Cell) Key() CellKey {
	return CellKey{RoomID: c.RoomID, Date: c.Date, SlotID: c.SlotID}
}

// Occupied reports whether the cell currently has an occupant.
func (c Cell) Occupied() bool {
	return c.OccupantRequestID != nil
}

// OccupiedCell is the read-model row returned by ledger snapshots for the
// availability view.
type OccupiedCell struct {
	Key      CellKey
	Occupant uint64 // occupying request id
}
