package engine

import (
	"context"

	"github.com/iliyamo/campus-room-reservation/internal/model"
	"github.com/iliyamo/campus-room-reservation/internal/queue"
)

// OccupyOutcome is the result of a ledger write attempt.  Contention is an
// expected outcome, not an error: the workflow converts it into arbitration
// and bulk materialization converts it into a gap.
type OccupyOutcome struct {
	Committed bool
	// Occupant is the request currently holding the cell when the write was
	// contended.
	Occupant uint64
}

// CellLedger is the authoritative occupancy record and the sole race-safety
// boundary in the system.  Every advisory read (clash detection,
// pre-submission checks) may be stale; only TryOccupy's outcome decides who
// holds a cell.
//
// TryOccupy must behave as a single atomic check-and-set scoped to one cell:
// under concurrent calls for the same cell exactly one caller observes
// Committed and every other caller observes the winner's id.  Calls on
// different cells must not block each other.  Implementations bound any
// internal blocking by ctx so a stalled writer converts to contended rather
// than hanging.
//
// Release is idempotent: releasing a free or unknown cell is a no-op.
type CellLedger interface {
	TryOccupy(ctx context.Context, key model.CellKey, requestID uint64) (OccupyOutcome, error)
	Release(ctx context.Context, key model.CellKey) error
	IsFree(ctx context.Context, key model.CellKey) (bool, error)
	// Snapshot lists occupied cells for the given rooms in [from, to],
	// inclusive.  It is a plain read used by the availability view.
	Snapshot(ctx context.Context, roomIDs []uint64, from, to string) ([]model.OccupiedCell, error)
}

// RequestStore persists reservation requests and their decision trails.
//
// Transition is the only mutation path after creation.  It atomically
// verifies the current state equals from, moves it to to and appends exactly
// one decision record with the next sequence number; when the stored state
// no longer matches from it returns ErrInvalidTransition and writes nothing.
type RequestStore interface {
	Create(ctx context.Context, req *model.ReservationRequest) error
	Get(ctx context.Context, id uint64) (*model.ReservationRequest, error)
	Transition(ctx context.Context, id uint64, from, to model.RequestState, rec model.DecisionRecord) error
	// AssignApprover re-designates the approver of a pending request; used
	// by FORWARD actions.
	AssignApprover(ctx context.Context, requestID, approverID uint64) error
	ListByCellAndState(ctx context.Context, key model.CellKey, state model.RequestState) ([]*model.ReservationRequest, error)
	ListByRequester(ctx context.Context, requesterID uint64) ([]*model.ReservationRequest, error)
}

// ConflictStore writes conflict cases.  ApplyResolution persists the case
// and applies every member transition in one transaction: the record whose
// RequestID equals the case winner moves PENDING_ARBITRATION -> CONFIRMED,
// every other member moves PENDING_ARBITRATION -> REJECTED.  A member found
// outside PENDING_ARBITRATION fails the whole resolution with
// ErrInvalidTransition; partial application is never visible.
type ConflictStore interface {
	ApplyResolution(ctx context.Context, cse *model.ConflictCase, records []model.DecisionRecord) error
}

// AllocationStore persists timetables, course allocations and the set of
// cells each allocation has materialized.
type AllocationStore interface {
	Allocation(ctx context.Context, id uint64) (*model.TimetableAllocation, error)
	Timetable(ctx context.Context, id uint64) (*model.Timetable, error)
	ListByTimetable(ctx context.Context, timetableID uint64) ([]*model.TimetableAllocation, error)
	UpdateSlot(ctx context.Context, id, slotID uint64) error
	UpdateRoom(ctx context.Context, id, roomID uint64) error
	// MaterializedCells lists the cells the allocation currently holds,
	// with the timetable-derived request occupying each.
	MaterializedCells(ctx context.Context, allocationID uint64) ([]model.OccupiedCell, error)
	RecordMaterialized(ctx context.Context, allocationID uint64, key model.CellKey, requestID uint64) error
	ClearMaterialized(ctx context.Context, allocationID uint64, key model.CellKey) error
	// CoursesAtSlot lists course ids with an allocation in the given slot,
	// excluding excludeCourseID.  Used by enrollment clash checks.
	CoursesAtSlot(ctx context.Context, slotID, excludeCourseID uint64) ([]uint64, error)
}

// RoomCatalog is the read-only room collaborator.  The engine never writes
// catalog data.
type RoomCatalog interface {
	Room(ctx context.Context, id uint64) (*model.Room, error)
	// ActiveRoomsByCapacity lists active rooms with capacity >= minCapacity,
	// ordered by capacity ascending then id ascending.
	ActiveRoomsByCapacity(ctx context.Context, minCapacity uint32) ([]*model.Room, error)
	RoomsByBuilding(ctx context.Context, buildingID uint64) ([]*model.Room, error)
}

// SlotCatalog is the read-only abstract-slot collaborator.
type SlotCatalog interface {
	Slot(ctx context.Context, id uint64) (*model.TimeSlot, error)
	Slots(ctx context.Context) ([]*model.TimeSlot, error)
}

// HolidayCalendar supplies holiday dates.  The implicit weekend rule is not
// the calendar's concern; the time grid applies it.
type HolidayCalendar interface {
	// HolidaysBetween returns the holiday dates in [from, to] keyed by
	// canonical date string.
	HolidaysBetween(ctx context.Context, from, to string) (map[string]struct{}, error)
}

// EnrollmentCatalog supplies student-course membership, possibly empty per
// course.
type EnrollmentCatalog interface {
	StudentsByCourse(ctx context.Context, courseID uint64) ([]uint64, error)
}

// Notifier hands an event to the message queue.  The contract ends at
// "message enqueued": delivery, retry and failure handling belong to the
// consumer, and the engine never blocks a workflow on publish success.
type Notifier interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// CacheInvalidator is implemented by the availability view and called
// synchronously by ledger write paths for the affected (building, date)
// pair.  A nil invalidator is legal and means no derived view is kept.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, buildingID uint64, date string)
}
