package model

import "time"

// Timetable is an approved semester plan owning a set of course allocations.
// The active timetable is always passed explicitly into generator calls; the
// engine keeps no ambient "current year" state.
type Timetable struct {
	ID           uint64    // timetables.id
	Name         string    // timetables.name, e.g. "2025 Spring"
	SemesterFrom string    // timetables.semester_from (civil date)
	SemesterTo   string    // timetables.semester_to (civil date)
	CreatedAt    time.Time // timetables.created_at
}

// TimetableAllocation binds a course to a room and an abstract weekly slot
// within one timetable.  One allocation expands into many concrete cells,
// one per matching non-excluded date in the semester.
type TimetableAllocation struct {
	ID          uint64    // allocations.id
	TimetableID uint64    // allocations.timetable_id
	CourseID    uint64    // allocations.course_id
	RoomID      uint64    // allocations.room_id
	SlotID      uint64    // allocations.slot_id
	CreatedAt   time.Time // allocations.created_at
}

// GapReason explains why one cell of a bulk materialization was skipped.
type GapReason string

const (
	// GapContended means the cell was already held by a conflicting request
	// when the ledger write ran.  Gaps never escalate to arbitration on
	// their own; they are reported for manual follow-up.
	GapContended GapReason = "CONTENDED"
)

// MaterializationGap is one skipped cell in a materialization report.
type MaterializationGap struct {
	AllocationID uint64    `json:"allocation_id"`
	Cell         CellKey   `json:"cell"`
	Reason       GapReason `json:"reason"`
	Occupant     uint64    `json:"occupant_request_id"`
}

// MaterializationReport aggregates the per-cell outcome of a bulk
// materialization.  A gap never aborts the batch, so Committed+len(Gaps)
// always equals the number of expanded cells.
type MaterializationReport struct {
	TimetableID uint64               `json:"timetable_id"`
	Committed   int                  `json:"committed"`
	Gaps        []MaterializationGap `json:"gaps"`
	// EnrollmentCheck is stamped by slot-change application; empty for plain
	// activation.
	EnrollmentCheck     EnrollmentCheck `json:"enrollment_check,omitempty"`
	ConflictingStudents []uint64        `json:"conflicting_students,omitempty"`
}

// Merge folds another report into r, keeping per-allocation detail in the
// gap entries.
func (r *MaterializationReport) Merge(other *MaterializationReport) {
	r.Committed += other.Committed
	r.Gaps = append(r.Gaps, other.Gaps...)
}
