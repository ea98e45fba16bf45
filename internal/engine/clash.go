package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// CellStatus is the advisory answer of a cell check.  It reflects the ledger
// at read time; by the time a caller acts on it the cell may have changed,
// which is why only TryOccupy is authoritative.
type CellStatus string

const (
	CellFree     CellStatus = "FREE"
	CellOccupied CellStatus = "OCCUPIED"
)

// ClashDetector is the read-only query layer over the cell ledger plus
// catalog and enrollment data.  It answers "is this cell free", "who else
// conflicts" and "what alternatives exist"; it never writes anything.
type ClashDetector struct {
	Ledger      CellLedger
	Rooms       RoomCatalog
	Holidays    HolidayCalendar
	Enrollment  EnrollmentCatalog
	Allocations AllocationStore
}

// DefaultAlternativeLimit bounds alternative-room suggestions when the
// caller does not ask for a specific count.
const DefaultAlternativeLimit = 5

// CheckCell reports the advisory status of one cell.  A date in the
// exclusion calendar is implicitly free regardless of any timetable-derived
// expectation: excluded dates suppress timetable occupancy and stay
// independently bookable.
func (d *ClashDetector) CheckCell(ctx context.Context, key model.CellKey) (CellStatus, error) {
	date, err := model.ParseDate(key.Date)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrBadDateRange, key.Date)
	}
	holidays, err := d.Holidays.HolidaysBetween(ctx, key.Date, key.Date)
	if err != nil {
		return "", err
	}
	if IsExcluded(date, holidays) {
		return CellFree, nil
	}
	free, err := d.Ledger.IsFree(ctx, key)
	if err != nil {
		return "", err
	}
	if free {
		return CellFree, nil
	}
	return CellOccupied, nil
}

// CapacityCheck compares a party size against the room's static capacity.
func (d *ClashDetector) CapacityCheck(ctx context.Context, roomID uint64, partySize uint32) error {
	room, err := d.Rooms.Room(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil || !room.IsActive {
		return fmt.Errorf("%w: room %d", ErrCellUnknown, roomID)
	}
	if partySize > room.Capacity {
		return fmt.Errorf("%w: party %d, capacity %d", ErrCapacityExceeded, partySize, room.Capacity)
	}
	return nil
}

// SuggestAlternativeRooms lists rooms with sufficient capacity and a free
// cell at the given date and slot, tightest fit first: capacity ascending,
// then room id for determinism.  limit <= 0 selects the default.
func (d *ClashDetector) SuggestAlternativeRooms(ctx context.Context, date string, slotID uint64, minCapacity uint32, limit int) ([]*model.Room, error) {
	if limit <= 0 {
		limit = DefaultAlternativeLimit
	}
	rooms, err := d.Rooms.ActiveRoomsByCapacity(ctx, minCapacity)
	if err != nil {
		return nil, err
	}
	// Catalog ordering is capacity then id; keep it stable regardless of the
	// backing store.
	sort.SliceStable(rooms, func(i, j int) bool {
		if rooms[i].Capacity != rooms[j].Capacity {
			return rooms[i].Capacity < rooms[j].Capacity
		}
		return rooms[i].ID < rooms[j].ID
	})
	var out []*model.Room
	for _, room := range rooms {
		free, err := d.Ledger.IsFree(ctx, model.CellKey{RoomID: room.ID, Date: date, SlotID: slotID})
		if err != nil {
			return nil, err
		}
		if !free {
			continue
		}
		out = append(out, room)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// CheckEnrollmentClash reports whether moving a course into targetSlotID
// would double-book any enrolled student.  A course with zero enrollment
// rows yields BYPASSED: the check could not run, which is a normal outcome
// the caller must record on the resulting request, not an error.
func (d *ClashDetector) CheckEnrollmentClash(ctx context.Context, courseID, targetSlotID uint64) (model.EnrollmentCheck, []uint64, error) {
	students, err := d.Enrollment.StudentsByCourse(ctx, courseID)
	if err != nil {
		return "", nil, err
	}
	if len(students) == 0 {
		return model.EnrollmentBypassed, nil, nil
	}
	otherCourses, err := d.Allocations.CoursesAtSlot(ctx, targetSlotID, courseID)
	if err != nil {
		return "", nil, err
	}
	busy := make(map[uint64]struct{})
	for _, other := range otherCourses {
		enrolled, err := d.Enrollment.StudentsByCourse(ctx, other)
		if err != nil {
			return "", nil, err
		}
		for _, s := range enrolled {
			busy[s] = struct{}{}
		}
	}
	var conflicting []uint64
	for _, s := range students {
		if _, ok := busy[s]; ok {
			conflicting = append(conflicting, s)
		}
	}
	if len(conflicting) == 0 {
		return model.EnrollmentClear, nil, nil
	}
	sort.Slice(conflicting, func(i, j int) bool { return conflicting[i] < conflicting[j] })
	return model.EnrollmentConflicting, conflicting, nil
}
