package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-room-reservation/internal/engine"
	"github.com/iliyamo/campus-room-reservation/internal/model"
)

func TestCheckCellReflectsLedger(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	key := model.CellKey{RoomID: 1, Date: "2026-03-02", SlotID: 1}

	status, err := f.Clash.CheckCell(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, engine.CellFree, status)

	_, err = f.Ledger.TryOccupy(ctx, key, 99)
	require.NoError(t, err)

	status, err = f.Clash.CheckCell(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, engine.CellOccupied, status)
}

func TestCheckCellExcludedDateOverridesOccupancy(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.Holidays.Put("2026-04-06")
	key := model.CellKey{RoomID: 1, Date: "2026-04-06", SlotID: 1}

	// Even a ledger entry on an excluded date reads as free: exclusions
	// suppress timetable occupancy and the date stays bookable.
	_, err := f.Ledger.TryOccupy(ctx, key, 99)
	require.NoError(t, err)

	status, err := f.Clash.CheckCell(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, engine.CellFree, status)
}

func TestCheckCellBadDate(t *testing.T) {
	f := newFixture()
	_, err := f.Clash.CheckCell(context.Background(), model.CellKey{RoomID: 1, Date: "yesterday", SlotID: 1})
	assert.ErrorIs(t, err, engine.ErrBadDateRange)
}

func TestCapacityCheck(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	assert.NoError(t, f.Clash.CapacityCheck(ctx, 1, 40))
	assert.ErrorIs(t, f.Clash.CapacityCheck(ctx, 1, 41), engine.ErrCapacityExceeded)
	assert.ErrorIs(t, f.Clash.CapacityCheck(ctx, 999, 1), engine.ErrCellUnknown)
	// Inactive rooms are not bookable cells.
	assert.ErrorIs(t, f.Clash.CapacityCheck(ctx, 4, 1), engine.ErrCellUnknown)
}

func TestSuggestAlternativeRoomsOrdering(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Capacities: room 3 = 30, room 1 = 40, room 2 = 60; room 4 is inactive.
	rooms, err := f.Clash.SuggestAlternativeRooms(ctx, "2026-03-02", 1, 20, 5)
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, uint64(3), rooms[0].ID, "tightest fit first")
	assert.Equal(t, uint64(1), rooms[1].ID)
	assert.Equal(t, uint64(2), rooms[2].ID)
}

func TestSuggestAlternativeRoomsSkipsOccupiedAndHonorsLimit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.Ledger.TryOccupy(ctx, model.CellKey{RoomID: 3, Date: "2026-03-02", SlotID: 1}, 7)
	require.NoError(t, err)

	rooms, err := f.Clash.SuggestAlternativeRooms(ctx, "2026-03-02", 1, 20, 1)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, uint64(1), rooms[0].ID)
}

func TestSuggestAlternativeRoomsCapacityFloor(t *testing.T) {
	f := newFixture()
	rooms, err := f.Clash.SuggestAlternativeRooms(context.Background(), "2026-03-02", 1, 50, 5)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, uint64(2), rooms[0].ID)
}

func TestEnrollmentClashBypassedWithoutData(t *testing.T) {
	f := newFixture()

	check, students, err := f.Clash.CheckEnrollmentClash(context.Background(), 10, 2)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentBypassed, check)
	assert.Empty(t, students)
}

func TestEnrollmentClashDetectsSharedStudents(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.Enrollment.Enroll(10, 1, 2, 3)
	f.Enrollment.Enroll(20, 3, 4)
	f.Enrollment.Enroll(30, 2, 5)
	// Courses 20 and 30 already sit at slot 2.
	f.Allocations.PutAllocation(model.TimetableAllocation{ID: 1, TimetableID: 1, CourseID: 20, RoomID: 2, SlotID: 2})
	f.Allocations.PutAllocation(model.TimetableAllocation{ID: 2, TimetableID: 1, CourseID: 30, RoomID: 3, SlotID: 2})

	check, students, err := f.Clash.CheckEnrollmentClash(ctx, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentConflicting, check)
	assert.Equal(t, []uint64{2, 3}, students, "conflicting students are sorted")
}

func TestEnrollmentClashClear(t *testing.T) {
	f := newFixture()

	f.Enrollment.Enroll(10, 1, 2)
	f.Enrollment.Enroll(20, 3, 4)
	f.Allocations.PutAllocation(model.TimetableAllocation{ID: 1, TimetableID: 1, CourseID: 20, RoomID: 2, SlotID: 2})

	check, students, err := f.Clash.CheckEnrollmentClash(context.Background(), 10, 2)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentClear, check)
	assert.Empty(t, students)
}
