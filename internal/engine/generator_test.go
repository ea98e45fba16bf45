package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-room-reservation/internal/engine"
	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// seedSemester installs the 2026 spring timetable: 2026-03-02 (Monday) to
// 2026-07-03 contains 18 Mondays and 18 Wednesdays; 2026-04-06 (a Monday)
// and 2026-05-06 (a Wednesday) are listed holidays.  Course 10 meets twice
// weekly in room 1, so a full activation materializes 36-2 = 34 cells.
func seedSemester(f *fixture) {
	f.Allocations.PutTimetable(model.Timetable{ID: 1, Name: "2026 Spring", SemesterFrom: "2026-03-02", SemesterTo: "2026-07-03"})
	f.Allocations.PutAllocation(model.TimetableAllocation{ID: 1, TimetableID: 1, CourseID: 10, RoomID: 1, SlotID: 1})
	f.Allocations.PutAllocation(model.TimetableAllocation{ID: 2, TimetableID: 1, CourseID: 10, RoomID: 1, SlotID: 2})
	f.Holidays.Put("2026-04-06")
	f.Holidays.Put("2026-05-06")
}

func TestExpandSkipsExcludedDates(t *testing.T) {
	f := newFixture()
	seedSemester(f)
	ctx := context.Background()

	alloc, err := f.Allocations.Allocation(ctx, 1)
	require.NoError(t, err)
	cells, err := f.Generator.Expand(ctx, alloc, "2026-03-02", "2026-07-03")
	require.NoError(t, err)
	assert.Len(t, cells, 17, "18 Mondays minus one holiday")
	for _, cell := range cells {
		assert.NotEqual(t, "2026-04-06", cell.Date)
		assert.Equal(t, uint64(1), cell.RoomID)
	}
}

func TestActivateTimetableMaterializesAll(t *testing.T) {
	f := newFixture()
	seedSemester(f)
	ctx := context.Background()

	report, err := f.Generator.ActivateTimetable(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 34, report.Committed)
	assert.Empty(t, report.Gaps)

	// Holiday cells stay free and bookable.
	free, err := f.Ledger.IsFree(ctx, model.CellKey{RoomID: 1, Date: "2026-04-06", SlotID: 1})
	require.NoError(t, err)
	assert.True(t, free)

	// A materialized cell carries a confirmed timetable-tagged request.
	occupied, err := f.Ledger.Snapshot(ctx, []uint64{1}, "2026-03-02", "2026-03-02")
	require.NoError(t, err)
	require.Len(t, occupied, 1)
	req, err := f.Requests.Get(ctx, occupied[0].Occupant)
	require.NoError(t, err)
	assert.Equal(t, model.StateConfirmed, req.State)
	assert.Equal(t, model.SourceTimetable, req.Source)
	assert.Equal(t, model.RoleSystem, req.RequesterRole)
}

func TestActivateUnknownTimetable(t *testing.T) {
	f := newFixture()
	_, err := f.Generator.ActivateTimetable(context.Background(), 42)
	assert.ErrorIs(t, err, engine.ErrAllocationNotFound)
}

func TestMaterializationGapDoesNotAbortBatch(t *testing.T) {
	f := newFixture()
	seedSemester(f)
	ctx := context.Background()

	// A manual booking already holds one Monday cell.
	contested := model.CellKey{RoomID: 1, Date: "2026-03-09", SlotID: 1}
	_, err := f.Ledger.TryOccupy(ctx, contested, 500)
	require.NoError(t, err)

	report, err := f.Generator.ActivateTimetable(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 33, report.Committed)
	require.Len(t, report.Gaps, 1)
	gap := report.Gaps[0]
	assert.Equal(t, contested, gap.Cell)
	assert.Equal(t, model.GapContended, gap.Reason)
	assert.Equal(t, uint64(500), gap.Occupant)

	// The gap's request was closed, not parked for arbitration.
	pending, err := f.Requests.ListByCellAndState(ctx, contested, model.StatePendingArbitration)
	require.NoError(t, err)
	assert.Empty(t, pending)
	rejected, err := f.Requests.ListByCellAndState(ctx, contested, model.StateRejected)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Contains(t, rejected[0].Decisions[0].Comment, "materialization gap")
}

func TestApplySlotChangeBlocksOnEnrollmentConflict(t *testing.T) {
	f := newFixture()
	seedSemester(f)
	ctx := context.Background()

	_, err := f.Generator.ActivateTimetable(ctx, 1)
	require.NoError(t, err)

	// Course 20 sits at slot 2 and shares student 2 with course 10.
	f.Allocations.PutAllocation(model.TimetableAllocation{ID: 3, TimetableID: 1, CourseID: 20, RoomID: 2, SlotID: 2})
	f.Enrollment.Enroll(10, 1, 2)
	f.Enrollment.Enroll(20, 2, 3)

	report, err := f.Generator.ApplySlotChange(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentConflicting, report.EnrollmentCheck)
	assert.Equal(t, []uint64{2}, report.ConflictingStudents)
	assert.Zero(t, report.Committed, "nothing was applied")

	// The allocation still points at its original slot and keeps its cells.
	alloc, err := f.Allocations.Allocation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), alloc.SlotID)
	free, err := f.Ledger.IsFree(ctx, model.CellKey{RoomID: 1, Date: "2026-03-02", SlotID: 1})
	require.NoError(t, err)
	assert.False(t, free)
}

func TestApplySlotChangeWithoutEnrollmentDataIsBypassed(t *testing.T) {
	f := newFixture()
	f.Allocations.PutTimetable(model.Timetable{ID: 1, Name: "2026 Spring", SemesterFrom: "2026-03-02", SemesterTo: "2026-07-03"})
	f.Allocations.PutAllocation(model.TimetableAllocation{ID: 1, TimetableID: 1, CourseID: 10, RoomID: 1, SlotID: 1})
	ctx := context.Background()

	_, err := f.Generator.ActivateTimetable(ctx, 1)
	require.NoError(t, err)

	report, err := f.Generator.ApplySlotChange(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentBypassed, report.EnrollmentCheck,
		"missing enrollment data is recorded, not fatal")
	assert.Equal(t, 18, report.Committed)

	// Old Monday cells are released, Wednesday cells are held.
	free, err := f.Ledger.IsFree(ctx, model.CellKey{RoomID: 1, Date: "2026-03-02", SlotID: 1})
	require.NoError(t, err)
	assert.True(t, free)
	free, err = f.Ledger.IsFree(ctx, model.CellKey{RoomID: 1, Date: "2026-03-04", SlotID: 2})
	require.NoError(t, err)
	assert.False(t, free)

	// The check outcome is persisted on the new requests' decision trail,
	// not just surfaced on the returned report.
	moved, err := f.Requests.ListByCellAndState(ctx, model.CellKey{RoomID: 1, Date: "2026-03-04", SlotID: 2}, model.StateConfirmed)
	require.NoError(t, err)
	require.Len(t, moved, 1)
	require.NotEmpty(t, moved[0].Decisions)
	assert.Contains(t, moved[0].Decisions[0].Comment, "enrollment check BYPASSED")

	// The superseded requests were withdrawn by the system.
	withdrawn, err := f.Requests.ListByCellAndState(ctx, model.CellKey{RoomID: 1, Date: "2026-03-02", SlotID: 1}, model.StateWithdrawn)
	require.NoError(t, err)
	require.Len(t, withdrawn, 1)
	last := withdrawn[0].Decisions[len(withdrawn[0].Decisions)-1]
	assert.Equal(t, model.ActionWithdraw, last.Action)
	assert.Contains(t, last.Comment, "superseded by reallocation")
}

func TestApplyRoomChangeRematerializes(t *testing.T) {
	f := newFixture()
	f.Allocations.PutTimetable(model.Timetable{ID: 1, Name: "2026 Spring", SemesterFrom: "2026-03-02", SemesterTo: "2026-07-03"})
	f.Allocations.PutAllocation(model.TimetableAllocation{ID: 1, TimetableID: 1, CourseID: 10, RoomID: 1, SlotID: 1})
	ctx := context.Background()

	_, err := f.Generator.ActivateTimetable(ctx, 1)
	require.NoError(t, err)

	report, err := f.Generator.ApplyRoomChange(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 18, report.Committed)
	assert.Empty(t, report.EnrollmentCheck, "room moves carry no enrollment risk")

	free, err := f.Ledger.IsFree(ctx, model.CellKey{RoomID: 1, Date: "2026-03-02", SlotID: 1})
	require.NoError(t, err)
	assert.True(t, free)
	free, err = f.Ledger.IsFree(ctx, model.CellKey{RoomID: 2, Date: "2026-03-02", SlotID: 1})
	require.NoError(t, err)
	assert.False(t, free)

	alloc, err := f.Allocations.Allocation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), alloc.RoomID)

	relocated, err := f.Requests.ListByCellAndState(ctx, model.CellKey{RoomID: 2, Date: "2026-03-02", SlotID: 1}, model.StateConfirmed)
	require.NoError(t, err)
	require.Len(t, relocated, 1)
	assert.Contains(t, relocated[0].Decisions[0].Comment, "room change to 2")
}
