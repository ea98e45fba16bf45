package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-room-reservation/internal/engine"
	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// Availability runs cacheless here: a nil redis client makes the view read
// the ledger directly, which is the behavior the invalidation contract
// guarantees right after any write anyway.
func newAvailability(f *fixture) *engine.AvailabilityView {
	return &engine.AvailabilityView{Ledger: f.Ledger, Rooms: f.Rooms}
}

func TestQueryBuildingReflectsLedger(t *testing.T) {
	f := newFixture()
	view := newAvailability(f)
	ctx := context.Background()

	_, err := f.Ledger.TryOccupy(ctx, model.CellKey{RoomID: 1, Date: "2026-03-02", SlotID: 1}, 100)
	require.NoError(t, err)
	_, err = f.Ledger.TryOccupy(ctx, model.CellKey{RoomID: 1, Date: "2026-03-02", SlotID: 2}, 101)
	require.NoError(t, err)
	_, err = f.Ledger.TryOccupy(ctx, model.CellKey{RoomID: 3, Date: "2026-03-02", SlotID: 1}, 102)
	require.NoError(t, err)

	matrix, err := view.QueryBuilding(ctx, 1, "2026-03-01", "2026-03-07")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", matrix.From)
	require.Len(t, matrix.Rooms, 2, "building 1 has rooms 1 and 2")

	byID := make(map[uint64]engine.RoomAvailability)
	for _, r := range matrix.Rooms {
		byID[r.RoomID] = r
	}
	assert.ElementsMatch(t, []uint64{1, 2}, byID[1].Occupied["2026-03-02"])
	assert.Empty(t, byID[2].Occupied, "room 2 is untouched")
	assert.NotContains(t, byID, uint64(3), "room 3 belongs to another building")
}

func TestQueryRoomScopesToOneRoom(t *testing.T) {
	f := newFixture()
	view := newAvailability(f)
	ctx := context.Background()

	_, err := f.Ledger.TryOccupy(ctx, model.CellKey{RoomID: 2, Date: "2026-03-04", SlotID: 2}, 100)
	require.NoError(t, err)

	matrix, err := view.QueryRoom(ctx, 2, "2026-03-02", "2026-03-08")
	require.NoError(t, err)
	require.Len(t, matrix.Rooms, 1)
	assert.Equal(t, "A-201", matrix.Rooms[0].RoomName)
	assert.Equal(t, uint32(60), matrix.Rooms[0].Capacity)
	assert.Equal(t, []uint64{2}, matrix.Rooms[0].Occupied["2026-03-04"])
}

func TestQueryValidation(t *testing.T) {
	f := newFixture()
	view := newAvailability(f)
	ctx := context.Background()

	_, err := view.QueryRoom(ctx, 2, "2026-03-08", "2026-03-02")
	assert.ErrorIs(t, err, engine.ErrBadDateRange)

	_, err = view.QueryRoom(ctx, 999, "2026-03-02", "2026-03-08")
	assert.ErrorIs(t, err, engine.ErrCellUnknown)

	_, err = view.QueryBuilding(ctx, 999, "2026-03-02", "2026-03-08")
	assert.ErrorIs(t, err, engine.ErrCellUnknown)
}

func TestQuerySeesReleaseImmediately(t *testing.T) {
	f := newFixture()
	view := newAvailability(f)
	ctx := context.Background()

	key := model.CellKey{RoomID: 1, Date: "2026-03-02", SlotID: 1}
	_, err := f.Ledger.TryOccupy(ctx, key, 100)
	require.NoError(t, err)
	require.NoError(t, f.Ledger.Release(ctx, key))

	matrix, err := view.QueryRoom(ctx, 1, "2026-03-02", "2026-03-02")
	require.NoError(t, err)
	assert.Empty(t, matrix.Rooms[0].Occupied)
}
