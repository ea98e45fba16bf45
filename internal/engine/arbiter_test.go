package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-room-reservation/internal/engine"
	"github.com/iliyamo/campus-room-reservation/internal/model"
)

// submitContending creates n requests parked in arbitration on room 1,
// 2026-03-02, slot 1 and returns their ids, oldest first.
func submitContending(t *testing.T, f *fixture, n int) []uint64 {
	t.Helper()
	ctx := context.Background()

	// Seed the contention: an unrelated holder occupies the cell so every
	// insisting submission lands in arbitration.
	_, err := f.Ledger.TryOccupy(ctx, model.CellKey{RoomID: 1, Date: "2026-03-02", SlotID: 1}, 9999)
	require.NoError(t, err)

	ids := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		draft := classDraft(alice)
		draft.Insist = true
		result, err := f.Workflow.Submit(ctx, draft)
		require.NoError(t, err)
		ids = append(ids, result.Request.ID)
	}

	// The original holder withdraws out of band, leaving the contenders and
	// a free cell, which is the precondition every resolution relies on.
	require.NoError(t, f.Ledger.Release(ctx, model.CellKey{RoomID: 1, Date: "2026-03-02", SlotID: 1}))
	return ids
}

func TestResolveSeatsWinnerAndRejectsLosers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ids := submitContending(t, f, 3)
	winner := ids[1]

	cse, err := f.Arbiter.Resolve(ctx, ids, winner, rita, "earlier booking tradition")
	require.NoError(t, err)
	assert.Equal(t, winner, cse.WinnerID)
	assert.Equal(t, rita.ID, cse.ResolverID)
	assert.ElementsMatch(t, ids, cse.MemberIDs)
	assert.NotZero(t, cse.ID)

	for _, id := range ids {
		req, err := f.Requests.Get(ctx, id)
		require.NoError(t, err)
		if id == winner {
			assert.Equal(t, model.StateConfirmed, req.State)
		} else {
			assert.Equal(t, model.StateRejected, req.State)
		}
		// Every member carries a system decision record referencing the case.
		require.NotEmpty(t, req.Decisions)
		last := req.Decisions[len(req.Decisions)-1]
		assert.Equal(t, model.RoleSystem, last.ActorRole)
		require.NotNil(t, last.CaseID)
		assert.Equal(t, cse.ID, *last.CaseID)
	}

	free, err := f.Ledger.IsFree(ctx, model.CellKey{RoomID: 1, Date: "2026-03-02", SlotID: 1})
	require.NoError(t, err)
	assert.False(t, free, "the winner is seated on the cell")
}

func TestResolveValidatesMembership(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ids := submitContending(t, f, 2)

	_, err := f.Arbiter.Resolve(ctx, ids, 424242, rita, "")
	assert.ErrorIs(t, err, engine.ErrWinnerNotContending)

	_, err = f.Arbiter.Resolve(ctx, ids[:1], ids[0], rita, "")
	assert.ErrorIs(t, err, engine.ErrBadRequest)
}

func TestResolveRequiresArbitrationState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ids := submitContending(t, f, 2)

	// A plain pending request is not groupable into a case.
	result, err := f.Workflow.Submit(ctx, classDraft(alice))
	require.NoError(t, err)

	_, err = f.Arbiter.Resolve(ctx, append(ids, result.Request.ID), ids[0], rita, "")
	assert.ErrorIs(t, err, engine.ErrInvalidTransition)
}

func TestResolveMembersMustShareCell(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ids := submitContending(t, f, 2)

	// Park one more request in arbitration, but on a different room.
	_, err := f.Ledger.TryOccupy(ctx, model.CellKey{RoomID: 2, Date: "2026-03-02", SlotID: 1}, 9998)
	require.NoError(t, err)
	draft := classDraft(alice)
	draft.RoomID = 2
	draft.Insist = true
	other, err := f.Workflow.Submit(ctx, draft)
	require.NoError(t, err)

	_, err = f.Arbiter.Resolve(ctx, append(ids, other.Request.ID), ids[0], rita, "")
	assert.ErrorIs(t, err, engine.ErrBadRequest)
}

func TestResolveOccupiedCellIsInvariantViolation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ids := submitContending(t, f, 2)
	key := model.CellKey{RoomID: 1, Date: "2026-03-02", SlotID: 1}

	// Someone re-occupied the cell behind the arbiter's back.
	_, err := f.Ledger.TryOccupy(ctx, key, 7777)
	require.NoError(t, err)

	_, err = f.Arbiter.Resolve(ctx, ids, ids[0], rita, "")
	assert.ErrorIs(t, err, engine.ErrInvariantViolation)

	// Nothing was applied: the contenders stay in arbitration and the
	// foreign occupant was not overwritten.
	for _, id := range ids {
		req, gerr := f.Requests.Get(ctx, id)
		require.NoError(t, gerr)
		assert.Equal(t, model.StatePendingArbitration, req.State)
	}
	outcome, err := f.Ledger.TryOccupy(ctx, key, 7777)
	require.NoError(t, err)
	assert.True(t, outcome.Committed, "occupant unchanged")
}

func TestDismissRejectsLoneContender(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	key := model.CellKey{RoomID: 1, Date: "2026-03-02", SlotID: 1}

	// A confirmed occupant holds the cell; one request insists anyway.  With
	// no second contender there is nothing to resolve as a case, but the
	// request must still have an arbitrated way out.
	_, err := f.Ledger.TryOccupy(ctx, key, 9999)
	require.NoError(t, err)
	draft := classDraft(alice)
	draft.Insist = true
	result, err := f.Workflow.Submit(ctx, draft)
	require.NoError(t, err)

	state, err := f.Arbiter.Dismiss(ctx, result.Request.ID, rita, "cell is held by a confirmed reservation")
	require.NoError(t, err)
	assert.Equal(t, model.StateRejected, state)

	req, err := f.Requests.Get(ctx, result.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateRejected, req.State)
	require.Len(t, req.Decisions, 1)
	assert.Equal(t, rita.ID, req.Decisions[0].ActorID)
	assert.Equal(t, model.ActionReject, req.Decisions[0].Action)
	assert.Equal(t, "cell is held by a confirmed reservation", req.Decisions[0].Comment)

	// The confirmed occupant was never touched.
	outcome, err := f.Ledger.TryOccupy(ctx, key, 9999)
	require.NoError(t, err)
	assert.True(t, outcome.Committed)
}

func TestDismissGuards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ids := submitContending(t, f, 1)

	_, err := f.Arbiter.Dismiss(ctx, ids[0], rita, "")
	assert.ErrorIs(t, err, engine.ErrCommentRequired)

	// Only arbitration-parked requests are dismissable.
	result, err := f.Workflow.Submit(ctx, classDraft(alice))
	require.NoError(t, err)
	_, err = f.Arbiter.Dismiss(ctx, result.Request.ID, rita, "not contending")
	assert.ErrorIs(t, err, engine.ErrInvalidTransition)
}

func TestPendingForCell(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ids := submitContending(t, f, 3)

	reqs, err := f.Arbiter.PendingForCell(ctx, model.CellKey{RoomID: 1, Date: "2026-03-02", SlotID: 1})
	require.NoError(t, err)
	require.Len(t, reqs, 3)
	for i, req := range reqs {
		assert.Equal(t, ids[i], req.ID, "oldest first")
	}
}
