package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-room-reservation/internal/engine"
	"github.com/iliyamo/campus-room-reservation/internal/model"
)

func TestSubmitFreeCellEntersApproval(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.Workflow.Submit(ctx, classDraft(alice))
	require.NoError(t, err)
	require.NotNil(t, result.Request)
	assert.Equal(t, model.StatePendingApproval, result.Request.State)
	assert.Equal(t, model.SourceManual, result.Request.Source)
	assert.NotEmpty(t, result.Request.PublicID)
	assert.Equal(t, alice.Role, result.Request.RequesterRole)

	// Submission is advisory only: the cell stays free until approval.
	free, err := f.Ledger.IsFree(ctx, result.Request.Cell())
	require.NoError(t, err)
	assert.True(t, free)
}

func TestSubmitDelegatedEntersVerification(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	draft := classDraft(bob)
	draft.VerifierID = &vera.ID
	result, err := f.Workflow.Submit(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, model.StatePendingVerification, result.Request.State)

	// A delegated requester cannot submit without naming a verifier.
	_, err = f.Workflow.Submit(ctx, classDraft(bob))
	assert.ErrorIs(t, err, engine.ErrBadRequest)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	bad := classDraft(alice)
	bad.Date = "03/02/2026"
	_, err := f.Workflow.Submit(ctx, bad)
	assert.ErrorIs(t, err, engine.ErrBadDateRange)

	bad = classDraft(alice)
	bad.RoomID = 999
	_, err = f.Workflow.Submit(ctx, bad)
	assert.ErrorIs(t, err, engine.ErrCellUnknown)

	bad = classDraft(alice)
	bad.SlotID = 999
	_, err = f.Workflow.Submit(ctx, bad)
	assert.ErrorIs(t, err, engine.ErrCellUnknown)

	bad = classDraft(alice)
	bad.PartySize = 41
	_, err = f.Workflow.Submit(ctx, bad)
	assert.ErrorIs(t, err, engine.ErrCapacityExceeded)

	bad = classDraft(alice)
	bad.Payload = model.Payload{}
	_, err = f.Workflow.Submit(ctx, bad)
	assert.ErrorIs(t, err, engine.ErrBadRequest)
}

func TestSubmitOccupiedOffersAlternatives(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.Ledger.TryOccupy(ctx, model.CellKey{RoomID: 1, Date: "2026-03-02", SlotID: 1}, 99)
	require.NoError(t, err)

	result, err := f.Workflow.Submit(ctx, classDraft(alice))
	require.NoError(t, err)
	assert.Nil(t, result.Request, "no request is created without insist")
	require.NotEmpty(t, result.Alternatives)
	assert.Equal(t, uint64(3), result.Alternatives[0].ID, "tightest fitting free room first")

	reqs, err := f.Requests.ListByRequester(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestSubmitOccupiedWithInsistEntersArbitration(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.Ledger.TryOccupy(ctx, model.CellKey{RoomID: 1, Date: "2026-03-02", SlotID: 1}, 99)
	require.NoError(t, err)

	draft := classDraft(alice)
	draft.Insist = true
	result, err := f.Workflow.Submit(ctx, draft)
	require.NoError(t, err)
	require.NotNil(t, result.Request)
	assert.Equal(t, model.StatePendingArbitration, result.Request.State)
	assert.Empty(t, result.Request.Decisions, "the review chain never ran")
}

func TestVerifyThenApproveConfirmsAndSeats(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	draft := classDraft(bob)
	draft.VerifierID = &vera.ID
	result, err := f.Workflow.Submit(ctx, draft)
	require.NoError(t, err)
	id := result.Request.ID

	// Only the designated verifier may act.
	other := model.Actor{ID: 999, Name: "mallory", Role: model.RoleVerifier}
	_, err = f.Workflow.Decide(ctx, id, other, engine.DecideInput{Action: model.ActionVerify})
	assert.ErrorIs(t, err, engine.ErrNotAuthorizedActor)

	state, err := f.Workflow.Decide(ctx, id, vera, engine.DecideInput{Action: model.ActionVerify})
	require.NoError(t, err)
	assert.Equal(t, model.StatePendingApproval, state)

	state, err = f.Workflow.Decide(ctx, id, adam, engine.DecideInput{Action: model.ActionApprove})
	require.NoError(t, err)
	assert.Equal(t, model.StateConfirmed, state)

	free, err := f.Ledger.IsFree(ctx, result.Request.Cell())
	require.NoError(t, err)
	assert.False(t, free, "approval performs the authoritative ledger write")

	req, err := f.Requests.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, req.Decisions, 2)
	assert.Equal(t, model.ActionVerify, req.Decisions[0].Action)
	assert.Equal(t, model.ActionApprove, req.Decisions[1].Action)
	assert.Equal(t, uint32(1), req.Decisions[0].Seq)
	assert.Equal(t, uint32(2), req.Decisions[1].Seq)
}

func TestRejectRequiresComment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.Workflow.Submit(ctx, classDraft(alice))
	require.NoError(t, err)

	_, err = f.Workflow.Decide(ctx, result.Request.ID, adam, engine.DecideInput{Action: model.ActionReject})
	assert.ErrorIs(t, err, engine.ErrCommentRequired)

	state, err := f.Workflow.Decide(ctx, result.Request.ID, adam,
		engine.DecideInput{Action: model.ActionReject, Comment: "room reserved for exams"})
	require.NoError(t, err)
	assert.Equal(t, model.StateRejected, state)
}

func TestApprovalContentionDivertsToArbitration(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.Workflow.Submit(ctx, classDraft(alice))
	require.NoError(t, err)
	second, err := f.Workflow.Submit(ctx, classDraft(alice))
	require.NoError(t, err)

	state, err := f.Workflow.Decide(ctx, first.Request.ID, adam, engine.DecideInput{Action: model.ActionApprove})
	require.NoError(t, err)
	assert.Equal(t, model.StateConfirmed, state)

	// The second approval loses the cell but does not fail: the request is
	// parked for arbitration instead.
	state, err = f.Workflow.Decide(ctx, second.Request.ID, adam, engine.DecideInput{Action: model.ActionApprove})
	require.NoError(t, err)
	assert.Equal(t, model.StatePendingArbitration, state)

	req, err := f.Requests.Get(ctx, second.Request.ID)
	require.NoError(t, err)
	require.Len(t, req.Decisions, 1)
	assert.Contains(t, req.Decisions[0].Comment, "diverted to arbitration")
}

func TestForwardReassignsApprover(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.Workflow.Submit(ctx, classDraft(alice))
	require.NoError(t, err)
	id := result.Request.ID

	state, err := f.Workflow.Decide(ctx, id, adam,
		engine.DecideInput{Action: model.ActionForward, Comment: "out of office", ForwardTo: &anne.ID})
	require.NoError(t, err)
	assert.Equal(t, model.StatePendingApproval, state, "forward does not change the state")

	// The original approver lost the request.
	_, err = f.Workflow.Decide(ctx, id, adam, engine.DecideInput{Action: model.ActionApprove})
	assert.ErrorIs(t, err, engine.ErrNotAuthorizedActor)

	state, err = f.Workflow.Decide(ctx, id, anne, engine.DecideInput{Action: model.ActionApprove})
	require.NoError(t, err)
	assert.Equal(t, model.StateConfirmed, state)
}

func TestDecideRejectsNonReviewableStates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	draft := classDraft(alice)
	draft.Insist = true
	_, err := f.Ledger.TryOccupy(ctx, model.CellKey{RoomID: 1, Date: "2026-03-02", SlotID: 1}, 99)
	require.NoError(t, err)
	result, err := f.Workflow.Submit(ctx, draft)
	require.NoError(t, err)

	// PENDING_ARBITRATION is resolved by the arbiter, never by review.
	_, err = f.Workflow.Decide(ctx, result.Request.ID, adam, engine.DecideInput{Action: model.ActionApprove})
	assert.ErrorIs(t, err, engine.ErrInvalidTransition)
}

func TestWithdrawIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.Workflow.Submit(ctx, classDraft(alice))
	require.NoError(t, err)
	id := result.Request.ID

	state, err := f.Workflow.Withdraw(ctx, id, alice)
	require.NoError(t, err)
	assert.Equal(t, model.StateWithdrawn, state)

	// Repeating the withdrawal observes the no-op.
	state, err = f.Workflow.Withdraw(ctx, id, alice)
	require.NoError(t, err)
	assert.Equal(t, model.StateWithdrawn, state)

	req, err := f.Requests.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, req.Decisions, 1, "the second withdrawal appended nothing")
}

func TestWithdrawConfirmedReleasesCell(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.Workflow.Submit(ctx, classDraft(alice))
	require.NoError(t, err)
	id := result.Request.ID
	_, err = f.Workflow.Decide(ctx, id, adam, engine.DecideInput{Action: model.ActionApprove})
	require.NoError(t, err)

	state, err := f.Workflow.Withdraw(ctx, id, alice)
	require.NoError(t, err)
	assert.Equal(t, model.StateWithdrawn, state)

	free, err := f.Ledger.IsFree(ctx, result.Request.Cell())
	require.NoError(t, err)
	assert.True(t, free, "withdrawing a confirmed request frees its cell")
}

func TestWithdrawGuards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.Workflow.Submit(ctx, classDraft(alice))
	require.NoError(t, err)
	id := result.Request.ID

	// Only the requester (or the system) may withdraw.
	stranger := model.Actor{ID: 999, Name: "mallory", Role: model.RoleRequester}
	_, err = f.Workflow.Withdraw(ctx, id, stranger)
	assert.ErrorIs(t, err, engine.ErrNotAuthorizedActor)

	// A rejected request cannot be withdrawn.
	_, err = f.Workflow.Decide(ctx, id, adam, engine.DecideInput{Action: model.ActionReject, Comment: "no"})
	require.NoError(t, err)
	_, err = f.Workflow.Withdraw(ctx, id, alice)
	assert.ErrorIs(t, err, engine.ErrInvalidTransition)
}
