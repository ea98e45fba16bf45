package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimCellRetriesWhenOccupantReleasesMidway(t *testing.T) {
	ctx := context.Background()

	// First upsert loses, the read-back then finds the cell freed (the
	// occupant released between the two statements), and the retried upsert
	// commits.  The loop must never report "contended against request 0".
	upserts := 0
	upsert := func(context.Context) (bool, error) {
		upserts++
		return upserts > 1, nil
	}
	reads := 0
	readOccupant := func(context.Context) (uint64, error) {
		reads++
		return 0, nil
	}

	outcome, wrote, err := claimCell(ctx, 7, upsert, readOccupant)
	require.NoError(t, err)
	assert.True(t, outcome.Committed)
	assert.Equal(t, uint64(7), outcome.Occupant)
	assert.True(t, wrote)
	assert.Equal(t, 2, upserts)
	assert.Equal(t, 1, reads)
}

func TestClaimCellReportsRealOccupant(t *testing.T) {
	ctx := context.Background()

	outcome, wrote, err := claimCell(ctx, 7,
		func(context.Context) (bool, error) { return false, nil },
		func(context.Context) (uint64, error) { return 42, nil },
	)
	require.NoError(t, err)
	assert.False(t, outcome.Committed)
	assert.Equal(t, uint64(42), outcome.Occupant)
	assert.False(t, wrote)
}

func TestClaimCellIdempotentHolderDoesNotWrite(t *testing.T) {
	ctx := context.Background()

	outcome, wrote, err := claimCell(ctx, 7,
		func(context.Context) (bool, error) { return false, nil },
		func(context.Context) (uint64, error) { return 7, nil },
	)
	require.NoError(t, err)
	assert.True(t, outcome.Committed)
	assert.Equal(t, uint64(7), outcome.Occupant)
	assert.False(t, wrote, "re-commit by the holder must not invalidate caches")
}

func TestClaimCellBoundedByContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	// The occupant keeps releasing and re-claiming ahead of us; the loop
	// must give up when the caller's ctx does instead of spinning forever.
	attempts := 0
	upsert := func(context.Context) (bool, error) {
		attempts++
		if attempts >= 3 {
			cancel()
		}
		return false, nil
	}
	readOccupant := func(context.Context) (uint64, error) { return 0, nil }

	_, _, err := claimCell(ctx, 7, upsert, readOccupant)
	assert.ErrorIs(t, err, context.Canceled)
}
