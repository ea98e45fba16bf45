package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-room-reservation/internal/engine"
)

func TestValidateRange(t *testing.T) {
	start, end, err := engine.ValidateRange("2026-03-02", "2026-07-03")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, start.Weekday())
	assert.True(t, start.Before(end))

	_, _, err = engine.ValidateRange("02.03.2026", "2026-07-03")
	assert.ErrorIs(t, err, engine.ErrBadDateRange)

	_, _, err = engine.ValidateRange("2026-07-03", "2026-03-02")
	assert.ErrorIs(t, err, engine.ErrBadDateRange)
}

func TestIsExcluded(t *testing.T) {
	holidays := map[string]struct{}{"2026-04-06": {}}

	sat, _ := time.Parse("2006-01-02", "2026-03-07")
	assert.True(t, engine.IsExcluded(sat, nil), "saturday is implicitly excluded")

	sun, _ := time.Parse("2006-01-02", "2026-03-08")
	assert.True(t, engine.IsExcluded(sun, nil), "sunday is implicitly excluded")

	holiday, _ := time.Parse("2006-01-02", "2026-04-06")
	assert.True(t, engine.IsExcluded(holiday, holidays))

	monday, _ := time.Parse("2006-01-02", "2026-03-02")
	assert.False(t, engine.IsExcluded(monday, holidays))
}

func TestOccurrencesSkipsHolidays(t *testing.T) {
	start, end, err := engine.ValidateRange("2026-03-02", "2026-07-03")
	require.NoError(t, err)

	// 18 Mondays fall in the range; 2026-04-06 is a listed holiday.
	dates := engine.Occurrences(time.Monday, start, end, map[string]struct{}{"2026-04-06": {}})
	assert.Len(t, dates, 17)
	assert.Equal(t, "2026-03-02", dates[0])
	assert.NotContains(t, dates, "2026-04-06")
	assert.Equal(t, "2026-06-29", dates[len(dates)-1])
}

func TestOccurrencesDeterministic(t *testing.T) {
	start, end, err := engine.ValidateRange("2026-03-02", "2026-07-03")
	require.NoError(t, err)

	first := engine.Occurrences(time.Wednesday, start, end, nil)
	second := engine.Occurrences(time.Wednesday, start, end, nil)
	assert.Equal(t, first, second)
	assert.Len(t, first, 18)
}

func TestOccurrencesWeekendWeekdayYieldsNothing(t *testing.T) {
	start, end, err := engine.ValidateRange("2026-03-02", "2026-07-03")
	require.NoError(t, err)

	assert.Nil(t, engine.Occurrences(time.Saturday, start, end, nil))
	assert.Nil(t, engine.Occurrences(time.Sunday, start, end, nil))
}

func TestDatesBetween(t *testing.T) {
	start, end, err := engine.ValidateRange("2026-03-02", "2026-03-05")
	require.NoError(t, err)

	dates := engine.DatesBetween(start, end)
	assert.Equal(t, []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05"}, dates)
}
