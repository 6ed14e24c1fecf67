package recurrence

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/interval"
)

func date(y int, m time.Month, d, hour, min int) time.Time {
	return time.Date(y, m, d, hour, min, 0, 0, time.UTC)
}

func until(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d, 0, 0)
	return &t
}

func TestExpandNonRecurring(t *testing.T) {
	s := Series{ID: "res-1", Start: date(2024, 1, 1, 10, 0), End: date(2024, 1, 1, 11, 0)}

	out := Expand(s)
	require.Len(t, out, 1)
	assert.Equal(t, "res-1", out[0].ID)
	assert.False(t, out[0].Instance)
	assert.Empty(t, out[0].OriginalID)
	assert.Equal(t, s.Start, out[0].Start)
	assert.Equal(t, s.End, out[0].End)
}

func TestExpandRecurringWithoutEndDate(t *testing.T) {
	s := Series{
		ID:        "res-1",
		Start:     date(2024, 1, 1, 10, 0),
		End:       date(2024, 1, 1, 11, 0),
		Recurring: true,
		Kind:      KindWeekly,
	}

	out := Expand(s)
	require.Len(t, out, 1, "a recurring row with no end date is treated as a single slot")
	assert.False(t, out[0].Instance)
}

func TestExpandWeekly(t *testing.T) {
	s := Series{
		ID:        "res-1",
		Start:     date(2024, 1, 1, 10, 0),
		End:       date(2024, 1, 1, 11, 30),
		Recurring: true,
		Kind:      KindWeekly,
		Until:     until(2024, 1, 22),
	}

	out := Expand(s)
	require.Len(t, out, 4)

	wantDays := []int{1, 8, 15, 22}
	for i, occurrence := range out {
		assert.Equal(t, fmt.Sprintf("res-1_2024-01-%02d", wantDays[i]), occurrence.ID)
		assert.Equal(t, wantDays[i], occurrence.Start.Day())
		assert.Equal(t, 10, occurrence.Start.Hour(), "time of day preserved")
		assert.Equal(t, 90*time.Minute, occurrence.End.Sub(occurrence.Start))
		assert.True(t, occurrence.Instance)
		assert.Equal(t, "res-1", occurrence.OriginalID)
	}
}

func TestExpandDaily(t *testing.T) {
	s := Series{
		ID:        "res-1",
		Start:     date(2024, 3, 1, 8, 0),
		End:       date(2024, 3, 1, 9, 0),
		Recurring: true,
		Kind:      KindDaily,
		Until:     until(2024, 3, 5),
	}

	out := Expand(s)
	require.Len(t, out, 5, "end date is inclusive")
	assert.Equal(t, "res-1_2024-03-01", out[0].ID)
	assert.Equal(t, "res-1_2024-03-05", out[4].ID)
}

func TestExpandMonthly(t *testing.T) {
	s := Series{
		ID:        "res-1",
		Start:     date(2024, 1, 15, 14, 0),
		End:       date(2024, 1, 15, 16, 0),
		Recurring: true,
		Kind:      KindMonthly,
		Until:     until(2024, 4, 15),
	}

	out := Expand(s)
	require.Len(t, out, 4)
	for i, occurrence := range out {
		assert.Equal(t, time.Month(i+1), occurrence.Start.Month())
		assert.Equal(t, 15, occurrence.Start.Day())
	}
}

func TestExpandUnknownKindDefaultsToWeekly(t *testing.T) {
	s := Series{
		ID:        "res-1",
		Start:     date(2024, 1, 1, 10, 0),
		End:       date(2024, 1, 1, 11, 0),
		Recurring: true,
		Kind:      Kind("fortnightly"),
		Until:     until(2024, 1, 15),
	}

	out := Expand(s)
	require.Len(t, out, 3)
	assert.Equal(t, "res-1_2024-01-08", out[1].ID)
}

func TestExpandCapsRunawayInput(t *testing.T) {
	// An end date far in the future must not loop unbounded.
	s := Series{
		ID:        "res-1",
		Start:     date(2024, 1, 1, 10, 0),
		End:       date(2024, 1, 1, 11, 0),
		Recurring: true,
		Kind:      KindDaily,
		Until:     until(2999, 1, 1),
	}
	assert.Len(t, Expand(s), 365)

	s.Kind = KindWeekly
	assert.Len(t, Expand(s), 52)

	s.Kind = KindMonthly
	assert.Len(t, Expand(s), 12)
}

func TestExpandWindowFiltersAndSorts(t *testing.T) {
	weekly := Series{
		ID:        "res-a",
		Start:     date(2024, 1, 1, 10, 0),
		End:       date(2024, 1, 1, 11, 0),
		Recurring: true,
		Kind:      KindWeekly,
		Until:     until(2024, 2, 26),
	}
	single := Series{ID: "res-b", Start: date(2024, 1, 9, 9, 0), End: date(2024, 1, 9, 10, 0)}

	window := interval.New(date(2024, 1, 7, 0, 0), date(2024, 1, 21, 0, 0))
	out := ExpandWindow([]Series{weekly, single}, window)

	require.Len(t, out, 3)
	assert.Equal(t, "res-a_2024-01-08", out[0].ID)
	assert.Equal(t, "res-b", out[1].ID)
	assert.Equal(t, "res-a_2024-01-15", out[2].ID)

	for i := 1; i < len(out); i++ {
		assert.False(t, out[i].Start.Before(out[i-1].Start), "occurrences sorted by start")
	}
}
