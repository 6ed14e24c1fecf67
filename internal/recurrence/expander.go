// Package recurrence expands recurring reservations into the concrete
// occurrences shown on calendar views. Expansion is a pure computation: it
// never touches storage, and its output carries no persisted identity of its
// own. Mutating an occurrence means mutating the original reservation.
package recurrence

import (
	"fmt"
	"sort"
	"time"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/interval"
)

// Kind identifies the step unit of a recurring reservation.
type Kind string

const (
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
)

// Hard iteration caps guarantee termination regardless of malformed input.
const (
	maxDailyOccurrences   = 365
	maxWeeklyOccurrences  = 52
	maxMonthlyOccurrences = 12
)

// Series is the view of a reservation the expander needs.
type Series struct {
	ID    string
	Start time.Time
	End   time.Time
	// Recurring marks the series for expansion; when false Expand returns the
	// single original slot.
	Recurring bool
	Kind      Kind
	// Until bounds the expansion by calendar day, inclusive: an occurrence
	// landing exactly on the Until date is produced.
	Until *time.Time
}

// Occurrence is one concrete calendar entry produced from a series.
type Occurrence struct {
	ID    string
	Start time.Time
	End   time.Time
	// Instance is true for synthesized recurrence instances; OriginalID then
	// names the reservation they derive from.
	Instance   bool
	OriginalID string
}

// Slot returns the occurrence's half-open interval.
func (o Occurrence) Slot() interval.Interval {
	return interval.New(o.Start, o.End)
}

// step returns the date increment and iteration cap for the kind. Unknown or
// unset kinds fall back to weekly so malformed rows still terminate.
func (k Kind) step() (years, months, days, maxIter int) {
	switch k {
	case KindDaily:
		return 0, 0, 1, maxDailyOccurrences
	case KindWeekly:
		return 0, 0, 7, maxWeeklyOccurrences
	case KindMonthly:
		return 0, 1, 0, maxMonthlyOccurrences
	default:
		return 0, 0, 7, maxWeeklyOccurrences
	}
}

// Expand produces the bounded, chronologically ordered occurrences of a
// series. A non-recurring series (or one with no end date) yields exactly the
// original slot, unsynthesized.
func Expand(s Series) []Occurrence {
	if !s.Recurring || s.Until == nil {
		return []Occurrence{{ID: s.ID, Start: s.Start, End: s.End}}
	}

	years, months, days, maxIter := s.Kind.step()
	duration := s.End.Sub(s.Start)
	limit := dateOnly(*s.Until)

	out := make([]Occurrence, 0, 8)
	current := s.Start
	for i := 0; i < maxIter; i++ {
		if dateOnly(current).After(limit) {
			break
		}
		out = append(out, Occurrence{
			ID:         fmt.Sprintf("%s_%s", s.ID, current.Format("2006-01-02")),
			Start:      current,
			End:        current.Add(duration),
			Instance:   true,
			OriginalID: s.ID,
		})
		current = current.AddDate(years, months, days)
	}
	return out
}

// ExpandWindow expands every series and keeps the occurrences overlapping the
// half-open window, sorted by start time (ties broken by id) so merged
// calendars render deterministically.
func ExpandWindow(series []Series, window interval.Interval) []Occurrence {
	var out []Occurrence
	for _, s := range series {
		for _, occurrence := range Expand(s) {
			if window.IsValid() && !occurrence.Slot().Overlaps(window) {
				continue
			}
			out = append(out, occurrence)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
