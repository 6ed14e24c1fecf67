package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, min int) time.Time {
	return time.Date(2024, time.March, 11, hour, min, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a    Interval
		b    Interval
		want bool
	}{
		{
			name: "identical intervals overlap",
			a:    New(at(10, 0), at(11, 0)),
			b:    New(at(10, 0), at(11, 0)),
			want: true,
		},
		{
			name: "partial overlap",
			a:    New(at(10, 0), at(11, 0)),
			b:    New(at(10, 30), at(11, 30)),
			want: true,
		},
		{
			name: "containment",
			a:    New(at(9, 0), at(12, 0)),
			b:    New(at(10, 0), at(11, 0)),
			want: true,
		},
		{
			name: "back to back does not overlap",
			a:    New(at(10, 0), at(11, 0)),
			b:    New(at(11, 0), at(12, 0)),
			want: false,
		},
		{
			name: "disjoint",
			a:    New(at(8, 0), at(9, 0)),
			b:    New(at(14, 0), at(15, 0)),
			want: false,
		},
		{
			name: "one minute overlap",
			a:    New(at(10, 0), at(11, 1)),
			b:    New(at(11, 0), at(12, 0)),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			// The predicate is symmetric.
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, New(at(10, 0), at(10, 30)).IsValid())
	assert.False(t, New(at(10, 0), at(10, 0)).IsValid(), "zero-length interval is invalid input")
	assert.False(t, New(at(11, 0), at(10, 0)).IsValid())
	assert.False(t, Interval{End: at(10, 0)}.IsValid())
}

func TestContains(t *testing.T) {
	i := New(at(10, 0), at(11, 0))
	assert.True(t, i.Contains(at(10, 0)), "start is included")
	assert.True(t, i.Contains(at(10, 59)))
	assert.False(t, i.Contains(at(11, 0)), "end is excluded")
	assert.False(t, i.Contains(at(9, 59)))
}
