package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
)

func TestGetResultFolder(t *testing.T) {
	tests := []struct {
		name      string
		startTime optional.Option[time.Time]
		endTime   optional.Option[time.Time]
		expected  string
	}{
		{"no range", optional.None[time.Time](), optional.None[time.Time](), filepath.Join("out", "Crossover")},
		{"start only", optional.Some(d(2)), optional.None[time.Time](), filepath.Join("out", "Crossover", "20240102_all")},
		{"end only", optional.None[time.Time](), optional.Some(d(31)), filepath.Join("out", "Crossover", "all_20240131")},
		{"both", optional.Some(d(2)), optional.Some(d(31)), filepath.Join("out", "Crossover", "20240102_20240131")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, getResultFolder(filepath.Join("out", "Crossover"), tc.startTime, tc.endTime))
		})
	}
}

func TestMasterCalendar(t *testing.T) {
	calendar := masterCalendar(
		[]time.Time{d(1), d(3), d(5)},
		[]time.Time{d(2), d(3), d(6)},
		nil,
	)

	assert.Equal(t, []time.Time{d(1), d(2), d(3), d(5), d(6)}, calendar)
	assert.Empty(t, masterCalendar())
}
