package render

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelemetryRecordAndRecent(t *testing.T) {
	tel := NewTelemetry(8)
	tel.Record("job_started", map[string]any{"hash": "abc"})
	tel.Record("render_start", nil)
	tel.RecordDuration("render_complete", 1500*time.Millisecond, nil)

	assert.Equal(t, 3, tel.Len())

	events := tel.Recent(0)
	require.Len(t, events, 3)
	assert.Equal(t, "job_started", events[0].Name)
	assert.Equal(t, "render_complete", events[2].Name)
	assert.Equal(t, int64(1500), events[2].DurationMS)
	assert.Equal(t, "abc", events[0].Fields["hash"])
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestTelemetryEviction(t *testing.T) {
	tel := NewTelemetry(4)
	for i := 0; i < 10; i++ {
		tel.Record(fmt.Sprintf("event_%d", i), nil)
	}

	assert.Equal(t, 4, tel.Len())
	events := tel.Recent(0)
	require.Len(t, events, 4)
	// Oldest evicted, newest last.
	assert.Equal(t, "event_6", events[0].Name)
	assert.Equal(t, "event_9", events[3].Name)
}

func TestTelemetryRecentLimit(t *testing.T) {
	tel := NewTelemetry(16)
	for i := 0; i < 6; i++ {
		tel.Record(fmt.Sprintf("event_%d", i), nil)
	}

	events := tel.Recent(2)
	require.Len(t, events, 2)
	assert.Equal(t, "event_4", events[0].Name)
	assert.Equal(t, "event_5", events[1].Name)

	// Asking for more than retained returns all.
	assert.Len(t, tel.Recent(100), 6)
}

func TestTelemetryDefaultCapacity(t *testing.T) {
	tel := NewTelemetry(0)
	tel.Record("probe", nil)
	assert.Equal(t, 1, tel.Len())
}
