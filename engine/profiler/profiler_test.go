package profiler_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-shader/engine/profiler"
)

func TestTickReportsOncePerInterval(t *testing.T) {
	var out bytes.Buffer
	clock := time.Unix(0, 0)
	p := profiler.NewProfiler(
		profiler.WithClock(func() time.Time { return clock }),
		profiler.WithInterval(time.Second),
		profiler.WithLogger(slog.New(slog.NewTextHandler(&out, nil))),
		profiler.WithMemoryStats(false),
	)

	for range 3 {
		p.Draw()
		p.Draw()
		p.Skip()
		clock = clock.Add(250 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	p.Dispatch()
	clock = clock.Add(250 * time.Millisecond)
	require.True(t, p.Tick())

	s := p.Last()
	assert.Equal(t, 4, s.Frames)
	assert.Equal(t, 6, s.Draws)
	assert.Equal(t, 3, s.Skipped)
	assert.Equal(t, 1, s.Dispatches)
	assert.InDelta(t, 4.0, s.FPS, 1e-9)
	assert.Contains(t, out.String(), "skipped=3")

	clock = clock.Add(100 * time.Millisecond)
	assert.False(t, p.Tick(), "counters restart after a report")
}

func TestMemoryStatsAreLogged(t *testing.T) {
	var out bytes.Buffer
	clock := time.Unix(0, 0)
	p := profiler.NewProfiler(
		profiler.WithClock(func() time.Time { return clock }),
		profiler.WithLogger(slog.New(slog.NewTextHandler(&out, nil))),
	)
	clock = clock.Add(2 * time.Second)
	require.True(t, p.Tick())
	assert.Contains(t, out.String(), "heapMB=")
}
