package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickReportsPerInterval(t *testing.T) {
	now := time.Unix(1000, 0)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := NewProfiler(
		WithInterval(time.Second),
		WithClock(func() time.Time { return now }),
		WithLogger(logger),
	)

	for i := 0; i < 29; i++ {
		now = now.Add(10 * time.Millisecond)
		_, ok := p.Tick()
		require.False(t, ok)
	}
	now = now.Add(710 * time.Millisecond)
	stats, ok := p.Tick()
	require.True(t, ok)
	assert.InDelta(t, 30, stats.FPS, 0.001)
	assert.Equal(t, 710*time.Millisecond, stats.SlowestFrame)
	assert.Contains(t, buf.String(), "frame stats")

	now = now.Add(10 * time.Millisecond)
	_, ok = p.Tick()
	assert.False(t, ok)
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0))
	assert.Equal(t, time.Second, p.updateInterval)
}
