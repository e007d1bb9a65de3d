package location

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"georoute/internal/geom"
)

var track = []geom.GeoPoint{
	{Lat: 52.67345, Lon: -8.64706},
	{Lat: 52.6715, Lon: -8.6445},
	{Lat: 52.670904, Lon: -8.642153},
}

func collect(ch <-chan geom.GeoPoint, n int, timeout time.Duration) []geom.GeoPoint {
	var out []geom.GeoPoint
	deadline := time.After(timeout)
	for len(out) < n {
		select {
		case p, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, p)
		case <-deadline:
			return out
		}
	}
	return out
}

func TestReplayEmitsInOrderThenCloses(t *testing.T) {
	r, err := NewReplay(track, 5*time.Millisecond, false)
	require.NoError(t, err)

	ch := r.Updates(context.Background())
	assert.Equal(t, track, collect(ch, 10, time.Second))
	_, open := <-ch
	assert.False(t, open)
}

func TestReplayFirstSampleIsImmediate(t *testing.T) {
	r, err := NewReplay(track, time.Hour, false)
	require.NoError(t, err)
	got := collect(r.Updates(context.Background()), 1, time.Second)
	assert.Equal(t, track[:1], got)
}

func TestReplayLoops(t *testing.T) {
	r, err := NewReplay(track[:2], time.Millisecond, true)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := collect(r.Updates(ctx), 5, time.Second)
	assert.Equal(t, []geom.GeoPoint{track[0], track[1], track[0], track[1], track[0]}, got)
}

func TestReplayStopsOnCancel(t *testing.T) {
	r, err := NewReplay(track, time.Hour, true)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	ch := r.Updates(ctx)
	<-ch
	cancel()

	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("replay did not stop after cancel")
	}
}

func TestNewReplayValidates(t *testing.T) {
	_, err := NewReplay(nil, time.Second, false)
	assert.Error(t, err)
	_, err = NewReplay([]geom.GeoPoint{{Lat: 120}}, time.Second, false)
	assert.ErrorIs(t, err, geom.ErrOutOfRange)

	r, err := NewReplay(track, 0, false)
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, r.Interval)

	f, err := NewFixed(track[0])
	require.NoError(t, err)
	assert.Equal(t, track[:1], collect(f.Updates(context.Background()), 2, time.Second))
}

func TestLoadReplay(t *testing.T) {
	p := filepath.Join(t.TempDir(), "walk.csv")
	require.NoError(t, os.WriteFile(p, []byte("lat,lon\n52.67345,-8.64706\n52.6715,-8.6445\n"), 0o600))
	r, err := LoadReplay(p, time.Second, true)
	require.NoError(t, err)
	assert.Equal(t, track[:2], r.Points)
	assert.True(t, r.Loop)
}

func TestThrottleDropsFastSamples(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	// arrival times of the three samples; the second is too soon
	arrivals := []time.Time{base, base.Add(2 * time.Second), base.Add(6 * time.Second)}
	calls := 0
	now := func() time.Time {
		at := arrivals[calls]
		calls++
		return at
	}

	in := make(chan geom.GeoPoint)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := Throttle(ctx, in, 5*time.Second, now)

	go func() {
		for _, p := range track {
			in <- p
		}
		close(in)
	}()

	got := collect(out, 10, time.Second)
	assert.Equal(t, []geom.GeoPoint{track[0], track[2]}, got)
}

func TestSourceFunc(t *testing.T) {
	ch := make(chan geom.GeoPoint, 1)
	ch <- track[0]
	close(ch)
	var src Source = SourceFunc(func(context.Context) <-chan geom.GeoPoint { return ch })
	assert.Equal(t, track[:1], collect(src.Updates(context.Background()), 2, time.Second))
}
