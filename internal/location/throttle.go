package location

import (
	"context"
	"time"

	"georoute/internal/geom"
	"georoute/internal/metrics"
)

// Throttle forwards samples from in, dropping any that arrive sooner than
// fastest after the previously forwarded one. now may be nil.
func Throttle(ctx context.Context, in <-chan geom.GeoPoint, fastest time.Duration, now func() time.Time) <-chan geom.GeoPoint {
	if now == nil {
		now = time.Now
	}
	out := make(chan geom.GeoPoint)
	go func() {
		defer close(out)
		var last time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case p, ok := <-in:
				if !ok {
					return
				}
				t := now()
				if !last.IsZero() && fastest > 0 && t.Sub(last) < fastest {
					metrics.LocationUpdates.WithLabelValues("throttled").Inc()
					continue
				}
				last = t
				select {
				case <-ctx.Done():
					return
				case out <- p:
				}
			}
		}
	}()
	return out
}
