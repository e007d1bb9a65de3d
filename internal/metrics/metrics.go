package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// Routing metrics
	RouteFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "georoute",
		Subsystem: "route",
		Name:      "fetches_total",
		Help:      "Route fetches by result (ok, no_route, network, bad_status, parse_failure, missing_field, canceled)",
	}, []string{"result"})

	RouteFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "georoute",
		Subsystem: "route",
		Name:      "fetch_duration_seconds",
		Help:      "Latency of routing service requests",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	StaleRoutesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "georoute",
		Subsystem: "route",
		Name:      "stale_discarded_total",
		Help:      "Route results dropped because a newer fetch superseded them or the overlay was detached",
	})

	RoutePoints = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "georoute",
		Subsystem: "route",
		Name:      "path_points",
		Help:      "Vertices in the currently displayed route path",
	})

	// Location metrics
	LocationUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "georoute",
		Subsystem: "location",
		Name:      "updates_total",
		Help:      "Location samples by outcome (applied, throttled)",
	}, []string{"outcome"})
)

// Handler returns a Fiber handler serving the Prometheus exposition format.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
