// Package server exposes the overlay read model over HTTP.
package server

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"georoute/internal/metrics"
	"georoute/internal/overlay"
)

const shutdownTimeout = 5 * time.Second

// Snapshotter is satisfied by *overlay.Controller.
type Snapshotter interface {
	Snapshot() overlay.State
}

type Server struct {
	app  *fiber.App
	src  Snapshotter
	log  *zap.Logger
	boot time.Time
}

func New(src Snapshotter, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "georoute",
			DisableStartupMessage: true,
			ReadTimeout:           10 * time.Second,
			WriteTimeout:          10 * time.Second,
		}),
		src:  src,
		log:  log,
		boot: time.Now(),
	}
	s.app.Use(recover.New())
	s.routes()
	return s
}

// App returns the underlying fiber app, mostly for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) routes() {
	v1 := s.app.Group("/v1")
	v1.Get("/health", s.health)
	v1.Get("/overlay", s.overlay)
	v1.Get("/overlay.geojson", s.overlayGeoJSON)
	s.app.Get("/metrics", metrics.Handler())
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"uptime": time.Since(s.boot).Round(time.Second).String(),
	})
}

// etag answers 304 when the client already holds this overlay version.
func etag(c *fiber.Ctx, version uint64) bool {
	tag := `W/"` + strconv.FormatUint(version, 10) + `"`
	c.Set(fiber.HeaderETag, tag)
	if c.Get(fiber.HeaderIfNoneMatch) == tag {
		c.Status(fiber.StatusNotModified)
		return true
	}
	return false
}

func (s *Server) overlay(c *fiber.Ctx) error {
	st := s.src.Snapshot()
	if etag(c, st.Version) {
		return nil
	}
	return c.JSON(st)
}

func (s *Server) overlayGeoJSON(c *fiber.Ctx) error {
	st := s.src.Snapshot()
	if etag(c, st.Version) {
		return nil
	}
	data, err := FeatureCollection(st).MarshalJSON()
	if err != nil {
		s.log.Error("encode overlay geojson", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "encode overlay")
	}
	c.Set(fiber.HeaderContentType, "application/geo+json")
	return c.Send(data)
}

// FeatureCollection renders the overlay as GeoJSON: a Point per marker and a
// LineString for the route when one is set.
func FeatureCollection(st overlay.State) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range st.Markers {
		f := geojson.NewFeature(m.Point.Point())
		f.Properties["label"] = m.Label
		fc.Append(f)
	}
	if len(st.Path) > 0 {
		f := geojson.NewFeature(st.Path.LineString())
		f.Properties["role"] = "route"
		f.Properties["length_m"] = st.Path.Length()
		fc.Append(f)
	}
	return fc
}

// Listen serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("read model listening", zap.String("addr", addr))
		errc <- s.app.Listen(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		s.log.Error("forced shutdown", zap.Error(err))
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	s.log.Info("read model stopped")
	return nil
}
