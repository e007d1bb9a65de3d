package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"georoute/internal/config"
	"georoute/internal/location"
	"georoute/internal/logging"
	"georoute/internal/overlay"
	"georoute/internal/pipeline"
	"georoute/internal/route"
	"georoute/internal/server"
	"georoute/internal/tui"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Fprint(os.Stderr, config.Usage())
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logging.New(cfg.Log, cfg.Headless)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("georoute stopped", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSource(cfg *config.Config) (location.Source, error) {
	if cfg.Location.Track != "" {
		return location.LoadReplay(cfg.Location.Track, cfg.Location.Interval, cfg.Location.Loop)
	}
	return location.NewFixed(cfg.Location.StartPoint)
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := newSource(cfg)
	if err != nil {
		return fmt.Errorf("location source: %w", err)
	}

	ctrl := overlay.NewController()
	client := route.NewClient(cfg.Routing.BaseURL,
		route.WithProfile(cfg.Routing.Profile),
		route.WithTimeout(cfg.Routing.Timeout),
		route.WithLogger(log.Named("route")),
	)
	pipe := pipeline.New(ctrl, client, pipeline.Config{
		Destination:     cfg.Routing.DestinationPoint,
		Zoom:            cfg.Map.Zoom,
		RerouteDistance: cfg.Routing.RerouteDistance,
		FastestInterval: cfg.Location.FastestInterval,
	}, log.Named("pipeline"))

	log.Info("starting",
		zap.String("routing", cfg.Routing.BaseURL),
		zap.String("profile", cfg.Routing.Profile),
		zap.Stringer("destination", cfg.Routing.DestinationPoint),
		zap.String("track", cfg.Location.Track),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return pipe.Run(gctx, src) })

	if cfg.Server.Listen != "" {
		srv := server.New(ctrl, log.Named("server"))
		g.Go(func() error { return srv.Listen(gctx, cfg.Server.Listen) })
	}

	if cfg.Headless {
		g.Go(func() error {
			logEvents(gctx, pipe, log)
			return nil
		})
	} else {
		g.Go(func() error {
			// the screen going away ends the session
			defer cancel()
			p := tea.NewProgram(tui.New(ctrl, pipe),
				tea.WithAltScreen(),
				tea.WithMouseAllMotion(),
				tea.WithContext(gctx),
			)
			_, err := p.Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		})
	}

	err = g.Wait()
	ctrl.Detach()
	return err
}

// logEvents stands in for the screen in headless mode.
func logEvents(ctx context.Context, pipe *pipeline.Pipeline, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-pipe.Events():
			switch e.Kind {
			case pipeline.EventLocation:
				log.Info("location", zap.Stringer("at", e.Point))
			case pipeline.EventRouteApplied:
				log.Info("route applied", zap.Int("points", e.Points), zap.Float64("length_m", e.Length))
			case pipeline.EventNoRoute:
				log.Info("no route")
			case pipeline.EventRouteFailed:
				log.Warn("route failed", zap.Error(e.Err))
			default:
				log.Debug(e.Kind.String())
			}
		}
	}
}
