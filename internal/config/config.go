package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"georoute/internal/geom"
	"georoute/internal/pipeline"
	"georoute/internal/route"
)

const (
	DefaultDestination = "52.670904,-8.642153"
	DefaultStart       = "52.67345,-8.64706"
)

// Config holds all application configuration.
type Config struct {
	Routing  RoutingConfig  `mapstructure:"routing"`
	Location LocationConfig `mapstructure:"location"`
	Map      MapConfig      `mapstructure:"map"`
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Headless bool           `mapstructure:"headless"`
}

type RoutingConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Profile         string        `mapstructure:"profile"`
	Destination     string        `mapstructure:"destination"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RerouteDistance float64       `mapstructure:"reroute_distance"`

	DestinationPoint geom.GeoPoint `mapstructure:"-"`
}

type LocationConfig struct {
	Track           string        `mapstructure:"track"`
	Start           string        `mapstructure:"start"`
	Interval        time.Duration `mapstructure:"interval"`
	FastestInterval time.Duration `mapstructure:"fastest_interval"`
	Loop            bool          `mapstructure:"loop"`

	StartPoint geom.GeoPoint `mapstructure:"-"`
}

type MapConfig struct {
	Zoom float64 `mapstructure:"zoom"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type ServerConfig struct {
	// Listen is the read-model HTTP address; empty disables the server.
	Listen string `mapstructure:"listen"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("routing.base_url", route.DefaultBaseURL)
	v.SetDefault("routing.profile", route.DefaultProfile)
	v.SetDefault("routing.destination", DefaultDestination)
	v.SetDefault("routing.timeout", route.DefaultTimeout)
	v.SetDefault("routing.reroute_distance", pipeline.DefaultRerouteDistance)
	v.SetDefault("location.track", "")
	v.SetDefault("location.start", DefaultStart)
	v.SetDefault("location.interval", 10*time.Second)
	v.SetDefault("location.fastest_interval", 5*time.Second)
	v.SetDefault("location.loop", false)
	v.SetDefault("map.zoom", pipeline.DefaultZoom)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("server.listen", "")
	v.SetDefault("headless", false)
}

// flag name -> config key
var flagKeys = map[string]string{
	"track":       "location.track",
	"start":       "location.start",
	"loop":        "location.loop",
	"destination": "routing.destination",
	"routing-url": "routing.base_url",
	"profile":     "routing.profile",
	"zoom":        "map.zoom",
	"listen":      "server.listen",
	"headless":    "headless",
	"log-level":   "log.level",
	"log-file":    "log.file",
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("georoute", pflag.ContinueOnError)
	// errors and help are reported by the caller
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.String("config", "", "path to a config file (default: georoute.yaml in ., ./configs or ~/.config/georoute)")
	fs.String("track", "", "replay positions from a .geojson, .csv, .kml or .wkt file")
	fs.String("start", DefaultStart, "fixed start position as \"lat,lon\" or WKT POINT when no track is given")
	fs.Bool("loop", false, "restart the track replay after the last point")
	fs.String("destination", DefaultDestination, "route end point as \"lat,lon\" or WKT POINT")
	fs.String("routing-url", route.DefaultBaseURL, "OSRM base URL")
	fs.String("profile", route.DefaultProfile, "OSRM routing profile")
	fs.Float64("zoom", pipeline.DefaultZoom, "initial map zoom level")
	fs.String("listen", "", "serve the overlay read model on this address, e.g. :8080")
	fs.Bool("headless", false, "run without the terminal UI")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.String("log-file", "", "write logs to this file")
	return fs
}

// Usage returns the flag help text.
func Usage() string {
	return "usage: georoute [flags] [track-file]\n" + newFlagSet().FlagUsages()
}

// Load reads configuration from flags, environment variables and an optional
// config file, in that order of precedence.
func Load(args []string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	if fs.NArg() > 1 {
		return nil, fmt.Errorf("expected at most one track file, got %d arguments", fs.NArg())
	}
	if fs.NArg() == 1 && !fs.Changed("track") {
		v.Set("location.track", fs.Arg(0))
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("georoute")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.config/georoute")
		_ = v.ReadInConfig() // OK if missing
	}

	// Environment variables: GEOROUTE_ROUTING_BASE_URL → routing.base_url
	v.SetEnvPrefix("GEOROUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field values and resolves the start and destination points.
func (c *Config) Validate() error {
	var errs []string

	if u, err := url.Parse(c.Routing.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("routing.base_url must be an absolute URL, got %q", c.Routing.BaseURL))
	}
	if c.Routing.Profile == "" {
		errs = append(errs, "routing.profile is required")
	}
	if p, err := geom.ParsePoint(c.Routing.Destination); err != nil {
		errs = append(errs, fmt.Sprintf("routing.destination: %v", err))
	} else {
		c.Routing.DestinationPoint = p
	}
	if c.Routing.Timeout <= 0 {
		errs = append(errs, "routing.timeout must be positive")
	}
	if c.Routing.RerouteDistance < 0 {
		errs = append(errs, "routing.reroute_distance must not be negative (0 reroutes on every fix)")
	}
	if c.Location.Track == "" {
		if p, err := geom.ParsePoint(c.Location.Start); err != nil {
			errs = append(errs, fmt.Sprintf("location.start: %v", err))
		} else {
			c.Location.StartPoint = p
		}
	}
	if c.Location.Interval <= 0 {
		errs = append(errs, "location.interval must be positive")
	}
	if c.Location.FastestInterval < 0 || c.Location.FastestInterval > c.Location.Interval {
		errs = append(errs, "location.fastest_interval must be between 0 and location.interval")
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 20 {
		errs = append(errs, fmt.Sprintf("map.zoom must be 0-20, got %g", c.Map.Zoom))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or console, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  - " + strings.Join(errs, "\n  - "))
	}
	return nil
}
