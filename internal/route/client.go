package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"georoute/internal/geom"
	"georoute/internal/metrics"
)

const (
	// DefaultBaseURL is the public OSRM demo server.
	DefaultBaseURL = "https://router.project-osrm.org"
	DefaultProfile = "walking"
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 16 << 20
	codeNoRoute  = "NoRoute"
)

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Route is a routing service answer reduced to what the overlay needs.
type Route struct {
	Path geom.RoutePath
	// Distance in meters and Duration in seconds, as reported by the service.
	Distance float64
	Duration float64
}

// Client queries an OSRM-compatible routing service.
type Client struct {
	baseURL string
	profile string
	http    Doer
	log     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(d Doer) Option { return func(c *Client) { c.http = d } }

// WithTimeout sets the timeout of the default *http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// WithProfile selects the routing profile (walking, driving, cycling, ...).
func WithProfile(p string) Option { return func(c *Client) { c.profile = p } }

func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// NewClient creates a Client for baseURL; an empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: DefaultProfile,
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// URL builds the request URL. Coordinates go on the wire as lon,lat.
func (c *Client) URL(start, end geom.GeoPoint) string {
	return fmt.Sprintf("%s/route/v1/%s/%s;%s?overview=full&geometries=geojson",
		c.baseURL, url.PathEscape(c.profile), start.LonLat(), end.LonLat())
}

// FetchRoute returns the path from start to end. A nil path with a nil error
// means the service found no route.
func (c *Client) FetchRoute(ctx context.Context, start, end geom.GeoPoint) (geom.RoutePath, error) {
	r, err := c.Fetch(ctx, start, end)
	if err != nil || r == nil {
		return nil, err
	}
	return r.Path, nil
}

// Fetch is FetchRoute plus the distance/duration summary. A nil *Route with a
// nil error means no route.
func (c *Client) Fetch(ctx context.Context, start, end geom.GeoPoint) (*Route, error) {
	if err := start.Validate(); err != nil {
		return nil, fmt.Errorf("route start: %w", err)
	}
	if err := end.Validate(); err != nil {
		return nil, fmt.Errorf("route end: %w", err)
	}

	began := time.Now()
	r, err := c.fetch(ctx, start, end)
	elapsed := time.Since(began)
	metrics.RouteFetchDuration.Observe(elapsed.Seconds())
	metrics.RouteFetches.WithLabelValues(resultLabel(ctx, r, err)).Inc()

	switch {
	case err != nil:
		c.log.Warn("route fetch failed",
			zap.Stringer("start", start),
			zap.Stringer("end", end),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	case r == nil:
		c.log.Info("no route found", zap.Stringer("start", start), zap.Stringer("end", end))
	default:
		c.log.Debug("route fetched",
			zap.Int("points", len(r.Path)),
			zap.Float64("distance_m", r.Distance),
			zap.Duration("elapsed", elapsed),
		)
	}
	return r, err
}

func (c *Client) fetch(ctx context.Context, start, end geom.GeoPoint) (*Route, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(start, end), nil)
	if err != nil {
		return nil, fmt.Errorf("route: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var doc osrmResponse
		_ = json.Unmarshal(body, &doc)
		if doc.Code == codeNoRoute {
			return nil, nil
		}
		return nil, &FetchError{
			Kind:       KindBadStatus,
			StatusCode: resp.StatusCode,
			Code:       doc.Code,
			Message:    doc.Message,
		}
	}
	return decode(body)
}

type osrmResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Routes  *[]osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64       `json:"distance"`
	Duration float64       `json:"duration"`
	Geometry *osrmGeometry `json:"geometry"`
}

// Positions hold pointers so a null member is told apart from 0.
type osrmGeometry struct {
	Coordinates *[][]*float64 `json:"coordinates"`
}

// decode maps a 200 response body to a Route. GeoJSON positions are [lon, lat].
func decode(body []byte) (*Route, error) {
	var doc osrmResponse
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &FetchError{Kind: KindParseFailure, Err: err}
	}
	if doc.Code == codeNoRoute {
		return nil, nil
	}
	if doc.Routes == nil {
		return nil, &FetchError{Kind: KindMissingField, Field: "routes"}
	}
	routes := *doc.Routes
	if len(routes) == 0 {
		return nil, nil
	}
	first := routes[0]
	if first.Geometry == nil {
		return nil, &FetchError{Kind: KindMissingField, Field: "routes[0].geometry"}
	}
	if first.Geometry.Coordinates == nil || len(*first.Geometry.Coordinates) == 0 {
		return nil, &FetchError{Kind: KindMissingField, Field: "routes[0].geometry.coordinates"}
	}

	coords := *first.Geometry.Coordinates
	path := make(geom.RoutePath, 0, len(coords))
	for i, pos := range coords {
		p, err := position(pos)
		if err != nil {
			return nil, &FetchError{
				Kind:  KindParseFailure,
				Field: fmt.Sprintf("routes[0].geometry.coordinates[%d]", i),
				Err:   err,
			}
		}
		path = append(path, p)
	}
	return &Route{Path: path, Distance: first.Distance, Duration: first.Duration}, nil
}

func position(pos []*float64) (geom.GeoPoint, error) {
	pair := make([]float64, len(pos))
	for i, v := range pos {
		if v == nil {
			return geom.GeoPoint{}, fmt.Errorf("position member %d is null", i)
		}
		pair[i] = *v
	}
	return geom.FromLonLatPair(pair)
}

func resultLabel(ctx context.Context, r *Route, err error) string {
	switch {
	case err == nil && r == nil:
		return "no_route"
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		return "canceled"
	}
	if k := KindOf(err); k != 0 {
		return k.String()
	}
	return "error"
}
