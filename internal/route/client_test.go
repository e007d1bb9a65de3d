package route

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"georoute/internal/geom"
)

var (
	start = geom.GeoPoint{Lat: 52.67345, Lon: -8.64706}
	end   = geom.GeoPoint{Lat: 52.670904, Lon: -8.642153}
)

const scenarioBody = `{"routes":[{"geometry":{"coordinates":[[-8.64706,52.67345],[-8.6445,52.6715],[-8.642153,52.670904]]}}]}`

// routingServer answers every request with status and body, recording the last request URI.
func routingServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Value) {
	t.Helper()
	var last atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last.Store(r.URL.RequestURI())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func TestFetchRouteScenario(t *testing.T) {
	srv, last := routingServer(t, http.StatusOK, scenarioBody)
	c := NewClient(srv.URL)

	path, err := c.FetchRoute(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, geom.RoutePath{
		{Lat: 52.67345, Lon: -8.64706},
		{Lat: 52.6715, Lon: -8.6445},
		{Lat: 52.670904, Lon: -8.642153},
	}, path)
	assert.Equal(t,
		"/route/v1/walking/-8.64706,52.67345;-8.642153,52.670904?overview=full&geometries=geojson",
		last.Load())
}

func TestFetchSummary(t *testing.T) {
	srv, _ := routingServer(t, http.StatusOK,
		`{"code":"Ok","routes":[{"distance":451.2,"duration":325.1,"geometry":{"type":"LineString","coordinates":[[-8.64706,52.67345],[-8.642153,52.670904]]}}]}`)
	r, err := NewClient(srv.URL).Fetch(context.Background(), start, end)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Len(t, r.Path, 2)
	assert.Equal(t, 451.2, r.Distance)
	assert.Equal(t, 325.1, r.Duration)
}

func TestFetchRouteEmptyRoutesIsNoRoute(t *testing.T) {
	srv, _ := routingServer(t, http.StatusOK, `{"routes":[]}`)
	path, err := NewClient(srv.URL).FetchRoute(context.Background(), start, end)
	require.NoError(t, err)
	assert.Nil(t, path)
}

func TestFetchRouteNoRouteCode(t *testing.T) {
	srv, _ := routingServer(t, http.StatusBadRequest, `{"code":"NoRoute","message":"Impossible route between points"}`)
	path, err := NewClient(srv.URL).FetchRoute(context.Background(), start, end)
	require.NoError(t, err)
	assert.Nil(t, path)
}

func TestFetchRouteMalformedJSON(t *testing.T) {
	srv, _ := routingServer(t, http.StatusOK, `{"routes":[{"geometry":`)
	path, err := NewClient(srv.URL).FetchRoute(context.Background(), start, end)
	assert.Nil(t, path)
	require.ErrorIs(t, err, ErrParseFailure)
	assert.Equal(t, KindParseFailure, KindOf(err))
}

func TestFetchRouteWrongShapes(t *testing.T) {
	cases := map[string]struct {
		body string
		want error
	}{
		"routes not array":       {`{"routes":{}}`, ErrParseFailure},
		"coordinate is a string": {`{"routes":[{"geometry":{"coordinates":[["a","b"]]}}]}`, ErrParseFailure},
		"short pair":             {`{"routes":[{"geometry":{"coordinates":[[-8.6]]}}]}`, ErrParseFailure},
		"null longitude":         {`{"routes":[{"geometry":{"coordinates":[[-8.64706,52.67345],[null,52.6715],[-8.642153,52.670904]]}}]}`, ErrParseFailure},
		"null latitude":          {`{"routes":[{"geometry":{"coordinates":[[-8.64706,null]]}}]}`, ErrParseFailure},
		"null position":          {`{"routes":[{"geometry":{"coordinates":[null]}}]}`, ErrParseFailure},
		"out of range":           {`{"routes":[{"geometry":{"coordinates":[[-8.6,95]]}}]}`, ErrParseFailure},
		"no routes field":        {`{"code":"Ok"}`, ErrMissingField},
		"null routes":            {`{"routes":null}`, ErrMissingField},
		"no geometry":            {`{"routes":[{"distance":1}]}`, ErrMissingField},
		"no coordinates":         {`{"routes":[{"geometry":{"type":"LineString"}}]}`, ErrMissingField},
		"empty coordinates":      {`{"routes":[{"geometry":{"coordinates":[]}}]}`, ErrMissingField},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := routingServer(t, http.StatusOK, tc.body)
			path, err := NewClient(srv.URL).FetchRoute(context.Background(), start, end)
			assert.Nil(t, path)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestFetchRouteMissingFieldNamesField(t *testing.T) {
	srv, _ := routingServer(t, http.StatusOK, `{"routes":[{"distance":1}]}`)
	_, err := NewClient(srv.URL).FetchRoute(context.Background(), start, end)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "routes[0].geometry", fe.Field)
}

func TestFetchRouteNullCoordinateNamesPosition(t *testing.T) {
	srv, _ := routingServer(t, http.StatusOK, `{"routes":[{"geometry":{"coordinates":[[-8.64706,52.67345],[null,52.6715]]}}]}`)
	_, err := NewClient(srv.URL).FetchRoute(context.Background(), start, end)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindParseFailure, fe.Kind)
	assert.Equal(t, "routes[0].geometry.coordinates[1]", fe.Field)
}

func TestFetchRouteBadStatus(t *testing.T) {
	srv, _ := routingServer(t, http.StatusTooManyRequests, `{"code":"TooBig","message":"slow down"}`)
	_, err := NewClient(srv.URL).FetchRoute(context.Background(), start, end)
	require.ErrorIs(t, err, ErrBadStatus)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusTooManyRequests, fe.StatusCode)
	assert.Equal(t, "TooBig", fe.Code)
	assert.Contains(t, err.Error(), "429")

	srv, _ = routingServer(t, http.StatusBadGateway, `<html>bad gateway</html>`)
	_, err = NewClient(srv.URL).FetchRoute(context.Background(), start, end)
	assert.ErrorIs(t, err, ErrBadStatus)
	assert.NotErrorIs(t, err, ErrParseFailure)
}

func TestFetchRouteNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := NewClient(base, WithTimeout(time.Second)).FetchRoute(context.Background(), start, end)
	require.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestFetchRouteCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := NewClient(srv.URL).FetchRoute(ctx, start, end)
	require.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchRouteRejectsInvalidPoints(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchRoute(context.Background(), geom.GeoPoint{Lat: 91}, end)
	assert.ErrorIs(t, err, geom.ErrOutOfRange)
	assert.Zero(t, hits.Load())
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

func TestClientOptions(t *testing.T) {
	var got string
	d := doerFunc(func(r *http.Request) (*http.Response, error) {
		got = r.URL.String()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       http.NoBody,
		}, nil
	})
	c := NewClient("http://osrm.local/", WithProfile("foot"), WithHTTPClient(d))
	_, err := c.FetchRoute(context.Background(), start, end)
	// empty body is not JSON
	assert.ErrorIs(t, err, ErrParseFailure)
	assert.True(t, strings.HasPrefix(got, "http://osrm.local/route/v1/foot/-8.64706,52.67345;"), got)
}

func TestURLEncodingRoundTrip(t *testing.T) {
	c := NewClient("")
	u := c.URL(start, end)
	assert.True(t, strings.HasPrefix(u, DefaultBaseURL+"/route/v1/walking/"))

	coords := strings.TrimPrefix(strings.SplitN(u, "?", 2)[0], DefaultBaseURL+"/route/v1/walking/")
	a, b, ok := strings.Cut(coords, ";")
	require.True(t, ok)
	gotStart, err := geom.ParseLonLat(a)
	require.NoError(t, err)
	gotEnd, err := geom.ParseLonLat(b)
	require.NoError(t, err)
	assert.Equal(t, start, gotStart)
	assert.Equal(t, end, gotEnd)
}
