// Package graphhopper queries a GraphHopper routing server for road routes
// between apiaries.
package graphhopper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/BeeKIS/honeybee-migrations/internal/resilience"
)

// DefaultURL is the route endpoint of a locally hosted GraphHopper.
const DefaultURL = "http://localhost:8989/route"

// ErrNoRoute is returned when a point cannot be snapped to the road network,
// the points are not connected, or a successful answer carries no path.
var ErrNoRoute = errors.New("graphhopper: no route")

// LatLon is a WGS84 coordinate pair.
type LatLon struct {
	Lat float64
	Lon float64
}

func (p LatLon) param() string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'f', -1, 64)
}

// Router finds road routes.
type Router interface {
	Route(ctx context.Context, from, to LatLon) (*Route, error)
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithProfile selects the vehicle profile configured on the server.
func WithProfile(profile string) Option {
	return func(c *Client) { c.profile = profile }
}

// WithPointStep keeps every n-th travel point of the route geometry.
func WithPointStep(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pointStep = n
		}
	}
}

// WithRetry replaces the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// Client talks to the GraphHopper /route endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	profile    string
	pointStep  int
	retry      resilience.RetryConfig
}

// NewClient creates a client for the route endpoint at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(20, 20),
		profile:    "truck",
		pointStep:  40,
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("graphhopper", "route")
	}
	return c
}

// Route returns the road route between two points. ErrNoRoute is returned
// when the server finds none. Rate limiting and 5xx answers are retried and
// any other rejection is returned as is.
func (c *Client) Route(ctx context.Context, from, to LatLon) (*Route, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*Route, error) {
		return c.route(ctx, from, to)
	})
}

func (c *Client) route(ctx context.Context, from, to LatLon) (*Route, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "graphhopper: rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+c.query(from, to).Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "graphhopper: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "graphhopper: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "graphhopper: read body")
	}

	var rr routeResponse
	jsonErr := json.Unmarshal(body, &rr)
	if jsonErr == nil && resilience.IsNoRoute(rr.Message) {
		return nil, fmt.Errorf("%w: %s", ErrNoRoute, rr.Message)
	}
	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(
			fmt.Errorf("graphhopper: server returned status %d", resp.StatusCode), resp.StatusCode)
	}
	if jsonErr != nil {
		return nil, eris.Wrapf(jsonErr, "graphhopper: parse response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("graphhopper: server rejected request (status %d): %s", resp.StatusCode, rr.Message)
	}
	if len(rr.Paths) == 0 {
		return nil, ErrNoRoute
	}
	return rr.Paths[0].toRoute(c.pointStep), nil
}

func (c *Client) query(from, to LatLon) url.Values {
	return url.Values{
		"point":              {from.param(), to.param()},
		"profile":            {c.profile},
		"details":            {"road_class", "distance"},
		"elevation":          {"true"},
		"optimize":           {"true"},
		"distance_influence": {"0"},
		"points_encoded":     {"false"},
		"calc_points":        {"true"},
		"ch.disable":         {"false"},
		"pass_through":       {"false"},
		"debug":              {"false"},
	}
}
