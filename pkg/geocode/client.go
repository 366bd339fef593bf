// Package geocode resolves postal addresses to coordinates through a
// Nominatim-compatible search endpoint.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/tidwall/gjson"

	pkgerrors "github.com/angelmondragon/rentals-backend/pkg/errors"
	"github.com/angelmondragon/rentals-backend/pkg/metrics"
	"github.com/angelmondragon/rentals-backend/pkg/types"
)

const (
	defaultBaseURL       = "https://nominatim.openstreetmap.org"
	defaultTimeout       = 5 * time.Second
	responseReadLimit    = 1 << 20
	errorBodyReadLimit   = 1024
	defaultCacheTTL      = 24 * time.Hour
	defaultCacheCapacity = 1000
	defaultUserAgent     = "rentals-backend/1.0"
)

// ErrNoResults is returned when the geocoder answered but found nothing.
var ErrNoResults = errors.New("geocode: no results")

// Address is the free-text address a property is listed under.
type Address struct {
	Street     string
	City       string
	State      string
	Country    string
	PostalCode string
}

func (a Address) cacheKey() string {
	parts := []string{a.Street, a.City, a.Country, a.PostalCode}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.Join(strings.Fields(p), " "))
	}
	return strings.Join(parts, "|")
}

// Client is a Nominatim search client with an in-process result cache.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	email      string
	timeout    time.Duration
	cache      *ttlcache.Cache[string, types.Coordinates]
	metrics    *metrics.OutcomeCounter
}

// Option configures optional client behavior.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient    *http.Client
	baseURL       string
	userAgent     string
	email         string
	timeout       time.Duration
	cacheTTL      time.Duration
	cacheCapacity uint64
	metrics       *metrics.OutcomeCounter
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithBaseURL overrides the search endpoint host.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			o.baseURL = trimmed
		}
	}
}

// WithUserAgent sets the identifying User-Agent the public Nominatim policy requires.
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) {
		if trimmed := strings.TrimSpace(ua); trimmed != "" {
			o.userAgent = trimmed
		}
	}
}

func WithEmail(email string) Option {
	return func(o *clientOptions) {
		o.email = strings.TrimSpace(email)
	}
}

// WithTimeout bounds every lookup.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithCache(ttl time.Duration, capacity uint64) Option {
	return func(o *clientOptions) {
		if ttl > 0 {
			o.cacheTTL = ttl
		}
		if capacity > 0 {
			o.cacheCapacity = capacity
		}
	}
}

func WithMetrics(m *metrics.OutcomeCounter) Option {
	return func(o *clientOptions) {
		o.metrics = m
	}
}

func NewClient(opts ...Option) *Client {
	o := clientOptions{
		baseURL:       defaultBaseURL,
		userAgent:     defaultUserAgent,
		timeout:       defaultTimeout,
		cacheTTL:      defaultCacheTTL,
		cacheCapacity: defaultCacheCapacity,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{}
	}

	cache := ttlcache.New(
		ttlcache.WithTTL[string, types.Coordinates](o.cacheTTL),
		ttlcache.WithCapacity[string, types.Coordinates](o.cacheCapacity),
		ttlcache.WithDisableTouchOnHit[string, types.Coordinates](),
	)

	return &Client{
		httpClient: o.httpClient,
		baseURL:    strings.TrimRight(o.baseURL, "/"),
		userAgent:  o.userAgent,
		email:      o.email,
		timeout:    o.timeout,
		cache:      cache,
		metrics:    o.metrics,
	}
}

// Start runs the cache's expiry loop until Stop is called.
func (c *Client) Start() {
	c.cache.Start()
}

func (c *Client) Stop() {
	c.cache.Stop()
}

// Geocode returns the first candidate for addr. It fails with ErrNoResults
// when the lookup succeeds but is empty, and with a DEPENDENCY_ERROR when the
// service cannot be reached or answers with an error.
func (c *Client) Geocode(ctx context.Context, addr Address) (types.Coordinates, error) {
	if c == nil {
		return types.Coordinates{}, pkgerrors.New(pkgerrors.CodeDependency, "geocoder not configured")
	}

	key := addr.cacheKey()
	if item := c.cache.Get(key); item != nil {
		c.metrics.Inc(metrics.GeocodeCached)
		return item.Value(), nil
	}

	coords, err := c.lookup(ctx, addr)
	switch {
	case errors.Is(err, ErrNoResults):
		c.metrics.Inc(metrics.GeocodeMiss)
		return types.Coordinates{}, err
	case err != nil:
		c.metrics.Inc(metrics.GeocodeError)
		return types.Coordinates{}, err
	}

	c.metrics.Inc(metrics.GeocodeHit)
	c.cache.Set(key, coords, ttlcache.DefaultTTL)
	return coords, nil
}

func (c *Client) lookup(ctx context.Context, addr Address) (types.Coordinates, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("street", addr.Street)
	q.Set("city", addr.City)
	q.Set("country", addr.Country)
	q.Set("postalcode", addr.PostalCode)
	q.Set("format", "json")
	q.Set("limit", "1")
	if c.email != "" {
		q.Set("email", c.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return types.Coordinates{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build geocode request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.Coordinates{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute geocode request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return types.Coordinates{}, pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "geocode request failed")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
	if err != nil {
		return types.Coordinates{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read geocode response")
	}
	return parseFirstCandidate(body)
}

// parseFirstCandidate reads lon/lat of the first element. Nominatim encodes
// both as strings; plain numbers are accepted too.
func parseFirstCandidate(body []byte) (types.Coordinates, error) {
	if !gjson.ValidBytes(body) {
		return types.Coordinates{}, pkgerrors.New(pkgerrors.CodeDependency, "geocode response is not valid json")
	}
	result := gjson.ParseBytes(body)
	if !result.IsArray() {
		return types.Coordinates{}, pkgerrors.New(pkgerrors.CodeDependency, "geocode response is not a list")
	}
	first := result.Get("0")
	if !first.Exists() {
		return types.Coordinates{}, ErrNoResults
	}

	lon, lonErr := strconv.ParseFloat(first.Get("lon").String(), 64)
	lat, latErr := strconv.ParseFloat(first.Get("lat").String(), 64)
	if lonErr != nil || latErr != nil {
		return types.Coordinates{}, pkgerrors.New(pkgerrors.CodeDependency, "geocode candidate has no usable coordinates")
	}

	coords := types.Coordinates{Longitude: lon, Latitude: lat}
	if !coords.InRange() {
		return types.Coordinates{}, pkgerrors.New(pkgerrors.CodeDependency, "geocode candidate out of range")
	}
	return coords, nil
}
