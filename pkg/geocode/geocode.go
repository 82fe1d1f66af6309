// Package geocode resolves free-form addresses to coordinates via the Census
// Geocoder (primary) and the Google Geocoding API (fallback), and coordinates
// back to formatted addresses.
package geocode

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/areascore/internal/model"
)

// ErrNoMatch means no provider could resolve the input.
var ErrNoMatch = eris.New("geocode: no match")

// Client resolves between addresses and coordinates.
type Client interface {
	// Geocode resolves an address to a location and the provider's
	// formatted address. Returns ErrNoMatch when nothing matches.
	Geocode(ctx context.Context, address string) (model.Location, string, error)

	// ReverseGeocode resolves a location to a formatted address. Returns
	// ErrNoMatch when no provider has coverage.
	ReverseGeocode(ctx context.Context, loc model.Location) (string, error)
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithGoogleAPIKey enables the Google Geocoding API as a fallback and as the
// preferred reverse geocoder.
func WithGoogleAPIKey(key string) Option {
	return func(g *geocoder) {
		g.googleKey = key
	}
}

// WithHTTPClient sets a custom HTTP client for all requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit shared by both providers.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

type geocoder struct {
	httpClient *http.Client
	googleKey  string
	limiter    *rate.Limiter
}

// NewClient creates a geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(5, 5),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Geocode tries Census first, then Google when configured.
func (g *geocoder) Geocode(ctx context.Context, address string) (model.Location, string, error) {
	loc, formatted, err := g.geocodeCensus(ctx, address)
	if err == nil {
		return loc, formatted, nil
	}
	if !eris.Is(err, ErrNoMatch) {
		zap.L().Warn("census geocode failed, trying fallback", zap.Error(err))
	}

	if g.googleKey != "" {
		loc, formatted, gerr := g.geocodeGoogle(ctx, address)
		if gerr == nil {
			return loc, formatted, nil
		}
		if !eris.Is(gerr, ErrNoMatch) {
			zap.L().Warn("google geocode failed", zap.Error(gerr))
		}
	}

	return model.Location{}, "", ErrNoMatch
}

// ReverseGeocode prefers Google when configured, falling back to the Census
// geographies lookup which yields a state-level address.
func (g *geocoder) ReverseGeocode(ctx context.Context, loc model.Location) (string, error) {
	if g.googleKey != "" {
		address, err := g.reverseGoogle(ctx, loc)
		if err == nil {
			return address, nil
		}
		if !eris.Is(err, ErrNoMatch) {
			zap.L().Warn("google reverse geocode failed, trying census", zap.Error(err))
		}
	}

	return g.reverseCensus(ctx, loc)
}
