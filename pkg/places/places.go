// Package places is a client for the Google Places web service: nearby type
// searches for the POI sub-score and place-detail lookups for the sentiment
// sub-score.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/areascore/internal/model"
	"github.com/sells-group/areascore/internal/resilience"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// detailFields limits the detail response to what the sentiment aggregator
// consumes.
const detailFields = "name,rating,user_ratings_total,price_level,reviews"

// Client performs nearby searches and detail lookups.
type Client interface {
	// NearbySearch returns the places of typeKey within radiusMeters of loc.
	// Zero results is a success.
	NearbySearch(ctx context.Context, loc model.Location, radiusMeters int, typeKey string) ([]model.Place, error)

	// Details fetches rating, review, and price data for one place.
	Details(ctx context.Context, placeID string) (model.Place, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.Policy
}

// NewClient creates a Places client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(10, 10),
		retry:   resilience.DefaultPolicy(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type nearbyResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID  string `json:"place_id"`
		Name     string `json:"name"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Rating           float64 `json:"rating"`
		UserRatingsTotal int     `json:"user_ratings_total"`
		PriceLevel       int     `json:"price_level"`
	} `json:"results"`
}

func (c *httpClient) NearbySearch(ctx context.Context, loc model.Location, radiusMeters int, typeKey string) ([]model.Place, error) {
	params := url.Values{
		"location": {fmt.Sprintf("%f,%f", loc.Lat, loc.Lng)},
		"radius":   {fmt.Sprintf("%d", radiusMeters)},
		"type":     {typeKey},
		"key":      {c.apiKey},
	}

	p := c.retry
	p.OnRetry = resilience.LogRetries("places", "nearby_search")

	return resilience.DoVal(ctx, p, func(ctx context.Context) ([]model.Place, error) {
		var out nearbyResponse
		if err := c.getJSON(ctx, "/nearbysearch/json?"+params.Encode(), &out); err != nil {
			return nil, eris.Wrap(err, "places: nearby search")
		}

		if err := checkStatus(out.Status); err != nil {
			return nil, eris.Wrap(err, "places: nearby search")
		}

		places := make([]model.Place, 0, len(out.Results))
		for _, r := range out.Results {
			places = append(places, model.Place{
				ID:      r.PlaceID,
				Name:    r.Name,
				TypeKey: typeKey,
				Location: model.Location{
					Lat: r.Geometry.Location.Lat,
					Lng: r.Geometry.Location.Lng,
				},
				Rating:           r.Rating,
				UserRatingsTotal: r.UserRatingsTotal,
				PriceLevel:       r.PriceLevel,
			})
		}
		return places, nil
	})
}

type detailsResponse struct {
	Status string `json:"status"`
	Result struct {
		Name             string  `json:"name"`
		Rating           float64 `json:"rating"`
		UserRatingsTotal int     `json:"user_ratings_total"`
		PriceLevel       int     `json:"price_level"`
		Reviews          []struct {
			Rating float64 `json:"rating"`
			Text   string  `json:"text"`
			Time   int64   `json:"time"` // unix seconds
		} `json:"reviews"`
	} `json:"result"`
}

func (c *httpClient) Details(ctx context.Context, placeID string) (model.Place, error) {
	params := url.Values{
		"place_id": {placeID},
		"fields":   {detailFields},
		"key":      {c.apiKey},
	}

	p := c.retry
	p.OnRetry = resilience.LogRetries("places", "details")

	return resilience.DoVal(ctx, p, func(ctx context.Context) (model.Place, error) {
		var out detailsResponse
		if err := c.getJSON(ctx, "/details/json?"+params.Encode(), &out); err != nil {
			return model.Place{}, eris.Wrap(err, "places: details")
		}

		if err := checkStatus(out.Status); err != nil {
			return model.Place{}, eris.Wrap(err, "places: details")
		}

		place := model.Place{
			ID:               placeID,
			Name:             out.Result.Name,
			Rating:           out.Result.Rating,
			UserRatingsTotal: out.Result.UserRatingsTotal,
			PriceLevel:       out.Result.PriceLevel,
		}
		for _, r := range out.Result.Reviews {
			place.Reviews = append(place.Reviews, model.Review{
				Rating:    r.Rating,
				Text:      r.Text,
				Timestamp: time.Unix(r.Time, 0).UTC(),
			})
		}
		return place, nil
	})
}

// checkStatus maps the service's status field onto the error taxonomy.
// ZERO_RESULTS is a success; OVER_QUERY_LIMIT and UNKNOWN_ERROR are
// transient and retried.
func checkStatus(status string) error {
	switch status {
	case "OK", "ZERO_RESULTS":
		return nil
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return resilience.NewTransientError(eris.Errorf("service status %s", status), 0)
	default:
		return eris.Errorf("service status %s", status)
	}
}

func (c *httpClient) getJSON(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "do request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read body")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "parse response")
	}
	return nil
}
