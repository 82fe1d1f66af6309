// Package femaflood queries the FEMA National Flood Hazard Layer for the
// flood-zone polygon covering a coordinate.
package femaflood

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

	"github.com/sells-group/areascore/internal/flood"
	"github.com/sells-group/areascore/internal/model"
	"github.com/sells-group/areascore/internal/resilience"
)

const defaultBaseURL = "https://hazards.fema.gov/arcgis/rest/services/public/NFHL"

// floodHazardLayer is the NFHL flood hazard zones layer index.
const floodHazardLayer = 28

// ErrUnavailable means the NFHL has no mapped zone for the location. Callers
// fall back to the labeled synthetic assessment.
var ErrUnavailable = eris.New("femaflood: no mapped flood zone")

// nullElevation is the ArcGIS sentinel for an absent static BFE.
const nullElevation = -9999

// Client queries flood-zone attributes.
type Client interface {
	Zone(ctx context.Context, loc model.Location) (flood.Attributes, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default service base URL.
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

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.Policy
}

// NewClient creates an NFHL client. The service is unauthenticated.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(5, 5),
		retry:   resilience.DefaultPolicy(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type queryResponse struct {
	Features []struct {
		Attributes struct {
			FldZone   string  `json:"FLD_ZONE"`
			ZoneSubty string  `json:"ZONE_SUBTY"`
			SfhaTF    string  `json:"SFHA_TF"` // "T" or "F"
			StaticBFE float64 `json:"STATIC_BFE"`
			Depth     float64 `json:"DEPTH"`
			Velocity  float64 `json:"VELOCITY"`
		} `json:"attributes"`
	} `json:"features"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Zone returns the attributes of the flood-zone polygon containing loc.
// Locations outside any mapped zone yield ErrUnavailable.
func (c *httpClient) Zone(ctx context.Context, loc model.Location) (flood.Attributes, error) {
	params := url.Values{
		"geometry":       {fmt.Sprintf("%f,%f", loc.Lng, loc.Lat)},
		"geometryType":   {"esriGeometryPoint"},
		"inSR":           {"4326"},
		"spatialRel":     {"esriSpatialRelIntersects"},
		"outFields":      {"FLD_ZONE,ZONE_SUBTY,SFHA_TF,STATIC_BFE,DEPTH,VELOCITY"},
		"returnGeometry": {"false"},
		"f":              {"json"},
	}
	path := fmt.Sprintf("/MapServer/%d/query?%s", floodHazardLayer, params.Encode())

	p := c.retry
	p.OnRetry = resilience.LogRetries("femaflood", "zone_query")

	return resilience.DoVal(ctx, p, func(ctx context.Context) (flood.Attributes, error) {
		var out queryResponse
		if err := c.getJSON(ctx, path, &out); err != nil {
			return flood.Attributes{}, eris.Wrap(err, "femaflood: zone query")
		}

		// ArcGIS reports failures inside a 200 response.
		if out.Error != nil {
			err := eris.Errorf("femaflood: service error %d: %s", out.Error.Code, out.Error.Message)
			if resilience.IsTransientHTTPStatus(out.Error.Code) {
				return flood.Attributes{}, resilience.NewTransientError(err, out.Error.Code)
			}
			return flood.Attributes{}, err
		}

		if len(out.Features) == 0 {
			return flood.Attributes{}, ErrUnavailable
		}

		attrs := out.Features[0].Attributes
		result := flood.Attributes{
			ZoneID:   attrs.FldZone,
			Subtype:  attrs.ZoneSubty,
			SFHA:     attrs.SfhaTF == "T",
			Depth:    attrs.Depth,
			Velocity: attrs.Velocity,
		}
		if attrs.StaticBFE != nullElevation {
			result.BaseFloodElevation = attrs.StaticBFE
		}
		return result, nil
	})
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
