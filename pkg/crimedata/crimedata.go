// Package crimedata is a client for the FBI Crime Data Explorer: it locates
// the reporting agency nearest a coordinate and returns that agency's most
// recent summarized offense counts.
package crimedata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/areascore/internal/crime"
	"github.com/sells-group/areascore/internal/model"
	"github.com/sells-group/areascore/internal/resilience"
)

const defaultBaseURL = "https://api.usa.gov/crime/fbi/cde"

// ErrNoData means no reporting agency covers the location or the agency has
// no published counts.
var ErrNoData = eris.New("crimedata: no data for location")

// Client fetches summarized crime statistics.
type Client interface {
	Stats(ctx context.Context, loc model.Location) (crime.Payload, error)
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

// NewClient creates a Crime Data Explorer client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
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

type agency struct {
	ORI        string  `json:"ori"`
	Name       string  `json:"agency_name"`
	Lat        float64 `json:"latitude"`
	Lng        float64 `json:"longitude"`
	Population int     `json:"population"`
}

// offenseActuals maps offense name -> year -> count.
type offensesResponse struct {
	Offenses struct {
		Actuals map[string]map[string]int `json:"actuals"`
	} `json:"offenses"`
}

// Stats finds the nearest reporting agency and reduces its latest published
// counts into a payload for the crime scorer.
func (c *httpClient) Stats(ctx context.Context, loc model.Location) (crime.Payload, error) {
	p := c.retry
	p.OnRetry = resilience.LogRetries("crimedata", "stats")

	return resilience.DoVal(ctx, p, func(ctx context.Context) (crime.Payload, error) {
		ag, err := c.nearestAgency(ctx, loc)
		if err != nil {
			return crime.Payload{}, err
		}

		payload, err := c.agencyOffenses(ctx, ag.ORI)
		if err != nil {
			return crime.Payload{}, err
		}

		payload.Population = ag.Population
		return payload, nil
	})
}

func (c *httpClient) nearestAgency(ctx context.Context, loc model.Location) (agency, error) {
	params := url.Values{
		"latitude":  {fmt.Sprintf("%f", loc.Lat)},
		"longitude": {fmt.Sprintf("%f", loc.Lng)},
		"API_KEY":   {c.apiKey},
	}

	var agencies []agency
	if err := c.getJSON(ctx, "/agency/nearby?"+params.Encode(), &agencies); err != nil {
		return agency{}, eris.Wrap(err, "crimedata: agency lookup")
	}
	if len(agencies) == 0 {
		return agency{}, ErrNoData
	}

	best := agencies[0]
	bestDist := loc.DistanceMeters(model.Location{Lat: best.Lat, Lng: best.Lng})
	for _, ag := range agencies[1:] {
		d := loc.DistanceMeters(model.Location{Lat: ag.Lat, Lng: ag.Lng})
		if d < bestDist {
			best, bestDist = ag, d
		}
	}
	return best, nil
}

// Offense names as published by the summarized endpoint.
var offenseFields = map[string]func(*crime.Payload, int){
	"violent-crime":       func(p *crime.Payload, n int) { p.ViolentCrime = n },
	"property-crime":      func(p *crime.Payload, n int) { p.PropertyCrime = n },
	"aggravated-assault":  func(p *crime.Payload, n int) { p.Assaults = n },
	"robbery":             func(p *crime.Payload, n int) { p.Robberies = n },
	"burglary":            func(p *crime.Payload, n int) { p.Burglaries = n },
	"larceny":             func(p *crime.Payload, n int) { p.Thefts = n },
	"motor-vehicle-theft": func(p *crime.Payload, n int) { p.VehicleThefts = n },
}

func (c *httpClient) agencyOffenses(ctx context.Context, ori string) (crime.Payload, error) {
	params := url.Values{"API_KEY": {c.apiKey}}

	var out offensesResponse
	path := "/summarized/agency/" + url.PathEscape(ori) + "/offenses?" + params.Encode()
	if err := c.getJSON(ctx, path, &out); err != nil {
		return crime.Payload{}, eris.Wrap(err, "crimedata: agency offenses")
	}

	year := latestYear(out.Offenses.Actuals)
	if year == "" {
		return crime.Payload{}, ErrNoData
	}

	var payload crime.Payload
	for offense, set := range offenseFields {
		if years, ok := out.Offenses.Actuals[offense]; ok {
			set(&payload, years[year])
		}
	}
	return payload, nil
}

// latestYear returns the highest year key present across all offense series.
func latestYear(actuals map[string]map[string]int) string {
	best := ""
	bestN := 0
	for _, years := range actuals {
		for y := range years {
			n, err := strconv.Atoi(y)
			if err != nil {
				continue
			}
			if n > bestN {
				best, bestN = y, n
			}
		}
	}
	return best
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
