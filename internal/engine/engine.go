// Package engine composes the five sub-scores into a single area assessment.
// Each sub-score isolates its own provider failures behind a documented
// default; only geocoding failure is surfaced to the caller.
package engine

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/areascore/internal/crime"
	"github.com/sells-group/areascore/internal/flood"
	"github.com/sells-group/areascore/internal/heat"
	"github.com/sells-group/areascore/internal/model"
	"github.com/sells-group/areascore/internal/poi"
	"github.com/sells-group/areascore/internal/refdata"
	"github.com/sells-group/areascore/internal/sentiment"
)

// Geocoder resolves between addresses and coordinates. Geocode must return
// the provider's formatted address alongside the location: the market-heat
// resolver extracts the state from it.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (model.Location, string, error)
	ReverseGeocode(ctx context.Context, loc model.Location) (string, error)
}

// PlacesProvider performs nearby-type searches and place-detail lookups.
// NearbySearch with zero results is a success, not an error.
type PlacesProvider interface {
	NearbySearch(ctx context.Context, loc model.Location, radiusMeters int, typeKey string) ([]model.Place, error)
	Details(ctx context.Context, placeID string) (model.Place, error)
}

// CrimeProvider returns the most recent summarized crime payload for the
// jurisdiction containing loc.
type CrimeProvider interface {
	Stats(ctx context.Context, loc model.Location) (crime.Payload, error)
}

// FloodProvider returns the flood-zone attributes covering loc.
type FloodProvider interface {
	Zone(ctx context.Context, loc model.Location) (flood.Attributes, error)
}

// Options tune a single engine instance.
type Options struct {
	// RadiusMeters is the nearby-search radius. Default: 1500.
	RadiusMeters int

	// Pacing is the delay between consecutive type searches. Default: 200ms.
	Pacing time.Duration

	// DetailMaxPlaces caps how many places get a detail lookup for the
	// sentiment sub-score. Default: 10.
	DetailMaxPlaces int

	// SimulateFlood skips the flood provider and always uses the labeled
	// synthetic generator.
	SimulateFlood bool
}

func (o Options) withDefaults() Options {
	if o.RadiusMeters <= 0 {
		o.RadiusMeters = 1500
	}
	if o.Pacing <= 0 {
		o.Pacing = 200 * time.Millisecond
	}
	if o.DetailMaxPlaces <= 0 {
		o.DetailMaxPlaces = 10
	}
	return o
}

// Engine runs composite assessments. Safe for concurrent use; a new Analyze
// call supersedes any in-flight one.
type Engine struct {
	geo    Geocoder
	places PlacesProvider
	crime  CrimeProvider
	flood  FloodProvider
	opts   Options

	mu         sync.Mutex
	cancelPrev context.CancelFunc
}

// New builds an engine. geo and places are required; crime and flood may be
// nil, in which case their sub-scores fall back to the documented defaults.
func New(geo Geocoder, places PlacesProvider, crimeProv CrimeProvider, floodProv FloodProvider, opts Options) *Engine {
	return &Engine{
		geo:    geo,
		places: places,
		crime:  crimeProv,
		flood:  floodProv,
		opts:   opts.withDefaults(),
	}
}

// Analyze runs a full assessment for input, which is either a free-form
// address or a "lat,lng" pair. A subsequent call cancels this one; the
// superseded call returns the context error.
func (e *Engine) Analyze(ctx context.Context, input string) (*model.AnalysisResult, error) {
	ctx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	if e.cancelPrev != nil {
		e.cancelPrev()
	}
	e.cancelPrev = cancel
	e.mu.Unlock()
	defer cancel()

	loc, address, err := e.resolveInput(ctx, input)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	zap.L().Info("starting analysis",
		zap.String("request_id", requestID),
		zap.String("address", address),
		zap.Float64("lat", loc.Lat),
		zap.Float64("lng", loc.Lng),
	)

	var (
		poiOut       model.POIAssessment
		sentimentOut model.SentimentAssessment
		crimeOut     model.CrimeStat
		floodOut     model.FloodAssessment
		heatOut      model.HeatMapAnalysis
		poiCount     int
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		results := e.searchAllTypes(gctx, loc)
		poiOut = poi.Aggregate(results)
		for _, tally := range poiOut.Details {
			poiCount += tally.Count
		}
		sentimentOut = e.assessSentiment(gctx, results)
		return gctx.Err()
	})

	g.Go(func() error {
		crimeOut = e.assessCrime(gctx, loc)
		return gctx.Err()
	})

	g.Go(func() error {
		floodOut = e.assessFlood(gctx, loc)
		return gctx.Err()
	})

	g.Go(func() error {
		heatOut = heat.Resolve(address)
		return gctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "engine: analysis cancelled")
	}

	total := poiOut.Score + crimeOut.Score + int(math.Round(heatOut.Score)) +
		sentimentOut.Score + floodOut.Score
	if total > 1000 {
		total = 1000
	}

	result := &model.AnalysisResult{
		ID:        requestID,
		POI:       poiOut,
		Crime:     crimeOut,
		HeatMap:   heatOut,
		Sentiment: sentimentOut,
		Flood:     floodOut,
		Total:     total,
		Tier:      TierFor(total),
		PropertyDetails: model.PropertyDetails{
			Address:      address,
			Coordinates:  loc,
			RadiusMeters: e.opts.RadiusMeters,
			POICount:     poiCount,
		},
		GeneratedAt: time.Now().UTC(),
	}

	zap.L().Info("analysis complete",
		zap.String("request_id", requestID),
		zap.Int("total", total),
		zap.String("tier", string(result.Tier)),
	)
	return result, nil
}

// TierFor maps a 0-1000 total onto its qualitative tier.
func TierFor(total int) model.Tier {
	switch {
	case total >= 750:
		return model.TierExcellent
	case total >= 500:
		return model.TierGood
	case total >= 250:
		return model.TierModerate
	default:
		return model.TierLimited
	}
}

// resolveInput geocodes an address, or reverse-geocodes a "lat,lng" pair so
// the heat resolver has a formatted address to work with. Reverse-geocode
// failures are tolerated; forward failures are not.
func (e *Engine) resolveInput(ctx context.Context, input string) (model.Location, string, error) {
	if loc, ok := parseCoordinates(input); ok {
		address, err := e.geo.ReverseGeocode(ctx, loc)
		if err != nil {
			zap.L().Warn("reverse geocode failed, proceeding without address", zap.Error(err))
			address = ""
		}
		return loc, address, nil
	}

	loc, formatted, err := e.geo.Geocode(ctx, input)
	if err != nil {
		return model.Location{}, "", eris.Wrap(err, "engine: geocode input")
	}
	if formatted == "" {
		formatted = input
	}
	return loc, formatted, nil
}

// parseCoordinates accepts "lat,lng" in decimal degrees.
func parseCoordinates(input string) (model.Location, bool) {
	parts := strings.Split(input, ",")
	if len(parts) != 2 {
		return model.Location{}, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return model.Location{}, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return model.Location{}, false
	}
	return model.Location{Lat: lat, Lng: lng}, true
}

// searchAllTypes runs one nearby search per tracked type, paced to stay
// under the provider's burst limits. A failed search logs a warning and
// contributes no places; the remaining types still run.
func (e *Engine) searchAllTypes(ctx context.Context, loc model.Location) []poi.TypeResult {
	results := make([]poi.TypeResult, 0, len(refdata.TrackedTypes))
	for i, typeKey := range refdata.TrackedTypes {
		if i > 0 {
			timer := time.NewTimer(e.opts.Pacing)
			select {
			case <-ctx.Done():
				timer.Stop()
				return results
			case <-timer.C:
			}
		}

		places, err := e.places.NearbySearch(ctx, loc, e.opts.RadiusMeters, typeKey)
		if err != nil {
			zap.L().Warn("nearby search failed",
				zap.String("type", typeKey),
				zap.Error(err),
			)
			continue
		}
		results = append(results, poi.TypeResult{TypeKey: typeKey, Places: places})
	}
	return results
}

// assessSentiment enriches the deduped search results with place details and
// reduces them. Detail failures fall back to the search-result fields; no
// usable places at all yields the zero default.
func (e *Engine) assessSentiment(ctx context.Context, results []poi.TypeResult) model.SentimentAssessment {
	seen := make(map[string]bool)
	var places []model.Place
	for _, res := range results {
		for _, p := range res.Places {
			if p.ID == "" || seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			places = append(places, p)
		}
	}
	if len(places) == 0 {
		return sentiment.Default()
	}

	limit := e.opts.DetailMaxPlaces
	if limit > len(places) {
		limit = len(places)
	}
	for i := 0; i < limit; i++ {
		if ctx.Err() != nil {
			break
		}
		detailed, err := e.places.Details(ctx, places[i].ID)
		if err != nil {
			zap.L().Warn("place details failed",
				zap.String("place_id", places[i].ID),
				zap.Error(err),
			)
			continue
		}
		detailed.ID = places[i].ID
		detailed.TypeKey = places[i].TypeKey
		places[i] = detailed
	}

	return sentiment.Aggregate(places[:limit])
}

func (e *Engine) assessCrime(ctx context.Context, loc model.Location) model.CrimeStat {
	if e.crime == nil {
		return crime.Default()
	}
	payload, err := e.crime.Stats(ctx, loc)
	if err != nil {
		zap.L().Warn("crime provider failed, using default stat", zap.Error(err))
		return crime.Default()
	}
	return crime.Score(payload)
}

func (e *Engine) assessFlood(ctx context.Context, loc model.Location) model.FloodAssessment {
	if e.opts.SimulateFlood || e.flood == nil {
		return flood.Simulate(nil)
	}
	attrs, err := e.flood.Zone(ctx, loc)
	if err != nil {
		zap.L().Warn("flood provider failed, using synthetic assessment", zap.Error(err))
		return flood.Simulate(nil)
	}
	return flood.Assess(attrs)
}
