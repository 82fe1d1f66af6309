package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/areascore/internal/crime"
	"github.com/sells-group/areascore/internal/flood"
	"github.com/sells-group/areascore/internal/model"
)

type fakeGeocoder struct {
	loc       model.Location
	formatted string
	err       error
	revAddr   string
	revErr    error
}

func (f *fakeGeocoder) Geocode(_ context.Context, _ string) (model.Location, string, error) {
	return f.loc, f.formatted, f.err
}

func (f *fakeGeocoder) ReverseGeocode(_ context.Context, _ model.Location) (string, error) {
	return f.revAddr, f.revErr
}

type fakePlaces struct {
	mu       sync.Mutex
	byType   map[string][]model.Place
	details  map[string]model.Place
	searches []string
	blocking atomic.Bool // when set, NearbySearch blocks until ctx is done
}

func (f *fakePlaces) NearbySearch(ctx context.Context, _ model.Location, _ int, typeKey string) ([]model.Place, error) {
	if f.blocking.Load() {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f.mu.Lock()
	f.searches = append(f.searches, typeKey)
	f.mu.Unlock()
	return f.byType[typeKey], nil
}

func (f *fakePlaces) Details(_ context.Context, placeID string) (model.Place, error) {
	p, ok := f.details[placeID]
	if !ok {
		return model.Place{}, ErrNoDataFound
	}
	return p, nil
}

type fakeCrime struct {
	payload crime.Payload
	err     error
}

func (f *fakeCrime) Stats(_ context.Context, _ model.Location) (crime.Payload, error) {
	return f.payload, f.err
}

type fakeFlood struct {
	attrs flood.Attributes
	err   error
}

func (f *fakeFlood) Zone(_ context.Context, _ model.Location) (flood.Attributes, error) {
	return f.attrs, f.err
}

func testOptions() Options {
	return Options{Pacing: time.Millisecond}
}

func hartfordGeocoder() *fakeGeocoder {
	return &fakeGeocoder{
		loc:       model.Location{Lat: 41.7658, Lng: -72.6734},
		formatted: "123 Main St, Hartford, CT 06103, USA",
	}
}

func TestAnalyze_FullAssessment(t *testing.T) {
	places := &fakePlaces{
		byType: map[string][]model.Place{
			"supermarket": {{ID: "p1", Name: "Stop & Shop"}},
			"restaurant":  {{ID: "p2", Name: "Corner Diner"}},
		},
		details: map[string]model.Place{
			"p1": {Name: "Stop & Shop", Rating: 4.2, UserRatingsTotal: 150},
			"p2": {Name: "Corner Diner", Rating: 4.0, UserRatingsTotal: 80},
		},
	}
	crimeProv := &fakeCrime{payload: crime.Payload{
		Population:    100000,
		ViolentCrime:  100,
		PropertyCrime: 200,
	}}
	floodProv := &fakeFlood{attrs: flood.Attributes{ZoneID: "X"}}

	eng := New(hartfordGeocoder(), places, crimeProv, floodProv, testOptions())
	out, err := eng.Analyze(context.Background(), "123 Main St, Hartford, CT")
	require.NoError(t, err)

	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "CT", out.HeatMap.Details.StateCode)
	assert.InDelta(t, 191.33, out.HeatMap.Score, 0.001)
	assert.Equal(t, 188, out.Crime.Score)
	assert.Equal(t, 200, out.Flood.Score)
	assert.False(t, out.Flood.Synthetic)
	assert.Equal(t, 2, out.PropertyDetails.POICount)
	assert.Equal(t, 1500, out.PropertyDetails.RadiusMeters)

	sum := out.POI.Score + out.Crime.Score + 191 + out.Sentiment.Score + out.Flood.Score
	assert.Equal(t, sum, out.Total)
	assert.Equal(t, TierFor(out.Total), out.Tier)
	assert.False(t, out.GeneratedAt.IsZero())
}

func TestAnalyze_CoordinateInput(t *testing.T) {
	geo := &fakeGeocoder{revAddr: "1 Beach Rd, Miami, FL 33101, USA"}
	places := &fakePlaces{}

	eng := New(geo, places, nil, nil, testOptions())
	out, err := eng.Analyze(context.Background(), "25.7743, -80.1937")
	require.NoError(t, err)

	assert.Equal(t, "FL", out.HeatMap.Details.StateCode)
	assert.InDelta(t, 25.7743, out.PropertyDetails.Coordinates.Lat, 0.0001)
	assert.InDelta(t, -80.1937, out.PropertyDetails.Coordinates.Lng, 0.0001)
}

func TestAnalyze_ReverseGeocodeFailureTolerated(t *testing.T) {
	geo := &fakeGeocoder{revErr: errors.New("service down")}

	eng := New(geo, &fakePlaces{}, nil, nil, testOptions())
	out, err := eng.Analyze(context.Background(), "40.0,-75.0")
	require.NoError(t, err)

	// No address means the heat resolver cannot find a state.
	assert.Equal(t, "N/A", out.HeatMap.Details.StateCode)
	assert.Equal(t, 0.0, out.HeatMap.Score)
}

func TestAnalyze_GeocodeFailurePropagates(t *testing.T) {
	geo := &fakeGeocoder{err: ErrNoDataFound}

	eng := New(geo, &fakePlaces{}, nil, nil, testOptions())
	_, err := eng.Analyze(context.Background(), "nowhere at all")
	require.Error(t, err)
}

func TestAnalyze_CrimeProviderFailureUsesDefault(t *testing.T) {
	crimeProv := &fakeCrime{err: ErrProviderUnavailable}

	eng := New(hartfordGeocoder(), &fakePlaces{}, crimeProv, nil, testOptions())
	out, err := eng.Analyze(context.Background(), "123 Main St, Hartford, CT")
	require.NoError(t, err)

	assert.True(t, out.Crime.Defaulted)
	assert.Equal(t, 0, out.Crime.Score)
	// The composite is still numeric and tiered.
	assert.GreaterOrEqual(t, out.Total, 0)
	assert.NotEmpty(t, out.Tier)
}

func TestAnalyze_FloodProviderFailureGoesSynthetic(t *testing.T) {
	floodProv := &fakeFlood{err: ErrProviderUnavailable}

	eng := New(hartfordGeocoder(), &fakePlaces{}, nil, floodProv, testOptions())
	out, err := eng.Analyze(context.Background(), "123 Main St, Hartford, CT")
	require.NoError(t, err)

	assert.True(t, out.Flood.Synthetic)
	assert.GreaterOrEqual(t, out.Flood.Score, 50)
}

func TestAnalyze_NilProvidersUseDefaults(t *testing.T) {
	eng := New(hartfordGeocoder(), &fakePlaces{}, nil, nil, testOptions())
	out, err := eng.Analyze(context.Background(), "123 Main St, Hartford, CT")
	require.NoError(t, err)

	assert.True(t, out.Crime.Defaulted)
	assert.True(t, out.Flood.Synthetic)
}

func TestAnalyze_DedupAcrossTypeSearches(t *testing.T) {
	shared := model.Place{ID: "dup", Name: "Central Park"}
	places := &fakePlaces{
		byType: map[string][]model.Place{
			"park":       {shared},
			"playground": {shared},
		},
	}

	eng := New(hartfordGeocoder(), places, nil, nil, testOptions())
	out, err := eng.Analyze(context.Background(), "123 Main St, Hartford, CT")
	require.NoError(t, err)

	assert.Equal(t, 1, out.PropertyDetails.POICount)
	assert.Equal(t, 1, out.POI.Details[model.CategoryPark].Count)
}

func TestAnalyze_SupersededRunIsCancelled(t *testing.T) {
	places := &fakePlaces{}
	places.blocking.Store(true)
	eng := New(hartfordGeocoder(), places, nil, nil, testOptions())

	errCh := make(chan error, 1)
	go func() {
		_, err := eng.Analyze(context.Background(), "123 Main St, Hartford, CT")
		errCh <- err
	}()

	// Give the first run time to enter the blocking search, then supersede.
	time.Sleep(20 * time.Millisecond)
	places.blocking.Store(false)

	// The fake geocoder always resolves to the Hartford address; the point
	// is that the second run completes while the first is cancelled.
	out, err := eng.Analyze(context.Background(), "500 Elm Ave, Dallas, TX")
	require.NoError(t, err)
	assert.Equal(t, "CT", out.HeatMap.Details.StateCode)

	select {
	case firstErr := <-errCh:
		require.Error(t, firstErr)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded analysis did not return")
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		total int
		want  model.Tier
	}{
		{1000, model.TierExcellent},
		{750, model.TierExcellent},
		{749, model.TierGood},
		{500, model.TierGood},
		{499, model.TierModerate},
		{250, model.TierModerate},
		{249, model.TierLimited},
		{0, model.TierLimited},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.total), "total=%d", tt.total)
	}
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
		lat   float64
		lng   float64
	}{
		{"41.7658,-72.6734", true, 41.7658, -72.6734},
		{" 25.77 , -80.19 ", true, 25.77, -80.19},
		{"123 Main St, Hartford", false, 0, 0},
		{"91,0", false, 0, 0},
		{"0,181", false, 0, 0},
		{"a,b", false, 0, 0},
		{"1,2,3", false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			loc, ok := parseCoordinates(tt.input)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.lat, loc.Lat)
				assert.Equal(t, tt.lng, loc.Lng)
			}
		})
	}
}
