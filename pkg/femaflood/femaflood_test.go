package femaflood

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/areascore/internal/model"
	"github.com/sells-group/areascore/internal/resilience"
)

func noRetry() Option {
	return WithRetryPolicy(resilience.Policy{Attempts: 1})
}

func TestZone_MappedCoastalZone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/MapServer/28/query", r.URL.Path)
		assert.Equal(t, "esriGeometryPoint", r.URL.Query().Get("geometryType"))
		assert.Equal(t, "json", r.URL.Query().Get("f"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"features": [{
				"attributes": {
					"FLD_ZONE": "VE",
					"ZONE_SUBTY": "",
					"SFHA_TF": "T",
					"STATIC_BFE": 11.5,
					"DEPTH": 0,
					"VELOCITY": 0
				}
			}]
		}`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), noRetry())
	got, err := c.Zone(context.Background(), model.Location{Lat: 25.77, Lng: -80.19})
	require.NoError(t, err)

	assert.Equal(t, "VE", got.ZoneID)
	assert.True(t, got.SFHA)
	assert.Equal(t, 11.5, got.BaseFloodElevation)
}

func TestZone_ShadedXSubtype(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"features": [{
				"attributes": {
					"FLD_ZONE": "X",
					"ZONE_SUBTY": "0.2 PCT ANNUAL CHANCE FLOOD HAZARD",
					"SFHA_TF": "F",
					"STATIC_BFE": -9999
				}
			}]
		}`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), noRetry())
	got, err := c.Zone(context.Background(), model.Location{Lat: 32.77, Lng: -96.79})
	require.NoError(t, err)

	assert.Equal(t, "X", got.ZoneID)
	assert.Equal(t, "0.2 PCT ANNUAL CHANCE FLOOD HAZARD", got.Subtype)
	assert.False(t, got.SFHA)
	// The -9999 sentinel means no published elevation.
	assert.Zero(t, got.BaseFloodElevation)
}

func TestZone_UnmappedLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"features": []}`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), noRetry())
	_, err := c.Zone(context.Background(), model.Location{Lat: 64.2, Lng: -149.5})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnavailable))
}

func TestZone_EmbeddedServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"error": {"code": 400, "message": "Invalid geometry"}}`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), noRetry())
	_, err := c.Zone(context.Background(), model.Location{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid geometry")
	assert.False(t, resilience.IsTransient(err))
}

func TestZone_RetriesTransientServiceError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			_, _ = io.WriteString(w, `{"error": {"code": 503, "message": "busy"}}`)
			return
		}
		_, _ = io.WriteString(w, `{
			"features": [{"attributes": {"FLD_ZONE": "AE", "SFHA_TF": "T", "STATIC_BFE": -9999}}]
		}`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRetryPolicy(resilience.Policy{
		Attempts:  3,
		BaseDelay: time.Millisecond,
	}))

	got, err := c.Zone(context.Background(), model.Location{Lat: 29.95, Lng: -90.07})
	require.NoError(t, err)
	assert.Equal(t, "AE", got.ZoneID)
	assert.Equal(t, int32(2), calls.Load())
}
