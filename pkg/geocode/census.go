package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/areascore/internal/model"
)

const (
	censusOneLineURL     = "https://geocoding.geo.census.gov/geocoder/locations/onelineaddress"
	censusCoordinatesURL = "https://geocoding.geo.census.gov/geocoder/geographies/coordinates"
	censusBenchmark      = "Public_AR_Current"
	censusVintage        = "Current_Current"
)

type censusOneLineResponse struct {
	Result struct {
		AddressMatches []struct {
			Coordinates struct {
				X float64 `json:"x"` // longitude
				Y float64 `json:"y"` // latitude
			} `json:"coordinates"`
			MatchedAddress string `json:"matchedAddress"`
		} `json:"addressMatches"`
	} `json:"result"`
}

type censusGeographiesResponse struct {
	Result struct {
		Geographies struct {
			States []struct {
				Name   string `json:"NAME"`
				Stusab string `json:"STUSAB"`
			} `json:"States"`
			Counties []struct {
				Name string `json:"NAME"`
			} `json:"Counties"`
		} `json:"geographies"`
	} `json:"result"`
}

// geocodeCensus resolves an address via the Census one-line API. An empty
// match list is ErrNoMatch, not a provider failure.
func (g *geocoder) geocodeCensus(ctx context.Context, address string) (model.Location, string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return model.Location{}, "", eris.Wrap(err, "geocode: census rate limit")
	}

	params := url.Values{
		"address":   {address},
		"benchmark": {censusBenchmark},
		"format":    {"json"},
	}

	var out censusOneLineResponse
	if err := g.getJSON(ctx, censusOneLineURL+"?"+params.Encode(), &out); err != nil {
		return model.Location{}, "", eris.Wrap(err, "geocode: census request")
	}

	if len(out.Result.AddressMatches) == 0 {
		return model.Location{}, "", ErrNoMatch
	}

	match := out.Result.AddressMatches[0]
	loc := model.Location{Lat: match.Coordinates.Y, Lng: match.Coordinates.X}
	return loc, match.MatchedAddress, nil
}

// reverseCensus resolves coordinates to a state-level formatted address via
// the Census geographies lookup. Coarse, but enough for the market-heat
// resolver's state extraction.
func (g *geocoder) reverseCensus(ctx context.Context, loc model.Location) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "geocode: census rate limit")
	}

	params := url.Values{
		"x":         {fmt.Sprintf("%f", loc.Lng)},
		"y":         {fmt.Sprintf("%f", loc.Lat)},
		"benchmark": {censusBenchmark},
		"vintage":   {censusVintage},
		"format":    {"json"},
	}

	var out censusGeographiesResponse
	if err := g.getJSON(ctx, censusCoordinatesURL+"?"+params.Encode(), &out); err != nil {
		return "", eris.Wrap(err, "geocode: census reverse request")
	}

	states := out.Result.Geographies.States
	if len(states) == 0 {
		return "", ErrNoMatch
	}

	if counties := out.Result.Geographies.Counties; len(counties) > 0 {
		return fmt.Sprintf("%s, %s", counties[0].Name, states[0].Stusab), nil
	}
	return fmt.Sprintf("%s, %s", states[0].Name, states[0].Stusab), nil
}

func (g *geocoder) getJSON(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "do request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read body")
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "parse response")
	}
	return nil
}
