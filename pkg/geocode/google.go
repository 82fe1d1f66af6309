package geocode

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/areascore/internal/model"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

type googleGeocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status string `json:"status"`
}

func (g *geocoder) geocodeGoogle(ctx context.Context, address string) (model.Location, string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return model.Location{}, "", eris.Wrap(err, "geocode: google rate limit")
	}

	params := url.Values{
		"address": {address},
		"key":     {g.googleKey},
	}

	var out googleGeocodeResponse
	if err := g.getJSON(ctx, googleGeocodeURL+"?"+params.Encode(), &out); err != nil {
		return model.Location{}, "", eris.Wrap(err, "geocode: google request")
	}

	if out.Status != "OK" || len(out.Results) == 0 {
		return model.Location{}, "", ErrNoMatch
	}

	first := out.Results[0]
	loc := model.Location{
		Lat: first.Geometry.Location.Lat,
		Lng: first.Geometry.Location.Lng,
	}
	return loc, first.FormattedAddress, nil
}

func (g *geocoder) reverseGoogle(ctx context.Context, loc model.Location) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "geocode: google rate limit")
	}

	params := url.Values{
		"latlng": {fmt.Sprintf("%f,%f", loc.Lat, loc.Lng)},
		"key":    {g.googleKey},
	}

	var out googleGeocodeResponse
	if err := g.getJSON(ctx, googleGeocodeURL+"?"+params.Encode(), &out); err != nil {
		return "", eris.Wrap(err, "geocode: google reverse request")
	}

	if out.Status != "OK" || len(out.Results) == 0 {
		return "", ErrNoMatch
	}
	return out.Results[0].FormattedAddress, nil
}
