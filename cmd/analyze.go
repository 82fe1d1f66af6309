package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/areascore/internal/crime"
	"github.com/sells-group/areascore/internal/engine"
	"github.com/sells-group/areascore/internal/heat"
	"github.com/sells-group/areascore/internal/model"
	"github.com/sells-group/areascore/internal/sentiment"
	"github.com/sells-group/areascore/pkg/crimedata"
	"github.com/sells-group/areascore/pkg/femaflood"
	"github.com/sells-group/areascore/pkg/geocode"
	"github.com/sells-group/areascore/pkg/places"
)

var (
	analyzeRadius int
	analyzeFormat string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <address | lat,lng>",
	Short: "Run a full area assessment for a location",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("analyze"); err != nil {
			return err
		}
		if analyzeRadius > 0 {
			if analyzeRadius < cfg.Analysis.MinRadiusMeters || analyzeRadius > cfg.Analysis.MaxRadiusMeters {
				return eris.Errorf("radius must be between %d and %d meters",
					cfg.Analysis.MinRadiusMeters, cfg.Analysis.MaxRadiusMeters)
			}
			cfg.Analysis.RadiusMeters = analyzeRadius
		}

		eng := buildEngine()
		result, err := eng.Analyze(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		if analyzeFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		renderResult(os.Stdout, result)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeRadius, "radius", 0, "search radius in meters (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "table", "output format: table or json")
	rootCmd.AddCommand(analyzeCmd)
}

// buildEngine wires the provider clients from configuration.
func buildEngine() *engine.Engine {
	geo := geocode.NewClient(
		geocode.WithGoogleAPIKey(cfg.Geocode.GoogleKey),
		geocode.WithRateLimit(cfg.Geocode.RateRPS),
	)

	placesClient := places.NewClient(cfg.Places.Key,
		places.WithBaseURL(cfg.Places.BaseURL),
		places.WithRateLimit(cfg.Places.RateRPS),
	)

	var crimeClient engine.CrimeProvider
	if cfg.Crime.Key != "" {
		crimeClient = crimedata.NewClient(cfg.Crime.Key,
			crimedata.WithBaseURL(cfg.Crime.BaseURL),
		)
	}

	floodClient := femaflood.NewClient(
		femaflood.WithBaseURL(cfg.Flood.BaseURL),
	)

	return engine.New(geo, placesClient, crimeClient, floodClient, engine.Options{
		RadiusMeters:    cfg.Analysis.RadiusMeters,
		Pacing:          time.Duration(cfg.Places.PacingMillis) * time.Millisecond,
		DetailMaxPlaces: cfg.Places.DetailMaxPlaces,
		SimulateFlood:   cfg.Flood.Simulate,
	})
}

func renderResult(w *os.File, r *model.AnalysisResult) {
	fmt.Fprintf(w, "\nArea Assessment: %s\n", r.PropertyDetails.Address)
	fmt.Fprintf(w, "Coordinates: %.4f, %.4f  Radius: %dm  POIs: %d\n\n",
		r.PropertyDetails.Coordinates.Lat, r.PropertyDetails.Coordinates.Lng,
		r.PropertyDetails.RadiusMeters, r.PropertyDetails.POICount)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPONENT\tSCORE\tNOTES")

	fmt.Fprintf(tw, "Amenities\t%d/200\t", r.POI.Score)
	var parts []string
	for _, cat := range model.Categories {
		parts = append(parts, fmt.Sprintf("%s %d", cat, r.POI.Details[cat].Count))
	}
	fmt.Fprintln(tw, strings.Join(parts, ", "))

	crimeNote := fmt.Sprintf("rate %s, community %s",
		crime.RateLevel(r.Crime.CrimeRate), crime.CommunityRating(r.Crime.SafetyScore))
	if r.Crime.Defaulted {
		crimeNote = "no data available"
	}
	fmt.Fprintf(tw, "Safety\t%d/200\t%s\n", r.Crime.Score, crimeNote)

	fmt.Fprintf(tw, "Market heat\t%.0f/200\t%s\n", r.HeatMap.Score,
		heat.MarketDescription(r.HeatMap.Details.StateCode, r.HeatMap.Details.Market))

	sentimentNote := fmt.Sprintf("avg %.1f over %d reviews, engagement %s",
		r.Sentiment.AverageRating, r.Sentiment.TotalReviews,
		sentiment.EngagementLevel(r.Sentiment.TotalReviews))
	fmt.Fprintf(tw, "Sentiment\t%d/200\t%s\n", r.Sentiment.Score, sentimentNote)

	floodNote := fmt.Sprintf("%s risk, zone %s", r.Flood.RiskLevel, r.Flood.ZoneType)
	if r.Flood.Synthetic {
		floodNote += " (simulated)"
	}
	fmt.Fprintf(tw, "Flood\t%d/200\t%s\n", r.Flood.Score, floodNote)
	tw.Flush()

	fmt.Fprintf(w, "\nTotal: %d/1000 (%s)\n", r.Total, r.Tier)
	if len(r.Sentiment.TopKeywords) > 0 {
		fmt.Fprintf(w, "Keywords: %s\n", strings.Join(r.Sentiment.TopKeywords, ", "))
	}
}
