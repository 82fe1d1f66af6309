package poi

import (
	"math"

	"github.com/sells-group/areascore/internal/model"
	"github.com/sells-group/areascore/internal/refdata"
)

// TypeResult is the outcome of one nearby search. A search that failed is
// represented by the engine as an absent entry; the aggregator only ever
// sees successful (possibly empty) result sets.
type TypeResult struct {
	TypeKey string
	Places  []model.Place
}

// Aggregate deduplicates places across all type searches, tallies counts and
// weighted scores per category, and reduces to a 0-200 POI score.
//
// Dedup is global by place ID: a place matched by several type queries
// contributes exactly once, under the first type that returned it. Each
// category is normalized against its empirical ceiling before averaging.
func Aggregate(results []TypeResult) model.POIAssessment {
	tallies := make(map[model.Category]model.CategoryTally, len(model.Categories))
	for _, cat := range model.Categories {
		tallies[cat] = model.CategoryTally{}
	}

	seen := make(map[string]bool)
	for _, res := range results {
		for _, place := range res.Places {
			if place.ID == "" || seen[place.ID] {
				continue
			}
			seen[place.ID] = true

			cat, score, ok := Classify(res.TypeKey, place.Name)
			if !ok {
				continue
			}

			t := tallies[cat]
			t.Count++
			t.WeightedScore += score
			tallies[cat] = t
		}
	}

	var sum float64
	for _, cat := range model.Categories {
		maxScore := refdata.CategoryMaxScores[cat]
		normalized := math.Min(200, tallies[cat].WeightedScore/maxScore*200)
		sum += normalized
	}

	return model.POIAssessment{
		Score:   int(math.Round(math.Min(200, sum/float64(len(model.Categories))))),
		Details: tallies,
	}
}
