// Package refdata holds the immutable lookup tables the scoring engine
// depends on: the 50-state market-heat table, POI type weights, category
// normalization ceilings, and name-boost patterns. Everything here is loaded
// once at process start and never mutated.
package refdata

import (
	_ "embed"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/sells-group/areascore/internal/model"
)

//go:embed states.yaml
var statesYAML []byte

// StateHeatRecord is one static per-state market datum.
type StateHeatRecord struct {
	Code       string  `yaml:"code"`
	Average    float64 `yaml:"average"`
	FinalScore float64 `yaml:"final_score"`
}

var (
	stateHeat    []StateHeatRecord
	stateHeatIdx map[string]int
)

func init() {
	if err := yaml.Unmarshal(statesYAML, &stateHeat); err != nil {
		panic(fmt.Sprintf("refdata: parse states.yaml: %v", err))
	}
	if len(stateHeat) != 50 {
		panic(fmt.Sprintf("refdata: states.yaml has %d entries, want 50", len(stateHeat)))
	}
	stateHeatIdx = make(map[string]int, len(stateHeat))
	for i, rec := range stateHeat {
		if _, dup := stateHeatIdx[rec.Code]; dup {
			panic("refdata: duplicate state code " + rec.Code)
		}
		stateHeatIdx[rec.Code] = i
	}
}

// StateHeat returns the state table in declaration order. Callers must not
// modify the returned slice.
func StateHeat() []StateHeatRecord {
	return stateHeat
}

// StateHeatByCode looks up a state record by 2-letter code.
func StateHeatByCode(code string) (StateHeatRecord, bool) {
	i, ok := stateHeatIdx[code]
	if !ok {
		return StateHeatRecord{}, false
	}
	return stateHeat[i], true
}

// StateCodes returns the known 2-letter codes in declaration order.
func StateCodes() []string {
	codes := make([]string, len(stateHeat))
	for i, rec := range stateHeat {
		codes[i] = rec.Code
	}
	return codes
}

// POIWeights maps a place type key to its base score weight. A type missing
// from the table scores zero; that is not an error.
var POIWeights = map[string]float64{
	// Shopping
	"grocery_or_supermarket": 5,
	"supermarket":            5,
	"shopping_mall":          5,
	"convenience_store":      2,

	// Restaurants
	"restaurant":    3,
	"cafe":          2,
	"meal_takeaway": 2,

	// Schools
	"primary_school":   8,
	"secondary_school": 8,
	"school":           8,

	// Parks
	"park":       1,
	"playground": 2,

	// Transport
	"transit_station": 5,
	"bus_station":     3,
	"train_station":   5,
}

// TrackedTypes lists the place type keys searched per analysis, in a fixed
// order so pacing and partial failures are reproducible.
var TrackedTypes = []string{
	"grocery_or_supermarket",
	"supermarket",
	"shopping_mall",
	"convenience_store",
	"restaurant",
	"cafe",
	"meal_takeaway",
	"primary_school",
	"secondary_school",
	"school",
	"park",
	"playground",
	"transit_station",
	"bus_station",
	"train_station",
}

// CategoryMaxScores is the empirical per-category normalization ceiling.
// This is the canonical table; a drifted variant with school=63 exists in
// older data and is pinned only as a test fixture.
var CategoryMaxScores = map[model.Category]float64{
	model.CategoryShopping:   50,
	model.CategoryRestaurant: 38,
	model.CategorySchool:     10,
	model.CategoryPark:       25,
	model.CategoryTransport:  75,
}

// Name-boost patterns. At most one multiplier applies per place, determined
// by its resolved category.
var (
	ShoppingBrandPattern = regexp.MustCompile(`(?i)walmart|kroger|target|tom thumb|costco|sam's club|whole foods`)
	SchoolLevelPattern   = regexp.MustCompile(`(?i)elementary|middle|high school`)
	ParkTierPattern      = regexp.MustCompile(`(?i)community|regional|municipal`)
)

// Boost multipliers by category.
const (
	ShoppingBrandBoost = 2.0
	SchoolLevelBoost   = 1.5
	ParkTierBoost      = 1.5
)
