// Package poi classifies nearby places into the five tracked categories and
// reduces them to a single 0-200 points-of-interest score.
package poi

import (
	"strings"

	"github.com/sells-group/areascore/internal/model"
	"github.com/sells-group/areascore/internal/refdata"
)

// Classify maps a raw place type key plus display name to a category and a
// weighted score. The rule list is ordered; the first matching rule wins.
// Unmatched types return ok=false and are discarded by the aggregator.
//
// The base score comes from the weight table (missing key scores zero). At
// most one name-boost multiplier applies, chosen by the resolved category.
func Classify(typeKey, name string) (model.Category, float64, bool) {
	score := refdata.POIWeights[typeKey]

	switch {
	case strings.Contains(typeKey, "supermarket") || strings.Contains(typeKey, "shopping"):
		if refdata.ShoppingBrandPattern.MatchString(name) {
			score *= refdata.ShoppingBrandBoost
		}
		return model.CategoryShopping, score, true

	case strings.Contains(typeKey, "restaurant") || strings.Contains(typeKey, "cafe"):
		return model.CategoryRestaurant, score, true

	case strings.Contains(typeKey, "school"):
		if refdata.SchoolLevelPattern.MatchString(name) {
			score *= refdata.SchoolLevelBoost
		}
		return model.CategorySchool, score, true

	case strings.Contains(typeKey, "park") || strings.Contains(typeKey, "playground"):
		if refdata.ParkTierPattern.MatchString(name) {
			score *= refdata.ParkTierBoost
		}
		return model.CategoryPark, score, true

	case strings.Contains(typeKey, "station"):
		return model.CategoryTransport, score, true
	}

	return "", 0, false
}
