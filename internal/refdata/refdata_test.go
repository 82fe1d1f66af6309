package refdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/areascore/internal/model"
)

func TestStateHeat_FiftyUniqueStates(t *testing.T) {
	recs := StateHeat()
	require.Len(t, recs, 50)

	seen := make(map[string]bool, 50)
	for _, rec := range recs {
		assert.Len(t, rec.Code, 2)
		assert.False(t, seen[rec.Code], "duplicate state %s", rec.Code)
		seen[rec.Code] = true
		assert.GreaterOrEqual(t, rec.Average, 0.0)
		assert.LessOrEqual(t, rec.Average, 100.0)
		assert.Greater(t, rec.FinalScore, 0.0)
	}
}

func TestStateHeat_DeclarationOrder(t *testing.T) {
	recs := StateHeat()
	assert.Equal(t, "CT", recs[0].Code)
	assert.Equal(t, "FL", recs[49].Code)

	// AZ is declared after NE despite a lower average; declaration order is
	// the documented tie-break for ranking.
	codes := StateCodes()
	neIdx, azIdx := -1, -1
	for i, c := range codes {
		switch c {
		case "NE":
			neIdx = i
		case "AZ":
			azIdx = i
		}
	}
	assert.Equal(t, neIdx+1, azIdx)
}

func TestStateHeatByCode(t *testing.T) {
	rec, ok := StateHeatByCode("CT")
	require.True(t, ok)
	assert.InDelta(t, 81.1, rec.Average, 0.001)
	assert.InDelta(t, 191.33, rec.FinalScore, 0.001)

	_, ok = StateHeatByCode("ZZ")
	assert.False(t, ok)
}

func TestPOIWeights(t *testing.T) {
	assert.Equal(t, 8.0, POIWeights["primary_school"])
	assert.Equal(t, 5.0, POIWeights["supermarket"])
	assert.Equal(t, 1.0, POIWeights["park"])
	_, ok := POIWeights["casino"]
	assert.False(t, ok)
}

func TestTrackedTypes_AllWeighted(t *testing.T) {
	for _, typeKey := range TrackedTypes {
		_, ok := POIWeights[typeKey]
		assert.True(t, ok, "tracked type %s has no weight", typeKey)
	}
}

func TestCategoryMaxScores_CanonicalTable(t *testing.T) {
	assert.Equal(t, 50.0, CategoryMaxScores[model.CategoryShopping])
	assert.Equal(t, 38.0, CategoryMaxScores[model.CategoryRestaurant])
	assert.Equal(t, 10.0, CategoryMaxScores[model.CategorySchool])
	assert.Equal(t, 25.0, CategoryMaxScores[model.CategoryPark])
	assert.Equal(t, 75.0, CategoryMaxScores[model.CategoryTransport])
}

func TestBoostPatterns(t *testing.T) {
	assert.True(t, ShoppingBrandPattern.MatchString("Walmart Supercenter"))
	assert.True(t, ShoppingBrandPattern.MatchString("COSTCO WHOLESALE"))
	assert.False(t, ShoppingBrandPattern.MatchString("Corner Market"))

	assert.True(t, SchoolLevelPattern.MatchString("Lincoln Elementary"))
	assert.True(t, SchoolLevelPattern.MatchString("Coppell High School"))
	assert.False(t, SchoolLevelPattern.MatchString("Montessori Academy"))

	assert.True(t, ParkTierPattern.MatchString("Community Park"))
	assert.False(t, ParkTierPattern.MatchString("Duck Pond"))
}
