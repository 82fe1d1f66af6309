package poi

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/areascore/internal/model"
)

func TestClassify_Rules(t *testing.T) {
	tests := []struct {
		typeKey  string
		name     string
		category model.Category
		score    float64
		ok       bool
	}{
		{"supermarket", "Corner Market", model.CategoryShopping, 5, true},
		{"grocery_or_supermarket", "Local Grocer", model.CategoryShopping, 5, true},
		{"shopping_mall", "Galleria", model.CategoryShopping, 5, true},
		{"restaurant", "Luigi's", model.CategoryRestaurant, 3, true},
		{"cafe", "Bean There", model.CategoryRestaurant, 2, true},
		{"school", "Montessori Academy", model.CategorySchool, 8, true},
		{"primary_school", "St. Mary's", model.CategorySchool, 8, true},
		{"park", "Duck Pond", model.CategoryPark, 1, true},
		{"playground", "Tot Lot", model.CategoryPark, 2, true},
		{"transit_station", "Downtown Hub", model.CategoryTransport, 5, true},
		{"bus_station", "5th & Main", model.CategoryTransport, 3, true},
		{"train_station", "Union", model.CategoryTransport, 5, true},

		// Types searched but matched by no classification rule.
		{"meal_takeaway", "Wok Express", "", 0, false},
		{"convenience_store", "QuickStop", "", 0, false},
		{"casino", "Lucky Star", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.typeKey, func(t *testing.T) {
			cat, score, ok := Classify(tt.typeKey, tt.name)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.category, cat)
				assert.Equal(t, tt.score, score)
			}
		})
	}
}

func TestClassify_NameBoosts(t *testing.T) {
	// Shopping brand doubles the base weight.
	_, score, ok := Classify("supermarket", "Walmart Supercenter")
	assert.True(t, ok)
	assert.Equal(t, 10.0, score)

	// School level keyword applies x1.5.
	_, score, ok = Classify("primary_school", "Lincoln Elementary")
	assert.True(t, ok)
	assert.Equal(t, 12.0, score)

	// Park tier keyword applies x1.5.
	_, score, ok = Classify("park", "Andrew Brown Community Park")
	assert.True(t, ok)
	assert.Equal(t, 1.5, score)

	// Boosts never cross categories: a school named like a brand gets none.
	_, score, ok = Classify("school", "Target Prep Academy")
	assert.True(t, ok)
	assert.Equal(t, 8.0, score)
}

func TestClassify_UnweightedTypeScoresZero(t *testing.T) {
	// A type that matches a rule but is missing from the weight table
	// classifies with a zero score rather than erroring.
	cat, score, ok := Classify("subway_station", "14th St")
	assert.True(t, ok)
	assert.Equal(t, model.CategoryTransport, cat)
	assert.Equal(t, 0.0, score)
}

func TestAggregate_DedupAcrossTypeSearches(t *testing.T) {
	shared := model.Place{ID: "p1", Name: "Kroger"}
	results := []TypeResult{
		{TypeKey: "grocery_or_supermarket", Places: []model.Place{shared}},
		{TypeKey: "supermarket", Places: []model.Place{shared}},
	}

	out := Aggregate(results)
	assert.Equal(t, 1, out.Details[model.CategoryShopping].Count)
	// Kroger is a brand name: 5 * 2 = 10, once.
	assert.Equal(t, 10.0, out.Details[model.CategoryShopping].WeightedScore)
}

func TestAggregate_SingleBoostedSchool(t *testing.T) {
	// One primary school named "Lincoln Elementary": weight 8 * 1.5 = 12,
	// normalized against school max 10 -> capped at 200; other categories
	// zero -> overall round(200/5) = 40.
	results := []TypeResult{
		{TypeKey: "primary_school", Places: []model.Place{
			{ID: "s1", Name: "Lincoln Elementary"},
		}},
	}

	out := Aggregate(results)
	assert.Equal(t, 40, out.Score)
	assert.Equal(t, 1, out.Details[model.CategorySchool].Count)
	assert.Equal(t, 12.0, out.Details[model.CategorySchool].WeightedScore)
	for _, cat := range []model.Category{
		model.CategoryShopping, model.CategoryRestaurant,
		model.CategoryPark, model.CategoryTransport,
	} {
		assert.Equal(t, 0, out.Details[cat].Count)
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	out := Aggregate(nil)
	assert.Equal(t, 0, out.Score)
	assert.Len(t, out.Details, 5)
}

func TestAggregate_ScoreCappedAt200(t *testing.T) {
	// Flood every category well past its ceiling.
	var results []TypeResult
	for i := 0; i < 100; i++ {
		results = append(results, TypeResult{
			TypeKey: "supermarket",
			Places:  []model.Place{{ID: fmt.Sprintf("shop-%d", i), Name: "Walmart"}},
		}, TypeResult{
			TypeKey: "restaurant",
			Places:  []model.Place{{ID: fmt.Sprintf("rest-%d", i), Name: "Diner"}},
		}, TypeResult{
			TypeKey: "school",
			Places:  []model.Place{{ID: fmt.Sprintf("sch-%d", i), Name: "High School"}},
		}, TypeResult{
			TypeKey: "park",
			Places:  []model.Place{{ID: fmt.Sprintf("park-%d", i), Name: "Community Park"}},
		}, TypeResult{
			TypeKey: "train_station",
			Places:  []model.Place{{ID: fmt.Sprintf("tr-%d", i), Name: "Stop"}},
		})
	}

	out := Aggregate(results)
	assert.Equal(t, 200, out.Score)
}

func TestAggregate_PlacesWithoutIDSkipped(t *testing.T) {
	results := []TypeResult{
		{TypeKey: "restaurant", Places: []model.Place{{Name: "No ID Diner"}}},
	}
	out := Aggregate(results)
	assert.Equal(t, 0, out.Details[model.CategoryRestaurant].Count)
}
