// Package model defines the entities shared by the assessment engine and its
// provider clients. All values are transient: computed fresh per analysis
// request and never persisted.
package model

import (
	"time"

	"github.com/golang/geo/s2"
)

// earthRadiusMeters is the mean Earth radius used for distance conversion.
const earthRadiusMeters = 6371008.8

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceMeters returns the great-circle distance to other.
func (l Location) DistanceMeters(other Location) float64 {
	a := s2.LatLngFromDegrees(l.Lat, l.Lng)
	b := s2.LatLngFromDegrees(other.Lat, other.Lng)
	return a.Distance(b).Radians() * earthRadiusMeters
}

// Category is one of the five tracked POI categories.
type Category string

const (
	CategoryShopping   Category = "shopping"
	CategoryRestaurant Category = "restaurant"
	CategorySchool     Category = "school"
	CategoryPark       Category = "park"
	CategoryTransport  Category = "transport"
)

// Categories lists all tracked categories in display order.
var Categories = []Category{
	CategoryShopping,
	CategoryRestaurant,
	CategorySchool,
	CategoryPark,
	CategoryTransport,
}

// Review is a single user review attached to a place.
type Review struct {
	Rating    float64   `json:"rating"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Place is one result from the nearby-search provider. ID is the dedup key:
// a place contributes to at most one category regardless of how many type
// searches return it.
type Place struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	TypeKey          string   `json:"type_key"`
	Location         Location `json:"location"`
	Rating           float64  `json:"rating,omitempty"`
	UserRatingsTotal int      `json:"user_ratings_total,omitempty"`
	PriceLevel       int      `json:"price_level,omitempty"`
	Reviews          []Review `json:"reviews,omitempty"`
}

// CategoryTally holds the running totals for one POI category.
type CategoryTally struct {
	Count         int     `json:"count"`
	WeightedScore float64 `json:"weighted_score"`
}

// POIAssessment is the reduced points-of-interest sub-score.
type POIAssessment struct {
	Score   int                        `json:"score"`
	Details map[Category]CategoryTally `json:"details"`
}

// CrimeDetails is the incident-type breakdown from the crime provider.
type CrimeDetails struct {
	Assaults      int `json:"assaults"`
	Robberies     int `json:"robberies"`
	Burglaries    int `json:"burglaries"`
	Thefts        int `json:"thefts"`
	VehicleThefts int `json:"vehicle_thefts"`
}

// CrimeStat holds the derived crime metrics for a location.
type CrimeStat struct {
	CrimeRate    int          `json:"crime_rate"` // incidents per 100k residents
	SafetyScore  int          `json:"safety_score"`
	ViolentCrime int          `json:"violent_crime"`
	Score        int          `json:"score"`
	Details      CrimeDetails `json:"details"`
	Defaulted    bool         `json:"defaulted"` // provider failed; values are the documented fallback
}

// FloodRiskLevel is the qualitative flood classification.
type FloodRiskLevel string

const (
	FloodRiskHigh     FloodRiskLevel = "High"
	FloodRiskModerate FloodRiskLevel = "Moderate"
	FloodRiskLow      FloodRiskLevel = "Low"
	FloodRiskMinimal  FloodRiskLevel = "Minimal"
)

// FloodAssessment holds the derived flood metrics.
type FloodAssessment struct {
	Score              int            `json:"score"`
	RiskLevel          FloodRiskLevel `json:"risk_level"`
	ZoneType           string         `json:"zone_type"`
	AnnualChance       string         `json:"annual_chance"`
	Description        string         `json:"description"`
	BaseFloodElevation float64        `json:"base_flood_elevation,omitempty"`
	Synthetic          bool           `json:"synthetic"` // generated, not provider data
}

// SentimentTrend classifies the direction of recent review ratings.
type SentimentTrend string

const (
	TrendImproving SentimentTrend = "improving"
	TrendStable    SentimentTrend = "stable"
	TrendDeclining SentimentTrend = "declining"
)

// ReviewCounts partitions reviews by rating bucket.
type ReviewCounts struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Total returns the number of considered reviews.
func (r ReviewCounts) Total() int {
	return r.Positive + r.Neutral + r.Negative
}

// SentimentAssessment is the review-derived sub-score.
type SentimentAssessment struct {
	Score         int            `json:"score"`
	ReviewCounts  ReviewCounts   `json:"review_counts"`
	AverageRating float64        `json:"average_rating"`
	AveragePrice  float64        `json:"average_price"`
	TotalReviews  int            `json:"total_reviews"`
	Trend         SentimentTrend `json:"trend"`
	TopKeywords   []string       `json:"top_keywords"`
	Synthetic     bool           `json:"synthetic"`
}

// MarketType classifies a state market snapshot.
type MarketType string

const (
	MarketBuyer    MarketType = "Buyer"
	MarketBalanced MarketType = "Balanced"
	MarketSeller   MarketType = "Seller"
)

// MarketTrend is the snapshot trend label. It intentionally shares the
// Buyer/Seller thresholds with MarketType; see the heat package.
type MarketTrend string

const (
	TrendFalling MarketTrend = "Falling"
	TrendFlat    MarketTrend = "Stable"
	TrendRising  MarketTrend = "Rising"
)

// HeatMapDetails describes the resolved state market.
type HeatMapDetails struct {
	StateCode string      `json:"state_code"`
	Average   float64     `json:"average"`
	Rank      int         `json:"rank,omitempty"` // 1..50, 0 when unresolved
	Market    MarketType  `json:"market_type"`
	Trend     MarketTrend `json:"trend"`
}

// HeatMapAnalysis is the market-heat sub-score.
type HeatMapAnalysis struct {
	Score   float64        `json:"score"`
	Details HeatMapDetails `json:"details"`
}

// PropertyDetails carries request provenance for the rendered result.
type PropertyDetails struct {
	Address      string   `json:"address"`
	Coordinates  Location `json:"coordinates"`
	RadiusMeters int      `json:"radius_meters"`
	POICount     int      `json:"poi_count"`
}

// Tier is the qualitative label for a total score.
type Tier string

const (
	TierExcellent Tier = "Excellent"
	TierGood      Tier = "Good"
	TierModerate  Tier = "Moderate"
	TierLimited   Tier = "Limited"
)

// AnalysisResult is the combined output for one location. Total is the sum
// of the five sub-scores; each sub-score is independently 0-200.
type AnalysisResult struct {
	ID              string              `json:"id"`
	POI             POIAssessment       `json:"poi"`
	Crime           CrimeStat           `json:"crime"`
	HeatMap         HeatMapAnalysis     `json:"heat_map"`
	Sentiment       SentimentAssessment `json:"sentiment"`
	Flood           FloodAssessment     `json:"flood"`
	Total           int                 `json:"total"`
	Tier            Tier                `json:"tier"`
	PropertyDetails PropertyDetails     `json:"property_details"`
	GeneratedAt     time.Time           `json:"generated_at"`
}
