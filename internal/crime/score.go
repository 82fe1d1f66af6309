// Package crime converts raw crime-API payloads into the safety sub-score.
package crime

import (
	"math"

	"github.com/sells-group/areascore/internal/model"
)

// Payload is the summarized crime-provider response for the most recent
// available year. Absent counts default to zero.
type Payload struct {
	Population    int `json:"population"`
	ViolentCrime  int `json:"violent_crime"`
	PropertyCrime int `json:"property_crime"`
	Assaults      int `json:"aggravated_assault"`
	Robberies     int `json:"robbery"`
	Burglaries    int `json:"burglary"`
	Thefts        int `json:"larceny"`
	VehicleThefts int `json:"motor_vehicle_theft"`
}

// Score derives the crime metrics from a provider payload. A non-positive
// population means the payload is unusable and the documented default is
// returned instead.
func Score(p Payload) model.CrimeStat {
	if p.Population <= 0 {
		return Default()
	}

	crimeRate := float64(p.ViolentCrime+p.PropertyCrime) / float64(p.Population) * 100000
	safetyScore := math.Max(0, math.Min(100, 100-crimeRate/50))
	score := math.Round(safetyScore / 100 * 200)

	return model.CrimeStat{
		CrimeRate:    int(math.Round(crimeRate)),
		SafetyScore:  int(math.Round(safetyScore)),
		ViolentCrime: p.ViolentCrime,
		Score:        int(score),
		Details: model.CrimeDetails{
			Assaults:      p.Assaults,
			Robberies:     p.Robberies,
			Burglaries:    p.Burglaries,
			Thefts:        p.Thefts,
			VehicleThefts: p.VehicleThefts,
		},
	}
}

// Default is the all-zero fallback stat used when the provider fails. The
// Defaulted flag lets consumers tell it apart from a genuinely crime-free
// jurisdiction.
func Default() model.CrimeStat {
	return model.CrimeStat{Defaulted: true}
}

// RateLevel labels a per-100k crime rate.
func RateLevel(rate int) string {
	switch {
	case rate < 2000:
		return "Very Low"
	case rate < 3000:
		return "Low"
	case rate < 4000:
		return "Moderate"
	case rate < 5000:
		return "High"
	default:
		return "Very High"
	}
}

// ViolentCrimeLevel labels an absolute violent-incident count.
func ViolentCrimeLevel(count int) string {
	switch {
	case count < 50:
		return "Very Low"
	case count < 100:
		return "Low"
	case count < 200:
		return "Moderate"
	case count < 300:
		return "High"
	default:
		return "Very High"
	}
}

// PoliceResponse labels the expected police responsiveness for a safety score.
func PoliceResponse(safetyScore int) string {
	switch {
	case safetyScore >= 80:
		return "Excellent"
	case safetyScore >= 60:
		return "Good"
	case safetyScore >= 40:
		return "Average"
	default:
		return "Below Average"
	}
}

// CommunityRating labels the community safety perception for a safety score.
func CommunityRating(safetyScore int) string {
	switch {
	case safetyScore >= 80:
		return "Very Safe"
	case safetyScore >= 60:
		return "Safe"
	case safetyScore >= 40:
		return "Moderate"
	default:
		return "Caution Advised"
	}
}
