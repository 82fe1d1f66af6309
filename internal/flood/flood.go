// Package flood derives the flood-risk sub-score from FEMA NFHL zone
// attributes. When no provider data is available it can generate a clearly
// labeled synthetic assessment so the rest of the pipeline stays functional.
package flood

import (
	"math"
	"math/rand/v2"
	"strings"

	"github.com/sells-group/areascore/internal/model"
)

// Attributes are the zone properties returned by the flood-data provider.
type Attributes struct {
	ZoneID             string  `json:"zone_id"` // e.g. "AE", "VE", "X"
	Subtype            string  `json:"subtype"`
	SFHA               bool    `json:"sfha"` // Special Flood Hazard Area
	BaseFloodElevation float64 `json:"base_flood_elevation,omitempty"`
	Depth              float64 `json:"depth,omitempty"`    // feet
	Velocity           float64 `json:"velocity,omitempty"` // ft/s
}

const shadedXSubtype = "0.2 PCT ANNUAL CHANCE FLOOD HAZARD"

// Assess scores real zone attributes. Starts at 200 and subtracts fixed
// penalties: SFHA membership, zone severity, then capped depth and velocity
// adjustments. The clamped score fully determines the risk level.
func Assess(attrs Attributes) model.FloodAssessment {
	score := 200.0

	if attrs.SFHA {
		score -= 100
	}

	score -= zonePenalty(attrs.ZoneID, attrs.Subtype)

	if attrs.Depth > 0 {
		score -= math.Min(25, attrs.Depth*5)
	}
	if attrs.Velocity > 0 {
		score -= math.Min(25, attrs.Velocity*2)
	}

	score = math.Max(0, math.Min(200, score))
	rounded := int(math.Round(score))

	return model.FloodAssessment{
		Score:              rounded,
		RiskLevel:          RiskLevelFor(rounded),
		ZoneType:           attrs.ZoneID,
		AnnualChance:       annualChanceFor(attrs.ZoneID, attrs.Subtype),
		Description:        descriptionFor(RiskLevelFor(rounded)),
		BaseFloodElevation: attrs.BaseFloodElevation,
	}
}

func zonePenalty(zoneID, subtype string) float64 {
	switch strings.ToUpper(zoneID) {
	case "V", "VE":
		return 75
	case "A", "AE", "AH", "AO":
		return 50
	case "X":
		if strings.EqualFold(subtype, shadedXSubtype) {
			return 25
		}
	}
	return 0
}

func annualChanceFor(zoneID, subtype string) string {
	switch strings.ToUpper(zoneID) {
	case "V", "VE", "A", "AE", "AH", "AO":
		return "1% annual chance (100-year floodplain)"
	case "X":
		if strings.EqualFold(subtype, shadedXSubtype) {
			return "0.2% annual chance (500-year floodplain)"
		}
	}
	return "Minimal annual chance"
}

// RiskLevelFor maps a clamped score to its qualitative band. Boundaries at
// exactly 50/100/150 belong to the lower-risk band.
func RiskLevelFor(score int) model.FloodRiskLevel {
	switch {
	case score <= 50:
		return model.FloodRiskHigh
	case score <= 100:
		return model.FloodRiskModerate
	case score <= 150:
		return model.FloodRiskLow
	default:
		return model.FloodRiskMinimal
	}
}

func descriptionFor(level model.FloodRiskLevel) string {
	switch level {
	case model.FloodRiskHigh:
		return "High flood risk. Flood insurance is mandatory for federally backed mortgages; elevation certificates and mitigation are strongly advised."
	case model.FloodRiskModerate:
		return "Moderate flood risk. The area sits in or near a regulatory floodplain; flood insurance is recommended."
	case model.FloodRiskLow:
		return "Reduced flood risk. Outside the 1% annual chance floodplain but within the 0.2% band."
	default:
		return "Minimal flood risk. Outside mapped flood hazard areas."
	}
}

// Simulation bounds for the synthetic score draw: triangular distribution
// biased toward the low-risk end.
const (
	simMin  = 50.0
	simMode = 175.0
	simMax  = 200.0
)

// Simulate produces a synthetic assessment when no flood provider is
// available. The result is explicitly flagged so consumers never present it
// as authoritative. Pass nil to use the default random source.
func Simulate(r *rand.Rand) model.FloodAssessment {
	var u float64
	if r != nil {
		u = r.Float64()
	} else {
		u = rand.Float64()
	}

	score := int(math.Round(triangular(u, simMin, simMode, simMax)))
	level := RiskLevelFor(score)

	out := model.FloodAssessment{
		Score:       score,
		RiskLevel:   level,
		Description: descriptionFor(level),
		Synthetic:   true,
	}

	// Derive zone descriptors mirroring the attribute path's bands.
	switch level {
	case model.FloodRiskHigh:
		out.ZoneType = "VE"
		out.AnnualChance = "1% annual chance (100-year floodplain)"
		out.BaseFloodElevation = 11.5
	case model.FloodRiskModerate:
		out.ZoneType = "AE"
		out.AnnualChance = "1% annual chance (100-year floodplain)"
		out.BaseFloodElevation = 9.0
	case model.FloodRiskLow:
		out.ZoneType = "X"
		out.AnnualChance = "0.2% annual chance (500-year floodplain)"
	default:
		out.ZoneType = "X"
		out.AnnualChance = "Minimal annual chance"
	}

	return out
}

// triangular maps a uniform draw u in [0,1) onto a triangular distribution
// with the given min, mode, and max.
func triangular(u, min, mode, max float64) float64 {
	c := (mode - min) / (max - min)
	if u < c {
		return min + math.Sqrt(u*(max-min)*(mode-min))
	}
	return max - math.Sqrt((1-u)*(max-min)*(max-mode))
}
