// Package heat resolves a formatted address to its state-level market-heat
// assessment: score, market type, snapshot trend, and national ranking.
package heat

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/areascore/internal/model"
	"github.com/sells-group/areascore/internal/refdata"
)

// Ordered extraction patterns; the first match wins.
var statePatterns = []*regexp.Regexp{
	regexp.MustCompile(`,\s*([A-Z]{2})\s*\d{5}`), // ", TX 75019"
	regexp.MustCompile(`,\s*([A-Z]{2})\s*,`),     // ", TX,"
	regexp.MustCompile(`,\s*([A-Z]{2})\s*$`),     // ", TX" at end
	regexp.MustCompile(`\b([A-Z]{2})\s*\d{5}`),   // "TX 75019"
}

// ExtractState recovers a 2-letter state code from a formatted address. It
// tries the regex patterns in order, then falls back to a case-insensitive
// substring scan over the known codes. Returns "" when nothing matches.
func ExtractState(address string) string {
	for _, pat := range statePatterns {
		if m := pat.FindStringSubmatch(address); len(m) > 1 {
			return m[1]
		}
	}

	upper := strings.ToUpper(address)
	for _, code := range refdata.StateCodes() {
		if strings.Contains(upper, code) {
			return code
		}
	}
	return ""
}

// Resolve maps a formatted address to its market-heat analysis. An address
// whose state cannot be determined, or whose state is missing from the
// table, yields the documented zero/"N/A" result rather than an error.
func Resolve(address string) model.HeatMapAnalysis {
	code := ExtractState(address)
	if code == "" {
		zap.L().Warn("heat: no state found in address", zap.String("address", address))
		return unresolved()
	}

	rec, ok := refdata.StateHeatByCode(code)
	if !ok {
		zap.L().Warn("heat: state not in table", zap.String("state", code))
		return unresolved()
	}

	return model.HeatMapAnalysis{
		Score: rec.FinalScore,
		Details: model.HeatMapDetails{
			StateCode: code,
			Average:   rec.Average,
			Rank:      Rank(code),
			Market:    MarketTypeFor(rec.Average),
			Trend:     TrendFor(rec.Average),
		},
	}
}

func unresolved() model.HeatMapAnalysis {
	return model.HeatMapAnalysis{
		Details: model.HeatMapDetails{
			StateCode: "N/A",
			Market:    model.MarketBalanced,
			Trend:     model.TrendFlat,
		},
	}
}

// MarketTypeFor classifies a state average into buyer/balanced/seller.
func MarketTypeFor(average float64) model.MarketType {
	switch {
	case average <= 40:
		return model.MarketBuyer
	case average >= 60:
		return model.MarketSeller
	default:
		return model.MarketBalanced
	}
}

// TrendFor labels the snapshot trend. It deliberately shares MarketTypeFor's
// thresholds: the source data derives both from the same average.
func TrendFor(average float64) model.MarketTrend {
	switch {
	case average <= 40:
		return model.TrendFalling
	case average >= 60:
		return model.TrendRising
	default:
		return model.TrendFlat
	}
}

var (
	rankOnce sync.Once
	rankBy   map[string]int
)

// Rank returns the state's position (1..50) when all states are ordered by
// average descending. Ties keep the table's declaration order. Unknown codes
// rank 0.
func Rank(code string) int {
	rankOnce.Do(func() {
		recs := refdata.StateHeat()
		order := make([]int, len(recs))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return recs[order[a]].Average > recs[order[b]].Average
		})
		rankBy = make(map[string]int, len(recs))
		for pos, idx := range order {
			rankBy[recs[idx].Code] = pos + 1
		}
	})
	return rankBy[code]
}

// Rankings returns all states ordered best-first with their assigned rank.
func Rankings() []refdata.StateHeatRecord {
	recs := refdata.StateHeat()
	out := make([]refdata.StateHeatRecord, len(recs))
	copy(out, recs)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Average > out[b].Average
	})
	return out
}

// MarketDescription narrates the market conditions for a resolved state.
func MarketDescription(stateCode string, market model.MarketType) string {
	switch market {
	case model.MarketBuyer:
		return fmt.Sprintf("Favorable buyer's market in %s. High negotiation power for buyers.", stateCode)
	case model.MarketSeller:
		return fmt.Sprintf("Strong seller's market in %s. Property values trending higher than average.", stateCode)
	default:
		return fmt.Sprintf("Balanced market conditions in %s. Normal negotiation power for both parties.", stateCode)
	}
}

// PriceTrendPercent estimates annual appreciation from the market average.
func PriceTrendPercent(average float64) float64 {
	switch {
	case average >= 60:
		return 8.5
	case average <= 40:
		return 2.5
	default:
		return 5.5
	}
}

// AverageDaysOnMarket estimates listing duration from the market average.
func AverageDaysOnMarket(average float64) int {
	switch {
	case average >= 60:
		return 25
	case average <= 40:
		return 75
	default:
		return 45
	}
}

// InventoryLevel labels housing inventory from the market average.
func InventoryLevel(average float64) string {
	switch {
	case average >= 60:
		return "Low"
	case average <= 40:
		return "High"
	default:
		return "Moderate"
	}
}

// NormalizedAverage maps a state average onto [0,1] across the table's
// observed min/max, for gradient rendering.
func NormalizedAverage(average float64) float64 {
	recs := refdata.StateHeat()
	minAvg, maxAvg := recs[0].Average, recs[0].Average
	for _, rec := range recs {
		if rec.Average < minAvg {
			minAvg = rec.Average
		}
		if rec.Average > maxAvg {
			maxAvg = rec.Average
		}
	}
	if maxAvg == minAvg {
		return 0
	}
	n := (average - minAvg) / (maxAvg - minAvg)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}
