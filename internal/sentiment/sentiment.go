// Package sentiment reduces place ratings, review volume, price levels, and
// time-ordered review text into the area-sentiment sub-score.
package sentiment

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/sells-group/areascore/internal/model"
)

// stopwords are dropped during keyword extraction, matching the short list
// the scoring model was tuned with.
var stopwords = map[string]bool{
	"this": true,
	"that": true,
	"with": true,
	"from": true,
	"they": true,
	"have": true,
}

var wordSplit = regexp.MustCompile(`\W+`)

// Aggregate reduces detailed place records into a sentiment assessment.
// Places without ratings still count toward the place denominator, matching
// the source model.
func Aggregate(places []model.Place) model.SentimentAssessment {
	if len(places) == 0 {
		return Default()
	}

	var (
		totalRating  float64
		totalReviews int
		priceSum     float64
		priceCount   int
		reviews      []model.Review
	)

	for _, p := range places {
		if p.Rating > 0 {
			totalRating += p.Rating
			totalReviews += p.UserRatingsTotal
		}
		if p.PriceLevel > 0 {
			priceSum += float64(p.PriceLevel)
			priceCount++
		}
		reviews = append(reviews, p.Reviews...)
	}

	averageRating := 0.0
	if totalReviews > 0 {
		averageRating = totalRating / float64(len(places))
	}
	averagePrice := 0.0
	if priceCount > 0 {
		averagePrice = priceSum / float64(priceCount)
	}

	counts := partition(reviews)
	trend := Trend(reviews)
	keywords := TopKeywords(reviews, 5)

	return model.SentimentAssessment{
		Score:         score(averageRating, totalReviews, trend, counts, averagePrice),
		ReviewCounts:  counts,
		AverageRating: averageRating,
		AveragePrice:  averagePrice,
		TotalReviews:  totalReviews,
		Trend:         trend,
		TopKeywords:   keywords,
	}
}

// Default is the all-zero assessment used when place details cannot be
// fetched.
func Default() model.SentimentAssessment {
	return model.SentimentAssessment{Trend: model.TrendStable}
}

func partition(reviews []model.Review) model.ReviewCounts {
	var c model.ReviewCounts
	for _, r := range reviews {
		switch {
		case r.Rating >= 4:
			c.Positive++
		case r.Rating >= 3:
			c.Neutral++
		default:
			c.Negative++
		}
	}
	return c
}

// Trend compares the mean rating of the most recent half of reviews against
// the older half (ceil split on odd counts). Fewer than two reviews is
// always stable.
func Trend(reviews []model.Review) model.SentimentTrend {
	if len(reviews) < 2 {
		return model.TrendStable
	}

	sorted := make([]model.Review, len(reviews))
	copy(sorted, reviews)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Timestamp.After(sorted[b].Timestamp)
	})

	half := (len(sorted) + 1) / 2
	recentAvg := meanRating(sorted[:half])
	olderAvg := meanRating(sorted[half:])

	switch {
	case recentAvg > olderAvg+0.3:
		return model.TrendImproving
	case recentAvg < olderAvg-0.3:
		return model.TrendDeclining
	default:
		return model.TrendStable
	}
}

func meanRating(reviews []model.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum float64
	for _, r := range reviews {
		sum += r.Rating
	}
	return sum / float64(len(reviews))
}

// TopKeywords extracts the most frequent words across review text:
// lowercased, split on non-word runs, dropping short words and stopwords.
// Frequency ties keep first-encountered order.
func TopKeywords(reviews []model.Review, n int) []string {
	counts := make(map[string]int)
	var order []string

	for _, r := range reviews {
		for _, word := range wordSplit.Split(strings.ToLower(r.Text), -1) {
			if len(word) <= 3 || stopwords[word] {
				continue
			}
			if counts[word] == 0 {
				order = append(order, word)
			}
			counts[word]++
		}
	}

	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})

	if len(order) > n {
		order = order[:n]
	}
	return order
}

// score combines the sentiment signals into a rounded 0-200 value:
// rating (max 100), review volume (max 30), trend bonus (max 20), positive
// ratio (max 30), and affordability (max 20).
func score(averageRating float64, totalReviews int, trend model.SentimentTrend, counts model.ReviewCounts, averagePrice float64) int {
	s := averageRating / 5 * 100

	s += math.Min(30, float64(totalReviews)/10)

	switch trend {
	case model.TrendImproving:
		s += 20
	case model.TrendStable:
		s += 10
	}

	if total := counts.Total(); total > 0 {
		s += float64(counts.Positive) / float64(total) * 30
	}

	s += math.Max(0, 20-averagePrice*5)

	return int(math.Round(math.Max(0, math.Min(200, s))))
}

// EngagementLevel labels community engagement from total review volume.
func EngagementLevel(totalReviews int) string {
	switch {
	case totalReviews > 500:
		return "Very High"
	case totalReviews > 200:
		return "High"
	case totalReviews > 100:
		return "Medium"
	case totalReviews > 50:
		return "Low"
	default:
		return "Very Low"
	}
}
