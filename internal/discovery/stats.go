package discovery

import (
	"sort"
	"strings"

	"github.com/serene-wellness/backend/internal/models"
)

// CategoryCount is one entry of the top-categories ranking.
type CategoryCount struct {
	Category models.Category `json:"category"`
	Count    int             `json:"count"`
}

// Statistics are the derived aggregates for the current eligible session set.
// They also seed the price-range filter bounds (PriceMin/PriceMax).
type Statistics struct {
	TotalSessions         int                     `json:"total_sessions"`
	DistinctProfessionals int                     `json:"distinct_professionals"`
	AveragePrice          float64                 `json:"average_price"`
	PriceMin              float64                 `json:"price_min"`
	PriceMax              float64                 `json:"price_max"`
	ByCategory            map[models.Category]int `json:"by_category"`
	ByCity                map[string]int          `json:"by_city"`
	TopCategories         []CategoryCount         `json:"top_categories"`
}

// Aggregate computes statistics over the eligible session list in a single
// pass. Callers must have applied eligibility already; no filtering happens
// here. A session whose location matches none of the known cities is excluded
// from the city tally but still counted in the totals.
func Aggregate(sessions []models.Session, knownCities []string) Statistics {
	stats := Statistics{
		ByCategory: make(map[models.Category]int),
		ByCity:     make(map[string]int),
	}

	loweredCities := make([]string, len(knownCities))
	for i, c := range knownCities {
		loweredCities[i] = strings.ToLower(c)
	}

	professionals := make(map[string]bool)
	var priceSum float64
	var categoryOrder []models.Category

	for _, s := range sessions {
		stats.TotalSessions++
		professionals[s.Professional.ID] = true

		priceSum += s.Price
		if stats.TotalSessions == 1 || s.Price < stats.PriceMin {
			stats.PriceMin = s.Price
		}
		if s.Price > stats.PriceMax {
			stats.PriceMax = s.Price
		}

		if _, seen := stats.ByCategory[s.Category]; !seen {
			categoryOrder = append(categoryOrder, s.Category)
		}
		stats.ByCategory[s.Category]++

		// Online sessions have no physical location, so they never reach the
		// city tally.
		if city := extractCity(s.Location, knownCities, loweredCities); city != "" {
			stats.ByCity[city]++
		}
	}

	stats.DistinctProfessionals = len(professionals)
	if stats.TotalSessions > 0 {
		stats.AveragePrice = priceSum / float64(stats.TotalSessions)
	}

	// Rank categories by count descending; ties keep first-seen order.
	top := make([]CategoryCount, 0, len(categoryOrder))
	for _, cat := range categoryOrder {
		top = append(top, CategoryCount{Category: cat, Count: stats.ByCategory[cat]})
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].Count > top[j].Count })
	if len(top) > 5 {
		top = top[:5]
	}
	stats.TopCategories = top
	return stats
}

// extractCity matches a session location against the fixed known-city list,
// case-insensitive. Returns "" when no city is recognizable.
func extractCity(location string, cities, loweredCities []string) string {
	if location == "" {
		return ""
	}
	lowered := strings.ToLower(location)
	for i, c := range loweredCities {
		if strings.Contains(lowered, c) {
			return cities[i]
		}
	}
	return ""
}
