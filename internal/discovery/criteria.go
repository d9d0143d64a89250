package discovery

import (
	"time"

	"github.com/serene-wellness/backend/internal/models"
)

// SortKey selects the ordering of the filtered list.
type SortKey string

const (
	SortDate       SortKey = "date"
	SortPrice      SortKey = "price"
	SortPopularity SortKey = "popularity"
	SortRating     SortKey = "rating"
	// SortNone leaves the pipeline output order unchanged. Unrecognized keys
	// map here rather than silently falling through.
	SortNone SortKey = ""
)

// ParseSortKey maps a query value onto the closed sort enum.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortDate, SortPrice, SortPopularity, SortRating:
		return SortKey(s)
	default:
		return SortNone
	}
}

// Criteria is the user's ephemeral filter state, carried in the query string
// and never persisted.
type Criteria struct {
	Search   string
	City     string
	Category models.Category // empty means any
	Date     *time.Time      // selected calendar day, nil means any
	PriceMin float64
	PriceMax float64
	Sort     SortKey
}

// ClampPrice clamps the criteria's price range into the bounds observed in
// the current session set. Unset bounds (both zero) adopt the observed range.
func (c *Criteria) ClampPrice(min, max float64) {
	if c.PriceMin == 0 && c.PriceMax == 0 {
		c.PriceMin, c.PriceMax = min, max
		return
	}
	if c.PriceMin < min {
		c.PriceMin = min
	}
	if c.PriceMax > max || c.PriceMax == 0 {
		c.PriceMax = max
	}
	if c.PriceMin > c.PriceMax {
		c.PriceMin = c.PriceMax
	}
}
