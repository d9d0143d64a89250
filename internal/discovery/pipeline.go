package discovery

import (
	"sort"
	"strings"
	"time"

	"github.com/serene-wellness/backend/internal/models"
)

// Apply runs the filter pipeline over the eligible session list and returns
// the ordered display list. All predicates are independent; the step order
// only matters for how fast the working set narrows. The input slice is not
// mutated and eligibility is a precondition, not a step.
func Apply(sessions []models.Session, c Criteria, booked map[string]bool) []models.Session {
	out := make([]models.Session, 0, len(sessions))

	search := strings.ToLower(strings.TrimSpace(c.Search))
	city := strings.ToLower(strings.TrimSpace(c.City))

	for _, s := range sessions {
		if booked[s.ID] {
			continue
		}
		if search != "" && !matchesSearch(s, search) {
			continue
		}
		if city != "" && !strings.Contains(strings.ToLower(s.Location), city) {
			continue
		}
		if c.Category != "" && s.Category != c.Category {
			continue
		}
		if s.Price < c.PriceMin || s.Price > c.PriceMax {
			continue
		}
		if c.Date != nil && !sameCalendarDay(s, *c.Date) {
			continue
		}
		out = append(out, s)
	}

	sortSessions(out, c.Sort)
	return out
}

// matchesSearch checks title, description and the professional's business
// name for a case-insensitive substring match.
func matchesSearch(s models.Session, loweredQuery string) bool {
	return strings.Contains(strings.ToLower(s.Title), loweredQuery) ||
		strings.Contains(strings.ToLower(s.Description), loweredQuery) ||
		strings.Contains(strings.ToLower(s.Professional.BusinessName), loweredQuery)
}

// sameCalendarDay reports whether the session starts within the selected
// day's local boundaries, start-of-day to end-of-day inclusive.
func sameCalendarDay(s models.Session, day time.Time) bool {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	t := s.StartTime.In(day.Location())
	return !t.Before(start) && t.Before(end)
}

// sortSessions applies the stable sort for the given key. An unrecognized key
// (SortNone) leaves the order unchanged.
func sortSessions(sessions []models.Session, key SortKey) {
	switch key {
	case SortDate:
		sort.SliceStable(sessions, func(i, j int) bool {
			return sessions[i].StartTime.Before(sessions[j].StartTime)
		})
	case SortPrice:
		sort.SliceStable(sessions, func(i, j int) bool {
			return sessions[i].Price < sessions[j].Price
		})
	case SortPopularity:
		sort.SliceStable(sessions, func(i, j int) bool {
			return sessions[i].Participants > sessions[j].Participants
		})
	case SortRating:
		sort.SliceStable(sessions, func(i, j int) bool {
			return sessions[i].Professional.Rating > sessions[j].Professional.Rating
		})
	case SortNone:
	}
}
