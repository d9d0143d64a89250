package discovery

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/serene-wellness/backend/internal/catalog"
	"github.com/serene-wellness/backend/internal/models"
	"github.com/serene-wellness/backend/pkg/response"
)

// ImageResolver fills in presigned cover image URLs for session cards.
type ImageResolver interface {
	ImageURL(ctx context.Context, sessionID string) (string, error)
}

// PriceBounds are the min/max observed prices seeding the range slider.
type PriceBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Result is the payload for GET /discovery/sessions.
type Result struct {
	Sessions    []models.Session `json:"sessions"`
	Statistics  Statistics       `json:"statistics"`
	PriceBounds PriceBounds      `json:"price_bounds"`
}

// Handler serves the session discovery endpoints.
type Handler struct {
	catalog *catalog.Service
	images  ImageResolver
	cities  []string
	logger  *zap.Logger
}

// NewHandler creates a discovery handler. images may be nil when media
// storage is disabled.
func NewHandler(cat *catalog.Service, images ImageResolver, cities []string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{catalog: cat, images: images, cities: cities, logger: logger}
}

// ListSessions handles GET /discovery/sessions. Anonymous users browse the
// full eligible list; authenticated users additionally get their already
// booked sessions excluded.
func (h *Handler) ListSessions(c *gin.Context) {
	criteria, ok := parseCriteria(c)
	if !ok {
		return
	}

	snap := h.catalog.SnapshotFor(c.Request.Context(), bearerToken(c))
	stats := Aggregate(snap.Sessions, h.cities)
	criteria.ClampPrice(stats.PriceMin, stats.PriceMax)

	list := Apply(snap.Sessions, criteria, snap.BookedIDs)
	h.resolveImages(c.Request.Context(), list)

	result := Result{
		Sessions:    list,
		Statistics:  stats,
		PriceBounds: PriceBounds{Min: stats.PriceMin, Max: stats.PriceMax},
	}
	if len(snap.Warnings) > 0 {
		response.OKWithWarning(c, result, strings.Join(snap.Warnings, "; "))
		return
	}
	response.OK(c, result)
}

// GetStatistics handles GET /discovery/statistics.
func (h *Handler) GetStatistics(c *gin.Context) {
	snap := h.catalog.SnapshotFor(c.Request.Context(), "")
	stats := Aggregate(snap.Sessions, h.cities)
	if len(snap.Warnings) > 0 {
		response.OKWithWarning(c, stats, strings.Join(snap.Warnings, "; "))
		return
	}
	response.OK(c, stats)
}

// ListCities handles GET /discovery/cities (the city filter dropdown).
func (h *Handler) ListCities(c *gin.Context) {
	response.OK(c, h.cities)
}

func (h *Handler) resolveImages(ctx context.Context, sessions []models.Session) {
	if h.images == nil {
		return
	}
	for i := range sessions {
		url, err := h.images.ImageURL(ctx, sessions[i].ID)
		if err != nil {
			continue
		}
		sessions[i].ImageURL = url
	}
}

// parseCriteria reads the filter criteria from the query string. Replies 400
// and returns false on an unusable value.
func parseCriteria(c *gin.Context) (Criteria, bool) {
	criteria := Criteria{
		Search: c.Query("search"),
		City:   c.Query("city"),
		Sort:   ParseSortKey(c.DefaultQuery("sort", "date")),
	}
	if v := c.Query("category"); v != "" {
		cat := models.ParseCategory(v)
		if cat == models.CategoryUnknown {
			response.BadRequest(c, "unknown category: "+v)
			return Criteria{}, false
		}
		criteria.Category = cat
	}
	if v := c.Query("date"); v != "" {
		day, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			response.BadRequest(c, "invalid date, expected YYYY-MM-DD")
			return Criteria{}, false
		}
		criteria.Date = &day
	}
	if v := c.Query("price_min"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n < 0 {
			response.BadRequest(c, "invalid price_min")
			return Criteria{}, false
		}
		criteria.PriceMin = n
	}
	if v := c.Query("price_max"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n < 0 {
			response.BadRequest(c, "invalid price_max")
			return Criteria{}, false
		}
		criteria.PriceMax = n
	}
	return criteria, true
}

// bearerToken returns the raw bearer token from the Authorization header, or
// "" when absent. Discovery endpoints work unauthenticated; the token is only
// forwarded upstream to personalize the booked-session exclusion.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
