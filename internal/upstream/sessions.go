package upstream

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/serene-wellness/backend/internal/models"
)

// sessionListResponse is the upstream envelope for session list endpoints.
type sessionListResponse struct {
	Success  bool         `json:"success"`
	Sessions []sessionDTO `json:"sessions"`
	Message  string       `json:"message"`
}

// ListScheduled fetches all scheduled sessions starting at or after from.
func (c *Client) ListScheduled(ctx context.Context, from time.Time) ([]models.Session, error) {
	q := url.Values{}
	q.Set("status", "scheduled")
	q.Set("startDate", from.UTC().Format(time.RFC3339))
	q.Set("sortBy", "startTime")
	q.Set("sortOrder", "asc")

	var resp sessionListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/sessions?"+q.Encode(), "", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &Error{StatusCode: http.StatusOK, Message: resp.Message}
	}
	return c.normalizeAll(resp.Sessions), nil
}

// MySessions fetches the sessions the authenticated user has already booked.
// The user's bearer token is forwarded as-is.
func (c *Client) MySessions(ctx context.Context, bearer string) ([]models.Session, error) {
	var resp sessionListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/sessions/my-sessions", bearer, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &Error{StatusCode: http.StatusOK, Message: resp.Message}
	}
	return c.normalizeAll(resp.Sessions), nil
}

func (c *Client) normalizeAll(dtos []sessionDTO) []models.Session {
	sessions := make([]models.Session, 0, len(dtos))
	for _, dto := range dtos {
		s, ok := normalize(dto)
		if !ok {
			c.logger.Warn("skipping malformed upstream session",
				zap.String("id", dto.ID), zap.String("start_time", dto.StartTime))
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions
}
