// Package media stores session cover images in S3 and serves presigned
// download URLs embedded in discovery payloads.
package media

import (
	"context"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/serene-wellness/backend/internal/middleware"
	"github.com/serene-wellness/backend/pkg/response"
	"github.com/serene-wellness/backend/pkg/storage"
)

// Service resolves and stores session images. Implements the discovery
// handler's ImageResolver.
type Service struct {
	repo   *Repository
	s3     *storage.S3
	logger *zap.Logger
}

// NewService creates a media service.
func NewService(repo *Repository, s3 *storage.S3, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, s3: s3, logger: logger}
}

// ImageURL returns a presigned download URL for the session's cover image.
func (s *Service) ImageURL(ctx context.Context, sessionID string) (string, error) {
	key, err := s.repo.GetKey(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return s.s3.PresignGet(ctx, key)
}

// Handler handles media HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a media handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// UploadImage handles POST /sessions/:id/image (professional only, multipart
// field "image").
func (h *Handler) UploadImage(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		response.BadRequest(c, "session id required")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		response.BadRequest(c, "image file required")
		return
	}
	defer file.Close()

	if header.Size > storage.MaxImageSize {
		response.BadRequest(c, "image exceeds 5MB limit")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !storage.ValidateImageType(contentType, header.Filename) {
		response.BadRequest(c, "unsupported image type")
		return
	}

	ext := strings.ToLower(path.Ext(header.Filename))
	if ext == "" {
		ext = storage.AllowedImageTypes[strings.ToLower(contentType)]
	}
	key := storage.SessionImageKey(sessionID, ext)

	if _, err := h.svc.s3.Upload(c.Request.Context(), key, contentType, file); err != nil {
		h.svc.logger.Error("image upload failed", zap.Error(err), zap.String("session_id", sessionID))
		response.Internal(c, "failed to upload image")
		return
	}
	if err := h.svc.repo.Upsert(c.Request.Context(), sessionID, key, contentType, userID); err != nil {
		response.Internal(c, "failed to record image")
		return
	}

	url, err := h.svc.s3.PresignGet(c.Request.Context(), key)
	if err != nil {
		response.Internal(c, "failed to sign image url")
		return
	}
	response.Created(c, gin.H{"session_id": sessionID, "image_url": url})
}
