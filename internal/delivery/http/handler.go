package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/roomscout/backend/internal/domain"
	"github.com/roomscout/backend/internal/usecase"
)

// UploadsRoute is the URL prefix under which stored photos are served
const UploadsRoute = "/uploads"

// imageTypes maps accepted upload extensions to their MIME types
var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// HandlerConfig holds settings for the HTTP handlers
type HandlerConfig struct {
	UploadsDir       string
	MaxUploadBytes   int64
	SearchConfigured bool
	VisionConfigured bool
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	finder   *usecase.ProductFinder
	sessions *usecase.SessionService
	vision   domain.VisionAnalyzer
	config   HandlerConfig
	logger   zerolog.Logger
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SearchRequest is the body of the product search endpoints
type SearchRequest struct {
	Items  []domain.Item `json:"items"`
	Enrich bool          `json:"enrich"`
}

// SaveSessionRequest is the body of POST /sessions. Items without a matching
// entry in Results are saved with no products.
type SaveSessionRequest struct {
	ImagePath string              `json:"imagePath"`
	Items     []domain.Item       `json:"items"`
	Results   []domain.ItemResult `json:"results"`
}

// NewHandler creates a new HTTP handler
func NewHandler(
	finder *usecase.ProductFinder,
	sessions *usecase.SessionService,
	vision domain.VisionAnalyzer,
	config HandlerConfig,
) *Handler {
	if config.UploadsDir == "" {
		config.UploadsDir = "uploads"
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 10 << 20
	}

	return &Handler{
		finder:   finder,
		sessions: sessions,
		vision:   vision,
		config:   config,
		logger:   log.With().Str("component", "handler").Logger(),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"service":          "roomscout-backend",
		"version":          "1.0.0",
		"searchConfigured": h.config.SearchConfigured,
		"visionConfigured": h.config.VisionConfigured,
	})
}

// AnalyzeImage stores an uploaded room photo and detects the furniture in it
func (h *Handler) AnalyzeImage(c *gin.Context) {
	if h.vision == nil || !h.config.VisionConfigured {
		h.abort(c, http.StatusServiceUnavailable, "vision_unavailable", "image analysis is not configured")
		return
	}

	// Multipart framing adds a little on top of the file itself
	bodyLimit := h.config.MaxUploadBytes + 64<<10
	if c.Request.ContentLength > bodyLimit {
		h.abort(c, http.StatusRequestEntityTooLarge, "file_too_large", fmt.Sprintf("image exceeds %d bytes", h.config.MaxUploadBytes))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bodyLimit)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.abort(c, http.StatusRequestEntityTooLarge, "file_too_large", fmt.Sprintf("image exceeds %d bytes", h.config.MaxUploadBytes))
			return
		}
		h.abort(c, http.StatusBadRequest, "invalid_request", "multipart field \"image\" is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	mimeType, ok := imageTypes[ext]
	if !ok {
		h.abort(c, http.StatusBadRequest, "invalid_request", "only jpeg, jpg, png and webp images are accepted")
		return
	}
	if header.Size > h.config.MaxUploadBytes {
		h.abort(c, http.StatusRequestEntityTooLarge, "file_too_large", fmt.Sprintf("image exceeds %d bytes", h.config.MaxUploadBytes))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.config.MaxUploadBytes+1))
	if err != nil {
		h.abort(c, http.StatusBadRequest, "invalid_request", "could not read upload")
		return
	}

	name := uuid.NewString() + ext
	if err := h.storeUpload(name, data); err != nil {
		h.logger.Error().Err(err).Msg("failed to store upload")
		h.abort(c, http.StatusInternalServerError, "internal_error", "could not store upload")
		return
	}

	items, err := h.vision.Detect(c.Request.Context(), data, mimeType)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"imagePath": path.Join(UploadsRoute, name),
		"items":     items,
	})
}

func (h *Handler) storeUpload(name string, data []byte) error {
	if err := os.MkdirAll(h.config.UploadsDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(h.config.UploadsDir, name), data, 0o644)
}

// SearchProducts finds products for every item in both region tiers
func (h *Handler) SearchProducts(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abort(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	results, err := h.finder.FindProducts(c.Request.Context(), req.Items, req.Enrich)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// SearchTier finds products for every item in the tier named by the path
func (h *Handler) SearchTier(c *gin.Context) {
	tier, ok := domain.ParseRegionTier(c.Param("tier"))
	if !ok {
		h.abort(c, http.StatusNotFound, "unknown_tier", fmt.Sprintf("unknown region tier %q", c.Param("tier")))
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abort(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	results, err := h.finder.FindForTier(c.Request.Context(), req.Items, tier, req.Enrich)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tier": tier, "results": results})
}

// SaveSession persists an analysed photo and its chosen products
func (h *Handler) SaveSession(c *gin.Context) {
	var req SaveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abort(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	session, err := h.sessions.Save(c.Request.Context(), usecase.SaveSessionInput{
		ImagePath: req.ImagePath,
		Results:   mergeResults(req.Items, req.Results),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// mergeResults appends an empty result for every item that has none
func mergeResults(items []domain.Item, results []domain.ItemResult) []domain.ItemResult {
	merged := append([]domain.ItemResult(nil), results...)
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		seen[r.Item.Type+"\x00"+r.Item.Description] = true
	}
	for _, item := range items {
		if !seen[item.Type+"\x00"+item.Description] {
			merged = append(merged, domain.ItemResult{Item: item})
		}
	}
	return merged
}

// ListSessions returns saved sessions, newest first
func (h *Handler) ListSessions(c *gin.Context) {
	sessions, err := h.sessions.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if sessions == nil {
		sessions = []domain.SessionSummary{}
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GetSession returns one session with its items and products
func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidItem), errors.Is(err, domain.ErrInvalidRequest):
		h.abort(c, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		h.abort(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrVisionFailure):
		h.logger.Warn().Err(err).Msg("vision call failed")
		h.abort(c, http.StatusBadGateway, "vision_failed", "image analysis failed, try again")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.abort(c, http.StatusGatewayTimeout, "timeout", "request cancelled before completion")
	default:
		h.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		h.abort(c, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (h *Handler) abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: code, Message: message})
}
