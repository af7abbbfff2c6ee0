package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"luna_companion/internal/pipeline"
	"luna_companion/src/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ChatService answers user turns
type ChatService interface {
	ProcessMessage(ctx context.Context, req pipeline.Request) (pipeline.Reply, error)
}

// ImageService ingests uploaded images
type ImageService interface {
	IngestImage(ctx context.Context, req pipeline.ImageRequest) (pipeline.IngestResult, error)
}

// Pinger is implemented by stores that can report their health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the companion HTTP endpoints
type Handler struct {
	chat           ChatService
	images         ImageService
	uploads        *UploadStore
	health         Pinger
	maxUploadBytes int64
	requestTimeout time.Duration
	log            zerolog.Logger
}

// HandlerConfig wires a Handler. Health is optional.
type HandlerConfig struct {
	Chat           ChatService
	Images         ImageService
	Uploads        *UploadStore
	Health         Pinger
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// NewHandler creates the HTTP handler set
func NewHandler(config HandlerConfig) *Handler {
	return &Handler{
		chat:           config.Chat,
		images:         config.Images,
		uploads:        config.Uploads,
		health:         config.Health,
		maxUploadBytes: config.MaxUploadBytes,
		requestTimeout: config.RequestTimeout,
		log:            logger.Component("api"),
	}
}

// errInternal is the only detail a 5xx response carries
const errInternal = "internal server error"

type chatRequest struct {
	UserID        string         `json:"user_id"`
	Message       string         `json:"message"`
	ImageAnalysis map[string]any `json:"imageAnalysis"`
}

func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.requestTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.requestTimeout)
}

// Chat handles POST /api/chat
func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	reply, err := h.chat.ProcessMessage(ctx, pipeline.Request{
		UserID:        req.UserID,
		Message:       req.Message,
		ImageAnalysis: req.ImageAnalysis,
	})
	if err != nil {
		h.fail(c, err, "chat request failed")
		return
	}

	c.JSON(http.StatusOK, reply)
}

// AnalyzeImage handles POST /api/analyze-image with a multipart file and user_id
func (h *Handler) AnalyzeImage(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	userID := c.Request.FormValue("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read upload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is empty"})
		return
	}

	mimeType, ext, ok := DetectImage(data)
	if !ok {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported image type: " + mimeType})
		return
	}

	storedURL, err := h.uploads.Save(data, ext)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to save upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save file"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.images.IngestImage(ctx, pipeline.ImageRequest{
		UserID:    userID,
		Image:     data,
		MimeType:  mimeType,
		StoredURL: storedURL,
	})
	if err != nil {
		h.fail(c, err, "image request failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Health handles GET /api/health
func (h *Handler) Health(c *gin.Context) {
	if h.health != nil {
		if err := h.health.Ping(c.Request.Context()); err != nil {
			h.log.Warn().Err(err).Msg("store health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Root handles GET /
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Luna companion is running"})
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	if errors.Is(err, pipeline.ErrInvalidRequest) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.log.Error().Err(err).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
}
