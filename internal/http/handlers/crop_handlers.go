package handlers

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-cropper/internal/config"
	"github.com/phambaophuc/image-cropper/internal/models"
	"github.com/phambaophuc/image-cropper/internal/services/processor"
	"github.com/phambaophuc/image-cropper/internal/services/queue"
	"github.com/phambaophuc/image-cropper/internal/services/session"
	"github.com/phambaophuc/image-cropper/pkg/utils"
	"go.uber.org/zap"
)

const (
	imageParamKey      = "image"
	sourceURLParamKey  = "source_url"
	sourcePathParamKey = "source_path"
	aspectParamKey     = "aspect_ratio"
)

// Storage is the object store and result cache behind the API.
type Storage interface {
	Upload(ctx context.Context, buffer *bytes.Buffer, filename, contentType string) (string, error)
	Download(ctx context.Context, path string) ([]byte, error)
	SetResult(ctx context.Context, result *models.CropResult) error
	GetResult(ctx context.Context, sessionID string) (*models.CropResult, error)
	HealthCheck(ctx context.Context) map[string]string
	GetCacheStats(ctx context.Context) (map[string]interface{}, error)
}

// JobQueue accepts crops for asynchronous upload.
type JobQueue interface {
	PublishJob(ctx context.Context, job *models.CropJob) error
	HealthCheck() string
	Stats() (*queue.Stats, error)
}

type CropHandler struct {
	sessions   *session.Registry
	storage    Storage
	queue      JobQueue
	downloader *utils.Downloader
	logger     *zap.Logger
	config     *config.Config
}

// NewCropHandler wires the API. storage and queue may be nil; saves then
// return the encoded bytes directly and async mode is unavailable.
func NewCropHandler(
	sessions *session.Registry,
	storage Storage,
	queue JobQueue,
	logger *zap.Logger,
	config *config.Config,
) *CropHandler {
	return &CropHandler{
		sessions:   sessions,
		storage:    storage,
		queue:      queue,
		downloader: utils.NewDownloader(config.Storage.AllowPrivateURLs),
		logger:     logger,
		config:     config,
	}
}

// === SESSION LIFECYCLE ===

func (h *CropHandler) CreateSession(c *gin.Context) {
	aspectRatio, err := h.parseAspectRatio(c.PostForm(aspectParamKey))
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	source, err := h.openSource(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	defer source.Close()

	sess, err := h.sessions.Create(aspectRatio, h.callbacks())
	if err != nil {
		h.respondSessionError(c, err)
		return
	}

	if err := sess.Load(c.Request.Context(), source); err != nil {
		// The session stays open so the client can retry with another file.
		h.logger.Warn("Initial load failed", zap.String("session_id", sess.ID()), zap.Error(err))
		c.JSON(statusFor(err), models.APIResponse{
			Success: false,
			Data:    sess.State(),
			Error:   messageFor(err),
		})
		return
	}

	c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Data:    sess.State(),
	})
}

func (h *CropHandler) GetSession(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    sess.State(),
	})
}

// ReplaceImage loads a new source into an existing session.
func (h *CropHandler) ReplaceImage(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	source, err := h.openSource(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	defer source.Close()

	if err := sess.Load(c.Request.Context(), source); err != nil {
		h.respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    sess.State(),
	})
}

func (h *CropHandler) CancelSession(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	sess.Cancel()
	c.Status(http.StatusNoContent)
}

// === INTERACTION ===

func (h *CropHandler) ApplyEvents(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	var req models.GestureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid gesture request: "+err.Error())
		return
	}

	events, err := h.parseEvents(req.Events)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var state session.State
	for _, ev := range events {
		state, err = sess.Dispatch(ev)
		if err != nil {
			h.respondSessionError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    state,
	})
}

func (h *CropHandler) ResetSession(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	state, err := sess.Dispatch(processor.Reset{})
	if err != nil {
		h.respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    state,
	})
}

func (h *CropHandler) Preview(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	img, err := sess.Preview()
	if err != nil {
		h.respondSessionError(c, err)
		return
	}

	data, err := encodePNG(img)
	if err != nil {
		h.logger.Error("Failed to encode preview", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to render preview")
		return
	}

	c.Data(http.StatusOK, "image/png", data)
}

// === SAVE ===

func (h *CropHandler) SaveSession(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	out, err := sess.Save(c.Request.Context())
	if err != nil {
		h.respondSessionError(c, err)
		return
	}

	if c.Query("download") == "true" || h.storage == nil {
		h.respondWithImage(c, sess.ID(), out)
		return
	}

	if c.Query("async") == "true" && h.queue != nil {
		if h.enqueueUpload(c, sess.ID(), out) {
			return
		}
	}

	h.uploadAndRespond(c, sess.ID(), out)
}

func (h *CropHandler) GetResult(c *gin.Context) {
	if h.storage == nil {
		h.respondError(c, http.StatusNotFound, "Result not found")
		return
	}

	result, err := h.storage.GetResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to read result", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to read result")
		return
	}
	if result == nil {
		h.respondError(c, http.StatusNotFound, "Result not found")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    result,
	})
}

// === OPERATIONS ===

func (h *CropHandler) HealthCheck(c *gin.Context) {
	services := map[string]string{}
	if h.storage != nil {
		services = h.storage.HealthCheck(c.Request.Context())
	}
	if h.queue != nil {
		services["rabbitmq"] = h.queue.HealthCheck()
	} else {
		services["rabbitmq"] = models.HealthNotConfigured
	}

	overall := h.calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == models.HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == models.HealthHealthy,
		Data: models.HealthCheck{
			Status:         overall,
			Timestamp:      time.Now(),
			ActiveSessions: h.sessions.Len(),
			Services:       services,
		},
	})
}

func (h *CropHandler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"sessions":  h.sessions.Len(),
		"timestamp": time.Now(),
	}

	if h.storage != nil {
		cacheStats, err := h.storage.GetCacheStats(c.Request.Context())
		if err != nil {
			h.logger.Warn("Failed to get cache stats", zap.Error(err))
		} else {
			stats["cache"] = cacheStats
		}
	}

	if h.queue != nil {
		queueStats, err := h.queue.Stats()
		if err != nil {
			h.logger.Warn("Failed to get queue stats", zap.Error(err))
		} else {
			stats["queue"] = queueStats
		}
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    stats,
	})
}
