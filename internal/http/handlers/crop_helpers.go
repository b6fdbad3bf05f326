package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phambaophuc/image-cropper/internal/models"
	"github.com/phambaophuc/image-cropper/internal/services/processor"
	"github.com/phambaophuc/image-cropper/internal/services/session"
	"github.com/phambaophuc/image-cropper/internal/services/storage"
	"github.com/phambaophuc/image-cropper/pkg/utils"
	"go.uber.org/zap"
)

// === REQUEST PARSING ===

// parseAspectRatio returns 0 for an empty value, meaning the configured ratio.
func (h *CropHandler) parseAspectRatio(value string) (float64, error) {
	if value == "" {
		return 0, nil
	}

	ratio, err := strconv.ParseFloat(value, 64)
	if err != nil || !(ratio >= processor.MinAspectRatio && ratio <= processor.MaxAspectRatio) {
		return 0, fmt.Errorf("invalid %s: must be a number in [%v,%v]",
			aspectParamKey, processor.MinAspectRatio, processor.MaxAspectRatio)
	}
	return ratio, nil
}

func (h *CropHandler) parseEvents(in []models.GestureEvent) ([]processor.Event, error) {
	events := make([]processor.Event, 0, len(in))
	for i, e := range in {
		ev, err := e.ToEvent()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// openSource finds the image to crop: an uploaded file, a URL or a path in
// storage, in that order.
func (h *CropHandler) openSource(c *gin.Context) (io.ReadCloser, error) {
	maxSize := h.config.Storage.MaxFileSize

	if file, header, err := c.Request.FormFile(imageParamKey); err == nil {
		if header.Size > maxSize {
			file.Close()
			return nil, fmt.Errorf("file size %d exceeds maximum allowed size %d", header.Size, maxSize)
		}
		return file, nil
	}

	if imageURL := c.PostForm(sourceURLParamKey); imageURL != "" {
		data, _, err := h.downloader.Download(c.Request.Context(), imageURL, maxSize)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	if path := c.PostForm(sourcePathParamKey); path != "" {
		if h.storage == nil {
			return nil, fmt.Errorf("storage is not configured")
		}
		data, err := h.storage.Download(c.Request.Context(), path)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	return nil, fmt.Errorf("no image provided")
}

func (h *CropHandler) lookup(c *gin.Context) (*session.Session, bool) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.respondSessionError(c, err)
		return nil, false
	}
	return sess, true
}

func (h *CropHandler) callbacks() session.Callbacks {
	return session.Callbacks{
		OnSave: func(out *processor.Output) {
			h.logger.Debug("Session handed off output", zap.Int("bytes", len(out.Data)))
		},
		OnCancel: func() {
			h.logger.Debug("Session discarded")
		},
	}
}

// === RESPONSE HANDLING ===

func (h *CropHandler) respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

func (h *CropHandler) respondSessionError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("session_id", c.Param("id")), zap.Error(err))
	}
	h.respondError(c, status, messageFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrClosed), errors.Is(err, session.ErrStale):
		return http.StatusGone
	case errors.Is(err, session.ErrNotReady), errors.Is(err, processor.ErrDegenerateTransform):
		return http.StatusConflict
	case errors.Is(err, session.ErrTooManySessions):
		return http.StatusTooManyRequests
	case errors.Is(err, processor.ErrInvalidGeometry):
		return http.StatusBadRequest
	case errors.Is(err, processor.ErrDecode):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		if errors.Is(err, processor.ErrEncode) {
			return "Failed to encode image"
		}
		return "Failed to process image"
	}
	return err.Error()
}

func (h *CropHandler) respondWithImage(c *gin.Context, sessionID string, out *processor.Output) {
	filename := utils.GenerateFilename(sessionID, out.Format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, out.ContentType, out.Data)
}

func (h *CropHandler) uploadAndRespond(c *gin.Context, sessionID string, out *processor.Output) {
	ctx := c.Request.Context()
	filename := utils.GenerateFilename(sessionID, out.Format)

	url, err := h.storage.Upload(ctx, bytes.NewBuffer(out.Data), filename, out.ContentType)
	if errors.Is(err, storage.ErrNotConfigured) {
		h.respondWithImage(c, sessionID, out)
		return
	}
	if err != nil {
		h.logger.Error("Failed to upload crop", zap.String("session_id", sessionID), zap.Error(err))
		h.storeResult(c, &models.CropResult{
			SessionID:   sessionID,
			Status:      models.StatusFailed,
			Error:       err.Error(),
			ProcessedAt: time.Now(),
		})
		h.respondError(c, http.StatusBadGateway, "Failed to upload cropped image")
		return
	}

	result := resultFor(sessionID, out)
	result.Status = models.StatusCompleted
	result.URL = url
	h.storeResult(c, result)

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    result,
	})
}

// enqueueUpload hands the crop to the upload worker. It reports false when
// publishing failed and the caller should upload inline instead.
func (h *CropHandler) enqueueUpload(c *gin.Context, sessionID string, out *processor.Output) bool {
	job := &models.CropJob{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		Filename:    utils.GenerateFilename(sessionID, out.Format),
		ContentType: out.ContentType,
		Format:      out.Format,
		Width:       out.Width,
		Height:      out.Height,
		Data:        out.Data,
		Status:      models.StatusPending,
		CreatedAt:   time.Now(),
	}

	pending := resultFor(sessionID, out)
	pending.Status = models.StatusPending
	h.storeResult(c, pending)

	if err := h.queue.PublishJob(c.Request.Context(), job); err != nil {
		h.logger.Warn("Failed to enqueue upload, uploading inline",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return false
	}

	c.JSON(http.StatusAccepted, models.APIResponse{
		Success: true,
		Data:    pending,
	})
	return true
}

func (h *CropHandler) storeResult(c *gin.Context, result *models.CropResult) {
	if err := h.storage.SetResult(c.Request.Context(), result); err != nil {
		h.logger.Warn("Failed to cache result", zap.String("session_id", result.SessionID), zap.Error(err))
	}
}

// === UTILITY METHODS ===

func resultFor(sessionID string, out *processor.Output) *models.CropResult {
	return &models.CropResult{
		SessionID:   sessionID,
		Format:      out.Format,
		Width:       out.Width,
		Height:      out.Height,
		FileSize:    int64(len(out.Data)),
		ProcessedAt: time.Now(),
	}
}

func encodePNG(img image.Image) ([]byte, error) {
	buffer := &bytes.Buffer{}
	if err := imaging.Encode(buffer, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func (h *CropHandler) calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != models.HealthHealthy && status != models.HealthNotConfigured {
			return models.HealthUnhealthy
		}
	}
	return models.HealthHealthy
}
