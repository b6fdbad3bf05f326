package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/phambaophuc/image-cropper/internal/models"
)

// processJob uploads the encoded crop and returns the result to cache.
func (q *QueueService) processJob(ctx context.Context, job *models.CropJob) (*models.CropResult, error) {
	if len(job.Data) == 0 {
		return nil, fmt.Errorf("job %s has no image data", job.ID)
	}

	url, err := q.storage.SaveFile(ctx, job.Data, job.Filename, job.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to save cropped image: %w", err)
	}

	return &models.CropResult{
		SessionID:   job.SessionID,
		Status:      models.StatusCompleted,
		URL:         url,
		Format:      job.Format,
		Width:       job.Width,
		Height:      job.Height,
		FileSize:    int64(len(job.Data)),
		ProcessedAt: time.Now(),
	}, nil
}
