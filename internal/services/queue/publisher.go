package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phambaophuc/image-cropper/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// PublishJob enqueues a crop for upload. The message is persistent so a
// broker restart does not lose saved crops.
func (q *QueueService) PublishJob(ctx context.Context, job *models.CropJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = q.channel.Publish(
		"",          // exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			MessageId:    job.ID,
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Headers: amqp.Table{
				"session_id": job.SessionID,
				"format":     job.Format,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish job %s: %w", job.ID, err)
	}

	q.logger.Info("Job published",
		zap.String("job_id", job.ID),
		zap.String("session_id", job.SessionID),
		zap.Int("bytes", len(job.Data)))
	return nil
}
