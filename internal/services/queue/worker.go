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

// StartWorker consumes upload jobs on its own goroutine until ctx is done.
func (q *QueueService) StartWorker(ctx context.Context, workerID int) error {
	msgs, err := q.channel.Consume(
		q.queueName,                        // queue
		fmt.Sprintf("worker-%d", workerID), // consumer
		false,                              // auto-ack
		false,                              // exclusive
		false,                              // no-local
		false,                              // no-wait
		nil,                                // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	logger := q.logger.With(zap.Int("worker_id", workerID))
	logger.Info("Worker started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Worker stopping")
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Warn("Message channel closed")
					return
				}
				q.processMessage(ctx, msg, logger)
			}
		}
	}()

	return nil
}

// processMessage gives every job two attempts: a failed first delivery is
// requeued, a failed redelivery is recorded as failed and dropped.
func (q *QueueService) processMessage(ctx context.Context, msg amqp.Delivery, logger *zap.Logger) {
	var job models.CropJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		logger.Error("Failed to unmarshal job", zap.Error(err))
		msg.Nack(false, false)
		return
	}

	logger = logger.With(zap.String("job_id", job.ID), zap.String("session_id", job.SessionID))
	logger.Info("Processing job", zap.Bool("redelivered", msg.Redelivered))

	if err := q.handleJob(ctx, &job, msg.Redelivered); err != nil && !msg.Redelivered {
		logger.Warn("Upload failed, requeueing", zap.Error(err))
		if err := msg.Nack(false, true); err != nil {
			logger.Error("Failed to requeue message", zap.Error(err))
		}
		return
	}

	if err := msg.Ack(false); err != nil {
		logger.Error("Failed to ack message", zap.Error(err))
	}
}

// handleJob uploads the crop and records the outcome. A failure is only
// recorded when final is set; otherwise the job is left pending for retry.
func (q *QueueService) handleJob(ctx context.Context, job *models.CropJob, final bool) error {
	job.Status = models.StatusProcessing

	result, err := q.processJob(ctx, job)
	if err != nil {
		if !final {
			return err
		}
		job.Status = models.StatusFailed
		job.Error = err.Error()
		result = &models.CropResult{
			SessionID:   job.SessionID,
			Status:      models.StatusFailed,
			Error:       err.Error(),
			ProcessedAt: time.Now(),
		}
		q.logger.Error("Job failed", zap.String("job_id", job.ID), zap.Error(err))
	} else {
		job.Status = models.StatusCompleted
		q.logger.Info("Job completed", zap.String("job_id", job.ID), zap.String("url", result.URL))
	}
	job.Result = result

	q.storeJobResult(ctx, job)
	return err
}

func (q *QueueService) storeJobResult(ctx context.Context, job *models.CropJob) {
	if err := q.storage.SetResult(ctx, job.Result); err != nil {
		q.logger.Warn("Failed to store job result",
			zap.String("job_id", job.ID),
			zap.Error(err))
	}
}
