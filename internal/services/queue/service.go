package queue

import (
	"context"
	"fmt"

	"github.com/phambaophuc/image-cropper/internal/config"
	"github.com/phambaophuc/image-cropper/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const DefaultQueueName = "crop_uploads"

// Uploader is the storage the worker hands finished crops to.
type Uploader interface {
	SaveFile(ctx context.Context, data []byte, filename, contentType string) (string, error)
	SetResult(ctx context.Context, result *models.CropResult) error
}

// QueueService moves encoded crops to storage off the request path.
type QueueService struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	logger    *zap.Logger
	queueName string
	storage   Uploader
}

func NewQueueService(
	cfg config.RabbitMQConfig,
	storage Uploader,
	logger *zap.Logger,
) (*QueueService, error) {
	name := cfg.Queue
	if name == "" {
		name = DefaultQueueName
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// One unacked upload per worker.
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set prefetch: %w", err)
	}

	_, err = channel.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", name, err)
	}

	return &QueueService{
		conn:      conn,
		channel:   channel,
		logger:    logger.With(zap.String("queue", name)),
		queueName: name,
		storage:   storage,
	}, nil
}

// Close closes the channel, then the connection.
func (q *QueueService) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
