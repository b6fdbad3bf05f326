package queue

import "fmt"

// Stats is a point-in-time view of the upload queue.
type Stats struct {
	Name      string `json:"name"`
	Messages  int    `json:"messages"`
	Consumers int    `json:"consumers"`
	Health    string `json:"health"`
}

func (q *QueueService) Stats() (*Stats, error) {
	info, err := q.channel.QueueInspect(q.queueName)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect queue %s: %w", q.queueName, err)
	}

	return &Stats{
		Name:      info.Name,
		Messages:  info.Messages,
		Consumers: info.Consumers,
		Health:    q.HealthCheck(),
	}, nil
}

// HealthCheck reports "healthy" or the reason RabbitMQ is unusable.
func (q *QueueService) HealthCheck() string {
	switch {
	case q.conn == nil || q.conn.IsClosed():
		return "unhealthy: connection closed"
	case q.channel == nil:
		return "unhealthy: channel not available"
	default:
		return "healthy"
	}
}
