package models

import "time"

const (
	HealthHealthy       = "healthy"
	HealthUnhealthy     = "unhealthy"
	HealthNotConfigured = "not configured"
)

// HealthCheck reports dependency status alongside the live session count.
type HealthCheck struct {
	Status         string            `json:"status"`
	Timestamp      time.Time         `json:"timestamp"`
	ActiveSessions int               `json:"active_sessions"`
	Services       map[string]string `json:"services"`
}
