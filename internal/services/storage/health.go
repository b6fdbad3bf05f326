package storage

import (
	"context"

	"github.com/phambaophuc/image-cropper/internal/models"
	storage_go "github.com/supabase-community/storage-go"
)

// HealthCheck reports the redis result cache and the supabase bucket.
func (s *StorageService) HealthCheck(ctx context.Context) map[string]string {
	return map[string]string{
		"redis":    s.redisHealth(ctx),
		"supabase": s.bucketHealth(),
	}
}

func (s *StorageService) redisHealth(ctx context.Context) string {
	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		return models.HealthUnhealthy + ": " + err.Error()
	}
	return models.HealthHealthy
}

// bucketHealth lists at most one object; an unset bucket means uploads are
// disabled, not broken.
func (s *StorageService) bucketHealth() string {
	if !s.Configured() {
		return models.HealthNotConfigured
	}
	if _, err := s.sbClient.ListFiles(s.bucket, s.uploadPath, storage_go.FileSearchOptions{Limit: 1}); err != nil {
		return models.HealthUnhealthy + ": " + err.Error()
	}
	return models.HealthHealthy
}
