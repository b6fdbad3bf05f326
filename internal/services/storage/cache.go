package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phambaophuc/image-cropper/internal/models"
	"github.com/redis/go-redis/v9"
)

const CacheKeyPrefix = "crop_result:"

func (s *StorageService) GetFromCache(ctx context.Context, cacheKey string) ([]byte, error) {
	data, err := s.redisClient.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}
	return data, nil
}

func (s *StorageService) SetCache(ctx context.Context, cacheKey string, data []byte) error {
	return s.redisClient.Set(ctx, cacheKey, data, s.cacheDuration).Err()
}

func (s *StorageService) GenerateCacheKey(sessionID string) string {
	return CacheKeyPrefix + sessionID
}

// SetResult stores the result of a save, keyed by session.
func (s *StorageService) SetResult(ctx context.Context, result *models.CropResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return s.SetCache(ctx, s.GenerateCacheKey(result.SessionID), data)
}

// GetResult returns nil, nil on a cache miss.
func (s *StorageService) GetResult(ctx context.Context, sessionID string) (*models.CropResult, error) {
	data, err := s.GetFromCache(ctx, s.GenerateCacheKey(sessionID))
	if err != nil || data == nil {
		return nil, err
	}

	var result models.CropResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached result: %w", err)
	}
	return &result, nil
}

func (s *StorageService) GetCacheStats(ctx context.Context) (map[string]interface{}, error) {
	pipeline := s.redisClient.Pipeline()

	infoCmd := pipeline.Info(ctx, "memory")
	dbSizeCmd := pipeline.DBSize(ctx)

	_, err := pipeline.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline error: %w", err)
	}

	stats := map[string]interface{}{
		"db_keys": dbSizeCmd.Val(),
		"info":    infoCmd.Val(),
	}

	return stats, nil
}
