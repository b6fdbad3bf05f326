package storage

import (
	"errors"
	"time"

	"github.com/phambaophuc/image-cropper/internal/config"
	"github.com/redis/go-redis/v9"
	storage_go "github.com/supabase-community/storage-go"
)

// ErrNotConfigured is returned by uploads and downloads when no supabase
// bucket is set. The redis result cache still works.
var ErrNotConfigured = errors.New("object storage is not configured")

// StorageService keeps saved crops in a supabase bucket and their results in
// redis.
type StorageService struct {
	sbClient      *storage_go.Client
	redisClient   *redis.Client
	bucket        string
	uploadPath    string
	cacheDuration time.Duration
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	s := &StorageService{
		redisClient: redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}),
		bucket:        cfg.Supabase.BUCKET,
		uploadPath:    cfg.Storage.UploadPath,
		cacheDuration: cfg.Storage.CacheDuration,
	}

	if cfg.Supabase.URL != "" && s.bucket != "" {
		s.sbClient = storage_go.NewClient(cfg.Supabase.URL+"/storage/v1", cfg.Supabase.KEY, nil)
	} else {
		s.bucket = ""
	}

	return s, nil
}

// Configured reports whether uploads go anywhere.
func (s *StorageService) Configured() bool {
	return s.sbClient != nil
}

// Close releases the redis connection pool.
func (s *StorageService) Close() error {
	return s.redisClient.Close()
}
