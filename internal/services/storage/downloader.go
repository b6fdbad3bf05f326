package storage

import (
	"context"
	"fmt"
)

// Download fetches a stored source image, e.g. a previously uploaded avatar
// the user wants to re-crop.
func (s *StorageService) Download(ctx context.Context, path string) ([]byte, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.sbClient.DownloadFile(s.bucket, path)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s from supabase: %w", path, err)
	}
	return data, nil
}
