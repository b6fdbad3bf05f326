package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/phambaophuc/image-cropper/pkg/utils"
	storage_go "github.com/supabase-community/storage-go"
)

// cropCacheControl is the CDN max-age of a saved crop. Keys are unique per
// save so objects never change.
const cropCacheControl = "31536000"

// SaveFile is Upload for callers that hold the encoded bytes directly, such as
// the upload worker.
func (s *StorageService) SaveFile(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	return s.Upload(ctx, bytes.NewBuffer(data), filename, contentType)
}

// Upload stores an encoded crop under a fresh key and returns its public URL.
func (s *StorageService) Upload(ctx context.Context, buffer *bytes.Buffer, filename, contentType string) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := utils.GenerateStorageKey(s.uploadPath, filename)
	upsert := false
	cacheControl := cropCacheControl

	_, err := s.sbClient.UploadFile(s.bucket, key, bytes.NewReader(buffer.Bytes()), storage_go.FileOptions{
		ContentType:  &contentType,
		CacheControl: &cacheControl,
		Upsert:       &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to supabase: %w", key, err)
	}

	return s.sbClient.GetPublicUrl(s.bucket, key).SignedURL, nil
}
