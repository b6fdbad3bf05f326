package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/phambaophuc/image-cropper/internal/models"
	"go.uber.org/zap"
)

type fakeUploader struct {
	saveErr error
	saved   map[string][]byte
	results []*models.CropResult
}

func (f *fakeUploader) SaveFile(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	f.saved[filename] = data
	return "https://cdn.example.com/" + filename, nil
}

func (f *fakeUploader) SetResult(ctx context.Context, result *models.CropResult) error {
	f.results = append(f.results, result)
	return nil
}

func newTestQueue(storage Uploader) *QueueService {
	return &QueueService{
		logger:    zap.NewNop(),
		queueName: DefaultQueueName,
		storage:   storage,
	}
}

func TestHandleJob(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		saveErr    error
		wantStatus string
		wantURL    string
		wantErr    bool
	}{
		{
			name:       "uploaded",
			data:       []byte("jpeg bytes"),
			wantStatus: models.StatusCompleted,
			wantURL:    "https://cdn.example.com/crop_s1.jpeg",
		},
		{
			name:       "storage failure",
			data:       []byte("jpeg bytes"),
			saveErr:    errors.New("bucket unavailable"),
			wantStatus: models.StatusFailed,
			wantErr:    true,
		},
		{
			name:       "empty payload",
			wantStatus: models.StatusFailed,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := &fakeUploader{saveErr: tt.saveErr}
			q := newTestQueue(storage)

			job := &models.CropJob{
				ID:          "job-1",
				SessionID:   "s1",
				Filename:    "crop_s1.jpeg",
				ContentType: "image/jpeg",
				Format:      "jpeg",
				Width:       800,
				Height:      800,
				Data:        tt.data,
				Status:      models.StatusPending,
			}
			if err := q.handleJob(context.Background(), job, true); (err != nil) != tt.wantErr {
				t.Fatalf("handleJob() error = %v, wantErr %v", err, tt.wantErr)
			}

			if job.Status != tt.wantStatus {
				t.Errorf("job status = %s, want %s", job.Status, tt.wantStatus)
			}
			if len(storage.results) != 1 {
				t.Fatalf("stored %d results, want 1", len(storage.results))
			}

			result := storage.results[0]
			if result.SessionID != "s1" || result.Status != tt.wantStatus || result.URL != tt.wantURL {
				t.Errorf("result = %+v", result)
			}
			if tt.wantStatus == models.StatusFailed && result.Error == "" {
				t.Error("failed result has no error message")
			}
			if tt.wantStatus == models.StatusCompleted && result.FileSize != int64(len(tt.data)) {
				t.Errorf("FileSize = %d, want %d", result.FileSize, len(tt.data))
			}
		})
	}
}

func TestHandleJobFirstFailureIsNotRecorded(t *testing.T) {
	storage := &fakeUploader{saveErr: errors.New("timeout")}
	q := newTestQueue(storage)

	job := &models.CropJob{ID: "job-2", SessionID: "s2", Filename: "crop_s2.jpeg", Data: []byte("x")}
	if err := q.handleJob(context.Background(), job, false); err == nil {
		t.Fatal("handleJob() returned no error")
	}
	if len(storage.results) != 0 {
		t.Errorf("stored %d results before the final attempt", len(storage.results))
	}
	if job.Status == models.StatusFailed {
		t.Error("job marked failed before the final attempt")
	}
}

func TestHealthCheckWithoutConnection(t *testing.T) {
	q := newTestQueue(&fakeUploader{})
	if got := q.HealthCheck(); got == "healthy" {
		t.Errorf("HealthCheck() = %q without a connection", got)
	}
}
