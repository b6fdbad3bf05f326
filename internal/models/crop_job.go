package models

import "time"

// CropJob carries an encoded crop to the upload worker.
type CropJob struct {
	ID          string      `json:"id"`
	SessionID   string      `json:"session_id"`
	Filename    string      `json:"filename"`
	ContentType string      `json:"content_type"`
	Format      string      `json:"format"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Data        []byte      `json:"data"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	Result      *CropResult `json:"result,omitempty"`
	Error       string      `json:"error,omitempty"`
}
