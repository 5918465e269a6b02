package models

import "time"

// UploadedFile represents a file stored by the backend, associated with at
// most one conversation.
type UploadedFile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	Type         string    `json:"type"`
	UploadDate   time.Time `json:"upload_date"`
	DownloadURL  *string   `json:"download_url,omitempty"`
}
