package dto

import "time"

// UploadResponse is returned after a successful upload
type UploadResponse struct {
	URL string `json:"url"`
}

// FileResponse describes one stored file
type FileResponse struct {
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	URL        string    `json:"url"`
	ModifiedAt time.Time `json:"modifiedAt"`
}
