package models

import "time"

// Video is a single uploaded video and the metadata recorded at upload time.
type Video struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	// Path is the location of the file on disk, relative to the upload directory.
	Path      string    `json:"video"`
	UserID    string    `json:"userId"`
	SizeBytes int64     `json:"sizeBytes"`
	MimeType  string    `json:"mimeType"`
	CreatedAt time.Time `json:"createdAt"`
}
