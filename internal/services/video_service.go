package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/avelez/clipvault-be/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// allowedVideoTypes is the allow-list of declared media types accepted for upload.
var allowedVideoTypes = map[string]bool{
	"video/mp4":        true,
	"video/webm":       true,
	"video/ogg":        true,
	"video/quicktime":  true,
	"video/x-matroska": true,
	"video/x-msvideo":  true,
}

// VideoUpload carries one incoming file and its metadata through the upload gate.
type VideoUpload struct {
	Title       string
	Description string
	UserID      string
	FileName    string // original client-side name, used only for its extension
	ContentType string
	Data        io.Reader
}

// VideoServiceProvider defines the interface for video services.
type VideoServiceProvider interface {
	Save(ctx context.Context, up VideoUpload) (models.Video, error)
	GetAll(ctx context.Context) ([]models.Video, error)
	Get(ctx context.Context, id string) (models.Video, error)
	Open(ctx context.Context, id string) (*os.File, models.Video, error)
	StoredPaths(ctx context.Context) (map[string]bool, error)
	StorageTotals(ctx context.Context) (count int64, bytes int64, err error)
}

// VideoService persists uploaded files to disk and records them in the database.
type VideoService struct {
	db        *sql.DB
	uploadDir string
	maxBytes  int64
}

// NewVideoService creates a new VideoService storing files under uploadDir.
func NewVideoService(db *sql.DB, uploadDir string, maxBytes int64) *VideoService {
	return &VideoService{db: db, uploadDir: uploadDir, maxBytes: maxBytes}
}

// Save validates an upload and, if accepted, streams it to disk and records it.
// The declared media type is checked before anything touches the disk, and the
// size cap is enforced while the stream is copied so an oversized body never
// finishes writing.
func (s *VideoService) Save(ctx context.Context, up VideoUpload) (models.Video, error) {
	up.Title = strings.TrimSpace(up.Title)
	up.Description = strings.TrimSpace(up.Description)
	if up.Title == "" || up.Description == "" || up.Data == nil || up.UserID == "" {
		return models.Video{}, ErrValidation
	}
	if !allowedVideoTypes[up.ContentType] {
		return models.Video{}, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, up.ContentType)
	}

	tmp, err := os.CreateTemp(s.uploadDir, ".part-*")
	if err != nil {
		return models.Video{}, fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name()) // no-op after a successful rename
	}()

	// Copy at most maxBytes+1 so an over-limit stream is detected without
	// reading the remainder of the body.
	written, err := io.Copy(tmp, io.LimitReader(up.Data, s.maxBytes+1))
	if err != nil {
		return models.Video{}, fmt.Errorf("writing upload: %w", err)
	}
	if written > s.maxBytes {
		return models.Video{}, ErrFileTooLarge
	}
	if err := tmp.Close(); err != nil {
		return models.Video{}, fmt.Errorf("closing upload: %w", err)
	}

	video := models.Video{
		ID:          uuid.New().String(),
		Title:       up.Title,
		Description: up.Description,
		UserID:      up.UserID,
		SizeBytes:   written,
		MimeType:    up.ContentType,
	}
	video.Path = video.ID + strings.ToLower(filepath.Ext(up.FileName))

	finalPath := filepath.Join(s.uploadDir, video.Path)
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		return models.Video{}, fmt.Errorf("finalizing upload: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO videos(id, title, description, path, user_id, size_bytes, mime_type) VALUES(?, ?, ?, ?, ?, ?, ?)",
		video.ID, video.Title, video.Description, video.Path, video.UserID, video.SizeBytes, video.MimeType)
	if err != nil {
		if rmErr := os.Remove(finalPath); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", finalPath).Msg("Failed to remove file after insert failure")
		}
		return models.Video{}, err
	}

	return video, nil
}

// GetAll retrieves every video record, newest first.
func (s *VideoService) GetAll(ctx context.Context) ([]models.Video, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, description, path, user_id, size_bytes, mime_type, created_at FROM videos ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.Title, &v.Description, &v.Path, &v.UserID, &v.SizeBytes, &v.MimeType, &v.CreatedAt); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// Get retrieves a single video record by its ID.
func (s *VideoService) Get(ctx context.Context, id string) (models.Video, error) {
	var v models.Video
	row := s.db.QueryRowContext(ctx,
		"SELECT id, title, description, path, user_id, size_bytes, mime_type, created_at FROM videos WHERE id = ?", id)
	err := row.Scan(&v.ID, &v.Title, &v.Description, &v.Path, &v.UserID, &v.SizeBytes, &v.MimeType, &v.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, err
	}
	return v, nil
}

// Open looks up a video and opens its file for streaming. The caller owns the
// returned file handle.
func (s *VideoService) Open(ctx context.Context, id string) (*os.File, models.Video, error) {
	video, err := s.Get(ctx, id)
	if err != nil {
		return nil, models.Video{}, err
	}
	f, err := os.Open(filepath.Join(s.uploadDir, video.Path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.Video{}, ErrNotFound
		}
		return nil, models.Video{}, err
	}
	return f, video, nil
}

// StoredPaths returns the set of file names the database knows about, for the
// orphaned-file sweep.
func (s *VideoService) StoredPaths(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path FROM videos")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := make(map[string]bool)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths[p] = true
	}
	return paths, rows.Err()
}

// StorageTotals reports the number of videos and their combined size on disk.
func (s *VideoService) StorageTotals(ctx context.Context) (int64, int64, error) {
	var count, bytes int64
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(1), COALESCE(SUM(size_bytes), 0) FROM videos")
	if err := row.Scan(&count, &bytes); err != nil {
		return 0, 0, err
	}
	return count, bytes, nil
}
