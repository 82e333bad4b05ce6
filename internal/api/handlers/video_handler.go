package handlers

import (
	"errors"
	"net/http"

	"github.com/avelez/clipvault-be/internal/auth"
	"github.com/avelez/clipvault-be/internal/services"
	ws "github.com/avelez/clipvault-be/internal/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// multipartMemory is the in-memory threshold for multipart parsing; larger
// file parts are spooled to temp files by net/http.
const multipartMemory = 32 << 20

// fieldOverhead is slack on top of the file cap for the multipart framing and
// the title/description fields.
const fieldOverhead = 1 << 20

// VideoHandler handles video upload, listing, and streaming.
type VideoHandler struct {
	service  services.VideoServiceProvider
	events   services.EventServiceProvider
	hub      *ws.Hub
	maxBytes int64
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(service services.VideoServiceProvider, events services.EventServiceProvider, hub *ws.Hub, maxBytes int64) *VideoHandler {
	return &VideoHandler{service: service, events: events, hub: hub, maxBytes: maxBytes}
}

// videoSummary is the listing shape: id, title, and the stored file name.
type videoSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Path  string `json:"video"`
}

// Upload accepts a multipart video upload from an authenticated user.
func (h *VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		writeError(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	// Cap the whole request body so an oversized upload is cut off while it
	// streams in, not after it has landed on disk.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+fieldOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusBadRequest, "File exceeds the maximum upload size")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Video file, title and description are required")
		return
	}
	defer file.Close()

	video, err := h.service.Save(r.Context(), services.VideoUpload{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		UserID:      claims.UserID,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        file,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			writeError(w, http.StatusBadRequest, "Video file, title and description are required")
		case errors.Is(err, services.ErrUnsupportedMediaType):
			writeError(w, http.StatusBadRequest, "Unsupported media type")
		case errors.Is(err, services.ErrFileTooLarge):
			writeError(w, http.StatusBadRequest, "File exceeds the maximum upload size")
		default:
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to save upload")
			writeError(w, http.StatusInternalServerError, "Failed to save upload")
		}
		return
	}

	if err := h.events.CreateEvent(r.Context(), "video.upload", "info", "Video uploaded: "+video.Title, &video.ID); err != nil {
		log.Warn().Err(err).Str("video_id", video.ID).Msg("Failed to record upload event")
	}
	if msg := ws.NewEventMessage("video.uploaded", videoSummary{ID: video.ID, Title: video.Title, Path: video.Path}); msg != nil {
		h.hub.Broadcast <- msg
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Video uploaded successfully",
		"videoPath": video.Path,
	})
}

// GetAll lists every stored video.
func (h *VideoHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	videos, err := h.service.GetAll(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list videos")
		writeError(w, http.StatusInternalServerError, "Failed to list videos")
		return
	}

	summaries := make([]videoSummary, 0, len(videos))
	for _, v := range videos {
		summaries = append(summaries, videoSummary{ID: v.ID, Title: v.Title, Path: v.Path})
	}
	writeJSON(w, http.StatusOK, summaries)
}

// Stream serves a single video file by id.
func (h *VideoHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	f, video, err := h.service.Open(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Video not found")
			return
		}
		log.Error().Err(err).Str("video_id", id).Msg("Failed to open video")
		writeError(w, http.StatusInternalServerError, "Failed to open video")
		return
	}
	defer f.Close()

	if video.MimeType != "" {
		w.Header().Set("Content-Type", video.MimeType)
	}
	// ServeContent handles range requests, so seeking in the player works.
	http.ServeContent(w, r, video.Path, video.CreatedAt, f)
}
