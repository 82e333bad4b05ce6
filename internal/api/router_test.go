package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/avelez/clipvault-be/internal/auth"
	"github.com/avelez/clipvault-be/internal/config"
	"github.com/avelez/clipvault-be/internal/database"
	"github.com/avelez/clipvault-be/internal/monitoring"
	"github.com/avelez/clipvault-be/internal/services"
	ws "github.com/avelez/clipvault-be/internal/websocket"
	"github.com/go-chi/chi/v5"
)

// newTestRouter wires a full stack against a throwaway database and upload dir.
func newTestRouter(t *testing.T, publicReads bool) *chi.Mux {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	uploadDir := t.TempDir()
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		TokenTTL:         time.Hour,
		MaxUploadBytes:   1 << 20,
		PublicVideoReads: publicReads,
		CORSOrigins:      []string{"*"},
	}

	hub := ws.NewHub()
	go hub.Run()

	userService := services.NewUserService(db)
	videoService := services.NewVideoService(db, uploadDir, cfg.MaxUploadBytes)
	eventService := services.NewEventService(db)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	stats := monitoring.NewStatUpdater(videoService, eventService, uploadDir)

	return NewRouter(cfg, tokens, hub, userService, videoService, eventService, stats)
}

func do(t *testing.T, router http.Handler, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func postJSON(t *testing.T, router http.Handler, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return do(t, router, http.MethodPost, path, token, bytes.NewReader(b), "application/json")
}

// TestAccountLifecycle walks the full register/login/dashboard flow.
func TestAccountLifecycle(t *testing.T) {
	router := newTestRouter(t, true)

	rec := postJSON(t, router, "/register", "", map[string]string{
		"name": "A", "email": "a@x.com", "password": "pw123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("register: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = postJSON(t, router, "/register", "", map[string]string{
		"name": "A", "email": "a@x.com", "password": "pw123",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register: expected 400, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("Email already exists")) {
		t.Fatalf("duplicate register: unexpected body %s", rec.Body.String())
	}

	rec = postJSON(t, router, "/login", "", map[string]string{
		"email": "a@x.com", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", rec.Code)
	}

	rec = postJSON(t, router, "/login", "", map[string]string{
		"email": "a@x.com", "password": "pw123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil || login.Token == "" {
		t.Fatalf("login: expected a token, got %s", rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/dashboard", login.Token, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("a@x.com")) {
		t.Fatalf("dashboard: expected the user, got %s", rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/dashboard", "", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("dashboard without token: expected 401, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/dashboard", "not-a-token", nil, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("dashboard with bad token: expected 403, got %d", rec.Code)
	}
}

func uploadBody(t *testing.T, title, description, content string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if err := mw.WriteField("title", title); err != nil {
		t.Fatal(err)
	}
	if err := mw.WriteField("description", description); err != nil {
		t.Fatal(err)
	}
	h := map[string][]string{
		"Content-Disposition": {`form-data; name="video"; filename="clip.mp4"`},
		"Content-Type":        {"video/mp4"},
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(part, content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf, mw.FormDataContentType()
}

// TestUploadAndStream covers the authenticated upload and the public reads.
func TestUploadAndStream(t *testing.T) {
	router := newTestRouter(t, true)

	postJSON(t, router, "/register", "", map[string]string{
		"name": "A", "email": "a@x.com", "password": "pw123",
	})
	rec := postJSON(t, router, "/login", "", map[string]string{
		"email": "a@x.com", "password": "pw123",
	})
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil || login.Token == "" {
		t.Fatalf("login: expected a token, got %s", rec.Body.String())
	}

	body, ct := uploadBody(t, "Demo", "A demo clip", "mp4 payload")
	rec = do(t, router, http.MethodPost, "/upload", "", body, ct)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("upload without token: expected 401, got %d", rec.Code)
	}

	body, ct = uploadBody(t, "Demo", "A demo clip", "mp4 payload")
	rec = do(t, router, http.MethodPost, "/upload", login.Token, body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/videos", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("videos: expected 200, got %d", rec.Code)
	}
	var list []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Video string `json:"video"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Fatalf("videos: expected one entry, got %s", rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/video/"+list[0].ID, "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stream: expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "mp4 payload" {
		t.Fatalf("stream: unexpected body %q", rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/video/unknown", "", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("stream unknown: expected 404, got %d", rec.Code)
	}
}

// TestPrivateReads verifies the policy flag that gates the read endpoints.
func TestPrivateReads(t *testing.T) {
	router := newTestRouter(t, false)

	rec := do(t, router, http.MethodGet, "/videos", "", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("videos without token: expected 401, got %d", rec.Code)
	}

	postJSON(t, router, "/register", "", map[string]string{
		"name": "A", "email": "a@x.com", "password": "pw123",
	})
	login := postJSON(t, router, "/login", "", map[string]string{
		"email": "a@x.com", "password": "pw123",
	})
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(login.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("login: expected a token, got %s", login.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/videos", resp.Token, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("videos with token: expected 200, got %d", rec.Code)
	}
}
