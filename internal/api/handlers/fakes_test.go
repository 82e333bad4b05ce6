package handlers

import (
	"context"
	"os"
	"sync"

	"github.com/avelez/clipvault-be/internal/models"
	"github.com/avelez/clipvault-be/internal/services"
)

type fakeUserService struct {
	registerFn    func(ctx context.Context, name, email, password, role string) (models.User, error)
	authFn        func(ctx context.Context, email, password string) (models.User, error)
	getFn         func(ctx context.Context, id string) (models.User, error)
	recordLoginFn func(ctx context.Context, id, ip string) error

	mu           sync.Mutex
	recordedID   string
	recordedIP   string
	loginsLogged int
}

func (f *fakeUserService) Register(ctx context.Context, name, email, password, role string) (models.User, error) {
	if f.registerFn == nil {
		return models.User{}, nil
	}
	return f.registerFn(ctx, name, email, password, role)
}

func (f *fakeUserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	if f.authFn == nil {
		return models.User{}, services.ErrInvalidCredentials
	}
	return f.authFn(ctx, email, password)
}

func (f *fakeUserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	if f.getFn == nil {
		return models.User{}, services.ErrNotFound
	}
	return f.getFn(ctx, id)
}

func (f *fakeUserService) RecordLogin(ctx context.Context, id, ip string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordedID, f.recordedIP = id, ip
	f.loginsLogged++
	if f.recordLoginFn != nil {
		return f.recordLoginFn(ctx, id, ip)
	}
	return nil
}

type fakeVideoService struct {
	saveFn   func(ctx context.Context, up services.VideoUpload) (models.Video, error)
	getAllFn func(ctx context.Context) ([]models.Video, error)
	getFn    func(ctx context.Context, id string) (models.Video, error)
	openFn   func(ctx context.Context, id string) (*os.File, models.Video, error)
}

func (f *fakeVideoService) Save(ctx context.Context, up services.VideoUpload) (models.Video, error) {
	if f.saveFn == nil {
		return models.Video{}, nil
	}
	return f.saveFn(ctx, up)
}

func (f *fakeVideoService) GetAll(ctx context.Context) ([]models.Video, error) {
	if f.getAllFn == nil {
		return nil, nil
	}
	return f.getAllFn(ctx)
}

func (f *fakeVideoService) Get(ctx context.Context, id string) (models.Video, error) {
	if f.getFn == nil {
		return models.Video{}, services.ErrNotFound
	}
	return f.getFn(ctx, id)
}

func (f *fakeVideoService) Open(ctx context.Context, id string) (*os.File, models.Video, error) {
	if f.openFn == nil {
		return nil, models.Video{}, services.ErrNotFound
	}
	return f.openFn(ctx, id)
}

func (f *fakeVideoService) StoredPaths(ctx context.Context) (map[string]bool, error) {
	return nil, nil
}

func (f *fakeVideoService) StorageTotals(ctx context.Context) (int64, int64, error) {
	return 0, 0, nil
}

type fakeEventService struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeEventService) CreateEvent(ctx context.Context, eventType, level, message string, videoID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
	return nil
}

func (f *fakeEventService) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	return nil, nil
}
