package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/roster/internal/models"
	"github.com/BradenHooton/roster/internal/services"
	"github.com/BradenHooton/roster/internal/store"
	pkghttp "github.com/BradenHooton/roster/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target any) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockUserService implements UserService for testing
type MockUserService struct {
	ListUsersFunc  func(ctx context.Context) (store.Window, error)
	LoadFunc       func(ctx context.Context) (store.Window, error)
	RefreshFunc    func(ctx context.Context) (store.Window, error)
	SetFilterFunc  func(ctx context.Context, key, value string) (store.Window, error)
	SetSortFunc    func(ctx context.Context, key string) (store.Window, error)
	SetPageFunc    func(ctx context.Context, page int) (store.Window, error)
	GetUserFunc    func(ctx context.Context, id string) (models.User, error)
	CreateUserFunc func(ctx context.Context, input models.UserInput) (models.User, error)
	UpdateUserFunc func(ctx context.Context, id string, patch models.UserPatch) (models.User, error)
	DeleteUserFunc func(ctx context.Context, id string) error
	WatchFunc      func(ctx context.Context) (<-chan store.Snapshot, error)
}

func (m *MockUserService) ListUsers(ctx context.Context) (store.Window, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx)
	}
	return store.Window{}, nil
}

func (m *MockUserService) Load(ctx context.Context) (store.Window, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return store.Window{}, nil
}

func (m *MockUserService) Refresh(ctx context.Context) (store.Window, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx)
	}
	return store.Window{}, nil
}

func (m *MockUserService) SetFilter(ctx context.Context, key, value string) (store.Window, error) {
	if m.SetFilterFunc != nil {
		return m.SetFilterFunc(ctx, key, value)
	}
	return store.Window{}, nil
}

func (m *MockUserService) SetSort(ctx context.Context, key string) (store.Window, error) {
	if m.SetSortFunc != nil {
		return m.SetSortFunc(ctx, key)
	}
	return store.Window{}, nil
}

func (m *MockUserService) SetPage(ctx context.Context, page int) (store.Window, error) {
	if m.SetPageFunc != nil {
		return m.SetPageFunc(ctx, page)
	}
	return store.Window{}, nil
}

func (m *MockUserService) GetUser(ctx context.Context, id string) (models.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return models.User{}, models.ErrNotFound
}

func (m *MockUserService) CreateUser(ctx context.Context, input models.UserInput) (models.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, input)
	}
	return models.User{}, models.ErrInternalServer
}

func (m *MockUserService) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error) {
	if m.UpdateUserFunc != nil {
		return m.UpdateUserFunc(ctx, id, patch)
	}
	return models.User{}, models.ErrInternalServer
}

func (m *MockUserService) DeleteUser(ctx context.Context, id string) error {
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, id)
	}
	return nil
}

func (m *MockUserService) Watch(ctx context.Context) (<-chan store.Snapshot, error) {
	if m.WatchFunc != nil {
		return m.WatchFunc(ctx)
	}
	return make(chan store.Snapshot), nil
}

// MockAnalyticsService implements AnalyticsService for testing
type MockAnalyticsService struct {
	OverviewFunc func(ctx context.Context) (*services.Overview, error)
}

func (m *MockAnalyticsService) Overview(ctx context.Context) (*services.Overview, error) {
	if m.OverviewFunc != nil {
		return m.OverviewFunc(ctx)
	}
	return &services.Overview{}, nil
}

// MockActivityService implements ActivityService for testing
type MockActivityService struct {
	ListActivitiesFunc func(ctx context.Context, userID string) ([]models.Activity, error)
}

func (m *MockActivityService) ListActivities(ctx context.Context, userID string) ([]models.Activity, error) {
	if m.ListActivitiesFunc != nil {
		return m.ListActivitiesFunc(ctx, userID)
	}
	return nil, nil
}

// NewTestUser creates a test user with standard defaults
func NewTestUser(id, email, name string) models.User {
	return models.User{
		ID:        id,
		Email:     email,
		Name:      name,
		Status:    models.StatusActive,
		Avatar:    "https://example.com/" + id + ".png",
		CreatedAt: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

// WithChiRouteContext sets URL parameters that would normally be extracted
// by the Chi router from the URL path.
//
// Example usage:
//
//	req := httptest.NewRequest("PATCH", "/api/users/user-1", body)
//	req = WithChiRouteContext(req, map[string]string{
//	    "id": "user-1",
//	})
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
