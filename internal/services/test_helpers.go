package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/BradenHooton/roster/internal/models"
	"github.com/BradenHooton/roster/internal/store"
	"github.com/BradenHooton/roster/pkg/logger"
)

// MockActivityGenerator implements ActivityGenerator for testing
type MockActivityGenerator struct {
	GenerateActivitiesFunc func(userID string, count int) []models.Activity
	Calls                  int
}

func (m *MockActivityGenerator) GenerateActivities(userID string, count int) []models.Activity {
	m.Calls++
	if m.GenerateActivitiesFunc != nil {
		return m.GenerateActivitiesFunc(userID, count)
	}
	return []models.Activity{}
}

// MockSource implements store.Source for testing
type MockSource struct {
	FetchUsersFunc func(ctx context.Context) ([]models.User, error)
	Calls          int
}

func (m *MockSource) FetchUsers(ctx context.Context) ([]models.User, error) {
	m.Calls++
	if m.FetchUsersFunc != nil {
		return m.FetchUsersFunc(ctx)
	}
	return []models.User{}, nil
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

// NewTestUserWithStatus creates a user with specified status
func NewTestUserWithStatus(id, email, name string, status models.UserStatus) models.User {
	user := NewTestUser(id, email, name)
	user.Status = status
	return user
}

// NewTestRoster creates a store whose source returns users
func NewTestRoster(users ...models.User) (*store.Store, *MockSource) {
	src := &MockSource{
		FetchUsersFunc: func(ctx context.Context) ([]models.User, error) {
			return users, nil
		},
	}
	return store.New(src, store.WithLogger(discardLogger())), src
}

// StaticResolver always resolves to r
func StaticResolver(r Roster) RosterResolver {
	return func(ctx context.Context) (Roster, error) {
		return r, nil
	}
}

// FailingResolver always fails with err
func FailingResolver(err error) RosterResolver {
	return func(ctx context.Context) (Roster, error) {
		return nil, err
	}
}

// NewTestAuditLogger returns an audit logger writing JSON lines to buf
func NewTestAuditLogger(buf *bytes.Buffer) *logger.AuditLogger {
	return logger.NewAuditLogger(slog.New(slog.NewJSONHandler(buf, nil)))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
