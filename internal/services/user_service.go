package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/BradenHooton/roster/internal/models"
	"github.com/BradenHooton/roster/internal/session"
	"github.com/BradenHooton/roster/internal/source"
	"github.com/BradenHooton/roster/internal/store"
	"github.com/BradenHooton/roster/internal/validation"
	"github.com/BradenHooton/roster/pkg/logger"
)

// Roster is the collection store API the services drive.
type Roster interface {
	Load(ctx context.Context) error
	Refresh(ctx context.Context) error
	SetFilter(key, value string) error
	SetSort(key models.SortKey) error
	SetPage(page int)
	AddUser(input models.UserInput) models.User
	UpdateUser(id string, patch models.UserPatch) (models.User, bool)
	DeleteUser(id string) bool
	Get(id string) (models.User, bool)
	Users() []models.User
	Len() int
	Snapshot() store.Snapshot
	Window() store.Window
	Subscribe(fn store.Observer) (cancel func())
}

// RosterResolver returns the roster belonging to the caller of ctx.
type RosterResolver func(ctx context.Context) (Roster, error)

// SessionRoster resolves the roster placed in the request context by the session middleware.
func SessionRoster(ctx context.Context) (Roster, error) {
	st, err := session.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// statusFilterTag restricts the status filter to known values.
const statusFilterTag = "oneof=Active Inactive All"

// UserService handles roster business logic
type UserService struct {
	rosters RosterResolver
	audit   *logger.AuditLogger
	logger  *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(rosters RosterResolver, audit *logger.AuditLogger, logger *slog.Logger) *UserService {
	return &UserService{
		rosters: rosters,
		audit:   audit,
		logger:  logger,
	}
}

// ListUsers returns the current page of the caller's roster, loading it
// first if the collection is empty.
func (s *UserService) ListUsers(ctx context.Context) (store.Window, error) {
	r, err := s.loadedRoster(ctx)
	if err != nil {
		return store.Window{}, err
	}
	return r.Window(), nil
}

// Load populates an empty roster from the source.
func (s *UserService) Load(ctx context.Context) (store.Window, error) {
	return s.fetch(ctx, logger.EventRosterLoaded, Roster.Load)
}

// Refresh replaces the roster with a fresh fetch, keeping the criteria.
func (s *UserService) Refresh(ctx context.Context) (store.Window, error) {
	return s.fetch(ctx, logger.EventRosterRefreshed, Roster.Refresh)
}

func (s *UserService) fetch(ctx context.Context, event string, op func(Roster, context.Context) error) (store.Window, error) {
	r, err := s.rosters(ctx)
	if err != nil {
		return store.Window{}, err
	}

	if err := op(r, ctx); err != nil {
		s.logger.Error("roster fetch failed", slog.String("event", event), slog.Any("error", err))
		s.audit.Log(ctx, logger.AuditEvent{
			EventType:     event,
			SessionID:     session.IDFromContext(ctx),
			FailureReason: err.Error(),
		})
		return store.Window{}, err
	}

	s.audit.Log(ctx, logger.AuditEvent{
		EventType: event,
		SessionID: session.IDFromContext(ctx),
		Success:   true,
		Metadata:  map[string]string{"users": strconv.Itoa(r.Len())},
	})
	return r.Window(), nil
}

// SetFilter sets one filter field and returns the first page of the new view.
// An empty status selects all users.
func (s *UserService) SetFilter(ctx context.Context, key, value string) (store.Window, error) {
	switch key {
	case models.FilterSearch:
	case models.FilterStatus:
		if value == "" {
			value = models.StatusAll
		}
		if err := validation.Var("value", value, statusFilterTag); err != nil {
			return store.Window{}, err
		}
	default:
		return store.Window{}, fmt.Errorf("%w: %q", models.ErrInvalidFilter, key)
	}

	r, err := s.loadedRoster(ctx)
	if err != nil {
		return store.Window{}, err
	}
	if err := r.SetFilter(key, value); err != nil {
		return store.Window{}, err
	}
	return r.Window(), nil
}

// SetSort selects or toggles the sort key.
func (s *UserService) SetSort(ctx context.Context, key string) (store.Window, error) {
	sortKey, err := models.ParseSortKey(key)
	if err != nil {
		return store.Window{}, err
	}

	r, err := s.loadedRoster(ctx)
	if err != nil {
		return store.Window{}, err
	}
	if err := r.SetSort(sortKey); err != nil {
		return store.Window{}, err
	}
	return r.Window(), nil
}

// SetPage moves to page, clamped to the available pages.
func (s *UserService) SetPage(ctx context.Context, page int) (store.Window, error) {
	r, err := s.loadedRoster(ctx)
	if err != nil {
		return store.Window{}, err
	}
	r.SetPage(page)
	return r.Window(), nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id string) (models.User, error) {
	r, err := s.loadedRoster(ctx)
	if err != nil {
		return models.User{}, err
	}

	user, ok := r.Get(id)
	if !ok {
		s.logger.Info("user not found", slog.String("user_id", id))
		return models.User{}, models.ErrNotFound
	}
	return user, nil
}

// CreateUser validates input and adds the user to the front of the roster.
// An empty avatar is replaced by one generated from the name.
func (s *UserService) CreateUser(ctx context.Context, input models.UserInput) (models.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if err := validation.Struct(input); err != nil {
		return models.User{}, err
	}
	if input.Avatar == "" {
		input.Avatar = source.AvatarURL(input.Name)
	}

	r, err := s.loadedRoster(ctx)
	if err != nil {
		return models.User{}, err
	}

	user := r.AddUser(input)
	s.logger.Info("user created", slog.String("user_id", user.ID))
	s.audit.Log(ctx, logger.AuditEvent{
		EventType: logger.EventUserCreated,
		SessionID: session.IDFromContext(ctx),
		UserID:    user.ID,
		Email:     user.Email,
		Success:   true,
	})
	return user, nil
}

// UpdateUser validates patch and merges it into the user with id.
func (s *UserService) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		patch.Email = &email
	}
	if err := validation.Struct(patch); err != nil {
		return models.User{}, err
	}

	r, err := s.loadedRoster(ctx)
	if err != nil {
		return models.User{}, err
	}

	user, ok := r.UpdateUser(id, patch)
	if !ok {
		s.logger.Info("user not found", slog.String("user_id", id))
		s.audit.Log(ctx, logger.AuditEvent{
			EventType:     logger.EventUserUpdated,
			SessionID:     session.IDFromContext(ctx),
			UserID:        id,
			FailureReason: "not found",
		})
		return models.User{}, models.ErrNotFound
	}

	s.logger.Info("user updated", slog.String("user_id", id))
	s.audit.Log(ctx, logger.AuditEvent{
		EventType: logger.EventUserUpdated,
		SessionID: session.IDFromContext(ctx),
		UserID:    id,
		Email:     user.Email,
		Success:   true,
		Metadata:  map[string]string{"fields": patchFields(patch)},
	})
	return user, nil
}

// DeleteUser deletes a user
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	r, err := s.loadedRoster(ctx)
	if err != nil {
		return err
	}

	if !r.DeleteUser(id) {
		s.logger.Info("user not found", slog.String("user_id", id))
		s.audit.Log(ctx, logger.AuditEvent{
			EventType:     logger.EventUserDeleted,
			SessionID:     session.IDFromContext(ctx),
			UserID:        id,
			FailureReason: "not found",
		})
		return models.ErrNotFound
	}

	s.logger.Info("user deleted", slog.String("user_id", id))
	s.audit.Log(ctx, logger.AuditEvent{
		EventType: logger.EventUserDeleted,
		SessionID: session.IDFromContext(ctx),
		UserID:    id,
		Success:   true,
	})
	return nil
}

// Watch streams roster snapshots until ctx is done. The current snapshot
// is delivered first. A slow reader only sees the most recent pending
// snapshot; intermediate ones are dropped. The channel is never closed.
func (s *UserService) Watch(ctx context.Context) (<-chan store.Snapshot, error) {
	r, err := s.rosters(ctx)
	if err != nil {
		return nil, err
	}

	ch := make(chan store.Snapshot, 1)
	offer := func(snap store.Snapshot) {
		for {
			select {
			case ch <- snap:
				return
			default:
			}
			// Discard the stale pending snapshot and retry.
			select {
			case <-ch:
			default:
			}
		}
	}

	cancel := r.Subscribe(offer)
	offer(r.Snapshot())

	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, nil
}

// loadedRoster resolves the caller's roster and loads it if the collection is empty.
func (s *UserService) loadedRoster(ctx context.Context) (Roster, error) {
	r, err := s.rosters(ctx)
	if err != nil {
		return nil, err
	}
	if err := ensureLoaded(ctx, r); err != nil {
		s.logger.Error("failed to load roster", slog.Any("error", err))
		return nil, err
	}
	return r, nil
}

// ensureLoaded loads r when its collection is empty.
func ensureLoaded(ctx context.Context, r Roster) error {
	if r.Len() > 0 {
		return nil
	}
	return r.Load(ctx)
}

func patchFields(p models.UserPatch) string {
	var fields []string
	if p.Name != nil {
		fields = append(fields, "name")
	}
	if p.Email != nil {
		fields = append(fields, "email")
	}
	if p.Status != nil {
		fields = append(fields, "status")
	}
	if p.Avatar != nil {
		fields = append(fields, "avatar")
	}
	return strings.Join(fields, ",")
}
