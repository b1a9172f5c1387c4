package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/BradenHooton/roster/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// DefaultPageSize is the number of rows per page.
const DefaultPageSize = 10

// Source supplies the initial roster.
type Source interface {
	FetchUsers(ctx context.Context) ([]models.User, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]models.User, error)

func (f SourceFunc) FetchUsers(ctx context.Context) ([]models.User, error) {
	return f(ctx)
}

// Snapshot is the externally visible control state of a store.
type Snapshot struct {
	Filter     models.Filter     `json:"filter"`
	Sort       models.Sort       `json:"sort"`
	Pagination models.Pagination `json:"pagination"`
	IsLoading  bool              `json:"isLoading"`
	Loaded     bool              `json:"loaded"`
	Version    uint64            `json:"version"`
}

// Window is one page of the derived view together with the state it was cut from.
type Window struct {
	Snapshot
	Users []models.User `json:"users"`
}

// Observer is called after every state change. Snapshots from concurrent
// operations may arrive out of order; Version orders them.
type Observer func(Snapshot)

type observer struct {
	id uint64
	fn Observer
}

// Store owns one roster: the full collection, the filter, sort and page
// criteria, and the view derived from them. Every operation updates state
// and recomputes the view as a single step.
type Store struct {
	mu sync.RWMutex

	src      Source
	users    []models.User
	view     []models.User
	filter   models.Filter
	sort     models.Sort
	page     int
	pageSize int
	inflight int
	loaded   bool
	version  uint64

	observers    []observer
	nextObserver uint64

	loads  singleflight.Group
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Store.
type Option func(*Store)

// WithPageSize sets the number of rows per page. Non-positive values are ignored.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithClock replaces time.Now for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the identifier generator used by AddUser.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// New creates an empty store backed by src.
func New(src Source, opts ...Option) *Store {
	s := &Store{
		src:      src,
		filter:   models.DefaultFilter(),
		sort:     models.Sort{Key: models.SortNone, Direction: models.Ascending},
		page:     1,
		pageSize: DefaultPageSize,
		logger:   slog.Default(),
		now:      time.Now,
		newID:    func() string { return "user-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.view = []models.User{}
	return s
}

// Load populates the collection from the source if it is empty once the
// fetch settles; a non-empty collection is left untouched. IsLoading is
// true while the fetch is outstanding. Overlapping calls share one fetch.
//
// The fetch is detached from ctx and always settles. If ctx ends first,
// Load returns ctx.Err() and the fetch completes in the background.
func (s *Store) Load(ctx context.Context) error {
	return s.settle(ctx, "load", false)
}

// LoadAsync starts Load and returns a channel that receives its result once.
func (s *Store) LoadAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	detached := context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		done <- s.Load(detached)
	}()
	return done
}

// Refresh replaces the collection with a fresh fetch from the source,
// keeping the current criteria.
func (s *Store) Refresh(ctx context.Context) error {
	return s.settle(ctx, "refresh", true)
}

func (s *Store) settle(ctx context.Context, key string, replace bool) error {
	detached := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(key, func() (any, error) {
		return nil, s.fetch(detached, replace)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) fetch(ctx context.Context, replace bool) error {
	s.mu.Lock()
	s.inflight++
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)

	users, err := s.src.FetchUsers(ctx)

	s.mu.Lock()
	s.inflight--
	if err != nil {
		snap = s.commitLocked()
		s.mu.Unlock()
		s.notify(snap)
		s.logger.Warn("roster fetch failed", slog.Any("error", err))
		return fmt.Errorf("%w: %w", models.ErrSourceUnavailable, err)
	}

	populated := replace || len(s.users) == 0
	if populated {
		s.users = slices.Clone(users)
	}
	s.loaded = true
	s.recomputeLocked()
	snap = s.commitLocked()
	count := len(s.users)
	s.mu.Unlock()
	s.notify(snap)

	s.logger.Debug("roster fetch settled",
		slog.Bool("populated", populated),
		slog.Int("users", count))
	return nil
}

// SetFilter updates one filter field, resets to page 1 and recomputes the view.
// key must be "search" or "status".
func (s *Store) SetFilter(key, value string) error {
	s.mu.Lock()
	switch key {
	case models.FilterSearch:
		s.filter.Search = value
	case models.FilterStatus:
		s.filter.Status = value
	default:
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", models.ErrInvalidFilter, key)
	}
	s.page = 1
	s.recomputeLocked()
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// SetPage moves to page, clamped into [1, max(1, TotalPages)].
func (s *Store) SetPage(page int) {
	s.mu.Lock()
	clamped := models.NewPagination(page, s.pageSize, len(s.view)).Page
	if clamped == s.page {
		s.mu.Unlock()
		return
	}
	s.page = clamped
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// SetSort selects the sort key. Selecting the current key flips the
// direction; selecting another key sorts ascending; SortNone clears sorting.
func (s *Store) SetSort(key models.SortKey) error {
	key, err := models.ParseSortKey(string(key))
	if err != nil {
		return err
	}

	s.mu.Lock()
	switch {
	case key == models.SortNone:
		s.sort = models.Sort{Key: models.SortNone, Direction: models.Ascending}
	case key == s.sort.Key && s.sort.Direction == models.Ascending:
		s.sort.Direction = models.Descending
	default:
		s.sort = models.Sort{Key: key, Direction: models.Ascending}
	}
	s.recomputeLocked()
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// DeleteUser removes the user with id. It reports whether a record was
// removed; an unknown id changes nothing.
func (s *Store) DeleteUser(id string) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.users = slices.Delete(s.users, i, i+1)
	s.recomputeLocked()
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// UpdateUser merges patch into the user with id and returns the result.
// ID and CreatedAt are never changed. An unknown id changes nothing.
func (s *Store) UpdateUser(id string, patch models.UserPatch) (models.User, bool) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return models.User{}, false
	}
	updated := patch.Apply(s.users[i])
	s.users[i] = updated
	s.recomputeLocked()
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
	return updated, true
}

// AddUser creates a user with a fresh identifier and the current time as
// its creation timestamp, and places it at the front of the collection.
func (s *Store) AddUser(input models.UserInput) models.User {
	s.mu.Lock()
	id := s.newID()
	for s.indexLocked(id) >= 0 {
		id = s.newID()
	}
	u := models.User{
		ID:        id,
		Name:      input.Name,
		Email:     input.Email,
		Status:    input.Status,
		Avatar:    input.Avatar,
		CreatedAt: s.now().UTC(),
	}
	s.users = slices.Insert(s.users, 0, u)
	s.recomputeLocked()
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
	return u
}

// Subscribe registers fn for change notifications. The returned function
// removes it and may be called more than once.
func (s *Store) Subscribe(fn Observer) (cancel func()) {
	s.mu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers = append(s.observers, observer{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.observers = slices.DeleteFunc(s.observers, func(o observer) bool { return o.id == id })
			s.mu.Unlock()
		})
	}
}

// Snapshot returns the current control state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Window returns the current page of the derived view.
func (s *Store) Window() Window {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshotLocked()
	lo, hi := snap.Pagination.Bounds()
	return Window{
		Snapshot: snap,
		Users:    slices.Clone(s.view[lo:hi]),
	}
}

// View returns a copy of the full derived view.
func (s *Store) View() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.view)
}

// Users returns a copy of the full collection in stored order.
func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users)
}

// Get returns the user with id from the full collection.
func (s *Store) Get(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexLocked(id); i >= 0 {
		return s.users[i], true
	}
	return models.User{}, false
}

// Len returns the size of the full collection.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.users, func(u models.User) bool { return u.ID == id })
}

// recomputeLocked rebuilds the view and pulls the page back into range.
func (s *Store) recomputeLocked() {
	s.view = Derive(s.users, s.filter, s.sort)
	s.page = models.NewPagination(s.page, s.pageSize, len(s.view)).Page
}

func (s *Store) commitLocked() Snapshot {
	s.version++
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Filter:     s.filter,
		Sort:       s.sort,
		Pagination: models.NewPagination(s.page, s.pageSize, len(s.view)),
		IsLoading:  s.inflight > 0,
		Loaded:     s.loaded,
		Version:    s.version,
	}
}

func (s *Store) notify(snap Snapshot) {
	s.mu.RLock()
	observers := slices.Clone(s.observers)
	s.mu.RUnlock()

	for _, o := range observers {
		o.fn(snap)
	}
}
