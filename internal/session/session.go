package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/BradenHooton/roster/internal/store"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

// ErrNoSession is returned when a request context carries no session store.
var ErrNoSession = errors.New("no session in request context")

const sessionIDKey = "sid"

type ctxKey string

const (
	storeKey ctxKey = "rosterStore"
	idKey    ctxKey = "rosterSessionID"
)

// Factory builds the store for a new session.
type Factory func() *store.Store

type entry struct {
	store    *store.Store
	lastSeen time.Time
}

// Manager keeps one collection store per browser session. The session id
// travels in a signed cookie; the stores themselves never leave memory.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry

	cookies  sessions.Store
	name     string
	newStore Factory
	logger   *slog.Logger
	now      func() time.Time
}

// NewManager creates a session manager. cookies signs and reads the session
// cookie called name; newStore is called once per new session.
func NewManager(cookies sessions.Store, name string, newStore Factory, logger *slog.Logger) *Manager {
	return &Manager{
		entries:  make(map[string]*entry),
		cookies:  cookies,
		name:     name,
		newStore: newStore,
		logger:   logger,
		now:      time.Now,
	}
}

// NewCookieStore returns a cookie store signed with secret.
// In production (secure=true) cookies are Secure; in local dev over
// http://localhost, use secure=false so cookies are accepted.
func NewCookieStore(secret string, secure bool, maxAge time.Duration) *sessions.CookieStore {
	cs := sessions.NewCookieStore([]byte(secret))
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return cs
}

// Middleware resolves the caller's session, creating one (and setting the
// cookie) when none exists, and puts its store in the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.cookies.Get(r, m.name)
		if err != nil {
			var scErr securecookie.Error
			if errors.As(err, &scErr) && scErr.IsDecode() {
				m.logger.Warn("session cookie invalid, using fresh session", slog.Any("error", err))
			} else {
				m.logger.Error("session store error, using fresh session", slog.Any("error", err))
			}
		}
		if sess == nil {
			sess = sessions.NewSession(m.cookies, m.name)
		}

		id, _ := sess.Values[sessionIDKey].(string)
		if id == "" {
			id = uuid.NewString()
			sess.Values[sessionIDKey] = id
		}

		// Re-save on every request so the cookie's MaxAge slides with activity.
		if err := sess.Save(r, w); err != nil {
			m.logger.Error("failed to save session cookie", slog.Any("error", err))
		}

		ctx := WithStore(r.Context(), id, m.Acquire(id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Acquire returns the store for id, creating it on first use, and marks
// the session as seen.
func (m *Manager) Acquire(id string) *store.Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		e = &entry{store: m.newStore()}
		m.entries[id] = e
		m.logger.Debug("session created", slog.String("session_id", id))
	}
	e.lastSeen = m.now()
	return e.store
}

// Sweep drops every session not seen within idle and returns how many were removed.
func (m *Manager) Sweep(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.entries {
		if e.lastSeen.Before(cutoff) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// FromContext returns the session store placed in ctx by Middleware.
func FromContext(ctx context.Context) (*store.Store, error) {
	st, ok := ctx.Value(storeKey).(*store.Store)
	if !ok || st == nil {
		return nil, ErrNoSession
	}
	return st, nil
}

// IDFromContext returns the session id placed in ctx by Middleware, or "".
func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(idKey).(string)
	return id
}

// WithStore returns a copy of ctx carrying st under session id.
func WithStore(ctx context.Context, id string, st *store.Store) context.Context {
	ctx = context.WithValue(ctx, storeKey, st)
	return context.WithValue(ctx, idKey, id)
}
