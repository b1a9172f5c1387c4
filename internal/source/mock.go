package source

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/BradenHooton/roster/internal/models"
)

// DefaultLatency simulates the round trip of a real user listing request.
const DefaultLatency = 800 * time.Millisecond

// MockSource serves a synthetic roster after a simulated delay.
// The roster is generated on first fetch and reused, so every fetch
// from the same source returns the same records.
type MockSource struct {
	gen     *Generator
	count   int
	latency time.Duration

	once  sync.Once
	users []models.User
}

// NewMockSource creates a source of count users delayed by latency.
func NewMockSource(gen *Generator, count int, latency time.Duration) *MockSource {
	return &MockSource{
		gen:     gen,
		count:   count,
		latency: latency,
	}
}

// FetchUsers waits out the latency and returns a copy of the roster.
// A cancelled context aborts the wait.
func (s *MockSource) FetchUsers(ctx context.Context) ([]models.User, error) {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.once.Do(func() {
		s.users = s.gen.GenerateUsers(s.count)
	})
	return slices.Clone(s.users), nil
}
