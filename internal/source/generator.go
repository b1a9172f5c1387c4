package source

import (
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/roster/internal/models"
)

const (
	// DefaultUserCount is the roster size produced when none is configured.
	DefaultUserCount = 50
	// DefaultActivityCount is the number of activity entries per detail view.
	DefaultActivityCount = 5

	userBackdateWindow     = 10_000_000_000 * time.Millisecond
	activityBackdateWindow = 1_000_000_000 * time.Millisecond

	avatarBaseURL = "https://api.dicebear.com/7.x/avataaars/svg?seed="
)

var names = []string{
	"Alice Johnson", "Bob Smith", "Charlie Brown", "Diana Prince", "Evan Wright",
	"Fiona Gallagher", "George Martin", "Hannah Lee", "Ian Somerhalder", "Julia Roberts",
	"Kevin Hart", "Laura Croft", "Mike Ross", "Natalie Portman", "Oliver Queen",
	"Peter Parker", "Quinn Fabray", "Rachel Green", "Steve Rogers", "Tony Stark",
}

var statuses = []models.UserStatus{models.StatusActive, models.StatusInactive}

var actions = []string{
	"Logged in", "Updated profile", "Viewed dashboard", "Downloaded report", "Changed password",
}

// Generator produces synthetic users and activities.
// It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRand makes output reproducible.
func WithRand(rng *rand.Rand) GeneratorOption {
	return func(g *Generator) { g.rng = rng }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a Generator seeded from the runtime's random source.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateUsers returns count users with ids user-1..user-count.
// Names cycle through a fixed pool; once the pool is exhausted a numeric
// suffix keeps them distinct ("Alice Johnson 2").
func (g *Generator) GenerateUsers(count int) []models.User {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UTC()
	users := make([]models.User, 0, max(count, 0))
	for i := 0; i < count; i++ {
		name := names[i%len(names)]
		if i >= len(names) {
			name = fmt.Sprintf("%s %d", name, i/len(names)+1)
		}
		firstName := strings.ToLower(strings.Fields(name)[0])

		users = append(users, models.User{
			ID:        fmt.Sprintf("user-%d", i+1),
			Name:      name,
			Email:     fmt.Sprintf("%s.%d@example.com", firstName, i+1),
			Status:    statuses[g.rng.IntN(len(statuses))],
			Avatar:    AvatarURL(name),
			CreatedAt: now.Add(-g.backdate(userBackdateWindow)),
		})
	}
	return users
}

// GenerateActivities returns count activity entries for userID.
func (g *Generator) GenerateActivities(userID string, count int) []models.Activity {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UTC()
	activities := make([]models.Activity, 0, max(count, 0))
	for i := 0; i < count; i++ {
		activities = append(activities, models.Activity{
			ID:        fmt.Sprintf("act-%s-%d", userID, i),
			UserID:    userID,
			Action:    actions[g.rng.IntN(len(actions))],
			Timestamp: now.Add(-g.backdate(activityBackdateWindow)),
		})
	}
	return activities
}

// backdate returns a random offset in [0, window), truncated to milliseconds.
func (g *Generator) backdate(window time.Duration) time.Duration {
	ms := g.rng.Int64N(window.Milliseconds())
	return time.Duration(ms) * time.Millisecond
}

// AvatarURL returns the avatar reference derived from a display name.
func AvatarURL(name string) string {
	return avatarBaseURL + url.QueryEscape(name)
}
