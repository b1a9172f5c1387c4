package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BradenHooton/roster/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticSource(users ...models.User) Source {
	return SourceFunc(func(ctx context.Context) ([]models.User, error) {
		out := make([]models.User, len(users))
		copy(out, users)
		return out, nil
	})
}

func newLoadedStore(t *testing.T, users []models.User, opts ...Option) *Store {
	t.Helper()
	s := New(staticSource(users...), opts...)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func names(users []models.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Name
	}
	return out
}

func exampleUsers() []models.User {
	return []models.User{
		{ID: "1", Name: "Bob", Email: "bob@example.com", Status: models.StatusActive},
		{ID: "2", Name: "Amy", Email: "amy@example.com", Status: models.StatusInactive},
		{ID: "3", Name: "Cid", Email: "cid@example.com", Status: models.StatusActive},
	}
}

// randomUsers builds a roster with many duplicate names and statuses so
// that sort ties are common.
func randomUsers(rng *rand.Rand, n int) []models.User {
	pool := []string{"Amy", "bob", "Bob", "Cid", "dora", "Eve"}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	users := make([]models.User, n)
	for i := range users {
		name := pool[rng.IntN(len(pool))]
		status := models.StatusActive
		if rng.IntN(2) == 0 {
			status = models.StatusInactive
		}
		users[i] = models.User{
			ID:        fmt.Sprintf("user-%d", i+1),
			Name:      name,
			Email:     fmt.Sprintf("%s.%d@Example.com", strings.ToLower(name), i+1),
			Status:    status,
			Avatar:    "avatar-" + name,
			CreatedAt: base.Add(time.Duration(rng.IntN(5)) * 24 * time.Hour),
		}
	}
	return users
}

func TestStore_ExampleScenario(t *testing.T) {
	s := newLoadedStore(t, exampleUsers())

	require.NoError(t, s.SetSort(models.SortName))
	assert.Equal(t, []string{"Amy", "Bob", "Cid"}, names(s.View()))

	require.NoError(t, s.SetSort(models.SortName))
	assert.Equal(t, []string{"Cid", "Bob", "Amy"}, names(s.View()))

	s.SetPage(1)
	require.NoError(t, s.SetFilter(models.FilterStatus, string(models.StatusActive)))
	assert.Equal(t, []string{"Cid", "Bob"}, names(s.View()))

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Pagination.Total)
	assert.Equal(t, 1, snap.Pagination.Page)
	assert.Equal(t, models.Descending, snap.Sort.Direction)
}

func TestStore_InitialState(t *testing.T) {
	s := New(staticSource())

	snap := s.Snapshot()
	assert.Equal(t, models.DefaultFilter(), snap.Filter)
	assert.Equal(t, models.SortNone, snap.Sort.Key)
	assert.Equal(t, models.Ascending, snap.Sort.Direction)
	assert.Equal(t, 1, snap.Pagination.Page)
	assert.Equal(t, DefaultPageSize, snap.Pagination.PageSize)
	assert.False(t, snap.IsLoading)
	assert.False(t, snap.Loaded)
	assert.Empty(t, s.View())
}

func TestStore_FilterCorrectness(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 11))
	users := randomUsers(rng, 120)
	s := newLoadedStore(t, users)

	for _, search := range []string{"bo", "BO", "example", "dora.1", "zzz", "@EXAMPLE.COM", "e"} {
		require.NoError(t, s.SetFilter(models.FilterSearch, search))
		view := s.View()

		inView := make(map[string]bool, len(view))
		needle := strings.ToLower(search)
		for _, u := range view {
			inView[u.ID] = true
			matches := strings.Contains(strings.ToLower(u.Name), needle) ||
				strings.Contains(strings.ToLower(u.Email), needle)
			assert.True(t, matches, "search %q kept %s", search, u.ID)
		}
		for _, u := range users {
			if inView[u.ID] {
				continue
			}
			matches := strings.Contains(strings.ToLower(u.Name), needle) ||
				strings.Contains(strings.ToLower(u.Email), needle)
			assert.False(t, matches, "search %q dropped %s", search, u.ID)
		}
	}
}

func TestStore_EmptySearchKeepsEverything(t *testing.T) {
	users := exampleUsers()
	s := newLoadedStore(t, users)

	require.NoError(t, s.SetFilter(models.FilterSearch, "amy"))
	require.NoError(t, s.SetFilter(models.FilterSearch, ""))

	assert.Equal(t, users, s.View())
}

func TestStore_StatusPartition(t *testing.T) {
	rng := rand.New(rand.NewPCG(12, 12))
	users := randomUsers(rng, 80)
	s := newLoadedStore(t, users)

	counts := map[models.UserStatus]int{}
	for _, u := range users {
		counts[u.Status]++
	}

	for _, status := range []models.UserStatus{models.StatusActive, models.StatusInactive} {
		require.NoError(t, s.SetFilter(models.FilterStatus, string(status)))
		view := s.View()
		assert.Len(t, view, counts[status])
		for _, u := range view {
			assert.Equal(t, status, u.Status)
		}
	}

	require.NoError(t, s.SetFilter(models.FilterStatus, models.StatusAll))
	assert.Len(t, s.View(), len(users))
}

func TestStore_SortStabilityAndOrder(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 13))
	users := randomUsers(rng, 150)

	keys := []models.SortKey{
		models.SortID, models.SortName, models.SortEmail,
		models.SortStatus, models.SortAvatar, models.SortCreatedAt,
	}

	for _, key := range keys {
		for _, dir := range []models.Direction{models.Ascending, models.Descending} {
			t.Run(fmt.Sprintf("%s_%s", key, dir), func(t *testing.T) {
				s := newLoadedStore(t, users)
				require.NoError(t, s.SetFilter(models.FilterStatus, string(models.StatusActive)))
				filtered := s.View()

				require.NoError(t, s.SetSort(key))
				if dir == models.Descending {
					require.NoError(t, s.SetSort(key))
				}
				assert.Equal(t, dir, s.Snapshot().Sort.Direction)

				view := s.View()
				require.Len(t, view, len(filtered))

				position := make(map[string]int, len(filtered))
				for i, u := range filtered {
					position[u.ID] = i
				}

				cmp := compareBy(key)
				for i := 1; i < len(view); i++ {
					c := cmp(view[i-1], view[i])
					if dir == models.Descending {
						c = -c
					}
					assert.LessOrEqual(t, c, 0, "out of order at %d", i)
					if c == 0 {
						assert.Less(t, position[view[i-1].ID], position[view[i].ID],
							"tie at %d lost filtered order", i)
					}
				}
			})
		}
	}
}

func TestStore_SetSortTransitions(t *testing.T) {
	s := newLoadedStore(t, exampleUsers())

	require.NoError(t, s.SetSort(models.SortName))
	assert.Equal(t, models.Sort{Key: models.SortName, Direction: models.Ascending}, s.Snapshot().Sort)

	require.NoError(t, s.SetSort(models.SortName))
	assert.Equal(t, models.Descending, s.Snapshot().Sort.Direction)

	require.NoError(t, s.SetSort(models.SortName))
	assert.Equal(t, models.Ascending, s.Snapshot().Sort.Direction)

	require.NoError(t, s.SetSort(models.SortName))
	require.NoError(t, s.SetSort(models.SortEmail))
	assert.Equal(t, models.Sort{Key: models.SortEmail, Direction: models.Ascending}, s.Snapshot().Sort)

	require.NoError(t, s.SetSort("none"))
	assert.Equal(t, models.SortNone, s.Snapshot().Sort.Key)
	assert.Equal(t, []string{"Bob", "Amy", "Cid"}, names(s.View()))
}

func TestStore_SetSortRejectsUnknownKey(t *testing.T) {
	s := newLoadedStore(t, exampleUsers())
	before := s.Snapshot()

	err := s.SetSort("password")

	assert.ErrorIs(t, err, models.ErrInvalidSortKey)
	assert.Equal(t, before, s.Snapshot())
}

func TestStore_SetFilterRejectsUnknownKey(t *testing.T) {
	s := newLoadedStore(t, exampleUsers())
	before := s.Snapshot()

	err := s.SetFilter("role", "admin")

	assert.ErrorIs(t, err, models.ErrInvalidFilter)
	assert.Equal(t, before, s.Snapshot())
}

func TestStore_PaginationBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(14, 14))

	for _, n := range []int{0, 1, 9, 10, 11, 25, 30, 57} {
		t.Run(fmt.Sprintf("total_%d", n), func(t *testing.T) {
			s := newLoadedStore(t, randomUsers(rng, n), WithPageSize(10))
			view := s.View()

			first := s.Window()
			assert.Equal(t, len(view), first.Pagination.Total)
			if n > 0 {
				assert.Equal(t, view[0], first.Users[0])
			}

			s.SetPage(first.Pagination.TotalPages)
			last := s.Window()
			want := n % 10
			if want == 0 && n > 0 {
				want = 10
			}
			assert.Len(t, last.Users, want)
			assert.False(t, last.Pagination.HasNext)
		})
	}
}

func TestStore_SetPageClamps(t *testing.T) {
	rng := rand.New(rand.NewPCG(15, 15))
	s := newLoadedStore(t, randomUsers(rng, 25), WithPageSize(10))

	s.SetPage(0)
	assert.Equal(t, 1, s.Snapshot().Pagination.Page)

	s.SetPage(-3)
	assert.Equal(t, 1, s.Snapshot().Pagination.Page)

	s.SetPage(99)
	assert.Equal(t, 3, s.Snapshot().Pagination.Page)

	s.SetPage(2)
	w := s.Window()
	assert.Equal(t, 2, w.Pagination.Page)
	assert.True(t, w.Pagination.HasPrev)
	assert.True(t, w.Pagination.HasNext)
	assert.Len(t, w.Users, 10)
}

func TestStore_FilterResetsPage(t *testing.T) {
	rng := rand.New(rand.NewPCG(16, 16))
	s := newLoadedStore(t, randomUsers(rng, 40), WithPageSize(5))

	for _, step := range []struct{ key, value string }{
		{models.FilterSearch, "e"},
		{models.FilterStatus, string(models.StatusInactive)},
		{models.FilterSearch, ""},
		{models.FilterStatus, models.StatusAll},
	} {
		s.SetPage(3)
		require.NoError(t, s.SetFilter(step.key, step.value))
		assert.Equal(t, 1, s.Snapshot().Pagination.Page)
	}
}

func TestStore_DeleteClampsPage(t *testing.T) {
	users := exampleUsers()
	s := newLoadedStore(t, users, WithPageSize(1))

	s.SetPage(3)
	require.Equal(t, 3, s.Snapshot().Pagination.Page)

	assert.True(t, s.DeleteUser("3"))
	assert.Equal(t, 2, s.Snapshot().Pagination.Page)
}

func TestStore_DeleteUser(t *testing.T) {
	s := newLoadedStore(t, exampleUsers())

	assert.True(t, s.DeleteUser("2"))

	_, found := s.Get("2")
	assert.False(t, found)
	for _, u := range s.View() {
		assert.NotEqual(t, "2", u.ID)
	}
	for _, u := range s.Users() {
		assert.NotEqual(t, "2", u.ID)
	}
	assert.Equal(t, 2, s.Snapshot().Pagination.Total)
}

func TestStore_DeleteUnknownIsNoop(t *testing.T) {
	s := newLoadedStore(t, exampleUsers())
	require.NoError(t, s.SetSort(models.SortName))
	before := s.Snapshot()
	view := s.View()
	notified := 0
	s.Subscribe(func(Snapshot) { notified++ })

	assert.False(t, s.DeleteUser("missing"))
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, view, s.View())
	assert.Equal(t, exampleUsers(), s.Users())
	assert.Zero(t, notified)
}

func TestStore_UpdateUser(t *testing.T) {
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	users := exampleUsers()
	users[0].CreatedAt = created
	s := newLoadedStore(t, users)

	inactive := models.StatusInactive
	updated, found := s.UpdateUser("1", models.UserPatch{Status: &inactive})

	require.True(t, found)
	assert.Equal(t, models.StatusInactive, updated.Status)
	assert.Equal(t, "1", updated.ID)
	assert.Equal(t, created, updated.CreatedAt)

	got, _ := s.Get("1")
	assert.Equal(t, updated, got)

	require.NoError(t, s.SetFilter(models.FilterStatus, string(models.StatusActive)))
	assert.Equal(t, []string{"Cid"}, names(s.View()))
}

func TestStore_UpdateUnknownIsNoop(t *testing.T) {
	s := newLoadedStore(t, exampleUsers())
	name := "Zed"

	before := s.Snapshot()
	notified := 0
	s.Subscribe(func(Snapshot) { notified++ })

	_, found := s.UpdateUser("missing", models.UserPatch{Name: &name})

	assert.False(t, found)
	assert.Equal(t, exampleUsers(), s.Users())
	assert.Equal(t, before, s.Snapshot())
	assert.Zero(t, notified)
}

func TestStore_AddUserPrependsWithFreshIdentity(t *testing.T) {
	now := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	s := newLoadedStore(t, exampleUsers(), WithClock(func() time.Time { return now }))

	u := s.AddUser(models.UserInput{Name: "Dee", Email: "dee@example.com", Status: models.StatusActive})

	assert.True(t, strings.HasPrefix(u.ID, "user-"))
	assert.Equal(t, now, u.CreatedAt)
	assert.Equal(t, u, s.Users()[0])
	assert.Equal(t, u, s.View()[0])
	assert.Equal(t, 4, s.Snapshot().Pagination.Total)
}

func TestStore_AddUserIdentifiersAreUnique(t *testing.T) {
	s := newLoadedStore(t, exampleUsers())

	for i := 0; i < 200; i++ {
		s.AddUser(models.UserInput{Name: "Dup", Email: "dup@example.com", Status: models.StatusActive})
	}

	seen := map[string]bool{}
	for _, u := range s.Users() {
		assert.False(t, seen[u.ID], "duplicate id %s", u.ID)
		seen[u.ID] = true
	}
	assert.Len(t, seen, 203)
}

func TestStore_AddUserSkipsCollidingIdentifiers(t *testing.T) {
	ids := []string{"1", "2", "fresh"}
	var next int
	s := newLoadedStore(t, exampleUsers(), WithIDGenerator(func() string {
		id := ids[next]
		next++
		return id
	}))

	u := s.AddUser(models.UserInput{Name: "New", Email: "new@example.com", Status: models.StatusActive})

	assert.Equal(t, "fresh", u.ID)
}

func TestStore_IdempotentLoad(t *testing.T) {
	var calls atomic.Int32
	src := SourceFunc(func(ctx context.Context) ([]models.User, error) {
		calls.Add(1)
		if calls.Load() == 1 {
			return exampleUsers(), nil
		}
		return []models.User{{ID: "other", Name: "Other"}}, nil
	})
	s := New(src)

	require.NoError(t, s.Load(context.Background()))
	after := s.Users()

	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, after, s.Users())
	assert.Equal(t, int32(2), calls.Load())
	assert.True(t, s.Snapshot().Loaded)
}

func TestStore_LoadRepopulatesEmptyCollection(t *testing.T) {
	s := newLoadedStore(t, exampleUsers()[:1])

	require.True(t, s.DeleteUser("1"))
	require.Zero(t, s.Len())

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, 1, s.Len())
}

func TestStore_LoadKeepsCriteria(t *testing.T) {
	s := New(staticSource(exampleUsers()...))
	require.NoError(t, s.SetSort(models.SortName))
	require.NoError(t, s.SetFilter(models.FilterStatus, string(models.StatusActive)))

	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, []string{"Bob", "Cid"}, names(s.View()))
}

func TestStore_LoadingFlagWhileOutstanding(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	src := SourceFunc(func(ctx context.Context) ([]models.User, error) {
		close(started)
		<-release
		return exampleUsers(), nil
	})
	s := New(src)

	done := s.LoadAsync(context.Background())
	<-started
	assert.True(t, s.Snapshot().IsLoading)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, s.Snapshot().IsLoading)
	assert.Equal(t, 3, s.Len())
}

func TestStore_ConcurrentLoadsShareFetch(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	src := SourceFunc(func(ctx context.Context) ([]models.User, error) {
		calls.Add(1)
		<-release
		return exampleUsers(), nil
	})
	s := New(src)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Load(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return s.Snapshot().IsLoading }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 3, s.Len())
}

func TestStore_LoadCallerCancelStillSettles(t *testing.T) {
	release := make(chan struct{})
	src := SourceFunc(func(ctx context.Context) ([]models.User, error) {
		<-release
		return exampleUsers(), ctx.Err()
	})
	s := New(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap.Loaded && !snap.IsLoading
	}, time.Second, time.Millisecond)
	assert.Equal(t, 3, s.Len())
}

func TestStore_LoadFailureLeavesStateUntouched(t *testing.T) {
	fail := false
	src := SourceFunc(func(ctx context.Context) ([]models.User, error) {
		if fail {
			return nil, errors.New("connection refused")
		}
		return exampleUsers(), nil
	})
	s := New(src)
	require.NoError(t, s.Load(context.Background()))
	before := s.Users()

	fail = true
	err := s.Refresh(context.Background())

	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, before, s.Users())
	assert.False(t, s.Snapshot().IsLoading)
}

func TestStore_RefreshReplacesCollection(t *testing.T) {
	generation := 0
	src := SourceFunc(func(ctx context.Context) ([]models.User, error) {
		generation++
		return []models.User{{ID: fmt.Sprintf("gen-%d", generation), Name: "Gen"}}, nil
	})
	s := New(src)
	require.NoError(t, s.Load(context.Background()))

	require.NoError(t, s.Refresh(context.Background()))

	users := s.Users()
	require.Len(t, users, 1)
	assert.Equal(t, "gen-2", users[0].ID)
}

func TestStore_ObserversNotifiedPerChange(t *testing.T) {
	s := newLoadedStore(t, exampleUsers())

	var got []Snapshot
	cancel := s.Subscribe(func(snap Snapshot) { got = append(got, snap) })

	require.NoError(t, s.SetSort(models.SortName))
	require.NoError(t, s.SetFilter(models.FilterSearch, "b"))
	s.DeleteUser("missing")
	s.DeleteUser("1")

	require.Len(t, got, 3)
	assert.Equal(t, models.SortName, got[0].Sort.Key)
	assert.Equal(t, "b", got[1].Filter.Search)
	assert.Equal(t, 0, got[2].Pagination.Total)
	assert.Less(t, got[0].Version, got[1].Version)
	assert.Less(t, got[1].Version, got[2].Version)

	cancel()
	cancel()
	require.NoError(t, s.SetSort(models.SortEmail))
	assert.Len(t, got, 3)
}

func TestStore_ObserverMayReadStore(t *testing.T) {
	s := newLoadedStore(t, exampleUsers())

	var total int
	s.Subscribe(func(Snapshot) { total = len(s.View()) })

	require.NoError(t, s.SetFilter(models.FilterStatus, string(models.StatusInactive)))
	assert.Equal(t, 1, total)
}

func TestStore_ReadsReturnCopies(t *testing.T) {
	s := newLoadedStore(t, exampleUsers())

	s.View()[0].Name = "mutated"
	s.Users()[0].Name = "mutated"
	s.Window().Users[0].Name = "mutated"

	u, _ := s.Get("1")
	assert.Equal(t, "Bob", u.Name)
	assert.Equal(t, "Bob", s.View()[0].Name)
}

func TestDerive_DoesNotModifyInput(t *testing.T) {
	users := exampleUsers()

	Derive(users, models.Filter{Status: models.StatusAll}, models.Sort{Key: models.SortName, Direction: models.Descending})

	assert.Equal(t, exampleUsers(), users)
}

func TestDerive_EmptyStatusMeansAll(t *testing.T) {
	view := Derive(exampleUsers(), models.Filter{}, models.Sort{})

	assert.Len(t, view, 3)
}

func TestStore_LoadAsyncSettlesOnce(t *testing.T) {
	release := make(chan struct{})
	src := SourceFunc(func(ctx context.Context) ([]models.User, error) {
		<-release
		return exampleUsers(), nil
	})
	s := New(src)

	done := s.LoadAsync(context.Background())
	require.Eventually(t, func() bool { return s.Snapshot().IsLoading }, time.Second, time.Millisecond)
	close(release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("LoadAsync did not settle")
	}
	_, open := <-done
	assert.False(t, open)
	assert.Equal(t, 3, s.Len())
	assert.False(t, s.Snapshot().IsLoading)
}
