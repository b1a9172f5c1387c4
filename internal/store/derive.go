package store

import (
	"slices"
	"strings"

	"github.com/BradenHooton/roster/internal/models"
)

// Derive computes the filtered, sorted view of users.
//
// Records are kept in stored order, narrowed by a case-insensitive substring
// match of the search text against name or email, then by status unless the
// status filter is "All" (or empty), and finally stable-sorted by the sort
// key. Records with equal keys keep their filtered order in both directions.
// users is never modified.
func Derive(users []models.User, filter models.Filter, sort models.Sort) []models.User {
	search := strings.ToLower(filter.Search)
	status := filter.Status

	view := make([]models.User, 0, len(users))
	for _, u := range users {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		if status != "" && status != models.StatusAll && string(u.Status) != status {
			continue
		}
		view = append(view, u)
	}

	if sort.Key == models.SortNone {
		return view
	}

	cmp := compareBy(sort.Key)
	if sort.Direction == models.Descending {
		asc := cmp
		cmp = func(a, b models.User) int { return asc(b, a) }
	}
	slices.SortStableFunc(view, cmp)
	return view
}

// compareBy returns the natural ordering for key: lexicographic for
// strings, chronological for timestamps.
func compareBy(key models.SortKey) func(a, b models.User) int {
	switch key {
	case models.SortID:
		return func(a, b models.User) int { return strings.Compare(a.ID, b.ID) }
	case models.SortName:
		return func(a, b models.User) int { return strings.Compare(a.Name, b.Name) }
	case models.SortEmail:
		return func(a, b models.User) int { return strings.Compare(a.Email, b.Email) }
	case models.SortStatus:
		return func(a, b models.User) int { return strings.Compare(string(a.Status), string(b.Status)) }
	case models.SortAvatar:
		return func(a, b models.User) int { return strings.Compare(a.Avatar, b.Avatar) }
	case models.SortCreatedAt:
		return func(a, b models.User) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
	return func(a, b models.User) int { return 0 }
}
