package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/BradenHooton/roster/internal/models"
)

// trendDays is the length of the signup trend in calendar days.
const trendDays = 7

// StatusCount is one slice of the status breakdown.
type StatusCount struct {
	Status models.UserStatus `json:"status"`
	Count  int               `json:"count"`
}

// TrendPoint is the number of signups on one UTC calendar day.
type TrendPoint struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Overview contains aggregate roster metrics for the analytics view.
type Overview struct {
	TotalUsers      int           `json:"totalUsers"`
	ActiveUsers     int           `json:"activeUsers"`
	InactiveUsers   int           `json:"inactiveUsers"`
	StatusBreakdown []StatusCount `json:"statusBreakdown"`
	SignupTrend     []TrendPoint  `json:"signupTrend"`
}

// AnalyticsService aggregates roster data for the analytics endpoint.
type AnalyticsService struct {
	rosters RosterResolver
	logger  *slog.Logger
	now     func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(rosters RosterResolver, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{
		rosters: rosters,
		logger:  logger,
		now:     time.Now,
	}
}

// Overview returns counts, the status breakdown and the signup trend of the
// caller's full collection, ignoring the current filter. An empty roster
// reports zeros.
func (s *AnalyticsService) Overview(ctx context.Context) (*Overview, error) {
	r, err := s.rosters(ctx)
	if err != nil {
		return nil, err
	}
	if err := ensureLoaded(ctx, r); err != nil {
		s.logger.Error("analytics: failed to load roster", slog.Any("error", err))
		return nil, err
	}

	users := r.Users()

	active, inactive := 0, 0
	for _, u := range users {
		switch u.Status {
		case models.StatusActive:
			active++
		case models.StatusInactive:
			inactive++
		}
	}

	return &Overview{
		TotalUsers:    len(users),
		ActiveUsers:   active,
		InactiveUsers: inactive,
		StatusBreakdown: []StatusCount{
			{Status: models.StatusActive, Count: active},
			{Status: models.StatusInactive, Count: inactive},
		},
		SignupTrend: signupTrend(users, s.now()),
	}, nil
}

// signupTrend buckets users by UTC creation day over the trendDays days
// ending today, oldest first.
func signupTrend(users []models.User, now time.Time) []TrendPoint {
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	first := today.AddDate(0, 0, -(trendDays - 1))

	points := make([]TrendPoint, trendDays)
	for i := range points {
		day := first.AddDate(0, 0, i)
		points[i] = TrendPoint{
			Date:  day.Format(time.DateOnly),
			Label: day.Format("Mon"),
		}
	}

	for _, u := range users {
		created := u.CreatedAt.UTC()
		if created.Before(first) || !created.Before(today.AddDate(0, 0, 1)) {
			continue
		}
		idx := int(created.Sub(first) / (24 * time.Hour))
		points[idx].Count++
	}
	return points
}
