package services

import (
	"context"
	"log/slog"

	"github.com/BradenHooton/roster/internal/models"
)

// ActivityGenerator produces synthetic activity entries for a user.
type ActivityGenerator interface {
	GenerateActivities(userID string, count int) []models.Activity
}

// ActivityService serves the recent-activity feed of the user detail view.
type ActivityService struct {
	rosters RosterResolver
	gen     ActivityGenerator
	count   int
	logger  *slog.Logger
}

// NewActivityService creates a new ActivityService producing count entries per call.
func NewActivityService(rosters RosterResolver, gen ActivityGenerator, count int, logger *slog.Logger) *ActivityService {
	return &ActivityService{
		rosters: rosters,
		gen:     gen,
		count:   count,
		logger:  logger,
	}
}

// ListActivities returns a freshly generated feed for the user with id.
// Every call produces new entries; nothing is stored.
func (s *ActivityService) ListActivities(ctx context.Context, userID string) ([]models.Activity, error) {
	r, err := s.rosters(ctx)
	if err != nil {
		return nil, err
	}
	if err := ensureLoaded(ctx, r); err != nil {
		s.logger.Error("activities: failed to load roster", slog.Any("error", err))
		return nil, err
	}

	if _, ok := r.Get(userID); !ok {
		s.logger.Info("user not found", slog.String("user_id", userID))
		return nil, models.ErrNotFound
	}

	return s.gen.GenerateActivities(userID, s.count), nil
}
