package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/roster/internal/models"
	pkghttp "github.com/BradenHooton/roster/pkg/http"
	"github.com/go-chi/chi/v5"
)

// ActivityService defines the interface for the user activity feed
type ActivityService interface {
	ListActivities(ctx context.Context, userID string) ([]models.Activity, error)
}

// ActivityHandler serves the recent activity of a user
type ActivityHandler struct {
	service ActivityService
	logger  *slog.Logger
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(service ActivityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{service: service, logger: logger}
}

// ActivitiesResponse wraps a user's activity feed
type ActivitiesResponse struct {
	Activities []models.Activity `json:"activities"`
}

// ListActivities handles GET /api/users/{id}/activities
func (h *ActivityHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "User ID is required")
		return
	}

	activities, err := h.service.ListActivities(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if activities == nil {
		activities = []models.Activity{}
	}
	pkghttp.WriteJSON(w, http.StatusOK, ActivitiesResponse{Activities: activities})
}
