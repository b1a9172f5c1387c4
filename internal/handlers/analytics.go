package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/roster/internal/services"
	pkghttp "github.com/BradenHooton/roster/pkg/http"
)

// AnalyticsService defines the interface for the analytics overview
type AnalyticsService interface {
	Overview(ctx context.Context) (*services.Overview, error)
}

// AnalyticsHandler serves aggregate roster metrics
type AnalyticsHandler struct {
	service AnalyticsService
	logger  *slog.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(service AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, logger: logger}
}

// GetOverview handles GET /api/analytics
func (h *AnalyticsHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, overview)
}
