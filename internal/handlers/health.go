package handlers

import (
	"net/http"

	pkghttp "github.com/BradenHooton/roster/pkg/http"
)

// SessionCounter reports the number of live sessions
type SessionCounter interface {
	Count() int
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// Health returns a handler for GET /health
func Health(sessions SessionCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "healthy",
			Sessions: sessions.Count(),
		})
	}
}
