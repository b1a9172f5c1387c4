package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/roster/internal/models"
	pkghttp "github.com/BradenHooton/roster/pkg/http"
)

// writeServiceError maps a service error onto the JSON error envelope.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		pkghttp.WriteValidationError(w, "Validation failed", ve.Errors)
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "User not found")
	case errors.Is(err, models.ErrInvalidFilter):
		pkghttp.WriteBadRequest(w, "Unknown filter key")
	case errors.Is(err, models.ErrInvalidSortKey):
		pkghttp.WriteBadRequest(w, "Unknown sort key")
	case errors.Is(err, models.ErrBadRequest), errors.Is(err, pkghttp.ErrInvalidBody):
		pkghttp.WriteBadRequest(w, "Invalid request body")
	case errors.Is(err, models.ErrSourceUnavailable):
		pkghttp.WriteServiceUnavailable(w, "User data is temporarily unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The client went away or the request timed out; the load keeps settling.
		pkghttp.WriteServiceUnavailable(w, "Request cancelled before the roster settled")
	default:
		logger.Error("unhandled service error", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
