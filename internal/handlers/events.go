package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/roster/internal/store"
)

// DefaultHeartbeat is the interval between keep-alive comments on an idle stream.
const DefaultHeartbeat = 15 * time.Second

// SnapshotWatcher streams roster snapshots until ctx is done
type SnapshotWatcher interface {
	Watch(ctx context.Context) (<-chan store.Snapshot, error)
}

// EventsHandler streams roster changes as Server-Sent Events
type EventsHandler struct {
	watcher   SnapshotWatcher
	logger    *slog.Logger
	heartbeat time.Duration
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(watcher SnapshotWatcher, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		watcher:   watcher,
		logger:    logger,
		heartbeat: DefaultHeartbeat,
	}
}

// Stream handles GET /api/users/events. Each change produces one "snapshot"
// event whose id is the snapshot version; stale versions are skipped.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	updates, err := h.watcher.Watch(ctx)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Error("event stream not supported", slog.Any("error", err))
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	var sent uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case snap := <-updates:
			if sent > 0 && snap.Version <= sent {
				continue
			}
			data, err := json.Marshal(snap)
			if err != nil {
				h.logger.Error("failed to encode snapshot", slog.Any("error", err))
				return
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\nid: %d\ndata: %s\n\n", snap.Version, data); err != nil {
				return
			}
			sent = snap.Version
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
