package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds with service health information.
type HealthHandler struct {
	Mongo Pinger
	Redis Pinger
}

// Handle implements GET /health. Mongo is required; a Redis outage only
// degrades the service since its users fail open.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"mongo": "ok", "redis": "ok"}
	status := http.StatusOK
	if h.Mongo != nil {
		if err := h.Mongo.Ping(ctx); err != nil {
			checks["mongo"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	if h.Redis != nil {
		if err := h.Redis.Ping(ctx); err != nil {
			checks["redis"] = "degraded"
		}
	}
	respondJSON(r.Context(), w, status, envelope{"success": status == http.StatusOK, "status": checks})
}
