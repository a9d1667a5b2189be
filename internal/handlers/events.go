package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/internal/services"
)

type createEventRequest struct {
	Title    string               `json:"title"`
	StartsAt time.Time            `json:"starts_at"`
	EndsAt   time.Time            `json:"ends_at"`
	Admins   []string             `json:"admins"`
	Invitees []string             `json:"invitees"`
	Metadata models.EventMetadata `json:"metadata"`
}

type updateEventRequest struct {
	Title    *string               `json:"title"`
	StartsAt *time.Time            `json:"starts_at"`
	EndsAt   *time.Time            `json:"ends_at"`
	Metadata *models.EventMetadata `json:"metadata"`
	Version  *int64                `json:"version,omitempty"`
}

type respondEventRequest struct {
	Status string `json:"status"`
}

type inviteRequest struct {
	UserIDs []string `json:"user_ids"`
}

// EventHandler serves /api/events.
type EventHandler struct {
	Events EventService
}

// Create handles POST /api/events.
func (h EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	creatorID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req createEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	event, err := h.Events.Create(r.Context(), creatorID, services.EventInput{
		Title:    req.Title,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		Admins:   req.Admins,
		Invitees: req.Invitees,
		Metadata: req.Metadata,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, ok("event", event))
}

// Get handles GET /api/events/{eventID}.
func (h EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	event, err := h.Events.Get(r.Context(), viewerID, chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("event", event))
}

// Mine handles GET /api/events?from=&to= with RFC 3339 bounds.
func (h EventHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	from, err := queryTime(r, "from")
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	events, err := h.Events.MyEvents(r.Context(), userID, from, to)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("events", events).with("total", len(events)))
}

// Update handles PATCH /api/events/{eventID}.
func (h EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req updateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	version, err := expectedVersion(r, req.Version)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	event, err := h.Events.Update(r.Context(), callerID, chi.URLParam(r, "eventID"), services.EventUpdate{
		Title:    req.Title,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		Metadata: req.Metadata,
	}, version)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("event", event))
}

// Delete handles DELETE /api/events/{eventID}.
func (h EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := h.Events.Delete(r.Context(), callerID, chi.URLParam(r, "eventID")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, message("Event deleted"))
}

// Respond handles POST /api/events/{eventID}/respond with Accepted, Declined or Tentative.
func (h EventHandler) Respond(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req respondEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := h.Events.Respond(r.Context(), userID, chi.URLParam(r, "eventID"), req.Status); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("status", req.Status))
}

// Invite handles POST /api/events/{eventID}/invite.
func (h EventHandler) Invite(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req inviteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	event, err := h.Events.Invite(r.Context(), callerID, chi.URLParam(r, "eventID"), req.UserIDs)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("event", event))
}

func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperror.Invalid(name, "Must be an RFC 3339 timestamp")
	}
	return &t, nil
}
