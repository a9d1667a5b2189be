package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/internal/pagination"
)

// FollowHandler serves /api/follows.
type FollowHandler struct {
	Follows FollowService
}

// Follow handles POST /api/follows/{userID}. The status tells whether the
// follow took effect or is waiting for approval.
func (h FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	status, err := h.Follows.Follow(r.Context(), callerID, chi.URLParam(r, "userID"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	code := http.StatusOK
	if status == models.FollowStatusRequested {
		code = http.StatusAccepted
	}
	respondJSON(r.Context(), w, code, ok("status", status))
}

// Unfollow handles DELETE /api/follows/{userID}; it also withdraws a pending request.
func (h FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.Follows.Unfollow, "Unfollowed")
}

// AcceptRequest handles POST /api/follows/requests/{userID}/accept.
func (h FollowHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.Follows.AcceptRequest, "Follow request accepted")
}

// DeclineRequest handles POST /api/follows/requests/{userID}/decline.
func (h FollowHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.Follows.DeclineRequest, "Follow request declined")
}

// RemoveFollower handles DELETE /api/follows/followers/{userID}.
func (h FollowHandler) RemoveFollower(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.Follows.RemoveFollower, "Follower removed")
}

func (h FollowHandler) action(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, callerID, otherID string) error, done string) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := fn(r.Context(), callerID, chi.URLParam(r, "userID")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, message(done))
}

type pageFunc func(ctx context.Context, userID, cursor string, limit int) (*pagination.Result[*models.ProfileResponse], error)

// Followers handles GET /api/follows/{userID}/followers.
func (h FollowHandler) Followers(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, chi.URLParam(r, "userID"), h.Follows.Followers, "followers")
}

// Following handles GET /api/follows/{userID}/following.
func (h FollowHandler) Following(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, chi.URLParam(r, "userID"), h.Follows.Following, "following")
}

// Requests handles GET /api/follows/requests, the caller's pending requests.
func (h FollowHandler) Requests(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	h.page(w, r, callerID, h.Follows.Requests, "requests")
}

func (h FollowHandler) page(w http.ResponseWriter, r *http.Request, userID string, fn pageFunc, key string) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	page, err := fn(r.Context(), userID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok(key, page))
}
