package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/internal/services"
)

// groupRequest is used for create and update; omitted fields are left unchanged on update.
type groupRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	Visibility  *string   `json:"visibility"`
	Version     *int64    `json:"version,omitempty"`
}

func (req groupRequest) input() services.GroupInput {
	return services.GroupInput{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
		Visibility:  req.Visibility,
	}
}

// GroupHandler serves /api/groups.
type GroupHandler struct {
	Groups GroupService
}

// Create handles POST /api/groups.
func (h GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req groupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	group, err := h.Groups.Create(r.Context(), ownerID, req.input())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, ok("group", group).with("message", "Group created successfully"))
}

// Get handles GET /api/groups/{groupID}.
func (h GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	group, err := h.Groups.Get(r.Context(), viewerID, chi.URLParam(r, "groupID"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("group", group))
}

// Search handles GET /api/groups?q=&tag=&limit=.
func (h GroupHandler) Search(w http.ResponseWriter, r *http.Request) {
	viewerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	q := r.URL.Query()
	groups, err := h.Groups.Search(r.Context(), viewerID, q.Get("q"), q.Get("tag"), limit)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("groups", groups).with("total", len(groups)))
}

// Mine handles GET /api/groups/mine.
func (h GroupHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	groups, err := h.Groups.MyGroups(r.Context(), userID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("groups", groups).with("total", len(groups)))
}

// Update handles PATCH /api/groups/{groupID}. The version comes from the body or If-Match.
func (h GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req groupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	version, err := expectedVersion(r, req.Version)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	group, err := h.Groups.Update(r.Context(), callerID, chi.URLParam(r, "groupID"), req.input(), version)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("group", group).with("message", "Group updated successfully"))
}

// Delete handles DELETE /api/groups/{groupID}.
func (h GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := h.Groups.Delete(r.Context(), callerID, chi.URLParam(r, "groupID")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, message("Group deleted successfully"))
}

// Join handles POST /api/groups/{groupID}/join. Private groups answer 202 with role "requested".
func (h GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	role, err := h.Groups.Join(r.Context(), callerID, chi.URLParam(r, "groupID"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	code := http.StatusOK
	if role == models.RoleRequested {
		code = http.StatusAccepted
	}
	respondJSON(r.Context(), w, code, ok("role", role))
}

// Leave handles POST /api/groups/{groupID}/leave.
func (h GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := h.Groups.Leave(r.Context(), callerID, chi.URLParam(r, "groupID")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, message("Left group"))
}

// AcceptRequest handles POST /api/groups/{groupID}/requests/{userID}/accept.
func (h GroupHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.member(w, r, h.Groups.AcceptRequest, "Join request accepted")
}

// DeclineRequest handles POST /api/groups/{groupID}/requests/{userID}/decline.
func (h GroupHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	h.member(w, r, h.Groups.DeclineRequest, "Join request declined")
}

// RemoveMember handles DELETE /api/groups/{groupID}/members/{userID}.
func (h GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	h.member(w, r, h.Groups.RemoveMember, "Member removed")
}

func (h GroupHandler) member(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, callerID, groupID, userID string) error, done string) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := fn(r.Context(), callerID, chi.URLParam(r, "groupID"), chi.URLParam(r, "userID")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, message(done))
}
