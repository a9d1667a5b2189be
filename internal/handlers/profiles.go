package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/internal/nutrition"
	"github.com/AnshRaj112/fitcoach-backend/internal/services"
)

const maxAvatarBytes = 5 << 20

var avatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type updateProfileRequest struct {
	DisplayName *string               `json:"display_name"`
	Bio         *string               `json:"bio"`
	Visibility  *string               `json:"visibility"`
	Biometrics  *nutrition.Biometrics `json:"biometrics"`
}

type sectionRequest struct {
	Title string               `json:"title"`
	Items []models.SectionItem `json:"items"`
}

type updateSectionRequest struct {
	Title *string              `json:"title"`
	Items []models.SectionItem `json:"items"`
}

// ProfileHandler serves /api/profiles.
type ProfileHandler struct {
	Profiles ProfileService
}

// Me handles GET /api/profiles/me.
func (h ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	h.render(w, r, userID, userID)
}

// Get handles GET /api/profiles/{userID}.
func (h ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	h.render(w, r, viewerID, chi.URLParam(r, "userID"))
}

func (h ProfileHandler) render(w http.ResponseWriter, r *http.Request, viewerID, userID string) {
	profile, err := h.Profiles.Get(r.Context(), viewerID, userID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("profile", profile))
}

// Overview handles GET /api/profiles/{userID}/overview.
func (h ProfileHandler) Overview(w http.ResponseWriter, r *http.Request) {
	viewerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	overview, err := h.Profiles.Overview(r.Context(), viewerID, chi.URLParam(r, "userID"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("overview", overview))
}

// Update handles PATCH /api/profiles/me.
func (h ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	profile, err := h.Profiles.Update(r.Context(), userID, services.ProfileUpdate{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Visibility:  req.Visibility,
		Biometrics:  req.Biometrics,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("profile", profile))
}

// CreateSection handles POST /api/profiles/me/sections.
func (h ProfileHandler) CreateSection(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req sectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	profile, err := h.Profiles.CreateSection(r.Context(), userID, models.CustomSection{Title: req.Title, Items: req.Items})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, ok("profile", profile))
}

// UpdateSection handles PUT /api/profiles/me/sections/{title}.
func (h ProfileHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req updateSectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	profile, err := h.Profiles.UpdateSection(r.Context(), userID, chi.URLParam(r, "title"), req.Title, req.Items)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("profile", profile))
}

// DeleteSection handles DELETE /api/profiles/me/sections/{title}.
func (h ProfileHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := h.Profiles.DeleteSection(r.Context(), userID, chi.URLParam(r, "title")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, message("Section deleted"))
}

// UploadAvatar handles POST /api/profiles/me/avatar as multipart with a "file" part.
func (h ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+(64<<10))
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(r.Context(), w, apperror.Invalid("file", "Avatar must be at most 5MB"))
			return
		}
		respondError(r.Context(), w, apperror.BadRequest("failed to parse form").Wrap(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(r.Context(), w, apperror.Invalid("file", "No file provided"))
		return
	}
	defer file.Close()

	contentType := strings.ToLower(header.Header.Get("Content-Type"))
	if !avatarTypes[contentType] {
		respondError(r.Context(), w, apperror.Invalid("file", "Avatar must be a JPEG, PNG or WebP image"))
		return
	}

	profile, err := h.Profiles.UploadAvatar(r.Context(), userID, file)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("profile", profile).with("message", "Avatar uploaded successfully"))
}

// Search handles GET /api/profiles?q=&cursor=&limit=.
func (h ProfileHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	q := r.URL.Query()
	page, err := h.Profiles.Search(r.Context(), q.Get("q"), q.Get("cursor"), limit)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("profiles", page))
}
