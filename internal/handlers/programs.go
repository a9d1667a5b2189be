package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/internal/services"
)

type programRequest struct {
	Name        *string                `json:"name"`
	Description *string                `json:"description"`
	Phases      *[]models.ProgramPhase `json:"phases"`
}

type weekRequest struct {
	WeekNumber int              `json:"week_number"`
	Workouts   []models.Workout `json:"workouts"`
	Version    *int64           `json:"version,omitempty"`
}

type noteRequest struct {
	Body string `json:"body"`
}

type workoutLogRequest struct {
	WeekID      string                     `json:"week_id"`
	WorkoutID   string                     `json:"workout_id"`
	Performed   []models.PerformedExercise `json:"performed"`
	Notes       string                     `json:"notes"`
	PerformedAt time.Time                  `json:"performed_at"`
}

// ProgramHandler serves /api/programs, its weeks and notes, and /api/workout-logs.
type ProgramHandler struct {
	Programs ProgramService
	Logs     WorkoutLogService
}

// Create handles POST /api/programs.
func (h ProgramHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req programRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	program, err := h.Programs.CreateProgram(r.Context(), ownerID, services.ProgramInput{
		Name: req.Name, Description: req.Description, Phases: req.Phases,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, ok("program", program))
}

// List handles GET /api/programs.
func (h ProgramHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	programs, err := h.Programs.ListPrograms(r.Context(), ownerID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("programs", programs))
}

// Get handles GET /api/programs/{programID}, returning the program with its weeks.
func (h ProgramHandler) Get(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	tree, err := h.Programs.GetProgramTree(r.Context(), callerID, chi.URLParam(r, "programID"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("program", tree))
}

// Update handles PATCH /api/programs/{programID}.
func (h ProgramHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req programRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	program, err := h.Programs.UpdateProgram(r.Context(), callerID, chi.URLParam(r, "programID"), services.ProgramInput{
		Name: req.Name, Description: req.Description, Phases: req.Phases,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("program", program))
}

// Delete handles DELETE /api/programs/{programID}; its weeks and notes go with it.
func (h ProgramHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := h.Programs.DeleteProgram(r.Context(), callerID, chi.URLParam(r, "programID")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, message("Program deleted"))
}

// AddWeek handles POST /api/programs/{programID}/weeks.
func (h ProgramHandler) AddWeek(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req weekRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	week, err := h.Programs.AddWeek(r.Context(), callerID, chi.URLParam(r, "programID"), req.WeekNumber, req.Workouts)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, ok("week", week))
}

// UpdateWeek handles PUT /api/programs/weeks/{weekID}, replacing the workouts.
func (h ProgramHandler) UpdateWeek(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req weekRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	version, err := expectedVersion(r, req.Version)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	week, err := h.Programs.UpdateWeek(r.Context(), callerID, chi.URLParam(r, "weekID"), req.Workouts, version)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("week", week))
}

// DeleteWeek handles DELETE /api/programs/weeks/{weekID}.
func (h ProgramHandler) DeleteWeek(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := h.Programs.DeleteWeek(r.Context(), callerID, chi.URLParam(r, "weekID")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, message("Week deleted"))
}

// AddNote handles POST /api/programs/{programID}/notes.
func (h ProgramHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	note, err := h.Programs.AddNote(r.Context(), callerID, chi.URLParam(r, "programID"), req.Body)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, ok("note", note))
}

// ListNotes handles GET /api/programs/{programID}/notes?cursor=&limit=.
func (h ProgramHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	page, err := h.Programs.ListNotes(r.Context(), callerID, chi.URLParam(r, "programID"), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("notes", page))
}

// DeleteNote handles DELETE /api/programs/notes/{noteID}.
func (h ProgramHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := h.Programs.DeleteNote(r.Context(), callerID, chi.URLParam(r, "noteID")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, message("Note deleted"))
}

// LogWorkout handles POST /api/workout-logs.
func (h ProgramHandler) LogWorkout(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req workoutLogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	entry, err := h.Logs.LogWorkout(r.Context(), userID, services.LogWorkoutInput{
		WeekID:      req.WeekID,
		WorkoutID:   req.WorkoutID,
		Performed:   req.Performed,
		Notes:       req.Notes,
		PerformedAt: req.PerformedAt,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, ok("log", entry))
}

// ListLogs handles GET /api/workout-logs?program_id=&limit=.
func (h ProgramHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	logs, err := h.Logs.ListLogs(r.Context(), userID, r.URL.Query().Get("program_id"), limit)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("logs", logs))
}
