package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/fitcoach-backend/internal/nutrition"
	"github.com/AnshRaj112/fitcoach-backend/internal/services"
)

type calculateRequest struct {
	// Biometrics overrides the caller's profile when given.
	Biometrics   *nutrition.Biometrics `json:"biometrics"`
	PhaseType    string                `json:"phase_type"`
	WeeklyChange *float64              `json:"weekly_change"`
}

type phaseRequest struct {
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	WeeklyChange *float64  `json:"weekly_change"`
}

func (p phaseRequest) input() services.PhaseInput {
	return services.PhaseInput{
		Name:         p.Name,
		Type:         p.Type,
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
		WeeklyChange: p.WeeklyChange,
	}
}

type nutritionProgramRequest struct {
	Name   string         `json:"name"`
	Phases []phaseRequest `json:"phases"`
}

type mealRequest struct {
	ProgramID   string                 `json:"program_id"`
	Name        string                 `json:"name"`
	Ingredients []nutrition.Ingredient `json:"ingredients"`
	Version     *int64                 `json:"version,omitempty"`
}

type mealLogRequest struct {
	MealID   string    `json:"meal_id"`
	Servings float64   `json:"servings"`
	EatenAt  time.Time `json:"eaten_at"`
}

// NutritionHandler serves /api/nutrition, /api/meals and /api/meal-logs.
type NutritionHandler struct {
	Nutrition NutritionService
}

// Calculate handles POST /api/nutrition/calculate.
func (h NutritionHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req calculateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	plan, err := h.Nutrition.Calculate(r.Context(), userID, req.Biometrics, req.PhaseType, req.WeeklyChange)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("plan", plan))
}

// CreateProgram handles POST /api/nutrition/programs.
func (h NutritionHandler) CreateProgram(w http.ResponseWriter, r *http.Request) {
	ownerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req nutritionProgramRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	phases := make([]services.PhaseInput, 0, len(req.Phases))
	for _, p := range req.Phases {
		phases = append(phases, p.input())
	}
	program, err := h.Nutrition.CreateProgram(r.Context(), ownerID, req.Name, phases)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, ok("program", program))
}

// ListPrograms handles GET /api/nutrition/programs.
func (h NutritionHandler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	ownerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	programs, err := h.Nutrition.ListPrograms(r.Context(), ownerID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("programs", programs))
}

// GetProgram handles GET /api/nutrition/programs/{programID}, with its meal templates.
func (h NutritionHandler) GetProgram(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	tree, err := h.Nutrition.GetProgram(r.Context(), callerID, chi.URLParam(r, "programID"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("program", tree))
}

// DeleteProgram handles DELETE /api/nutrition/programs/{programID}.
func (h NutritionHandler) DeleteProgram(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := h.Nutrition.DeleteProgram(r.Context(), callerID, chi.URLParam(r, "programID")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, message("Nutrition program deleted"))
}

// AddPhase handles POST /api/nutrition/programs/{programID}/phases.
func (h NutritionHandler) AddPhase(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req phaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	phase, err := h.Nutrition.AddPhase(r.Context(), callerID, chi.URLParam(r, "programID"), req.input())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, ok("phase", phase))
}

// RecalculatePhase handles POST /api/nutrition/programs/{programID}/phases/{phaseID}/recalculate.
func (h NutritionHandler) RecalculatePhase(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	phase, err := h.Nutrition.RecalculatePhase(r.Context(), callerID, chi.URLParam(r, "programID"), chi.URLParam(r, "phaseID"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("phase", phase))
}

// CreateMeal handles POST /api/meals.
func (h NutritionHandler) CreateMeal(w http.ResponseWriter, r *http.Request) {
	ownerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req mealRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	meal, err := h.Nutrition.CreateMeal(r.Context(), ownerID, req.ProgramID, req.Name, req.Ingredients)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, ok("meal", meal))
}

// ListMeals handles GET /api/meals?program_id=.
func (h NutritionHandler) ListMeals(w http.ResponseWriter, r *http.Request) {
	ownerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	meals, err := h.Nutrition.ListMeals(r.Context(), ownerID, r.URL.Query().Get("program_id"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("meals", meals))
}

// UpdateMeal handles PUT /api/meals/{mealID}.
func (h NutritionHandler) UpdateMeal(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req mealRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	version, err := expectedVersion(r, req.Version)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	meal, err := h.Nutrition.UpdateMeal(r.Context(), callerID, chi.URLParam(r, "mealID"), req.Name, req.Ingredients, version)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("meal", meal))
}

// DeleteMeal handles DELETE /api/meals/{mealID}. Logged meals keep their snapshot.
func (h NutritionHandler) DeleteMeal(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := h.Nutrition.DeleteMeal(r.Context(), callerID, chi.URLParam(r, "mealID")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, message("Meal deleted"))
}

// LogMeal handles POST /api/meal-logs.
func (h NutritionHandler) LogMeal(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req mealLogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	entry, err := h.Nutrition.LogMeal(r.Context(), userID, req.MealID, req.Servings, req.EatenAt)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, ok("log", entry))
}

// DailyLogs handles GET /api/meal-logs?from=YYYY-MM-DD&to=YYYY-MM-DD. from defaults to today (UTC).
func (h NutritionHandler) DailyLogs(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	q := r.URL.Query()
	from := q.Get("from")
	if from == "" {
		from = time.Now().UTC().Format("2006-01-02")
	}
	days, err := h.Nutrition.DailyLogs(r.Context(), userID, from, q.Get("to"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("days", days))
}
