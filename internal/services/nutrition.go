package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/internal/nutrition"
	"github.com/AnshRaj112/fitcoach-backend/internal/repositories"
)

const (
	dayLayout    = "2006-01-02"
	maxLogDays   = 31
	maxServings  = 20
	maxMealNames = 100
)

// NutritionService owns nutrition programs, meal templates and meal logs.
// Phase targets are stored when computed and only change on recalculation.
type NutritionService struct {
	coord    *Coordinator
	programs NutritionProgramStore
	meals    MealStore
	mealLogs MealLogStore
	profiles ProfileStore
	log      zerolog.Logger
	now      func() time.Time
}

func NewNutritionService(coord *Coordinator, programs NutritionProgramStore, meals MealStore, mealLogs MealLogStore, profiles ProfileStore, log zerolog.Logger) *NutritionService {
	return &NutritionService{
		coord:    coord,
		programs: programs,
		meals:    meals,
		mealLogs: mealLogs,
		profiles: profiles,
		log:      log,
		now:      time.Now,
	}
}

// calcError maps calculator validation failures to a 400.
func calcError(prefix string, err error) error {
	var ve *nutrition.ValidationError
	if errors.As(err, &ve) {
		return apperror.Invalid(prefix+ve.Field, ve.Message)
	}
	return apperror.Classify(err)
}

// biometrics returns the user's stored biometrics.
func (s *NutritionService) biometrics(ctx context.Context, userID string) (nutrition.Biometrics, error) {
	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nutrition.Biometrics{}, apperror.Classify(err)
	}
	if p == nil {
		return nutrition.Biometrics{}, apperror.NotFound("profile", userID)
	}
	if p.Biometrics == nil {
		return nutrition.Biometrics{}, apperror.BadRequest("profile has no biometrics; add them before calculating targets")
	}
	return *p.Biometrics, nil
}

// Calculate computes a plan from the given biometrics, or from the caller's
// profile when none are given. Nothing is stored.
func (s *NutritionService) Calculate(ctx context.Context, userID string, b *nutrition.Biometrics, phaseType string, weeklyChange *float64) (nutrition.Plan, error) {
	pt, err := nutrition.ParsePhaseType(phaseType)
	if err != nil {
		return nutrition.Plan{}, calcError("", err)
	}
	var bio nutrition.Biometrics
	if b != nil {
		bio = *b
	} else if bio, err = s.biometrics(ctx, userID); err != nil {
		return nutrition.Plan{}, err
	}
	plan, err := nutrition.Calculate(bio, pt, weeklyChange)
	if err != nil {
		return nutrition.Plan{}, calcError("", err)
	}
	return plan, nil
}

type PhaseInput struct {
	Name         string
	Type         string
	StartDate    time.Time
	EndDate      time.Time
	WeeklyChange *float64
}

// phase validates in and computes its targets from bio.
func (s *NutritionService) phase(in PhaseInput, bio nutrition.Biometrics) (models.NutritionPhase, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > maxMealNames {
		return models.NutritionPhase{}, apperror.Invalid("phases.name", "Phase name must be 1-100 characters")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() || !in.StartDate.Before(in.EndDate) {
		return models.NutritionPhase{}, apperror.Invalid("phases.endDate", "Phase must start before it ends")
	}
	pt, err := nutrition.ParsePhaseType(in.Type)
	if err != nil {
		return models.NutritionPhase{}, calcError("phases.", err)
	}
	plan, err := nutrition.Calculate(bio, pt, in.WeeklyChange)
	if err != nil {
		return models.NutritionPhase{}, calcError("phases.", err)
	}
	return models.NutritionPhase{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Type:         pt,
		StartDate:    in.StartDate.UTC(),
		EndDate:      in.EndDate.UTC(),
		WeeklyChange: plan.WeeklyChange,
		BMR:          plan.BMR,
		TDEE:         plan.TDEE,
		Targets:      plan.Targets,
		CalculatedAt: s.now().UTC(),
	}, nil
}

func overlaps(phases []models.NutritionPhase, p models.NutritionPhase) bool {
	for _, other := range phases {
		if p.StartDate.Before(other.EndDate) && other.StartDate.Before(p.EndDate) {
			return true
		}
	}
	return false
}

// CreateProgram creates a nutrition program whose phase targets come from
// the owner's profile biometrics.
func (s *NutritionService) CreateProgram(ctx context.Context, ownerID, name string, phases []PhaseInput) (*models.NutritionProgram, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxMealNames {
		return nil, apperror.Invalid("name", "Name must be 1-100 characters")
	}
	owner, err := repositories.ObjectID("userId", ownerID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	p := &models.NutritionProgram{OwnerID: owner, Name: name, Phases: []models.NutritionPhase{}}
	if len(phases) > 0 {
		bio, err := s.biometrics(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		for _, in := range phases {
			ph, err := s.phase(in, bio)
			if err != nil {
				return nil, err
			}
			if overlaps(p.Phases, ph) {
				return nil, apperror.Invalid("phases", "Phases must not overlap")
			}
			p.Phases = append(p.Phases, ph)
		}
	}
	if _, err := s.programs.Create(ctx, p); err != nil {
		return nil, apperror.Classify(err)
	}
	return p, nil
}

func (s *NutritionService) loadOwned(ctx context.Context, programID, callerID string) (*models.NutritionProgram, error) {
	p, err := s.programs.FindByID(ctx, programID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if p == nil {
		return nil, apperror.NotFound("nutrition program", programID)
	}
	if p.OwnerID != userOID(callerID) {
		return nil, apperror.Forbidden("you do not own this nutrition program")
	}
	return p, nil
}

func (s *NutritionService) AddPhase(ctx context.Context, callerID, programID string, in PhaseInput) (*models.NutritionPhase, error) {
	p, err := s.loadOwned(ctx, programID, callerID)
	if err != nil {
		return nil, err
	}
	bio, err := s.biometrics(ctx, callerID)
	if err != nil {
		return nil, err
	}
	ph, err := s.phase(in, bio)
	if err != nil {
		return nil, err
	}
	if overlaps(p.Phases, ph) {
		return nil, apperror.Invalid("phases", "Phases must not overlap")
	}
	matched, err := s.programs.PushPhase(ctx, p.ID, ph)
	if err := must(matched, err, apperror.NotFound("nutrition program", programID)); err != nil {
		return nil, apperror.Classify(err)
	}
	return &ph, nil
}

// RecalculatePhase recomputes a phase's targets from the owner's current
// biometrics, keeping its type and weekly change.
func (s *NutritionService) RecalculatePhase(ctx context.Context, callerID, programID, phaseID string) (*models.NutritionPhase, error) {
	pid, err := repositories.ObjectID("phaseId", phaseID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	p, err := s.loadOwned(ctx, programID, callerID)
	if err != nil {
		return nil, err
	}
	ph, ok := p.Phase(pid)
	if !ok {
		return nil, apperror.NotFound("phase", phaseID)
	}
	bio, err := s.biometrics(ctx, callerID)
	if err != nil {
		return nil, err
	}
	change := ph.WeeklyChange
	plan, err := nutrition.Calculate(bio, ph.Type, &change)
	if err != nil {
		return nil, calcError("biometrics.", err)
	}
	ph.BMR, ph.TDEE, ph.Targets = plan.BMR, plan.TDEE, plan.Targets
	ph.CalculatedAt = s.now().UTC()

	matched, err := s.programs.SetPhaseTargets(ctx, p.ID, pid, ph)
	if err := must(matched, err, apperror.NotFound("phase", phaseID)); err != nil {
		return nil, apperror.Classify(err)
	}
	return &ph, nil
}

// GetProgram returns the program with its meal templates.
func (s *NutritionService) GetProgram(ctx context.Context, callerID, programID string) (*models.NutritionProgramTree, error) {
	tree, err := s.programs.Tree(ctx, programID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if tree == nil {
		return nil, apperror.NotFound("nutrition program", programID)
	}
	if tree.OwnerID != userOID(callerID) {
		return nil, apperror.Forbidden("you do not own this nutrition program")
	}
	return tree, nil
}

func (s *NutritionService) ListPrograms(ctx context.Context, ownerID string) ([]models.NutritionProgram, error) {
	programs, err := s.programs.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	return programs, nil
}

// DeleteProgram removes the program and the meal templates attached to it.
// Meal logs keep their snapshots.
func (s *NutritionService) DeleteProgram(ctx context.Context, callerID, programID string) error {
	p, err := s.loadOwned(ctx, programID, callerID)
	if err != nil {
		return err
	}
	return s.coord.Run(ctx, "delete_nutrition_program",
		Step{Name: "program_delete", Run: func(ctx context.Context) error {
			matched, err := s.programs.Delete(ctx, p.ID)
			return must(matched, err, apperror.NotFound("nutrition program", programID))
		}},
		Step{Name: "meals_delete", Run: func(ctx context.Context) error {
			return s.meals.DeleteByProgram(ctx, p.ID)
		}},
	)
}

func validateMeal(name string, ingredients []nutrition.Ingredient) (string, []nutrition.Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxMealNames {
		return "", nil, apperror.Invalid("name", "Name must be 1-100 characters")
	}
	for i := range ingredients {
		ingredients[i].Name = strings.TrimSpace(ingredients[i].Name)
	}
	if err := nutrition.ValidateIngredients(ingredients); err != nil {
		return "", nil, calcError("", err)
	}
	return name, ingredients, nil
}

// CreateMeal stores a meal template, optionally attached to one of the
// caller's nutrition programs.
func (s *NutritionService) CreateMeal(ctx context.Context, ownerID, programID, name string, ingredients []nutrition.Ingredient) (*models.MealTemplate, error) {
	name, ingredients, err := validateMeal(name, ingredients)
	if err != nil {
		return nil, err
	}
	owner, err := repositories.ObjectID("userId", ownerID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	m := &models.MealTemplate{OwnerID: owner, Name: name, Ingredients: ingredients}
	if programID != "" {
		p, err := s.loadOwned(ctx, programID, ownerID)
		if err != nil {
			return nil, err
		}
		m.ProgramID = p.ID
	}
	if _, err := s.meals.Create(ctx, m); err != nil {
		return nil, apperror.Classify(err)
	}
	return m, nil
}

func (s *NutritionService) loadMeal(ctx context.Context, mealID, callerID string) (*models.MealTemplate, error) {
	m, err := s.meals.FindByID(ctx, mealID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if m == nil {
		return nil, apperror.NotFound("meal", mealID)
	}
	if m.OwnerID != userOID(callerID) {
		return nil, apperror.Forbidden("you do not own this meal")
	}
	return m, nil
}

// UpdateMeal replaces the name and ingredients and recomputes totals.
func (s *NutritionService) UpdateMeal(ctx context.Context, callerID, mealID, name string, ingredients []nutrition.Ingredient, expectedVersion *int64) (*models.MealTemplate, error) {
	name, ingredients, err := validateMeal(name, ingredients)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadMeal(ctx, mealID, callerID); err != nil {
		return nil, err
	}
	m, err := s.meals.Update(ctx, mealID, name, ingredients, expectedVersion)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if m == nil {
		return nil, staleOrMissing("meal", mealID, expectedVersion)
	}
	return m, nil
}

func (s *NutritionService) DeleteMeal(ctx context.Context, callerID, mealID string) error {
	m, err := s.loadMeal(ctx, mealID, callerID)
	if err != nil {
		return err
	}
	matched, err := s.meals.Delete(ctx, m.ID)
	if err := must(matched, err, apperror.NotFound("meal", mealID)); err != nil {
		return apperror.Classify(err)
	}
	return nil
}

func (s *NutritionService) ListMeals(ctx context.Context, ownerID, programID string) ([]models.MealTemplate, error) {
	meals, err := s.meals.ListByOwner(ctx, ownerID, programID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	return meals, nil
}

// LogMeal records a meal as eaten. The ingredients are copied and scaled by
// servings so later template edits leave the log untouched.
func (s *NutritionService) LogMeal(ctx context.Context, userID, mealID string, servings float64, eatenAt time.Time) (*models.MealLog, error) {
	if servings <= 0 || servings > maxServings {
		return nil, apperror.Invalid("servings", "Servings must be greater than 0 and at most 20")
	}
	if eatenAt.After(s.now().Add(time.Hour)) {
		return nil, apperror.Invalid("eatenAt", "Eaten time cannot be in the future")
	}
	m, err := s.loadMeal(ctx, mealID, userID)
	if err != nil {
		return nil, err
	}
	ingredients := make([]nutrition.Ingredient, len(m.Ingredients))
	for i, ing := range m.Ingredients {
		ing.AmountG *= servings
		ingredients[i] = ing
	}
	l := &models.MealLog{
		UserID:          m.OwnerID,
		MealID:          m.ID,
		MealName:        m.Name,
		TemplateVersion: m.Version,
		Servings:        servings,
		Ingredients:     ingredients,
		Totals:          nutrition.MealTotals(ingredients),
		EatenAt:         eatenAt.UTC(),
	}
	if _, err := s.mealLogs.Create(ctx, l); err != nil {
		return nil, apperror.Classify(err)
	}
	return l, nil
}

// DailyLogs returns one entry per UTC day in [from, to], each with its summed
// totals. Days without logs are included with zero totals.
func (s *NutritionService) DailyLogs(ctx context.Context, userID, from, to string) ([]models.DailyMealLogs, error) {
	start, err := time.Parse(dayLayout, from)
	if err != nil {
		return nil, apperror.Invalid("from", "Day must be formatted as YYYY-MM-DD")
	}
	end := start
	if to != "" {
		if end, err = time.Parse(dayLayout, to); err != nil {
			return nil, apperror.Invalid("to", "Day must be formatted as YYYY-MM-DD")
		}
	}
	if end.Before(start) {
		return nil, apperror.Invalid("to", "Range end must not be before its start")
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days > maxLogDays {
		return nil, apperror.Invalid("to", "Range is limited to 31 days")
	}

	logs, err := s.mealLogs.ListRange(ctx, userID, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, apperror.Classify(err)
	}

	out := make([]models.DailyMealLogs, days)
	for i := range out {
		out[i] = models.DailyMealLogs{Day: start.AddDate(0, 0, i).Format(dayLayout), Logs: []models.MealLog{}}
	}
	for _, l := range logs {
		i := int(l.EatenAt.UTC().Sub(start).Hours() / 24)
		if i < 0 || i >= days {
			continue
		}
		out[i].Logs = append(out[i].Logs, l)
		out[i].Totals = out[i].Totals.Add(l.Totals)
	}
	for i := range out {
		out[i].Totals = out[i].Totals.Round2()
	}
	return out, nil
}
