package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/internal/repositories"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 200
)

// WorkoutLogService records performed workouts. Logs are append-only.
type WorkoutLogService struct {
	programs ProgramStore
	weeks    WeekStore
	logs     WorkoutLogStore
	log      zerolog.Logger
}

func NewWorkoutLogService(programs ProgramStore, weeks WeekStore, logs WorkoutLogStore, log zerolog.Logger) *WorkoutLogService {
	return &WorkoutLogService{programs: programs, weeks: weeks, logs: logs, log: log}
}

type LogWorkoutInput struct {
	WeekID      string
	WorkoutID   string
	Performed   []models.PerformedExercise
	Notes       string
	PerformedAt time.Time
}

// LogWorkout stores what was performed next to a snapshot of the workout
// template and the week version it came from.
func (s *WorkoutLogService) LogWorkout(ctx context.Context, userID string, in LogWorkoutInput) (*models.WorkoutLog, error) {
	uid, err := repositories.ObjectID("userId", userID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	workoutID, err := repositories.ObjectID("workoutId", in.WorkoutID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if in.PerformedAt.After(time.Now().Add(time.Hour)) {
		return nil, apperror.Invalid("performedAt", "Performed time cannot be in the future")
	}

	week, err := s.weeks.FindByID(ctx, in.WeekID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if week == nil {
		return nil, apperror.NotFound("week", in.WeekID)
	}
	program, err := s.programs.FindByID(ctx, week.ProgramID.Hex())
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if program == nil {
		return nil, apperror.NotFound("program", week.ProgramID.Hex())
	}
	if program.OwnerID != uid {
		return nil, apperror.Forbidden("you do not own this program")
	}
	workout, ok := week.Workout(workoutID)
	if !ok {
		return nil, apperror.NotFound("workout", in.WorkoutID)
	}

	for _, p := range in.Performed {
		if !hasExercise(workout, p) {
			return nil, apperror.Invalid("performed.exerciseId", "Exercise is not part of this workout")
		}
		for _, set := range p.Sets {
			if set.Reps < 0 || set.Weight < 0 || set.RPE < 0 || set.RPE > 10 {
				return nil, apperror.Invalid("performed.sets", "Set values are out of range")
			}
		}
	}

	l := &models.WorkoutLog{
		UserID:          uid,
		ProgramID:       program.ID,
		WeekID:          week.ID,
		WorkoutID:       workout.ID,
		TemplateVersion: week.Version,
		Template:        workout,
		Performed:       in.Performed,
		Notes:           strings.TrimSpace(in.Notes),
		PerformedAt:     in.PerformedAt.UTC(),
	}
	if _, err := s.logs.Create(ctx, l); err != nil {
		return nil, apperror.Classify(err)
	}
	return l, nil
}

func hasExercise(w models.Workout, p models.PerformedExercise) bool {
	for _, ex := range w.Exercises {
		if ex.ID == p.ExerciseID {
			return true
		}
	}
	return false
}

// ListLogs returns the user's most recent logs, optionally for one program.
func (s *WorkoutLogService) ListLogs(ctx context.Context, userID, programID string, limit int) ([]models.WorkoutLog, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}
	logs, err := s.logs.List(ctx, userID, programID, int64(limit))
	if err != nil {
		return nil, apperror.Classify(err)
	}
	return logs, nil
}
