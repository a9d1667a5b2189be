package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
)

func squatDay() []models.Workout {
	return []models.Workout{{
		Name: "Lower",
		Day:  1,
		Exercises: []models.Exercise{{
			Name: "Back squat",
			Sets: []models.ExerciseSet{{Reps: 5, Weight: 100, RPE: 8, RestSeconds: 180}},
		}},
	}}
}

func newProgram(t *testing.T, db *memDB, owner primitive.ObjectID) (*ProgramService, *models.Program) {
	t.Helper()
	svc := NewProgramService(newCoordinator(db), memPrograms{db}, memWeeks{db}, memNotes{}, testLogger())
	p, err := svc.CreateProgram(context.Background(), owner.Hex(), ProgramInput{
		Name:   strPtr("Strength block"),
		Phases: &[]models.ProgramPhase{{Name: "Base", StartWeek: 1, EndWeek: 4}},
	})
	if err != nil {
		t.Fatalf("create program: %v", err)
	}
	return svc, p
}

func TestAddWeekLinksProgram(t *testing.T) {
	db := newMemDB()
	owner := db.addUser(models.VisibilityPublic)
	svc, p := newProgram(t, db, owner)
	ctx := context.Background()

	w, err := svc.AddWeek(ctx, owner.Hex(), p.ID.Hex(), 1, squatDay())
	if err != nil {
		t.Fatalf("add week: %v", err)
	}
	if w.Workouts[0].ID.IsZero() || w.Workouts[0].Exercises[0].ID.IsZero() {
		t.Fatal("workouts and exercises need ids")
	}
	if ids := db.programs[p.ID].WeekIDs; len(ids) != 1 || ids[0] != w.ID {
		t.Fatalf("program week ids %v", ids)
	}

	_, err = svc.AddWeek(ctx, owner.Hex(), p.ID.Hex(), 1, squatDay())
	appErr, ok := apperror.As(err)
	if !ok || appErr.Status != http.StatusConflict || appErr.Code != "duplicate_key" {
		t.Fatalf("duplicate week number should conflict got %v", err)
	}
	if len(db.weeks) != 1 || len(db.programs[p.ID].WeekIDs) != 1 {
		t.Fatal("failed add left partial writes")
	}

	other := db.addUser(models.VisibilityPublic)
	if _, err := svc.AddWeek(ctx, other.Hex(), p.ID.Hex(), 2, squatDay()); !apperror.IsStatus(err, http.StatusForbidden) {
		t.Fatalf("non-owner should be forbidden got %v", err)
	}
}

func TestAddWeekValidation(t *testing.T) {
	db := newMemDB()
	owner := db.addUser(models.VisibilityPublic)
	svc, p := newProgram(t, db, owner)

	bad := squatDay()
	bad[0].Day = 9
	tests := []struct {
		name     string
		number   int
		workouts []models.Workout
	}{
		{"week zero", 0, squatDay()},
		{"day out of range", 1, bad},
		{"unnamed workout", 1, []models.Workout{{Day: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddWeek(context.Background(), owner.Hex(), p.ID.Hex(), tt.number, tt.workouts)
			if !apperror.IsStatus(err, http.StatusBadRequest) {
				t.Fatalf("expected 400 got %v", err)
			}
		})
	}
}

func TestUpdateWeekBumpsVersionAndLogSnapshotsTemplate(t *testing.T) {
	db := newMemDB()
	owner := db.addUser(models.VisibilityPublic)
	svc, p := newProgram(t, db, owner)
	ctx := context.Background()

	w, err := svc.AddWeek(ctx, owner.Hex(), p.ID.Hex(), 1, squatDay())
	if err != nil {
		t.Fatalf("add week: %v", err)
	}
	workout := w.Workouts[0]

	logs := &memWorkoutLogs{}
	logSvc := NewWorkoutLogService(memPrograms{db}, memWeeks{db}, logs, testLogger())
	entry, err := logSvc.LogWorkout(ctx, owner.Hex(), LogWorkoutInput{
		WeekID:    w.ID.Hex(),
		WorkoutID: workout.ID.Hex(),
		Performed: []models.PerformedExercise{{
			ExerciseID: workout.Exercises[0].ID,
			Sets:       []models.ExerciseSet{{Reps: 5, Weight: 102.5, RPE: 8.5}},
		}},
		PerformedAt: time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("log workout: %v", err)
	}
	if entry.TemplateVersion != 1 || entry.Template.Name != "Lower" {
		t.Fatalf("log did not snapshot the template: %+v", entry)
	}

	edited := []models.Workout{workout}
	edited[0].Name = "Lower A"
	v := int64(1)
	updated, err := svc.UpdateWeek(ctx, owner.Hex(), w.ID.Hex(), edited, &v)
	if err != nil || updated.Version != 2 {
		t.Fatalf("update week: %+v %v", updated, err)
	}
	if updated.Workouts[0].ID != workout.ID {
		t.Fatal("existing workout ids must be kept")
	}
	if logs.stored[0].Template.Name != "Lower" {
		t.Fatal("stored log changed with the template")
	}
	if _, err := svc.UpdateWeek(ctx, owner.Hex(), w.ID.Hex(), edited, &v); !apperror.IsStatus(err, http.StatusConflict) {
		t.Fatalf("stale version should conflict got %v", err)
	}

	_, err = logSvc.LogWorkout(ctx, owner.Hex(), LogWorkoutInput{
		WeekID:    w.ID.Hex(),
		WorkoutID: workout.ID.Hex(),
		Performed: []models.PerformedExercise{{ExerciseID: primitive.NewObjectID()}},
	})
	if !apperror.IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("unknown exercise should be 400 got %v", err)
	}
}

func TestDeleteWeekAndProgram(t *testing.T) {
	db := newMemDB()
	owner := db.addUser(models.VisibilityPublic)
	svc, p := newProgram(t, db, owner)
	ctx := context.Background()

	w1, err := svc.AddWeek(ctx, owner.Hex(), p.ID.Hex(), 1, squatDay())
	if err != nil {
		t.Fatalf("add week: %v", err)
	}
	if _, err := svc.AddWeek(ctx, owner.Hex(), p.ID.Hex(), 2, squatDay()); err != nil {
		t.Fatalf("add week: %v", err)
	}
	if err := svc.DeleteWeek(ctx, owner.Hex(), w1.ID.Hex()); err != nil {
		t.Fatalf("delete week: %v", err)
	}
	if models.ContainsID(db.programs[p.ID].WeekIDs, w1.ID) || len(db.weeks) != 1 {
		t.Fatal("week was not removed from both collections")
	}

	if err := svc.DeleteProgram(ctx, owner.Hex(), p.ID.Hex()); err != nil {
		t.Fatalf("delete program: %v", err)
	}
	if len(db.programs) != 0 || len(db.weeks) != 0 {
		t.Fatal("program delete must cascade to weeks")
	}
}

type memWorkoutLogs struct {
	stored []models.WorkoutLog
}

func (m *memWorkoutLogs) Create(_ context.Context, l *models.WorkoutLog) (primitive.ObjectID, error) {
	l.ID = primitive.NewObjectID()
	m.stored = append(m.stored, *l)
	return l.ID, nil
}

func (m *memWorkoutLogs) List(context.Context, string, string, int64) ([]models.WorkoutLog, error) {
	return m.stored, nil
}
