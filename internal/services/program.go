package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/logging"
	"github.com/AnshRaj112/fitcoach-backend/internal/models"
	"github.com/AnshRaj112/fitcoach-backend/internal/pagination"
	"github.com/AnshRaj112/fitcoach-backend/internal/repositories"
)

const (
	maxWeekNumber = 104
	maxNoteLength = 4000
)

// ProgramService manages training programs, their weeks and program notes.
// A program and its week_ids list change together with the weeks collection.
type ProgramService struct {
	coord    *Coordinator
	programs ProgramStore
	weeks    WeekStore
	notes    NoteStore
	log      zerolog.Logger
}

func NewProgramService(coord *Coordinator, programs ProgramStore, weeks WeekStore, notes NoteStore, log zerolog.Logger) *ProgramService {
	return &ProgramService{coord: coord, programs: programs, weeks: weeks, notes: notes, log: log}
}

type ProgramInput struct {
	Name        *string
	Description *string
	Phases      *[]models.ProgramPhase
}

func (in ProgramInput) validate(creating bool) (models.ProgramPatch, error) {
	patch := models.ProgramPatch{Description: in.Description, Phases: in.Phases}
	var fields []apperror.FieldError
	if in.Name != nil || creating {
		name := ""
		if in.Name != nil {
			name = strings.TrimSpace(*in.Name)
		}
		if name == "" || len(name) > 100 {
			fields = append(fields, apperror.FieldError{Field: "name", Message: "Name must be 1-100 characters"})
		}
		patch.Name = &name
	}
	if in.Phases != nil {
		for _, p := range *in.Phases {
			if strings.TrimSpace(p.Name) == "" || p.StartWeek < 1 || p.EndWeek < p.StartWeek {
				fields = append(fields, apperror.FieldError{Field: "phases", Message: "Each phase needs a name and a valid week range"})
				break
			}
		}
	}
	if len(fields) > 0 {
		return patch, apperror.Validation(fields...)
	}
	return patch, nil
}

func (s *ProgramService) CreateProgram(ctx context.Context, ownerID string, in ProgramInput) (*models.Program, error) {
	patch, err := in.validate(true)
	if err != nil {
		return nil, err
	}
	owner, err := repositories.ObjectID("userId", ownerID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	p := &models.Program{OwnerID: owner, Name: *patch.Name}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Phases != nil {
		p.Phases = *patch.Phases
	}
	if _, err := s.programs.Create(ctx, p); err != nil {
		return nil, apperror.Classify(err)
	}
	return p, nil
}

// loadOwned returns the program if callerID owns it.
func (s *ProgramService) loadOwned(ctx context.Context, programID, callerID string) (*models.Program, error) {
	p, err := s.programs.FindByID(ctx, programID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if p == nil {
		return nil, apperror.NotFound("program", programID)
	}
	if p.OwnerID != userOID(callerID) {
		return nil, apperror.Forbidden("you do not own this program")
	}
	return p, nil
}

func (s *ProgramService) UpdateProgram(ctx context.Context, callerID, programID string, in ProgramInput) (*models.Program, error) {
	patch, err := in.validate(false)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, apperror.BadRequest("no fields to update")
	}
	if _, err := s.loadOwned(ctx, programID, callerID); err != nil {
		return nil, err
	}
	p, err := s.programs.Update(ctx, programID, patch)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if p == nil {
		return nil, apperror.NotFound("program", programID)
	}
	return p, nil
}

// DeleteProgram removes the program with its weeks and notes. Workout logs
// are history and stay.
func (s *ProgramService) DeleteProgram(ctx context.Context, callerID, programID string) error {
	p, err := s.loadOwned(ctx, programID, callerID)
	if err != nil {
		return err
	}
	err = s.coord.Run(ctx, "delete_program",
		Step{Name: "program_delete", Run: func(ctx context.Context) error {
			matched, err := s.programs.Delete(ctx, p.ID)
			return must(matched, err, apperror.NotFound("program", programID))
		}},
		Step{Name: "weeks_delete", Run: func(ctx context.Context) error {
			_, err := s.weeks.DeleteByProgram(ctx, p.ID)
			return err
		}},
		Step{Name: "notes_delete", Run: func(ctx context.Context) error {
			return s.notes.DeleteByProgram(ctx, p.ID)
		}},
	)
	if err != nil {
		return err
	}
	logging.FromContext(ctx, s.log).Info().Str("program_id", programID).Int("weeks", len(p.WeekIDs)).Msg("program deleted")
	return nil
}

// prepareWorkouts validates workouts and assigns ids to new workouts and exercises.
func prepareWorkouts(workouts []models.Workout) ([]models.Workout, error) {
	if workouts == nil {
		workouts = []models.Workout{}
	}
	seen := make(map[primitive.ObjectID]bool)
	for i := range workouts {
		w := &workouts[i]
		w.Name = strings.TrimSpace(w.Name)
		if w.Name == "" {
			return nil, apperror.Invalid("workouts.name", "Workout name is required")
		}
		if w.Day < 1 || w.Day > 7 {
			return nil, apperror.Invalid("workouts.day", "Day must be between 1 and 7")
		}
		if w.ID.IsZero() {
			w.ID = primitive.NewObjectID()
		}
		if seen[w.ID] {
			return nil, apperror.Invalid("workouts.id", "Workout ids must be unique")
		}
		seen[w.ID] = true
		if w.Exercises == nil {
			w.Exercises = []models.Exercise{}
		}
		for j := range w.Exercises {
			ex := &w.Exercises[j]
			ex.Name = strings.TrimSpace(ex.Name)
			if ex.Name == "" {
				return nil, apperror.Invalid("workouts.exercises.name", "Exercise name is required")
			}
			if ex.ID.IsZero() {
				ex.ID = primitive.NewObjectID()
			}
			if ex.Sets == nil {
				ex.Sets = []models.ExerciseSet{}
			}
			for _, set := range ex.Sets {
				if set.Reps < 0 || set.Weight < 0 || set.RPE < 0 || set.RPE > 10 || set.RestSeconds < 0 {
					return nil, apperror.Invalid("workouts.exercises.sets", "Set values are out of range")
				}
			}
		}
	}
	return workouts, nil
}

// AddWeek inserts a week and links it from the program in one transaction.
// A second week with the same number is rejected by the unique index.
func (s *ProgramService) AddWeek(ctx context.Context, callerID, programID string, weekNumber int, workouts []models.Workout) (*models.Week, error) {
	if weekNumber < 1 || weekNumber > maxWeekNumber {
		return nil, apperror.Invalid("weekNumber", "Week number must be between 1 and 104")
	}
	workouts, err := prepareWorkouts(workouts)
	if err != nil {
		return nil, err
	}
	p, err := s.loadOwned(ctx, programID, callerID)
	if err != nil {
		return nil, err
	}

	w := &models.Week{ProgramID: p.ID, WeekNumber: weekNumber, Workouts: workouts}
	_, err = s.coord.Execute(ctx, "add_week",
		func(ctx context.Context) (primitive.ObjectID, error) {
			return s.weeks.Create(ctx, w)
		},
		func(id primitive.ObjectID) []Step {
			return []Step{{Name: "program_week_ids", Run: func(ctx context.Context) error {
				matched, err := s.programs.PushWeek(ctx, p.ID, id)
				return must(matched, err, apperror.NotFound("program", programID))
			}}}
		},
	)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// weekOwned loads a week and checks the caller owns its program.
func (s *ProgramService) weekOwned(ctx context.Context, weekID, callerID string) (*models.Week, *models.Program, error) {
	w, err := s.weeks.FindByID(ctx, weekID)
	if err != nil {
		return nil, nil, apperror.Classify(err)
	}
	if w == nil {
		return nil, nil, apperror.NotFound("week", weekID)
	}
	p, err := s.loadOwned(ctx, w.ProgramID.Hex(), callerID)
	if err != nil {
		return nil, nil, err
	}
	return w, p, nil
}

// UpdateWeek replaces the week's workouts. The version increments so logs
// can tell which template they were performed against.
func (s *ProgramService) UpdateWeek(ctx context.Context, callerID, weekID string, workouts []models.Workout, expectedVersion *int64) (*models.Week, error) {
	workouts, err := prepareWorkouts(workouts)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.weekOwned(ctx, weekID, callerID); err != nil {
		return nil, err
	}
	w, err := s.weeks.ReplaceWorkouts(ctx, weekID, workouts, expectedVersion)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if w == nil {
		return nil, staleOrMissing("week", weekID, expectedVersion)
	}
	return w, nil
}

func (s *ProgramService) DeleteWeek(ctx context.Context, callerID, weekID string) error {
	w, p, err := s.weekOwned(ctx, weekID, callerID)
	if err != nil {
		return err
	}
	return s.coord.Run(ctx, "delete_week",
		Step{Name: "week_delete", Run: func(ctx context.Context) error {
			matched, err := s.weeks.Delete(ctx, w.ID)
			return must(matched, err, apperror.NotFound("week", weekID))
		}},
		Step{Name: "program_week_ids", Run: func(ctx context.Context) error {
			matched, err := s.programs.PullWeek(ctx, p.ID, w.ID)
			return must(matched, err, apperror.NotFound("program", p.ID.Hex()))
		}},
	)
}

// GetProgramTree returns the program with every week, workout, exercise and set.
func (s *ProgramService) GetProgramTree(ctx context.Context, callerID, programID string) (*models.ProgramTree, error) {
	tree, err := s.programs.Tree(ctx, programID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	if tree == nil {
		return nil, apperror.NotFound("program", programID)
	}
	if tree.OwnerID != userOID(callerID) {
		return nil, apperror.Forbidden("you do not own this program")
	}
	return tree, nil
}

func (s *ProgramService) ListPrograms(ctx context.Context, ownerID string) ([]models.Program, error) {
	programs, err := s.programs.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	return programs, nil
}

func (s *ProgramService) AddNote(ctx context.Context, callerID, programID, body string) (*models.Note, error) {
	body = strings.TrimSpace(body)
	if body == "" || len(body) > maxNoteLength {
		return nil, apperror.Invalid("body", "Note must be 1-4000 characters")
	}
	p, err := s.loadOwned(ctx, programID, callerID)
	if err != nil {
		return nil, err
	}
	n := &models.Note{UserID: p.OwnerID, ProgramID: p.ID, Body: body}
	if _, err := s.notes.Create(ctx, n); err != nil {
		return nil, apperror.Classify(err)
	}
	return n, nil
}

func (s *ProgramService) ListNotes(ctx context.Context, callerID, programID, cursor string, limit int) (*pagination.Result[models.Note], error) {
	page, err := pagination.NewPage(cursor, limit)
	if err != nil {
		return nil, apperror.Invalid("cursor", "Cursor is invalid")
	}
	if _, err := s.loadOwned(ctx, programID, callerID); err != nil {
		return nil, err
	}
	rows, err := s.notes.ListByProgram(ctx, programID, page)
	if err != nil {
		return nil, apperror.Classify(err)
	}
	res := pagination.Build(rows, page.Limit, func(n models.Note) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	return &res, nil
}

func (s *ProgramService) DeleteNote(ctx context.Context, callerID, noteID string) error {
	matched, err := s.notes.Delete(ctx, noteID, callerID)
	if err := must(matched, err, apperror.NotFound("note", noteID)); err != nil {
		return apperror.Classify(err)
	}
	return nil
}
