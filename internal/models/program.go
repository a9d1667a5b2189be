package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Program is a training plan. Weeks live in their own collection and are
// referenced through WeekIDs; everything below a week is embedded.
type Program struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	OwnerID     primitive.ObjectID   `bson:"owner_id" json:"owner_id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description" json:"description"`
	Phases      []ProgramPhase       `bson:"phases" json:"phases"`
	WeekIDs     []primitive.ObjectID `bson:"week_ids" json:"week_ids"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at" json:"updated_at"`
}

// ProgramPhase spans an inclusive range of week numbers.
type ProgramPhase struct {
	Name      string `bson:"name" json:"name"`
	StartWeek int    `bson:"start_week" json:"start_week"`
	EndWeek   int    `bson:"end_week" json:"end_week"`
}

type Week struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProgramID  primitive.ObjectID `bson:"program_id" json:"program_id"`
	WeekNumber int                `bson:"week_number" json:"week_number"`
	Version    int64              `bson:"version" json:"version"`
	Workouts   []Workout          `bson:"workouts" json:"workouts"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

type Workout struct {
	ID        primitive.ObjectID `bson:"id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Day       int                `bson:"day" json:"day"` // 1 (Mon) - 7 (Sun)
	Exercises []Exercise         `bson:"exercises" json:"exercises"`
}

type Exercise struct {
	ID    primitive.ObjectID `bson:"id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Notes string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Sets  []ExerciseSet      `bson:"sets" json:"sets"`
}

type ExerciseSet struct {
	Reps        int     `bson:"reps" json:"reps"`
	Weight      float64 `bson:"weight" json:"weight"`
	RPE         float64 `bson:"rpe,omitempty" json:"rpe,omitempty"`
	RestSeconds int     `bson:"rest_seconds,omitempty" json:"rest_seconds,omitempty"`
}

func (p *Program) Normalize() *Program {
	if p == nil {
		return nil
	}
	if p.Phases == nil {
		p.Phases = []ProgramPhase{}
	}
	p.WeekIDs = emptyIDs(p.WeekIDs)
	return p
}

func (w *Week) Normalize() *Week {
	if w == nil {
		return nil
	}
	if w.Workouts == nil {
		w.Workouts = []Workout{}
	}
	for i := range w.Workouts {
		if w.Workouts[i].Exercises == nil {
			w.Workouts[i].Exercises = []Exercise{}
		}
		for j := range w.Workouts[i].Exercises {
			if w.Workouts[i].Exercises[j].Sets == nil {
				w.Workouts[i].Exercises[j].Sets = []ExerciseSet{}
			}
		}
	}
	return w
}

// Workout returns the workout with the given id.
func (w *Week) Workout(id primitive.ObjectID) (Workout, bool) {
	for _, wo := range w.Workouts {
		if wo.ID == id {
			return wo, true
		}
	}
	return Workout{}, false
}

// ProgramTree is a program with its weeks joined in week order.
type ProgramTree struct {
	Program `bson:",inline"`
	Weeks   []Week `bson:"weeks" json:"weeks"`
}

func (t *ProgramTree) Normalize() *ProgramTree {
	if t == nil {
		return nil
	}
	t.Program.Normalize()
	if t.Weeks == nil {
		t.Weeks = []Week{}
	}
	for i := range t.Weeks {
		t.Weeks[i].Normalize()
	}
	return t
}

// WorkoutLog is an append-only record of a performed workout. Template is a
// snapshot taken at log time so later edits to the week do not rewrite history.
type WorkoutLog struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID  `bson:"user_id" json:"user_id"`
	ProgramID       primitive.ObjectID  `bson:"program_id" json:"program_id"`
	WeekID          primitive.ObjectID  `bson:"week_id" json:"week_id"`
	WorkoutID       primitive.ObjectID  `bson:"workout_id" json:"workout_id"`
	TemplateVersion int64               `bson:"template_version" json:"template_version"`
	Template        Workout             `bson:"template" json:"template"`
	Performed       []PerformedExercise `bson:"performed" json:"performed"`
	Notes           string              `bson:"notes,omitempty" json:"notes,omitempty"`
	PerformedAt     time.Time           `bson:"performed_at" json:"performed_at"`
	CreatedAt       time.Time           `bson:"created_at" json:"created_at"`
}

type PerformedExercise struct {
	ExerciseID primitive.ObjectID `bson:"exercise_id" json:"exercise_id"`
	Sets       []ExerciseSet      `bson:"sets" json:"sets"`
}

func (l *WorkoutLog) Normalize() *WorkoutLog {
	if l == nil {
		return nil
	}
	if l.Performed == nil {
		l.Performed = []PerformedExercise{}
	}
	return l
}

// Note is a free-form comment attached to a program.
type Note struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	ProgramID primitive.ObjectID `bson:"program_id" json:"program_id"`
	Body      string             `bson:"body" json:"body"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
