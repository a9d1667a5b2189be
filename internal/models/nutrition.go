package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/fitcoach-backend/internal/nutrition"
)

// NutritionProgram holds phases whose targets are computed once and stored;
// they only change through an explicit recalculation.
type NutritionProgram struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Name      string             `bson:"name" json:"name"`
	Phases    []NutritionPhase   `bson:"phases" json:"phases"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

type NutritionPhase struct {
	ID           primitive.ObjectID  `bson:"id" json:"id"`
	Name         string              `bson:"name" json:"name"`
	Type         nutrition.PhaseType `bson:"type" json:"type"`
	StartDate    time.Time           `bson:"start_date" json:"start_date"`
	EndDate      time.Time           `bson:"end_date" json:"end_date"`
	WeeklyChange float64             `bson:"weekly_change" json:"weekly_change"`
	BMR          float64             `bson:"bmr" json:"bmr"`
	TDEE         float64             `bson:"tdee" json:"tdee"`
	Targets      nutrition.Targets   `bson:"targets" json:"targets"`
	CalculatedAt time.Time           `bson:"calculated_at" json:"calculated_at"`
}

func (p *NutritionProgram) Normalize() *NutritionProgram {
	if p == nil {
		return nil
	}
	if p.Phases == nil {
		p.Phases = []NutritionPhase{}
	}
	return p
}

// Phase returns the phase with the given id.
func (p *NutritionProgram) Phase(id primitive.ObjectID) (NutritionPhase, bool) {
	for _, ph := range p.Phases {
		if ph.ID == id {
			return ph, true
		}
	}
	return NutritionPhase{}, false
}

// MealTemplate is a reusable meal. Totals are derived from Ingredients on every write.
type MealTemplate struct {
	ID          primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	OwnerID     primitive.ObjectID     `bson:"owner_id" json:"owner_id"`
	ProgramID   primitive.ObjectID     `bson:"program_id,omitempty" json:"program_id,omitempty"`
	Name        string                 `bson:"name" json:"name"`
	Version     int64                  `bson:"version" json:"version"`
	Ingredients []nutrition.Ingredient `bson:"ingredients" json:"ingredients"`
	Totals      nutrition.Facts        `bson:"totals" json:"totals"`
	CreatedAt   time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time              `bson:"updated_at" json:"updated_at"`
}

func (m *MealTemplate) Normalize() *MealTemplate {
	if m == nil {
		return nil
	}
	if m.Ingredients == nil {
		m.Ingredients = []nutrition.Ingredient{}
	}
	return m
}

// MealLog is an append-only snapshot of a meal as eaten.
type MealLog struct {
	ID              primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID     `bson:"user_id" json:"user_id"`
	MealID          primitive.ObjectID     `bson:"meal_id" json:"meal_id"`
	MealName        string                 `bson:"meal_name" json:"meal_name"`
	TemplateVersion int64                  `bson:"template_version" json:"template_version"`
	Servings        float64                `bson:"servings" json:"servings"`
	Ingredients     []nutrition.Ingredient `bson:"ingredients" json:"ingredients"`
	Totals          nutrition.Facts        `bson:"totals" json:"totals"`
	EatenAt         time.Time              `bson:"eaten_at" json:"eaten_at"`
	CreatedAt       time.Time              `bson:"created_at" json:"created_at"`
}

// NutritionProgramTree is a program joined with its meal templates.
type NutritionProgramTree struct {
	NutritionProgram `bson:",inline"`
	Meals            []MealTemplate `bson:"meals" json:"meals"`
}

func (t *NutritionProgramTree) Normalize() *NutritionProgramTree {
	if t == nil {
		return nil
	}
	t.NutritionProgram.Normalize()
	if t.Meals == nil {
		t.Meals = []MealTemplate{}
	}
	for i := range t.Meals {
		t.Meals[i].Normalize()
	}
	return t
}

// DailyMealLogs is one day's logs with their summed totals.
type DailyMealLogs struct {
	Day    string          `json:"day"`
	Logs   []MealLog       `json:"logs"`
	Totals nutrition.Facts `json:"totals"`
}
