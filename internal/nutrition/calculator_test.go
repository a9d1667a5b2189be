package nutrition_test

import (
	"errors"
	"math"
	"testing"

	"github.com/AnshRaj112/fitcoach-backend/internal/nutrition"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBMR(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   nutrition.Biometrics
		want float64
	}{
		{name: "male", in: nutrition.Biometrics{Age: 30, Gender: nutrition.Male, HeightCm: 180, WeightKg: 80}, want: 1780},
		{name: "female", in: nutrition.Biometrics{Age: 25, Gender: nutrition.Female, HeightCm: 165, WeightKg: 60}, want: 1345.25},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := nutrition.BMR(tc.in); !approx(got, tc.want) {
				t.Fatalf("expected %v got %v", tc.want, got)
			}
		})
	}
}

func TestTDEEPerActivityTier(t *testing.T) {
	t.Parallel()
	base := nutrition.Biometrics{Age: 30, Gender: nutrition.Male, HeightCm: 180, WeightKg: 80}
	tests := []struct {
		level nutrition.ActivityLevel
		want  float64
	}{
		{nutrition.Sedentary, 2136},
		{nutrition.LightlyActive, 2447.5},
		{nutrition.ModeratelyActive, 2759},
		{nutrition.VeryActive, 3070.5},
		{nutrition.ExtraActive, 3382},
	}
	for _, tc := range tests {
		b := base
		b.ActivityLevel = tc.level
		if got := nutrition.TDEE(b); !approx(got, tc.want) {
			t.Fatalf("%s: expected %v got %v", tc.level, tc.want, got)
		}
	}
}

func TestMacrosCutting(t *testing.T) {
	t.Parallel()
	got := nutrition.Macros(2000, nutrition.Cutting)
	want := nutrition.Targets{Calories: 2000, Protein: 175, Fat: 44, Carbs: 225}
	if got != want {
		t.Fatalf("expected %+v got %+v", want, got)
	}
}

func TestMacrosPerPhase(t *testing.T) {
	t.Parallel()
	tests := []struct {
		phase nutrition.PhaseType
		want  nutrition.Targets
	}{
		{nutrition.Bulking, nutrition.Targets{Calories: 3000, Protein: 188, Fat: 83, Carbs: 375}},
		{nutrition.Maintenance, nutrition.Targets{Calories: 3000, Protein: 225, Fat: 83, Carbs: 338}},
	}
	for _, tc := range tests {
		if got := nutrition.Macros(3000, tc.phase); got != tc.want {
			t.Fatalf("%s: expected %+v got %+v", tc.phase, tc.want, got)
		}
	}
}

func TestTargetCalories(t *testing.T) {
	t.Parallel()
	if got := nutrition.TargetCalories(2136, -1); !approx(got, 1636) {
		t.Fatalf("expected 1636 got %v", got)
	}
	if got := nutrition.TargetCalories(2136, 0.5); !approx(got, 2386) {
		t.Fatalf("expected 2386 got %v", got)
	}
}

func TestCalculateUsesPhaseDefault(t *testing.T) {
	t.Parallel()
	b := nutrition.Biometrics{Age: 30, Gender: nutrition.Male, HeightCm: 180, WeightKg: 80, ActivityLevel: nutrition.Sedentary}

	plan, err := nutrition.Calculate(b, nutrition.Cutting, nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if plan.WeeklyChange != -1 {
		t.Fatalf("expected default cutting change -1 got %v", plan.WeeklyChange)
	}
	if plan.Targets.Calories != 1636 {
		t.Fatalf("expected 1636 kcal got %v", plan.Targets.Calories)
	}

	explicit := 0.0
	plan, err = nutrition.Calculate(b, nutrition.Cutting, &explicit)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if plan.Targets.Calories != 2136 {
		t.Fatalf("expected explicit change to win, got %v", plan.Targets.Calories)
	}
}

func TestCalculateRejectsBadInput(t *testing.T) {
	t.Parallel()
	good := nutrition.Biometrics{Age: 30, Gender: nutrition.Male, HeightCm: 180, WeightKg: 80, ActivityLevel: nutrition.Sedentary}
	tests := []struct {
		name  string
		mod   func(*nutrition.Biometrics)
		phase nutrition.PhaseType
		field string
	}{
		{name: "age", mod: func(b *nutrition.Biometrics) { b.Age = 0 }, phase: nutrition.Bulking, field: "age"},
		{name: "gender", mod: func(b *nutrition.Biometrics) { b.Gender = "x" }, phase: nutrition.Bulking, field: "gender"},
		{name: "activity", mod: func(b *nutrition.Biometrics) { b.ActivityLevel = "couch" }, phase: nutrition.Bulking, field: "activity_level"},
		{name: "phase", mod: func(*nutrition.Biometrics) {}, phase: "shred", field: "type"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := good
			tc.mod(&b)
			_, err := nutrition.Calculate(b, tc.phase, nil)
			var verr *nutrition.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected field %q got %q", tc.field, verr.Field)
			}
		})
	}
}
