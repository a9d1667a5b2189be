// Package nutrition turns biometrics and a phase goal into calorie and macro targets.
package nutrition

import (
	"fmt"
	"math"
	"strings"
)

const (
	kcalPerPound        = 3500.0
	kcalPerGramProtein  = 4.0
	kcalPerGramCarbs    = 4.0
	kcalPerGramFat      = 9.0
	daysPerWeek         = 7.0
	dailyKcalPerLbPerWk = kcalPerPound / daysPerWeek
)

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

type ActivityLevel string

const (
	Sedentary        ActivityLevel = "sedentary"
	LightlyActive    ActivityLevel = "lightly_active"
	ModeratelyActive ActivityLevel = "moderately_active"
	VeryActive       ActivityLevel = "very_active"
	ExtraActive      ActivityLevel = "extra_active"
)

var activityMultipliers = map[ActivityLevel]float64{
	Sedentary:        1.2,
	LightlyActive:    1.375,
	ModeratelyActive: 1.55,
	VeryActive:       1.725,
	ExtraActive:      1.9,
}

type PhaseType string

const (
	Bulking     PhaseType = "bulking"
	Cutting     PhaseType = "cutting"
	Maintenance PhaseType = "maintenance"
)

// MacroSplit is the share of calories per macro, each in [0,1].
type MacroSplit struct {
	Protein float64
	Fat     float64
	Carbs   float64
}

var macroSplits = map[PhaseType]MacroSplit{
	Bulking:     {Protein: 0.25, Fat: 0.25, Carbs: 0.50},
	Cutting:     {Protein: 0.35, Fat: 0.20, Carbs: 0.45},
	Maintenance: {Protein: 0.30, Fat: 0.25, Carbs: 0.45},
}

// weekly weight change in lb used when a phase does not set one
var defaultWeeklyChange = map[PhaseType]float64{
	Bulking:     0.5,
	Cutting:     -1,
	Maintenance: 0,
}

// Biometrics is the profile-derived input to the calculator.
type Biometrics struct {
	Age           int           `bson:"age" json:"age"`
	Gender        Gender        `bson:"gender" json:"gender"`
	HeightCm      float64       `bson:"height_cm" json:"height_cm"`
	WeightKg      float64       `bson:"weight_kg" json:"weight_kg"`
	ActivityLevel ActivityLevel `bson:"activity_level" json:"activity_level"`
}

// Targets are the stored daily goals of a phase. Macros are whole grams.
type Targets struct {
	Calories float64 `bson:"calories" json:"calories"`
	Protein  float64 `bson:"protein" json:"protein"`
	Fat      float64 `bson:"fat" json:"fat"`
	Carbs    float64 `bson:"carbs" json:"carbs"`
}

// Plan is the full breakdown returned by Calculate.
type Plan struct {
	BMR          float64 `json:"bmr"`
	TDEE         float64 `json:"tdee"`
	WeeklyChange float64 `json:"weekly_change"`
	Targets      Targets `json:"targets"`
}

// ValidationError reports an input the calculator cannot use.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks biometrics are complete and in range.
func (b Biometrics) Validate() error {
	switch {
	case b.Age <= 0 || b.Age > 120:
		return &ValidationError{Field: "age", Message: "must be between 1 and 120"}
	case b.HeightCm <= 0:
		return &ValidationError{Field: "height_cm", Message: "must be positive"}
	case b.WeightKg <= 0:
		return &ValidationError{Field: "weight_kg", Message: "must be positive"}
	}
	if _, err := ParseGender(string(b.Gender)); err != nil {
		return err
	}
	if _, err := ParseActivityLevel(string(b.ActivityLevel)); err != nil {
		return err
	}
	return nil
}

func ParseGender(s string) (Gender, error) {
	switch g := Gender(strings.ToLower(strings.TrimSpace(s))); g {
	case Male, Female:
		return g, nil
	}
	return "", &ValidationError{Field: "gender", Message: "must be male or female"}
}

func ParseActivityLevel(s string) (ActivityLevel, error) {
	lvl := ActivityLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := activityMultipliers[lvl]; !ok {
		return "", &ValidationError{Field: "activity_level", Message: "unknown activity level"}
	}
	return lvl, nil
}

func ParsePhaseType(s string) (PhaseType, error) {
	pt := PhaseType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := macroSplits[pt]; !ok {
		return "", &ValidationError{Field: "type", Message: "must be bulking, cutting or maintenance"}
	}
	return pt, nil
}

// BMR is the Mifflin-St Jeor basal metabolic rate in kcal/day.
func BMR(b Biometrics) float64 {
	base := 10*b.WeightKg + 6.25*b.HeightCm - 5*float64(b.Age)
	if b.Gender == Female {
		return base - 161
	}
	return base + 5
}

// TDEE scales BMR by the activity multiplier. Unknown levels count as sedentary.
func TDEE(b Biometrics) float64 {
	m, ok := activityMultipliers[b.ActivityLevel]
	if !ok {
		m = activityMultipliers[Sedentary]
	}
	return BMR(b) * m
}

// DefaultWeeklyChange is the lb/week goal implied by a phase type.
func DefaultWeeklyChange(pt PhaseType) float64 {
	return defaultWeeklyChange[pt]
}

// TargetCalories adjusts TDEE by the weekly weight change goal in lb.
func TargetCalories(tdee, weeklyChangeLb float64) float64 {
	return tdee + weeklyChangeLb*dailyKcalPerLbPerWk
}

// Macros splits calories by the phase table, rounding each macro to the nearest gram.
func Macros(calories float64, pt PhaseType) Targets {
	split, ok := macroSplits[pt]
	if !ok {
		split = macroSplits[Maintenance]
	}
	return Targets{
		Calories: math.Round(calories),
		Protein:  math.Round(calories * split.Protein / kcalPerGramProtein),
		Fat:      math.Round(calories * split.Fat / kcalPerGramFat),
		Carbs:    math.Round(calories * split.Carbs / kcalPerGramCarbs),
	}
}

// Calculate derives the complete plan. A nil weeklyChange uses the phase default.
func Calculate(b Biometrics, pt PhaseType, weeklyChange *float64) (Plan, error) {
	if err := b.Validate(); err != nil {
		return Plan{}, err
	}
	if _, err := ParsePhaseType(string(pt)); err != nil {
		return Plan{}, err
	}
	change := DefaultWeeklyChange(pt)
	if weeklyChange != nil {
		change = *weeklyChange
	}
	if change < -2 || change > 2 {
		return Plan{}, &ValidationError{Field: "weekly_change", Message: "must be between -2 and 2 lb/week"}
	}

	bmr := BMR(b)
	tdee := TDEE(b)
	return Plan{
		BMR:          bmr,
		TDEE:         tdee,
		WeeklyChange: change,
		Targets:      Macros(TargetCalories(tdee, change), pt),
	}, nil
}
