package nutrition

import "math"

// Facts are nutrition values for a quantity of food.
type Facts struct {
	Calories float64 `bson:"calories" json:"calories"`
	Protein  float64 `bson:"protein" json:"protein"`
	Fat      float64 `bson:"fat" json:"fat"`
	Carbs    float64 `bson:"carbs" json:"carbs"`
}

// Ingredient is an amount of food with its per 100 g facts.
type Ingredient struct {
	Name    string  `bson:"name" json:"name"`
	AmountG float64 `bson:"amount_g" json:"amount_g"`
	Per100g Facts   `bson:"per_100g" json:"per_100g"`
}

// Scale multiplies every value by f.
func (n Facts) Scale(f float64) Facts {
	return Facts{
		Calories: n.Calories * f,
		Protein:  n.Protein * f,
		Fat:      n.Fat * f,
		Carbs:    n.Carbs * f,
	}
}

func (n Facts) Add(o Facts) Facts {
	return Facts{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Fat:      n.Fat + o.Fat,
		Carbs:    n.Carbs + o.Carbs,
	}
}

// Round2 rounds each value to two decimal places.
func (n Facts) Round2() Facts {
	return Facts{
		Calories: round2(n.Calories),
		Protein:  round2(n.Protein),
		Fat:      round2(n.Fat),
		Carbs:    round2(n.Carbs),
	}
}

// Facts returns the ingredient's contribution, scaled by amount/100 g.
func (i Ingredient) Facts() Facts {
	return i.Per100g.Scale(i.AmountG / 100).Round2()
}

// MealTotals sums every ingredient's contribution.
func MealTotals(ingredients []Ingredient) Facts {
	var total Facts
	for _, ing := range ingredients {
		total = total.Add(ing.Facts())
	}
	return total.Round2()
}

// ValidateIngredients rejects empty names and non-positive or negative values.
func ValidateIngredients(ingredients []Ingredient) error {
	if len(ingredients) == 0 {
		return &ValidationError{Field: "ingredients", Message: "at least one ingredient is required"}
	}
	for _, ing := range ingredients {
		if ing.Name == "" {
			return &ValidationError{Field: "ingredients.name", Message: "is required"}
		}
		if ing.AmountG <= 0 {
			return &ValidationError{Field: "ingredients.amount_g", Message: "must be positive"}
		}
		p := ing.Per100g
		if p.Calories < 0 || p.Protein < 0 || p.Fat < 0 || p.Carbs < 0 {
			return &ValidationError{Field: "ingredients.per_100g", Message: "must not be negative"}
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
