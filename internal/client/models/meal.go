package models

import (
	"fmt"
	"strings"
)

// Meal is a logged meal. Totals are recomputed by the server whenever its
// food components change; FoodComponents keep the order the server returned.
type Meal struct {
	ID                ID              `json:"meal_id"`
	Name              string          `json:"meal_name"`
	TimeOfConsumption Timestamp       `json:"time_of_consumption"`
	HungerLevel       string          `json:"hunger_level,omitempty"`
	Exercise          string          `json:"exercise,omitempty"`
	TotalCalories     Number          `json:"total_calories"`
	TotalFat          Number          `json:"total_fat"`
	TotalProtein      Number          `json:"total_protein"`
	TotalCarbs        Number          `json:"total_carbs"`
	TotalSugar        Number          `json:"total_sugar"`
	FoodComponents    []FoodComponent `json:"food_components,omitempty"`
}

// MealDraft is the body for POST /meals/ and the full replace PUT /meals/{id}/.
type MealDraft struct {
	Name              string    `json:"meal_name"`
	TimeOfConsumption Timestamp `json:"time_of_consumption"`
	HungerLevel       string    `json:"hunger_level,omitempty"`
	Exercise          string    `json:"exercise,omitempty"`
}

func (d MealDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: meal name is required", ErrValidation)
	}
	if d.TimeOfConsumption.IsZero() {
		return fmt.Errorf("%w: time of consumption is required", ErrValidation)
	}
	return nil
}

// DraftFromMeal copies the client-editable fields of m.
func DraftFromMeal(m Meal) MealDraft {
	return MealDraft{
		Name:              m.Name,
		TimeOfConsumption: m.TimeOfConsumption,
		HungerLevel:       m.HungerLevel,
		Exercise:          m.Exercise,
	}
}
