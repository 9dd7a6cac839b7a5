package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Micronutrients maps a nutrient name (e.g. "vitamin_c") to its amount.
type Micronutrients map[string]float64

// FoodComponent is one food inside a meal.
type FoodComponent struct {
	ID             ID             `json:"component_id"`
	Meal           ID             `json:"meal"`
	FoodName       string         `json:"food_name"`
	Brand          string         `json:"brand,omitempty"`
	Weight         Number         `json:"weight"`
	Fat            Number         `json:"fat"`
	Protein        Number         `json:"protein"`
	Carbs          Number         `json:"carbs"`
	Sugar          Number         `json:"sugar"`
	TotalCalories  Number         `json:"total_calories"`
	Micronutrients Micronutrients `json:"micronutrients,omitempty"`
}

// FoodComponentDraft is the body for POST /foodcomponents/. Meal is
// required: a component never exists without its owning meal.
type FoodComponentDraft struct {
	Meal           ID             `json:"meal"`
	FoodName       string         `json:"food_name"`
	Brand          string         `json:"brand,omitempty"`
	Weight         float64        `json:"weight"`
	Fat            float64        `json:"fat"`
	Protein        float64        `json:"protein"`
	Carbs          float64        `json:"carbs"`
	Sugar          float64        `json:"sugar"`
	TotalCalories  float64        `json:"total_calories"`
	Micronutrients Micronutrients `json:"micronutrients,omitempty"`
}

func (d FoodComponentDraft) Validate() error {
	if d.Meal.Empty() {
		return fmt.Errorf("%w: food component must reference a meal", ErrValidation)
	}
	if strings.TrimSpace(d.FoodName) == "" {
		return fmt.Errorf("%w: food name is required", ErrValidation)
	}
	if d.Weight <= 0 {
		return fmt.Errorf("%w: weight must be positive", ErrValidation)
	}
	for name, v := range map[string]float64{
		"fat":            d.Fat,
		"protein":        d.Protein,
		"carbs":          d.Carbs,
		"sugar":          d.Sugar,
		"total_calories": d.TotalCalories,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrValidation, name)
		}
	}
	for k, v := range d.Micronutrients {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("%w: micronutrient name is empty", ErrValidation)
		}
		if v < 0 {
			return fmt.Errorf("%w: micronutrient %s must not be negative", ErrValidation, k)
		}
	}
	return nil
}

// ParseMicronutrients converts "name=value" lines into Micronutrients.
func ParseMicronutrients(lines []string) (Micronutrients, error) {
	out := make(Micronutrients, len(lines))
	for _, line := range lines {
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w: micronutrient must be name=value, got %q", ErrValidation, line)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: micronutrient %s: %v", ErrValidation, name, err)
		}
		out[strings.TrimSpace(name)] = f
	}
	return out, nil
}
