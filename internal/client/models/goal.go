package models

import (
	"fmt"
	"strings"
)

// Goal holds the user's daily nutrition targets. The API returns a list;
// the first element is the user's goal.
type Goal struct {
	ID          ID     `json:"id"`
	FatGoal     Number `json:"fat_goal"`
	CarbGoal    Number `json:"carb_goal"`
	ProteinGoal Number `json:"protein_goal"`
	CalorieGoal Number `json:"calorie_goal"`
	Summary     string `json:"summary,omitempty"`
}

// GoalDraft is the full-replace body for PUT /usergoals/{id}/.
type GoalDraft struct {
	FatGoal     float64 `json:"fat_goal"`
	CarbGoal    float64 `json:"carb_goal"`
	ProteinGoal float64 `json:"protein_goal"`
	CalorieGoal float64 `json:"calorie_goal"`
	Summary     string  `json:"summary,omitempty"`
}

func (d GoalDraft) Validate() error {
	for name, v := range map[string]float64{
		"fat_goal":     d.FatGoal,
		"carb_goal":    d.CarbGoal,
		"protein_goal": d.ProteinGoal,
		"calorie_goal": d.CalorieGoal,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrValidation, name)
		}
	}
	return nil
}

// DraftFromGoal returns a draft carrying the current values of g, ready to be
// edited and sent back as a full replace.
func DraftFromGoal(g Goal) GoalDraft {
	return GoalDraft{
		FatGoal:     g.FatGoal.Float(),
		CarbGoal:    g.CarbGoal.Float(),
		ProteinGoal: g.ProteinGoal.Float(),
		CalorieGoal: g.CalorieGoal.Float(),
		Summary:     g.Summary,
	}
}

// GoalsDirective is free text the server interprets into goal values,
// e.g. "2000 kcal, 150g protein".
type GoalsDirective struct {
	GoalsInput string `json:"goals_input"`
}

func (d GoalsDirective) Validate() error {
	if strings.TrimSpace(d.GoalsInput) == "" {
		return fmt.Errorf("%w: goals input is empty", ErrValidation)
	}
	return nil
}
