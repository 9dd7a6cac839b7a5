package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mealkeeper/internal/client/export"
	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
	"github.com/dmitrijs2005/mealkeeper/internal/client/resources"
)

var errNoGoals = errors.New("no goals found for this account")

// currentGoal returns the cached goal, listing goals first if needed.
func (a *App) currentGoal(ctx context.Context) (models.Goal, error) {
	if a.goals.State() != resources.Loaded {
		if _, err := a.goals.List(ctx, a.sess.Context()); err != nil {
			return models.Goal{}, a.track(ctx, err)
		}
	}
	g, ok := a.goals.Current()
	if !ok {
		return models.Goal{}, errNoGoals
	}
	return g, nil
}

// viewedMeals returns the cached meals when they match the viewed day and
// lists them otherwise.
func (a *App) viewedMeals(ctx context.Context) ([]models.Meal, error) {
	filter := a.sel.Filter()
	if a.meals.State() == resources.Loaded && a.meals.Filter().Key() == filter.Key() {
		return a.meals.Items(), nil
	}
	meals, err := a.meals.List(ctx, a.sess.Context(), filter)
	if err != nil {
		return nil, a.track(ctx, err)
	}
	return meals, nil
}

// Goals prints the goal next to what the viewed meals add up to.
func (a *App) Goals(ctx context.Context, _ []string) error {
	g, err := a.currentGoal(ctx)
	if err != nil {
		return err
	}

	meals, err := a.viewedMeals(ctx)
	if err != nil {
		a.log.Warn(ctx, "meals not loaded for goals summary", "error", err)
	}
	a.printGoal(g, export.Summarize(meals))
	return nil
}

func (a *App) printGoal(g models.Goal, eaten export.Summary) {
	t := newTable("Goals", "", "Goal", "Eaten", "Left")
	row := func(name string, goal, got float64) {
		t.addRow(name, formatNumber(goal), formatNumber(got), formatNumber(goal-got))
	}
	row("Calories", g.CalorieGoal.Float(), eaten.Calories)
	row("Protein", g.ProteinGoal.Float(), eaten.Protein)
	row("Carbs", g.CarbGoal.Float(), eaten.Carbs)
	row("Fat", g.FatGoal.Float(), eaten.Fat)
	fmt.Fprint(a.out, t)

	if s := strings.TrimSpace(g.Summary); s != "" {
		fmt.Fprintf(a.out, "Summary: %s\n", s)
	}
}

// SetGoals edits the goal values field by field.
func (a *App) SetGoals(ctx context.Context, _ []string) error {
	g, err := a.currentGoal(ctx)
	if err != nil {
		return err
	}

	def := models.DraftFromGoal(g)
	if a.goalForm.Dirty() {
		resume, err := GetConfirmation(a.reader, "Resume the unsaved goals?", true, a.out)
		if err != nil {
			return err
		}
		if resume {
			def = a.goalForm.Draft()
		}
	}

	var d models.GoalDraft
	numbers := []struct {
		prompt string
		def    float64
		dst    *float64
	}{
		{"Calorie goal", def.CalorieGoal, &d.CalorieGoal},
		{"Protein goal (g)", def.ProteinGoal, &d.ProteinGoal},
		{"Carb goal (g)", def.CarbGoal, &d.CarbGoal},
		{"Fat goal (g)", def.FatGoal, &d.FatGoal},
	}
	for _, n := range numbers {
		if *n.dst, err = GetNumber(a.reader, n.prompt, n.def, a.out); err != nil {
			return err
		}
	}
	if d.Summary, err = GetTextWithDefault(a.reader, "Summary", def.Summary, a.out); err != nil {
		return err
	}
	a.goalForm.Set(d)

	var updated models.Goal
	err = a.goalForm.Submit(ctx, func(ctx context.Context, d models.GoalDraft) error {
		u, err := a.goals.Update(ctx, a.sess.Context(), g.ID, d)
		updated = u
		return err
	})
	if err != nil {
		return a.track(ctx, err)
	}

	fmt.Fprintln(a.out, "Goals updated")
	a.printGoal(updated, export.Summarize(a.meals.Items()))
	return nil
}

// GoalsInput sends a free text description and lets the server derive the
// goal values from it.
func (a *App) GoalsInput(ctx context.Context, args []string) error {
	g, err := a.currentGoal(ctx)
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	if text == "" {
		if text, err = getSimpleText(a.reader, "Describe your goals", a.out); err != nil {
			return err
		}
	}

	updated, err := a.goals.ApplyDirective(ctx, a.sess.Context(), g.ID, models.GoalsDirective{GoalsInput: text})
	if err != nil {
		return a.track(ctx, err)
	}

	fmt.Fprintln(a.out, "Goals updated")
	a.printGoal(updated, export.Summarize(a.meals.Items()))
	return nil
}
