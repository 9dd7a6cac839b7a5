package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
	"github.com/dmitrijs2005/mealkeeper/internal/client/resources"
)

func (a *App) printComponents(comps []models.FoodComponent) {
	if len(comps) == 0 {
		fmt.Fprintln(a.out, "No foods recorded for this meal")
		return
	}
	t := newTable("Foods", "ID", "Food", "Brand", "Weight", "kcal", "Fat", "Protein", "Carbs", "Sugar", "Micronutrients")
	for _, c := range comps {
		t.addRow(c.ID.String(), c.FoodName, c.Brand,
			formatNumber(c.Weight.Float()), formatNumber(c.TotalCalories.Float()),
			formatNumber(c.Fat.Float()), formatNumber(c.Protein.Float()),
			formatNumber(c.Carbs.Float()), formatNumber(c.Sugar.Float()),
			formatMicronutrients(c.Micronutrients))
	}
	fmt.Fprint(a.out, t)
}

func formatMicronutrients(m models.Micronutrients) string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+formatNumber(m[name]))
	}
	return strings.Join(parts, ", ")
}

func (a *App) promptFood(def models.FoodComponentDraft) (models.FoodComponentDraft, error) {
	d := models.FoodComponentDraft{Meal: def.Meal}
	var err error

	if d.FoodName, err = GetTextWithDefault(a.reader, "Food name", def.FoodName, a.out); err != nil {
		return d, err
	}
	if d.Brand, err = GetTextWithDefault(a.reader, "Brand", def.Brand, a.out); err != nil {
		return d, err
	}

	numbers := []struct {
		prompt string
		def    float64
		dst    *float64
	}{
		{"Weight (g)", def.Weight, &d.Weight},
		{"Fat (g)", def.Fat, &d.Fat},
		{"Protein (g)", def.Protein, &d.Protein},
		{"Carbs (g)", def.Carbs, &d.Carbs},
		{"Sugar (g)", def.Sugar, &d.Sugar},
		{"Total calories", def.TotalCalories, &d.TotalCalories},
	}
	for _, n := range numbers {
		if *n.dst, err = GetNumber(a.reader, n.prompt, n.def, a.out); err != nil {
			return d, err
		}
	}

	lines, err := GetMetadata(a.reader, "Micronutrients", a.out)
	if err != nil {
		return d, err
	}
	if len(lines) == 0 {
		d.Micronutrients = def.Micronutrients
		return d, nil
	}
	if d.Micronutrients, err = models.ParseMicronutrients(lines); err != nil {
		return d, err
	}
	return d, nil
}

// AddFood adds a food component to the selected meal.
func (a *App) AddFood(ctx context.Context, _ []string) error {
	meal, ok := a.sel.SelectedMeal()
	if !ok {
		return resources.ErrMissingIdentifier
	}

	def := models.FoodComponentDraft{Meal: meal.ID}
	if a.foodForm.Dirty() && a.foodForm.Draft().Meal == meal.ID {
		resume, err := GetConfirmation(a.reader, "Resume the unsaved food draft?", true, a.out)
		if err != nil {
			return err
		}
		if resume {
			def = a.foodForm.Draft()
		}
	}

	draft, err := a.promptFood(def)
	if err != nil {
		return err
	}
	a.foodForm.Set(draft)

	var created models.FoodComponent
	err = a.foodForm.Submit(ctx, func(ctx context.Context, d models.FoodComponentDraft) error {
		c, err := a.foods.Create(ctx, a.sess.Context(), d)
		created = c
		return err
	})
	if err != nil {
		return a.track(ctx, err)
	}

	fmt.Fprintf(a.out, "Added %s to %s (id %s)\n", created.FoodName, meal.Name, created.ID)
	return nil
}

// DeleteFood deletes a food component by id.
func (a *App) DeleteFood(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: usage: delfood <id>", models.ErrValidation)
	}
	id := models.ID(args[0])
	if err := a.foods.Delete(ctx, a.sess.Context(), id); err != nil {
		return a.track(ctx, err)
	}
	fmt.Fprintf(a.out, "Deleted food %s\n", id)
	return nil
}
