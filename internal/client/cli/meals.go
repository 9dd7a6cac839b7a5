package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/mealkeeper/internal/client/api"
	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
	"github.com/dmitrijs2005/mealkeeper/internal/client/resources"
	"github.com/dmitrijs2005/mealkeeper/internal/client/selection"
	"github.com/dmitrijs2005/mealkeeper/internal/common"
)

const mealTimeLayout = "2006-01-02 15:04"

// ListMeals lists the meals of the viewed day. When the server cannot be
// reached the last saved copy is shown instead.
func (a *App) ListMeals(ctx context.Context, _ []string) error {
	filter := a.sel.Filter()
	meals, err := a.meals.List(ctx, a.sess.Context(), filter)
	if err != nil {
		return a.offlineMeals(ctx, filter, a.track(ctx, err))
	}
	a.printMeals(filter, meals)
	return nil
}

// Date switches the viewed day and lists its meals.
func (a *App) Date(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: usage: date <YYYY-MM-DD|today>", models.ErrValidation)
	}

	var (
		day time.Time
		err error
	)
	if strings.EqualFold(args[0], "today") {
		day = common.Today(a.now())
	} else if day, err = common.ParseDate(args[0]); err != nil {
		return err
	}

	meals, err := a.sel.SelectDate(ctx, a.sess.Context(), day)
	if err != nil {
		return a.offlineMeals(ctx, a.sel.Filter(), a.track(ctx, err))
	}
	a.printMeals(a.sel.Filter(), meals)
	return nil
}

// offlineMeals prints the saved copy for filter when cause is a network
// failure. Otherwise, or when nothing was saved, cause is returned.
func (a *App) offlineMeals(ctx context.Context, filter resources.MealFilter, cause error) error {
	if !errors.Is(cause, api.ErrNetwork) {
		return cause
	}
	saved, err := a.snaps.LoadMeals(ctx, filter)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			a.log.Warn(ctx, "offline meals not loaded", "error", err)
		}
		return cause
	}
	fmt.Fprintf(a.out, "Offline, showing the copy saved at %s\n", saved.SavedAt.Local().Format(mealTimeLayout))
	a.printMeals(filter, saved.Meals)
	return nil
}

func (a *App) printMeals(filter resources.MealFilter, meals []models.Meal) {
	title := "All meals"
	if filter.Scope == resources.ScopeDate {
		title = "Meals for " + common.FormatDate(filter.Date)
	}
	if len(meals) == 0 {
		fmt.Fprintf(a.out, "%s: nothing recorded\n", title)
		return
	}

	selected, _ := a.sel.SelectedMeal()
	t := newTable(title, "", "ID", "Name", "Time", "kcal", "Fat", "Protein", "Carbs", "Sugar")
	for _, m := range meals {
		mark := ""
		if !selected.ID.Empty() && m.ID == selected.ID {
			mark = "*"
		}
		t.addRow(mark, m.ID.String(), m.Name, formatMealTime(m.TimeOfConsumption),
			formatNumber(m.TotalCalories.Float()), formatNumber(m.TotalFat.Float()),
			formatNumber(m.TotalProtein.Float()), formatNumber(m.TotalCarbs.Float()),
			formatNumber(m.TotalSugar.Float()))
	}
	fmt.Fprint(a.out, t)
}

func formatMealTime(ts models.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(mealTimeLayout)
}

// promptMeal asks for every meal field, offering def as the answers.
func (a *App) promptMeal(def models.MealDraft) (models.MealDraft, error) {
	var d models.MealDraft
	var err error

	if d.Name, err = GetTextWithDefault(a.reader, "Meal name", def.Name, a.out); err != nil {
		return d, err
	}

	when := def.TimeOfConsumption
	if when.IsZero() {
		clock := a.now()
		day := a.sel.Date()
		when = models.Timestamp{Time: time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC)}
	}
	s, err := GetTextWithDefault(a.reader, "Time of consumption (YYYY-MM-DD HH:MM)", when.Format(mealTimeLayout), a.out)
	if err != nil {
		return d, err
	}
	if d.TimeOfConsumption, err = models.ParseTimestamp(s); err != nil {
		return d, err
	}

	if d.HungerLevel, err = GetTextWithDefault(a.reader, "Hunger level", def.HungerLevel, a.out); err != nil {
		return d, err
	}
	if d.Exercise, err = GetTextWithDefault(a.reader, "Exercise", def.Exercise, a.out); err != nil {
		return d, err
	}
	return d, nil
}

// AddMeal records a new meal and selects it when it shows up in the viewed
// list. A draft the server rejected is kept and offered on the next call.
func (a *App) AddMeal(ctx context.Context, _ []string) error {
	var def models.MealDraft
	if a.mealForm.Dirty() {
		resume, err := GetConfirmation(a.reader, "Resume the unsaved meal draft?", true, a.out)
		if err != nil {
			return err
		}
		if resume {
			def = a.mealForm.Draft()
		} else {
			a.mealForm.Reset()
		}
	}

	draft, err := a.promptMeal(def)
	if err != nil {
		return err
	}
	a.mealForm.Set(draft)

	var created models.Meal
	err = a.mealForm.Submit(ctx, func(ctx context.Context, d models.MealDraft) error {
		m, err := a.meals.Create(ctx, a.sess.Context(), d)
		created = m
		return err
	})
	if err != nil {
		return a.track(ctx, err)
	}

	listed, ok := a.meals.Find(created.ID)
	if !ok {
		fmt.Fprintf(a.out, "Recorded %s (id %s), not on the viewed day\n", created.Name, created.ID)
		return nil
	}
	if err := a.sel.SelectMeal(listed); err != nil {
		a.log.Warn(ctx, "created meal not selected", "error", err)
	}
	fmt.Fprintf(a.out, "Recorded %s (id %s)\n", created.Name, created.ID)
	return nil
}

// targetMealID is the id passed as the first argument, or the selected meal.
func (a *App) targetMealID(args []string) models.ID {
	if len(args) > 0 {
		return models.ID(args[0])
	}
	if m, ok := a.sel.SelectedMeal(); ok {
		return m.ID
	}
	return ""
}

func (a *App) findMeal(id models.ID) (models.Meal, error) {
	if id.Empty() {
		return models.Meal{}, resources.ErrMissingIdentifier
	}
	if m, ok := a.meals.Find(id); ok {
		return m, nil
	}
	if m, ok := a.sel.SelectedMeal(); ok && m.ID == id {
		return m, nil
	}
	return models.Meal{}, selection.ErrInvalidSelection
}

// EditMeal edits the given or the selected meal.
func (a *App) EditMeal(ctx context.Context, args []string) error {
	meal, err := a.findMeal(a.targetMealID(args))
	if err != nil {
		return err
	}

	def := models.DraftFromMeal(meal)
	if a.editForm.Dirty() && a.editing == meal.ID {
		resume, err := GetConfirmation(a.reader, "Resume the unsaved changes?", true, a.out)
		if err != nil {
			return err
		}
		if resume {
			def = a.editForm.Draft()
		}
	}

	draft, err := a.promptMeal(def)
	if err != nil {
		return err
	}
	a.editing = meal.ID
	a.editForm.Set(draft)

	var updated models.Meal
	err = a.editForm.Submit(ctx, func(ctx context.Context, d models.MealDraft) error {
		m, err := a.meals.Update(ctx, a.sess.Context(), meal.ID, d)
		updated = m
		return err
	})
	if err != nil {
		return a.track(ctx, err)
	}
	a.editing = ""

	fmt.Fprintf(a.out, "Updated %s\n", updated.Name)
	return nil
}

// DeleteMeal deletes the given or the selected meal.
func (a *App) DeleteMeal(ctx context.Context, args []string) error {
	id := a.targetMealID(args)
	if err := a.meals.Delete(ctx, a.sess.Context(), id); err != nil {
		return a.track(ctx, err)
	}

	a.sel.Forget(id)
	if a.foods.MealID() == id {
		a.foods.Invalidate()
	}
	fmt.Fprintf(a.out, "Deleted meal %s\n", id)
	return nil
}

// Select selects a meal of the current list by id.
func (a *App) Select(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return resources.ErrMissingIdentifier
	}
	if a.meals.State() != resources.Loaded {
		if _, err := a.meals.List(ctx, a.sess.Context(), a.sel.Filter()); err != nil {
			return a.track(ctx, err)
		}
	}
	if err := a.sel.SelectMealByID(models.ID(args[0])); err != nil {
		return err
	}

	m, _ := a.sel.SelectedMeal()
	fmt.Fprintf(a.out, "Selected %s\n", m.Name)
	return nil
}

// Show prints the selected meal with its food components.
func (a *App) Show(ctx context.Context, _ []string) error {
	meal, ok := a.sel.SelectedMeal()
	if !ok {
		return resources.ErrMissingIdentifier
	}

	comps, err := a.foods.ListForMeal(ctx, a.sess.Context(), meal.ID)
	if err != nil {
		if !errors.Is(a.track(ctx, err), api.ErrNetwork) {
			return err
		}
		fmt.Fprintln(a.out, "Offline, showing the foods from the last meals list")
		comps = meal.FoodComponents
	}

	fmt.Fprintf(a.out, "%s at %s\n", meal.Name, formatMealTime(meal.TimeOfConsumption))
	if meal.HungerLevel != "" {
		fmt.Fprintf(a.out, "Hunger level: %s\n", meal.HungerLevel)
	}
	if meal.Exercise != "" {
		fmt.Fprintf(a.out, "Exercise: %s\n", meal.Exercise)
	}
	fmt.Fprintf(a.out, "Total: %s kcal, fat %s, protein %s, carbs %s, sugar %s\n",
		formatNumber(meal.TotalCalories.Float()), formatNumber(meal.TotalFat.Float()),
		formatNumber(meal.TotalProtein.Float()), formatNumber(meal.TotalCarbs.Float()),
		formatNumber(meal.TotalSugar.Float()))

	a.printComponents(comps)
	return nil
}
