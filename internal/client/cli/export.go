package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mealkeeper/internal/client/api"
	"github.com/dmitrijs2005/mealkeeper/internal/client/export"
	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
)

// Export writes the viewed meals together with the goal and the day's
// totals. Offline, the saved copy of the meals is exported.
func (a *App) Export(ctx context.Context, _ []string) error {
	filter := a.sel.Filter()

	meals, err := a.viewedMeals(ctx)
	if err != nil {
		if !errors.Is(err, api.ErrNetwork) {
			return err
		}
		saved, loadErr := a.snaps.LoadMeals(ctx, filter)
		if loadErr != nil {
			return err
		}
		meals = saved.Meals
	}

	var goal *models.Goal
	if g, err := a.currentGoal(ctx); err == nil {
		goal = &g
	} else {
		a.log.Warn(ctx, "exporting without goals", "error", err)
	}

	day := export.NewDay(a.sess.Context().Username, filter.Key(), goal, meals, a.now())
	location, err := a.exporter.Export(ctx, day)
	if err != nil {
		return a.track(ctx, err)
	}

	a.log.Info(ctx, "meals exported", "location", location, "meals", len(meals))
	fmt.Fprintf(a.out, "Exported %d meals to %s\n", len(meals), location)
	return nil
}
