package resources

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
	"github.com/dmitrijs2005/mealkeeper/internal/client/session"
)

// API is the part of the API gateway client the synchronizer uses.
type API interface {
	ListGoals(ctx context.Context, token string) ([]models.Goal, error)
	UpdateGoal(ctx context.Context, token string, id models.ID, draft models.GoalDraft) (models.Goal, error)
	ApplyGoalsDirective(ctx context.Context, token string, id models.ID, d models.GoalsDirective) (models.Goal, error)

	ListMeals(ctx context.Context, token string, date string) ([]models.Meal, error)
	CreateMeal(ctx context.Context, token string, draft models.MealDraft) (models.Meal, error)
	UpdateMeal(ctx context.Context, token string, id models.ID, draft models.MealDraft) (models.Meal, error)
	DeleteMeal(ctx context.Context, token string, id models.ID) error

	CreateFoodComponent(ctx context.Context, token string, draft models.FoodComponentDraft) (models.FoodComponent, error)
	ListMealFoodComponents(ctx context.Context, token string, mealID models.ID) ([]models.FoodComponent, error)
	DeleteFoodComponent(ctx context.Context, token string, id models.ID) error
}

// InvalidationPolicy says what a resource does with its cache after a
// successful mutation.
type InvalidationPolicy int

const (
	// RelistAfterMutation re-fetches the full list from the server.
	RelistAfterMutation InvalidationPolicy = iota
	// KeepAfterMutation leaves the cache as is until the next List.
	KeepAfterMutation
)

func requireAuth(sess session.Context) error {
	if !sess.Authorized() {
		return session.ErrNotAuthenticated
	}
	return nil
}

func requireID(id models.ID) error {
	if id.Empty() {
		return ErrMissingIdentifier
	}
	return nil
}

func validate(op string, d interface{ Validate() error }) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
