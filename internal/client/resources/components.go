package resources

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
	"github.com/dmitrijs2005/mealkeeper/internal/client/session"
	"github.com/dmitrijs2005/mealkeeper/internal/logging"
)

// FoodComponents synchronizes the components of one meal at a time.
// Component mutations change the owning meal's totals on the server, so
// they also re-list meals.
type FoodComponents struct {
	*Collection[models.FoodComponent]

	api    API
	meals  *Meals
	log    logging.Logger
	policy InvalidationPolicy

	mu     sync.Mutex
	mealID models.ID
}

func NewFoodComponents(api API, meals *Meals, log logging.Logger, policy InvalidationPolicy) *FoodComponents {
	if log == nil {
		log = logging.NewNop()
	}
	return &FoodComponents{
		Collection: NewCollection[models.FoodComponent]("food_components", log),
		api:        api,
		meals:      meals,
		log:        log,
		policy:     policy,
	}
}

// MealID returns the meal whose components are cached.
func (f *FoodComponents) MealID() models.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mealID
}

func (f *FoodComponents) ListForMeal(ctx context.Context, sess session.Context, mealID models.ID) ([]models.FoodComponent, error) {
	if err := requireID(mealID); err != nil {
		return nil, err
	}
	if err := requireAuth(sess); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.mealID = mealID
	f.mu.Unlock()

	return f.Load(ctx, func(ctx context.Context) ([]models.FoodComponent, error) {
		return f.api.ListMealFoodComponents(ctx, sess.AccessToken, mealID)
	})
}

// Create adds a component to draft.Meal, then refreshes the meals list and
// that meal's components.
func (f *FoodComponents) Create(ctx context.Context, sess session.Context, draft models.FoodComponentDraft) (models.FoodComponent, error) {
	if err := requireAuth(sess); err != nil {
		return models.FoodComponent{}, err
	}
	if err := validate("create food component", draft); err != nil {
		return models.FoodComponent{}, err
	}

	fc, err := f.api.CreateFoodComponent(ctx, sess.AccessToken, draft)
	if err != nil {
		return models.FoodComponent{}, fmt.Errorf("create food component: %w", err)
	}
	f.log.Info(ctx, "food component created", "id", fc.ID, "meal", draft.Meal)
	f.afterMutation(ctx, sess, draft.Meal)
	return fc, nil
}

func (f *FoodComponents) Delete(ctx context.Context, sess session.Context, id models.ID) error {
	if err := requireID(id); err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	if err := f.api.DeleteFoodComponent(ctx, sess.AccessToken, id); err != nil {
		return fmt.Errorf("delete food component: %w", err)
	}
	owner := f.owner(id)
	f.log.Info(ctx, "food component deleted", "id", id, "meal", owner)
	f.afterMutation(ctx, sess, owner)
	return nil
}

// owner returns the meal a component belongs to, looking first at the
// cached components and then at the components embedded in cached meals.
// It falls back to the meal currently shown.
func (f *FoodComponents) owner(id models.ID) models.ID {
	for _, fc := range f.Items() {
		if fc.ID == id && !fc.Meal.Empty() {
			return fc.Meal
		}
	}
	if f.meals != nil {
		for _, meal := range f.meals.Items() {
			for _, fc := range meal.FoodComponents {
				if fc.ID == id {
					if !fc.Meal.Empty() {
						return fc.Meal
					}
					return meal.ID
				}
			}
		}
	}
	return f.MealID()
}

func (f *FoodComponents) afterMutation(ctx context.Context, sess session.Context, mealID models.ID) {
	if f.policy != RelistAfterMutation {
		return
	}
	if f.meals != nil {
		if _, err := f.meals.Relist(ctx, sess); err != nil && !errors.Is(err, ErrStale) {
			f.log.Warn(ctx, "meals relist after component mutation failed", "error", err)
		}
	}
	if mealID.Empty() {
		return
	}
	if _, err := f.ListForMeal(ctx, sess, mealID); err != nil && !errors.Is(err, ErrStale) {
		f.log.Warn(ctx, "components relist after mutation failed", "meal", mealID, "error", err)
	}
}
