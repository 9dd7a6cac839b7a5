package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
	"github.com/dmitrijs2005/mealkeeper/internal/client/repositories/snapshots"
	"github.com/dmitrijs2005/mealkeeper/internal/client/resources"
	"github.com/dmitrijs2005/mealkeeper/internal/logging"
)

// OfflineMeals is a meals list read back from the local snapshot store.
type OfflineMeals struct {
	Filter  string
	Meals   []models.Meal
	SavedAt time.Time
}

// SnapshotService keeps the last loaded meals list of each filter on disk so
// it can be shown while the API is unreachable.
type SnapshotService interface {
	SaveMeals(ctx context.Context, filter resources.MealFilter, meals []models.Meal) error
	// LoadMeals returns common.ErrorNotFound when the filter was never loaded.
	LoadMeals(ctx context.Context, filter resources.MealFilter) (OfflineMeals, error)
	Clear(ctx context.Context) error
	// Track saves every successful list of meals until the returned
	// function is called.
	Track(meals *resources.Meals) func()
}

type snapshotService struct {
	repo snapshots.Repository
	log  logging.Logger
	now  func() time.Time
}

func NewSnapshotService(repo snapshots.Repository, log logging.Logger) SnapshotService {
	if log == nil {
		log = logging.NewNop()
	}
	return &snapshotService{repo: repo, log: log, now: time.Now}
}

func (s *snapshotService) SaveMeals(ctx context.Context, filter resources.MealFilter, meals []models.Meal) error {
	if meals == nil {
		meals = []models.Meal{}
	}
	payload, err := json.Marshal(meals)
	if err != nil {
		return fmt.Errorf("encoding error: %w", err)
	}
	err = s.repo.Save(ctx, snapshots.Snapshot{Key: filter.Key(), Payload: payload, SavedAt: s.now()})
	if err != nil {
		return fmt.Errorf("saving error: %w", err)
	}
	return nil
}

func (s *snapshotService) LoadMeals(ctx context.Context, filter resources.MealFilter) (OfflineMeals, error) {
	snap, err := s.repo.Load(ctx, filter.Key())
	if err != nil {
		return OfflineMeals{}, err
	}
	var meals []models.Meal
	if err := json.Unmarshal(snap.Payload, &meals); err != nil {
		return OfflineMeals{}, fmt.Errorf("decoding error: %w", err)
	}
	return OfflineMeals{Filter: filter.Key(), Meals: meals, SavedAt: snap.SavedAt}, nil
}

func (s *snapshotService) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}

func (s *snapshotService) Track(meals *resources.Meals) func() {
	return meals.Subscribe(func(snap resources.Snapshot[models.Meal]) {
		if snap.State != resources.Loaded {
			return
		}
		filter, ok := meals.FilterAt(snap.Generation)
		if !ok {
			// a newer List is in flight and saves its own result
			return
		}
		ctx := context.Background()
		if err := s.SaveMeals(ctx, filter, snap.Items); err != nil {
			s.log.Warn(ctx, "meals snapshot not saved", "error", err)
		}
	})
}
