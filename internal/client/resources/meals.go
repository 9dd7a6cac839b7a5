package resources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
	"github.com/dmitrijs2005/mealkeeper/internal/client/session"
	"github.com/dmitrijs2005/mealkeeper/internal/common"
	"github.com/dmitrijs2005/mealkeeper/internal/logging"
)

// Scope selects which meals a list covers.
type Scope int

const (
	// ScopeDate lists the meals of one calendar day (?date=YYYY-MM-DD).
	ScopeDate Scope = iota
	// ScopeAll lists every meal of the user.
	ScopeAll
)

func (s Scope) String() string {
	if s == ScopeAll {
		return "all"
	}
	return "date"
}

// ParseScope accepts "date" or "all".
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "date":
		return ScopeDate, nil
	case "all":
		return ScopeAll, nil
	default:
		return 0, fmt.Errorf("unknown meal scope %q", s)
	}
}

type MealFilter struct {
	Scope Scope
	Date  time.Time
}

func ForDate(d time.Time) MealFilter { return MealFilter{Scope: ScopeDate, Date: d} }

func AllMeals() MealFilter { return MealFilter{Scope: ScopeAll} }

// Query returns the date query value, empty for ScopeAll.
func (f MealFilter) Query() (string, error) {
	if f.Scope == ScopeAll {
		return "", nil
	}
	if f.Date.IsZero() {
		return "", common.ErrInvalidDate
	}
	return common.FormatDate(f.Date), nil
}

// Key identifies the list the filter selects, e.g. "meals:2024-05-01".
func (f MealFilter) Key() string {
	if f.Scope == ScopeAll || f.Date.IsZero() {
		return "meals:all"
	}
	return "meals:" + common.FormatDate(f.Date)
}

// Meals synchronizes /meals/.
type Meals struct {
	*Collection[models.Meal]

	api    API
	log    logging.Logger
	policy InvalidationPolicy

	mu        sync.Mutex
	filter    MealFilter
	filterGen uint64
}

// NewMeals returns a meals resource; initial is the filter re-lists use
// until the first List call.
func NewMeals(api API, log logging.Logger, policy InvalidationPolicy, initial MealFilter) *Meals {
	if log == nil {
		log = logging.NewNop()
	}
	return &Meals{
		Collection: NewCollection[models.Meal]("meals", log),
		api:        api,
		log:        log,
		policy:     policy,
		filter:     initial,
	}
}

// Filter returns the filter of the newest List call. Only that call's
// response can be applied to the cache, so Filter always describes the
// cached items once they are loaded.
func (m *Meals) Filter() MealFilter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter
}

// List replaces the cache with the meals matching filter. The filter is
// remembered for later re-lists.
func (m *Meals) List(ctx context.Context, sess session.Context, filter MealFilter) ([]models.Meal, error) {
	if err := requireAuth(sess); err != nil {
		return nil, err
	}
	date, err := filter.Query()
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}

	setFilter := func(gen uint64) {
		m.mu.Lock()
		m.filter = filter
		m.filterGen = gen
		m.mu.Unlock()
	}
	return m.load(ctx, setFilter, func(ctx context.Context) ([]models.Meal, error) {
		return m.api.ListMeals(ctx, sess.AccessToken, date)
	})
}

// FilterAt returns the filter of the List that started generation gen. It
// reports false once a newer List has started.
func (m *Meals) FilterAt(gen uint64) (MealFilter, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen == 0 || gen != m.filterGen {
		return MealFilter{}, false
	}
	return m.filter, true
}

// Relist repeats the last List.
func (m *Meals) Relist(ctx context.Context, sess session.Context) ([]models.Meal, error) {
	return m.List(ctx, sess, m.Filter())
}

// Find returns the cached meal with the given id.
func (m *Meals) Find(id models.ID) (models.Meal, bool) {
	for _, meal := range m.Items() {
		if meal.ID == id {
			return meal, true
		}
	}
	return models.Meal{}, false
}

func (m *Meals) Create(ctx context.Context, sess session.Context, draft models.MealDraft) (models.Meal, error) {
	if err := requireAuth(sess); err != nil {
		return models.Meal{}, err
	}
	if err := validate("create meal", draft); err != nil {
		return models.Meal{}, err
	}

	meal, err := m.api.CreateMeal(ctx, sess.AccessToken, draft)
	if err != nil {
		return models.Meal{}, fmt.Errorf("create meal: %w", err)
	}
	m.log.Info(ctx, "meal created", "id", meal.ID)
	m.afterMutation(ctx, sess)
	return meal, nil
}

// Update fully replaces the meal identified by id.
func (m *Meals) Update(ctx context.Context, sess session.Context, id models.ID, draft models.MealDraft) (models.Meal, error) {
	if err := requireID(id); err != nil {
		return models.Meal{}, err
	}
	if err := requireAuth(sess); err != nil {
		return models.Meal{}, err
	}
	if err := validate("update meal", draft); err != nil {
		return models.Meal{}, err
	}

	meal, err := m.api.UpdateMeal(ctx, sess.AccessToken, id, draft)
	if err != nil {
		return models.Meal{}, fmt.Errorf("update meal: %w", err)
	}
	m.afterMutation(ctx, sess)
	return meal, nil
}

func (m *Meals) Delete(ctx context.Context, sess session.Context, id models.ID) error {
	if err := requireID(id); err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	if err := m.api.DeleteMeal(ctx, sess.AccessToken, id); err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	m.log.Info(ctx, "meal deleted", "id", id)
	m.afterMutation(ctx, sess)
	return nil
}

func (m *Meals) afterMutation(ctx context.Context, sess session.Context) {
	if m.policy != RelistAfterMutation {
		return
	}
	if _, err := m.Relist(ctx, sess); err != nil && !errors.Is(err, ErrStale) {
		m.log.Warn(ctx, "meals relist after mutation failed", "error", err)
	}
}
