// Package selection tracks the selected meal and the viewed day.
//
// The selected meal is a weak reference into the meals collection: after
// every successful meals list it is replaced by the fresh server copy, or
// cleared when the meal is no longer in the list.
package selection

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
	"github.com/dmitrijs2005/mealkeeper/internal/client/resources"
	"github.com/dmitrijs2005/mealkeeper/internal/client/session"
)

var ErrInvalidSelection = errors.New("invalid selection")

type State struct {
	meals *resources.Meals
	scope resources.Scope

	mu       sync.Mutex
	selected *models.Meal
	date     time.Time

	unsubscribe func()
}

// New returns selection state bound to meals. day is the initially viewed
// day; scope decides whether meal lists are filtered by it.
func New(meals *resources.Meals, scope resources.Scope, day time.Time) *State {
	s := &State{meals: meals, scope: scope, date: day}
	s.unsubscribe = meals.Subscribe(func(snap resources.Snapshot[models.Meal]) {
		if snap.State == resources.Loaded {
			s.Reconcile(snap.Items)
		}
	})
	return s
}

// Close detaches the state from the meals collection.
func (s *State) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// SelectMeal selects meal. A meal without an id is rejected and the prior
// selection is kept.
func (s *State) SelectMeal(meal models.Meal) error {
	if meal.ID.Empty() {
		return ErrInvalidSelection
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = &meal
	return nil
}

// SelectMealByID selects a meal from the cached list.
func (s *State) SelectMealByID(id models.ID) error {
	if id.Empty() {
		return ErrInvalidSelection
	}
	meal, ok := s.meals.Find(id)
	if !ok {
		return ErrInvalidSelection
	}
	return s.SelectMeal(meal)
}

func (s *State) SelectedMeal() (models.Meal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return models.Meal{}, false
	}
	return *s.selected, true
}

// SelectDate switches the viewed day and re-lists meals. Responses still
// in flight for the previous day are discarded.
func (s *State) SelectDate(ctx context.Context, sess session.Context, day time.Time) ([]models.Meal, error) {
	s.mu.Lock()
	s.date = day
	s.mu.Unlock()

	s.meals.Invalidate()
	return s.meals.List(ctx, sess, s.Filter())
}

func (s *State) Date() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

// Filter returns the meals filter for the viewed day and configured scope.
func (s *State) Filter() resources.MealFilter {
	if s.scope == resources.ScopeAll {
		return resources.AllMeals()
	}
	return resources.ForDate(s.Date())
}

// Reconcile refreshes the selected meal from a fresh list, or clears it
// when the meal is gone.
func (s *State) Reconcile(meals []models.Meal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return
	}
	for _, m := range meals {
		if m.ID == s.selected.ID {
			fresh := m
			s.selected = &fresh
			return
		}
	}
	s.selected = nil
}

// Forget clears the selection if it points at id, e.g. after id was deleted.
func (s *State) Forget(id models.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != nil && s.selected.ID == id {
		s.selected = nil
	}
}

// Clear drops the selected meal. The viewed day is kept.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
}
