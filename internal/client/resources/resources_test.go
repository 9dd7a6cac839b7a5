package resources

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/mealkeeper/internal/apitest"
	"github.com/dmitrijs2005/mealkeeper/internal/client/api"
	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
	"github.com/dmitrijs2005/mealkeeper/internal/client/session"
	"github.com/dmitrijs2005/mealkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var may1 = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	srv    *apitest.Server
	client *api.Client
	sess   session.Context
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	srv := apitest.New(t, apitest.WithTokens(models.Credential{Access: "t1", Refresh: "r1"}))
	srv.AddUser("alice", "pw", "alice@example.com")

	c, err := api.New(srv.URL(), api.WithHTTPClient(srv.HTTPClient()))
	require.NoError(t, err)

	cred, err := c.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	require.Equal(t, "t1", cred.Access)

	return fixture{srv: srv, client: c, sess: session.Context{Username: "alice", AccessToken: cred.Access}}
}

func lunch() models.MealDraft {
	return models.MealDraft{
		Name:              "Lunch",
		TimeOfConsumption: models.Timestamp{Time: time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)},
	}
}

func TestMeals_CreateThenListScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	meals := NewMeals(f.client, nil, RelistAfterMutation, ForDate(may1))

	got, err := meals.List(ctx, f.sess, ForDate(may1))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, Loaded, meals.State())

	created, err := meals.Create(ctx, f.sess, lunch())
	require.NoError(t, err)
	require.False(t, created.ID.Empty())

	items := meals.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Lunch", items[0].Name)
	assert.Equal(t, created.ID, items[0].ID)

	reqs := f.srv.Requests()
	require.Len(t, reqs, 4)
	assert.Equal(t, "GET", reqs[1].Method)
	assert.Equal(t, "date=2024-05-01", reqs[1].Query)
	assert.Equal(t, "POST", reqs[2].Method)
	assert.Equal(t, "/api/meals/", reqs[2].Path)
	assert.Equal(t, "date=2024-05-01", reqs[3].Query, "re-list keeps the filter")
	for _, r := range reqs[1:] {
		assert.Equal(t, "Bearer t1", r.Authorization)
	}
}

func TestMeals_ScopeAllSendsNoDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	meals := NewMeals(f.client, nil, RelistAfterMutation, AllMeals())

	_, err := meals.Create(ctx, f.sess, lunch())
	require.NoError(t, err)

	other := lunch()
	other.Name = "Dinner"
	other.TimeOfConsumption = models.Timestamp{Time: time.Date(2024, 5, 2, 19, 0, 0, 0, time.UTC)}
	_, err = meals.Create(ctx, f.sess, other)
	require.NoError(t, err)

	all, err := meals.List(ctx, f.sess, AllMeals())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	day, err := meals.List(ctx, f.sess, ForDate(may1))
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, "Lunch", day[0].Name)

	reqs := f.srv.Requests()
	assert.Empty(t, reqs[len(reqs)-2].Query)
	assert.Equal(t, ForDate(may1), meals.Filter())
}

func TestMeals_DateFilterWithoutDate(t *testing.T) {
	f := newFixture(t)
	meals := NewMeals(f.client, nil, RelistAfterMutation, AllMeals())
	before := f.srv.RequestCount()

	_, err := meals.List(context.Background(), f.sess, MealFilter{Scope: ScopeDate})
	require.ErrorIs(t, err, common.ErrInvalidDate)
	assert.Equal(t, before, f.srv.RequestCount())
}

func TestMeals_MissingIdentifierSendsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	meals := NewMeals(f.client, nil, RelistAfterMutation, ForDate(may1))
	before := f.srv.RequestCount()

	_, err := meals.Update(ctx, f.sess, "", lunch())
	require.ErrorIs(t, err, ErrMissingIdentifier)

	err = meals.Delete(ctx, f.sess, "  ")
	require.ErrorIs(t, err, ErrMissingIdentifier)

	assert.Equal(t, before, f.srv.RequestCount())
}

func TestMeals_UnauthenticatedSendsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	meals := NewMeals(f.client, nil, RelistAfterMutation, ForDate(may1))
	before := f.srv.RequestCount()

	_, err := meals.List(ctx, session.Context{}, ForDate(may1))
	require.ErrorIs(t, err, session.ErrNotAuthenticated)
	_, err = meals.Create(ctx, session.Context{}, lunch())
	require.ErrorIs(t, err, session.ErrNotAuthenticated)

	assert.Equal(t, before, f.srv.RequestCount())
	assert.Equal(t, Unloaded, meals.State())
}

func TestMeals_InvalidDraftSendsNothing(t *testing.T) {
	f := newFixture(t)
	meals := NewMeals(f.client, nil, RelistAfterMutation, ForDate(may1))
	before := f.srv.RequestCount()

	_, err := meals.Create(context.Background(), f.sess, models.MealDraft{})
	require.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, before, f.srv.RequestCount())
}

func TestMeals_ServerFailureKeepsFormDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	meals := NewMeals(f.client, nil, RelistAfterMutation, ForDate(may1))

	var form Form[models.MealDraft]
	form.Set(lunch())
	submit := func(ctx context.Context, d models.MealDraft) error {
		_, err := meals.Create(ctx, f.sess, d)
		return err
	}

	f.srv.FailNext(http.MethodPost, "/api/meals/", http.StatusInternalServerError)
	err := form.Submit(ctx, submit)
	var he *api.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusInternalServerError, he.Status)
	assert.True(t, form.Dirty())
	assert.Equal(t, "Lunch", form.Draft().Name)
	assert.Empty(t, f.srv.Meals("alice"), "no retry")

	require.NoError(t, form.Submit(ctx, submit))
	assert.False(t, form.Dirty())
	assert.Len(t, f.srv.Meals("alice"), 1)
}

func TestMeals_RelistFailureAfterCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	meals := NewMeals(f.client, nil, RelistAfterMutation, ForDate(may1))

	_, err := meals.List(ctx, f.sess, ForDate(may1))
	require.NoError(t, err)

	f.srv.FailNext(http.MethodGet, "/api/meals/", http.StatusServiceUnavailable)
	created, err := meals.Create(ctx, f.sess, lunch())
	require.NoError(t, err, "the meal exists on the server")
	assert.False(t, created.ID.Empty())
	assert.Equal(t, Error, meals.State())

	_, err = meals.Relist(ctx, f.sess)
	require.NoError(t, err)
	assert.Len(t, meals.Items(), 1)
}

func TestMeals_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	meals := NewMeals(f.client, nil, RelistAfterMutation, ForDate(may1))

	created, err := meals.Create(ctx, f.sess, lunch())
	require.NoError(t, err)

	d := models.DraftFromMeal(created)
	d.Name = "Late lunch"
	d.HungerLevel = "high"
	updated, err := meals.Update(ctx, f.sess, created.ID, d)
	require.NoError(t, err)
	assert.Equal(t, "Late lunch", updated.Name)

	m, ok := meals.Find(created.ID)
	require.True(t, ok)
	assert.Equal(t, "high", m.HungerLevel)

	require.NoError(t, meals.Delete(ctx, f.sess, created.ID))
	assert.Empty(t, meals.Items())

	err = meals.Delete(ctx, f.sess, created.ID)
	assert.True(t, api.IsStatus(err, http.StatusNotFound))
}

func TestMeals_ExpiredTokenIsUnauthorized(t *testing.T) {
	f := newFixture(t)
	meals := NewMeals(f.client, nil, RelistAfterMutation, ForDate(may1))
	f.srv.ExpireAccess()

	_, err := meals.List(context.Background(), f.sess, ForDate(may1))
	require.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, Error, meals.State())
}

func TestMeals_KeepAfterMutationDoesNotRelist(t *testing.T) {
	f := newFixture(t)
	meals := NewMeals(f.client, nil, KeepAfterMutation, ForDate(may1))
	before := f.srv.RequestCount()

	_, err := meals.Create(context.Background(), f.sess, lunch())
	require.NoError(t, err)
	assert.Equal(t, before+1, f.srv.RequestCount())
	assert.Equal(t, Unloaded, meals.State())
}

func TestParseScope(t *testing.T) {
	for in, want := range map[string]Scope{"": ScopeDate, "date": ScopeDate, " ALL ": ScopeAll} {
		got, err := ParseScope(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseScope("week")
	require.Error(t, err)

	assert.Equal(t, "all", ScopeAll.String())
	assert.Equal(t, "date", ScopeDate.String())
}

func TestMealFilter_Key(t *testing.T) {
	assert.Equal(t, "meals:all", AllMeals().Key())
	assert.Equal(t, "meals:2024-05-01", ForDate(may1).Key())
}

func TestGoals_ListUpdateDirective(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	goals := NewGoals(f.client, nil, RelistAfterMutation)

	_, ok := goals.Current()
	assert.False(t, ok)

	_, err := goals.List(ctx, f.sess)
	require.NoError(t, err)
	current, ok := goals.Current()
	require.True(t, ok)
	require.False(t, current.ID.Empty())

	d := models.DraftFromGoal(current)
	d.CalorieGoal = 2000
	d.ProteinGoal = 120
	_, err = goals.Update(ctx, f.sess, current.ID, d)
	require.NoError(t, err)

	current, _ = goals.Current()
	assert.Equal(t, models.Number(2000), current.CalorieGoal)
	assert.Equal(t, models.Number(120), current.ProteinGoal)

	_, err = goals.ApplyDirective(ctx, f.sess, current.ID, models.GoalsDirective{GoalsInput: "protein=150, fat=70"})
	require.NoError(t, err)
	current, _ = goals.Current()
	assert.Equal(t, models.Number(150), current.ProteinGoal)
	assert.Equal(t, models.Number(70), current.FatGoal)
	assert.Equal(t, models.Number(2000), current.CalorieGoal)
}

func TestGoals_ValidationAndIdentifier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	goals := NewGoals(f.client, nil, RelistAfterMutation)
	before := f.srv.RequestCount()

	_, err := goals.Update(ctx, f.sess, "", models.GoalDraft{})
	require.ErrorIs(t, err, ErrMissingIdentifier)

	_, err = goals.Update(ctx, f.sess, "1", models.GoalDraft{FatGoal: -1})
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = goals.ApplyDirective(ctx, f.sess, "1", models.GoalsDirective{GoalsInput: " "})
	require.ErrorIs(t, err, models.ErrValidation)

	assert.Equal(t, before, f.srv.RequestCount())
}

func TestFoodComponents_CreateRelistsMealTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	meals := NewMeals(f.client, nil, RelistAfterMutation, ForDate(may1))
	comps := NewFoodComponents(f.client, meals, nil, RelistAfterMutation)

	meal, err := meals.Create(ctx, f.sess, lunch())
	require.NoError(t, err)

	fc, err := comps.Create(ctx, f.sess, models.FoodComponentDraft{
		Meal:           meal.ID,
		FoodName:       "Rice",
		Weight:         150,
		Fat:            1,
		Protein:        4,
		Carbs:          45,
		TotalCalories:  200,
		Micronutrients: models.Micronutrients{"iron": 0.8},
	})
	require.NoError(t, err)
	assert.Equal(t, meal.ID, fc.Meal)

	m, ok := meals.Find(meal.ID)
	require.True(t, ok)
	assert.Equal(t, models.Number(200), m.TotalCalories, "totals come from the server")
	assert.Equal(t, models.Number(45), m.TotalCarbs)

	assert.Equal(t, meal.ID, comps.MealID())
	items := comps.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Rice", items[0].FoodName)

	require.NoError(t, comps.Delete(ctx, f.sess, fc.ID))
	assert.Empty(t, comps.Items())
	m, _ = meals.Find(meal.ID)
	assert.Equal(t, models.Number(0), m.TotalCalories)
}

func TestFoodComponents_RequiresMeal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	comps := NewFoodComponents(f.client, nil, nil, RelistAfterMutation)
	before := f.srv.RequestCount()

	_, err := comps.Create(ctx, f.sess, models.FoodComponentDraft{FoodName: "Rice", Weight: 1})
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = comps.ListForMeal(ctx, f.sess, "")
	require.ErrorIs(t, err, ErrMissingIdentifier)

	require.ErrorIs(t, comps.Delete(ctx, f.sess, ""), ErrMissingIdentifier)
	assert.Equal(t, before, f.srv.RequestCount())
}

func TestFoodComponents_UnknownMealIsRejectedByServer(t *testing.T) {
	f := newFixture(t)
	comps := NewFoodComponents(f.client, nil, nil, RelistAfterMutation)

	_, err := comps.Create(context.Background(), f.sess, models.FoodComponentDraft{Meal: "404", FoodName: "Rice", Weight: 1})
	assert.True(t, api.IsStatus(err, http.StatusBadRequest))
	assert.Equal(t, Unloaded, comps.State())
}

// fakeAPI overrides ListMeals; other calls are not expected.
type fakeAPI struct {
	API
	listMeals func(ctx context.Context, token, date string) ([]models.Meal, error)
}

func (f *fakeAPI) ListMeals(ctx context.Context, token, date string) ([]models.Meal, error) {
	return f.listMeals(ctx, token, date)
}

func TestMeals_OutOfOrderResponses(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	fake := &fakeAPI{listMeals: func(_ context.Context, _ string, date string) ([]models.Meal, error) {
		if date == "2024-05-01" {
			close(started)
			<-release
			return []models.Meal{{ID: "old"}}, nil
		}
		return []models.Meal{{ID: "new"}}, nil
	}}
	meals := NewMeals(fake, nil, RelistAfterMutation, AllMeals())
	sess := session.Context{AccessToken: "t1"}
	ctx := context.Background()

	errCh := make(chan error, 1)
	go func() {
		_, err := meals.List(ctx, sess, ForDate(may1))
		errCh <- err
	}()
	<-started

	_, err := meals.List(ctx, sess, ForDate(may1.AddDate(0, 0, 1)))
	require.NoError(t, err)
	close(release)

	err = <-errCh
	require.True(t, errors.Is(err, ErrStale))
	items := meals.Items()
	require.Len(t, items, 1)
	assert.Equal(t, models.ID("new"), items[0].ID)
}

func TestMutations_MissingIdentifierReportedBeforeAuth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	meals := NewMeals(f.client, nil, RelistAfterMutation, ForDate(may1))
	goals := NewGoals(f.client, nil, RelistAfterMutation)
	comps := NewFoodComponents(f.client, meals, nil, RelistAfterMutation)
	anon := session.Context{}
	before := f.srv.RequestCount()

	_, err := meals.Update(ctx, anon, "", lunch())
	require.ErrorIs(t, err, ErrMissingIdentifier)
	require.ErrorIs(t, meals.Delete(ctx, anon, " "), ErrMissingIdentifier)

	_, err = goals.Update(ctx, anon, "", models.GoalDraft{})
	require.ErrorIs(t, err, ErrMissingIdentifier)
	_, err = goals.ApplyDirective(ctx, anon, "", models.GoalsDirective{GoalsInput: "protein=150"})
	require.ErrorIs(t, err, ErrMissingIdentifier)

	require.ErrorIs(t, comps.Delete(ctx, anon, ""), ErrMissingIdentifier)
	_, err = comps.ListForMeal(ctx, anon, "")
	require.ErrorIs(t, err, ErrMissingIdentifier)

	// with an id present the session is checked next
	require.ErrorIs(t, meals.Delete(ctx, anon, "1"), session.ErrNotAuthenticated)

	assert.Equal(t, before, f.srv.RequestCount())
}

func TestFoodComponents_DeleteRefreshesOwningMeal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	meals := NewMeals(f.client, nil, RelistAfterMutation, ForDate(may1))
	comps := NewFoodComponents(f.client, meals, nil, RelistAfterMutation)

	breakfast := lunch()
	breakfast.Name = "Breakfast"
	mealA, err := meals.Create(ctx, f.sess, breakfast)
	require.NoError(t, err)
	mealB, err := meals.Create(ctx, f.sess, lunch())
	require.NoError(t, err)

	fc, err := comps.Create(ctx, f.sess, models.FoodComponentDraft{Meal: mealB.ID, FoodName: "Rice", Weight: 150, TotalCalories: 200})
	require.NoError(t, err)

	_, err = comps.ListForMeal(ctx, f.sess, mealA.ID)
	require.NoError(t, err)
	require.Equal(t, mealA.ID, comps.MealID())

	require.NoError(t, comps.Delete(ctx, f.sess, fc.ID))

	reqs := f.srv.Requests()
	last := reqs[len(reqs)-1]
	assert.Equal(t, http.MethodGet, last.Method)
	assert.Equal(t, "/api/meals/"+string(mealB.ID)+"/foodcomponents/", last.Path)
	assert.Equal(t, mealB.ID, comps.MealID())
	assert.Empty(t, comps.Items())

	m, ok := meals.Find(mealB.ID)
	require.True(t, ok)
	assert.Equal(t, models.Number(0), m.TotalCalories)
}

func TestFoodComponents_DeleteFallsBackToShownMeal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	comps := NewFoodComponents(f.client, nil, nil, RelistAfterMutation)

	meals := NewMeals(f.client, nil, KeepAfterMutation, ForDate(may1))
	meal, err := meals.Create(ctx, f.sess, lunch())
	require.NoError(t, err)

	_, err = comps.ListForMeal(ctx, f.sess, meal.ID)
	require.NoError(t, err)
	assert.Equal(t, meal.ID, comps.owner("unknown"))
}

func TestMeals_FilterMatchesAppliedResponse(t *testing.T) {
	fake := &fakeAPI{listMeals: func(_ context.Context, _ string, date string) ([]models.Meal, error) {
		// later days answer faster so responses arrive out of order
		d, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return nil, err
		}
		time.Sleep(time.Duration(10-d.Day()) * time.Millisecond)
		return []models.Meal{{ID: models.ID(date)}}, nil
	}}
	meals := NewMeals(fake, nil, RelistAfterMutation, AllMeals())
	sess := session.Context{AccessToken: "t1"}
	ctx := context.Background()

	for round := 0; round < 20; round++ {
		var wg sync.WaitGroup
		for day := 1; day <= 8; day++ {
			wg.Add(1)
			go func(day int) {
				defer wg.Done()
				_, _ = meals.List(ctx, sess, ForDate(may1.AddDate(0, 0, day-1)))
			}(day)
		}
		wg.Wait()

		items := meals.Items()
		require.Len(t, items, 1)
		want, err := meals.Filter().Query()
		require.NoError(t, err)
		assert.Equal(t, models.ID(want), items[0].ID, "round %d", round)
	}
}

func TestMeals_FilterAtTracksGeneration(t *testing.T) {
	fake := &fakeAPI{listMeals: func(context.Context, string, string) ([]models.Meal, error) {
		return nil, nil
	}}
	meals := NewMeals(fake, nil, RelistAfterMutation, AllMeals())
	sess := session.Context{AccessToken: "t1"}
	ctx := context.Background()

	_, ok := meals.FilterAt(0)
	assert.False(t, ok)

	_, err := meals.List(ctx, sess, ForDate(may1))
	require.NoError(t, err)
	first := meals.Snapshot().Generation
	f, ok := meals.FilterAt(first)
	require.True(t, ok)
	assert.Equal(t, ForDate(may1), f)

	_, err = meals.List(ctx, sess, AllMeals())
	require.NoError(t, err)
	_, ok = meals.FilterAt(first)
	assert.False(t, ok, "superseded by a newer list")
	f, ok = meals.FilterAt(meals.Snapshot().Generation)
	require.True(t, ok)
	assert.Equal(t, AllMeals(), f)

	meals.Invalidate()
	_, ok = meals.FilterAt(meals.Snapshot().Generation)
	assert.False(t, ok)
}
