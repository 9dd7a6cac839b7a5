package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
)

func idPath(prefix string, id models.ID) string {
	return fmt.Sprintf("%s/%s/", prefix, url.PathEscape(id.String()))
}

// Login exchanges username and password for a token pair.
func (c *Client) Login(ctx context.Context, username, password string) (models.Credential, error) {
	var cred models.Credential
	req := models.LoginRequest{Username: username, Password: password}
	if err := c.Do(ctx, http.MethodPost, "/login/", req, "", &cred); err != nil {
		return models.Credential{}, err
	}
	return cred, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (models.User, error) {
	var u models.User
	if err := c.Do(ctx, http.MethodPost, "/register/", req, "", &u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// RefreshToken obtains a new access token. When the server does not rotate
// the refresh token the old one is kept.
func (c *Client) RefreshToken(ctx context.Context, refresh string) (models.Credential, error) {
	var cred models.Credential
	if err := c.Do(ctx, http.MethodPost, "/token/refresh/", models.RefreshRequest{Refresh: refresh}, "", &cred); err != nil {
		return models.Credential{}, err
	}
	if cred.Refresh == "" {
		cred.Refresh = refresh
	}
	return cred, nil
}

// Ping reports whether the API host answers at all. Any HTTP response,
// including 404, counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	err := c.Do(ctx, http.MethodGet, "/", nil, "", nil)
	var he *HTTPError
	if errors.As(err, &he) {
		return nil
	}
	return err
}

func (c *Client) ListGoals(ctx context.Context, token string) ([]models.Goal, error) {
	var goals []models.Goal
	if err := c.Do(ctx, http.MethodGet, "/usergoals/", nil, token, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

// UpdateGoal replaces the goal identified by id.
func (c *Client) UpdateGoal(ctx context.Context, token string, id models.ID, draft models.GoalDraft) (models.Goal, error) {
	var g models.Goal
	if err := c.Do(ctx, http.MethodPut, idPath("/usergoals", id), draft, token, &g); err != nil {
		return models.Goal{}, err
	}
	return g, nil
}

// ApplyGoalsDirective sends free text for the server to interpret into goals.
func (c *Client) ApplyGoalsDirective(ctx context.Context, token string, id models.ID, d models.GoalsDirective) (models.Goal, error) {
	var g models.Goal
	if err := c.Do(ctx, http.MethodPut, idPath("/usergoals", id), d, token, &g); err != nil {
		return models.Goal{}, err
	}
	return g, nil
}

// ListMeals lists meals; a non-empty date (YYYY-MM-DD) scopes the list to that day.
func (c *Client) ListMeals(ctx context.Context, token string, date string) ([]models.Meal, error) {
	path := "/meals/"
	if date != "" {
		path += "?" + url.Values{"date": {date}}.Encode()
	}
	var meals []models.Meal
	if err := c.Do(ctx, http.MethodGet, path, nil, token, &meals); err != nil {
		return nil, err
	}
	return meals, nil
}

func (c *Client) CreateMeal(ctx context.Context, token string, draft models.MealDraft) (models.Meal, error) {
	var m models.Meal
	if err := c.Do(ctx, http.MethodPost, "/meals/", draft, token, &m); err != nil {
		return models.Meal{}, err
	}
	return m, nil
}

// UpdateMeal replaces the meal identified by id.
func (c *Client) UpdateMeal(ctx context.Context, token string, id models.ID, draft models.MealDraft) (models.Meal, error) {
	var m models.Meal
	if err := c.Do(ctx, http.MethodPut, idPath("/meals", id), draft, token, &m); err != nil {
		return models.Meal{}, err
	}
	return m, nil
}

func (c *Client) DeleteMeal(ctx context.Context, token string, id models.ID) error {
	return c.Do(ctx, http.MethodDelete, idPath("/meals", id), nil, token, nil)
}

// CreateFoodComponent adds a component to the meal referenced by draft.Meal.
func (c *Client) CreateFoodComponent(ctx context.Context, token string, draft models.FoodComponentDraft) (models.FoodComponent, error) {
	var fc models.FoodComponent
	if err := c.Do(ctx, http.MethodPost, "/foodcomponents/", draft, token, &fc); err != nil {
		return models.FoodComponent{}, err
	}
	return fc, nil
}

func (c *Client) ListMealFoodComponents(ctx context.Context, token string, mealID models.ID) ([]models.FoodComponent, error) {
	var list []models.FoodComponent
	if err := c.Do(ctx, http.MethodGet, idPath("/meals", mealID)+"foodcomponents/", nil, token, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) DeleteFoodComponent(ctx context.Context, token string, id models.ID) error {
	return c.Do(ctx, http.MethodDelete, idPath("/foodcomponents", id), nil, token, nil)
}
