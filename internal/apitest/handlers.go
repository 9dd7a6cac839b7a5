package apitest

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func badRequest(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string][]string{field: {msg}})
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decode(r, &req); err != nil || req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Please provide both username and password."})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[req.Username]
	if !ok || u.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid Credentials"})
		return
	}
	writeJSON(w, http.StatusOK, s.issueLocked(req.Username))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "non_field_errors", "invalid body")
		return
	}
	if req.Username == "" {
		badRequest(w, "username", "This field is required.")
		return
	}
	if req.Password == "" {
		badRequest(w, "password", "This field is required.")
		return
	}
	if !strings.Contains(req.Email, "@") {
		badRequest(w, "email", "Enter a valid email address.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[req.Username]; exists {
		badRequest(w, "username", "A user with that username already exists.")
		return
	}
	s.addUserLocked(req.Username, req.Password, req.Email)
	writeJSON(w, http.StatusCreated, models.User{ID: uuid.NewString(), Username: req.Username, Email: req.Email})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := decode(r, &req); err != nil || req.Refresh == "" {
		badRequest(w, "refresh", "This field is required.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	username, ok := s.refresh[req.Refresh]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
		return
	}
	cred := s.issueLocked(username)
	writeJSON(w, http.StatusOK, map[string]string{"access": cred.Access})
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	username := userFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()

	goals := []models.Goal{}
	if g, ok := s.goals[username]; ok {
		goals = append(goals, *g)
	}
	writeJSON(w, http.StatusOK, goals)
}

// applyDirective understands "name=value" tokens separated by spaces or commas.
func applyDirective(g *models.Goal, input string) {
	g.Summary = input
	for _, tok := range strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' }) {
		name, value, ok := strings.Cut(tok, "=")
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}
		switch strings.ToLower(name) {
		case "fat":
			g.FatGoal = models.Number(f)
		case "carb", "carbs":
			g.CarbGoal = models.Number(f)
		case "protein":
			g.ProteinGoal = models.Number(f)
		case "calorie", "calories", "kcal":
			g.CalorieGoal = models.Number(f)
		}
	}
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	username := userFrom(r.Context())
	id := chi.URLParam(r, "id")

	var body struct {
		models.GoalDraft
		GoalsInput *string `json:"goals_input"`
	}
	if err := decode(r, &body); err != nil {
		badRequest(w, "non_field_errors", "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[username]
	if !ok || g.ID.String() != id {
		notFound(w)
		return
	}
	if body.GoalsInput != nil {
		applyDirective(g, *body.GoalsInput)
	} else {
		g.FatGoal = models.Number(body.FatGoal)
		g.CarbGoal = models.Number(body.CarbGoal)
		g.ProteinGoal = models.Number(body.ProteinGoal)
		g.CalorieGoal = models.Number(body.CalorieGoal)
		g.Summary = body.Summary
	}
	writeJSON(w, http.StatusOK, *g)
}

func (s *Server) handleListMeals(w http.ResponseWriter, r *http.Request) {
	username := userFrom(r.Context())

	var day time.Time
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			badRequest(w, "date", "Date has wrong format. Use YYYY-MM-DD.")
			return
		}
		day = parsed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Meal{}
	for _, m := range s.meals[username] {
		if !day.IsZero() && m.TimeOfConsumption.UTC().Format("2006-01-02") != day.Format("2006-01-02") {
			continue
		}
		out = append(out, cloneMeal(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func validateMeal(w http.ResponseWriter, d models.MealDraft) bool {
	if strings.TrimSpace(d.Name) == "" {
		badRequest(w, "meal_name", "This field may not be blank.")
		return false
	}
	if d.TimeOfConsumption.IsZero() {
		badRequest(w, "time_of_consumption", "This field is required.")
		return false
	}
	return true
}

func (s *Server) handleCreateMeal(w http.ResponseWriter, r *http.Request) {
	username := userFrom(r.Context())

	var d models.MealDraft
	if err := decode(r, &d); err != nil {
		badRequest(w, "non_field_errors", err.Error())
		return
	}
	if !validateMeal(w, d) {
		return
	}

	m := &models.Meal{
		ID:                models.ID(uuid.NewString()),
		Name:              d.Name,
		TimeOfConsumption: d.TimeOfConsumption,
		HungerLevel:       d.HungerLevel,
		Exercise:          d.Exercise,
	}

	s.mu.Lock()
	s.meals[username] = append(s.meals[username], m)
	out := cloneMeal(m)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) findMealLocked(username, id string) (int, *models.Meal) {
	for i, m := range s.meals[username] {
		if m.ID.String() == id {
			return i, m
		}
	}
	return -1, nil
}

func (s *Server) handleUpdateMeal(w http.ResponseWriter, r *http.Request) {
	username := userFrom(r.Context())
	id := chi.URLParam(r, "id")

	var d models.MealDraft
	if err := decode(r, &d); err != nil {
		badRequest(w, "non_field_errors", err.Error())
		return
	}
	if !validateMeal(w, d) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, m := s.findMealLocked(username, id)
	if m == nil {
		notFound(w)
		return
	}
	m.Name = d.Name
	m.TimeOfConsumption = d.TimeOfConsumption
	m.HungerLevel = d.HungerLevel
	m.Exercise = d.Exercise
	writeJSON(w, http.StatusOK, cloneMeal(m))
}

func (s *Server) handleDeleteMeal(w http.ResponseWriter, r *http.Request) {
	username := userFrom(r.Context())
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	i, m := s.findMealLocked(username, id)
	if m == nil {
		notFound(w)
		return
	}
	meals := s.meals[username]
	s.meals[username] = append(meals[:i:i], meals[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMealComponents(w http.ResponseWriter, r *http.Request) {
	username := userFrom(r.Context())
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	_, m := s.findMealLocked(username, id)
	if m == nil {
		notFound(w)
		return
	}
	comps := cloneMeal(m).FoodComponents
	if comps == nil {
		comps = []models.FoodComponent{}
	}
	writeJSON(w, http.StatusOK, comps)
}

func (s *Server) handleCreateComponent(w http.ResponseWriter, r *http.Request) {
	username := userFrom(r.Context())

	var d models.FoodComponentDraft
	if err := decode(r, &d); err != nil {
		badRequest(w, "non_field_errors", err.Error())
		return
	}
	if d.FoodName == "" {
		badRequest(w, "food_name", "This field may not be blank.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, m := s.findMealLocked(username, d.Meal.String())
	if m == nil {
		badRequest(w, "meal", "Invalid pk - object does not exist.")
		return
	}

	fc := models.FoodComponent{
		ID:             models.ID(uuid.NewString()),
		Meal:           m.ID,
		FoodName:       d.FoodName,
		Brand:          d.Brand,
		Weight:         models.Number(d.Weight),
		Fat:            models.Number(d.Fat),
		Protein:        models.Number(d.Protein),
		Carbs:          models.Number(d.Carbs),
		Sugar:          models.Number(d.Sugar),
		TotalCalories:  models.Number(d.TotalCalories),
		Micronutrients: d.Micronutrients,
	}
	m.FoodComponents = append(m.FoodComponents, fc)
	recomputeTotals(m)
	writeJSON(w, http.StatusCreated, fc)
}

func (s *Server) handleDeleteComponent(w http.ResponseWriter, r *http.Request) {
	username := userFrom(r.Context())
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.meals[username] {
		for i, fc := range m.FoodComponents {
			if fc.ID.String() != id {
				continue
			}
			m.FoodComponents = append(m.FoodComponents[:i:i], m.FoodComponents[i+1:]...)
			recomputeTotals(m)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	notFound(w)
}

func recomputeTotals(m *models.Meal) {
	var cal, fat, protein, carbs, sugar models.Number
	for _, fc := range m.FoodComponents {
		cal += fc.TotalCalories
		fat += fc.Fat
		protein += fc.Protein
		carbs += fc.Carbs
		sugar += fc.Sugar
	}
	m.TotalCalories, m.TotalFat, m.TotalProtein, m.TotalCarbs, m.TotalSugar = cal, fat, protein, carbs, sugar
}

func cloneMeal(m *models.Meal) models.Meal {
	out := *m
	out.FoodComponents = append([]models.FoodComponent(nil), m.FoodComponents...)
	return out
}
