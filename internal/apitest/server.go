// Package apitest runs an in-process fake of the meal-tracking REST API for
// tests. It keeps users, tokens, goals, meals and food components in memory,
// records every request and can inject failures.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Request is a recorded inbound call.
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
	ContentType   string
}

type user struct {
	password string
	email    string
}

type session struct {
	username  string
	expiresAt time.Time
}

type Server struct {
	srv *httptest.Server

	mu         sync.Mutex
	users      map[string]user
	access     map[string]session
	refresh    map[string]string
	goals      map[string]*models.Goal
	meals      map[string][]*models.Meal
	requests   []Request
	failures   map[string][]int
	goalSeq    int
	secret     []byte
	accessTTL  time.Duration
	static     []models.Credential
	staticNext int
	now        func() time.Time
}

type Option func(*Server)

// WithTokens makes login hand out the given credentials in order instead of
// signed JWTs. The last one is reused once the list is exhausted.
func WithTokens(creds ...models.Credential) Option {
	return func(s *Server) { s.static = creds }
}

// WithAccessTTL sets the lifetime of issued access tokens.
func WithAccessTTL(d time.Duration) Option {
	return func(s *Server) { s.accessTTL = d }
}

// WithClock overrides the time source used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New starts a fake API and registers its shutdown with t.Cleanup.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		users:     map[string]user{},
		access:    map[string]session{},
		refresh:   map[string]string{},
		goals:     map[string]*models.Goal{},
		meals:     map[string][]*models.Meal{},
		failures:  map[string][]int{},
		secret:    []byte("apitest-secret"),
		accessTTL: 5 * time.Minute,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.srv = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// URL is the API root to configure clients with.
func (s *Server) URL() string { return s.srv.URL + "/api" }

// HTTPClient returns a client wired to the test server.
func (s *Server) HTTPClient() *http.Client { return s.srv.Client() }

func (s *Server) Close() {
	s.srv.CloseClientConnections()
	s.srv.Close()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.injectFailures)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Post("/login/", s.handleLogin)
		r.Post("/register/", s.handleRegister)
		r.Post("/token/refresh/", s.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/usergoals/", s.handleListGoals)
			r.Put("/usergoals/{id}/", s.handleUpdateGoal)

			r.Get("/meals/", s.handleListMeals)
			r.Post("/meals/", s.handleCreateMeal)
			r.Put("/meals/{id}/", s.handleUpdateMeal)
			r.Delete("/meals/{id}/", s.handleDeleteMeal)
			r.Get("/meals/{id}/foodcomponents/", s.handleListMealComponents)

			r.Post("/foodcomponents/", s.handleCreateComponent)
			r.Delete("/foodcomponents/{id}/", s.handleDeleteComponent)
		})
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
			ContentType:   r.Header.Get("Content-Type"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func failureKey(method, path string) string { return method + " " + path }

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := failureKey(r.Method, r.URL.Path)
		s.mu.Lock()
		queue := s.failures[key]
		status := 0
		if len(queue) > 0 {
			status = queue[0]
			s.failures[key] = queue[1:]
		}
		s.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, map[string]string{"detail": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FailNext makes the next request matching method and path (e.g.
// "/api/meals/") answer with status.
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := failureKey(method, path)
	s.failures[key] = append(s.failures[key], status)
}

// Requests returns a copy of all recorded requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestCount returns the number of recorded requests.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// AddUser registers an account directly, bypassing /register/.
func (s *Server) AddUser(username, password, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addUserLocked(username, password, email)
}

func (s *Server) addUserLocked(username, password, email string) {
	s.users[username] = user{password: password, email: email}
	s.goalSeq++
	s.goals[username] = &models.Goal{ID: models.ID(itoa(s.goalSeq))}
}

// Meals returns the stored meals of username in server order.
func (s *Server) Meals(username string) []models.Meal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Meal, 0, len(s.meals[username]))
	for _, m := range s.meals[username] {
		out = append(out, cloneMeal(m))
	}
	return out
}

// ExpireAccess invalidates every issued access token.
func (s *Server) ExpireAccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.access {
		v.expiresAt = time.Time{}
		s.access[k] = v
	}
}

func (s *Server) issueLocked(username string) models.Credential {
	var cred models.Credential
	if len(s.static) > 0 {
		i := s.staticNext
		if i >= len(s.static) {
			i = len(s.static) - 1
		}
		s.staticNext++
		cred = s.static[i]
	} else {
		exp := s.now().Add(s.accessTTL)
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		})
		signed, err := token.SignedString(s.secret)
		if err != nil {
			panic(err)
		}
		cred = models.Credential{Access: signed, Refresh: uuid.NewString()}
	}
	s.access[cred.Access] = session{username: username, expiresAt: s.now().Add(s.accessTTL)}
	if cred.Refresh != "" {
		s.refresh[cred.Refresh] = username
	}
	return cred
}

type ctxKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}
		s.mu.Lock()
		sess, found := s.access[token]
		s.mu.Unlock()
		if !found || !s.now().Before(sess.expiresAt) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type"})
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), sess.username)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
