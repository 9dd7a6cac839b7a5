package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/mealkeeper/internal/client/api"
	"github.com/dmitrijs2005/mealkeeper/internal/client/config"
	"github.com/dmitrijs2005/mealkeeper/internal/client/export"
	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
	"github.com/dmitrijs2005/mealkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/mealkeeper/internal/client/repositories/snapshots"
	"github.com/dmitrijs2005/mealkeeper/internal/client/resources"
	"github.com/dmitrijs2005/mealkeeper/internal/client/selection"
	"github.com/dmitrijs2005/mealkeeper/internal/client/services"
	"github.com/dmitrijs2005/mealkeeper/internal/client/session"
	"github.com/dmitrijs2005/mealkeeper/internal/client/storage"
	"github.com/dmitrijs2005/mealkeeper/internal/common"
	"github.com/dmitrijs2005/mealkeeper/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config *config.Config
	log    logging.Logger
	db     *sql.DB

	sess  *session.Session
	auth  services.AuthService
	snaps services.SnapshotService

	goals    *resources.Goals
	meals    *resources.Meals
	foods    *resources.FoodComponents
	sel      *selection.State
	exporter export.Exporter

	mealForm resources.Form[models.MealDraft]
	editForm resources.Form[models.MealDraft]
	editing  models.ID
	foodForm resources.Form[models.FoodComponentDraft]
	goalForm resources.Form[models.GoalDraft]

	reader *bufio.Reader
	out    io.Writer
	now    func() time.Time

	mu   sync.Mutex
	mode Mode

	untrack func()
}

// NewApp opens the local database and the stored session and wires the API
// client, services and resource caches. Prompts read from in; command
// output goes to out.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	if log == nil {
		log = logging.NewNop()
	}

	scope, err := resources.ParseScope(c.MealScope)
	if err != nil {
		return nil, err
	}

	client, err := api.New(c.APIBaseURL, api.WithTimeout(c.RequestTimeout), api.WithLogger(log))
	if err != nil {
		return nil, err
	}

	db, err := storage.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	sess, err := session.Open(ctx, metadata.NewCredentialStore(db), log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	now := time.Now
	today := common.Today(now())
	initial := resources.ForDate(today)
	if scope == resources.ScopeAll {
		initial = resources.AllMeals()
	}

	meals := resources.NewMeals(client, log, resources.RelistAfterMutation, initial)
	a := &App{
		config:   c,
		log:      log,
		db:       db,
		sess:     sess,
		auth:     services.NewAuthService(client, sess, log),
		snaps:    services.NewSnapshotService(snapshots.NewSQLiteRepository(db), log),
		goals:    resources.NewGoals(client, log, resources.RelistAfterMutation),
		meals:    meals,
		foods:    resources.NewFoodComponents(client, meals, log, resources.RelistAfterMutation),
		sel:      selection.New(meals, scope, today),
		exporter: newExporter(c),
		reader:   bufio.NewReader(in),
		out:      out,
		now:      now,
		mode:     ModeOffline,
	}
	a.untrack = a.snaps.Track(meals)
	sess.OnLogout(a.dropUserState)

	return a, nil
}

func newExporter(c *config.Config) export.Exporter {
	if c.ExportBucket == "" {
		return export.NewFileExporter(c.ExportDir)
	}
	return export.NewS3Exporter(export.S3Config{
		Bucket:    c.ExportBucket,
		Region:    c.ExportRegion,
		Endpoint:  c.ExportEndpoint,
		AccessKey: c.ExportAccessKey,
		SecretKey: c.ExportSecretKey,
	}, &http.Client{Timeout: c.RequestTimeout})
}

// dropUserState forgets everything cached for the logged out user.
func (a *App) dropUserState(ctx context.Context) {
	a.goals.Invalidate()
	a.meals.Invalidate()
	a.foods.Invalidate()
	a.sel.Clear()
	a.mealForm.Reset()
	a.editForm.Reset()
	a.editing = ""
	a.foodForm.Reset()
	a.goalForm.Reset()
	if err := a.snaps.Clear(ctx); err != nil {
		a.log.Warn(ctx, "offline snapshots not cleared", "error", err)
	}
}

// Run starts the connectivity watcher and the REPL and blocks until the
// user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	a.checkOnline(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}()

	runREPL(ctx, a, a.status, a.reader)

	cancel()
	wg.Wait()
	return a.Close()
}

// Close releases the caches' subscriptions and the local database.
func (a *App) Close() error {
	if a.untrack != nil {
		a.untrack()
		a.untrack = nil
	}
	a.sel.Close()
	return a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.sess.IsAuthenticated()
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(ctx, fmt.Sprintf("Switched to %s mode", mode))
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.auth.Ping(ctx); err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}

// StartOnlineStatusWatcher pings the API every interval and flips the mode
// between online and offline. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// track marks the app offline when err says the server was unreachable.
func (a *App) track(ctx context.Context, err error) error {
	if errors.Is(err, api.ErrNetwork) {
		a.setMode(ctx, ModeOffline)
	}
	return err
}

// status is the REPL prompt: user, connectivity, viewed day and the
// selected meal. An access token past its exp claim is flagged so the user
// knows to refresh before the server answers 401.
func (a *App) status() string {
	user := "guest"
	if a.isLoggedIn() {
		user = a.sess.Context().Username
	}
	day := "all meals"
	if f := a.sel.Filter(); f.Scope == resources.ScopeDate {
		day = common.FormatDate(f.Date)
	}
	s := fmt.Sprintf("%s | %s | %s", user, a.Mode(), day)
	if m, ok := a.sel.SelectedMeal(); ok {
		s += " | " + m.Name
	}
	if a.isLoggedIn() && a.sess.Expired(a.now()) {
		s += " | token expired, run refresh"
	}
	return s
}

func (a *App) logger() logging.Logger {
	return a.log
}

func (a *App) commands() []command {
	return []command{
		{name: "register", help: "create an account", when: guestOnly, run: a.Register},
		{name: "login", help: "authenticate", when: guestOnly, run: a.Login},

		{name: "goals", help: "show your goals against the viewed meals", when: memberOnly, run: a.Goals},
		{name: "setgoals", help: "edit goal values", when: memberOnly, run: a.SetGoals},
		{name: "goalsinput", args: "[text]", help: "let the server derive goals from a description", when: memberOnly, run: a.GoalsInput},

		{name: "meals", help: "list meals of the viewed day", when: memberOnly, run: a.ListMeals},
		{name: "date", args: "<YYYY-MM-DD|today>", help: "switch the viewed day", when: memberOnly, run: a.Date},
		{name: "addmeal", help: "record a meal", when: memberOnly, run: a.AddMeal},
		{name: "editmeal", args: "[id]", help: "edit a meal (default: selected)", when: memberOnly, run: a.EditMeal},
		{name: "delmeal", args: "[id]", help: "delete a meal (default: selected)", when: memberOnly, run: a.DeleteMeal},
		{name: "select", args: "<id>", help: "select a meal from the list", when: memberOnly, run: a.Select},
		{name: "show", help: "show the selected meal and its foods", when: memberOnly, run: a.Show},
		{name: "addfood", help: "add a food to the selected meal", when: memberOnly, run: a.AddFood},
		{name: "delfood", args: "<id>", help: "delete a food component", when: memberOnly, run: a.DeleteFood},

		{name: "export", help: "export the viewed meals with goals", when: memberOnly, run: a.Export},
		{name: "refresh", help: "renew the access token", when: memberOnly, run: a.Refresh},
		{name: "logout", help: "log out and clear local data", when: memberOnly, run: a.Logout},
	}
}
