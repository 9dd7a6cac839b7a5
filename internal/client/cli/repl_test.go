package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/mealkeeper/internal/client/api"
	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
	"github.com/dmitrijs2005/mealkeeper/internal/client/resources"
	"github.com/dmitrijs2005/mealkeeper/internal/client/selection"
	"github.com/dmitrijs2005/mealkeeper/internal/client/session"
	"github.com/dmitrijs2005/mealkeeper/internal/common"
	"github.com/dmitrijs2005/mealkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
	fail     error
	log      logging.Logger
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }

func (f *fakeExec) logger() logging.Logger {
	if f.log == nil {
		return logging.NewNop()
	}
	return f.log
}

func (f *fakeExec) commands() []command {
	record := func(name string) func(context.Context, []string) error {
		return func(_ context.Context, args []string) error {
			f.calls = append(f.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
			return f.fail
		}
	}
	return []command{
		{name: "login", help: "authenticate", when: guestOnly, run: record("login")},
		{name: "meals", help: "list meals", when: memberOnly, run: record("meals")},
		{name: "select", args: "<id>", help: "select a meal", when: memberOnly, run: record("select")},
		{name: "about", help: "always there", run: record("about")},
	}
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var out []string
	old := printlnFn
	printlnFn = func(a ...any) (int, error) {
		out = append(out, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = old })
	return &out
}

func TestRunREPL_DispatchesWithArguments(t *testing.T) {
	out := captureOutput(t)
	f := &fakeExec{loggedIn: true}

	runREPL(context.Background(), f, func() string { return "alice" }, readerOf("meals\n\nselect 42\nSELECT 7\nexit\nmeals\n"))

	assert.Equal(t, []string{"meals", "select 42", "select 7"}, f.calls)
	assert.Contains(t, *out, "mk> alice >")
	assert.Equal(t, "Bye!", (*out)[len(*out)-1])
}

func TestRunREPL_RespectsSessionState(t *testing.T) {
	out := captureOutput(t)

	guest := &fakeExec{}
	runREPL(context.Background(), guest, func() string { return "" }, readerOf("meals\nlogin\nabout\n"))
	assert.Equal(t, []string{"login", "about"}, guest.calls)
	assert.Contains(t, *out, "Please login first")

	member := &fakeExec{loggedIn: true}
	runREPL(context.Background(), member, func() string { return "" }, readerOf("login\n"))
	assert.Empty(t, member.calls)
	assert.Contains(t, *out, "Already logged in, logout first")
}

func TestRunREPL_UnknownCommandAndHelp(t *testing.T) {
	out := captureOutput(t)
	f := &fakeExec{}

	runREPL(context.Background(), f, func() string { return "" }, readerOf("dance\nhelp\n"))

	assert.Contains(t, *out, "Unknown command: dance")
	var help string
	for _, line := range *out {
		if strings.HasPrefix(line, "Available commands:") {
			help = line
		}
	}
	require.NotEmpty(t, help)
	assert.Contains(t, help, "login")
	assert.Contains(t, help, "about")
	assert.NotContains(t, help, "meals")
	assert.Contains(t, help, "exit | quit")
}

func TestRunREPL_LastLineWithoutNewline(t *testing.T) {
	captureOutput(t)
	f := &fakeExec{loggedIn: true}

	runREPL(context.Background(), f, func() string { return "" }, readerOf("meals"))

	assert.Equal(t, []string{"meals"}, f.calls)
}

func TestRunREPL_ReportsErrorsAndContinues(t *testing.T) {
	out := captureOutput(t)
	f := &fakeExec{loggedIn: true, fail: fmt.Errorf("list meals: %w", api.ErrNetwork)}

	runREPL(context.Background(), f, func() string { return "" }, readerOf("meals\nmeals\n"))

	assert.Len(t, f.calls, 2)
	assert.Contains(t, *out, "Server unreachable, working offline")
}

func TestRunREPL_LogsFailedCommands(t *testing.T) {
	captureOutput(t)
	var buf bytes.Buffer
	log, err := logging.New("text", "debug", &buf)
	require.NoError(t, err)
	f := &fakeExec{loggedIn: true, log: log, fail: fmt.Errorf("delete meal: %w", resources.ErrMissingIdentifier)}

	runREPL(context.Background(), f, func() string { return "" }, readerOf("select nope\n"))

	out := buf.String()
	assert.Contains(t, out, `level=WARN msg="command failed" command=select`)
	assert.Contains(t, out, "missing identifier")

	buf.Reset()
	f.fail = nil
	runREPL(context.Background(), f, func() string { return "" }, readerOf("meals\n"))
	assert.Empty(t, buf.String(), "successful commands are not logged")
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	captureOutput(t)
	f := &fakeExec{loggedIn: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runREPL(ctx, f, func() string { return "" }, readerOf("meals\n"))

	assert.Empty(t, f.calls)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("create meal: %w: meal name is required", models.ErrValidation), "Invalid input: create meal: validation error: meal name is required"},
		{common.ErrInvalidDate, "Invalid input: invalid date, expected YYYY-MM-DD"},
		{resources.ErrMissingIdentifier, "No meal selected: use select <id> or pass an id"},
		{selection.ErrInvalidSelection, "No such meal in the current list"},
		{session.ErrNotAuthenticated, "Please login first"},
		{fmt.Errorf("list meals: %w", &api.HTTPError{Status: 401}), "Not authorized: run refresh, or login again"},
		{resources.ErrStale, "Result superseded by a newer request"},
		{&api.HTTPError{Status: 404, Message: "Not found."}, "Server rejected the request (404): Not found."},
		{&api.HTTPError{Status: 500}, "Server rejected the request (500)"},
		{errors.New("boom"), "Error: boom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, userMessage(tt.err))
	}
}
