package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/mealkeeper/internal/client/api"
	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
	"github.com/dmitrijs2005/mealkeeper/internal/client/resources"
	"github.com/dmitrijs2005/mealkeeper/internal/client/selection"
	"github.com/dmitrijs2005/mealkeeper/internal/client/session"
	"github.com/dmitrijs2005/mealkeeper/internal/common"
	"github.com/dmitrijs2005/mealkeeper/internal/logging"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// availability says in which session state a command may run.
type availability int

const (
	always availability = iota
	guestOnly
	memberOnly
)

type command struct {
	name string
	args string
	help string
	when availability
	run  func(ctx context.Context, args []string) error
}

func (c command) availableTo(loggedIn bool) bool {
	switch c.when {
	case guestOnly:
		return !loggedIn
	case memberOnly:
		return loggedIn
	default:
		return true
	}
}

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	commands() []command
	logger() logging.Logger
}

// runREPL starts a simple read–eval–print loop for the mealkeeper CLI.
//
// It reads a line from reader, parses the first token as the command and
// dispatches it with the remaining tokens as arguments. "help" lists the
// commands available in the current session state; "exit" and "quit" end
// the loop, as does EOF.
//
// Command errors are logged with the command name, reported to the user
// through userMessage and never stop the loop. Prompts inside commands read from the same reader.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("mk> %s > ", statusFn()))
		line, readErr := reader.ReadString('\n')
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if readErr != nil {
				return
			}
			continue
		}
		name := strings.ToLower(parts[0])

		switch name {
		case "help":
			printlnFn(helpText(a))
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			dispatch(ctx, a, name, parts[1:])
		}

		if readErr != nil {
			return
		}
	}
}

func dispatch(ctx context.Context, a execIface, name string, args []string) {
	loggedIn := a.isLoggedIn()
	for _, c := range a.commands() {
		if c.name != name {
			continue
		}
		if !c.availableTo(loggedIn) {
			if loggedIn {
				printlnFn("Already logged in, logout first")
			} else {
				printlnFn("Please login first")
			}
			return
		}
		ctx := logging.WithAttrs(ctx, "command", name)
		if err := c.run(ctx, args); err != nil {
			a.logger().Warn(ctx, "command failed", "error", err)
			printlnFn(userMessage(err))
		}
		return
	}
	printlnFn("Unknown command:", name)
}

func helpText(a execIface) string {
	loggedIn := a.isLoggedIn()
	var sb strings.Builder
	sb.WriteString("Available commands:\n")
	fmt.Fprintf(&sb, "  %-22s %s\n", "help", "show available commands")
	for _, c := range a.commands() {
		if !c.availableTo(loggedIn) {
			continue
		}
		fmt.Fprintf(&sb, "  %-22s %s\n", strings.TrimSpace(c.name+" "+c.args), c.help)
	}
	fmt.Fprintf(&sb, "  %-22s %s", "exit | quit", "leave the program")
	return sb.String()
}

// userMessage turns a command error into a line for the user.
func userMessage(err error) string {
	var httpErr *api.HTTPError
	switch {
	case errors.Is(err, io.EOF):
		return "Input closed"
	case errors.Is(err, models.ErrValidation), errors.Is(err, common.ErrInvalidDate):
		return "Invalid input: " + err.Error()
	case errors.Is(err, resources.ErrMissingIdentifier):
		return "No meal selected: use select <id> or pass an id"
	case errors.Is(err, selection.ErrInvalidSelection):
		return "No such meal in the current list"
	case errors.Is(err, session.ErrNotAuthenticated):
		return "Please login first"
	case errors.Is(err, api.ErrUnauthorized):
		return "Not authorized: run refresh, or login again"
	case errors.Is(err, api.ErrNetwork):
		return "Server unreachable, working offline"
	case errors.Is(err, resources.ErrStale):
		return "Result superseded by a newer request"
	case errors.As(err, &httpErr):
		if httpErr.Message != "" {
			return fmt.Sprintf("Server rejected the request (%d): %s", httpErr.Status, httpErr.Message)
		}
		return fmt.Sprintf("Server rejected the request (%d)", httpErr.Status)
	default:
		return "Error: " + err.Error()
	}
}
