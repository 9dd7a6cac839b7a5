package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mealkeeper/internal/client/api"
	"github.com/dmitrijs2005/mealkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a username, an email and a password and creates the
// account. It does not log in.
func (a *App) Register(ctx context.Context, _ []string) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.auth.Register(ctx, userName, email, password)
	if err != nil {
		return a.track(ctx, err)
	}

	fmt.Fprintf(a.out, "Registered %s, you can login now\n", user.Username)
	return nil
}

// Login prompts for credentials and opens a session. After a successful
// login the goals and the meals of the viewed day are fetched.
func (a *App) Login(ctx context.Context, _ []string) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Login(ctx, userName, password); err != nil {
		a.log.Warn(ctx, "login unsuccessful", "username", userName, "error", err)
		return a.track(ctx, err)
	}
	a.setMode(ctx, ModeOnline)
	a.log.Info(ctx, "login successful", "username", userName)
	fmt.Fprintf(a.out, "Welcome, %s!\n", userName)

	sess := a.sess.Context()
	if _, err := a.goals.List(ctx, sess); err != nil {
		a.log.Warn(ctx, "goals not loaded", "error", err)
	}
	if _, err := a.meals.List(ctx, sess, a.sel.Filter()); err != nil {
		a.log.Warn(ctx, "meals not loaded", "error", err)
	}
	return nil
}

// Refresh trades the stored refresh token for a new access token.
func (a *App) Refresh(ctx context.Context, _ []string) error {
	if err := a.auth.Refresh(ctx); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			fmt.Fprintln(a.out, "Refresh token rejected, please login again")
		}
		return a.track(ctx, err)
	}

	exp, err := a.sess.Expiry()
	if err != nil || exp.IsZero() {
		fmt.Fprintln(a.out, "Token refreshed")
		return nil
	}
	fmt.Fprintf(a.out, "Token refreshed, valid until %s\n", exp.Local().Format("2006-01-02 15:04:05"))
	return nil
}

// Logout ends the session. Caches, drafts and offline snapshots are
// dropped by the session's logout hook.
func (a *App) Logout(ctx context.Context, _ []string) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
