// Package cli provides the interactive mealkeeper command-line client.
//
// It wires configuration, the local database, the API client, the session,
// the resource caches and an interactive REPL. A background watcher pings
// the API and switches between online and offline mode; offline, meal lists
// are served from the last saved copy.
//
// Key features:
//   - Register / Login / Refresh / Logout
//   - Goals: show against the day's totals, edit values, derive from text
//   - Meals: list per day, add, edit, delete, select
//   - Food components of the selected meal: show, add, delete
//   - Export of the viewed day to a directory or an S3 bucket
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher and runREPL for details.
package cli
