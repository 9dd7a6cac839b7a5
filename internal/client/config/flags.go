package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/mealkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   API base URL
//	-i int      online check interval in seconds
//	-t int      request timeout in seconds
//	-d string   local database path
//	-s string   meals scope, date or all
//
// Only flags present in args change the config. Other arguments are
// filtered out with flagx.FilterArgs so they cannot trip this flag set.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-i", "-t", "-d", "-s"})

	fs := flag.NewFlagSet("mealkeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	apiBaseURL := fs.String("a", cfg.APIBaseURL, "API base URL")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	dbPath := fs.String("d", cfg.DatabasePath, "local database path")
	scope := fs.String("s", cfg.MealScope, "meals scope: date or all")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			cfg.APIBaseURL = *apiBaseURL
		case "i":
			cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
		case "t":
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		case "d":
			cfg.DatabasePath = *dbPath
		case "s":
			cfg.MealScope = *scope
		}
	})
	return nil
}
