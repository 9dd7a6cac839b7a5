package config

import "github.com/caarlos0/env/v10"

const envPrefix = "MEALKEEPER_"

// parseEnv overlays Config with MEALKEEPER_* variables. Unset variables
// leave the current values alone. A nil environ means the process
// environment.
func parseEnv(cfg *Config, environ map[string]string) error {
	return env.ParseWithOptions(cfg, env.Options{
		Prefix:      envPrefix,
		Environment: environ,
	})
}
