// Package config loads runtime configuration for the mealkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables prefixed with MEALKEEPER_ (see parseEnv).
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   API base URL, e.g. http://127.0.0.1:8000/api
//	-i int      online status check interval (seconds)
//	-t int      per-request timeout (seconds)
//	-d string   path of the local SQLite database
//	-s string   meals list scope: "date" or "all"
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "http://127.0.0.1:8000/api",
//	  "online_check_interval": "3s",
//	  "request_timeout": "12s",
//	  "database_path": "mealkeeper.db",
//	  "meal_scope": "date",
//	  "log_format": "text",
//	  "log_level": "info",
//	  "export_dir": "exports",
//	  "export_bucket": "",
//	  "export_region": "us-east-1",
//	  "export_endpoint": ""
//	}
//
// Export credentials are read from the environment only
// (MEALKEEPER_EXPORT_ACCESS_KEY, MEALKEEPER_EXPORT_SECRET_KEY).
package config
