package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/mealkeeper/internal/flagx"
	"github.com/dmitrijs2005/mealkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. Pointer fields tell absent
// keys apart from zero values.
type JsonConfig struct {
	APIBaseURL          *string         `json:"api_base_url"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	DatabasePath        *string         `json:"database_path"`
	MealScope           *string         `json:"meal_scope"`
	LogFormat           *string         `json:"log_format"`
	LogLevel            *string         `json:"log_level"`
	ExportDir           *string         `json:"export_dir"`
	ExportBucket        *string         `json:"export_bucket"`
	ExportRegion        *string         `json:"export_region"`
	ExportEndpoint      *string         `json:"export_endpoint"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// parseJson overlays Config with values loaded from the JSON file given by
// -c or -config in args. Without such a flag nothing changes.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.MealScope, jc.MealScope)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.ExportDir, jc.ExportDir)
	setString(&cfg.ExportBucket, jc.ExportBucket)
	setString(&cfg.ExportRegion, jc.ExportRegion)
	setString(&cfg.ExportEndpoint, jc.ExportEndpoint)
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}
