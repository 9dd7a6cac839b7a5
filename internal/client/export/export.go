// Package export writes a day of meals, with the user's goal and the day's
// summary, as a JSON document to a local directory or to an S3-compatible
// bucket.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mealkeeper/internal/client/models"
	"github.com/dmitrijs2005/mealkeeper/internal/filex"
)

// Summary adds up the server-computed totals of the listed meals.
type Summary struct {
	Calories float64 `json:"calories"`
	Fat      float64 `json:"fat"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Sugar    float64 `json:"sugar"`
}

func Summarize(meals []models.Meal) Summary {
	var s Summary
	for _, m := range meals {
		s.Calories += m.TotalCalories.Float()
		s.Fat += m.TotalFat.Float()
		s.Protein += m.TotalProtein.Float()
		s.Carbs += m.TotalCarbs.Float()
		s.Sugar += m.TotalSugar.Float()
	}
	return s
}

// Day is the exported document.
type Day struct {
	Username   string        `json:"username"`
	Filter     string        `json:"filter"`
	Goal       *models.Goal  `json:"goal,omitempty"`
	Meals      []models.Meal `json:"meals"`
	Summary    Summary       `json:"summary"`
	ExportedAt time.Time     `json:"exported_at"`
}

// NewDay builds a Day and computes its summary.
func NewDay(username, filter string, goal *models.Goal, meals []models.Meal, at time.Time) Day {
	if meals == nil {
		meals = []models.Meal{}
	}
	return Day{
		Username:   username,
		Filter:     filter,
		Goal:       goal,
		Meals:      meals,
		Summary:    Summarize(meals),
		ExportedAt: at.UTC(),
	}
}

// FileName is the document name, e.g. "meals-2024-05-01.json" for the
// filter key "meals:2024-05-01".
func (d Day) FileName() string {
	name := []rune(d.Filter)
	for i, r := range name {
		if r == ':' || r == '/' || r == '\\' {
			name[i] = '-'
		}
	}
	if len(name) == 0 {
		return "meals.json"
	}
	return string(name) + ".json"
}

func Encode(d Day) ([]byte, error) {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return b, nil
}

// Exporter stores a Day and returns where it went.
type Exporter interface {
	Export(ctx context.Context, d Day) (string, error)
}

// FileExporter writes into a local directory.
type FileExporter struct {
	Dir string
}

func NewFileExporter(dir string) *FileExporter {
	if dir == "" {
		dir = "exports"
	}
	return &FileExporter{Dir: dir}
}

func (e *FileExporter) Export(_ context.Context, d Day) (string, error) {
	b, err := Encode(d)
	if err != nil {
		return "", err
	}
	return filex.WriteFile(e.Dir, d.FileName(), b)
}
