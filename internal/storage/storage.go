package storage

import (
	"ctp/internal/config"
	"ctp/internal/domain"
)

// Storage persists the report of the last run (e.g. for the failures viewer).
// Each Save replaces the previous report.
type Storage interface {
	Save(report *domain.RunReport) error
	Load() (*Output, error)
}

// Output is the on-disk shape of the last-run report
type Output struct {
	Meta   Meta              `json:"meta"`
	Report *domain.RunReport `json:"report"`
}

// Meta summarizes a run for quick inspection of the file
type Meta struct {
	Total           int     `json:"total"`
	Passed          int     `json:"passed"`
	Failed          int     `json:"failed"`
	Skipped         int     `json:"skipped"`
	NotRun          int     `json:"not_run"`
	BuildFailed     bool    `json:"build_failed"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	Timestamp       string  `json:"timestamp"`
}

// JSONStorage stores the report in a JSON file under the configured output path.
type JSONStorage struct {
	cfg *config.Config
}

// NewJSONStorage returns a Storage that reads/writes the config's output JSON path.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{cfg: cfg}
}

// Path returns the report file location.
func (s *JSONStorage) Path() string {
	return s.cfg.GetOutputPath()
}
