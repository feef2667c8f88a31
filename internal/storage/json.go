package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ctp/internal/domain"
)

// Save overwrites the report file with report.
func (s *JSONStorage) Save(report *domain.RunReport) error {
	passed, failed, skipped := report.Counts()
	output := Output{
		Meta: Meta{
			Total:           len(report.Results),
			Passed:          passed,
			Failed:          failed,
			Skipped:         skipped,
			NotRun:          len(report.NotRun),
			BuildFailed:     report.BuildFailed,
			Duration:        report.Duration.String(),
			DurationSeconds: report.Duration.Seconds(),
			Timestamp:       report.StartedAt.Format(time.RFC3339),
		},
		Report: report,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	path := s.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// Load reads the last run report.
func (s *JSONStorage) Load() (*Output, error) {
	path := s.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}
	var output Output
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	if output.Report == nil {
		return nil, fmt.Errorf("parse results: %s has no report", path)
	}
	return &output, nil
}
