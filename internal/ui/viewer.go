package ui

import "ctp/internal/storage"

// Viewer displays the failures of the last run in an interactive TUI
type Viewer interface {
	View(output *storage.Output) error
}
