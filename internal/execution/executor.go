package execution

import (
	"context"

	"ctp/internal/domain"
)

// Executor runs one test from the built driver and reduces it to a verdict
type Executor interface {
	Execute(ctx context.Context, testName, executablePath string, cfg RunConfig) domain.Verdict
}
