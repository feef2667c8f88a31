package parser

import "ctp/internal/domain"

// Parser enriches a failure report with diagnostics found in its captured output
type Parser interface {
	ParseFailure(report *domain.FailureReport)
}
