package domain

// Range locates a discovered item in its header file. Line and columns are zero-based.
type Range struct {
	Line        int `json:"line"`
	ColumnStart int `json:"column_start"`
	ColumnEnd   int `json:"column_end"`
}

// CaseRef is a detached view of a test case selected for a run.
type CaseRef struct {
	ID         int    `json:"id"`
	Label      string `json:"label"`
	FilePath   string `json:"file_path"`
	Range      Range  `json:"range"`
	Generation uint64 `json:"generation"`
}

// CompilationLabel names the synthetic case reported when the driver fails to build.
const CompilationLabel = "compilation"

// CompilationCase returns the synthetic case for a failed build, located at the first selected case.
func CompilationCase(first CaseRef) CaseRef {
	return CaseRef{
		ID:         -1,
		Label:      CompilationLabel,
		FilePath:   first.FilePath,
		Range:      first.Range,
		Generation: first.Generation,
	}
}
