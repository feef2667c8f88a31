package cli

import "ctp/internal/config"

// Flags holds command-line flags
type Flags struct {
	ProjectPath  string
	LogLevel     string
	TestPath     string
	NameFilter   string
	FileFilter   string
	NoProgress   bool
	OpenFailures bool
	TestCases    bool
	Force        bool
	FailFast     bool
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		TestPath:     f.TestPath,
		NameFilter:   f.NameFilter,
		FileFilter:   f.FileFilter,
		NoProgress:   f.NoProgress,
		OpenFailures: f.OpenFailures,
		ShowTree:     f.TestCases,
		Force:        f.Force,
		FailFast:     f.FailFast,
	}
}
