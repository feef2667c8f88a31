package execution

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// BuildError is returned when the external build command fails
type BuildError struct {
	Target   string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *BuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("build target %q: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("build target %q failed with exit status %d", e.Target, e.ExitCode)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Builder invokes the external build tool in the project root
type Builder struct {
	runner  ProcessRunner
	command string
	dir     string
	log     logrus.FieldLogger
}

// NewBuilder creates a new Builder running `command <target>` in dir
func NewBuilder(runner ProcessRunner, command, dir string, log logrus.FieldLogger) *Builder {
	return &Builder{
		runner:  runner,
		command: command,
		dir:     dir,
		log:     log.WithField("component", "builder"),
	}
}

// Build compiles target. A non-zero exit yields a *BuildError carrying stderr verbatim.
func (b *Builder) Build(ctx context.Context, target string) error {
	b.log.WithField("target", target).Debug("Building driver")
	res := b.runner.Run(ctx, ProcessSpec{Name: b.command, Args: []string{target}, Dir: b.dir})
	if !res.Failed() {
		return nil
	}
	return &BuildError{
		Target:   target,
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Err:      res.Err,
	}
}

// Clean runs the clean target.
func (b *Builder) Clean(ctx context.Context, target string) error {
	if err := b.Build(ctx, target); err != nil {
		return fmt.Errorf("clean: %w", err)
	}
	return nil
}
