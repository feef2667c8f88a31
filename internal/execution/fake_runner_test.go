package execution

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// fakeRunner answers every call with respond and records the specs it saw.
type fakeRunner struct {
	mu      sync.Mutex
	calls   []ProcessSpec
	respond func(spec ProcessSpec) ProcessResult
}

func (f *fakeRunner) Run(_ context.Context, spec ProcessSpec) ProcessResult {
	f.mu.Lock()
	f.calls = append(f.calls, spec)
	f.mu.Unlock()
	if f.respond == nil {
		return ProcessResult{}
	}
	return f.respond(spec)
}

func (f *fakeRunner) callsTo(name string) []ProcessSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ProcessSpec
	for _, c := range f.calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
