package driver

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ctp/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize_TwoHeaders(t *testing.T) {
	s := NewSynthesizer("/project")
	src, err := s.Synthesize([]domain.CaseRef{
		{Label: "t1", FilePath: "/project/a.h"},
		{Label: "t2", FilePath: "/project/b.h"},
	})
	require.NoError(t, err)

	a := strings.Index(src, `#include "a.h"`)
	b := strings.Index(src, `#include "b.h"`)
	tramp := strings.Index(src, TrampolineInclude)
	require.GreaterOrEqual(t, a, 0)
	require.GreaterOrEqual(t, b, 0)
	assert.Less(t, a, b)
	assert.Less(t, b, tramp, "headers go before the trampoline include")

	assert.Contains(t, src, "\t{ \"t1\", t1 },")
	assert.Contains(t, src, "\t{ \"t2\", t2 },")

	opener := strings.Index(src, TableOpener)
	assert.Less(t, opener, strings.Index(src, `{ "t1", t1 }`))
}

func TestSynthesize_IncludesDeduplicatedInOrder(t *testing.T) {
	s := NewSynthesizer("/project")
	src, err := s.Synthesize([]domain.CaseRef{
		{Label: "a1", FilePath: "/project/A.h"},
		{Label: "b1", FilePath: "/project/B.h"},
		{Label: "a2", FilePath: "/project/A.h"},
		{Label: "c1", FilePath: "/project/sub/C.h"},
	})
	require.NoError(t, err)

	var includes []string
	for _, line := range strings.Split(src, "\n") {
		if strings.HasPrefix(line, `#include "`) {
			includes = append(includes, line)
		}
	}
	assert.Equal(t, []string{`#include "A.h"`, `#include "B.h"`, `#include "sub/C.h"`}, includes)
	assert.Equal(t, 4, strings.Count(src, "\t{ \""))
}

func TestSynthesize_HeaderOutsideBaseDir(t *testing.T) {
	s := NewSynthesizer("/project")
	src, err := s.Synthesize([]domain.CaseRef{{Label: "t", FilePath: "/elsewhere/x_tests.h"}})
	require.NoError(t, err)
	assert.Contains(t, src, `#include "/elsewhere/x_tests.h"`)
}

func TestSynthesize_EmptySelectionKeepsTemplate(t *testing.T) {
	s := NewSynthesizer("/project")
	src, err := s.Synthesize(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplate, src)
}

func TestSynthesize_TemplateCorrupted(t *testing.T) {
	tests := []struct {
		name     string
		template string
	}{
		{
			name:     "missing trampoline include",
			template: strings.Replace(DefaultTemplate, TrampolineInclude, "#include <vector>", 1),
		},
		{
			name:     "missing table opener",
			template: strings.Replace(DefaultTemplate, TableOpener, "std::map<std::string, FnPtr> table {", 1),
		},
		{
			name:     "table body not empty",
			template: strings.Replace(DefaultTemplate, TableOpener+"\n", TableOpener+"\n        { \"x\", x },\n", 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewSynthesizer("/project").WithTemplate(tt.template).
				Synthesize([]domain.CaseRef{{Label: "t", FilePath: "/project/unit_tests.h"}})
			assert.True(t, errors.Is(err, ErrTemplateCorrupted), "got %v", err)
			assert.Empty(t, src)
		})
	}
}

func TestLoadTemplateAndWrite(t *testing.T) {
	dir := t.TempDir()
	tmplPath := filepath.Join(dir, "driver.tmpl")
	require.NoError(t, os.WriteFile(tmplPath, []byte(DefaultTemplate), 0644))

	s := NewSynthesizer(dir)
	require.NoError(t, s.LoadTemplate(tmplPath))
	assert.Error(t, s.LoadTemplate(filepath.Join(dir, "missing.tmpl")))

	src, err := s.Synthesize([]domain.CaseRef{{Label: "t", FilePath: filepath.Join(dir, "unit_tests.h")}})
	require.NoError(t, err)

	out := filepath.Join(dir, "unit_test_driver.cpp")
	require.NoError(t, Write(out, src))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `#include "unit_tests.h"`)
}
