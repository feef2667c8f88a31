package parser

import (
	"testing"

	"ctp/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const valgrindLeak = `==4242== Memcheck, a memory error detector
==4242== Invalid write of size 4
==4242==    at 0x109156: test_fail_valgrind() (unit_tests.h:19)
==4242==
==4242== HEAP SUMMARY:
==4242==     in use at exit: 400 bytes in 1 blocks
==4242== LEAK SUMMARY:
==4242==    definitely lost: 400 bytes in 1 blocks
==4242==
==4242== ERROR SUMMARY: 2 errors from 2 contexts (suppressed: 0 from 0)
`

func TestParseAssertion(t *testing.T) {
	p := NewDiagnosticsParser()

	tests := []struct {
		name   string
		stderr string
		want   Assertion
		ok     bool
	}{
		{
			name:   "glibc",
			stderr: "a.out: unit_tests.h:14: void test_fail(): Assertion `1 == 0' failed.\n",
			want:   Assertion{File: "unit_tests.h", Line: 14, Function: "void test_fail()", Expression: "1 == 0"},
			ok:     true,
		},
		{
			name:   "bsd",
			stderr: "Assertion failed: 1 == 0 (unit_tests.h: test_fail: 14)\n",
			want:   Assertion{File: "unit_tests.h", Line: 14, Function: "test_fail", Expression: "1 == 0"},
			ok:     true,
		},
		{
			name:   "darwin",
			stderr: "Assertion failed: (1 == 0), function test_fail, file unit_tests.h, line 14.\n",
			want:   Assertion{File: "unit_tests.h", Line: 14, Function: "test_fail", Expression: "1 == 0"},
			ok:     true,
		},
		{
			name:   "no assertion",
			stderr: "Segmentation fault\n",
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.ParseAssertion(tt.stderr)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseMemoryReport(t *testing.T) {
	p := NewDiagnosticsParser()

	m, ok := p.ParseMemoryReport(valgrindLeak)
	require.True(t, ok)
	assert.Equal(t, 2, m.Errors)
	assert.Equal(t, 2, m.Contexts)
	assert.Equal(t, "400 bytes in 1 blocks", m.DefinitelyLost)
	assert.Equal(t, "Invalid write of size 4", m.FirstInvalidUse)

	_, ok = p.ParseMemoryReport("all good\n")
	assert.False(t, ok)
}

func TestParseFailure(t *testing.T) {
	p := NewDiagnosticsParser()

	t.Run("execute stage gets assertion location", func(t *testing.T) {
		report := &domain.FailureReport{
			Stage:  domain.StageExecute,
			Stderr: "a.out: unit_tests.h:14: void test_fail(): Assertion `1 == 0' failed.\n",
		}
		p.ParseFailure(report)
		assert.Equal(t, "unit_tests.h", report.File)
		assert.Equal(t, 14, report.Line)
		assert.Contains(t, report.Message, "1 == 0")
	})

	t.Run("memory check stage gets summary", func(t *testing.T) {
		report := &domain.FailureReport{Stage: domain.StageMemoryCheck, Stderr: valgrindLeak}
		p.ParseFailure(report)
		assert.Equal(t, "2 memory error(s) from 2 context(s); Invalid write of size 4; definitely lost: 400 bytes in 1 blocks", report.Message)
	})

	t.Run("existing message is kept", func(t *testing.T) {
		report := &domain.FailureReport{Stage: domain.StageMemoryCheck, Stderr: valgrindLeak, Message: "custom"}
		p.ParseFailure(report)
		assert.Equal(t, "custom", report.Message)
	})

	t.Run("other stages untouched", func(t *testing.T) {
		report := &domain.FailureReport{Stage: domain.StageTimeout, Stderr: valgrindLeak}
		p.ParseFailure(report)
		assert.Empty(t, report.Message)
	})
}
