package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffLines(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		actual   string
		want     []DiffRow
	}{
		{
			name:     "single line mismatch",
			expected: "6\n",
			actual:   "5\n",
			want:     []DiffRow{{Line: 1, Expected: "6", Actual: "5"}},
		},
		{
			name:     "actual has extra line",
			expected: "a\n",
			actual:   "a\nb\n",
			want: []DiffRow{
				{Line: 1, Expected: "a", Actual: "a", Equal: true},
				{Line: 2, Expected: "", Actual: "b"},
			},
		},
		{
			name:     "missing final newline",
			expected: "a\n",
			actual:   "a",
			want:     []DiffRow{{Line: 1, Expected: "a", Actual: "a" + noNewlineMarker}},
		},
		{
			name:     "both empty",
			expected: "",
			actual:   "",
			want:     []DiffRow{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DiffLines(tt.expected, tt.actual))
		})
	}
}
