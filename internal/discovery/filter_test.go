package discovery

import (
	"testing"
)

func TestFilter_FilterByName(t *testing.T) {
	filter := NewFilter()

	tests := []struct {
		name     string
		files    []string
		pattern  string
		expected int
	}{
		{
			name:     "empty pattern returns all",
			files:    []string{"unit_tests.h", "list_tests.h", "map_tests.h"},
			pattern:  "",
			expected: 3,
		},
		{
			name:     "wildcard pattern matches suffix",
			files:    []string{"unit_tests.h", "list_tests.h", "map_tests.h"},
			pattern:  "*list_tests.h",
			expected: 1,
		},
		{
			name:     "wildcard pattern matches substring",
			files:    []string{"unit_tests.h", "list_tests.h", "sorted_list_tests.h"},
			pattern:  "*list*",
			expected: 2,
		},
		{
			name:     "simple contains match",
			files:    []string{"unit_tests.h", "list_tests.h"},
			pattern:  "unit",
			expected: 1,
		},
		{
			name:     "no matches",
			files:    []string{"unit_tests.h", "list_tests.h"},
			pattern:  "*tree*",
			expected: 0,
		},
		{
			name:     "full path with wildcard",
			files:    []string{"/path/to/unit_tests.h", "/path/to/list_tests.h"},
			pattern:  "*unit_tests.h",
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := filter.FilterByName(tt.files, tt.pattern)
			if len(result) != tt.expected {
				t.Errorf("expected %d matches, got %d", tt.expected, len(result))
			}
		})
	}
}

func TestFilter_Match(t *testing.T) {
	filter := NewFilter()

	tests := []struct {
		name    string
		label   string
		pattern string
		want    bool
	}{
		{"empty pattern", "push_front_0", "", true},
		{"exact", "push_front_0", "push_front_0", true},
		{"glob", "push_front_0", "push_*", true},
		{"ordered parts", "push_front_0", "*push*0", true},
		{"parts out of order", "push_front_0", "*0*push", false},
		{"substring", "diff_test_fail", "diff", true},
		{"single char wildcard", "t1", "t?", true},
		{"single char wildcard mismatch", "t12", "t?", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filter.Match(tt.label, tt.pattern); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.label, tt.pattern, got, tt.want)
			}
		})
	}
}
