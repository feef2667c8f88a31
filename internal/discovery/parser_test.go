package discovery

import (
	"os"
	"path/filepath"
	"testing"
)

func names(events []Event, kind EventKind) []string {
	var out []string
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev.Name)
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestParser_Scan(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		text     string
		tests    []string
		headings []string
	}{
		{
			name:  "single test",
			text:  "void test_add() { assert(1+1==2); }\n",
			tests: []string{"test_add"},
		},
		{
			name:  "indented and void parameter",
			text:  "   void test_a(void) {\n}\n\tvoid test_b();\n",
			tests: []string{"test_a", "test_b"},
		},
		{
			name:  "functions with parameters or return values are ignored",
			text:  "void helper(int x) {}\nint test_int() { return 0; }\nstatic void test_static() {}\n",
			tests: nil,
		},
		{
			name:  "block commented test",
			text:  "/*\nvoid block_commented_test() {\n}\n*/\nvoid live() {}\n",
			tests: []string{"live"},
		},
		{
			name:  "line commented test",
			text:  "// void inline_commented_test() {\n//}\nvoid live() {}\n",
			tests: []string{"live"},
		},
		{
			name:  "signature on the line that opens a block comment",
			text:  "/* void opener() {\n}\n*/\n",
			tests: nil,
		},
		{
			name:  "comment after a live signature",
			text:  "void live() { /* starts here\n void hidden() {}\n*/ }\n",
			tests: []string{"live"},
		},
		{
			name:  "comment markers inside strings",
			text:  "void url() { puts(\"http://example.com /*\"); }\nvoid after() {}\n",
			tests: []string{"url", "after"},
		},
		{
			name:     "headings",
			text:     "// TEST GROUP: lists\nvoid a() {}\n/* test subgroup push */\nvoid b() {}\n",
			tests:    []string{"a", "b"},
			headings: []string{"lists", "push"},
		},
		{
			name:     "heading without following tests",
			text:     "// TEST GROUP empty\n",
			headings: []string{"empty"},
		},
		{
			name:     "heading without title falls back to marker",
			text:     "// ===== TEST GROUP =====\n",
			headings: []string{"TEST GROUP"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := parser.Scan(tt.text)
			if got := names(events, TestDetected); !equalStrings(got, tt.tests) {
				t.Errorf("expected tests %v, got %v", tt.tests, got)
			}
			if got := names(events, HeadingDetected); !equalStrings(got, tt.headings) {
				t.Errorf("expected headings %v, got %v", tt.headings, got)
			}
		})
	}
}

func TestParser_HeadingDepth(t *testing.T) {
	parser := NewParser()

	text := "// TEST GROUP top\n// TEST SUBGROUP middle\n// TEST SUBSUBGROUP bottom\n// TestGroup again\n"
	events := parser.Scan(text)
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}

	expected := []int{1, 2, 3, 1}
	for i, ev := range events {
		if ev.Kind != HeadingDetected {
			t.Fatalf("event %d: expected heading", i)
		}
		if ev.Depth != expected[i] {
			t.Errorf("event %d (%s): expected depth %d, got %d", i, ev.Name, expected[i], ev.Depth)
		}
	}
}

func TestParser_Ranges(t *testing.T) {
	parser := NewParser()

	events := parser.Scan("#include <cassert>\n\n  void test_pass() {\n")
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	r := events[0].Range
	if r.Line != 2 || r.ColumnStart != 2 || r.ColumnEnd != len("  void test_pass() {") {
		t.Errorf("unexpected range %+v", r)
	}
}

func TestParser_FindTestCases(t *testing.T) {
	parser := NewParser()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "unit_tests.h")
	content := `#include <cassert>
#include <iostream>

void test_pass() {
    assert(0 == 0);
}

void test_fail() {
    assert(1 == 0);
}

/*
void block_commented_test() {
    std::cout << "don't run me";
}
*/

// void inline_commented_test() {
//    std::cout << "don't run me";
//}
`
	if err := os.WriteFile(testFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	t.Run("finds test functions in order", func(t *testing.T) {
		testCases, err := parser.FindTestCases(testFile)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !equalStrings(testCases, []string{"test_pass", "test_fail"}) {
			t.Errorf("unexpected test cases: %v", testCases)
		}
	})

	t.Run("returns scan error for non-existent file", func(t *testing.T) {
		_, err := parser.FindTestCases("/non/existent/unit_tests.h")
		if err == nil {
			t.Fatal("expected error for non-existent file")
		}
		if _, ok := err.(*ScanError); !ok {
			t.Errorf("expected *ScanError, got %T", err)
		}
	})
}
