package discovery

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"ctp/internal/domain"
)

// EventKind distinguishes scanner events
type EventKind int

const (
	// TestDetected is a zero-argument void function declaration outside comments
	TestDetected EventKind = iota
	// HeadingDetected is a TEST GROUP marker
	HeadingDetected
)

// Event is one item found while scanning a header, in line order
type Event struct {
	Kind  EventKind
	Name  string // test symbol or heading title
	Range domain.Range
	Depth int // heading nesting depth, 1 for TEST GROUP
}

// ScanError reports a header that could not be read
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("error reading file %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

var (
	// void name() / void name(void), anything may follow
	testPattern = regexp.MustCompile(`^(\s*)void\s+([A-Za-z_]\w*)\s*\(\s*(?:void)?\s*\)`)
	// TEST GROUP, TEST SUBGROUP, TEST SUBSUBGROUP ... followed by the title
	headingPattern = regexp.MustCompile(`(?i)\bTEST\s*((?:SUB\s*)*)GROUP\b[\s:=\-]*(.*)$`)
	subPattern     = regexp.MustCompile(`(?i)SUB`)
)

// Parser finds test signatures and group headings in header text
type Parser struct{}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{}
}

// ScanFile reads a header and scans it.
func (p *Parser) ScanFile(filePath string) ([]Event, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, &ScanError{Path: filePath, Err: err}
	}
	return p.Scan(string(content)), nil
}

// FindTestCases returns the test names of a header in source order.
func (p *Parser) FindTestCases(filePath string) ([]string, error) {
	events, err := p.ScanFile(filePath)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, ev := range events {
		if ev.Kind == TestDetected {
			names = append(names, ev.Name)
		}
	}
	return names, nil
}

// Scan converts header text into test and heading events.
// Test signatures are matched against the comment-masked text only, so a
// signature that exists only inside a comment is never emitted. Headings are
// matched against the raw line since they usually live in comments.
func (p *Parser) Scan(text string) []Event {
	raw := strings.Split(text, "\n")
	masked := strings.Split(maskComments(text), "\n")

	var events []Event
	for lineNo, line := range raw {
		code := masked[lineNo]

		if m := testPattern.FindStringSubmatchIndex(code); m != nil {
			events = append(events, Event{
				Kind: TestDetected,
				Name: code[m[4]:m[5]],
				Range: domain.Range{
					Line:        lineNo,
					ColumnStart: m[3],
					ColumnEnd:   len(strings.TrimRight(code, " \t\r")),
				},
			})
			continue
		}

		if m := headingPattern.FindStringSubmatchIndex(line); m != nil {
			subs := line[m[2]:m[3]]
			events = append(events, Event{
				Kind:  HeadingDetected,
				Name:  headingTitle(line[m[0]:m[1]], line[m[4]:m[5]]),
				Depth: 1 + len(subPattern.FindAllString(subs, -1)),
				Range: domain.Range{
					Line:        lineNo,
					ColumnStart: m[0],
					ColumnEnd:   len(strings.TrimRight(line, "\r")),
				},
			})
		}
	}
	return events
}

func headingTitle(marker, trailing string) string {
	title := strings.TrimSpace(trailing)
	title = strings.TrimSuffix(title, "*/")
	title = strings.TrimRight(title, " \t\r*=-/")
	if title == "" {
		return strings.TrimSpace(strings.TrimRight(marker, " \t\r*=-/:"))
	}
	return title
}

// maskComments replaces every comment character with a space, keeping
// newlines so line and column numbers still line up with the input.
func maskComments(text string) string {
	const (
		code = iota
		lineComment
		blockComment
		stringLit
		charLit
	)

	out := []byte(text)
	state := code
	for i := 0; i < len(out); i++ {
		c := out[i]
		var next byte
		if i+1 < len(out) {
			next = out[i+1]
		}

		switch state {
		case code:
			switch {
			case c == '/' && next == '/':
				state = lineComment
				out[i], out[i+1] = ' ', ' '
				i++
			case c == '/' && next == '*':
				state = blockComment
				out[i], out[i+1] = ' ', ' '
				i++
			case c == '"':
				state = stringLit
			case c == '\'':
				state = charLit
			}
		case lineComment:
			if c == '\n' {
				state = code
			} else {
				out[i] = ' '
			}
		case blockComment:
			if c == '*' && next == '/' {
				out[i], out[i+1] = ' ', ' '
				i++
				state = code
			} else if c != '\n' {
				out[i] = ' '
			}
		case stringLit, charLit:
			quote := byte('"')
			if state == charLit {
				quote = '\''
			}
			switch {
			case c == '\\':
				i++
			case c == quote, c == '\n':
				state = code
			}
		}
	}
	return string(out)
}
