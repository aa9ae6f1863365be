package parser

import (
	"fmt"
	"strings"
)

// marker tags the next function definition for export. It must sit in a //
// comment on the line before the declarator, either alone or trailing code.
const marker = "[[export]]"

// Declaration is the raw declarator text for one annotated function,
// captured from the line after the marker up to the opening brace of the
// body. Line is the 1-based line of the marker.
type Declaration struct {
	Text string
	Line int
}

// Scan walks source text and yields one Declaration per export marker.
// Bodies are never inspected beyond their opening brace, so any valid or
// invalid C++ after that point is irrelevant here.
func Scan(text string) ([]Declaration, error) {
	lines := strings.Split(text, "\n")

	var decls []Declaration
	for n := 0; n < len(lines); {
		if !isMarker(lines[n]) {
			n++
			continue
		}

		decl, next, err := capture(lines, n+1)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}

		decls = append(decls, Declaration{Text: decl, Line: n + 1})
		n = next
	}

	return decls, nil
}

// isMarker reports whether the line carries the export annotation: a //
// comment whose content starts with the marker token.
func isMarker(line string) bool {
	i := strings.Index(line, "//")
	if i < 0 {
		return false
	}

	return strings.HasPrefix(strings.TrimSpace(line[i+2:]), marker)
}

// capture accumulates declarator text starting at lines[start], dropping //
// and /* */ comments, until the body's opening brace. It returns the text
// and the index of the line after the brace, where scanning resumes.
//
// Blank lines between the marker and the declarator fall out naturally: they
// contribute nothing but a token separator.
func capture(lines []string, start int) (string, int, error) {
	var sb strings.Builder
	var inBlock bool

	for n := start; n < len(lines); n++ {
		line := lines[n]
		for i := 0; i < len(line); i++ {
			c := line[i]
			switch {
			case inBlock:
				if c == '*' && i+1 < len(line) && line[i+1] == '/' {
					inBlock = false
					sb.WriteByte(' ')
					i++
				}
			case c == '/' && i+1 < len(line) && line[i+1] == '/':
				i = len(line)
			case c == '/' && i+1 < len(line) && line[i+1] == '*':
				inBlock = true
				i++
			case c == '{':
				return sb.String(), n + 1, nil
			case c == ';':
				return "", 0, fmt.Errorf("%w: declaration ends before a body opens (exports must be definitions, not prototypes)", ErrInvalidSignature)
			default:
				sb.WriteByte(c)
			}
		}

		sb.WriteByte(' ')
	}

	return "", 0, fmt.Errorf("%w: reached end of file without a function body", ErrUnterminatedExport)
}
