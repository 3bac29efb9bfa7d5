package mathtex

import (
	"bytes"
	"errors"
	"strings"
)

// ErrUnclosedDisplay reports a $$ opener without its closing $$.
var ErrUnclosedDisplay = errors.New("display math opened with $$ is never closed")

// Span is a math run found in markdown text. Unclosed marks a $$ run whose
// closing delimiter is missing; Expr then holds what followed the opener.
type Span struct {
	Expr     string
	Mode     Mode
	Offset   int
	Unclosed bool
}

// opensDisplayBlock reports whether line, without its indentation, is a
// bare $$ that starts a display block on the following lines.
func opensDisplayBlock(line []byte) bool {
	trimmed := bytes.TrimSpace(line)
	return len(trimmed) == 2 && trimmed[0] == '$' && trimmed[1] == '$'
}

// scanDelimited parses a math run at the start of line, which must begin
// with '$'. It reports the expression, the number of bytes consumed and
// whether the run is math at all.
//
// Inline runs follow the usual markdown math rules: no space after the
// opening '$', no space before the closing '$', no digit right after it,
// and no stray '$' in between. That keeps "$5 and $10" as prose.
func scanDelimited(line []byte) (expr []byte, consumed int, mode Mode, ok bool) {
	if len(line) < 2 || line[0] != '$' {
		return nil, 0, Inline, false
	}

	if line[1] == '$' {
		rest := line[2:]
		idx := bytes.Index(rest, []byte("$$"))
		if idx < 0 {
			return nil, 0, Display, false
		}
		body := rest[:idx]
		if len(bytes.TrimSpace(body)) == 0 {
			return nil, 0, Display, false
		}
		return body, idx + 4, Display, true
	}

	if isSpaceByte(line[1]) {
		return nil, 0, Inline, false
	}

	for j := 1; j < len(line); j++ {
		switch line[j] {
		case '\\':
			j++
		case '$':
			if isSpaceByte(line[j-1]) {
				return nil, 0, Inline, false
			}
			if j+1 < len(line) && line[j+1] >= '0' && line[j+1] <= '9' {
				return nil, 0, Inline, false
			}
			return line[1:j], j + 1, Inline, true
		}
	}
	return nil, 0, Inline, false
}

// Spans lists the math runs in a markdown string, skipping code spans,
// fenced code and escaped dollars. Inline runs never cross a line break.
// A line holding only $$ opens a display block that ends at the next line
// containing $$; a blank line or the end of input leaves it unclosed.
func Spans(markdown string) []Span {
	var spans []Span
	offset := 0
	inFence := ""

	var block *Span
	var body strings.Builder
	endBlock := func(unclosed bool) {
		block.Expr = body.String()
		block.Unclosed = unclosed
		spans = append(spans, *block)
		block = nil
		body.Reset()
	}

	for _, line := range strings.SplitAfter(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if block != nil {
			switch idx := strings.Index(line, "$$"); {
			case idx >= 0:
				body.WriteString(line[:idx])
				endBlock(false)
			case trimmed == "":
				endBlock(true)
			default:
				body.WriteString(line)
			}
			offset += len(line)
			continue
		}
		if inFence != "" {
			if strings.HasPrefix(trimmed, inFence) {
				inFence = ""
			}
			offset += len(line)
			continue
		}
		if strings.HasPrefix(trimmed, "```") {
			inFence = "```"
			offset += len(line)
			continue
		}
		if strings.HasPrefix(trimmed, "~~~") {
			inFence = "~~~"
			offset += len(line)
			continue
		}
		if opensDisplayBlock([]byte(line)) {
			block = &Span{Mode: Display, Offset: offset + strings.Index(line, "$$")}
			offset += len(line)
			continue
		}

		b := []byte(line)
		for i := 0; i < len(b); {
			switch b[i] {
			case '\\':
				i += 2
			case '`':
				i = skipCodeSpan(b, i)
			case '$':
				expr, n, mode, ok := scanDelimited(b[i:])
				if ok {
					spans = append(spans, Span{Expr: string(expr), Mode: mode, Offset: offset + i})
					i += n
					continue
				}
				if mode == Display {
					// $$ $$ with nothing between is prose
					if idx := bytes.Index(b[i+2:], []byte("$$")); idx >= 0 {
						i += idx + 4
						continue
					}
					spans = append(spans, Span{
						Expr:     strings.TrimSpace(string(b[i+2:])),
						Mode:     Display,
						Offset:   offset + i,
						Unclosed: true,
					})
					i = len(b)
					continue
				}
				i++
			default:
				i++
			}
		}
		offset += len(line)
	}
	if block != nil {
		endBlock(true)
	}
	return spans
}

func skipCodeSpan(b []byte, start int) int {
	run := 0
	for start+run < len(b) && b[start+run] == '`' {
		run++
	}
	fence := bytes.Repeat([]byte("`"), run)
	if idx := bytes.Index(b[start+run:], fence); idx >= 0 {
		return start + run + idx + run
	}
	return start + run
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
