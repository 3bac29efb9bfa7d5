package mathtex

import (
	"fmt"
	"strings"
)

// SyntaxError locates the first spot in an expression that cannot be typeset.
type SyntaxError struct {
	Offset int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Reason)
}

type frameKind int

const (
	frameBrace frameKind = iota
	frameLeft
	frameEnv
)

type frame struct {
	kind   frameKind
	offset int
	env    string
}

// Check reports whether expr is structurally sound enough for KaTeX:
// balanced groups, paired \left/\right and matching \begin/\end.
func Check(expr string) error {
	var stack []frame

	for i := 0; i < len(expr); {
		c := expr[i]
		switch c {
		case '\\':
			if i+1 >= len(expr) {
				return &SyntaxError{Offset: i, Reason: "trailing backslash"}
			}
			next := expr[i+1]
			if !isLetter(next) {
				// \{ \} \$ \\ \, and friends
				i += 2
				continue
			}
			name, end := readCommand(expr, i+1)
			switch name {
			case "left":
				stack = append(stack, frame{kind: frameLeft, offset: i})
			case "right":
				if len(stack) == 0 || stack[len(stack)-1].kind != frameLeft {
					return &SyntaxError{Offset: i, Reason: `\right without matching \left`}
				}
				stack = stack[:len(stack)-1]
			case "begin", "end":
				env, argEnd, ok := readGroupArg(expr, end)
				if !ok {
					return &SyntaxError{Offset: i, Reason: fmt.Sprintf(`\%s without environment name`, name)}
				}
				if name == "begin" {
					stack = append(stack, frame{kind: frameEnv, offset: i, env: env})
				} else {
					if len(stack) == 0 || stack[len(stack)-1].kind != frameEnv {
						return &SyntaxError{Offset: i, Reason: fmt.Sprintf(`\end{%s} without matching \begin`, env)}
					}
					top := stack[len(stack)-1]
					if top.env != env {
						return &SyntaxError{Offset: i, Reason: fmt.Sprintf(`\begin{%s} closed by \end{%s}`, top.env, env)}
					}
					stack = stack[:len(stack)-1]
				}
				end = argEnd
			}
			i = end
		case '{':
			stack = append(stack, frame{kind: frameBrace, offset: i})
			i++
		case '}':
			if len(stack) == 0 {
				return &SyntaxError{Offset: i, Reason: "unexpected }"}
			}
			top := stack[len(stack)-1]
			if top.kind != frameBrace {
				return &SyntaxError{Offset: i, Reason: "} closes " + top.describe()}
			}
			stack = stack[:len(stack)-1]
			i++
		case '$':
			return &SyntaxError{Offset: i, Reason: "unexpected $ inside math"}
		default:
			i++
		}
	}

	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return &SyntaxError{Offset: top.offset, Reason: "unclosed " + top.describe()}
	}
	return nil
}

func (f frame) describe() string {
	switch f.kind {
	case frameLeft:
		return `\left`
	case frameEnv:
		return `\begin{` + f.env + `}`
	default:
		return "{"
	}
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// readCommand returns the command name starting at start and the index
// just past it.
func readCommand(s string, start int) (string, int) {
	end := start
	for end < len(s) && isLetter(s[end]) {
		end++
	}
	return s[start:end], end
}

// readGroupArg reads a {name} argument after optional spaces.
func readGroupArg(s string, start int) (string, int, bool) {
	i := start
	for i < len(s) && s[i] == ' ' {
		i++
	}
	if i >= len(s) || s[i] != '{' {
		return "", start, false
	}
	closeIdx := strings.IndexByte(s[i+1:], '}')
	if closeIdx < 0 {
		return "", start, false
	}
	name := strings.TrimSpace(s[i+1 : i+1+closeIdx])
	if name == "" {
		return "", start, false
	}
	return name, i + 1 + closeIdx + 1, true
}
