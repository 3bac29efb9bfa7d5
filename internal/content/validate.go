package content

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gmatprep/internal/mathtex"
)

// Severity separates problems that block loading from advisory ones.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Problem is one finding about a content file.
type Problem struct {
	Path     string
	Message  string
	Severity Severity
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s: %s", p.Severity, p.Path, p.Message)
}

// ValidationError carries every error-level problem of a load.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "content: " + e.Problems[0].String()
	}
	return fmt.Sprintf("content: %d problems, first: %s", len(e.Problems), e.Problems[0].String())
}

var sectionPattern = regexp.MustCompile(`^\d+(\.\d+)*$`)

const (
	answerLetters   = "ABCDE"
	minMCQOptions   = 2
	maxMCQOptions   = 6
	statementsPerDS = 2
)

// Validate checks a parsed lesson. Broken math is a warning since the
// renderer falls back gracefully; everything else is an error.
func Validate(lesson *Lesson) []Problem {
	var problems []Problem
	add := func(severity Severity, format string, args ...any) {
		problems = append(problems, Problem{Path: lesson.Path, Message: fmt.Sprintf(format, args...), Severity: severity})
	}

	if lesson.Title == "" {
		add(SeverityError, "title is required")
	}
	if lesson.Section != "" && !sectionPattern.MatchString(lesson.Section) {
		add(SeverityError, "section %q must be dotted numbers like 14.6.4", lesson.Section)
	}
	if lesson.LegacyID < 0 {
		add(SeverityError, "legacy_id must be positive")
	}

	seen := make(map[int]bool)
	checkMath := func(where, text string) {
		for _, span := range mathtex.Spans(text) {
			if span.Unclosed {
				add(SeverityWarning, "%s: math %q: %v", where, span.Expr, mathtex.ErrUnclosedDisplay)
				continue
			}
			if err := mathtex.Check(strings.TrimSpace(span.Expr)); err != nil {
				add(SeverityWarning, "%s: math %q: %v", where, span.Expr, err)
			}
		}
	}

	for i, block := range lesson.Blocks {
		switch b := block.(type) {
		case Prose:
			checkMath(fmt.Sprintf("block %d", i+1), b.Markdown)
		case MustKnow:
			if b.Markdown == "" {
				add(SeverityError, "block %d: must-know callout is empty", i+1)
			}
			checkMath(fmt.Sprintf("block %d", i+1), b.Markdown)
		case MCQ:
			where := fmt.Sprintf("question %d", b.Number)
			if b.Number <= 0 {
				add(SeverityError, "block %d: question number must be positive", i+1)
			} else if seen[b.Number] {
				add(SeverityError, "%s: duplicate question number", where)
			}
			seen[b.Number] = true
			if strings.TrimSpace(b.Prompt) == "" {
				add(SeverityError, "%s: prompt is required", where)
			}
			if len(b.Options) < minMCQOptions || len(b.Options) > maxMCQOptions {
				add(SeverityError, "%s: expected %d to %d options, got %d", where, minMCQOptions, maxMCQOptions, len(b.Options))
			}
			unique := make(map[string]bool, len(b.Options))
			for _, option := range b.Options {
				key := strings.TrimSpace(option)
				if key == "" {
					add(SeverityError, "%s: empty option", where)
				}
				if unique[key] {
					add(SeverityError, "%s: duplicate option %q", where, key)
				}
				unique[key] = true
			}
			if b.CorrectIndex() < 0 {
				add(SeverityError, "%s: correct answer %q is not one of the options", where, b.Correct)
			}
			checkMath(where, b.Prompt)
			checkMath(where, b.Solution)
			for _, option := range b.Options {
				checkMath(where, option)
			}
		case DataSufficiency:
			where := fmt.Sprintf("question %d", b.Number)
			if b.Number <= 0 {
				add(SeverityError, "block %d: question number must be positive", i+1)
			} else if seen[b.Number] {
				add(SeverityError, "%s: duplicate question number", where)
			}
			seen[b.Number] = true
			if strings.TrimSpace(b.Question) == "" {
				add(SeverityError, "%s: question is required", where)
			}
			if len(b.Statements) != statementsPerDS {
				add(SeverityError, "%s: expected %d statements, got %d", where, statementsPerDS, len(b.Statements))
			}
			if b.Gradable() && (len(b.Correct) != 1 || !strings.Contains(answerLetters, b.Correct)) {
				add(SeverityError, "%s: correct must be one of A-E or %s, got %q", where, OpenDrill, b.Correct)
			}
			checkMath(where, b.Question)
			checkMath(where, b.Solution)
			for _, statement := range b.Statements {
				checkMath(where, statement)
			}
		}
	}

	return problems
}

func hasErrors(problems []Problem) bool {
	for _, p := range problems {
		if p.Severity == SeverityError {
			return true
		}
	}
	return false
}

func errorsOnly(problems []Problem) []Problem {
	var out []Problem
	for _, p := range problems {
		if p.Severity == SeverityError {
			out = append(out, p)
		}
	}
	return out
}
