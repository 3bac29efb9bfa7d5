package content

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const medianLesson = `---
title: "14.6.4 Median with Unknown Values"
section: "14.6.4"
heading: "Finding the Median When Some Values Are Unknown"
description: "How to bound the median of a set with an unknown member."
legacy_id: 2455
---
Sort the known values first. With $n = 7$ values the median is the 4th.

~~~mustknow
An unknown value can move the median by **at most one position**.
~~~

~~~mcq
number: 43
prompt: "If S = {x, 4, 3, 12, 11, 10, 10}, what is the median of set S?"
options: ["3", "5", "10", "11", "12"]
correct: "10"
solution: |
  Wherever x lands, the two 10s keep the 4th position at 10.
~~~

~~~ds
number: 2
title: "When is a square root an integer?"
question: 'Let a be a positive integer. Is $\sqrt{18a}$ an integer?'
statements: ["a is a multiple of 2", "a is a multiple of 9"]
correct: "e"
solution: "Try a = 18 and a = 36."
~~~

Closing remarks.
`

func TestParseLessonBlocks(t *testing.T) {
	lesson, err := ParseLesson("statistics/median.md", []byte(medianLesson))
	require.NoError(t, err)

	assert.Equal(t, "14.6.4 Median with Unknown Values", lesson.Title)
	assert.Equal(t, "14.6.4", lesson.Section)
	assert.Equal(t, 2455, lesson.LegacyID)
	assert.Len(t, lesson.Hash, 16)

	require.Len(t, lesson.Blocks, 5)
	kinds := make([]BlockKind, 0, len(lesson.Blocks))
	for _, block := range lesson.Blocks {
		kinds = append(kinds, block.Kind())
	}
	assert.Equal(t, []BlockKind{KindProse, KindMustKnow, KindMCQ, KindDataSufficiency, KindProse}, kinds)

	mcq := lesson.Blocks[2].(MCQ)
	assert.Equal(t, 43, mcq.Number)
	assert.Equal(t, 2, mcq.CorrectIndex())
	assert.Equal(t, "Wherever x lands, the two 10s keep the 4th position at 10.", mcq.Solution)

	ds := lesson.Blocks[3].(DataSufficiency)
	assert.Equal(t, "E", ds.Correct)
	assert.True(t, ds.Gradable())
	assert.Equal(t, `Let a be a positive integer. Is $\sqrt{18a}$ an integer?`, ds.Question)

	q, ok := lesson.Question(2)
	require.True(t, ok)
	assert.Equal(t, KindDataSufficiency, q.Kind())
	_, ok = lesson.Question(7)
	assert.False(t, ok)

	assert.Empty(t, Validate(lesson))
}

func TestParseLessonKeepsCodeFencesInProse(t *testing.T) {
	src := "---\ntitle: Code\n---\nIntro\n\n```go\nx := 1\n```\n\nAfter\n"
	lesson, err := ParseLesson("c.md", []byte(src))
	require.NoError(t, err)
	require.Len(t, lesson.Blocks, 1)
	prose := lesson.Blocks[0].(Prose)
	assert.Contains(t, prose.Markdown, "```go\nx := 1\n```")
	assert.True(t, strings.HasSuffix(prose.Markdown, "After"))
}

func TestParseLessonNormalisesInput(t *testing.T) {
	src := "\xef\xbb\xbf---\r\ntitle: Windows\r\n---\r\nBody line\r\n"
	lesson, err := ParseLesson("w.md", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "Windows", lesson.Title)
	require.Len(t, lesson.Blocks, 1)
	assert.Equal(t, "Body line", lesson.Blocks[0].(Prose).Markdown)
}

func TestParseLessonErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantErr  error
		wantLine int
		contains string
	}{
		{name: "no front matter", src: "just text\n", wantErr: ErrFrontMatterMissing, wantLine: 1},
		{name: "unclosed front matter", src: "---\ntitle: x\n", wantErr: ErrFrontMatterUnclosed, wantLine: 1},
		{name: "unknown front matter key", src: "---\ntitle: x\nauthor: y\n---\n", wantLine: 2, contains: "author"},
		{name: "unclosed block", src: "---\ntitle: x\n---\nIntro\n~~~mcq\nnumber: 1\n", wantLine: 5, contains: "mcq block is not closed"},
		{name: "unknown block key", src: "---\ntitle: x\n---\n~~~ds\nnumber: 1\nanswer: A\n~~~\n", wantLine: 4, contains: "answer"},
		{name: "empty block", src: "---\ntitle: x\n---\n~~~mcq\n~~~\n", wantLine: 4, contains: "block is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLesson("bad.md", []byte(tt.src))
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "bad.md", pe.Path)
			assert.Equal(t, tt.wantLine, pe.Line)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		lesson   *Lesson
		messages []string
		severity Severity
	}{
		{
			name:     "missing title",
			lesson:   &Lesson{},
			messages: []string{"title is required"},
		},
		{
			name:     "bad section",
			lesson:   &Lesson{Title: "x", Section: "14.a"},
			messages: []string{`section "14.a"`},
		},
		{
			name: "mcq answer not an option",
			lesson: &Lesson{Title: "x", Blocks: []Block{
				MCQ{Number: 1, Prompt: "p", Options: []string{"1", "2"}, Correct: "3"},
			}},
			messages: []string{`correct answer "3" is not one of the options`},
		},
		{
			name: "mcq duplicate options",
			lesson: &Lesson{Title: "x", Blocks: []Block{
				MCQ{Number: 1, Prompt: "p", Options: []string{"1", "1"}, Correct: "1"},
			}},
			messages: []string{`duplicate option "1"`},
		},
		{
			name: "duplicate question numbers",
			lesson: &Lesson{Title: "x", Blocks: []Block{
				MCQ{Number: 4, Prompt: "p", Options: []string{"1", "2"}, Correct: "1"},
				DataSufficiency{Number: 4, Question: "q", Statements: []string{"a", "b"}, Correct: "C"},
			}},
			messages: []string{"question 4: duplicate question number"},
		},
		{
			name: "ds needs two statements and a letter",
			lesson: &Lesson{Title: "x", Blocks: []Block{
				DataSufficiency{Number: 1, Question: "q", Statements: []string{"a"}, Correct: "F"},
			}},
			messages: []string{"expected 2 statements, got 1", `got "F"`},
		},
		{
			name: "broken math is a warning",
			lesson: &Lesson{Title: "x", Blocks: []Block{
				Prose{Markdown: `Half is $\frac{1}{2$ here.`},
			}},
			messages: []string{"unclosed {"},
			severity: SeverityWarning,
		},
		{
			name: "broken display block is a warning",
			lesson: &Lesson{Title: "x", Blocks: []Block{
				Prose{Markdown: "Intro\n\n$$\n\\frac{1}{2\n$$\n\nAfter."},
			}},
			messages: []string{"unclosed {"},
			severity: SeverityWarning,
		},
		{
			name: "unclosed display math",
			lesson: &Lesson{Title: "x", Blocks: []Block{
				Prose{Markdown: "$$5 is the fee.\n\nSecond paragraph."},
				MustKnow{Markdown: "$$\nx + y\n\nStill prose."},
			}},
			messages: []string{"block 1: math \"5 is the fee.\": display math opened with $$ is never closed", "block 2: math"},
			severity: SeverityWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := Validate(tt.lesson)
			require.Len(t, problems, len(tt.messages))
			for i, msg := range tt.messages {
				assert.Contains(t, problems[i].Message, msg)
				assert.Equal(t, tt.severity, problems[i].Severity)
			}
		})
	}
}

func TestValidateChecksParsedDisplayMath(t *testing.T) {
	lesson, err := ParseLesson("Algebra/halves.md", []byte("---\ntitle: T\nsection: \"1.1\"\n---\nIntro\n\n$$\n\\frac{1}{2\n$$\n\nAfter.\n"))
	require.NoError(t, err)

	problems := Validate(lesson)
	require.Len(t, problems, 1)
	assert.Equal(t, SeverityWarning, problems[0].Severity)
	assert.Contains(t, problems[0].Message, `\\frac{1}{2`)
}

func TestValidateAcceptsOpenDrill(t *testing.T) {
	for _, letter := range []string{OpenDrill, "-", ""} {
		lesson := &Lesson{Title: "x", Blocks: []Block{
			DataSufficiency{Number: 1, Question: "q", Statements: []string{"a", "b"}, Correct: letter},
		}}
		assert.Empty(t, Validate(lesson), "letter %q", letter)
		assert.False(t, lesson.Blocks[0].(DataSufficiency).Gradable())
	}
}
