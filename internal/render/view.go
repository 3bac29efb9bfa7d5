package render

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/gmatprep/internal/content"
)

// optionLetters label MCQ options in order.
const optionLetters = "ABCDEF"

// OptionView is one lettered answer choice.
type OptionView struct {
	Letter string        `json:"letter"`
	HTML   template.HTML `json:"html"`
}

// DataSufficiencyChoices are the five fixed answers of every
// data-sufficiency question.
var DataSufficiencyChoices = []OptionView{
	{Letter: "A", HTML: "Statement (1) ALONE is sufficient, but statement (2) alone is not sufficient."},
	{Letter: "B", HTML: "Statement (2) ALONE is sufficient, but statement (1) alone is not sufficient."},
	{Letter: "C", HTML: "BOTH statements TOGETHER are sufficient, but NEITHER statement ALONE is sufficient."},
	{Letter: "D", HTML: "EACH statement ALONE is sufficient."},
	{Letter: "E", HTML: "Statements (1) and (2) TOGETHER are NOT sufficient."},
}

// BlockView is a rendered lesson block. Fields not used by a kind stay
// empty. Correct answers are not part of the view; grading goes through
// the answers API.
type BlockView struct {
	Kind       content.BlockKind `json:"kind"`
	HTML       template.HTML     `json:"html,omitempty"`
	Number     int               `json:"number,omitempty"`
	Title      string            `json:"title,omitempty"`
	Prompt     template.HTML     `json:"prompt,omitempty"`
	Options    []OptionView      `json:"options,omitempty"`
	Statements []template.HTML   `json:"statements,omitempty"`
	Solution   template.HTML     `json:"solution,omitempty"`
	Gradable   bool              `json:"gradable,omitempty"`
}

// IsQuestion reports whether the block takes an answer.
func (b BlockView) IsQuestion() bool {
	return b.Kind == content.KindMCQ || b.Kind == content.KindDataSufficiency
}

// LessonView is everything a lesson page needs from the lesson body.
type LessonView struct {
	Key         string      `json:"key"`
	Hash        string      `json:"hash"`
	Title       string      `json:"title"`
	Heading     string      `json:"heading"`
	Description string      `json:"description"`
	Section     string      `json:"section"`
	Blocks      []BlockView `json:"blocks"`
	PlainText   string      `json:"plain_text"`
}

// Lesson renders every block of lesson.
func (r *Renderer) Lesson(ctx context.Context, lesson *content.Lesson) (*LessonView, error) {
	view := &LessonView{
		Key:         lesson.Key(),
		Hash:        lesson.Hash,
		Title:       lesson.Title,
		Heading:     lesson.Heading,
		Description: lesson.Description,
		Section:     lesson.Section,
		Blocks:      make([]BlockView, 0, len(lesson.Blocks)),
	}

	var text []string
	for i, block := range lesson.Blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bv, err := r.block(block)
		if err != nil {
			return nil, fmt.Errorf("render %s block %d: %w", lesson.Key(), i+1, err)
		}
		view.Blocks = append(view.Blocks, bv)
		text = append(text, blockText(bv))
	}
	view.PlainText = strings.Join(strings.Fields(strings.Join(text, " ")), " ")

	return view, nil
}

func (r *Renderer) block(block content.Block) (BlockView, error) {
	var (
		bv  = BlockView{Kind: block.Kind()}
		err error
	)
	switch b := block.(type) {
	case content.Prose:
		bv.HTML, err = r.Markdown(b.Markdown)
	case content.MustKnow:
		bv.HTML, err = r.Markdown(b.Markdown)
	case content.MCQ:
		bv.Number = b.Number
		bv.Gradable = true
		if bv.Prompt, err = r.Markdown(b.Prompt); err != nil {
			return bv, err
		}
		for i, option := range b.Options {
			html, err := r.Inline(option)
			if err != nil {
				return bv, err
			}
			bv.Options = append(bv.Options, OptionView{Letter: optionLetters[i : i+1], HTML: html})
		}
		bv.Solution, err = r.Markdown(b.Solution)
	case content.DataSufficiency:
		bv.Number = b.Number
		bv.Title = b.Title
		bv.Gradable = b.Gradable()
		bv.Options = DataSufficiencyChoices
		if bv.Prompt, err = r.Markdown(b.Question); err != nil {
			return bv, err
		}
		for _, statement := range b.Statements {
			html, err := r.Inline(statement)
			if err != nil {
				return bv, err
			}
			bv.Statements = append(bv.Statements, html)
		}
		bv.Solution, err = r.Markdown(b.Solution)
	default:
		return bv, fmt.Errorf("unsupported block kind %q", block.Kind())
	}
	return bv, err
}

// blockText is the searchable text of a block; solutions are left out.
func blockText(bv BlockView) string {
	parts := []string{bv.Title, PlainText(bv.HTML), PlainText(bv.Prompt)}
	if bv.Kind == content.KindMCQ {
		for _, option := range bv.Options {
			parts = append(parts, PlainText(option.HTML))
		}
	}
	for _, statement := range bv.Statements {
		parts = append(parts, PlainText(statement))
	}
	return strings.Join(parts, " ")
}
