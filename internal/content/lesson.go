// Package content loads lesson documents from a directory tree and keeps
// them as an immutable, ordered catalog.
package content

import (
	"strconv"
	"strings"
)

// BlockKind names the building blocks a lesson body is made of.
type BlockKind string

const (
	KindProse           BlockKind = "prose"
	KindMustKnow        BlockKind = "mustknow"
	KindMCQ             BlockKind = "mcq"
	KindDataSufficiency BlockKind = "ds"
)

// OpenDrill marks a data-sufficiency card with no single answer letter.
const OpenDrill = "—"

// Block is one piece of a lesson body.
type Block interface {
	Kind() BlockKind
}

// Prose is plain lesson markdown.
type Prose struct {
	Markdown string
}

func (Prose) Kind() BlockKind { return KindProse }

// MustKnow is a highlighted callout.
type MustKnow struct {
	Markdown string
}

func (MustKnow) Kind() BlockKind { return KindMustKnow }

// MCQ is a numbered multiple-choice example. Correct holds the text of the
// right option.
type MCQ struct {
	Number   int      `yaml:"number"`
	Prompt   string   `yaml:"prompt"`
	Options  []string `yaml:"options"`
	Correct  string   `yaml:"correct"`
	Solution string   `yaml:"solution"`
}

func (MCQ) Kind() BlockKind { return KindMCQ }

// CorrectIndex returns the index of the correct option or -1.
func (q MCQ) CorrectIndex() int {
	for i, option := range q.Options {
		if strings.TrimSpace(option) == strings.TrimSpace(q.Correct) {
			return i
		}
	}
	return -1
}

// DataSufficiency is a numbered data-sufficiency example card.
type DataSufficiency struct {
	Number     int      `yaml:"number"`
	Title      string   `yaml:"title"`
	Question   string   `yaml:"question"`
	Statements []string `yaml:"statements"`
	Correct    string   `yaml:"correct"`
	Solution   string   `yaml:"solution"`
}

func (DataSufficiency) Kind() BlockKind { return KindDataSufficiency }

// Gradable reports whether the card has a single answer letter.
func (q DataSufficiency) Gradable() bool {
	return !isOpenDrill(q.Correct)
}

func isOpenDrill(letter string) bool {
	switch strings.TrimSpace(letter) {
	case OpenDrill, "-", "–", "":
		return true
	}
	return false
}

// Lesson is one parsed lesson document.
type Lesson struct {
	ChapterSlug  string
	ChapterTitle string
	Slug         string
	Path         string
	Title        string
	Section      string
	Heading      string
	Description  string
	LegacyID     int
	Draft        bool
	Blocks       []Block
	Hash         string
}

// Key identifies the lesson across the catalog.
func (l *Lesson) Key() string {
	return l.ChapterSlug + "/" + l.Slug
}

// URL is the canonical public path of the lesson.
func (l *Lesson) URL() string {
	return "/chapters/" + l.ChapterSlug + "/" + l.Slug
}

// HeadTitle is the document title shown in the browser tab.
func (l *Lesson) HeadTitle() string {
	if l.ChapterTitle == "" {
		return l.Title
	}
	return l.Title + " | " + l.ChapterTitle
}

// Questions returns the gradable and open questions in body order.
func (l *Lesson) Questions() []Block {
	var out []Block
	for _, block := range l.Blocks {
		switch block.(type) {
		case MCQ, DataSufficiency:
			out = append(out, block)
		}
	}
	return out
}

// Question finds a MCQ or data-sufficiency block by its number.
func (l *Lesson) Question(number int) (Block, bool) {
	for _, block := range l.Questions() {
		switch q := block.(type) {
		case MCQ:
			if q.Number == number {
				return q, true
			}
		case DataSufficiency:
			if q.Number == number {
				return q, true
			}
		}
	}
	return nil, false
}

// Chapter groups lessons under one numbered topic.
type Chapter struct {
	Number      int
	Title       string
	Slug        string
	Dir         string
	Description string
	Lessons     []*Lesson
}

// URL is the public path of the chapter outline.
func (c *Chapter) URL() string {
	return "/chapters/" + c.Slug
}

// DisplayTitle prefixes the chapter number when there is one.
func (c *Chapter) DisplayTitle() string {
	if c.Number > 0 {
		return strings.TrimSpace(strconv.Itoa(c.Number) + ". " + c.Title)
	}
	return c.Title
}

// Keys lists the lesson keys of the chapter in order.
func (c *Chapter) Keys() []string {
	keys := make([]string, 0, len(c.Lessons))
	for _, lesson := range c.Lessons {
		keys = append(keys, lesson.Key())
	}
	return keys
}
