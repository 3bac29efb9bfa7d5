package content

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrFrontMatterMissing  = errors.New("front matter is required")
	ErrFrontMatterUnclosed = errors.New("front matter is not closed")
)

// frontMatter mirrors the YAML header of a lesson file.
type frontMatter struct {
	Title       string `yaml:"title"`
	Section     string `yaml:"section"`
	Heading     string `yaml:"heading"`
	Description string `yaml:"description"`
	LegacyID    int    `yaml:"legacy_id"`
	Draft       bool   `yaml:"draft"`
}

// ParseError points at the line of a lesson file that failed to parse.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseLesson parses a lesson file. Chapter fields and the slug are left
// for the loader to fill in.
func ParseLesson(path string, data []byte) (*Lesson, error) {
	sum := sha256.Sum256(data)

	text := strings.ReplaceAll(string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), "\r\n", "\n")
	header, body, bodyLine, err := splitFrontMatter(text)
	if err != nil {
		return nil, &ParseError{Path: path, Line: 1, Err: err}
	}

	var meta frontMatter
	decoder := yaml.NewDecoder(strings.NewReader(header))
	decoder.KnownFields(true)
	if err := decoder.Decode(&meta); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ParseError{Path: path, Line: 2, Err: fmt.Errorf("front matter: %w", err)}
	}

	blocks, err := parseBlocks(body, bodyLine)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
			return nil, pe
		}
		return nil, &ParseError{Path: path, Err: err}
	}

	return &Lesson{
		Path:        path,
		Title:       strings.TrimSpace(meta.Title),
		Section:     strings.TrimSpace(meta.Section),
		Heading:     strings.TrimSpace(meta.Heading),
		Description: strings.TrimSpace(meta.Description),
		LegacyID:    meta.LegacyID,
		Draft:       meta.Draft,
		Blocks:      blocks,
		Hash:        hex.EncodeToString(sum[:8]),
	}, nil
}

// splitFrontMatter returns the YAML header, the body and the 1-based line
// number where the body starts.
func splitFrontMatter(text string) (string, string, int, error) {
	lines := strings.SplitAfter(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", "", 0, ErrFrontMatterMissing
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			header := strings.Join(lines[1:i], "")
			body := strings.Join(lines[i+1:], "")
			return header, body, i + 2, nil
		}
	}
	return "", "", 0, ErrFrontMatterUnclosed
}

type fence struct {
	char   byte
	length int
	info   string
}

// openingFence recognises ``` and ~~~ fences indented by at most three
// spaces.
func openingFence(line string) (fence, bool) {
	indent := 0
	for indent < len(line) && line[indent] == ' ' {
		indent++
	}
	if indent > 3 || indent >= len(line) {
		return fence{}, false
	}
	rest := line[indent:]
	char := rest[0]
	if char != '`' && char != '~' {
		return fence{}, false
	}
	n := 0
	for n < len(rest) && rest[n] == char {
		n++
	}
	if n < 3 {
		return fence{}, false
	}
	info := strings.TrimSpace(rest[n:])
	if char == '`' && strings.Contains(info, "`") {
		return fence{}, false
	}
	return fence{char: char, length: n, info: info}, true
}

func (f fence) closedBy(line string) bool {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == f.char {
		n++
	}
	return n >= f.length && strings.TrimSpace(trimmed[n:]) == ""
}

// blockKindForInfo maps a fence info string to a lesson block kind.
func blockKindForInfo(info string) BlockKind {
	fields := strings.Fields(info)
	if len(fields) == 0 {
		return ""
	}
	switch strings.ToLower(fields[0]) {
	case "mustknow", "must-know":
		return KindMustKnow
	case "mcq":
		return KindMCQ
	case "ds", "datasufficiency", "data-sufficiency":
		return KindDataSufficiency
	}
	return ""
}

func parseBlocks(body string, firstLine int) ([]Block, error) {
	lines := strings.Split(body, "\n")
	var (
		blocks []Block
		prose  []string
	)

	flush := func() {
		text := strings.TrimSpace(strings.Join(prose, "\n"))
		if text != "" {
			blocks = append(blocks, Prose{Markdown: text})
		}
		prose = prose[:0]
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		f, ok := openingFence(line)
		if !ok {
			prose = append(prose, line)
			continue
		}

		end := -1
		for j := i + 1; j < len(lines); j++ {
			if f.closedBy(lines[j]) {
				end = j
				break
			}
		}

		kind := blockKindForInfo(f.info)
		if kind == "" {
			// ordinary code fence stays part of the prose
			if end < 0 {
				prose = append(prose, lines[i:]...)
				break
			}
			prose = append(prose, lines[i:end+1]...)
			i = end
			continue
		}

		if end < 0 {
			return nil, &ParseError{Line: firstLine + i, Err: fmt.Errorf("%s block is not closed", kind)}
		}

		flush()
		inner := strings.Join(lines[i+1:end], "\n")
		block, err := decodeBlock(kind, inner)
		if err != nil {
			return nil, &ParseError{Line: firstLine + i, Err: err}
		}
		blocks = append(blocks, block)
		i = end
	}
	flush()

	return blocks, nil
}

func decodeBlock(kind BlockKind, inner string) (Block, error) {
	switch kind {
	case KindMustKnow:
		return MustKnow{Markdown: strings.TrimSpace(inner)}, nil
	case KindMCQ:
		var q MCQ
		if err := decodeStrict(inner, &q); err != nil {
			return nil, fmt.Errorf("mcq block: %w", err)
		}
		q.Solution = strings.TrimSpace(q.Solution)
		return q, nil
	case KindDataSufficiency:
		var q DataSufficiency
		if err := decodeStrict(inner, &q); err != nil {
			return nil, fmt.Errorf("ds block: %w", err)
		}
		q.Solution = strings.TrimSpace(q.Solution)
		q.Correct = strings.ToUpper(strings.TrimSpace(q.Correct))
		return q, nil
	}
	return nil, fmt.Errorf("unknown block kind %q", kind)
}

func decodeStrict(src string, dst any) error {
	decoder := yaml.NewDecoder(strings.NewReader(src))
	decoder.KnownFields(true)
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("block is empty")
		}
		return err
	}
	return nil
}
