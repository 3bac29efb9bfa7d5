package service

import (
	"context"
	"strings"
	"sync"

	"github.com/gmatprep/internal/content"
)

const (
	// MaxSearchResults caps one search response.
	MaxSearchResults = 50
	snippetRadius    = 80
)

// SearchResult is one matching lesson with a text excerpt.
type SearchResult struct {
	Lesson  *content.Lesson
	Snippet string
}

type searchEntry struct {
	lesson *content.Lesson
	meta   string
	text   string
}

// SearchService matches queries against lesson metadata and body text. The
// index is built lazily and rebuilt whenever the catalog is swapped.
type SearchService struct {
	source   CatalogSource
	renderer LessonRenderer

	mu      sync.Mutex
	indexed *content.Catalog
	entries []searchEntry
}

// NewSearchService 构造 SearchService。
func NewSearchService(source CatalogSource, renderer LessonRenderer) *SearchService {
	return &SearchService{source: source, renderer: renderer}
}

func (s *SearchService) index(ctx context.Context) ([]searchEntry, error) {
	catalog := s.source.Catalog()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexed == catalog {
		return s.entries, nil
	}

	entries := make([]searchEntry, 0, catalog.Count())
	for _, lesson := range catalog.Lessons() {
		view, err := s.renderer.Lesson(ctx, lesson)
		if err != nil {
			return nil, err
		}
		entries = append(entries, searchEntry{
			lesson: lesson,
			meta:   strings.ToLower(strings.Join([]string{lesson.Title, lesson.Heading, lesson.Description, lesson.Section}, " ")),
			text:   view.PlainText,
		})
	}
	s.indexed = catalog
	s.entries = entries
	return entries, nil
}

// Search returns lessons whose title, heading, description or text contain
// query, case-insensitively. Metadata matches rank before body matches.
func (s *SearchService) Search(ctx context.Context, query string) ([]SearchResult, error) {
	needle := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if needle == "" {
		return nil, nil
	}

	entries, err := s.index(ctx)
	if err != nil {
		return nil, err
	}

	var metaHits, textHits []SearchResult
	for _, entry := range entries {
		lowerText := strings.ToLower(entry.text)
		switch {
		case strings.Contains(entry.meta, needle):
			metaHits = append(metaHits, SearchResult{Lesson: entry.lesson, Snippet: snippet(entry.text, lowerText, needle)})
		case strings.Contains(lowerText, needle):
			textHits = append(textHits, SearchResult{Lesson: entry.lesson, Snippet: snippet(entry.text, lowerText, needle)})
		}
	}

	results := append(metaHits, textHits...)
	if len(results) > MaxSearchResults {
		results = results[:MaxSearchResults]
	}
	return results, nil
}

// snippet cuts text around the first match. lower must be
// strings.ToLower(text) with identical byte offsets, which holds for the
// ASCII and most Latin text lessons are written in; otherwise the excerpt
// starts at the beginning.
func snippet(text, lower, needle string) string {
	idx := strings.Index(lower, needle)
	if idx < 0 || len(lower) != len(text) {
		idx = 0
	}
	start := max(idx-snippetRadius, 0)
	end := min(idx+len(needle)+snippetRadius, len(text))
	for start > 0 && !isRuneStart(text[start]) {
		start--
	}
	for end < len(text) && !isRuneStart(text[end]) {
		end++
	}

	out := strings.TrimSpace(text[start:end])
	if start > 0 {
		out = "…" + out
	}
	if end < len(text) {
		out += "…"
	}
	return out
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
