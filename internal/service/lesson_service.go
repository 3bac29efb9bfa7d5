package service

import (
	"context"

	"github.com/gmatprep/internal/content"
	"github.com/gmatprep/internal/render"
)

// CatalogSource hands out the current lesson catalog; content.Store
// implements it.
type CatalogSource interface {
	Catalog() *content.Catalog
}

// LessonRenderer renders a lesson body; render.CachedRenderer implements it.
type LessonRenderer interface {
	Lesson(ctx context.Context, lesson *content.Lesson) (*render.LessonView, error)
}

// LessonService resolves chapters and lessons against the live catalog.
type LessonService struct {
	source CatalogSource
}

// NewLessonService 构造 LessonService。
func NewLessonService(source CatalogSource) *LessonService {
	return &LessonService{source: source}
}

// Catalog returns the current snapshot.
func (s *LessonService) Catalog() *content.Catalog {
	return s.source.Catalog()
}

// Chapter returns the chapter with the given slug.
func (s *LessonService) Chapter(slug string) (*content.Chapter, error) {
	chapter, ok := s.source.Catalog().Chapter(slug)
	if !ok {
		return nil, ErrChapterNotFound
	}
	return chapter, nil
}

// Lesson returns a published lesson.
func (s *LessonService) Lesson(chapter, slug string) (*content.Lesson, error) {
	lesson, ok := s.source.Catalog().Lesson(chapter, slug)
	if !ok {
		return nil, ErrLessonNotFound
	}
	return lesson, nil
}

// ByLegacyID resolves an old numeric lesson link.
func (s *LessonService) ByLegacyID(id int) (*content.Lesson, error) {
	lesson, ok := s.source.Catalog().ByLegacyID(id)
	if !ok {
		return nil, ErrLessonNotFound
	}
	return lesson, nil
}
