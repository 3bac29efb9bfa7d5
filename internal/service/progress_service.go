package service

import (
	"math"
	"strings"
	"time"

	"github.com/gmatprep/internal/content"
	"github.com/gmatprep/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressService 维护访客的课时完成与收藏状态。
type ProgressService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewProgressService 构造 ProgressService。
func NewProgressService(gdb *gorm.DB) *ProgressService {
	return &ProgressService{db: gdb, now: time.Now}
}

// ChapterProgress summarises how much of a chapter a visitor has completed.
type ChapterProgress struct {
	Read    int
	Total   int
	Percent int
}

// SetCompleted marks a lesson (not) completed for the visitor.
func (s *ProgressService) SetCompleted(visitorID, lessonKey string, completed bool) (db.LessonProgress, error) {
	row := db.LessonProgress{VisitorID: visitorID, LessonKey: lessonKey, Completed: completed}
	if completed {
		now := s.now().UTC()
		row.CompletedAt = &now
	}
	return s.upsert(row, "completed", "completed_at")
}

// SetBookmarked adds or removes a bookmark.
func (s *ProgressService) SetBookmarked(visitorID, lessonKey string, bookmarked bool) (db.LessonProgress, error) {
	row := db.LessonProgress{VisitorID: visitorID, LessonKey: lessonKey, Bookmarked: bookmarked}
	return s.upsert(row, "bookmarked")
}

func (s *ProgressService) upsert(row db.LessonProgress, columns ...string) (db.LessonProgress, error) {
	if strings.TrimSpace(row.VisitorID) == "" {
		return db.LessonProgress{}, ErrInvalidVisitor
	}
	if strings.TrimSpace(row.LessonKey) == "" {
		return db.LessonProgress{}, ErrLessonNotFound
	}

	assignments := make(map[string]interface{}, len(columns)+1)
	for _, column := range columns {
		switch column {
		case "completed":
			assignments[column] = row.Completed
		case "completed_at":
			assignments[column] = row.CompletedAt
		case "bookmarked":
			assignments[column] = row.Bookmarked
		}
	}
	assignments["updated_at"] = s.now().UTC()

	var saved db.LessonProgress
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "visitor_id"}, {Name: "lesson_key"}},
			DoUpdates: clause.Assignments(assignments),
		}).Create(&row).Error; err != nil {
			return err
		}
		return tx.Where("visitor_id = ? AND lesson_key = ?", row.VisitorID, row.LessonKey).First(&saved).Error
	})
	if err != nil {
		return db.LessonProgress{}, err
	}
	return saved, nil
}

// ForVisitor returns the visitor's progress rows for the given lesson keys,
// keyed by lesson key. Lessons never touched are absent.
func (s *ProgressService) ForVisitor(visitorID string, keys []string) (map[string]db.LessonProgress, error) {
	result := make(map[string]db.LessonProgress, len(keys))
	if visitorID == "" || len(keys) == 0 {
		return result, nil
	}

	var rows []db.LessonProgress
	if err := s.db.Where("visitor_id = ? AND lesson_key IN ?", visitorID, keys).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.LessonKey] = row
	}
	return result, nil
}

// Bookmarks lists the visitor's bookmarked lesson keys, newest first.
func (s *ProgressService) Bookmarks(visitorID string) ([]string, error) {
	var keys []string
	if visitorID == "" {
		return keys, nil
	}
	err := s.db.Model(&db.LessonProgress{}).
		Where("visitor_id = ? AND bookmarked = ?", visitorID, true).
		Order("updated_at DESC").
		Pluck("lesson_key", &keys).Error
	return keys, err
}

// ChapterProgress counts completed lessons of chapter for the visitor.
func (s *ProgressService) ChapterProgress(visitorID string, chapter *content.Chapter) (ChapterProgress, error) {
	progress := ChapterProgress{Total: len(chapter.Lessons)}
	if progress.Total == 0 || visitorID == "" {
		return progress, nil
	}

	var read int64
	if err := s.db.Model(&db.LessonProgress{}).
		Where("visitor_id = ? AND completed = ? AND lesson_key IN ?", visitorID, true, chapter.Keys()).
		Count(&read).Error; err != nil {
		return progress, err
	}
	progress.Read = int(read)
	progress.Percent = percent(progress.Read, progress.Total)
	return progress, nil
}

// percent rounds 100*part/total and clamps it to 0..100.
func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(part) / float64(total)))
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
