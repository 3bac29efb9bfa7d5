package db

import "time"

// LessonProgress 记录访客对单个课时的完成与收藏状态。
type LessonProgress struct {
	ID          uint   `gorm:"primaryKey"`
	VisitorID   string `gorm:"size:64;not null;uniqueIndex:idx_progress_visitor_lesson"`
	LessonKey   string `gorm:"size:191;not null;uniqueIndex:idx_progress_visitor_lesson;index"`
	Completed   bool   `gorm:"default:false"`
	Bookmarked  bool   `gorm:"default:false"`
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName 指定自定义表名。
func (LessonProgress) TableName() string {
	return "lesson_progress"
}

// AnswerAttempt 记录一次答题提交及判分结果。
type AnswerAttempt struct {
	ID        uint   `gorm:"primaryKey"`
	VisitorID string `gorm:"size:64;index"`
	LessonKey string `gorm:"size:191;index"`
	Question  int
	Kind      string `gorm:"size:16"`
	Choice    string `gorm:"size:4"`
	Correct   bool
	CreatedAt time.Time
}

// TableName 指定自定义表名。
func (AnswerAttempt) TableName() string {
	return "answer_attempts"
}
