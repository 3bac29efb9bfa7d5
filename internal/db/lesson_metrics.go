package db

import "time"

// LessonStatistic 汇总课时维度的浏览数据。
type LessonStatistic struct {
	ID             uint   `gorm:"primaryKey"`
	LessonKey      string `gorm:"size:191;uniqueIndex"`
	PageViews      uint64 `gorm:"default:0"`
	UniqueVisitors uint64 `gorm:"default:0"`
	LastViewedAt   time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName 指定自定义表名，避免自动复数化导致的歧义。
func (LessonStatistic) TableName() string {
	return "lesson_statistics"
}

// LessonVisit 记录访客层面的浏览历史，用于 UV 去重。
type LessonVisit struct {
	ID           uint   `gorm:"primaryKey"`
	LessonKey    string `gorm:"size:191;uniqueIndex:idx_lesson_visitor"`
	VisitorID    string `gorm:"size:64;uniqueIndex:idx_lesson_visitor"`
	ViewCount    uint64 `gorm:"default:0"`
	LastViewedAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName 指定自定义表名。
func (LessonVisit) TableName() string {
	return "lesson_visits"
}

// HourlyTraffic 是全站每小时的 PV/UV 快照，供后台趋势图使用。
type HourlyTraffic struct {
	ID             uint      `gorm:"primaryKey"`
	Hour           time.Time `gorm:"uniqueIndex"`
	PageViews      uint64    `gorm:"default:0"`
	UniqueVisitors uint64    `gorm:"default:0"`
	UpdatedAt      time.Time
}

// TableName 指定自定义表名。
func (HourlyTraffic) TableName() string {
	return "hourly_traffic"
}

// HourlyVisitor 记录每小时出现过的访客，用于小时 UV 去重。
type HourlyVisitor struct {
	ID        uint      `gorm:"primaryKey"`
	Hour      time.Time `gorm:"uniqueIndex:idx_hour_visitor"`
	VisitorID string    `gorm:"size:64;uniqueIndex:idx_hour_visitor"`
}

// TableName 指定自定义表名。
func (HourlyVisitor) TableName() string {
	return "hourly_visitors"
}
