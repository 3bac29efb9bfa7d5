package service

import (
	"errors"
	"time"

	"github.com/gmatprep/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnalyticsService 负责处理课时浏览相关的统计逻辑。
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService 创建 AnalyticsService。
func NewAnalyticsService(gdb *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: gdb}
}

// RecordLessonView 记录访客对课时的浏览，并返回最新的统计数据。
// 每次浏览计入 PV；同一访客只计一次 UV。
func (s *AnalyticsService) RecordLessonView(lessonKey, visitorID string, now time.Time) (*db.LessonStatistic, error) {
	if visitorID == "" || lessonKey == "" {
		return nil, errors.New("invalid visitor or lesson key")
	}

	var stats db.LessonStatistic

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		visit := db.LessonVisit{
			LessonKey:    lessonKey,
			VisitorID:    visitorID,
			ViewCount:    1,
			LastViewedAt: now,
		}
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lesson_key"}, {Name: "visitor_id"}},
			DoNothing: true,
		}).Create(&visit)
		if insert.Error != nil {
			return insert.Error
		}

		isNewVisitor := insert.RowsAffected == 1
		if !isNewVisitor {
			if err := tx.Model(&db.LessonVisit{}).
				Where("lesson_key = ? AND visitor_id = ?", lessonKey, visitorID).
				Updates(map[string]interface{}{
					"view_count":     gorm.Expr("view_count + 1"),
					"last_viewed_at": now,
				}).Error; err != nil {
				return err
			}
		}

		statsResult := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("lesson_key = ?", lessonKey).
			First(&stats)

		switch {
		case errors.Is(statsResult.Error, gorm.ErrRecordNotFound):
			stats = db.LessonStatistic{LessonKey: lessonKey}
			if err := tx.Create(&stats).Error; err != nil {
				return err
			}
		case statsResult.Error != nil:
			return statsResult.Error
		}

		stats.PageViews++
		if isNewVisitor {
			stats.UniqueVisitors++
		}
		stats.LastViewedAt = now

		if err := tx.Save(&stats).Error; err != nil {
			return err
		}

		return recordHourlyTraffic(tx, visitorID, now)
	}); err != nil {
		return nil, err
	}

	return &stats, nil
}

// recordHourlyTraffic 累加当前小时的站点 PV/UV。
func recordHourlyTraffic(tx *gorm.DB, visitorID string, now time.Time) error {
	hour := now.UTC().Truncate(time.Hour)

	insert := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hour"}, {Name: "visitor_id"}},
		DoNothing: true,
	}).Create(&db.HourlyVisitor{Hour: hour, VisitorID: visitorID})
	if insert.Error != nil {
		return insert.Error
	}

	updates := map[string]interface{}{
		"page_views": gorm.Expr("page_views + 1"),
		"updated_at": now,
	}
	uniqueDelta := uint64(0)
	if insert.RowsAffected == 1 {
		uniqueDelta = 1
		updates["unique_visitors"] = gorm.Expr("unique_visitors + 1")
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hour"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(&db.HourlyTraffic{Hour: hour, PageViews: 1, UniqueVisitors: uniqueDelta, UpdatedAt: now}).Error
}

// LessonStatsMap 返回指定课时的统计数据，未被浏览过的课时不会出现在结果中。
func (s *AnalyticsService) LessonStatsMap(keys []string) (map[string]db.LessonStatistic, error) {
	result := make(map[string]db.LessonStatistic, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	var stats []db.LessonStatistic
	if err := s.db.Where("lesson_key IN ?", keys).Find(&stats).Error; err != nil {
		return nil, err
	}
	for _, stat := range stats {
		result[stat.LessonKey] = stat
	}
	return result, nil
}

// TopLessonStat 描述热门课时的统计信息。
type TopLessonStat struct {
	LessonKey      string
	PageViews      uint64
	UniqueVisitors uint64
}

// TopLessons 按 PV 降序返回最多 limit 个课时。
func (s *AnalyticsService) TopLessons(limit int) ([]TopLessonStat, error) {
	if limit <= 0 {
		limit = 5
	}
	var top []TopLessonStat
	err := s.db.Model(&db.LessonStatistic{}).
		Select("lesson_key, page_views, unique_visitors").
		Order("page_views DESC, lesson_key ASC").
		Limit(limit).
		Scan(&top).Error
	return top, err
}

// SiteOverview 聚合站点层面的 UV/PV 数据及热门课时。
type SiteOverview struct {
	TotalPageViews      uint64
	TotalUniqueVisitors uint64
	TopLessons          []TopLessonStat
}

// Overview 汇总全站 UV/PV。
func (s *AnalyticsService) Overview(limit int) (SiteOverview, error) {
	var overview SiteOverview

	var totals struct {
		PageViews uint64
	}
	if err := s.db.Model(&db.LessonStatistic{}).
		Select("COALESCE(SUM(page_views), 0) AS page_views").
		Scan(&totals).Error; err != nil {
		return overview, err
	}
	overview.TotalPageViews = totals.PageViews

	var uniqueVisitors int64
	if err := s.db.Model(&db.LessonVisit{}).Distinct("visitor_id").Count(&uniqueVisitors).Error; err != nil {
		return overview, err
	}
	overview.TotalUniqueVisitors = uint64(uniqueVisitors)

	top, err := s.TopLessons(limit)
	if err != nil {
		return overview, err
	}
	overview.TopLessons = top
	return overview, nil
}

// HourlyPoint 是趋势图中的一个小时。
type HourlyPoint struct {
	Hour           time.Time
	PageViews      uint64
	UniqueVisitors uint64
}

// HourlyTrend 返回截至 now 的最近 hours 个小时，缺失的小时补零。
func (s *AnalyticsService) HourlyTrend(now time.Time, hours int) ([]HourlyPoint, error) {
	if hours <= 0 {
		hours = 24
	}
	end := now.UTC().Truncate(time.Hour)
	start := end.Add(-time.Duration(hours-1) * time.Hour)

	var rows []db.HourlyTraffic
	if err := s.db.Where("hour >= ? AND hour <= ?", start, end).Order("hour").Find(&rows).Error; err != nil {
		return nil, err
	}
	byHour := make(map[int64]db.HourlyTraffic, len(rows))
	for _, row := range rows {
		byHour[row.Hour.UTC().Unix()] = row
	}

	points := make([]HourlyPoint, 0, hours)
	for h := start; !h.After(end); h = h.Add(time.Hour) {
		row := byHour[h.Unix()]
		points = append(points, HourlyPoint{Hour: h, PageViews: row.PageViews, UniqueVisitors: row.UniqueVisitors})
	}
	return points, nil
}
