package handler

import (
	"time"

	"github.com/gmatprep/internal/db"
	"github.com/gmatprep/internal/service"
)

type analyticsProvider interface {
	Overview(limit int) (service.SiteOverview, error)
	HourlyTrend(now time.Time, hours int) ([]service.HourlyPoint, error)
	LessonStatsMap(keys []string) (map[string]db.LessonStatistic, error)
	RecordLessonView(lessonKey, visitorID string, now time.Time) (*db.LessonStatistic, error)
}
