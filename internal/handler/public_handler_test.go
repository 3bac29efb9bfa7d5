package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gmatprep/internal/content"
	"github.com/gmatprep/internal/db"
	"github.com/gmatprep/internal/render"
	"github.com/gmatprep/internal/service"
)

func TestShowLessonRendersAndRecordsView(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/chapters/statistics/median", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if env.html.last.name != "lesson.html" {
		t.Fatalf("expected lesson.html, got %s", env.html.last.name)
	}

	data := env.html.data(t)
	if data["title"] != "Median with Unknown Values | Statistics" {
		t.Fatalf("unexpected head title %v", data["title"])
	}
	if data["description"] != "Bounding the median of a set." {
		t.Fatalf("unexpected description %v", data["description"])
	}
	if data["canonical"] != "https://prep.example.com/chapters/statistics/median" {
		t.Fatalf("unexpected canonical %v", data["canonical"])
	}
	view, ok := data["view"].(*render.LessonView)
	if !ok || len(view.Blocks) != 5 {
		t.Fatalf("expected rendered lesson with 5 blocks, got %#v", data["view"])
	}
	if prev, _ := data["prev"].(*content.Lesson); prev == nil || prev.Slug != "mean" {
		t.Fatalf("expected previous lesson mean, got %v", data["prev"])
	}
	if data["pageViews"] != uint64(1) {
		t.Fatalf("expected first page view, got %v", data["pageViews"])
	}

	var cookieSet bool
	for _, c := range w.Result().Cookies() {
		if c.Name == visitorCookieName && c.Value != "" && c.HttpOnly {
			cookieSet = true
		}
	}
	if !cookieSet {
		t.Fatal("expected visitor cookie to be issued")
	}

	var stats db.LessonStatistic
	if err := env.db.Where("lesson_key = ?", "statistics/median").First(&stats).Error; err != nil {
		t.Fatalf("expected lesson statistic row: %v", err)
	}
	if stats.PageViews != 1 || stats.UniqueVisitors != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestShowLessonReusesVisitorCookie(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodGet, "/chapters/statistics/median", nil, visitorCookie())
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		for _, c := range w.Result().Cookies() {
			if c.Name == visitorCookieName {
				t.Fatal("visitor cookie should not be reissued")
			}
		}
	}

	var stats db.LessonStatistic
	env.db.Where("lesson_key = ?", "statistics/median").First(&stats)
	if stats.PageViews != 2 || stats.UniqueVisitors != 1 {
		t.Fatalf("expected 2 views by 1 visitor, got %+v", stats)
	}
}

func TestShowLessonUnknownReturnsNotFound(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/chapters/statistics/mode", "/chapters/algebra/median"} {
		w := env.do(t, http.MethodGet, path, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, w.Code)
		}
		if env.html.last.name != "error.html" {
			t.Fatalf("%s: expected error.html, got %s", path, env.html.last.name)
		}
	}
}

func TestRedirectLegacyLesson(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/lesson/2455", nil)
	if w.Code != http.StatusMovedPermanently {
		t.Fatalf("expected 301, got %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/chapters/statistics/median" {
		t.Fatalf("unexpected redirect target %q", got)
	}

	for _, path := range []string{"/lesson/9999", "/lesson/abc", "/lesson/-4"} {
		if w := env.do(t, http.MethodGet, path, nil); w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, w.Code)
		}
	}
}

func TestShowChapterOutlineWithProgress(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.api.progress.SetCompleted(testVisitor, "statistics/mean", true); err != nil {
		t.Fatalf("seed progress: %v", err)
	}
	if _, err := env.api.progress.SetBookmarked(testVisitor, "statistics/median", true); err != nil {
		t.Fatalf("seed bookmark: %v", err)
	}

	w := env.do(t, http.MethodGet, "/chapters/statistics", nil, visitorCookie())
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	data := env.html.data(t)
	if data["title"] != "14. Statistics" {
		t.Fatalf("unexpected title %v", data["title"])
	}
	progress := data["progress"].(service.ChapterProgress)
	if progress.Read != 1 || progress.Total != 2 || progress.Percent != 50 {
		t.Fatalf("unexpected chapter progress %+v", progress)
	}

	topics := data["topics"].([]topicView)
	if len(topics) != 1 || topics[0].Lesson.Slug != "mean" {
		t.Fatalf("expected mean as the only topic, got %+v", topics)
	}
	if !topics[0].Completed {
		t.Fatal("expected mean to be marked completed")
	}
	if len(topics[0].Subtopics) != 1 || !topics[0].Subtopics[0].Bookmarked {
		t.Fatalf("expected bookmarked median subtopic, got %+v", topics[0].Subtopics)
	}
}

func TestShowHomeListsChaptersAndBookmarks(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.api.progress.SetBookmarked(testVisitor, "statistics/median", true); err != nil {
		t.Fatalf("seed bookmark: %v", err)
	}

	w := env.do(t, http.MethodGet, "/", nil, visitorCookie())
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	data := env.html.data(t)

	cards := data["chapters"].([]chapterCard)
	if len(cards) != 1 || cards[0].LessonCount != 2 {
		t.Fatalf("unexpected chapter cards %+v", cards)
	}
	bookmarks := data["bookmarks"].([]*content.Lesson)
	if len(bookmarks) != 1 || bookmarks[0].Slug != "median" {
		t.Fatalf("unexpected bookmarks %+v", bookmarks)
	}
	if data["siteName"] != "GMAT Prep" {
		t.Fatalf("expected default site name, got %v", data["siteName"])
	}
}

func TestShowSearch(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/search?q=MEDIAN", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	results := env.html.data(t)["results"].([]service.SearchResult)
	if len(results) != 1 || results[0].Lesson.Slug != "median" {
		t.Fatalf("unexpected results %+v", results)
	}

	env.do(t, http.MethodGet, "/search?q=+", nil)
	if _, has := env.html.data(t)["results"]; has {
		t.Fatal("blank query should not search")
	}
}

func TestNotFoundSplitsAPIAndPages(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/unknown", nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "not found") {
		t.Fatalf("expected JSON 404, got %d %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/no/such/page", nil)
	if w.Code != http.StatusNotFound || env.html.last.name != "error.html" {
		t.Fatalf("expected error page, got %d", w.Code)
	}
}
