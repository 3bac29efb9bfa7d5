package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gmatprep/internal/content"
	"github.com/gmatprep/internal/db"
	"github.com/gmatprep/internal/service"
)

// chapterCard 是首页的章节卡片。
type chapterCard struct {
	Chapter     *content.Chapter
	LessonCount int
	Progress    service.ChapterProgress
}

// lessonLink 是大纲中的一个课时及访客状态。
type lessonLink struct {
	Lesson     *content.Lesson
	Completed  bool
	Bookmarked bool
	PageViews  uint64
}

// topicView 是章节大纲中的一个主题。
type topicView struct {
	lessonLink
	Subtopics []lessonLink
}

// ShowHome renders the chapter list with the visitor's progress.
func (a *API) ShowHome(c *gin.Context) {
	visitorID := a.ensureVisitorID(c)
	catalog := a.lessons.Catalog()

	cards := make([]chapterCard, 0, len(catalog.Chapters))
	for _, chapter := range catalog.Chapters {
		progress, err := a.progress.ChapterProgress(visitorID, chapter)
		if err != nil {
			c.Error(err) // 不中断渲染
		}
		cards = append(cards, chapterCard{
			Chapter:     chapter,
			LessonCount: len(chapter.Lessons),
			Progress:    progress,
		})
	}

	a.renderHTML(c, http.StatusOK, "home.html", gin.H{
		"chapters":  cards,
		"bookmarks": a.bookmarkedLessons(c, visitorID, catalog),
		"canonical": a.canonicalURL("/"),
	})
}

func (a *API) bookmarkedLessons(c *gin.Context, visitorID string, catalog *content.Catalog) []*content.Lesson {
	keys, err := a.progress.Bookmarks(visitorID)
	if err != nil {
		c.Error(err)
		return nil
	}
	lessons := make([]*content.Lesson, 0, len(keys))
	for _, key := range keys {
		chapter, slug, ok := strings.Cut(key, "/")
		if !ok {
			continue
		}
		if lesson, found := catalog.Lesson(chapter, slug); found {
			lessons = append(lessons, lesson)
		}
	}
	return lessons
}

// ShowChapter renders the chapter outline, the "end of chapter" page.
func (a *API) ShowChapter(c *gin.Context) {
	chapter, err := a.lessons.Chapter(c.Param("chapter"))
	if err != nil {
		a.renderNotFound(c)
		return
	}

	visitorID := a.ensureVisitorID(c)
	keys := chapter.Keys()

	states, err := a.progress.ForVisitor(visitorID, keys)
	if err != nil {
		c.Error(err)
	}
	stats, err := a.analytics.LessonStatsMap(keys)
	if err != nil {
		c.Error(err)
	}
	progress, err := a.progress.ChapterProgress(visitorID, chapter)
	if err != nil {
		c.Error(err)
	}

	link := func(lesson *content.Lesson) lessonLink {
		state := states[lesson.Key()]
		return lessonLink{
			Lesson:     lesson,
			Completed:  state.Completed,
			Bookmarked: state.Bookmarked,
			PageViews:  stats[lesson.Key()].PageViews,
		}
	}

	outline := a.lessons.Catalog().Outline(chapter.Slug)
	topics := make([]topicView, 0, len(outline))
	for _, topic := range outline {
		view := topicView{lessonLink: link(topic.Lesson)}
		for _, sub := range topic.Subtopics {
			view.Subtopics = append(view.Subtopics, link(sub))
		}
		topics = append(topics, view)
	}

	a.renderHTML(c, http.StatusOK, "chapter.html", gin.H{
		"title":       chapter.DisplayTitle(),
		"description": chapter.Description,
		"chapter":     chapter,
		"topics":      topics,
		"progress":    progress,
		"canonical":   a.canonicalURL(chapter.URL()),
	})
}

// ShowLesson renders one lesson and records the view.
func (a *API) ShowLesson(c *gin.Context) {
	lesson, err := a.lessons.Lesson(c.Param("chapter"), c.Param("lesson"))
	if err != nil {
		a.renderNotFound(c)
		return
	}

	view, err := a.renderer.Lesson(c.Request.Context(), lesson)
	if err != nil {
		c.Error(err)
		a.renderHTML(c, http.StatusInternalServerError, "error.html", gin.H{
			"title":   "Something went wrong",
			"message": "This lesson could not be rendered. Please try again later.",
		})
		return
	}

	visitorID := a.ensureVisitorID(c)

	var stats db.LessonStatistic
	if a.analytics != nil {
		if recorded, recordErr := a.analytics.RecordLessonView(lesson.Key(), visitorID, a.now().UTC()); recordErr == nil {
			stats = *recorded
		} else {
			c.Error(recordErr) // 不中断渲染，但记录错误
		}
	}
	a.metrics.LessonViewed(lesson.ChapterSlug)

	states, err := a.progress.ForVisitor(visitorID, []string{lesson.Key()})
	if err != nil {
		c.Error(err)
	}

	catalog := a.lessons.Catalog()
	prev, next := catalog.Neighbors(lesson)

	data := gin.H{
		"title":          lesson.HeadTitle(),
		"description":    lesson.Description,
		"lesson":         lesson,
		"view":           view,
		"state":          states[lesson.Key()],
		"prev":           prev,
		"next":           next,
		"pageViews":      stats.PageViews,
		"uniqueVisitors": stats.UniqueVisitors,
		"canonical":      a.canonicalURL(lesson.URL()),
	}
	if chapter, ok := catalog.Chapter(lesson.ChapterSlug); ok {
		data["chapter"] = chapter
		progress, progressErr := a.progress.ChapterProgress(visitorID, chapter)
		if progressErr != nil {
			c.Error(progressErr)
		}
		data["progress"] = progress
	}

	a.renderHTML(c, http.StatusOK, "lesson.html", data)
}

// RedirectLegacyLesson permanently redirects /lesson/:id to the lesson's
// canonical URL.
func (a *API) RedirectLegacyLesson(c *gin.Context) {
	id := parsePositiveInt(c.Param("id"), 0)
	if id == 0 {
		a.renderNotFound(c)
		return
	}

	lesson, err := a.lessons.ByLegacyID(id)
	if err != nil {
		a.renderNotFound(c)
		return
	}
	c.Redirect(http.StatusMovedPermanently, lesson.URL())
}

// ShowSearch matches the query against every lesson.
func (a *API) ShowSearch(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))

	data := gin.H{
		"title": "Search",
		"query": query,
	}
	if query != "" {
		data["title"] = "Search: " + query
		results, err := a.search.Search(c.Request.Context(), query)
		if err != nil {
			c.Error(err)
			data["error"] = "Search is unavailable right now."
			a.renderHTML(c, http.StatusInternalServerError, "search.html", data)
			return
		}
		data["results"] = results
		data["limited"] = len(results) == service.MaxSearchResults
	}

	a.renderHTML(c, http.StatusOK, "search.html", data)
}

// NotFound renders the 404 page for unmatched routes.
func (a *API) NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") || strings.HasPrefix(c.Request.URL.Path, "/admin/api/") {
		respondError(c, http.StatusNotFound, "not found")
		return
	}
	a.renderNotFound(c)
}

func (a *API) renderNotFound(c *gin.Context) {
	a.renderHTML(c, http.StatusNotFound, "error.html", gin.H{
		"title":   "Page not found",
		"message": "We could not find that page. It may have moved.",
	})
}

// lessonFromParams resolves the :chapter/:lesson pair of an API route.
func (a *API) lessonFromParams(c *gin.Context) (*content.Lesson, bool) {
	lesson, err := a.lessons.Lesson(c.Param("chapter"), c.Param("lesson"))
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	return lesson, true
}
