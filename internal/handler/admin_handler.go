package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gmatprep/internal/service"
)

const (
	dashboardTopLessons = 10
	dashboardTrendHours = 7 * 24
)

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "login.html", gin.H{
		"title": "Admin sign in",
	})
}

// Login 处理管理员登录
func (a *API) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	user, err := a.auth.Authenticate(username, password)
	if err != nil {
		status, message := statusForError(err)
		if status == http.StatusInternalServerError {
			c.Error(err)
			message = "Sign in failed, please try again."
		} else {
			message = "Invalid username or password."
		}
		a.renderHTML(c, status, "login.html", gin.H{
			"title":    "Admin sign in",
			"error":    message,
			"username": username,
		})
		return
	}

	// 设置会话
	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Set("username", user.Username)
	if err := session.Save(); err != nil {
		c.Error(err)
		a.renderHTML(c, http.StatusInternalServerError, "login.html", gin.H{
			"title": "Admin sign in",
			"error": "Could not save the session.",
		})
		return
	}

	a.logger.Info("admin signed in", zap.String("username", user.Username))
	c.Redirect(http.StatusFound, "/admin/dashboard")
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		c.Error(err)
	}
	c.Redirect(http.StatusFound, "/admin/login")
}

// topLessonRow 是仪表盘中的热门课时。
type topLessonRow struct {
	service.TopLessonStat
	Title string
	URL   string
}

// ShowDashboard 渲染后台主面板
func (a *API) ShowDashboard(c *gin.Context) {
	session := sessions.Default(c)
	catalog := a.lessons.Catalog()

	overview, err := a.analytics.Overview(dashboardTopLessons)
	if err != nil {
		c.Error(err)
	}
	trend, err := a.analytics.HourlyTrend(a.now(), dashboardTrendHours)
	if err != nil {
		c.Error(err)
	}
	accuracy, err := a.answers.Accuracy()
	if err != nil {
		c.Error(err)
	}

	top := make([]topLessonRow, 0, len(overview.TopLessons))
	for _, stat := range overview.TopLessons {
		row := topLessonRow{TopLessonStat: stat, Title: stat.LessonKey}
		if chapter, slug, ok := strings.Cut(stat.LessonKey, "/"); ok {
			if lesson, found := catalog.Lesson(chapter, slug); found {
				row.Title = lesson.Title
				row.URL = lesson.URL()
			}
		}
		top = append(top, row)
	}

	var peak uint64
	for _, point := range trend {
		peak = max(peak, point.PageViews)
	}

	a.renderHTML(c, http.StatusOK, "dashboard.html", gin.H{
		"title":        "Dashboard",
		"username":     session.Get("username"),
		"chapterCount": len(catalog.Chapters),
		"lessonCount":  catalog.Count(),
		"warnings":     catalog.Warnings,
		"loadedAt":     catalog.LoadedAt,
		"overview":     overview,
		"topLessons":   top,
		"trend":        trend,
		"trendPeak":    peak,
		"accuracy":     accuracy,
	})
}

// AuthRequired 是一个简单的认证中间件。JSON 接口返回 401，页面跳转到登录页。
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if session.Get("user_id") != nil {
			c.Next()
			return
		}
		if strings.HasPrefix(c.Request.URL.Path, "/admin/api/") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Redirect(http.StatusFound, "/admin/login")
		c.Abort()
	}
}
