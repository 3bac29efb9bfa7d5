package router

import (
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gmatprep/internal/handler"
	"github.com/gmatprep/internal/logging"
	"github.com/gmatprep/internal/metrics"
	"github.com/gmatprep/web"
)

const sessionName = "gmatprep_session"

// Options 配置路由的横切组件。
type Options struct {
	SessionSecret string
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
	// Assets 默认使用内嵌的 web.FS。
	Assets fs.FS
}

// Templates parses the page templates from assets.
func Templates(assets fs.FS) (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
	}).ParseFS(assets, "template/*.html", "template/partials/*.html")
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) (*gin.Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	assets := opts.Assets
	if assets == nil {
		assets = web.FS
	}

	r := gin.New()
	r.Use(logging.GinLogger(logger), gin.Recovery(), opts.Metrics.Middleware())

	// 配置会话中间件
	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	tmpl, err := Templates(assets)
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	// 静态文件服务
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, err
	}
	r.StaticFS("/static", http.FS(static))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	r.GET("/healthz", api.HealthCheck)
	r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))

	// 公开页面
	r.GET("/", api.ShowHome)
	r.GET("/chapters/:chapter", api.ShowChapter)
	r.GET("/chapters/:chapter/:lesson", api.ShowLesson)
	r.GET("/lesson/:id", api.RedirectLegacyLesson)
	r.GET("/search", api.ShowSearch)

	public := r.Group("/api")
	{
		public.POST("/lessons/:chapter/:lesson/answers", api.SubmitAnswer)
		public.PUT("/lessons/:chapter/:lesson/progress", api.UpdateProgress)
		public.POST("/math", api.PreviewMath)
	}

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.GET("/login", api.ShowLoginPage)
		admin.POST("/login", api.Login)
		admin.GET("/logout", api.Logout)

		// 需要认证的后台路由
		auth := admin.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/dashboard", api.ShowDashboard)
			auth.GET("/settings", api.ShowSystemSettings)

			adminAPI := auth.Group("/api")
			{
				adminAPI.GET("/settings", api.GetSystemSettings)
				adminAPI.PUT("/settings", api.UpdateSystemSettings)
				adminAPI.POST("/reload", api.ReloadContent)
			}
		}
	}

	r.NoRoute(api.NotFound)

	return r, nil
}
