package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gmatprep/internal/content"
	"github.com/gmatprep/internal/metrics"
	"github.com/gmatprep/internal/service"
)

// ContentStore is the live lesson catalog; content.Store implements it.
type ContentStore interface {
	service.CatalogSource
	Loaded() bool
	Reload(ctx context.Context) (*content.Catalog, error)
}

// Dependencies 是构造 API 所需的外部组件。
type Dependencies struct {
	DB       *gorm.DB
	Content  ContentStore
	Renderer service.LessonRenderer
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	// SiteBaseURL 用于生成 canonical 链接，可为空。
	SiteBaseURL string
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	content   ContentStore
	lessons   *service.LessonService
	renderer  service.LessonRenderer
	progress  *service.ProgressService
	answers   *service.AnswerService
	analytics analyticsProvider
	search    *service.SearchService
	system    *service.SystemSettingService
	auth      *service.AuthService
	metrics   *metrics.Metrics
	logger    *zap.Logger
	baseURL   string
	now       func() time.Time
}

type siteViewModel struct {
	Name    string
	Tagline string
	Footer  string
}

const siteSettingsContextKey = "__site_settings"

// NewAPI constructs a handler set with shared services.
func NewAPI(deps Dependencies) *API {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &API{
		db:        deps.DB,
		content:   deps.Content,
		lessons:   service.NewLessonService(deps.Content),
		renderer:  deps.Renderer,
		progress:  service.NewProgressService(deps.DB),
		answers:   service.NewAnswerService(deps.DB),
		analytics: service.NewAnalyticsService(deps.DB),
		search:    service.NewSearchService(deps.Content, deps.Renderer),
		system:    service.NewSystemSettingService(deps.DB),
		auth:      service.NewAuthService(deps.DB),
		metrics:   deps.Metrics,
		logger:    logger.Named("http"),
		baseURL:   strings.TrimRight(deps.SiteBaseURL, "/"),
		now:       time.Now,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

func (a *API) siteSettings(c *gin.Context) siteViewModel {
	if cached, exists := c.Get(siteSettingsContextKey); exists {
		if view, ok := cached.(siteViewModel); ok {
			return view
		}
	}

	settings, err := a.system.GetSettings()
	if err != nil {
		c.Error(err)
	}

	view := siteViewModel{
		Name:    strings.TrimSpace(settings.SiteName),
		Tagline: strings.TrimSpace(settings.Tagline),
		Footer:  strings.TrimSpace(settings.FooterText),
	}
	if view.Name == "" {
		view.Name = "GMAT Prep"
	}

	c.Set(siteSettingsContextKey, view)
	return view
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	view := a.siteSettings(c)

	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["site"]; !exists {
		payload["site"] = gin.H{
			"name":    view.Name,
			"tagline": view.Tagline,
			"footer":  view.Footer,
		}
	}
	if _, exists := payload["siteName"]; !exists {
		payload["siteName"] = view.Name
	}
	if _, exists := payload["title"]; !exists {
		payload["title"] = view.Name
	}
	if _, exists := payload["description"]; !exists {
		payload["description"] = view.Tagline
	}
	if _, exists := payload["year"]; !exists {
		payload["year"] = a.now().Year()
	}

	c.HTML(status, template, payload)
}

// canonicalURL prefixes path with the configured site base URL.
func (a *API) canonicalURL(path string) string {
	if a.baseURL == "" {
		return ""
	}
	return a.baseURL + path
}
