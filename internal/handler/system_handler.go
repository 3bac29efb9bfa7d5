package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gmatprep/internal/content"
	"github.com/gmatprep/internal/service"
)

var errNoContentStore = errors.New("content store is not configured")

// HealthCheck 报告数据库与课程内容是否可用。
func (a *API) HealthCheck(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	if a.content == nil || !a.content.Loaded() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "error",
			"database": "up",
			"message":  "content not loaded",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
		"lessons":  a.content.Catalog().Count(),
	})
}

// ShowSystemSettings 渲染系统设置页面。
func (a *API) ShowSystemSettings(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "settings.html", gin.H{
		"title": "Site settings",
	})
}

type systemSettingsRequest struct {
	SiteName   string `json:"siteName"`
	Tagline    string `json:"tagline"`
	FooterText string `json:"footerText"`
}

// GetSystemSettings 返回当前系统设置。
func (a *API) GetSystemSettings(c *gin.Context) {
	settings, err := a.system.GetSettings()
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to load site settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSystemSettings 保存系统设置。
func (a *API) UpdateSystemSettings(c *gin.Context) {
	var payload systemSettingsRequest
	if !bindJSON(c, &payload, "invalid site settings") {
		return
	}

	settings, err := a.system.UpdateSettings(service.SystemSettingsInput{
		SiteName:   payload.SiteName,
		Tagline:    payload.Tagline,
		FooterText: payload.FooterText,
	})
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to save site settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Site settings saved",
		"settings": settings,
	})
}

type problemPayload struct {
	Path     string `json:"path"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

func problemsPayload(problems []content.Problem) []problemPayload {
	out := make([]problemPayload, 0, len(problems))
	for _, p := range problems {
		out = append(out, problemPayload{Path: p.Path, Message: p.Message, Severity: p.Severity.String()})
	}
	return out
}

// ReloadContent 重新加载课程目录。内容校验失败时保留旧目录并返回问题列表。
func (a *API) ReloadContent(c *gin.Context) {
	if a.content == nil {
		c.Error(errNoContentStore)
		respondError(c, http.StatusInternalServerError, errNoContentStore.Error())
		return
	}

	catalog, err := a.content.Reload(c.Request.Context())
	if err != nil {
		var invalid *content.ValidationError
		if errors.As(err, &invalid) {
			a.logger.Warn("content reload rejected", zap.Int("problems", len(invalid.Problems)))
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":    "content has problems, the previous version is still served",
				"problems": problemsPayload(invalid.Problems),
			})
			return
		}
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "content reload failed")
		return
	}

	a.logger.Info("content reloaded", zap.Int("lessons", catalog.Count()))
	c.JSON(http.StatusOK, gin.H{
		"chapters": len(catalog.Chapters),
		"lessons":  catalog.Count(),
		"warnings": problemsPayload(catalog.Warnings),
	})
}
