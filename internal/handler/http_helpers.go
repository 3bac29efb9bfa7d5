package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gmatprep/internal/service"
)

const (
	visitorCookieName   = "gp_visitor_id"
	visitorCookieMaxAge = 365 * 24 * 60 * 60
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// statusForError maps service errors to an HTTP status and a client-safe
// message.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrChapterNotFound):
		return http.StatusNotFound, "chapter not found"
	case errors.Is(err, service.ErrLessonNotFound):
		return http.StatusNotFound, "lesson not found"
	case errors.Is(err, service.ErrQuestionNotFound):
		return http.StatusNotFound, "question not found"
	case errors.Is(err, service.ErrInvalidChoice):
		return http.StatusBadRequest, "choice must be one of the question's answer letters"
	case errors.Is(err, service.ErrNotGradable):
		return http.StatusBadRequest, "this drill has no single correct answer"
	case errors.Is(err, service.ErrInvalidVisitor):
		return http.StatusBadRequest, "visitor id is required"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid username or password"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// respondServiceError writes the JSON error for err; unexpected errors are
// attached to the context for the request logger.
func respondServiceError(c *gin.Context, err error) {
	status, message := statusForError(err)
	if status == http.StatusInternalServerError {
		c.Error(err)
	}
	respondError(c, status, message)
}

func (a *API) ensureVisitorID(c *gin.Context) string {
	if id, err := c.Cookie(visitorCookieName); err == nil {
		if parsed, parseErr := uuid.Parse(strings.TrimSpace(id)); parseErr == nil {
			return parsed.String()
		}
	}

	visitorID := uuid.NewString()
	secure := c.Request.TLS != nil

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     visitorCookieName,
		Value:    visitorID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		MaxAge:   visitorCookieMaxAge,
		Expires:  a.now().Add(365 * 24 * time.Hour),
		SameSite: http.SameSiteLaxMode,
	})

	return visitorID
}

func parsePositiveInt(value string, fallback int) int {
	num, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || num <= 0 {
		return fallback
	}
	return num
}
