package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gmatprep/internal/db"
	"github.com/gmatprep/internal/mathtex"
)

type answerRequest struct {
	Question int    `json:"question" binding:"required"`
	Choice   string `json:"choice" binding:"required"`
}

// SubmitAnswer grades one MCQ or data-sufficiency answer.
func (a *API) SubmitAnswer(c *gin.Context) {
	lesson, ok := a.lessonFromParams(c)
	if !ok {
		return
	}

	var payload answerRequest
	if !bindJSON(c, &payload, "question and choice are required") {
		return
	}

	visitorID := a.ensureVisitorID(c)
	grade, err := a.answers.Submit(visitorID, lesson, payload.Question, payload.Choice)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	a.metrics.AnswerGraded(grade.Kind, grade.Correct)

	c.JSON(http.StatusOK, grade)
}

type progressRequest struct {
	Completed  *bool `json:"completed"`
	Bookmarked *bool `json:"bookmarked"`
}

// UpdateProgress sets the completed and/or bookmarked flag of a lesson.
func (a *API) UpdateProgress(c *gin.Context) {
	lesson, ok := a.lessonFromParams(c)
	if !ok {
		return
	}

	var payload progressRequest
	if !bindJSON(c, &payload, "invalid progress payload") {
		return
	}
	if payload.Completed == nil && payload.Bookmarked == nil {
		respondError(c, http.StatusBadRequest, "completed or bookmarked is required")
		return
	}

	visitorID := a.ensureVisitorID(c)

	var (
		row db.LessonProgress
		err error
	)
	if payload.Completed != nil {
		if row, err = a.progress.SetCompleted(visitorID, lesson.Key(), *payload.Completed); err != nil {
			respondServiceError(c, err)
			return
		}
	}
	if payload.Bookmarked != nil {
		if row, err = a.progress.SetBookmarked(visitorID, lesson.Key(), *payload.Bookmarked); err != nil {
			respondServiceError(c, err)
			return
		}
	}

	response := gin.H{
		"lesson":     lesson.Key(),
		"completed":  row.Completed,
		"bookmarked": row.Bookmarked,
	}
	if chapter, found := a.lessons.Catalog().Chapter(lesson.ChapterSlug); found {
		progress, progressErr := a.progress.ChapterProgress(visitorID, chapter)
		if progressErr != nil {
			c.Error(progressErr)
		} else {
			response["chapterProgress"] = gin.H{
				"read":    progress.Read,
				"total":   progress.Total,
				"percent": progress.Percent,
			}
		}
	}

	c.JSON(http.StatusOK, response)
}

type mathPreviewRequest struct {
	Expr    string `json:"expr"`
	Display bool   `json:"display"`
}

// PreviewMath renders one expression the way lesson pages do. Malformed
// input still returns markup, with ok=false and the reason.
func (a *API) PreviewMath(c *gin.Context) {
	var payload mathPreviewRequest
	if !bindJSON(c, &payload, "expr is required") {
		return
	}

	mode := mathtex.Inline
	if payload.Display {
		mode = mathtex.Display
	}

	response := gin.H{
		"html": string(mathtex.Render(payload.Expr, mode)),
		"ok":   true,
	}
	if err := mathtex.Check(strings.TrimSpace(payload.Expr)); err != nil {
		response["ok"] = false
		response["error"] = err.Error()
	}
	c.JSON(http.StatusOK, response)
}
