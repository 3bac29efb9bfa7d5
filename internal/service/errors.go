package service

import "errors"

var (
	ErrChapterNotFound    = errors.New("chapter not found")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrInvalidChoice      = errors.New("invalid answer choice")
	ErrNotGradable        = errors.New("question has no single answer")
	ErrInvalidVisitor     = errors.New("visitor id is required")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
