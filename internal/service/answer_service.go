package service

import (
	"strings"

	"github.com/gmatprep/internal/content"
	"github.com/gmatprep/internal/db"
	"gorm.io/gorm"
)

const choiceLetters = "ABCDEF"

// Grade is the outcome of one submitted answer.
type Grade struct {
	Question      int    `json:"question"`
	Kind          string `json:"kind"`
	Choice        string `json:"choice"`
	Correct       bool   `json:"correct"`
	CorrectLetter string `json:"correctLetter"`
}

// AnswerAccuracy aggregates every recorded attempt.
type AnswerAccuracy struct {
	Attempts int64
	Correct  int64
	Percent  int
}

// AnswerService 负责判分并记录答题历史。
type AnswerService struct {
	db *gorm.DB
}

// NewAnswerService 构造 AnswerService。
func NewAnswerService(gdb *gorm.DB) *AnswerService {
	return &AnswerService{db: gdb}
}

// Submit grades choice for question number of lesson and records the
// attempt.
func (s *AnswerService) Submit(visitorID string, lesson *content.Lesson, number int, choice string) (Grade, error) {
	block, ok := lesson.Question(number)
	if !ok {
		return Grade{}, ErrQuestionNotFound
	}

	choice = strings.ToUpper(strings.TrimSpace(choice))
	grade := Grade{Question: number, Kind: string(block.Kind()), Choice: choice}

	var letters string
	switch q := block.(type) {
	case content.MCQ:
		letters = choiceLetters[:min(len(q.Options), len(choiceLetters))]
		if idx := q.CorrectIndex(); idx >= 0 && idx < len(letters) {
			grade.CorrectLetter = letters[idx : idx+1]
		}
	case content.DataSufficiency:
		if !q.Gradable() {
			return Grade{}, ErrNotGradable
		}
		letters = "ABCDE"
		grade.CorrectLetter = q.Correct
	}

	if len(choice) != 1 || !strings.Contains(letters, choice) {
		return Grade{}, ErrInvalidChoice
	}
	grade.Correct = choice == grade.CorrectLetter

	attempt := db.AnswerAttempt{
		VisitorID: visitorID,
		LessonKey: lesson.Key(),
		Question:  number,
		Kind:      grade.Kind,
		Choice:    choice,
		Correct:   grade.Correct,
	}
	if err := s.db.Create(&attempt).Error; err != nil {
		return Grade{}, err
	}
	return grade, nil
}

// Accuracy returns the share of correct attempts across the site.
func (s *AnswerService) Accuracy() (AnswerAccuracy, error) {
	var acc AnswerAccuracy
	if err := s.db.Model(&db.AnswerAttempt{}).Count(&acc.Attempts).Error; err != nil {
		return acc, err
	}
	if err := s.db.Model(&db.AnswerAttempt{}).Where("correct = ?", true).Count(&acc.Correct).Error; err != nil {
		return acc, err
	}
	acc.Percent = percent(int(acc.Correct), int(acc.Attempts))
	return acc, nil
}
