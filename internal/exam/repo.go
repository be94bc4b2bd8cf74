package exam

import (
	"context"
	"errors"

	"github.com/mind-engage/mindengage-extract/internal/extract"
)

var (
	ErrNotFound      = errors.New("exam not found")
	ErrConflict      = errors.New("exam revision conflict")
	ErrIndex         = errors.New("question index out of range")
	ErrNoQuestions   = errors.New("no questions extracted")
	ErrTitleRequired = errors.New("title required")
)

type ListOpts struct {
	Q      string
	Limit  int
	Offset int
}

// Store persists exams. Revision-taking methods reject a stale revision with
// ErrConflict; a zero revision skips the check. Every change bumps Revision.
type Store interface {
	PutExam(ctx context.Context, e Exam) (Exam, error)
	GetExam(ctx context.Context, id string) (Exam, error)
	ListExams(ctx context.Context, opts ListOpts) ([]ExamSummary, error)
	ReplaceQuestions(ctx context.Context, id string, qs []extract.Question, revision int64) (Exam, error)
	ReviseQuestion(ctx context.Context, id string, index int, revision int64, edit func(*extract.Question)) (Exam, error)
	DeleteQuestion(ctx context.Context, id string, index int, revision int64) (Exam, error)
	DeleteExam(ctx context.Context, id string) error
}

// reviseAt applies edit to a copy of question index and returns the new
// question list. qs is left untouched.
func reviseAt(qs []extract.Question, index int, edit func(*extract.Question)) ([]extract.Question, error) {
	if index < 0 || index >= len(qs) {
		return nil, ErrIndex
	}
	rev, err := qs[index].Revise(edit)
	if err != nil {
		return nil, err
	}
	out := cloneQuestions(qs)
	out[index] = rev
	return out, nil
}

func deleteAt(qs []extract.Question, index int) ([]extract.Question, error) {
	if index < 0 || index >= len(qs) {
		return nil, ErrIndex
	}
	out := make([]extract.Question, 0, len(qs)-1)
	for i, q := range qs {
		if i != index {
			out = append(out, q.Clone())
		}
	}
	return out, nil
}

func cloneQuestions(qs []extract.Question) []extract.Question {
	out := make([]extract.Question, len(qs))
	for i, q := range qs {
		out[i] = q.Clone()
	}
	return out
}

func validateAll(qs []extract.Question) error {
	for _, q := range qs {
		if err := q.Validate(); err != nil {
			return err
		}
	}
	return nil
}
