package practice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-extract/internal/exam"
	"github.com/mind-engage/mindengage-extract/internal/extract"
)

var (
	ErrNotFound    = errors.New("practice session not found")
	ErrNoSelection = errors.New("no answer selected")
	ErrEmptyExam   = errors.New("exam has no questions")
	ErrConflict    = errors.New("practice session changed concurrently")
)

// Answer is the learner's state for one question.
type Answer struct {
	Choice   int  `json:"choice"`
	Verified bool `json:"verified"`
	Correct  bool `json:"correct"`
}

type Session struct {
	ID        string         `json:"id"`
	ExamID    string         `json:"exam_id"`
	UserID    string         `json:"user_id"`
	Current   int            `json:"current"`
	Answers   map[int]Answer `json:"answers"`
	Revision  int64          `json:"revision"`
	StartedAt int64          `json:"started_at"`
	UpdatedAt int64          `json:"updated_at"`
}

type Summary struct {
	Total      int     `json:"total"`
	Answered   int     `json:"answered"`
	Verified   int     `json:"verified"`
	Correct    int     `json:"correct"`
	Percentage float64 `json:"percentage"` // correct over verified
	Finished   bool    `json:"finished"`   // current question is the last one
}

// Store persists sessions. Save writes only when the stored revision equals
// s.Revision and bumps it; otherwise it returns ErrConflict.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session) error
}

// Service runs practice sessions over stored exams.
type Service struct {
	exams    exam.Store
	sessions Store
	grader   Grader
	events   exam.EventLog
}

func NewService(exams exam.Store, sessions Store, events exam.EventLog) *Service {
	return &Service{exams: exams, sessions: sessions, grader: NewDefaultGrader(), events: events}
}

func (s *Service) Start(ctx context.Context, examID, userID string) (Session, error) {
	e, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		return Session{}, err
	}
	if len(e.Questions) == 0 {
		return Session{}, ErrEmptyExam
	}
	now := time.Now().Unix()
	sess := Session{
		ID:        uuid.NewString(),
		ExamID:    examID,
		UserID:    userID,
		Answers:   map[int]Answer{},
		Revision:  1,
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	return s.sessions.Get(ctx, id)
}

// Select records a choice without revealing whether it is right. Changing
// the choice clears an earlier verification.
func (s *Service) Select(ctx context.Context, id string, index, choice int) (Session, error) {
	sess, e, err := s.load(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if index < 0 || index >= len(e.Questions) {
		return Session{}, exam.ErrIndex
	}
	if _, err := s.grader.Check(e.Questions[index], choice); err != nil {
		return Session{}, err
	}
	prev, had := sess.Answers[index]
	if !had || prev.Choice != choice {
		sess.Answers[index] = Answer{Choice: choice}
	}
	sess.Current = index
	if err := s.save(ctx, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Verify checks the selected answer of question index.
func (s *Service) Verify(ctx context.Context, id string, index int) (Result, error) {
	sess, e, err := s.load(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if index < 0 || index >= len(e.Questions) {
		return Result{}, exam.ErrIndex
	}
	a, ok := sess.Answers[index]
	if !ok {
		return Result{}, ErrNoSelection
	}
	res, err := s.grader.Check(e.Questions[index], a.Choice)
	if err != nil {
		return Result{}, err
	}
	a.Verified, a.Correct = true, res.Correct
	sess.Answers[index] = a
	if err := s.save(ctx, &sess); err != nil {
		return Result{}, err
	}
	if s.events != nil {
		_ = s.events.Append(ctx, practiceEvent(sess, index, res))
	}
	return res, nil
}

// Answer selects and verifies in one step.
func (s *Service) Answer(ctx context.Context, id string, index, choice int) (Result, error) {
	if _, err := s.Select(ctx, id, index, choice); err != nil {
		return Result{}, err
	}
	return s.Verify(ctx, id, index)
}

func (s *Service) Navigate(ctx context.Context, id string, index int) (Session, error) {
	sess, e, err := s.load(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if index < 0 || index >= len(e.Questions) {
		return Session{}, exam.ErrIndex
	}
	sess.Current = index
	if err := s.save(ctx, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Question returns question index of the session's exam.
func (s *Service) Question(ctx context.Context, id string, index int) (extract.Question, error) {
	_, e, err := s.load(ctx, id)
	if err != nil {
		return extract.Question{}, err
	}
	if index < 0 || index >= len(e.Questions) {
		return extract.Question{}, exam.ErrIndex
	}
	return e.Questions[index], nil
}

func (s *Service) Summary(ctx context.Context, id string) (Summary, error) {
	sess, e, err := s.load(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Total: len(e.Questions), Finished: sess.Current == len(e.Questions)-1}
	for i, a := range sess.Answers {
		if i >= len(e.Questions) {
			continue
		}
		sum.Answered++
		if a.Verified {
			sum.Verified++
			if a.Correct {
				sum.Correct++
			}
		}
	}
	if sum.Verified > 0 {
		sum.Percentage = float64(sum.Correct) / float64(sum.Verified) * 100
	}
	return sum, nil
}

func (s *Service) load(ctx context.Context, id string) (Session, exam.Exam, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return Session{}, exam.Exam{}, err
	}
	e, err := s.exams.GetExam(ctx, sess.ExamID)
	if err != nil {
		return Session{}, exam.Exam{}, err
	}
	if sess.Answers == nil {
		sess.Answers = map[int]Answer{}
	}
	return sess, e, nil
}

func (s *Service) save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now().Unix()
	if err := s.sessions.Save(ctx, *sess); err != nil {
		return err
	}
	sess.Revision++
	return nil
}
