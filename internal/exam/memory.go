package exam

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-extract/internal/extract"
)

type memoryStore struct {
	mu    sync.RWMutex
	exams map[string]Exam
}

func NewInMemoryStore() Store {
	return &memoryStore{exams: map[string]Exam{}}
}

func (m *memoryStore) PutExam(_ context.Context, e Exam) (Exam, error) {
	if err := validateAll(e.Questions); err != nil {
		return Exam{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().Unix()
	e = e.Clone()
	if prev, ok := m.exams[e.ID]; ok {
		e.CreatedAt = prev.CreatedAt
		e.Revision = prev.Revision + 1
	} else {
		e.CreatedAt = now
		e.Revision = 1
	}
	e.UpdatedAt = now
	m.exams[e.ID] = e
	return e.Clone(), nil
}

func (m *memoryStore) GetExam(_ context.Context, id string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, ErrNotFound
	}
	return e.Clone(), nil
}

func (m *memoryStore) ListExams(_ context.Context, opts ListOpts) ([]ExamSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(opts.Q))
	out := []ExamSummary{}
	for _, e := range m.exams {
		if q != "" && !strings.Contains(strings.ToLower(e.Title), q) {
			continue
		}
		out = append(out, e.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	if opts.Offset >= len(out) {
		return []ExamSummary{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memoryStore) ReplaceQuestions(_ context.Context, id string, qs []extract.Question, revision int64) (Exam, error) {
	if err := validateAll(qs); err != nil {
		return Exam{}, err
	}
	return m.update(id, revision, func([]extract.Question) ([]extract.Question, error) {
		return cloneQuestions(qs), nil
	})
}

func (m *memoryStore) ReviseQuestion(_ context.Context, id string, index int, revision int64, edit func(*extract.Question)) (Exam, error) {
	return m.update(id, revision, func(qs []extract.Question) ([]extract.Question, error) {
		return reviseAt(qs, index, edit)
	})
}

func (m *memoryStore) DeleteQuestion(_ context.Context, id string, index int, revision int64) (Exam, error) {
	return m.update(id, revision, func(qs []extract.Question) ([]extract.Question, error) {
		return deleteAt(qs, index)
	})
}

func (m *memoryStore) DeleteExam(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[id]; !ok {
		return ErrNotFound
	}
	delete(m.exams, id)
	return nil
}

func (m *memoryStore) update(id string, revision int64, fn func([]extract.Question) ([]extract.Question, error)) (Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, ErrNotFound
	}
	if revision != 0 && revision != e.Revision {
		return Exam{}, ErrConflict
	}
	qs, err := fn(e.Questions)
	if err != nil {
		return Exam{}, err
	}
	e.Questions = qs
	e.Revision++
	e.UpdatedAt = time.Now().Unix()
	m.exams[id] = e
	return e.Clone(), nil
}
