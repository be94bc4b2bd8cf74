package exam

import "github.com/mind-engage/mindengage-extract/internal/extract"

type Exam struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	SourceKey string             `json:"source_key,omitempty"` // blob key of the raw pages
	Questions []extract.Question `json:"questions"`
	Revision  int64              `json:"revision"`

	CreatedAt int64 `json:"created_at,omitempty"`
	UpdatedAt int64 `json:"updated_at,omitempty"`
}

// Clone returns a deep copy, so callers can edit questions without
// touching the stored value.
func (e Exam) Clone() Exam {
	c := e
	c.Questions = make([]extract.Question, len(e.Questions))
	for i, q := range e.Questions {
		c.Questions[i] = q.Clone()
	}
	return c
}

// Summary is the list view of an exam.
func (e Exam) Summary() ExamSummary {
	s := ExamSummary{
		ID:        e.ID,
		Title:     e.Title,
		Questions: len(e.Questions),
		Revision:  e.Revision,
		CreatedAt: e.CreatedAt,
	}
	for _, q := range e.Questions {
		if !q.UnderlineDetected {
			s.Unmarked++
		}
	}
	return s
}

type ExamSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Questions int    `json:"questions"`
	Unmarked  int    `json:"unmarked"` // answers defaulted, need review
	Revision  int64  `json:"revision"`
	CreatedAt int64  `json:"created_at"`
}
