package extract

import (
	"encoding/json"
	"errors"
	"fmt"
)

// OptionCount is the fixed number of answer slots of a multiple-choice item.
const OptionCount = 4

var ErrInvalidQuestion = errors.New("invalid question")

type QuestionType string

const (
	MultipleChoice QuestionType = "opcion_multiple"
	TrueFalse      QuestionType = "V/F"
)

// Question is a finalized item. Type selects the variant: MultipleChoice
// carries exactly OptionCount options, TrueFalse carries none and uses
// CorrectIndex 0 for true and 1 for false.
type Question struct {
	Statement         string
	Options           []string
	CorrectIndex      int
	Type              QuestionType
	HasNumber         bool
	UnderlineDetected bool
}

func NewMultipleChoice(statement string, options [OptionCount]string, correct int) (Question, error) {
	q := Question{
		Statement:    NormalizeSpace(statement),
		Options:      make([]string, OptionCount),
		CorrectIndex: correct,
		Type:         MultipleChoice,
	}
	for i, o := range options {
		q.Options[i] = NormalizeSpace(o)
	}
	return q, q.Validate()
}

func NewTrueFalse(statement string, correct bool) (Question, error) {
	q := Question{Statement: NormalizeSpace(statement), Options: []string{}, Type: TrueFalse}
	if !correct {
		q.CorrectIndex = 1
	}
	return q, q.Validate()
}

// Validate checks the variant invariants.
func (q Question) Validate() error {
	switch q.Type {
	case MultipleChoice:
		if len(q.Options) != OptionCount {
			return fmt.Errorf("%w: multiple choice needs %d options, got %d", ErrInvalidQuestion, OptionCount, len(q.Options))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= OptionCount {
			return fmt.Errorf("%w: correct index %d out of range", ErrInvalidQuestion, q.CorrectIndex)
		}
	case TrueFalse:
		if len(q.Options) != 0 {
			return fmt.Errorf("%w: true/false must not carry options", ErrInvalidQuestion)
		}
		if q.CorrectIndex != 0 && q.CorrectIndex != 1 {
			return fmt.Errorf("%w: true/false index must be 0 or 1, got %d", ErrInvalidQuestion, q.CorrectIndex)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidQuestion, q.Type)
	}
	return nil
}

// Clone returns a copy that shares no memory with q.
func (q Question) Clone() Question {
	c := q
	c.Options = make([]string, len(q.Options))
	copy(c.Options, q.Options)
	return c
}

// Revise applies edit to a copy of q and returns the copy if it is still valid.
// q itself is never modified.
func (q Question) Revise(edit func(*Question)) (Question, error) {
	c := q.Clone()
	edit(&c)
	c.Statement = NormalizeSpace(c.Statement)
	for i := range c.Options {
		c.Options[i] = NormalizeSpace(c.Options[i])
	}
	if err := c.Validate(); err != nil {
		return Question{}, err
	}
	return c, nil
}

// AnswerLabel is the human label of the correct answer: A-D or V/F.
func (q Question) AnswerLabel() string {
	if q.Type == TrueFalse {
		if q.CorrectIndex == 1 {
			return "F"
		}
		return "V"
	}
	return string(rune('A' + q.CorrectIndex))
}

type wireQuestion struct {
	Statement string       `json:"pregunta"`
	Options   []string     `json:"opciones"`
	Correct   int          `json:"correcta"`
	Type      QuestionType `json:"tipo"`
	HasNumber *bool        `json:"numerada,omitempty"`
	Marked    *bool        `json:"subrayado_detectado,omitempty"`
}

func (q Question) MarshalJSON() ([]byte, error) {
	opts := q.Options
	if opts == nil {
		opts = []string{}
	}
	hasNumber, marked := q.HasNumber, q.UnderlineDetected
	return json.Marshal(wireQuestion{
		Statement: q.Statement,
		Options:   opts,
		Correct:   q.CorrectIndex,
		Type:      q.Type,
		HasNumber: &hasNumber,
		Marked:    &marked,
	})
}

func (q *Question) UnmarshalJSON(b []byte) error {
	var w wireQuestion
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	out := Question{
		Statement:    NormalizeSpace(w.Statement),
		Options:      make([]string, 0, len(w.Options)),
		CorrectIndex: w.Correct,
		Type:         w.Type,
	}
	if out.Type == "" {
		out.Type = TrueFalse
		if len(w.Options) > 0 {
			out.Type = MultipleChoice
		}
	}
	for _, o := range w.Options {
		out.Options = append(out.Options, NormalizeSpace(o))
	}
	if w.HasNumber != nil {
		out.HasNumber = *w.HasNumber
	}
	if w.Marked != nil {
		out.UnderlineDetected = *w.Marked
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*q = out
	return nil
}
