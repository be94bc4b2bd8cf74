package practice

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/mind-engage/mindengage-extract/internal/extract"
)

var (
	ErrOutOfRange = errors.New("choice out of range")
	ErrBadChoice  = errors.New("unrecognized choice")
)

// Result is the outcome of checking one selected answer.
type Result struct {
	Correct      bool   `json:"correct"`
	Selected     int    `json:"selected"`
	CorrectIndex int    `json:"correct_index"`
	CorrectLabel string `json:"correct_label"` // A-D or V/F
	CorrectText  string `json:"correct_text,omitempty"`
}

// Strategy checks a choice against one question type.
type Strategy interface {
	Check(q extract.Question, choice int) (Result, error)
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Check(q extract.Question, choice int) (Result, error)
}

type defaultGrader struct {
	strategies map[extract.QuestionType]Strategy
}

func NewDefaultGrader() Grader {
	return &defaultGrader{
		strategies: map[extract.QuestionType]Strategy{
			extract.MultipleChoice: multipleChoiceStrategy{},
			extract.TrueFalse:      trueFalseStrategy{},
		},
	}
}

func (g *defaultGrader) Check(q extract.Question, choice int) (Result, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{}, fmt.Errorf("no strategy for question type %q", q.Type)
	}
	return s.Check(q, choice)
}

type multipleChoiceStrategy struct{}

func (multipleChoiceStrategy) Check(q extract.Question, choice int) (Result, error) {
	if choice < 0 || choice >= len(q.Options) {
		return Result{}, ErrOutOfRange
	}
	return Result{
		Correct:      choice == q.CorrectIndex,
		Selected:     choice,
		CorrectIndex: q.CorrectIndex,
		CorrectLabel: q.AnswerLabel(),
		CorrectText:  q.Options[q.CorrectIndex],
	}, nil
}

type trueFalseStrategy struct{}

func (trueFalseStrategy) Check(q extract.Question, choice int) (Result, error) {
	if choice != 0 && choice != 1 {
		return Result{}, ErrOutOfRange
	}
	text := "Verdadero"
	if q.CorrectIndex == 1 {
		text = "Falso"
	}
	return Result{
		Correct:      choice == q.CorrectIndex,
		Selected:     choice,
		CorrectIndex: q.CorrectIndex,
		CorrectLabel: q.AnswerLabel(),
		CorrectText:  text,
	}, nil
}

// ParseChoice reads a user answer for q: an option letter ("b", "B)"), a
// true/false word ("V", "falso", "true") or a zero-based index ("2").
func ParseChoice(q extract.Question, s string) (int, error) {
	n := normalize(s)
	if n == "" {
		return 0, ErrBadChoice
	}
	if i, err := strconv.Atoi(n); err == nil {
		return i, nil
	}
	if q.Type == extract.TrueFalse {
		switch n {
		case "v", "verdadero", "true", "t":
			return 0, nil
		case "f", "falso", "false":
			return 1, nil
		}
		return 0, ErrBadChoice
	}
	if len(n) == 1 && n[0] >= 'a' && n[0] <= 'z' {
		return int(n[0] - 'a'), nil
	}
	return 0, ErrBadChoice
}

// normalize does simple casefolding and drops punctuation/spaces.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsSpace(r), unicode.IsPunct(r):
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
