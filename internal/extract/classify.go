package extract

import "regexp"

type LineKind int

const (
	Plain LineKind = iota
	QuestionStart
	OptionStart
)

func (k LineKind) String() string {
	switch k {
	case QuestionStart:
		return "question"
	case OptionStart:
		return "option"
	default:
		return "plain"
	}
}

var (
	questionStart = regexp.MustCompile(`^` + ws + `*\d+[.\-\s\p{Z}]`)
	optionStart   = regexp.MustCompile(`^` + ws + `*([a-eA-E])[.)\-]`)
)

// Classification is the label of one line. Letter is the lower-case option
// letter for OptionStart lines.
type Classification struct {
	Kind   LineKind
	Letter byte
}

// Slot is the zero-based answer slot of an option letter ('a' is 0).
func (c Classification) Slot() int {
	if c.Kind != OptionStart {
		return -1
	}
	return int(c.Letter - 'a')
}

// Classify labels a line as the start of a question, the start of an option
// or plain continuation text.
func Classify(line string) Classification {
	if questionStart.MatchString(line) {
		return Classification{Kind: QuestionStart}
	}
	if m := optionStart.FindStringSubmatch(line); m != nil {
		l := m[1][0]
		if l < 'a' {
			l += 'a' - 'A'
		}
		return Classification{Kind: OptionStart, Letter: l}
	}
	return Classification{Kind: Plain}
}
