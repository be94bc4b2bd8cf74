package extract

// Phase tells which field of the open container receives continuation text.
type Phase int

const (
	PhaseStatement Phase = iota
	PhaseOptions
)

// Line is a noise-free visual line with its classification.
type Line struct {
	Text   string
	Marked bool
	Class  Classification
}

// OptionDraft is an option while its container is still open.
type OptionDraft struct {
	Text   string
	Marked bool
}

// Container accumulates one question until the next question start or the
// end of input closes it.
type Container struct {
	Statement string
	Options   []OptionDraft
	HasNumber bool
}

// ContainerState is the fold accumulator. Step never mutates its input
// state, so any intermediate state can be kept and replayed.
type ContainerState struct {
	Open    *Container
	Phase   Phase
	Closed  bool
	Skipped int
}

// Step consumes one line. When the line closes the open container the
// finalized container is returned alongside the new state.
func Step(s ContainerState, ln Line) (ContainerState, *Container) {
	if s.Closed {
		return s, nil
	}
	switch ln.Class.Kind {
	case QuestionStart:
		done := s.Open
		return ContainerState{
			Open:    &Container{Statement: ln.Text, HasNumber: true},
			Phase:   PhaseStatement,
			Skipped: s.Skipped,
		}, done
	case OptionStart:
		return stepOption(s, ln), nil
	default:
		return stepPlain(s, ln), nil
	}
}

// Finish closes the state at end of input and returns the last container.
func Finish(s ContainerState) (ContainerState, *Container) {
	if s.Closed {
		return s, nil
	}
	done := s.Open
	return ContainerState{Closed: true, Skipped: s.Skipped}, done
}

func stepOption(s ContainerState, ln Line) ContainerState {
	c := Container{}
	if s.Open != nil {
		c = s.Open.clone()
	}
	text := StripOptionLabel(ln.Text)
	n := len(c.Options)
	if n == OptionCount || (n > 0 && ln.Class.Slot() >= OptionCount) {
		last := &c.Options[n-1]
		last.Text = joinText(last.Text, text)
		last.Marked = last.Marked || ln.Marked
	} else {
		c.Options = append(c.Options, OptionDraft{Text: text, Marked: ln.Marked})
	}
	return ContainerState{Open: &c, Phase: PhaseOptions, Skipped: s.Skipped}
}

func stepPlain(s ContainerState, ln Line) ContainerState {
	if s.Open == nil {
		s.Skipped++
		return s
	}
	c := s.Open.clone()
	if s.Phase == PhaseOptions && len(c.Options) > 0 {
		last := &c.Options[len(c.Options)-1]
		last.Text = joinText(last.Text, ln.Text)
		last.Marked = last.Marked || ln.Marked
	} else {
		c.Statement = joinText(c.Statement, ln.Text)
	}
	return ContainerState{Open: &c, Phase: s.Phase, Skipped: s.Skipped}
}

func (c *Container) clone() Container {
	out := *c
	out.Options = make([]OptionDraft, len(c.Options), OptionCount)
	copy(out.Options, c.Options)
	return out
}
