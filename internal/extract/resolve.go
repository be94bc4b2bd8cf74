package extract

// Resolve turns a closed container into a Question. Containers with no
// options become true/false items; anything with options becomes a
// multiple-choice item with exactly OptionCount options, padding missing
// slots with empty text.
func Resolve(c Container) Question {
	if len(c.Options) == 0 {
		return resolveTrueFalse(c)
	}
	return resolveMultipleChoice(c)
}

func resolveTrueFalse(c Container) Question {
	q := Question{Options: []string{}, Type: TrueFalse, HasNumber: c.HasNumber}
	stmt, token, ok := TrailingMarker(StripPageCode(c.Statement))
	q.Statement = stmt
	if ok {
		q.UnderlineDetected = true
		if token == 'F' {
			q.CorrectIndex = 1
		}
	}
	return q
}

func resolveMultipleChoice(c Container) Question {
	q := Question{
		Statement: StripPageCode(c.Statement),
		Options:   make([]string, OptionCount),
		Type:      MultipleChoice,
		HasNumber: c.HasNumber,
	}
	explicit, marked := -1, -1
	for i := 0; i < OptionCount && i < len(c.Options); i++ {
		text, _, hasToken := TrailingMarker(StripPageCode(c.Options[i].Text))
		q.Options[i] = text
		if hasToken && explicit < 0 {
			explicit = i
		}
		if c.Options[i].Marked && marked < 0 {
			marked = i
		}
	}
	switch {
	case explicit >= 0:
		q.CorrectIndex, q.UnderlineDetected = explicit, true
	case marked >= 0:
		q.CorrectIndex, q.UnderlineDetected = marked, true
	}
	return q
}
