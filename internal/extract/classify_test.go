package extract

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		line string
		kind LineKind
		slot int
	}{
		{"1. What is 2+2?", QuestionStart, -1},
		{"  12- Pregunta", QuestionStart, -1},
		{"3 Pick one", QuestionStart, -1},
		{"a) 3", OptionStart, 0},
		{"B. cuatro", OptionStart, 1},
		{"c-cinco", OptionStart, 2},
		{"D) seis", OptionStart, 3},
		{"e) Extra", OptionStart, 4},
		{"f) not an option", Plain, -1},
		{"continuation text", Plain, -1},
		{"12", Plain, -1},
		{"2\u00a0Second question", QuestionStart, -1},
		{"\u00a0b)\u00a0dos", OptionStart, 1},
	}
	for _, tc := range cases {
		got := Classify(tc.line)
		if got.Kind != tc.kind {
			t.Errorf("Classify(%q).Kind = %v, want %v", tc.line, got.Kind, tc.kind)
			continue
		}
		if got.Slot() != tc.slot {
			t.Errorf("Classify(%q).Slot() = %d, want %d", tc.line, got.Slot(), tc.slot)
		}
	}
}
