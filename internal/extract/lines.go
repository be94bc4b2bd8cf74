package extract

import (
	"math"
	"sort"
	"strings"
)

// DefaultLineTolerance is the maximum vertical distance, in page units,
// between a span and the span that opened its line.
const DefaultLineTolerance = 5.0

// VisualLine is a left-to-right run of spans sharing a baseline.
type VisualLine struct {
	Spans     []Span
	Text      string
	AnyMarked bool
}

// GroupLines partitions one page's spans into visual lines. Spans are taken
// top to bottom; a span joins the current line while it stays within
// tolerance of the line's first span. Whitespace-only lines are dropped.
func GroupLines(spans []Span, tolerance float64) []VisualLine {
	if len(spans) == 0 {
		return nil
	}
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y < sorted[j].Y })

	var lines []VisualLine
	var current []Span
	for _, s := range sorted {
		if len(current) > 0 && math.Abs(s.Y-current[0].Y) > tolerance {
			if l, ok := buildLine(current); ok {
				lines = append(lines, l)
			}
			current = nil
		}
		current = append(current, s)
	}
	if l, ok := buildLine(current); ok {
		lines = append(lines, l)
	}
	return lines
}

func buildLine(spans []Span) (VisualLine, bool) {
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].X < spans[j].X })

	parts := make([]string, 0, len(spans))
	marked := false
	for _, s := range spans {
		parts = append(parts, s.Text)
		marked = marked || s.Marked
	}
	text := NormalizeSpace(strings.Join(parts, " "))
	if text == "" {
		return VisualLine{}, false
	}
	return VisualLine{Spans: spans, Text: text, AnyMarked: marked}, true
}
