package extract

import (
	"io"
	"iter"
	"log"
	"slices"
)

// Stats summarizes one extraction run.
type Stats struct {
	Pages      int `json:"pages"`
	Spans      int `json:"spans"`
	Lines      int `json:"lines"`
	NoiseLines int `json:"noise_lines"`
	Skipped    int `json:"skipped_lines"`
	Questions  int `json:"questions"`
	Unmarked   int `json:"unmarked"`
	Padded     int `json:"padded"`
}

// Result is the ordered question sequence of one document.
type Result struct {
	Questions []Question `json:"questions"`
	Stats     Stats      `json:"stats"`
}

// NoQuestions reports the format-mismatch case: nothing could be extracted.
func (r Result) NoQuestions() bool { return len(r.Questions) == 0 }

// Unmarked lists the indices of questions whose correct answer was defaulted.
func (r Result) Unmarked() []int {
	var out []int
	for i, q := range r.Questions {
		if !q.UnderlineDetected {
			out = append(out, i)
		}
	}
	return out
}

type Option func(*Extractor)

func WithLineTolerance(t float64) Option {
	return func(e *Extractor) {
		if t > 0 {
			e.tolerance = t
		}
	}
}

func WithNoiseFilter(f *NoiseFilter) Option {
	return func(e *Extractor) {
		if f != nil {
			e.noise = f
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// Extractor runs the page -> question pipeline. It holds no per-document
// state, so one Extractor may serve concurrent documents.
type Extractor struct {
	tolerance float64
	noise     *NoiseFilter
	logger    *log.Logger
}

func New(opts ...Option) *Extractor {
	e := &Extractor{
		tolerance: DefaultLineTolerance,
		noise:     DefaultNoiseFilter(),
		logger:    log.New(io.Discard, "", 0),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ExtractPages is Extract over a slice.
func (e *Extractor) ExtractPages(pages []Page) Result {
	return e.Extract(slices.Values(pages))
}

// Extract consumes pages strictly in order; a question may continue across
// a page break. Malformed input never fails: it yields fewer questions or
// questions flagged as unmarked.
func (e *Extractor) Extract(pages iter.Seq[Page]) Result {
	var (
		st   ContainerState
		res  = Result{Questions: []Question{}}
		emit = func(c *Container) {
			if c == nil {
				return
			}
			if n := len(c.Options); n > 0 && n < OptionCount {
				res.Stats.Padded++
			}
			q := Resolve(*c)
			if !q.UnderlineDetected {
				res.Stats.Unmarked++
			}
			res.Questions = append(res.Questions, q)
		}
	)
	for p := range pages {
		res.Stats.Pages++
		spans := CollectSpans(p)
		res.Stats.Spans += len(spans)
		for _, vl := range GroupLines(spans, e.tolerance) {
			res.Stats.Lines++
			if rule := e.noise.Match(vl.Text); rule != "" {
				res.Stats.NoiseLines++
				continue
			}
			var done *Container
			st, done = Step(st, Line{Text: vl.Text, Marked: vl.AnyMarked, Class: Classify(vl.Text)})
			emit(done)
		}
	}
	st, last := Finish(st)
	emit(last)

	res.Stats.Skipped = st.Skipped
	res.Stats.Questions = len(res.Questions)
	e.logger.Printf("extract: pages=%d lines=%d noise=%d skipped=%d questions=%d unmarked=%d",
		res.Stats.Pages, res.Stats.Lines, res.Stats.NoiseLines, res.Stats.Skipped, res.Stats.Questions, res.Stats.Unmarked)
	return res
}
