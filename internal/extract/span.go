package extract

import (
	"encoding/json"
	"fmt"
	"math"
)

const (
	// Render-layer style flags that signal an underline decoration.
	flagUnderline     = 1 << 2
	flagUnderlineDeco = 1 << 23

	colorTolerance = 0.01
)

// Background is a fill or highlight color with channels normalized to [0,1].
// In JSON it is either a 3-element float array or a packed 0xRRGGBB integer.
type Background struct {
	R, G, B float64
}

func (bg *Background) UnmarshalJSON(b []byte) error {
	var triple []float64
	if err := json.Unmarshal(b, &triple); err == nil {
		if len(triple) != 3 {
			return fmt.Errorf("background: want 3 channels, got %d", len(triple))
		}
		*bg = Background{R: triple[0], G: triple[1], B: triple[2]}
		return nil
	}
	var packed int64
	if err := json.Unmarshal(b, &packed); err != nil {
		return fmt.Errorf("background: want [r,g,b] or packed integer: %w", err)
	}
	*bg = PackedBackground(packed)
	return nil
}

func (bg Background) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{bg.R, bg.G, bg.B})
}

// PackedBackground converts a 0xRRGGBB integer.
func PackedBackground(v int64) Background {
	return Background{
		R: float64((v>>16)&0xFF) / 255,
		G: float64((v>>8)&0xFF) / 255,
		B: float64(v&0xFF) / 255,
	}
}

func (bg Background) near(v float64) bool {
	return math.Abs(bg.R-v) <= colorTolerance &&
		math.Abs(bg.G-v) <= colorTolerance &&
		math.Abs(bg.B-v) <= colorTolerance
}

// Highlighted reports whether the color is an actual highlight: anything but
// white or black (black is how renderers report "no fill").
func (bg Background) Highlighted() bool {
	return !bg.near(1) && !bg.near(0)
}

// Format is the opaque formatting a render layer attaches to a fragment.
type Format struct {
	Underline  bool        `json:"underline,omitempty"`
	Flags      int         `json:"flags,omitempty"`
	Background *Background `json:"background,omitempty"`
}

// Fragment is one positioned text run as delivered by the render layer.
type Fragment struct {
	Text   string  `json:"text"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Format Format  `json:"format"`
}

// Page is the ordered fragment list of one document page.
type Page struct {
	Number    int        `json:"page"`
	Fragments []Fragment `json:"fragments"`
}

// Span is a fragment reduced to what the pipeline needs.
type Span struct {
	Text   string
	X, Y   float64
	Marked bool
}

// IsMarked applies the marking policy: underline decoration or a highlight
// background, either one suffices.
func IsMarked(f Format) bool {
	if f.Underline || f.Flags&flagUnderline != 0 || f.Flags&flagUnderlineDeco != 0 {
		return true
	}
	return f.Background != nil && f.Background.Highlighted()
}

// CollectSpans turns one page's fragments into spans.
func CollectSpans(p Page) []Span {
	out := make([]Span, 0, len(p.Fragments))
	for _, f := range p.Fragments {
		out = append(out, Span{Text: f.Text, X: f.X, Y: f.Y, Marked: IsMarked(f.Format)})
	}
	return out
}
