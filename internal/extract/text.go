package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ws matches Unicode whitespace, including the no-break spaces PDF
// renderers emit; `\s` alone is ASCII-only.
const ws = `[\s\p{Z}]`

var (
	spaceRun    = regexp.MustCompile(ws + `+`)
	optionLabel = regexp.MustCompile(`^` + ws + `*[a-eA-E][.)\-]` + ws + `*`)

	// A lone V or F closing the text, separated from the preceding word by
	// whitespace, punctuation or an opening parenthesis: "blue (V)", "azul - F.".
	trailingMarker = regexp.MustCompile(`(?i)[\s\p{Z}(\[.,;:\-]+([VF])[\s\p{Z})\].]*$`)

	// Page codes some exam generators stamp at the end of a text run: either
	// bracketed, "(Pág. 3)", or after closing punctuation, "...sangre? Pág. 3".
	// "Ver pág. 12" is content and stays.
	bracketedPageCode  = regexp.MustCompile(`(?i)` + ws + `+[(\[]p[áa]g(?:ina)?\.?` + ws + `*\d+(?:` + ws + `*/` + ws + `*\d+)?[)\]]$`)
	punctuatedPageCode = regexp.MustCompile(`(?i)([?!.:;])` + ws + `+p[áa]g(?:ina)?\.?` + ws + `*\d+(?:` + ws + `*/` + ws + `*\d+)?$`)
)

// NormalizeSpace composes the text to NFC, collapses whitespace runs into a
// single space and trims both ends. It is idempotent.
func NormalizeSpace(s string) string {
	s = norm.NFC.String(s)
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// StripOptionLabel removes one leading "a)", "B.", "c-" style label.
func StripOptionLabel(s string) string {
	return NormalizeSpace(optionLabel.ReplaceAllString(s, ""))
}

// TrailingMarker reports the true/false token closing s, if any, and returns
// the text without it. The token is 'V' or 'F' (upper-cased). Text that would
// become empty is left untouched and reported as unmarked.
func TrailingMarker(s string) (rest string, token byte, ok bool) {
	s = NormalizeSpace(s)
	loc := trailingMarker.FindStringSubmatchIndex(s)
	if loc == nil {
		return s, 0, false
	}
	rest = NormalizeSpace(s[:loc[0]])
	if rest == "" {
		return s, 0, false
	}
	token = s[loc[2]]
	if token >= 'a' {
		token -= 'a' - 'A'
	}
	return rest, token, true
}

// StripPageCode drops a trailing "(Pág. 3)" style artifact.
func StripPageCode(s string) string {
	s = NormalizeSpace(s)
	out := bracketedPageCode.ReplaceAllString(s, "")
	out = NormalizeSpace(punctuatedPageCode.ReplaceAllString(out, "${1}"))
	if out == "" {
		return s
	}
	return out
}

func joinText(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}
