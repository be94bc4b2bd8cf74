package extract

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// NoiseRule matches a boilerplate line either by literal substring or by a
// regular expression. Matching is case-insensitive unless CaseSensitive is set.
type NoiseRule struct {
	Name          string `yaml:"name"`
	Substring     string `yaml:"substring,omitempty"`
	Pattern       string `yaml:"pattern,omitempty"`
	CaseSensitive bool   `yaml:"case_sensitive,omitempty"`
}

// RubricRule drops scoring-rubric paragraphs: a line is noise when at least
// MinMatches of the Phrases occur in it.
type RubricRule struct {
	MinMatches int      `yaml:"min_matches"`
	Phrases    []string `yaml:"phrases"`
}

// NoiseRules is the declarative rule table, loadable from YAML.
type NoiseRules struct {
	Rules  []NoiseRule `yaml:"rules"`
	Rubric RubricRule  `yaml:"rubric"`
}

// DefaultNoiseRules is the built-in table for Spanish university exams.
func DefaultNoiseRules() NoiseRules {
	return NoiseRules{
		Rules: []NoiseRule{
			{Name: "faculty", Substring: "facultad de "},
			{Name: "department", Substring: "departamento de "},
			{Name: "university", Substring: "universidad de "},
			{Name: "academic-year", Substring: "curso académico"},
			{Name: "sitting", Substring: "convocatoria ordinaria"},
			{Name: "sitting-extra", Substring: "convocatoria extraordinaria"},
			{Name: "student-name", Substring: "apellidos y nombre"},
			{Name: "student-name-alt", Substring: "nombre y apellidos"},
			{Name: "signature", Substring: "firma del alumno"},
			{Name: "professor", Substring: "profesor:"},
			{Name: "professor-f", Substring: "profesora:"},
			{Name: "professor-abbr", Substring: "prof. dr"},
			{Name: "watermark-csv", Substring: "código seguro de verificación"},
			{Name: "watermark-id", Substring: "id. documento"},
			{Name: "watermark-verify", Substring: "puede ser verificado en"},
			{Name: "topic", Pattern: `^tema\s+\d+\b`},
			{Name: "page", Pattern: `^p[áa]g(?:ina|\.)?\s*\d+(?:\s*(?:de|/)\s*\d+)?$`},
			// "- 3 / 12 -", "3 de 12", "3 / 12"; a bare "3/4" is content.
			{Name: "page-fraction", Pattern: `^(?:-\s*\d+\s*(?:/|de)\s*\d+\s*-|\d+\s+de\s+\d+|\d+\s+/\s+\d+)$`},
			{Name: "tf-header", Pattern: `^(?:verdadero|falso)(?:\s+(?:verdadero|falso))?$`},
			{Name: "tf-header-short", Pattern: `^v\s+f$`},
		},
		Rubric: RubricRule{
			MinMatches: 2,
			Phrases: []string{
				"cada respuesta correcta",
				"cada respuesta incorrecta",
				"respuestas incorrectas",
				"en blanco",
				"no contestadas",
				"restan",
				"restará",
				"penaliza",
				"puntuación máxima",
				"puntos",
			},
		},
	}
}

// LoadNoiseRules reads a YAML rule table.
func LoadNoiseRules(r io.Reader) (NoiseRules, error) {
	var nr NoiseRules
	if err := yaml.NewDecoder(r).Decode(&nr); err != nil {
		return NoiseRules{}, fmt.Errorf("decode noise rules: %w", err)
	}
	return nr, nil
}

// LoadNoiseFilterFile builds a filter from the default rules plus the YAML
// table at path. An empty path yields the default filter.
func LoadNoiseFilterFile(path string) (*NoiseFilter, error) {
	if path == "" {
		return DefaultNoiseFilter(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	extra, err := LoadNoiseRules(f)
	if err != nil {
		return nil, err
	}
	return NewNoiseFilter(DefaultNoiseRules().Merge(extra))
}

// Merge appends the rules and rubric phrases of other.
func (nr NoiseRules) Merge(other NoiseRules) NoiseRules {
	out := NoiseRules{
		Rules:  append(append([]NoiseRule{}, nr.Rules...), other.Rules...),
		Rubric: RubricRule{MinMatches: nr.Rubric.MinMatches},
	}
	out.Rubric.Phrases = append(append([]string{}, nr.Rubric.Phrases...), other.Rubric.Phrases...)
	if other.Rubric.MinMatches > 0 {
		out.Rubric.MinMatches = other.Rubric.MinMatches
	}
	return out
}

type compiledRule struct {
	name      string
	substring string
	fold      bool
	re        *regexp.Regexp
}

// NoiseFilter classifies whole lines as header/footer/metadata boilerplate.
type NoiseFilter struct {
	rules     []compiledRule
	phrases   []string
	minRubric int
}

func NewNoiseFilter(nr NoiseRules) (*NoiseFilter, error) {
	f := &NoiseFilter{minRubric: nr.Rubric.MinMatches}
	for _, r := range nr.Rules {
		c := compiledRule{name: r.Name, fold: !r.CaseSensitive}
		switch {
		case r.Pattern != "":
			expr := r.Pattern
			if c.fold {
				expr = "(?i)" + expr
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("noise rule %q: %w", r.Name, err)
			}
			c.re = re
		case r.Substring != "":
			c.substring = NormalizeSpace(r.Substring)
			if c.fold {
				c.substring = strings.ToLower(c.substring)
			}
		default:
			return nil, fmt.Errorf("noise rule %q: substring or pattern required", r.Name)
		}
		f.rules = append(f.rules, c)
	}
	for _, p := range nr.Rubric.Phrases {
		if p = strings.ToLower(NormalizeSpace(p)); p != "" {
			f.phrases = append(f.phrases, p)
		}
	}
	return f, nil
}

// DefaultNoiseFilter is built from DefaultNoiseRules.
func DefaultNoiseFilter() *NoiseFilter {
	f, err := NewNoiseFilter(DefaultNoiseRules())
	if err != nil {
		panic(err)
	}
	return f
}

// IsNoise reports whether the whole line is boilerplate.
func (f *NoiseFilter) IsNoise(line string) bool {
	return f.Match(line) != ""
}

// Match returns the name of the first rule that classifies line as noise,
// "rubric" for a scoring-rubric paragraph, or "" when the line is content.
func (f *NoiseFilter) Match(line string) string {
	text := NormalizeSpace(line)
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	for _, r := range f.rules {
		switch {
		case r.re != nil:
			if r.re.MatchString(text) {
				return r.name
			}
		case r.fold:
			if strings.Contains(lower, r.substring) {
				return r.name
			}
		default:
			if strings.Contains(text, r.substring) {
				return r.name
			}
		}
	}
	if f.minRubric > 0 {
		hits := 0
		for _, p := range f.phrases {
			if strings.Contains(lower, p) {
				hits++
			}
		}
		if hits >= f.minRubric {
			return "rubric"
		}
	}
	return ""
}
