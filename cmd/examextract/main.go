// Command examextract turns a page-fragment JSON dump of an exam into the
// question interchange format.
//
//	examextract -in pages.json [-out questions.json] [-tolerance 5] [-noise rules.yaml]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mind-engage/mindengage-extract/internal/exam"
	"github.com/mind-engage/mindengage-extract/internal/extract"
)

const exitNoQuestions = 2

func main() {
	log.SetFlags(0)
	log.SetPrefix("examextract: ")

	in := flag.String("in", "-", "page JSON input file, - for stdin")
	out := flag.String("out", "-", "question JSON output file, - for stdout")
	tolerance := flag.Float64("tolerance", extract.DefaultLineTolerance, "vertical distance that still counts as the same line")
	noisePath := flag.String("noise", "", "YAML noise rules merged over the defaults")
	verbose := flag.Bool("v", false, "log extraction stats")
	flag.Parse()

	code, err := run(*in, *out, *tolerance, *noisePath, *verbose)
	if err != nil {
		log.Fatal(err)
	}
	os.Exit(code)
}

func run(inPath, outPath string, tolerance float64, noisePath string, verbose bool) (int, error) {
	var src io.Reader = os.Stdin
	if inPath != "-" {
		f, err := os.Open(inPath)
		if err != nil {
			return 1, err
		}
		defer f.Close()
		src = f
	}
	pages, err := exam.DecodePages(src)
	if err != nil {
		return 1, err
	}

	noise, err := extract.LoadNoiseFilterFile(noisePath)
	if err != nil {
		return 1, fmt.Errorf("noise rules: %w", err)
	}
	opts := []extract.Option{extract.WithLineTolerance(tolerance), extract.WithNoiseFilter(noise)}
	if verbose {
		opts = append(opts, extract.WithLogger(log.Default()))
	}
	res := extract.New(opts...).ExtractPages(pages)
	if res.NoQuestions() {
		log.Printf("warning: no questions found in %d pages; the document does not match the expected exam format", res.Stats.Pages)
		return exitNoQuestions, nil
	}
	if n := len(res.Unmarked()); n > 0 {
		log.Printf("%d of %d questions have no marked answer; review before use", n, len(res.Questions))
	}

	if outPath == "-" {
		if err := writeQuestions(os.Stdout, res.Questions); err != nil {
			return 1, err
		}
		return 0, nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return 1, err
	}
	if err := writeQuestions(f, res.Questions); err != nil {
		f.Close()
		return 1, err
	}
	if err := f.Close(); err != nil {
		return 1, fmt.Errorf("close %s: %w", outPath, err)
	}
	return 0, nil
}

func writeQuestions(w io.Writer, qs []extract.Question) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(qs)
}
