package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-extract/internal/exam"
	"github.com/mind-engage/mindengage-extract/internal/extract"
)

type noQuestionsBody struct {
	Error string        `json:"error"`
	Stats extract.Stats `json:"stats"`
}

func noQuestions(w http.ResponseWriter, res extract.Result) {
	writeJSON(w, http.StatusUnprocessableEntity, noQuestionsBody{
		Error: "no questions found; the document does not match the expected exam format",
		Stats: res.Stats,
	})
}

// POST /extract  (pages array or {"pages": [...]})
// Runs the extractor without storing anything.
func ExtractHandler(ex *extract.Extractor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pages, err := exam.DecodePages(r.Body)
		if err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		res := ex.ExtractPages(pages)
		if res.NoQuestions() {
			noQuestions(w, res)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			extract.Result
			Unmarked []int `json:"unmarked"`
		}{res, res.Unmarked()})
	}
}
