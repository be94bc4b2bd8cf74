package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-extract/internal/exam"
	"github.com/mind-engage/mindengage-extract/internal/extract"
	"github.com/mind-engage/mindengage-extract/internal/practice"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, exam.ErrNotFound), errors.Is(err, practice.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, exam.ErrConflict), errors.Is(err, practice.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, exam.ErrNoQuestions):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, exam.ErrIndex),
		errors.Is(err, exam.ErrTitleRequired),
		errors.Is(err, extract.ErrInvalidQuestion),
		errors.Is(err, practice.ErrOutOfRange),
		errors.Is(err, practice.ErrBadChoice),
		errors.Is(err, practice.ErrNoSelection),
		errors.Is(err, practice.ErrEmptyExam):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

// ifMatchRevision reads the expected exam revision from If-Match. Quoted
// ETag form ("3") and bare numbers are both accepted.
func ifMatchRevision(r *http.Request) (int64, bool) {
	h := strings.Trim(strings.TrimSpace(r.Header.Get("If-Match")), `"`)
	if h == "" {
		return 0, false
	}
	rev, err := strconv.ParseInt(h, 10, 64)
	if err != nil || rev <= 0 {
		return 0, false
	}
	return rev, true
}

func setETag(w http.ResponseWriter, e exam.Exam) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(e.Revision, 10)))
}
