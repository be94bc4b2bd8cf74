package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-extract/internal/exam"
	"github.com/mind-engage/mindengage-extract/internal/extract"
	qtiexport "github.com/mind-engage/mindengage-extract/internal/qti/export"
)

type examResponse struct {
	exam.Exam
	Stats    *extract.Stats `json:"stats,omitempty"`
	Unmarked []int          `json:"unmarked"`
}

func newExamResponse(e exam.Exam, stats *extract.Stats) examResponse {
	return examResponse{Exam: e, Stats: stats, Unmarked: extract.Result{Questions: e.Questions}.Unmarked()}
}

// POST /exams  { "title": "...", "pages": [...] }
func CreateExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title string         `json:"title"`
			Pages []extract.Page `json:"pages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		e, res, err := svc.ImportPages(r.Context(), req.Title, req.Pages)
		if errors.Is(err, exam.ErrNoQuestions) {
			noQuestions(w, res)
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		setETag(w, e)
		writeJSON(w, http.StatusCreated, newExamResponse(e, &res.Stats))
	}
}

// GET /exams?q=&limit=&offset=
func ListExamsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListExams(r.Context(), exam.ListOpts{
			Q:      strings.TrimSpace(r.URL.Query().Get("q")),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		if list == nil {
			list = []exam.ExamSummary{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := store.GetExam(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeError(w, err)
			return
		}
		setETag(w, e)
		writeJSON(w, http.StatusOK, newExamResponse(e, nil))
	}
}

// GET /exams/{examID}/export?format=json|qti
// Downloads the question array in the interchange format, or a QTI 2.1
// package with format=qti.
func ExportExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := store.GetExam(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeError(w, err)
			return
		}
		setETag(w, e)
		switch r.URL.Query().Get("format") {
		case "", "json":
			w.Header().Set("Content-Disposition", `attachment; filename="`+e.ID+`.json"`)
			writeJSON(w, http.StatusOK, e.Questions)
		case "qti":
			pkg, err := qtiexport.BuildPackage(e)
			if err != nil {
				writeError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/zip")
			w.Header().Set("Content-Disposition", `attachment; filename="`+e.ID+`-qti.zip"`)
			_, _ = w.Write(pkg)
		default:
			http.Error(w, "unknown export format", http.StatusBadRequest)
		}
	}
}

func questionIndex(r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	return i, err == nil && i >= 0
}

// PUT /exams/{examID}/questions/{index}   If-Match: "<revision>"
func ReviseQuestionHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rev, ok := ifMatchRevision(r)
		if !ok {
			http.Error(w, "If-Match revision required", http.StatusPreconditionRequired)
			return
		}
		index, ok := questionIndex(r)
		if !ok {
			http.Error(w, "bad question index", http.StatusBadRequest)
			return
		}
		var q extract.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := q.Validate(); err != nil {
			writeError(w, err)
			return
		}
		e, err := svc.ReviseQuestion(r.Context(), chi.URLParam(r, "examID"), index, rev, q)
		if err != nil {
			writeError(w, err)
			return
		}
		setETag(w, e)
		writeJSON(w, http.StatusOK, newExamResponse(e, nil))
	}
}

// DELETE /exams/{examID}/questions/{index}   If-Match: "<revision>"
func DeleteQuestionHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rev, ok := ifMatchRevision(r)
		if !ok {
			http.Error(w, "If-Match revision required", http.StatusPreconditionRequired)
			return
		}
		index, ok := questionIndex(r)
		if !ok {
			http.Error(w, "bad question index", http.StatusBadRequest)
			return
		}
		e, err := svc.DeleteQuestion(r.Context(), chi.URLParam(r, "examID"), index, rev)
		if err != nil {
			writeError(w, err)
			return
		}
		setETag(w, e)
		writeJSON(w, http.StatusOK, newExamResponse(e, nil))
	}
}

// POST /exams/{examID}/reextract   If-Match: "<revision>"
func ReextractHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rev, ok := ifMatchRevision(r)
		if !ok {
			http.Error(w, "If-Match revision required", http.StatusPreconditionRequired)
			return
		}
		e, res, err := svc.Reextract(r.Context(), chi.URLParam(r, "examID"), rev)
		if errors.Is(err, exam.ErrNoQuestions) {
			noQuestions(w, res)
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		setETag(w, e)
		writeJSON(w, http.StatusOK, newExamResponse(e, &res.Stats))
	}
}

func DeleteExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteExam(r.Context(), chi.URLParam(r, "examID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
