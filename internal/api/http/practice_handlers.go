package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-extract/internal/auth/middleware"
	"github.com/mind-engage/mindengage-extract/internal/extract"
	"github.com/mind-engage/mindengage-extract/internal/practice"
)

// questionView is a question as shown during practice: the answer stays
// hidden until the learner verifies.
type questionView struct {
	Index     int                  `json:"index"`
	Statement string               `json:"statement"`
	Options   []string             `json:"options"`
	Type      extract.QuestionType `json:"type"`
	Selected  *int                 `json:"selected,omitempty"`
	Verified  bool                 `json:"verified"`
}

type sessionView struct {
	Session  practice.Session `json:"session"`
	Question questionView     `json:"question"`
}

func viewOf(sess practice.Session, index int, q extract.Question) sessionView {
	v := questionView{Index: index, Statement: q.Statement, Type: q.Type}
	if q.Type == extract.TrueFalse {
		v.Options = []string{"Verdadero", "Falso"}
	} else {
		v.Options = append([]string(nil), q.Options...)
	}
	if a, ok := sess.Answers[index]; ok {
		choice := a.Choice
		v.Selected, v.Verified = &choice, a.Verified
	}
	return sessionView{Session: sess, Question: v}
}

// ownSession loads the session and rejects callers that did not start it.
// Admins may read any session.
func ownSession(svc *practice.Service, w http.ResponseWriter, r *http.Request) (practice.Session, bool) {
	sess, err := svc.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return practice.Session{}, false
	}
	if sub, role := authmw.Identity(r.Context()); sess.UserID != sub && role != "admin" {
		http.Error(w, "forbidden", http.StatusForbidden)
		return practice.Session{}, false
	}
	return sess, true
}

func currentView(svc *practice.Service, w http.ResponseWriter, r *http.Request, sess practice.Session) {
	q, err := svc.Question(r.Context(), sess.ID, sess.Current)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess, sess.Current, q))
}

// POST /practice  { "exam_id": "..." }
func StartPracticeHandler(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ExamID string `json:"exam_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ExamID == "" {
			http.Error(w, "exam_id required", http.StatusBadRequest)
			return
		}
		sess, err := svc.Start(r.Context(), req.ExamID, authmw.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		q, err := svc.Question(r.Context(), sess.ID, 0)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, viewOf(sess, 0, q))
	}
}

func GetPracticeHandler(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := ownSession(svc, w, r)
		if !ok {
			return
		}
		currentView(svc, w, r, sess)
	}
}

// POST /practice/{sessionID}/answers  { "index": 0, "choice": "B", "verify": true }
// choice may be an option letter, V/F, or a zero-based number. Without
// verify the selection is only recorded.
func AnswerPracticeHandler(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := ownSession(svc, w, r)
		if !ok {
			return
		}
		var req struct {
			Index  int   `json:"index"`
			Choice any   `json:"choice"`
			Verify *bool `json:"verify"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Choice == nil {
			http.Error(w, "index and choice required", http.StatusBadRequest)
			return
		}
		q, err := svc.Question(r.Context(), sess.ID, req.Index)
		if err != nil {
			writeError(w, err)
			return
		}
		choice, err := practice.ParseChoice(q, fmt.Sprint(req.Choice))
		if err != nil {
			writeError(w, err)
			return
		}
		if req.Verify != nil && !*req.Verify {
			sess, err = svc.Select(r.Context(), sess.ID, req.Index, choice)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, viewOf(sess, req.Index, q))
			return
		}
		res, err := svc.Answer(r.Context(), sess.ID, req.Index, choice)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// POST /practice/{sessionID}/navigate  { "index": 3 } or { "direction": "next"|"prev" }
func NavigatePracticeHandler(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := ownSession(svc, w, r)
		if !ok {
			return
		}
		var req struct {
			Index     *int   `json:"index"`
			Direction string `json:"direction"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		target := sess.Current
		switch {
		case req.Index != nil:
			target = *req.Index
		case req.Direction == "next":
			target++
		case req.Direction == "prev":
			target--
		default:
			http.Error(w, "index or direction required", http.StatusBadRequest)
			return
		}
		sess, err := svc.Navigate(r.Context(), sess.ID, target)
		if err != nil {
			writeError(w, err)
			return
		}
		currentView(svc, w, r, sess)
	}
}

func PracticeSummaryHandler(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := ownSession(svc, w, r)
		if !ok {
			return
		}
		sum, err := svc.Summary(r.Context(), sess.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}
