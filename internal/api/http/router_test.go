package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-extract/internal/auth/middleware"
	"github.com/mind-engage/mindengage-extract/internal/exam"
	"github.com/mind-engage/mindengage-extract/internal/extract"
	"github.com/mind-engage/mindengage-extract/internal/practice"
	"github.com/mind-engage/mindengage-extract/internal/storage"
)

const geoPages = `[{"page":1,"fragments":[
 {"text":"1. Capital of France?","x":50,"y":100,"format":{}},
 {"text":"a) Lyon","x":60,"y":120,"format":{}},
 {"text":"b) Paris","x":60,"y":140,"format":{"underline":true}},
 {"text":"c) Nice","x":60,"y":160,"format":{}},
 {"text":"d) Lille","x":60,"y":180,"format":{}},
 {"text":"2. Madrid is in Spain (V)","x":50,"y":220,"format":{}}
]}]`

const letterPages = `[{"page":1,"fragments":[{"text":"Dear reviewer, nothing here","x":10,"y":10,"format":{}}]}]`

type testServer struct {
	t      *testing.T
	router chi.Router
	auth   *auth.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	blobs, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store := exam.NewInMemoryStore()
	a := auth.NewAuthService("test-key")
	r := NewRouter(Deps{
		Auth:        a,
		Exams:       exam.NewService(store, blobs, nil, extract.New()),
		Practice:    practice.NewService(store, practice.NewInMemoryStore(), nil),
		CORSOrigins: []string{"http://localhost:3000"},
		LocalLogin:  true,
	})
	return &testServer{t: t, router: r, auth: a}
}

func (s *testServer) token(sub, role string) string {
	tok, err := s.auth.IssueJWT(sub, role)
	if err != nil {
		s.t.Fatal(err)
	}
	return tok
}

func (s *testServer) do(method, path, tok, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestExtractEndpoint(t *testing.T) {
	s := newTestServer(t)
	reviewer := s.token("rita", "reviewer")

	if rec := s.do("POST", "/extract", "", geoPages, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status %d", rec.Code)
	}
	if rec := s.do("POST", "/extract", s.token("sam", "student"), geoPages, nil); rec.Code != http.StatusForbidden {
		t.Errorf("student: status %d", rec.Code)
	}

	rec := s.do("POST", "/extract", reviewer, geoPages, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var out struct {
		Questions []extract.Question `json:"questions"`
		Stats     extract.Stats      `json:"stats"`
		Unmarked  []int              `json:"unmarked"`
	}
	decode(t, rec, &out)
	if len(out.Questions) != 2 || out.Stats.Questions != 2 {
		t.Fatalf("got %d questions, stats %+v", len(out.Questions), out.Stats)
	}
	if q := out.Questions[0]; q.CorrectIndex != 1 || q.Type != extract.MultipleChoice {
		t.Errorf("q0 = %+v", q)
	}
	if q := out.Questions[1]; q.CorrectIndex != 0 || q.Type != extract.TrueFalse {
		t.Errorf("q1 = %+v", q)
	}

	rec = s.do("POST", "/extract", reviewer, letterPages, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("no questions: status %d", rec.Code)
	}
	var body noQuestionsBody
	decode(t, rec, &body)
	if body.Error == "" || body.Stats.Pages != 1 {
		t.Errorf("422 body = %+v", body)
	}

	if rec := s.do("POST", "/extract", reviewer, "{", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad json: status %d", rec.Code)
	}
}

func (s *testServer) createExam(tok string) string {
	s.t.Helper()
	rec := s.do("POST", "/exams", tok, `{"title":"Geography","pages":`+geoPages+`}`, nil)
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("create: status %d: %s", rec.Code, rec.Body)
	}
	if etag := rec.Header().Get("ETag"); etag != `"1"` {
		s.t.Errorf("ETag = %q", etag)
	}
	var e struct {
		ID string `json:"id"`
	}
	decode(s.t, rec, &e)
	return e.ID
}

func TestExamLifecycle(t *testing.T) {
	s := newTestServer(t)
	reviewer := s.token("rita", "reviewer")

	rec := s.do("POST", "/exams", reviewer, `{"title":"Empty","pages":`+letterPages+`}`, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("no questions: status %d", rec.Code)
	}
	rec = s.do("POST", "/exams", reviewer, `{"title":" ","pages":`+geoPages+`}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing title: status %d", rec.Code)
	}

	id := s.createExam(reviewer)

	rec = s.do("GET", "/exams", reviewer, "", nil)
	var list []exam.ExamSummary
	decode(t, rec, &list)
	if len(list) != 1 || list[0].ID != id || list[0].Questions != 2 {
		t.Fatalf("list = %+v", list)
	}

	rec = s.do("GET", "/exams/"+id+"/export", reviewer, "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Content-Disposition"), id) {
		t.Fatalf("export: %d %v", rec.Code, rec.Header())
	}
	var wire []map[string]any
	decode(t, rec, &wire)
	if len(wire) != 2 || wire[0]["pregunta"] != "1. Capital of France?" || wire[1]["tipo"] != "V/F" {
		t.Errorf("export = %v", wire)
	}

	rec = s.do("GET", "/exams/"+id+"/export?format=qti", reviewer, "", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/zip" {
		t.Errorf("qti export: %d %v", rec.Code, rec.Header())
	}
	if rec := s.do("GET", "/exams/"+id+"/export?format=pdf", reviewer, "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format: status %d", rec.Code)
	}

	edit := `{"pregunta":"Capital of France?","opciones":["Lyon","Nice","Paris","Lille"],"correcta":2,"tipo":"opcion_multiple"}`
	path := "/exams/" + id + "/questions/0"
	if rec := s.do("PUT", path, reviewer, edit, nil); rec.Code != http.StatusPreconditionRequired {
		t.Errorf("no If-Match: status %d", rec.Code)
	}
	rec = s.do("PUT", path, reviewer, edit, map[string]string{"If-Match": `"1"`})
	if rec.Code != http.StatusOK || rec.Header().Get("ETag") != `"2"` {
		t.Fatalf("revise: %d %s", rec.Code, rec.Body)
	}
	if rec := s.do("PUT", path, reviewer, edit, map[string]string{"If-Match": `"1"`}); rec.Code != http.StatusConflict {
		t.Errorf("stale revision: status %d", rec.Code)
	}
	bad := `{"pregunta":"x","opciones":["a","b"],"correcta":0,"tipo":"opcion_multiple"}`
	if rec := s.do("PUT", path, reviewer, bad, map[string]string{"If-Match": "2"}); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid question: status %d", rec.Code)
	}
	if rec := s.do("PUT", "/exams/"+id+"/questions/9", reviewer, edit, map[string]string{"If-Match": "2"}); rec.Code != http.StatusBadRequest {
		t.Errorf("index out of range: status %d", rec.Code)
	}
	if rec := s.do("PUT", path, s.token("sam", "student"), edit, map[string]string{"If-Match": "2"}); rec.Code != http.StatusForbidden {
		t.Errorf("student edit: status %d", rec.Code)
	}

	rec = s.do("DELETE", "/exams/"+id+"/questions/1", reviewer, "", map[string]string{"If-Match": "2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete question: %d %s", rec.Code, rec.Body)
	}
	var after struct {
		Questions []extract.Question `json:"questions"`
		Revision  int64              `json:"revision"`
	}
	decode(t, rec, &after)
	if len(after.Questions) != 1 || after.Revision != 3 || after.Questions[0].CorrectIndex != 2 {
		t.Errorf("after delete = %+v", after)
	}

	if rec := s.do("POST", "/exams/"+id+"/reextract", reviewer, "", map[string]string{"If-Match": "3"}); rec.Code != http.StatusOK {
		t.Fatalf("reextract: %d %s", rec.Code, rec.Body)
	}
	rec = s.do("GET", "/exams/"+id, reviewer, "", nil)
	decode(t, rec, &after)
	if len(after.Questions) != 2 || after.Revision != 4 {
		t.Errorf("after reextract = %+v", after)
	}

	if rec := s.do("DELETE", "/exams/"+id, reviewer, "", nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete exam: status %d", rec.Code)
	}
	if rec := s.do("GET", "/exams/"+id, reviewer, "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("deleted exam: status %d", rec.Code)
	}
}

func TestPracticeFlow(t *testing.T) {
	s := newTestServer(t)
	id := s.createExam(s.token("rita", "reviewer"))
	student := s.token("sam", "student")

	rec := s.do("POST", "/practice", student, `{"exam_id":"`+id+`"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: %d %s", rec.Code, rec.Body)
	}
	var view sessionView
	decode(t, rec, &view)
	if view.Question.Index != 0 || len(view.Question.Options) != 4 || view.Question.Selected != nil {
		t.Fatalf("start view = %+v", view)
	}
	base := "/practice/" + view.Session.ID

	rec = s.do("POST", base+"/answers", student, `{"index":0,"choice":"a","verify":false}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("select: %d %s", rec.Code, rec.Body)
	}
	decode(t, rec, &view)
	if view.Question.Selected == nil || *view.Question.Selected != 0 || view.Question.Verified {
		t.Errorf("select view = %+v", view.Question)
	}

	rec = s.do("POST", base+"/answers", student, `{"index":0,"choice":"B"}`, nil)
	var res practice.Result
	decode(t, rec, &res)
	if !res.Correct || res.CorrectLabel != "B" || res.CorrectText != "Paris" {
		t.Errorf("answer = %+v", res)
	}

	rec = s.do("POST", base+"/navigate", student, `{"direction":"next"}`, nil)
	decode(t, rec, &view)
	if view.Question.Index != 1 || view.Question.Type != extract.TrueFalse {
		t.Fatalf("navigate = %+v", view.Question)
	}
	if rec := s.do("POST", base+"/navigate", student, `{"direction":"next"}`, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("past the end: status %d", rec.Code)
	}

	rec = s.do("POST", base+"/answers", student, `{"index":1,"choice":"F"}`, nil)
	decode(t, rec, &res)
	if res.Correct || res.CorrectLabel != "V" {
		t.Errorf("tf answer = %+v", res)
	}
	if rec := s.do("POST", base+"/answers", student, `{"index":1,"choice":"maybe"}`, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad choice: status %d", rec.Code)
	}

	rec = s.do("GET", base+"/summary", student, "", nil)
	var sum practice.Summary
	decode(t, rec, &sum)
	if sum.Total != 2 || sum.Verified != 2 || sum.Correct != 1 || sum.Percentage != 50 || !sum.Finished {
		t.Errorf("summary = %+v", sum)
	}

	if rec := s.do("GET", base, s.token("eve", "student"), "", nil); rec.Code != http.StatusForbidden {
		t.Errorf("other student: status %d", rec.Code)
	}
	if rec := s.do("GET", base, s.token("root", "admin"), "", nil); rec.Code != http.StatusOK {
		t.Errorf("admin: status %d", rec.Code)
	}
	if rec := s.do("GET", "/practice/nope", student, "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown session: status %d", rec.Code)
	}
}

func TestLoginAndHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do("POST", "/auth/login", "", `{"username":"sam","password":"sam","role":"student"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d", rec.Code)
	}
	var out map[string]string
	decode(t, rec, &out)
	if rec := s.do("GET", "/exams", out["access_token"], "", nil); rec.Code != http.StatusOK {
		t.Errorf("student list: status %d", rec.Code)
	}
	for _, p := range []string{"/healthz", "/readyz"} {
		if rec := s.do("GET", p, "", "", nil); rec.Code != http.StatusOK {
			t.Errorf("%s: status %d", p, rec.Code)
		}
	}
}
