package practice

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-extract/internal/db"
	"github.com/mind-engage/mindengage-extract/internal/exam"
	"github.com/mind-engage/mindengage-extract/internal/extract"
)

func seedExam(t *testing.T, store exam.Store) exam.Exam {
	t.Helper()
	mc, _ := extract.NewMultipleChoice("1. What is 2+2?", [extract.OptionCount]string{"3", "4", "5", "6"}, 1)
	tf, _ := extract.NewTrueFalse("2. Water is wet", true)
	tf2, _ := extract.NewTrueFalse("3. Fire is cold", false)
	e, err := store.PutExam(context.Background(), exam.Exam{ID: "e1", Title: "Quiz", Questions: []extract.Question{mc, tf, tf2}})
	if err != nil {
		t.Fatalf("seed exam: %v", err)
	}
	return e
}

func TestGraderChecks(t *testing.T) {
	g := NewDefaultGrader()
	mc, _ := extract.NewMultipleChoice("Q", [extract.OptionCount]string{"a", "b", "c", "d"}, 2)

	res, err := g.Check(mc, 2)
	if err != nil || !res.Correct || res.CorrectLabel != "C" || res.CorrectText != "c" {
		t.Errorf("correct choice: %+v %v", res, err)
	}
	res, _ = g.Check(mc, 0)
	if res.Correct {
		t.Error("wrong choice marked correct")
	}
	if _, err := g.Check(mc, 4); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("out of range: %v", err)
	}

	tf, _ := extract.NewTrueFalse("Q", false)
	res, _ = g.Check(tf, 1)
	if !res.Correct || res.CorrectLabel != "F" || res.CorrectText != "Falso" {
		t.Errorf("true/false: %+v", res)
	}
	if _, err := g.Check(tf, 2); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("tf out of range: %v", err)
	}
	if _, err := g.Check(extract.Question{Type: "essay"}, 0); err == nil {
		t.Error("unknown type should error")
	}
}

func TestParseChoice(t *testing.T) {
	mc, _ := extract.NewMultipleChoice("Q", [extract.OptionCount]string{"a", "b", "c", "d"}, 0)
	tf, _ := extract.NewTrueFalse("Q", true)
	cases := []struct {
		q    extract.Question
		in   string
		want int
		err  bool
	}{
		{mc, "B", 1, false},
		{mc, " d) ", 3, false},
		{mc, "2", 2, false},
		{mc, "ab", 0, true},
		{tf, "V", 0, false},
		{tf, "Falso", 1, false},
		{tf, "true", 0, false},
		{tf, "maybe", 0, true},
		{tf, "", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseChoice(tc.q, tc.in)
		if (err != nil) != tc.err || (!tc.err && got != tc.want) {
			t.Errorf("ParseChoice(%q) = %d, %v", tc.in, got, err)
		}
	}
}

func sessionStores() map[string]func(*testing.T) Store {
	return map[string]func(*testing.T) Store{
		"memory": func(*testing.T) Store { return NewInMemoryStore() },
		"sqlite": func(t *testing.T) Store {
			dsn := fmt.Sprintf("file:practice_%d?mode=memory&cache=shared", time.Now().UnixNano())
			dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			t.Cleanup(func() { dbh.Close() })
			// sessions reference exams, so seed the same database
			seedExam(t, exam.NewSQLStore(dbh, "sqlite"))
			return NewSQLStore(dbh)
		},
	}
}

func TestServiceFlow(t *testing.T) {
	for name, mk := range sessionStores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			exams := exam.NewInMemoryStore()
			seedExam(t, exams)
			svc := NewService(exams, mk(t), nil)

			sess, err := svc.Start(ctx, "e1", "ana")
			if err != nil {
				t.Fatalf("Start: %v", err)
			}

			if _, err := svc.Verify(ctx, sess.ID, 0); !errors.Is(err, ErrNoSelection) {
				t.Errorf("verify before select: %v", err)
			}
			res, err := svc.Answer(ctx, sess.ID, 0, 1)
			if err != nil || !res.Correct {
				t.Fatalf("Answer q0: %+v %v", res, err)
			}
			res, err = svc.Answer(ctx, sess.ID, 1, 1)
			if err != nil || res.Correct || res.CorrectLabel != "V" {
				t.Fatalf("Answer q1: %+v %v", res, err)
			}
			if _, err := svc.Select(ctx, sess.ID, 2, 1); err != nil {
				t.Fatalf("Select q2: %v", err)
			}

			sum, err := svc.Summary(ctx, sess.ID)
			if err != nil {
				t.Fatalf("Summary: %v", err)
			}
			if sum.Total != 3 || sum.Answered != 3 || sum.Verified != 2 || sum.Correct != 1 || sum.Percentage != 50 {
				t.Errorf("summary = %+v", sum)
			}
			if !sum.Finished {
				t.Error("current question is the last one")
			}

			q, err := svc.Question(ctx, sess.ID, 2)
			if err != nil || q.Type != extract.TrueFalse || q.CorrectIndex != 1 {
				t.Errorf("Question(2) = %+v, %v", q, err)
			}
			if _, err := svc.Question(ctx, sess.ID, -1); !errors.Is(err, exam.ErrIndex) {
				t.Errorf("Question(-1): %v", err)
			}

			if _, err := svc.Navigate(ctx, sess.ID, 0); err != nil {
				t.Fatalf("Navigate: %v", err)
			}
			if _, err := svc.Navigate(ctx, sess.ID, 3); !errors.Is(err, exam.ErrIndex) {
				t.Errorf("navigate out of range: %v", err)
			}
			if _, err := svc.Select(ctx, sess.ID, 0, 7); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("bad choice: %v", err)
			}

			// changing a verified answer clears its verification
			if _, err := svc.Select(ctx, sess.ID, 0, 2); err != nil {
				t.Fatal(err)
			}
			sum, _ = svc.Summary(ctx, sess.ID)
			if sum.Verified != 1 || sum.Correct != 0 || sum.Percentage != 0 {
				t.Errorf("after reselect = %+v", sum)
			}
		})
	}
}

func TestServiceStartErrors(t *testing.T) {
	ctx := context.Background()
	exams := exam.NewInMemoryStore()
	svc := NewService(exams, NewInMemoryStore(), nil)
	if _, err := svc.Start(ctx, "nope", "u"); !errors.Is(err, exam.ErrNotFound) {
		t.Errorf("missing exam: %v", err)
	}
	if _, err := svc.Summary(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing session: %v", err)
	}
}

func TestSessionStoreRejectsStaleSave(t *testing.T) {
	for name, mk := range sessionStores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := mk(t)
			sess := Session{ID: "s1", ExamID: "e1", UserID: "ana", Answers: map[int]Answer{}, Revision: 1}
			if err := st.Create(ctx, sess); err != nil {
				t.Fatal(err)
			}
			first, _ := st.Get(ctx, "s1")
			second, _ := st.Get(ctx, "s1")

			first.Answers[0] = Answer{Choice: 1}
			if err := st.Save(ctx, first); err != nil {
				t.Fatalf("first save: %v", err)
			}
			second.Answers[0] = Answer{Choice: 2}
			if err := st.Save(ctx, second); !errors.Is(err, ErrConflict) {
				t.Fatalf("stale save: %v", err)
			}
			got, err := st.Get(ctx, "s1")
			if err != nil || got.Revision != 2 || got.Answers[0].Choice != 1 {
				t.Errorf("stored = %+v, %v", got, err)
			}
			if err := st.Save(ctx, Session{ID: "missing", Revision: 1}); !errors.Is(err, ErrNotFound) {
				t.Errorf("missing session: %v", err)
			}
		})
	}
}

func TestServiceTracksRevision(t *testing.T) {
	ctx := context.Background()
	exams := exam.NewInMemoryStore()
	seedExam(t, exams)
	sessions := NewInMemoryStore()
	svc := NewService(exams, sessions, nil)

	sess, err := svc.Start(ctx, "e1", "ana")
	if err != nil {
		t.Fatal(err)
	}
	stale, _ := sessions.Get(ctx, sess.ID)
	got, err := svc.Select(ctx, sess.ID, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if stored, _ := sessions.Get(ctx, sess.ID); got.Revision != stored.Revision || stored.Revision != 2 {
		t.Errorf("returned revision %d, stored %d", got.Revision, stored.Revision)
	}
	stale.Current = 2
	if err := sessions.Save(ctx, stale); !errors.Is(err, ErrConflict) {
		t.Errorf("concurrent writer: %v", err)
	}
}
