package exam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-extract/internal/extract"
	"github.com/mind-engage/mindengage-extract/internal/storage"
	syncx "github.com/mind-engage/mindengage-extract/internal/sync"
)

// EventLog receives change events; the SQL event repo implements it.
type EventLog interface {
	Append(ctx context.Context, e syncx.Event) error
}

// Service ties extraction to persistence: it keeps the raw pages next to the
// exam so the same input can be extracted again.
type Service struct {
	store     Store
	blobs     storage.BlobStore
	events    EventLog
	extractor *extract.Extractor
}

func NewService(store Store, blobs storage.BlobStore, events EventLog, ex *extract.Extractor) *Service {
	if ex == nil {
		ex = extract.New()
	}
	return &Service{store: store, blobs: blobs, events: events, extractor: ex}
}

func (s *Service) Store() Store { return s.store }

func (s *Service) Extractor() *extract.Extractor { return s.extractor }

// ImportPages extracts questions from pages and stores them as a new exam.
// When nothing could be extracted it returns ErrNoQuestions together with the
// result, so callers can still report the stats.
func (s *Service) ImportPages(ctx context.Context, title string, pages []extract.Page) (Exam, extract.Result, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Exam{}, extract.Result{}, ErrTitleRequired
	}
	res := s.extractor.ExtractPages(pages)
	if res.NoQuestions() {
		return Exam{}, res, ErrNoQuestions
	}

	e := Exam{ID: uuid.NewString(), Title: title, Questions: res.Questions}
	if s.blobs != nil {
		raw, err := json.Marshal(pages)
		if err != nil {
			return Exam{}, res, err
		}
		key := "exams/" + e.ID + "/pages.json"
		if e.SourceKey, err = s.blobs.Put(key, bytes.NewReader(raw)); err != nil {
			return Exam{}, res, fmt.Errorf("store pages: %w", err)
		}
	}
	e, err := s.store.PutExam(ctx, e)
	if err != nil {
		return Exam{}, res, err
	}
	s.emit(ctx, "ExamExtracted", e.ID, res.Stats)
	return e, res, nil
}

// Reextract runs the extractor again over the stored pages and replaces the
// exam's questions, discarding manual revisions.
func (s *Service) Reextract(ctx context.Context, id string, revision int64) (Exam, extract.Result, error) {
	e, err := s.store.GetExam(ctx, id)
	if err != nil {
		return Exam{}, extract.Result{}, err
	}
	if s.blobs == nil || e.SourceKey == "" {
		return Exam{}, extract.Result{}, fmt.Errorf("exam %s has no stored pages", id)
	}
	rc, err := s.blobs.Get(e.SourceKey)
	if err != nil {
		return Exam{}, extract.Result{}, fmt.Errorf("load pages: %w", err)
	}
	defer rc.Close()
	pages, err := DecodePages(rc)
	if err != nil {
		return Exam{}, extract.Result{}, err
	}
	res := s.extractor.ExtractPages(pages)
	if res.NoQuestions() {
		return Exam{}, res, ErrNoQuestions
	}
	e, err = s.store.ReplaceQuestions(ctx, id, res.Questions, revision)
	if err != nil {
		return Exam{}, res, err
	}
	s.emit(ctx, "ExamReextracted", id, res.Stats)
	return e, res, nil
}

func (s *Service) ReviseQuestion(ctx context.Context, id string, index int, revision int64, q extract.Question) (Exam, error) {
	e, err := s.store.ReviseQuestion(ctx, id, index, revision, func(dst *extract.Question) {
		*dst = q.Clone()
	})
	if err != nil {
		return Exam{}, err
	}
	s.emit(ctx, "QuestionRevised", id, map[string]any{"index": index, "revision": e.Revision})
	return e, nil
}

func (s *Service) DeleteQuestion(ctx context.Context, id string, index int, revision int64) (Exam, error) {
	e, err := s.store.DeleteQuestion(ctx, id, index, revision)
	if err != nil {
		return Exam{}, err
	}
	s.emit(ctx, "QuestionDeleted", id, map[string]any{"index": index, "revision": e.Revision})
	return e, nil
}

func (s *Service) DeleteExam(ctx context.Context, id string) error {
	if err := s.store.DeleteExam(ctx, id); err != nil {
		return err
	}
	s.emit(ctx, "ExamDeleted", id, nil)
	return nil
}

// emit is best effort: a failed event append never fails the operation.
func (s *Service) emit(ctx context.Context, typ, key string, data any) {
	if s.events == nil {
		return
	}
	buf, _ := json.Marshal(data)
	if err := s.events.Append(ctx, syncx.Event{SiteID: "local", Type: typ, Key: key, DataJSON: string(buf)}); err != nil {
		log.Printf("event %s %s: %v", typ, key, err)
	}
}

// DecodePages reads the page payload accepted by the import endpoints: either
// a JSON array of pages or an object with a "pages" field.
func DecodePages(r io.Reader) ([]extract.Page, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var pages []extract.Page
		if err := json.Unmarshal(raw, &pages); err != nil {
			return nil, fmt.Errorf("decode pages: %w", err)
		}
		return pages, nil
	}
	var doc struct {
		Pages []extract.Page `json:"pages"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode pages: %w", err)
	}
	return doc.Pages, nil
}
