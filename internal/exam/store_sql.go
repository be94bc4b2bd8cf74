package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-extract/internal/extract"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutExam(ctx context.Context, e Exam) (Exam, error) {
	if err := validateAll(e.Questions); err != nil {
		return Exam{}, err
	}
	qj, err := json.Marshal(e.Questions)
	if err != nil {
		return Exam{}, err
	}
	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `INSERT INTO exams (id,title,source_key,questions_json,revision,created_at,updated_at)
		VALUES ($1,$2,$3,$4,1,$5,$5)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, source_key=EXCLUDED.source_key,
			questions_json=EXCLUDED.questions_json, revision=exams.revision+1, updated_at=EXCLUDED.updated_at`,
		e.ID, e.Title, e.SourceKey, string(qj), now)
	if err != nil {
		return Exam{}, fmt.Errorf("put exam %s: %w", e.ID, err)
	}
	return s.GetExam(ctx, e.ID)
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	return s.getExam(ctx, s.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) getExam(ctx context.Context, q queryer, id string) (Exam, error) {
	row := q.QueryRowContext(ctx, `SELECT id,title,source_key,questions_json,revision,created_at,updated_at FROM exams WHERE id=$1`, id)
	var e Exam
	var qjson string
	if err := row.Scan(&e.ID, &e.Title, &e.SourceKey, &qjson, &e.Revision, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, ErrNotFound
		}
		return Exam{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &e.Questions); err != nil {
		return Exam{}, fmt.Errorf("decode questions of %s: %w", id, err)
	}
	if e.Questions == nil {
		e.Questions = []extract.Question{}
	}
	return e, nil
}

func (s *SQLStore) ListExams(ctx context.Context, opts ListOpts) ([]ExamSummary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id,title,source_key,questions_json,revision,created_at,updated_at FROM exams`
	args := []any{}
	if q := strings.TrimSpace(opts.Q); q != "" {
		query += ` WHERE LOWER(title) LIKE $1`
		args = append(args, "%"+strings.ToLower(q)+"%")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ExamSummary{}
	for rows.Next() {
		var e Exam
		var qjson string
		if err := rows.Scan(&e.ID, &e.Title, &e.SourceKey, &qjson, &e.Revision, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(qjson), &e.Questions); err != nil {
			return nil, fmt.Errorf("decode questions of %s: %w", e.ID, err)
		}
		out = append(out, e.Summary())
	}
	return out, rows.Err()
}

func (s *SQLStore) ReplaceQuestions(ctx context.Context, id string, qs []extract.Question, revision int64) (Exam, error) {
	if err := validateAll(qs); err != nil {
		return Exam{}, err
	}
	return s.update(ctx, id, revision, func([]extract.Question) ([]extract.Question, error) {
		return cloneQuestions(qs), nil
	})
}

func (s *SQLStore) ReviseQuestion(ctx context.Context, id string, index int, revision int64, edit func(*extract.Question)) (Exam, error) {
	return s.update(ctx, id, revision, func(qs []extract.Question) ([]extract.Question, error) {
		return reviseAt(qs, index, edit)
	})
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id string, index int, revision int64) (Exam, error) {
	return s.update(ctx, id, revision, func(qs []extract.Question) ([]extract.Question, error) {
		return deleteAt(qs, index)
	})
}

func (s *SQLStore) DeleteExam(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exams WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// update reads, transforms and writes the question list inside one
// transaction. The UPDATE is guarded on the revision that was read.
func (s *SQLStore) update(ctx context.Context, id string, revision int64, fn func([]extract.Question) ([]extract.Question, error)) (Exam, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Exam{}, err
	}
	defer tx.Rollback()

	e, err := s.getExam(ctx, tx, id)
	if err != nil {
		return Exam{}, err
	}
	if revision != 0 && revision != e.Revision {
		return Exam{}, ErrConflict
	}
	qs, err := fn(e.Questions)
	if err != nil {
		return Exam{}, err
	}
	qj, err := json.Marshal(qs)
	if err != nil {
		return Exam{}, err
	}
	res, err := tx.ExecContext(ctx, `UPDATE exams SET questions_json=$1, revision=revision+1, updated_at=$2 WHERE id=$3 AND revision=$4`,
		string(qj), time.Now().Unix(), id, e.Revision)
	if err != nil {
		return Exam{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Exam{}, ErrConflict
	}
	if err := tx.Commit(); err != nil {
		return Exam{}, err
	}
	return s.GetExam(ctx, id)
}
