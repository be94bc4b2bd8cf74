package practice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	syncx "github.com/mind-engage/mindengage-extract/internal/sync"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewInMemoryStore() Store {
	return &memoryStore{sessions: map[string]Session{}}
}

func (m *memoryStore) Create(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.clone()
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s.clone(), nil
}

func (m *memoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[s.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Revision != s.Revision {
		return ErrConflict
	}
	c := s.clone()
	c.Revision++
	m.sessions[s.ID] = c
	return nil
}

func (s Session) clone() Session {
	c := s
	c.Answers = make(map[int]Answer, len(s.Answers))
	for k, v := range s.Answers {
		c.Answers[k] = v
	}
	return c
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Create(ctx context.Context, sess Session) error {
	aj, err := json.Marshal(sess.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO practice_sessions (id,exam_id,user_id,current_index,answers_json,revision,started_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		sess.ID, sess.ExamID, sess.UserID, sess.Current, string(aj), sess.Revision, sess.StartedAt, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,exam_id,user_id,current_index,answers_json,revision,started_at,updated_at
		FROM practice_sessions WHERE id=$1`, id)
	var sess Session
	var aj string
	if err := row.Scan(&sess.ID, &sess.ExamID, &sess.UserID, &sess.Current, &aj, &sess.Revision, &sess.StartedAt, &sess.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	if err := json.Unmarshal([]byte(aj), &sess.Answers); err != nil || sess.Answers == nil {
		sess.Answers = map[int]Answer{}
	}
	return sess, nil
}

func (s *SQLStore) Save(ctx context.Context, sess Session) error {
	aj, err := json.Marshal(sess.Answers)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE practice_sessions SET current_index=$1, answers_json=$2, updated_at=$3, revision=revision+1
		WHERE id=$4 AND revision=$5`,
		sess.Current, string(aj), sess.UpdatedAt, sess.ID, sess.Revision)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.Get(ctx, sess.ID); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

func practiceEvent(sess Session, index int, res Result) syncx.Event {
	buf, _ := json.Marshal(map[string]any{
		"exam_id": sess.ExamID,
		"user_id": sess.UserID,
		"index":   index,
		"correct": res.Correct,
	})
	return syncx.Event{SiteID: "local", Type: "PracticeVerified", Key: sess.ID, DataJSON: string(buf)}
}
