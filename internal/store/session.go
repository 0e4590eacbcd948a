package store

import (
	"database/sql"
	"errors"
	"time"
)

// Session is the record of one recognition session. Recognized text is never
// stored, only timing and the number of committed words.
type Session struct {
	ID        string
	StartedAt time.Time
	EndedAt   *time.Time
	Words     int
}

// SessionRepository records recognition sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Start records the beginning of a session.
func (r *SessionRepository) Start(id string, at time.Time) error {
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, started_at) VALUES (?, ?)`,
		id, at,
	)
	return err
}

// End marks a session finished with its committed word count.
func (r *SessionRepository) End(id string, at time.Time, words int) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ?, words = ? WHERE id = ?`,
		at, words, id,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	s := &Session{}
	var endedAt sql.NullTime

	err := r.db.QueryRow(
		`SELECT id, started_at, ended_at, words FROM sessions WHERE id = ?`,
		id,
	).Scan(&s.ID, &s.StartedAt, &endedAt, &s.Words)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if endedAt.Valid {
		s.EndedAt = &endedAt.Time
	}
	return s, nil
}

// Recent returns up to limit sessions, newest first.
func (r *SessionRepository) Recent(limit int) ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, started_at, ended_at, words FROM sessions
		 ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s := &Session{}
		var endedAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.StartedAt, &endedAt, &s.Words); err != nil {
			return nil, err
		}
		if endedAt.Valid {
			s.EndedAt = &endedAt.Time
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}
