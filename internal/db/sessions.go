package db

import (
	"context"
	"database/sql"
	"time"
)

// Session is one stored analysis result, addressable by its UUID.
type Session struct {
	ID          string
	CreatedAt   time.Time
	SummaryJSON string
}

const createSession = `
INSERT INTO sessions (id, created_at, summary_json)
VALUES (?, ?, ?)
`

// CreateSession stores an analysis result under the given session ID.
func (q *Queries) CreateSession(ctx context.Context, id string, summaryJSON string) error {
	_, err := q.db.ExecContext(ctx, createSession, id, time.Now().UTC(), summaryJSON)
	return err
}

const getSession = `
SELECT id, created_at, summary_json
FROM sessions
WHERE id = ?
`

// GetSession loads one session by ID. Returns sql.ErrNoRows when absent.
func (q *Queries) GetSession(ctx context.Context, id string) (Session, error) {
	var s Session
	err := q.db.QueryRowContext(ctx, getSession, id).Scan(&s.ID, &s.CreatedAt, &s.SummaryJSON)
	return s, err
}

const deleteSessionsBefore = `
DELETE FROM sessions
WHERE created_at < ?
`

// DeleteSessionsBefore removes sessions created before the cutoff, returning
// the number deleted.
func (q *Queries) DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteSessionsBefore, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countSessions = `
SELECT COUNT(*) FROM sessions
`

// CountSessions reports the number of stored sessions.
func (q *Queries) CountSessions(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countSessions).Scan(&count)
	return count, err
}

const oldestSession = `
SELECT MIN(created_at) FROM sessions
`

// OldestSessionTime reports the creation time of the oldest stored session.
// The bool is false when no sessions exist.
func (q *Queries) OldestSessionTime(ctx context.Context) (time.Time, bool, error) {
	var ts sql.NullTime
	if err := q.db.QueryRowContext(ctx, oldestSession).Scan(&ts); err != nil {
		return time.Time{}, false, err
	}
	if !ts.Valid {
		return time.Time{}, false, nil
	}
	return ts.Time, true, nil
}
