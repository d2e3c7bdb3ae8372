package calls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"catapult-platform/pkg/utils"
)

// Schema creates the tables used by PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS calls (
	workspace_id  TEXT NOT NULL,
	call_id       TEXT NOT NULL,
	direction     TEXT NOT NULL,
	from_number   TEXT NOT NULL,
	to_number     TEXT NOT NULL,
	status        TEXT NOT NULL,
	cause         TEXT NOT NULL DEFAULT '',
	duration      INT  NOT NULL DEFAULT 0,
	answered_at   TIMESTAMPTZ,
	recording_url TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (workspace_id, call_id)
);
CREATE TABLE IF NOT EXISTS messages (
	workspace_id TEXT NOT NULL,
	message_id   TEXT NOT NULL,
	direction    TEXT NOT NULL,
	from_number  TEXT NOT NULL,
	to_number    TEXT NOT NULL,
	text         TEXT NOT NULL DEFAULT '',
	state        TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (workspace_id, message_id)
);`

const callColumns = `call_id, workspace_id, direction, from_number, to_number, status, cause, duration, answered_at, recording_url, created_at, updated_at`

// PostgresStore is a Store backed by database/sql with the pgx driver.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates missing tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, Schema)
		return err
	})
}

func (s *PostgresStore) SaveCall(ctx context.Context, c Call) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO calls (`+callColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (workspace_id, call_id) DO UPDATE SET
	status = EXCLUDED.status,
	cause = EXCLUDED.cause,
	duration = EXCLUDED.duration,
	answered_at = EXCLUDED.answered_at,
	recording_url = EXCLUDED.recording_url,
	updated_at = EXCLUDED.updated_at`,
		c.CallID, c.WorkspaceID, string(c.Direction), c.From, c.To, string(c.Status), c.Cause,
		c.DurationSeconds, nullTime(c.AnsweredAt), c.RecordingURL, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("calls: save call %s: %w", c.CallID, err)
	}
	return nil
}

// errCallInserted reports that a concurrent writer created the row first.
var errCallInserted = errors.New("calls: row inserted concurrently")

// UpdateCall locks the row with SELECT ... FOR UPDATE. When the row is
// missing it is inserted with ON CONFLICT DO NOTHING, and a lost insert
// race is retried against the winner's row.
func (s *PostgresStore) UpdateCall(ctx context.Context, workspaceID, callID string, fn UpdateFunc) (Call, error) {
	if workspaceID == "" || callID == "" {
		return Call{}, errors.New("calls: workspace_id and call_id required")
	}
	for attempt := 0; ; attempt++ {
		var out Call
		err := utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
			row := tx.QueryRowContext(ctx,
				`SELECT `+callColumns+` FROM calls WHERE workspace_id = $1 AND call_id = $2 FOR UPDATE`,
				workspaceID, callID)
			c, err := scanCall(row)
			found := true
			switch {
			case errors.Is(err, sql.ErrNoRows):
				found = false
				c = Call{CallID: callID, WorkspaceID: workspaceID}
			case err != nil:
				return err
			}
			out = c
			if !fn(&c, found) {
				return nil
			}
			c.WorkspaceID, c.CallID = workspaceID, callID
			out = c

			if found {
				_, err = tx.ExecContext(ctx, `
UPDATE calls SET direction = $3, from_number = $4, to_number = $5, status = $6, cause = $7,
	duration = $8, answered_at = $9, recording_url = $10, updated_at = $11
WHERE workspace_id = $1 AND call_id = $2`,
					workspaceID, callID, string(c.Direction), c.From, c.To, string(c.Status), c.Cause,
					c.DurationSeconds, nullTime(c.AnsweredAt), c.RecordingURL, c.UpdatedAt)
				return err
			}
			res, err := tx.ExecContext(ctx, `
INSERT INTO calls (`+callColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (workspace_id, call_id) DO NOTHING`,
				c.CallID, c.WorkspaceID, string(c.Direction), c.From, c.To, string(c.Status), c.Cause,
				c.DurationSeconds, nullTime(c.AnsweredAt), c.RecordingURL, c.CreatedAt, c.UpdatedAt)
			if err != nil {
				return err
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return errCallInserted
			}
			return nil
		})
		if errors.Is(err, errCallInserted) && attempt == 0 {
			continue
		}
		if err != nil {
			return Call{}, fmt.Errorf("calls: update call %s: %w", callID, err)
		}
		return out, nil
	}
}

func (s *PostgresStore) GetCall(ctx context.Context, workspaceID, callID string) (Call, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+callColumns+` FROM calls WHERE workspace_id = $1 AND call_id = $2`,
		workspaceID, callID)
	c, err := scanCall(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Call{}, ErrNotFound
	}
	if err != nil {
		return Call{}, fmt.Errorf("calls: get call %s: %w", callID, err)
	}
	return c, nil
}

func (s *PostgresStore) ListCalls(ctx context.Context, workspaceID string, limit int) ([]Call, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+callColumns+` FROM calls WHERE workspace_id = $1 ORDER BY created_at DESC LIMIT $2`,
		workspaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("calls: list calls: %w", err)
	}
	defer rows.Close()

	var out []Call
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, fmt.Errorf("calls: list calls: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveMessage(ctx context.Context, m Message) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO messages (message_id, workspace_id, direction, from_number, to_number, text, state, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (workspace_id, message_id) DO UPDATE SET
	state = EXCLUDED.state,
	updated_at = EXCLUDED.updated_at`,
		m.MessageID, m.WorkspaceID, string(m.Direction), m.From, m.To, m.Text, m.State, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("calls: save message %s: %w", m.MessageID, err)
	}
	return nil
}

func (s *PostgresStore) GetMessage(ctx context.Context, workspaceID, messageID string) (Message, error) {
	var m Message
	var dir string
	err := s.db.QueryRowContext(ctx, `
SELECT message_id, workspace_id, direction, from_number, to_number, text, state, created_at, updated_at
FROM messages WHERE workspace_id = $1 AND message_id = $2`, workspaceID, messageID).
		Scan(&m.MessageID, &m.WorkspaceID, &dir, &m.From, &m.To, &m.Text, &m.State, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	if err != nil {
		return Message{}, fmt.Errorf("calls: get message %s: %w", messageID, err)
	}
	m.Direction = Direction(dir)
	return m, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCall(r scanner) (Call, error) {
	var (
		c           Call
		dir, status string
		answeredAt  sql.NullTime
	)
	err := r.Scan(&c.CallID, &c.WorkspaceID, &dir, &c.From, &c.To, &status, &c.Cause,
		&c.DurationSeconds, &answeredAt, &c.RecordingURL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Call{}, err
	}
	c.Direction = Direction(dir)
	c.Status = CallStatus(status)
	if answeredAt.Valid {
		t := answeredAt.Time
		c.AnsweredAt = &t
	}
	return c, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
