package calls

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db), mock
}

var callCols = []string{"call_id", "workspace_id", "direction", "from_number", "to_number", "status", "cause", "duration", "answered_at", "recording_url", "created_at", "updated_at"}

func TestPostgresStore_SaveCall(t *testing.T) {
	s, mock := newMockStore(t)
	c := Call{CallID: "c-1", WorkspaceID: "ws-1", Direction: DirectionOutbound, From: "+1", To: "+2", Status: CallStatusQueued, CreatedAt: t0, UpdatedAt: t0}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO calls")).
		WithArgs("c-1", "ws-1", "outbound", "+1", "+2", "queued", "", 0, nil, "", t0, t0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.SaveCall(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCall(t *testing.T) {
	s, mock := newMockStore(t)
	answered := t0.Add(3e9)

	mock.ExpectQuery("SELECT (.+) FROM calls WHERE workspace_id = \\$1 AND call_id = \\$2").
		WithArgs("ws-1", "c-1").
		WillReturnRows(sqlmock.NewRows(callCols).
			AddRow("c-1", "ws-1", "inbound", "+1", "+2", "completed", "NORMAL_CLEARING", 42, answered, "", t0, t0))

	c, err := s.GetCall(context.Background(), "ws-1", "c-1")
	require.NoError(t, err)
	assert.Equal(t, CallStatusCompleted, c.Status)
	assert.Equal(t, DirectionInbound, c.Direction)
	assert.Equal(t, 42, c.DurationSeconds)
	require.NotNil(t, c.AnsweredAt)
	assert.True(t, answered.Equal(*c.AnsweredAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCallNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT (.+) FROM calls").WillReturnRows(sqlmock.NewRows(callCols))

	_, err := s.GetCall(context.Background(), "ws-1", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_ListCallsDefaultsLimit(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("ORDER BY created_at DESC LIMIT").
		WithArgs("ws-1", 100).
		WillReturnRows(sqlmock.NewRows(callCols).
			AddRow("c-1", "ws-1", "inbound", "+1", "+2", "ringing", "", 0, nil, "", t0, t0).
			AddRow("c-2", "ws-1", "outbound", "+1", "+3", "queued", "", 0, nil, "", t0, t0))

	got, err := s.ListCalls(context.Background(), "ws-1", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].AnsweredAt)
	assert.Equal(t, "c-2", got[1].CallID)
}

func TestPostgresStore_Messages(t *testing.T) {
	s, mock := newMockStore(t)
	m := Message{MessageID: "m-1", WorkspaceID: "ws-1", Direction: DirectionOutbound, From: "+1", To: "+2", Text: "hi", State: "sending", CreatedAt: t0, UpdatedAt: t0}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO messages")).
		WithArgs("m-1", "ws-1", "outbound", "+1", "+2", "hi", "sending", t0, t0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM messages").
		WithArgs("ws-1", "m-1").
		WillReturnRows(sqlmock.NewRows([]string{"message_id", "workspace_id", "direction", "from_number", "to_number", "text", "state", "created_at", "updated_at"}).
			AddRow("m-1", "ws-1", "outbound", "+1", "+2", "hi", "delivered", t0, t0))

	require.NoError(t, s.SaveMessage(context.Background(), m))
	got, err := s.GetMessage(context.Background(), "ws-1", "m-1")
	require.NoError(t, err)
	assert.Equal(t, "delivered", got.State)
	assert.Equal(t, DirectionOutbound, got.Direction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS calls").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateCallLocksRow(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM calls WHERE workspace_id = $1 AND call_id = $2 FOR UPDATE")).
		WithArgs("ws-1", "c-1").
		WillReturnRows(sqlmock.NewRows(callCols).
			AddRow("c-1", "ws-1", "outbound", "+1", "+2", "in_progress", "", 0, t0, "", t0, t0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE calls SET")).
		WithArgs("ws-1", "c-1", "outbound", "+1", "+2", "completed", "NORMAL_CLEARING", 30, sqlmock.AnyArg(), "", t0.Add(30e9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, err := s.UpdateCall(context.Background(), "ws-1", "c-1", func(c *Call, found bool) bool {
		require.True(t, found)
		c.Status = CallStatusCompleted
		c.Cause = "NORMAL_CLEARING"
		c.DurationSeconds = 30
		c.UpdatedAt = t0.Add(30e9)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, CallStatusCompleted, c.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateCallRetriesLostInsert(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("ws-1", "c-9").WillReturnRows(sqlmock.NewRows(callCols))
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (workspace_id, call_id) DO NOTHING")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("ws-1", "c-9").
		WillReturnRows(sqlmock.NewRows(callCols).
			AddRow("c-9", "ws-1", "inbound", "+1", "+2", "busy", "USER_BUSY", 0, nil, "", t0, t0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE calls SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var seen []bool
	c, err := s.UpdateCall(context.Background(), "ws-1", "c-9", func(c *Call, found bool) bool {
		seen = append(seen, found)
		if !found {
			c.Status = CallStatusQueued
			c.CreatedAt, c.UpdatedAt = t0, t0
		}
		c.Direction = DirectionOutbound
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, seen)
	assert.Equal(t, CallStatusBusy, c.Status)
	assert.Equal(t, DirectionOutbound, c.Direction)
	assert.NoError(t, mock.ExpectationsWereMet())
}
