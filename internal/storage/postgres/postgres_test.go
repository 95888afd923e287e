package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"historyview/internal/history"
	"historyview/internal/models"
	"historyview/internal/storage"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var eventColumns = []string{
	"id", "event_time", "event_type", "object_type",
	"host_name", "host_display_name", "host_checkcommand",
	"service_name", "service_display_name", "service_checkcommand", "payload",
}

var at = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func drain(t *testing.T, src history.Source) []*models.EventRecord {
	t.Helper()
	p, err := history.Paginate(src, 1000, 1)
	require.NoError(t, err)
	items, err := p.Collect(context.Background())
	require.NoError(t, err)
	out := make([]*models.EventRecord, len(items))
	for i, item := range items {
		out[i] = item.Record
	}
	return out
}

func TestHistory_StreamsRecords(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db, zerolog.Nop())

	rows := sqlmock.NewRows(eventColumns).
		AddRow([]byte{0x02}, at, "state_change", "service", "web01", "Web 01", "hostalive",
			"http", "HTTP", "http", []byte(`{"state_type":"hard","hard_state":2,"soft_state":2}`)).
		AddRow([]byte{0x01}, at.Add(-time.Minute), "comment_add", "host", "web01", "Web 01", "hostalive",
			nil, nil, nil, []byte(`{"author":"alice","comment":"hi","entry_time":"2024-03-01T11:00:00Z"}`))
	mock.ExpectQuery(`SELECT .+ FROM event_history\s+WHERE .+ ORDER BY event_time DESC, id DESC\s+LIMIT \$4 OFFSET \$5`).
		WithArgs("", "web01", "", int64(25), 50).
		WillReturnRows(rows)

	src, err := s.History(context.Background(), storage.Query{Offset: 50, Limit: 25, Host: "web01"})
	require.NoError(t, err)
	recs := drain(t, src)
	require.Len(t, recs, 2)

	state, err := recs[0].StateChange()
	require.NoError(t, err)
	assert.Equal(t, 2, state.EffectiveState())
	require.NotNil(t, recs[0].Service)
	assert.Equal(t, "HTTP", recs[0].Service.DisplayName)

	comment, err := recs[1].Comment()
	require.NoError(t, err)
	assert.Equal(t, "alice", comment.Author)
	assert.Nil(t, recs[1].Service)
}

func TestHistory_UnlimitedPassesNullLimit(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db, zerolog.Nop())

	mock.ExpectQuery(`SELECT .+ FROM event_history`).
		WithArgs("host", "", "", nil, 0).
		WillReturnRows(sqlmock.NewRows(eventColumns))

	src, err := s.History(context.Background(), storage.Query{ObjectType: models.ObjectHost})
	require.NoError(t, err)
	assert.Empty(t, drain(t, src))
}

func TestHistory_EventTypeFilter(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db, zerolog.Nop())

	mock.ExpectQuery(`AND \(\$3 = '' OR event_type = \$3\)`).
		WithArgs("", "", "ack_set", int64(10), 0).
		WillReturnRows(sqlmock.NewRows(eventColumns))

	src, err := s.History(context.Background(), storage.Query{Limit: 10, EventType: models.EventAckSet})
	require.NoError(t, err)
	assert.Empty(t, drain(t, src))
}

func TestHistory_BadPayloadDoesNotAbortListing(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db, zerolog.Nop())

	rows := sqlmock.NewRows(eventColumns).
		AddRow([]byte{0x03}, at, "ack_set", "host", "web01", "", "", nil, nil, nil, []byte(`{"set_time":42}`)).
		AddRow([]byte{0x02}, at, "custom_event", "host", "web01", "", "", nil, nil, nil, []byte(`{}`)).
		AddRow([]byte{0x01}, at, "flapping_start", "host", "web01", "", "", nil, nil, nil, nil)
	mock.ExpectQuery(`SELECT .+ FROM event_history`).WillReturnRows(rows)

	src, err := s.History(context.Background(), storage.Query{})
	require.NoError(t, err)
	recs := drain(t, src)
	require.Len(t, recs, 3)
	for _, rec := range recs {
		assert.Nil(t, rec.Payload, rec.ID.String())
	}
	assert.ErrorIs(t, recs[0].Validate(), models.ErrPayloadMismatch)
}

func TestHistory_RowErrorPropagates(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db, zerolog.Nop())

	boom := errors.New("connection reset")
	rows := sqlmock.NewRows(eventColumns).
		AddRow([]byte{0x01}, at, "flapping_start", "host", "web01", "", "", nil, nil, nil, nil).
		RowError(1, boom).
		AddRow([]byte{0x00}, at, "flapping_start", "host", "web01", "", "", nil, nil, nil, nil)
	mock.ExpectQuery(`SELECT .+ FROM event_history`).WillReturnRows(rows)

	src, err := s.History(context.Background(), storage.Query{})
	require.NoError(t, err)

	p, err := history.Paginate(src, 10, 1)
	require.NoError(t, err)
	items, err := p.Collect(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, items, 1)
}

func TestEvent(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db, zerolog.Nop())

	mock.ExpectQuery(`SELECT .+ FROM event_history WHERE id = \$1`).
		WithArgs([]byte{0xab}).
		WillReturnRows(sqlmock.NewRows(eventColumns).
			AddRow([]byte{0xab}, at, "notification", "host", "web01", "Web 01", "hostalive", nil, nil, nil,
				[]byte(`{"type":"problem","send_time":"2024-03-01T12:00:00Z","users_notified":42}`)))

	rec, err := s.Event(context.Background(), models.EventID{0xab})
	require.NoError(t, err)
	n, err := rec.Notification()
	require.NoError(t, err)
	assert.Equal(t, 42, n.UsersNotified)
	assert.Equal(t, "hostalive", rec.CheckCommand())
}

func TestEvent_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db, zerolog.Nop())

	mock.ExpectQuery(`SELECT .+ FROM event_history WHERE id = \$1`).
		WithArgs([]byte{0xcd}).
		WillReturnRows(sqlmock.NewRows(eventColumns))

	_, err := s.Event(context.Background(), models.EventID{0xcd})
	assert.ErrorIs(t, err, storage.ErrEventNotFound)
}

func TestNotifiedUsers_PeekAhead(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db, zerolog.Nop())

	rows := sqlmock.NewRows([]string{"user_name", "user_display_name", "user_email"})
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		rows.AddRow(name, "", "")
	}
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs([]byte{0x01}).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT user_name, user_display_name, user_email\s+FROM notification_recipient`).
		WithArgs([]byte{0x01}, int64(6)).
		WillReturnRows(rows)

	page, err := s.NotifiedUsers(context.Background(), models.EventID{0x01}, 5)
	require.NoError(t, err)
	assert.Len(t, page.Users, 5)
	assert.True(t, page.HasMore)
	assert.Equal(t, "e", page.Users[4].Name)
}

func TestNotifiedUsers_All(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db, zerolog.Nop())

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs([]byte{0x01}).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`FROM notification_recipient`).
		WithArgs([]byte{0x01}, nil).
		WillReturnRows(sqlmock.NewRows([]string{"user_name", "user_display_name", "user_email"}).
			AddRow("alice", "Alice", "alice@example.com"))

	page, err := s.NotifiedUsers(context.Background(), models.EventID{0x01}, 0)
	require.NoError(t, err)
	assert.Equal(t, []models.User{{Name: "alice", DisplayName: "Alice", Email: "alice@example.com"}}, page.Users)
	assert.False(t, page.HasMore)
}

func TestNotifiedUsers_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db, zerolog.Nop())

	boom := errors.New("timeout")
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`FROM notification_recipient`).WillReturnError(boom)

	_, err := s.NotifiedUsers(context.Background(), models.EventID{0x01}, 5)
	assert.ErrorIs(t, err, boom)
}

func TestNotifiedUsers_UnknownEvent(t *testing.T) {
	tests := []struct {
		name   string
		expect func(mock sqlmock.Sqlmock)
		want   error
	}{
		{
			name: "missing",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM event_history WHERE id = \$1\)`).
					WithArgs([]byte{0xee}).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
			},
			want: storage.ErrEventNotFound,
		},
		{
			name: "lookup fails",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT EXISTS`).WillReturnError(sql.ErrConnDone)
			},
			want: sql.ErrConnDone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			s := NewWithDB(db, zerolog.Nop())
			tt.expect(mock)

			page, err := s.NotifiedUsers(context.Background(), models.EventID{0xee}, 5)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, page.Users)
		})
	}
}

func TestNotifications(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db, zerolog.Nop())

	mock.ExpectQuery(`SELECT count\(\*\) FROM event_history WHERE`).
		WithArgs("service", "web01", "notification").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`ORDER BY COALESCE\(\(payload->>'send_time'\)::timestamptz, event_time\) DESC`).
		WithArgs("service", "web01", "notification", int64(2), 2).
		WillReturnRows(sqlmock.NewRows(eventColumns).
			AddRow([]byte{0x05}, at, "notification", "service", "web01", "", "", "http", "", "",
				[]byte(`{"type":"recovery","send_time":"2024-03-01T12:00:00Z","users_notified":1}`)).
			AddRow([]byte{0x04}, at, "notification", "service", "web01", "", "", "http", "", "",
				[]byte(`{"type":"problem","send_time":"2024-03-01T11:00:00Z","users_notified":1}`)))

	list, err := s.Notifications(context.Background(), storage.Query{
		Offset: 2, Limit: 2, ObjectType: models.ObjectService, Host: "web01", EventType: models.EventAckSet,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, list.Total)
	require.Len(t, list.Records, 2)
	assert.Equal(t, "05", list.Records[0].ID.String())
}

func TestNotifications_CountError(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db, zerolog.Nop())

	mock.ExpectQuery(`SELECT count`).WillReturnError(sql.ErrConnDone)

	_, err := s.Notifications(context.Background(), storage.Query{})
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestImport(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db, zerolog.Nop())

	rec := &models.EventRecord{
		ID:         models.EventID{0x01},
		EventTime:  at,
		EventType:  models.EventAckSet,
		ObjectType: models.ObjectService,
		Host:       &models.Host{Name: "web01"},
		Service:    &models.Service{Name: "http"},
		Payload:    &models.AcknowledgementHistory{Author: "alice", SetTime: at},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO event_history`).
		WithArgs([]byte{0x01}, at, "ack_set", "service", "web01", "", "",
			"http", nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM notification_recipient WHERE notification_id = \$1`).
		WithArgs([]byte{0x01}).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO notification_recipient`).
		WithArgs([]byte{0x01}, 0, "bob", "Bob", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Import(context.Background(), storage.Export{
		Events:     []*models.EventRecord{rec},
		Recipients: map[string][]models.User{"01": {{Name: "bob", DisplayName: "Bob"}}},
	})
	require.NoError(t, err)
}

func TestImport_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db, zerolog.Nop())

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO event_history`).WillReturnError(errors.New("duplicate"))
	mock.ExpectRollback()

	err := s.Import(context.Background(), storage.Export{Events: []*models.EventRecord{{
		ID: models.EventID{0x01}, EventTime: at, EventType: models.EventFlappingStart,
		ObjectType: models.ObjectHost, Host: &models.Host{Name: "web01"},
	}}})
	assert.Error(t, err)
}

func TestEnsureSchema(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db, zerolog.Nop())

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS event_history`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, s.EnsureSchema(context.Background()))
}
