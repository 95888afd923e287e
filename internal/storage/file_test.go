package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"historyview/internal/history"
	"historyview/internal/models"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func record(id byte, at time.Time, object models.ObjectType, host string) *models.EventRecord {
	rec := &models.EventRecord{
		ID:         models.EventID{id},
		EventTime:  at,
		EventType:  models.EventNotification,
		ObjectType: object,
		Host:       &models.Host{Name: host},
		Payload: &models.NotificationHistory{
			Type:          models.NotificationProblem,
			SendTime:      at,
			UsersNotified: 7,
		},
	}
	if object == models.ObjectService {
		rec.Service = &models.Service{Name: "http"}
	}
	return rec
}

func fixture() Export {
	users := make([]models.User, 7)
	for i := range users {
		users[i] = models.User{Name: string(rune('a' + i))}
	}
	return Export{
		Events: []*models.EventRecord{
			record(0x01, base, models.ObjectHost, "web01"),
			record(0x03, base.Add(2*time.Minute), models.ObjectService, "web01"),
			record(0x02, base.Add(time.Minute), models.ObjectHost, "db01"),
			record(0x04, base.Add(2*time.Minute), models.ObjectHost, "WEB01"),
		},
		Recipients: map[string][]models.User{"01": users},
	}
}

func newFileStore(t *testing.T, export Export) *FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, WriteExport(path, export))
	s, err := NewFileStore(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func ids(t *testing.T, src history.Source) []string {
	t.Helper()
	p, err := history.Paginate(src, 100, 1)
	require.NoError(t, err)
	items, err := p.Collect(context.Background())
	require.NoError(t, err)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Record.ID.String())
	}
	return out
}

func TestFileStore_TimelineOrder(t *testing.T) {
	s := newFileStore(t, fixture())
	assert.Equal(t, 4, s.Len())

	src, err := s.History(context.Background(), Query{})
	require.NoError(t, err)
	// newest first, equal timestamps by descending id
	assert.Equal(t, []string{"04", "03", "02", "01"}, ids(t, src))
}

func TestFileStore_Query(t *testing.T) {
	s := newFileStore(t, fixture())

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"window", Query{Offset: 1, Limit: 2}, []string{"03", "02"}},
		{"offset past end", Query{Offset: 10}, []string{}},
		{"object type", Query{ObjectType: models.ObjectService}, []string{"03"}},
		{"host case insensitive", Query{Host: "web01"}, []string{"04", "03", "01"}},
		{"host and window", Query{Host: "web01", Offset: 1, Limit: 1}, []string{"03"}},
		{"page query", PageQuery(2, 3), []string{"01"}},
		{"event type", Query{EventType: models.EventNotification, Host: "db01"}, []string{"02"}},
		{"other event type", Query{EventType: models.EventAckSet}, []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src, err := s.History(context.Background(), tc.query)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(t, src))
		})
	}
}

func TestFileStore_Event(t *testing.T) {
	s := newFileStore(t, fixture())

	rec, err := s.Event(context.Background(), models.EventID{0x02})
	require.NoError(t, err)
	assert.Equal(t, "db01", rec.Host.Name)

	n, err := rec.Notification()
	require.NoError(t, err)
	assert.Equal(t, 7, n.UsersNotified)

	_, err = s.Event(context.Background(), models.EventID{0xff})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestFileStore_NotifiedUsers(t *testing.T) {
	s := newFileStore(t, fixture())
	ctx := context.Background()

	page, err := s.NotifiedUsers(ctx, models.EventID{0x01}, 5)
	require.NoError(t, err)
	assert.Len(t, page.Users, 5)
	assert.True(t, page.HasMore)
	assert.Equal(t, "a", page.Users[0].Name)

	page, err = s.NotifiedUsers(ctx, models.EventID{0x01}, 0)
	require.NoError(t, err)
	assert.Len(t, page.Users, 7)
	assert.False(t, page.HasMore)

	page, err = s.NotifiedUsers(ctx, models.EventID{0x02}, 5)
	require.NoError(t, err)
	assert.Empty(t, page.Users)

	_, err = s.NotifiedUsers(ctx, models.EventID{0xee}, 5)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestFileStore_Notifications(t *testing.T) {
	sentEarly := record(0x03, base.Add(2*time.Minute), models.ObjectService, "web01")
	sentEarly.Payload.(*models.NotificationHistory).SendTime = base.Add(-time.Minute)
	sentLate := record(0x01, base, models.ObjectHost, "web01")
	sentLate.Payload.(*models.NotificationHistory).SendTime = base.Add(5 * time.Minute)
	ack := &models.EventRecord{
		ID: models.EventID{0x04}, EventTime: base.Add(3 * time.Minute), EventType: models.EventAckSet,
		ObjectType: models.ObjectHost, Host: &models.Host{Name: "web01"},
		Payload: &models.AcknowledgementHistory{SetTime: base},
	}
	s := newFileStore(t, Export{Events: []*models.EventRecord{
		sentEarly, sentLate, record(0x02, base.Add(time.Minute), models.ObjectHost, "web01"), ack,
	}})

	tests := []struct {
		name  string
		query Query
		want  []string
		total int
	}{
		{"by send time", Query{}, []string{"01", "02", "03"}, 3},
		{"window", Query{Offset: 1, Limit: 1}, []string{"02"}, 3},
		{"object type", Query{ObjectType: models.ObjectService}, []string{"03"}, 1},
		{"offset past end", Query{Offset: 5, Limit: 2}, []string{}, 3},
		{"event type ignored", Query{EventType: models.EventAckSet}, []string{"01", "02", "03"}, 3},
		{"unknown host", Query{Host: "db01"}, []string{}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			list, err := s.Notifications(context.Background(), tc.query)
			require.NoError(t, err)
			got := make([]string, 0, len(list.Records))
			for _, rec := range list.Records {
				got = append(got, rec.ID.String())
			}
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.total, list.Total)
		})
	}
}

func TestFileStore_MissingFile(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "absent.json"), zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, s.Len())
}

func TestFileStore_ReloadKeepsSnapshotOnError(t *testing.T) {
	s := newFileStore(t, fixture())

	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(s.Path(), later, later))

	assert.Error(t, s.Reload())
	assert.Equal(t, 4, s.Len())
}

func TestFileStore_ReloadPicksUpChanges(t *testing.T) {
	s := newFileStore(t, fixture())

	require.NoError(t, WriteExport(s.Path(), Export{Events: fixture().Events[:1]}))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(s.Path(), later, later))

	require.NoError(t, s.Reload())
	assert.Equal(t, 1, s.Len())
}

func TestFileStore_CancelledContext(t *testing.T) {
	s := newFileStore(t, fixture())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.History(ctx, Query{})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Event(ctx, models.EventID{0x01})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRefresher_Reloads(t *testing.T) {
	s := newFileStore(t, fixture())
	r := NewRefresher(time.Second, s, zerolog.Nop())
	r.Start()
	defer r.Stop()

	require.NoError(t, WriteExport(s.Path(), Export{}))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(s.Path(), later, later))

	assert.Eventually(t, func() bool { return s.Len() == 0 }, 5*time.Second, 50*time.Millisecond)
}

func TestRefresher_Lifecycle(t *testing.T) {
	tests := []struct {
		name string
		run  func(r *Refresher)
	}{
		{"stop twice", func(r *Refresher) { r.Start(); r.Stop(); r.Stop() }},
		{"stop without start", func(r *Refresher) { r.Stop() }},
		{"start twice", func(r *Refresher) { r.Start(); r.Start(); r.Stop() }},
		{"start after stop", func(r *Refresher) { r.Stop(); r.Start(); r.Stop() }},
		{"concurrent stop", func(r *Refresher) {
			r.Start()
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					r.Stop()
				}()
			}
			wg.Wait()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRefresher(time.Minute, newFileStore(t, Export{}), zerolog.Nop())
			done := make(chan struct{})
			go func() {
				defer close(done)
				tt.run(r)
			}()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("refresher lifecycle did not return")
			}
		})
	}
}

func TestReadExport(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	export, err := ReadExport(empty)
	require.NoError(t, err)
	assert.Empty(t, export.Events)

	_, err = ReadExport(filepath.Join(dir, "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(dir, "history.json")
	require.NoError(t, WriteExport(path, fixture()))
	export, err = ReadExport(path)
	require.NoError(t, err)
	require.Len(t, export.Events, 4)
	n, err := export.Events[0].Notification()
	require.NoError(t, err)
	assert.Equal(t, 7, n.UsersNotified)
	assert.Len(t, export.Recipients["01"], 7)
}
