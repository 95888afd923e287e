package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"historyview/internal/history"
	"historyview/internal/models"
)

// Export is the on-disk layout of a history snapshot. Recipients are keyed
// by the hex id of the notification record.
type Export struct {
	Events     []*models.EventRecord    `json:"events"`
	Recipients map[string][]models.User `json:"recipients,omitempty"`
}

// FileStore serves history from a JSON export held in memory.
type FileStore struct {
	mu         sync.RWMutex
	path       string
	log        zerolog.Logger
	events     []*models.EventRecord
	byID       map[string]*models.EventRecord
	recipients map[string][]models.User
	modTime    time.Time
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store and loads the export if present.
func NewFileStore(path string, log zerolog.Logger) (*FileStore, error) {
	s := &FileStore{path: path, log: log}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the export file the store reads.
func (s *FileStore) Path() string {
	return s.path
}

// Reload re-reads the export file. A missing file yields an empty history.
// On error the previous snapshot is kept.
func (s *FileStore) Reload() error {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.swap(Export{}, time.Time{})
			return nil
		}
		return fmt.Errorf("stat history: %w", err)
	}

	s.mu.RLock()
	unchanged := !s.modTime.IsZero() && info.ModTime().Equal(s.modTime)
	s.mu.RUnlock()
	if unchanged {
		return nil
	}

	export, err := ReadExport(s.path)
	if err != nil {
		return err
	}
	s.swap(export, info.ModTime())
	s.log.Debug().Int("events", len(export.Events)).Str("path", s.path).Msg("history loaded")
	return nil
}

func (s *FileStore) swap(export Export, modTime time.Time) {
	events := make([]*models.EventRecord, 0, len(export.Events))
	byID := make(map[string]*models.EventRecord, len(export.Events))
	for _, rec := range export.Events {
		if rec == nil {
			continue
		}
		events = append(events, rec)
		byID[rec.ID.String()] = rec
	}
	models.SortTimeline(events)

	recipients := make(map[string][]models.User, len(export.Recipients))
	for id, users := range export.Recipients {
		recipients[strings.ToLower(id)] = users
	}

	s.mu.Lock()
	s.events = events
	s.byID = byID
	s.recipients = recipients
	s.modTime = modTime
	s.mu.Unlock()
}

// History returns a source over the current snapshot. Later reloads do not
// affect a source already handed out.
func (s *FileStore) History(ctx context.Context, q Query) (history.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.EventRecord
	skipped := 0
	for _, rec := range s.events {
		if !q.Matches(rec) {
			continue
		}
		if skipped < q.Offset {
			skipped++
			continue
		}
		matched = append(matched, rec)
		if q.Limit > 0 && len(matched) == q.Limit {
			break
		}
	}
	return history.NewSliceSource(matched), nil
}

// Event looks up a record by id.
func (s *FileStore) Event(ctx context.Context, id models.EventID) (*models.EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return rec, nil
}

// NotifiedUsers returns recipients in the order they were exported.
func (s *FileStore) NotifiedUsers(ctx context.Context, id models.EventID, limit int) (models.RecipientPage, error) {
	if err := ctx.Err(); err != nil {
		return models.RecipientPage{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.byID[id.String()]; !ok {
		return models.RecipientPage{}, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	users := s.recipients[id.String()]
	page := models.RecipientPage{}
	if limit > 0 && len(users) > limit {
		users = users[:limit]
		page.HasMore = true
	}
	page.Users = append([]models.User{}, users...)
	return page, nil
}

// Notifications filters the snapshot to notifications and re-sorts them by
// send time. Ties keep timeline order.
func (s *FileStore) Notifications(ctx context.Context, q Query) (NotificationList, error) {
	if err := ctx.Err(); err != nil {
		return NotificationList{}, err
	}

	q.EventType = models.EventNotification
	s.mu.RLock()
	var matched []*models.EventRecord
	for _, rec := range s.events {
		if q.Matches(rec) {
			matched = append(matched, rec)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return NotificationTime(matched[i]).After(NotificationTime(matched[j]))
	})

	list := NotificationList{Records: []*models.EventRecord{}, Total: len(matched)}
	if q.Offset >= len(matched) {
		return list, nil
	}
	window := matched[max(q.Offset, 0):]
	if q.Limit > 0 && len(window) > q.Limit {
		window = window[:q.Limit]
	}
	list.Records = append(list.Records, window...)
	return list, nil
}

// Len returns the number of records in the snapshot.
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Close is a no-op; the file is not held open.
func (s *FileStore) Close() error {
	return nil
}

// ReadExport parses the export file at path. An empty file is an empty export.
func ReadExport(path string) (Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Export{}, fmt.Errorf("read history: %w", err)
	}

	var export Export
	if len(data) > 0 {
		if err := json.Unmarshal(data, &export); err != nil {
			return Export{}, fmt.Errorf("parse history: %w", err)
		}
	}
	return export, nil
}

// WriteExport atomically replaces the export file at path.
func WriteExport(path string, export Export) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure data directory: %w", err)
	}

	bytes, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", path, time.Now().UnixNano())
	if err := os.WriteFile(tmpPath, bytes, 0o644); err != nil {
		return fmt.Errorf("write temp history: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}
