package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"historyview/internal/history"
	"historyview/internal/models"
)

// ErrEventNotFound is returned when no history record has the requested id.
var ErrEventNotFound = errors.New("event not found")

// Store is read access to the monitoring history.
type Store interface {
	// History returns the records matching q in timeline order.
	History(ctx context.Context, q Query) (history.Source, error)
	// Event returns a single record by id.
	Event(ctx context.Context, id models.EventID) (*models.EventRecord, error)
	// NotifiedUsers returns up to limit recipients of a notification. A
	// limit below one returns all of them. An unknown id yields
	// ErrEventNotFound.
	NotifiedUsers(ctx context.Context, id models.EventID, limit int) (models.RecipientPage, error)
	// Notifications returns the window of notification records selected by
	// q, newest send time first. Any event type in q is ignored.
	Notifications(ctx context.Context, q Query) (NotificationList, error)
	Close() error
}

// Query selects a window of the timeline. Zero values mean no restriction.
type Query struct {
	Offset     int
	Limit      int
	ObjectType models.ObjectType
	EventType  models.EventType
	Host       string
}

// Matches reports whether rec passes the object type, event type and host
// filters.
func (q Query) Matches(rec *models.EventRecord) bool {
	if q.ObjectType != "" && rec.ObjectType != q.ObjectType {
		return false
	}
	if q.EventType != "" && rec.EventType != q.EventType {
		return false
	}
	if q.Host != "" {
		if rec.Host == nil || !strings.EqualFold(rec.Host.Name, q.Host) {
			return false
		}
	}
	return true
}

// NotificationList is one window of the notification listing. Total counts
// every match regardless of the window.
type NotificationList struct {
	Records []*models.EventRecord
	Total   int
}

// NotificationTime is the instant a notification listing sorts by: the send
// time when the payload carries one, the event time otherwise.
func NotificationTime(rec *models.EventRecord) time.Time {
	if n, err := rec.Notification(); err == nil && !n.SendTime.IsZero() {
		return n.SendTime
	}
	return rec.EventTime
}

// PageQuery converts a 1-based page number and size into a Query window.
func PageQuery(page, limit int) Query {
	if page < 1 {
		page = 1
	}
	return Query{Offset: (page - 1) * limit, Limit: limit}
}

var _ history.RecipientFetcher = Store(nil)
