package history

import (
	"context"
	"time"

	"historyview/internal/models"
)

// Entry is one rendered timeline row: a page marker or resolved facts.
type Entry struct {
	Marker *models.PageMarker `json:"marker,omitempty"`
	Event  *Facts             `json:"event,omitempty"`
}

// SkipFunc is told about records that could not be resolved.
type SkipFunc func(rec *models.EventRecord, err error)

// Render drains p and resolves every record against now. A record that
// fails to resolve is reported to skip and left out; the rest of the
// sequence is still rendered. Source errors end rendering and are returned
// with the entries produced so far.
func Render(ctx context.Context, p *Paginator, r *Resolver, now time.Time, skip SkipFunc) ([]Entry, error) {
	entries := []Entry{}
	for p.Next(ctx) {
		item := p.Item()
		if item.IsMarker() {
			entries = append(entries, Entry{Marker: item.Marker})
			continue
		}
		facts, err := r.Resolve(item.Record, now)
		if err != nil {
			if skip != nil {
				skip(item.Record, err)
			}
			continue
		}
		entries = append(entries, Entry{Event: &facts})
	}
	return entries, p.Err()
}
