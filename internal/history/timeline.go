package history

import (
	"context"
	"errors"
	"io"

	"historyview/internal/models"
)

// ErrInvalidPageSize is returned for page sizes below one.
var ErrInvalidPageSize = errors.New("page size must be positive")

// Source yields history records in timeline order. Next returns io.EOF once
// the source is exhausted.
type Source interface {
	Next(ctx context.Context) (*models.EventRecord, error)
}

// SliceSource serves records from memory.
type SliceSource struct {
	records []*models.EventRecord
	pos     int
}

// NewSliceSource wraps records without copying them.
func NewSliceSource(records []*models.EventRecord) *SliceSource {
	return &SliceSource{records: records}
}

func (s *SliceSource) Next(ctx context.Context) (*models.EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

// Item is one element of a paginated timeline: either a record or a page
// marker, never both.
type Item struct {
	Record *models.EventRecord
	Marker *models.PageMarker
}

// IsMarker reports whether the item is a page break.
func (i Item) IsMarker() bool {
	return i.Marker != nil
}

// Paginator interleaves page markers into a record source. It is single pass:
// once Next returns false the paginator is spent. At most one record is held
// back at a time.
type Paginator struct {
	source   Source
	pageSize int
	page     int

	count   int
	started bool
	pending *models.EventRecord

	item Item
	err  error
	done bool
}

// Paginate wraps source. startPage below one is treated as one; a start page
// above one opens the sequence with a marker for that page.
func Paginate(source Source, pageSize, startPage int) (*Paginator, error) {
	if pageSize < 1 {
		return nil, ErrInvalidPageSize
	}
	if startPage < 1 {
		startPage = 1
	}
	return &Paginator{
		source:   source,
		pageSize: pageSize,
		page:     startPage,
	}, nil
}

// Next advances to the next item. It returns false when the source is
// exhausted or failed; Err tells the two apart.
func (p *Paginator) Next(ctx context.Context) bool {
	if p.done {
		return false
	}

	if !p.started {
		p.started = true
		if p.page > 1 {
			p.item = Item{Marker: &models.PageMarker{PageNumber: p.page}}
			return true
		}
	}

	rec := p.pending
	p.pending = nil
	if rec == nil {
		var err error
		rec, err = p.source.Next(ctx)
		if err != nil {
			p.done = true
			p.item = Item{}
			if !errors.Is(err, io.EOF) {
				p.err = err
			}
			return false
		}
		k := p.count + 1
		if k > p.pageSize && (k-1)%p.pageSize == 0 {
			p.pending = rec
			p.item = Item{Marker: &models.PageMarker{PageNumber: p.page}}
			return true
		}
	}

	p.count++
	if p.count%p.pageSize == 0 {
		p.page++
	}
	p.item = Item{Record: rec}
	return true
}

// Item returns the current item. It is only valid after Next returned true.
func (p *Paginator) Item() Item {
	return p.item
}

// Err returns the source error that stopped iteration, if any. Exhaustion is
// not an error.
func (p *Paginator) Err() error {
	return p.err
}

// Collect drains the paginator.
func (p *Paginator) Collect(ctx context.Context) ([]Item, error) {
	var items []Item
	for p.Next(ctx) {
		items = append(items, p.Item())
	}
	return items, p.Err()
}
