// Package i18n is the formatting service used by the history renderer: it
// turns message keys, dates and durations into display text.
package i18n

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// DefaultDateLayout is used when no layout is configured.
const DefaultDateLayout = "2006-01-02 15:04:05"

// Formatter is what the renderer needs from the localisation layer.
type Formatter interface {
	Sprintf(key string, args ...any) string
	DateTime(t time.Time) string
	Duration(d time.Duration) string
}

// Options configure a Catalog.
type Options struct {
	Language   string
	DateLayout string
	Location   *time.Location
}

// Catalog is a Formatter backed by golang.org/x/text message catalogs.
type Catalog struct {
	tag      language.Tag
	printer  *message.Printer
	layout   string
	location *time.Location
}

var supported = []language.Tag{language.English, language.German}

// New builds a catalog for the requested language. An empty language means
// English.
func New(opts Options) (*Catalog, error) {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range germanMessages {
		if err := builder.SetString(language.German, key, msg); err != nil {
			return nil, fmt.Errorf("register translation %q: %w", key, err)
		}
	}

	tag := language.English
	if opts.Language != "" {
		requested, err := language.Parse(opts.Language)
		if err != nil {
			return nil, fmt.Errorf("parse language: %w", err)
		}
		matcher := language.NewMatcher(supported)
		_, idx, confidence := matcher.Match(requested)
		if confidence == language.No {
			return nil, fmt.Errorf("unsupported language %q", opts.Language)
		}
		tag = supported[idx]
	}

	layout := opts.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	return &Catalog{
		tag:      tag,
		printer:  message.NewPrinter(tag, message.Catalog(builder)),
		layout:   layout,
		location: loc,
	}, nil
}

// MustNew is New for static options, typically in tests.
func MustNew(opts Options) *Catalog {
	c, err := New(opts)
	if err != nil {
		panic(err)
	}
	return c
}

// Language returns the matched language tag.
func (c *Catalog) Language() language.Tag {
	return c.tag
}

// Sprintf renders the message registered for key.
func (c *Catalog) Sprintf(key string, args ...any) string {
	return c.printer.Sprintf(key, args...)
}

// DateTime renders t in the configured zone and layout.
func (c *Catalog) DateTime(t time.Time) string {
	return t.In(c.location).Format(c.layout)
}

// Duration renders d with its two most significant units, e.g. "2h 5m".
// The unit abbreviations come from the message catalog.
func (c *Catalog) Duration(d time.Duration) string {
	key, args := durationParts(d)
	return c.printer.Sprintf(key, args...)
}

func durationParts(d time.Duration) (string, []any) {
	if d < 0 {
		d = -d
	}
	secs := int64(d / time.Second)
	days := secs / 86400
	hours := secs % 86400 / 3600
	minutes := secs % 3600 / 60
	seconds := secs % 60

	switch {
	case days > 0:
		return MsgDurationDaysHours, []any{days, hours}
	case hours > 0:
		return MsgDurationHoursMinutes, []any{hours, minutes}
	case minutes > 0:
		return MsgDurationMinutesSeconds, []any{minutes, seconds}
	default:
		return MsgDurationSeconds, []any{seconds}
	}
}
