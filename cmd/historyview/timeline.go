package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"historyview/internal/history"
	"historyview/internal/i18n"
	"historyview/internal/models"
	"historyview/internal/storage"
)

var (
	timelinePage       int
	timelineLimit      int
	timelineObjectType string
	timelineEventType  string
	timelineHost       string
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Print one page of the history timeline",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := pageFilter(timelinePage, timelineLimit, timelineObjectType, timelineEventType, timelineHost)
		if err != nil {
			return err
		}
		page, limit := timelinePage, q.Limit
		if page < 1 {
			page = 1
		}

		format, err := cfg.Formatter()
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		src, err := store.History(cmd.Context(), q)
		if err != nil {
			return err
		}
		if c, ok := src.(io.Closer); ok {
			defer c.Close()
		}

		entries, err := renderPage(cmd.Context(), src, limit, page, format)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(entries)
		}
		printTimeline(entries, format.DateTime)
		return nil
	},
}

// pageFilter validates the listing flags and turns them into a store query.
func pageFilter(page, limit int, objectType, eventType, host string) (storage.Query, error) {
	ot := models.ObjectType(objectType)
	if ot != "" && !ot.IsValid() {
		return storage.Query{}, fmt.Errorf("%w: %q", models.ErrUnknownObjectType, objectType)
	}
	et := models.EventType(eventType)
	if et != "" && !et.IsValid() {
		return storage.Query{}, fmt.Errorf("%w: %q", models.ErrUnknownEventType, eventType)
	}
	if limit <= 0 {
		limit = cfg.PageSize
	}

	q := storage.PageQuery(page, limit)
	q.ObjectType = ot
	q.EventType = et
	q.Host = host
	return q, nil
}

func renderPage(ctx context.Context, src history.Source, limit, page int, format i18n.Formatter) ([]history.Entry, error) {
	p, err := history.Paginate(src, limit, page)
	if err != nil {
		return nil, err
	}
	return history.Render(ctx, p, history.NewResolver(format), time.Now(), func(rec *models.EventRecord, err error) {
		log.Warn().Err(err).Str("event", rec.ID.String()).Msg("skipping unrenderable history record")
	})
}

func init() {
	timelineCmd.Flags().IntVar(&timelinePage, "page", 1, "page to print")
	timelineCmd.Flags().IntVar(&timelineLimit, "limit", 0, "entries per page (defaults to page_size)")
	timelineCmd.Flags().StringVar(&timelineObjectType, "object-type", "", "only host or service events")
	timelineCmd.Flags().StringVar(&timelineEventType, "event-type", "", "only events of this type, e.g. notification")
	timelineCmd.Flags().StringVar(&timelineHost, "host", "", "only events of this host")
}
