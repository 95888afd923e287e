package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"historyview/internal/models"
	"historyview/internal/storage"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the configured history store to a JSON export",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		export, err := collectExport(cmd.Context(), store)
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = cfg.EventsPath()
		}
		if err := storage.WriteExport(out, export); err != nil {
			return err
		}
		log.Info().Str("path", out).Int("events", len(export.Events)).Msg("history exported")
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a JSON export into PostgreSQL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		export, err := storage.ReadExport(args[0])
		if err != nil {
			return err
		}
		for _, rec := range export.Events {
			if rec == nil {
				continue
			}
			if err := rec.Validate(); err != nil {
				log.Warn().Err(err).Msg("importing invalid history record")
			}
		}

		store, err := openPostgres()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		if err := store.Import(cmd.Context(), export); err != nil {
			return err
		}
		log.Info().Str("path", args[0]).Int("events", len(export.Events)).Msg("history imported")
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "export file (defaults to the configured events file)")
}

// collectExport reads every record and the recipients of every notification.
func collectExport(ctx context.Context, store storage.Store) (storage.Export, error) {
	src, err := store.History(ctx, storage.Query{})
	if err != nil {
		return storage.Export{}, err
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	export := storage.Export{Recipients: map[string][]models.User{}}
	for {
		rec, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return storage.Export{}, fmt.Errorf("read history: %w", err)
		}
		export.Events = append(export.Events, rec)
	}

	for _, rec := range export.Events {
		if rec.EventType != models.EventNotification {
			continue
		}
		page, err := store.NotifiedUsers(ctx, rec.ID, 0)
		if err != nil {
			return storage.Export{}, fmt.Errorf("read recipients of %s: %w", rec.ID, err)
		}
		if len(page.Users) > 0 {
			export.Recipients[rec.ID.String()] = page.Users
		}
	}
	return export, nil
}
