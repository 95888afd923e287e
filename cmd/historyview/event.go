package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"historyview/internal/history"
	"historyview/internal/models"
)

var eventHideRecipients bool

var eventCmd = &cobra.Command{
	Use:   "event <id>",
	Short: "Show the detail view of one history event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := models.ParseEventID(args[0])
		if err != nil {
			return err
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

		rec, err := store.Event(cmd.Context(), id)
		if err != nil {
			return err
		}

		var opts []history.AssemblerOption
		if cfg.HideRecipients || eventHideRecipients {
			opts = append(opts, history.WithHiddenRecipients())
		}
		resolver := history.NewResolver(format)
		now := time.Now()

		facts, err := resolver.Resolve(rec, now)
		if err != nil {
			return fmt.Errorf("resolve event: %w", err)
		}
		sections, err := history.NewAssembler(resolver, store, opts...).Assemble(cmd.Context(), rec, now)
		if err != nil {
			return fmt.Errorf("assemble event detail: %w", err)
		}

		if jsonOutput {
			return printJSON(struct {
				Entry    history.Facts     `json:"entry"`
				Sections []history.Section `json:"sections"`
			}{facts, sections})
		}
		printEvent(facts, sections, format.DateTime)
		return nil
	},
}

func init() {
	eventCmd.Flags().BoolVar(&eventHideRecipients, "hide-recipients", false, "summarise recipients instead of listing them")
}
