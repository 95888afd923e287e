package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"historyview/internal/history"
	"historyview/internal/i18n"
)

var (
	notificationsPage       int
	notificationsLimit      int
	notificationsObjectType string
	notificationsHost       string
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Print sent notifications, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := pageFilter(notificationsPage, notificationsLimit, notificationsObjectType, "", notificationsHost)
		if err != nil {
			return err
		}
		page := max(notificationsPage, 1)

		format, err := cfg.Formatter()
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		list, err := store.Notifications(cmd.Context(), q)
		if err != nil {
			return err
		}
		entries, err := renderPage(cmd.Context(), history.NewSliceSource(list.Records), q.Limit, page, format)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(map[string]any{"total": list.Total, "entries": entries})
		}
		if list.Total == 0 {
			fmt.Println(format.Sprintf(i18n.MsgNoNotifications))
			return nil
		}
		printTimeline(entries, format.DateTime)
		if page*q.Limit < list.Total {
			fmt.Println(format.Sprintf(i18n.MsgShowAllNotifications, list.Total))
		}
		return nil
	},
}

func init() {
	notificationsCmd.Flags().IntVar(&notificationsPage, "page", 1, "page to print")
	notificationsCmd.Flags().IntVar(&notificationsLimit, "limit", 0, "entries per page (defaults to page_size)")
	notificationsCmd.Flags().StringVar(&notificationsObjectType, "object-type", "", "only host or service notifications")
	notificationsCmd.Flags().StringVar(&notificationsHost, "host", "", "only notifications of this host")
}
