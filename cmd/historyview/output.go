package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"historyview/internal/history"
)

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printTimeline(entries []history.Entry, date func(time.Time) string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tID\tTITLE\tSUBJECT\tCAPTION")
	for _, e := range entries {
		if e.Marker != nil {
			fmt.Fprintf(w, "-- page %d --\t\t\t\t\n", e.Marker.PageNumber)
			continue
		}
		f := e.Event
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", date(f.Time), f.ID, f.Title, f.Subject, caption(f))
	}
	w.Flush()
}

func printEvent(f history.Facts, sections []history.Section, date func(time.Time) string) {
	fmt.Printf("ID:       %s\n", f.ID)
	fmt.Printf("Type:     %s\n", f.EventType)
	fmt.Printf("Time:     %s\n", date(f.Time))
	fmt.Printf("Title:    %s\n", f.Title)
	fmt.Printf("Subject:  %s\n", f.Subject)
	if f.Reason != "" {
		fmt.Printf("Reason:   %s\n", f.Reason)
	}

	for _, s := range sections {
		fmt.Println()
		fmt.Printf("%s:\n", s.Heading)
		if s.Output != nil {
			for _, line := range strings.Split(s.Output.Text, "\n") {
				fmt.Printf("  %s\n", line)
			}
		}
		for _, kv := range s.Facts {
			fmt.Printf("  %-20s %s\n", kv.Key, kv.Value)
		}
		if s.Recipients != nil {
			for _, u := range s.Recipients.Users {
				fmt.Printf("  - %s\n", u.Label())
			}
			if s.Recipients.ShowMore != nil {
				fmt.Printf("  %s\n", s.Recipients.ShowMore.Label)
			}
		}
		if s.Summary != "" {
			fmt.Printf("  %s\n", s.Summary)
		}
		if s.EmptyState != "" {
			fmt.Printf("  %s\n", s.EmptyState)
		}
	}
}

func caption(f *history.Facts) string {
	if f.Caption == nil {
		return ""
	}
	text := strings.ReplaceAll(f.Caption.Text, "\n", " ")
	if r := []rune(text); len(r) > 60 {
		text = string(r[:57]) + "..."
	}
	if f.Caption.Author != "" {
		return f.Caption.Author + ": " + text
	}
	return text
}
