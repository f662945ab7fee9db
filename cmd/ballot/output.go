package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alfredjeanlab/ballot/internal/model"
	"github.com/alfredjeanlab/ballot/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// formatTimestamp renders a nanosecond timestamp in UTC.
func formatTimestamp(ts model.Timestamp) string {
	if ts == 0 {
		return "-"
	}
	return time.Unix(0, int64(ts)).UTC().Format("2006-01-02 15:04:05")
}

func printEventTable(w io.Writer, e *model.Event) {
	fmt.Fprintf(w, "ID:          %s\n", ui.RenderAccent(e.ID.String()))
	fmt.Fprintf(w, "Title:       %s\n", e.Title)
	fmt.Fprintf(w, "Creator:     %s\n", e.Creator)
	fmt.Fprintf(w, "Created At:  %s\n", formatTimestamp(e.CreatedAt))
	fmt.Fprintf(w, "Budget:      %s\n", e.EstimatedBudget)
	fmt.Fprintf(w, "Votes:       %d\n", e.TotalVotes)
	if e.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", e.Description)
	}
	if len(e.Votes) > 0 {
		fmt.Fprintf(w, "Voters:      %s\n", joinIdentities(e.Votes))
	}
}

func printEventListTable(w io.Writer, events []model.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "no events")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVOTES\tBUDGET\tCREATOR\tTITLE")
	for _, e := range events {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n",
			e.ID,
			e.TotalVotes,
			e.EstimatedBudget,
			e.Creator,
			truncate(e.Title, 50),
		)
	}
	tw.Flush()
	fmt.Fprintln(w, ui.RenderMuted(fmt.Sprintf("\n%d events", len(events))))
}

func printNotificationTable(w io.Writer, ns []*model.Notification) {
	if len(ns) == 0 {
		fmt.Fprintln(w, "no notifications")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTOPIC\tEVENT\tACTOR\tMESSAGE")
	for _, n := range ns {
		event := "-"
		if n.EventID != nil {
			event = n.EventID.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			n.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			n.Topic,
			event,
			n.Actor,
			n.Message,
		)
	}
	tw.Flush()
}

func joinIdentities(ids []model.Identity) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
