package main

import (
	"fmt"

	"github.com/alfredjeanlab/ballot/internal/model"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Initialize an empty ledger",
	GroupID: "ledger",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		if owner == "" {
			owner = actor
		}
		if owner == "" {
			return fmt.Errorf("--owner is required (or set --actor)")
		}

		got, err := ledgerClient.InitLedger(cmd.Context(), owner)
		if err != nil {
			return fmt.Errorf("initializing ledger: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]string{"owner": got})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ledger initialized (owner %s)\n", got)
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:     "create <title>",
	Short:   "Add an event to the ledger",
	GroupID: "ledger",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		budgetStr, _ := cmd.Flags().GetString("budget")
		description, _ := cmd.Flags().GetString("description")

		budget, err := model.ParseBudget(budgetStr)
		if err != nil {
			return fmt.Errorf("invalid --budget: %w", err)
		}

		e, err := ledgerClient.AddEvent(cmd.Context(), model.NewEvent{
			Title:           args[0],
			EstimatedBudget: budget,
			Description:     description,
		})
		if err != nil {
			return fmt.Errorf("creating event: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), e)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created event %s\n", e.ID)
		return nil
	},
}

var voteCmd = &cobra.Command{
	Use:     "vote <id>",
	Short:   "Cast a vote for an event",
	GroupID: "ledger",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEventIDArg(args[0])
		if err != nil {
			return err
		}
		e, err := ledgerClient.AddVote(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("voting: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), e)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "voted for event %s (%d votes)\n", e.ID, e.TotalVotes)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all events",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := ledgerClient.ListEvents(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing events: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), events)
		}
		printEventListTable(cmd.OutOrStdout(), events)
		return nil
	},
}

var countCmd = &cobra.Command{
	Use:     "count",
	Short:   "Print the number of events",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := ledgerClient.EventCount(cmd.Context())
		if err != nil {
			return fmt.Errorf("counting events: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]int{"count": n})
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show one event",
	GroupID: "views",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEventIDArg(args[0])
		if err != nil {
			return err
		}
		e, err := ledgerClient.GetEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("getting event: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), e)
		}
		printEventTable(cmd.OutOrStdout(), e)
		return nil
	},
}

var votesCmd = &cobra.Command{
	Use:     "votes <id>",
	Short:   "Show the vote count and voters for an event",
	GroupID: "views",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEventIDArg(args[0])
		if err != nil {
			return err
		}
		resp, err := ledgerClient.GetTotalVotes(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("getting votes: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d votes\n", resp.TotalVotes)
		for _, v := range resp.Votes {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", v)
		}
		return nil
	},
}

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Short:   "List recorded notifications",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter *model.EventID
		if cmd.Flags().Changed("event") {
			s, _ := cmd.Flags().GetString("event")
			id, err := parseEventIDArg(s)
			if err != nil {
				return err
			}
			filter = &id
		}
		ns, err := ledgerClient.ListNotifications(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("listing notifications: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), ns)
		}
		printNotificationTable(cmd.OutOrStdout(), ns)
		return nil
	},
}

func parseEventIDArg(s string) (model.EventID, error) {
	id, err := model.ParseEventID(s)
	if err != nil {
		return 0, fmt.Errorf("invalid event id %q", s)
	}
	return id, nil
}

func init() {
	initCmd.Flags().String("owner", "", "ledger owner (defaults to --actor)")

	createCmd.Flags().String("budget", "0", "estimated budget (non-negative integer)")
	createCmd.Flags().StringP("description", "d", "", "event description")

	notificationsCmd.Flags().String("event", "", "only notifications for this event id")
}
