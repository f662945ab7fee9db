package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alfredjeanlab/ballot/internal/model"
	ballotsync "github.com/alfredjeanlab/ballot/internal/sync"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Write a JSONL snapshot of the ledger",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		l, err := fetchLedger(cmd)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if output != "" && output != "-" {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		if err := ballotsync.ExportJSONL(w, l, time.Now().UTC()); err != nil {
			return fmt.Errorf("exporting: %w", err)
		}
		return nil
	},
}

// fetchLedger reads the full ledger state through the client.
func fetchLedger(cmd *cobra.Command) (*model.Ledger, error) {
	info, err := ledgerClient.GetLedger(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("getting ledger: %w", err)
	}
	if !info.Initialized {
		return nil, errors.New("ledger is not initialized")
	}
	list, err := ledgerClient.ListEvents(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return &model.Ledger{Owner: model.Identity(info.Owner), Events: list}, nil
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
}
