package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"isbndate/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent resolve runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			if runID != "" {
				return showRun(cmd, store, runID, jsonOutput)
			}

			runs, err := store.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.StartedAt.Local().Format("2006-01-02 15:04"),
					string(run.Status),
					run.InputPath,
					strconv.Itoa(run.Total),
					strconv.Itoa(run.FromCache),
					strconv.Itoa(run.FromAPI),
					strconv.Itoa(run.NotFound),
					run.Duration().Round(time.Second).String(),
				})
			}
			fmt.Fprintln(out, renderTable(tableSpec{
				headers: []string{"Run", "Started", "Status", "Input", "Total", "Cache", "Sources", "Not found", "Took"},
				rows:    rows,
				aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
			}))
			return nil
		},
	}

	cmd.AddCommand(newHistoryClearCommand(ctx))

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show the checkpoints of one run")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print runs as JSON")
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every recorded run and its checkpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to clear run history without --yes")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run%s\n", removed, plural(int(removed), "", "s"))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Confirm clearing the run history")
	return cmd
}

func showRun(cmd *cobra.Command, store *history.Store, id string, jsonOutput bool) error {
	run, err := store.Run(cmd.Context(), id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", id)
	}
	checkpoints, err := store.Checkpoints(cmd.Context(), id)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd, struct {
			Run         *history.Run         `json:"run"`
			Checkpoints []history.Checkpoint `json:"checkpoints"`
		}{run, checkpoints})
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Run "+run.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	kind := statusOK
	switch run.Status {
	case history.RunFailed:
		kind = statusError
	case history.RunRunning:
		kind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Status", kind, string(run.Status), colorize))
	fmt.Fprintln(out, renderStatusLine("Input", statusInfo, run.InputPath, colorize))
	if run.Error != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, run.Error, colorize))
	}
	if len(checkpoints) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(checkpoints))
	for _, cp := range checkpoints {
		rows = append(rows, []string{
			fmt.Sprintf("%d/%d", cp.ChunkIndex, cp.Chunks),
			strconv.Itoa(cp.Processed),
			strconv.Itoa(cp.FromCache),
			strconv.Itoa(cp.FromAPI),
			strconv.Itoa(cp.NotFound),
			cp.CreatedAt.Local().Format("15:04:05"),
		})
	}
	fmt.Fprintln(out, renderTable(tableSpec{
		title:   "Checkpoints",
		headers: []string{"Chunk", "Processed", "Cache", "Sources", "Not found", "At"},
		rows:    rows,
		aligns:  []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	}))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
