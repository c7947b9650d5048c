package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"isbndate/internal/config"
	"isbndate/internal/history"
	"isbndate/internal/logging"
	"isbndate/internal/providers"
	"isbndate/internal/resolver"
	"isbndate/internal/services"
	"isbndate/internal/sheet"
)

type resolveOptions struct {
	output    string
	chunkSize int
	noHistory bool
	json      bool
	showLog   bool
}

type resolveOutput struct {
	RunID   string            `json:"run_id"`
	Input   string            `json:"input"`
	Output  string            `json:"output"`
	Preview resolver.Preview  `json:"preview"`
	Stats   resolver.Stats    `json:"stats"`
	Results []resolver.Result `json:"results"`
	Log     []string          `json:"log,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	opts := resolveOptions{chunkSize: -1}

	cmd := &cobra.Command{
		Use:   "resolve <input.csv|input.xlsx>",
		Short: "Resolve publication dates for every ISBN in a spreadsheet",
		Long: `Reads the first column of the input sheet as ISBNs, answers each one from the
local cache or the configured sources, and writes a copy of the sheet with a
publication date column appended.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, ctx, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (default: <input>_procesados.<ext>)")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", -1, "Identifiers per checkpoint chunk (default: resolution.chunk_size, 0 = single chunk)")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not record this run in the history database")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the run report as JSON")
	cmd.Flags().BoolVar(&opts.showLog, "show-log", false, "Print the per-identifier resolution log")
	return cmd
}

func runResolve(cmd *cobra.Command, ctx *commandContext, inputArg string, opts resolveOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	input, err := config.ExpandPath(strings.TrimSpace(inputArg))
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	output := strings.TrimSpace(opts.output)
	if output == "" {
		output = sheet.OutputPath(input)
	} else if output, err = config.ExpandPath(output); err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if _, err := sheet.FormatFor(output); err != nil {
		return err
	}

	table, err := sheet.Read(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}
	ids := table.Identifiers()

	out := cmd.OutOrStdout()
	colorize := !opts.json && shouldColorize(out)

	cache, err := ctx.openCache()
	if err != nil {
		return err
	}
	var resolverOpts []resolver.Option
	if !opts.json {
		resolverOpts = append(resolverOpts, resolver.WithProgress(func(res resolver.Result, st resolver.Stats) {
			fmt.Fprintln(out, renderResultLine(res, st, colorize))
		}))
	}
	res, err := ctx.newResolver(cache, resolverOpts...)
	if err != nil {
		return err
	}

	preview := res.Preview(ids)
	if !opts.json {
		printPreview(out, input, preview, colorize)
	}

	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}
	store, runID := beginHistory(runCtx, cfg, logger, input, len(ids), opts.noHistory)
	if store != nil {
		defer store.Close()
		runCtx = services.WithRunID(runCtx, runID)
	}

	chunkSize := opts.chunkSize
	if chunkSize < 0 {
		chunkSize = cfg.Resolution.ChunkSize
	}
	header := cfg.Resolution.DateColumn

	var dates []string
	onChunk := func(chunk resolver.ChunkReport) error {
		for _, r := range chunk.Results {
			dates = append(dates, r.Date)
		}
		if store != nil {
			if err := store.RecordCheckpoint(runCtx, history.CheckpointFromChunk(runID, chunk)); err != nil {
				logging.WarnWithContext(logging.WithContext(runCtx, logger), "checkpoint not recorded", "history_checkpoint_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "run history will miss this chunk"))
			}
		}
		if chunk.Chunks > 1 && chunk.Index < chunk.Chunks {
			if err := sheet.Write(output, table.WithColumn(header, padDates(dates, len(ids)))); err != nil {
				return fmt.Errorf("write partial output: %w", err)
			}
			if !opts.json {
				fmt.Fprintln(out, renderStatusLine(fmt.Sprintf("Chunk %d/%d", chunk.Index, chunk.Chunks), statusInfo,
					fmt.Sprintf("%d/%d processed, partial output saved", chunk.Processed, len(ids)), colorize))
			}
		}
		return nil
	}

	report, runErr := res.ResolveInChunks(runCtx, ids, chunkSize, onChunk)

	writeErr := sheet.Write(output, table.WithColumn(header, padDates(report.Dates(), len(ids))))
	if store != nil {
		finishHistory(runCtx, store, logger, report, runErr)
	}

	if opts.json {
		payload := resolveOutput{
			RunID:   report.RunID,
			Input:   input,
			Output:  output,
			Preview: preview,
			Stats:   report.Stats,
			Results: report.Results,
		}
		if opts.showLog {
			payload.Log = report.Log
		}
		if runErr != nil {
			payload.Error = runErr.Error()
		}
		if err := writeJSON(cmd, payload); err != nil {
			return err
		}
	} else {
		printSummary(out, report, output, colorize)
		if opts.showLog {
			for _, line := range renderSectionHeader("Log", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, line := range report.Log {
				fmt.Fprintln(out, line)
			}
		}
	}

	if writeErr != nil {
		return fmt.Errorf("write %s: %w", output, writeErr)
	}
	return runErr
}

// padDates extends dates to n rows; rows never reached are marked unprocessed.
func padDates(dates []string, n int) []string {
	out := make([]string, n)
	copy(out, dates)
	for i := len(dates); i < n; i++ {
		out[i] = providers.UnprocessedSentinel
	}
	return out
}

func beginHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger, input string, total int, disabled bool) (*history.Store, string) {
	if disabled {
		return nil, ""
	}
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String("path", cfg.Paths.HistoryDB),
			logging.String(logging.FieldErrorHint, "run isbndate doctor or pass --no-history"),
			logging.String(logging.FieldImpact, "this run will not be recorded"))
		return nil, ""
	}
	runID, err := store.BeginRun(ctx, input, total)
	if err != nil {
		logging.WarnWithContext(logger, "run not recorded", "history_begin_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not be recorded"))
		_ = store.Close()
		return nil, ""
	}
	return store, runID
}

func finishHistory(ctx context.Context, store *history.Store, logger *slog.Logger, report resolver.Report, runErr error) {
	status := history.RunCompleted
	if runErr != nil {
		status = history.RunFailed
	}
	// The run context may already be canceled; the final row must still land.
	if err := store.FinishRun(context.WithoutCancel(ctx), report.RunID, report.Stats, status, runErr); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, logger), "run result not recorded", "history_finish_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history shows this run as still running"))
	}
}

func printPreview(out io.Writer, input string, p resolver.Preview, colorize bool) {
	for _, line := range renderSectionHeader("Input", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("File", statusInfo, input, colorize))
	fmt.Fprintln(out, renderStatusLine("Identifiers", statusInfo, strconv.Itoa(p.Total), colorize))
	fmt.Fprintln(out, renderStatusLine("Already cached", statusOK, strconv.Itoa(p.Cached), colorize))
	kind := statusInfo
	if p.Invalid > 0 {
		kind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Invalid", kind, strconv.Itoa(p.Invalid), colorize))
	fmt.Fprintln(out, renderStatusLine("To fetch", statusInfo, strconv.Itoa(p.ToFetch), colorize))
	fmt.Fprintln(out)
}

func printSummary(out io.Writer, report resolver.Report, output string, colorize bool) {
	st := report.Stats
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(tableSpec{
		title:   "Resolution summary",
		headers: []string{"Metric", "Count"},
		rows: [][]string{
			{"Total", strconv.Itoa(st.Total)},
			{"From cache", strconv.Itoa(st.FromCache)},
			{"From sources", strconv.Itoa(st.FromAPI)},
			{"Not found", strconv.Itoa(st.NotFound)},
			{"Pending", strconv.Itoa(st.Pending)},
			{"New cache entries", strconv.Itoa(report.NewEntries)},
		},
		aligns: []columnAlignment{alignLeft, alignRight},
	}))
	kind := statusOK
	if st.Pending > 0 {
		kind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Output", kind, output, colorize))
	if report.RunID != "" {
		fmt.Fprintln(out, renderStatusLine("Run", statusInfo, report.RunID, colorize))
	}
}
