package history

import (
	"database/sql"
	"fmt"
	"time"

	"isbndate/internal/services"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = "id, input_path, status, started_at, finished_at, total, from_cache, from_api, not_found, pending, error_message"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		status      string
		startedRaw  string
		finishedRaw sql.NullString
		errMessage  sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.InputPath,
		&status,
		&startedRaw,
		&finishedRaw,
		&run.Total,
		&run.FromCache,
		&run.FromAPI,
		&run.NotFound,
		&run.Pending,
		&errMessage,
	); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.StartedAt = parseTime(startedRaw)
	if finishedRaw.Valid && finishedRaw.String != "" {
		finished := parseTime(finishedRaw.String)
		run.FinishedAt = &finished
	}
	run.Error = errMessage.String
	return &run, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return services.Wrap(services.ErrNotFound, "history", "update run", fmt.Sprintf("run %s does not exist", id), nil)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
