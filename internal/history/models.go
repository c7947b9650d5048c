package history

import "time"

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is one resolve invocation.
type Run struct {
	ID         string     `json:"id"`
	InputPath  string     `json:"input_path"`
	Status     RunStatus  `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Total      int        `json:"total"`
	FromCache  int        `json:"from_cache"`
	FromAPI    int        `json:"from_api"`
	NotFound   int        `json:"not_found"`
	Pending    int        `json:"pending"`
	Error      string     `json:"error,omitempty"`
}

// Duration reports how long the run took, or has been running.
func (r Run) Duration() time.Duration {
	end := time.Now().UTC()
	if r.FinishedAt != nil {
		end = *r.FinishedAt
	}
	return end.Sub(r.StartedAt)
}

// Checkpoint is the state of a run after one chunk.
type Checkpoint struct {
	RunID      string    `json:"run_id"`
	ChunkIndex int       `json:"chunk_index"`
	Chunks     int       `json:"chunks"`
	Processed  int       `json:"processed"`
	FromCache  int       `json:"from_cache"`
	FromAPI    int       `json:"from_api"`
	NotFound   int       `json:"not_found"`
	CreatedAt  time.Time `json:"created_at"`
}
