package storage

import "time"

// RunStatus values for Run.Status.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// Run is one orchestrated sync, including all of its retries.
type Run struct {
	ID            string    `json:"id"` // Internal UUID
	PlaylistID    string    `json:"playlist_id"`
	SpreadsheetID string    `json:"spreadsheet_id"`
	SheetName     string    `json:"sheet_name"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at,omitempty"`
	Attempts      int       `json:"attempts"`
	Status        string    `json:"status"`

	VideosProcessed int   `json:"videos_processed"`
	UpdatedRows     int   `json:"updated_rows"`
	UpdatedColumns  int   `json:"updated_columns"`
	UpdatedCells    int64 `json:"updated_cells"`
	// QuotaUnits is the YouTube quota spent by the successful attempt.
	QuotaUnits int `json:"quota_units,omitempty"`

	Error     string `json:"error,omitempty"`
	AuthError bool   `json:"auth_error,omitempty"`
}

// NewRun creates a run in the running state.
func NewRun(playlistID, spreadsheetID, sheetName string) *Run {
	return &Run{
		PlaylistID:    playlistID,
		SpreadsheetID: spreadsheetID,
		SheetName:     sheetName,
		StartedAt:     time.Now(),
		Status:        RunStatusRunning,
	}
}

// Succeed marks the run finished and records the counters.
func (r *Run) Succeed(videos, rows, columns int, cells int64) {
	r.FinishedAt = time.Now()
	r.Status = RunStatusSucceeded
	r.VideosProcessed = videos
	r.UpdatedRows = rows
	r.UpdatedColumns = columns
	r.UpdatedCells = cells
	r.Error = ""
	r.AuthError = false
}

// Fail marks the run finished with an error.
func (r *Run) Fail(errMsg string, authError bool) {
	r.FinishedAt = time.Now()
	r.Status = RunStatusFailed
	r.Error = errMsg
	r.AuthError = authError
}

// Duration is the wall time of a finished run, zero while running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SyncState tracks the latest outcome for one playlist.
type SyncState struct {
	PlaylistID          string    `json:"playlist_id"`
	LastRunID           string    `json:"last_run_id"`
	LastRunAt           time.Time `json:"last_run_at"`
	LastSuccessAt       time.Time `json:"last_success_at,omitempty"`
	LastVideoCount      int       `json:"last_video_count"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastError           string    `json:"last_error,omitempty"`
}

// NewSyncState creates an empty state for playlistID.
func NewSyncState(playlistID string) *SyncState {
	return &SyncState{PlaylistID: playlistID}
}

// Record folds a finished run into the state.
func (s *SyncState) Record(run *Run) {
	s.LastRunID = run.ID
	s.LastRunAt = run.FinishedAt
	if run.Status == RunStatusSucceeded {
		s.LastSuccessAt = run.FinishedAt
		s.LastVideoCount = run.VideosProcessed
		s.ConsecutiveFailures = 0
		s.LastError = ""
		return
	}
	s.ConsecutiveFailures++
	s.LastError = run.Error
}
