package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-hclog"

	"ytsheets/internal/apierror"
	"ytsheets/internal/logging"
	"ytsheets/internal/retry"
)

// Runner retries whole syncs. Every attempt reruns the full pipeline.
type Runner struct {
	syncer *Syncer
	retry  retry.Config
	logger hclog.Logger

	// OnAttempt, when set, is called with the 1-based attempt number before each attempt.
	OnAttempt func(attempt int)
}

// NewRunner creates a runner around s with the given retry budget.
func NewRunner(s *Syncer, cfg retry.Config, logger hclog.Logger) *Runner {
	return &Runner{
		syncer: s,
		retry:  cfg,
		logger: logging.OrNull(logger).Named("syncer"),
	}
}

// Run validates req and syncs it, retrying transient failures with a fixed
// delay. Authentication failures stop immediately. An exhausted budget
// returns a *retry.RetryableError wrapping the last failure.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		r.logger.Error("invalid sync request", "error", err)
		return nil, err
	}

	var (
		result  *Result
		attempt int
	)
	err := retry.Do(ctx, r.retry, isRetryable, r.notify, func(ctx context.Context) error {
		attempt++
		if r.OnAttempt != nil {
			r.OnAttempt(attempt)
		}
		res, err := r.syncer.SyncPlaylist(ctx, req.PlaylistID, req.SpreadsheetID, req.Options)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		r.report(err)
		return nil, err
	}

	r.logger.Info("sync completed",
		"videos", result.VideosProcessed,
		"rows", result.UpdatedRows,
		"columns", result.UpdatedColumns,
		"cells", result.UpdatedCells,
		"quota", result.QuotaUnits,
		"attempts", attempt)
	return result, nil
}

// isRetryable adds invalid requests to the failures retry.IsRetryable gives up on.
func isRetryable(err error) bool {
	return !errors.Is(err, ErrInvalidRequest) && retry.IsRetryable(err)
}

func (r *Runner) notify(remaining int, wait time.Duration, err error) {
	r.logger.Warn("sync attempt failed, retrying", "remaining", remaining, "wait", wait, "error", err)
}

// report logs the terminal failure, with remediation steps for credential problems.
func (r *Runner) report(err error) {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) && apiErr.AuthError {
		r.logger.Error("authentication failed, refresh your OAuth tokens", "service", apiErr.Service, "error", err)
		r.logger.Error("to fix this: 1) generate new OAuth tokens in the Google Cloud Console " +
			"2) update the refresh tokens in your configuration 3) run the sync again")
		return
	}
	r.logger.Error("sync failed", "error", err)
}
