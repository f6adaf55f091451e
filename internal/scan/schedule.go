package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
)

// ScheduleScan sets (or moves) the single pending rerun of a request.
func (r *Runner) ScheduleScan(ctx context.Context, at time.Time, id, authorID string) (string, error) {
	if at.IsZero() {
		return "", fmt.Errorf("%w: scheduled time is required", model.ErrValidation)
	}
	s := &model.ScheduledScan{ScanRequestID: id, ScheduledTime: at.UTC(), AuthorID: authorID}
	if err := r.deps.Scans.UpsertSchedule(ctx, s); err != nil {
		return "", err
	}
	r.logger.Info("scan scheduled",
		logging.Field{Key: "scan_request_id", Value: id},
		logging.Field{Key: "at", Value: s.ScheduledTime})
	return fmt.Sprintf("scan request %s scheduled successfully", id), nil
}

// RunExpiredScans runs every schedule due now, one after the other. Each
// schedule is cleared before any run starts so a slow run cannot fire the
// same schedule twice. Run failures are logged and do not stop the rest.
func (r *Runner) RunExpiredScans(ctx context.Context) error {
	due, err := r.deps.Scans.ListDueSchedules(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}
	r.logger.Info("running due scans", logging.Field{Key: "count", Value: len(due)})

	for _, s := range due {
		if err := r.deps.Scans.ClearSchedule(ctx, s.ScanRequestID); err != nil {
			r.logger.Error("error clearing schedule",
				logging.Field{Key: "scan_request_id", Value: s.ScanRequestID},
				logging.Field{Key: "error", Value: err})
		}
	}
	for _, s := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := r.RunScan(ctx, s.ScanRequestID, RunOptions{}); err != nil {
			r.logger.Error("error running scheduled scan",
				logging.Field{Key: "scan_request_id", Value: s.ScanRequestID},
				logging.Field{Key: "error", Value: err})
		}
	}
	return nil
}
