package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docshare-app/docshare/internal/pkg/timeutil"
	"github.com/docshare-app/docshare/internal/repo"
)

// ResetTokenCleanupJob removes used and expired password reset tokens.
// Share capabilities are never purged; expired ones stay in place as
// inert history.
type ResetTokenCleanupJob struct {
	resets *repo.ResetTokenRepo
}

func NewResetTokenCleanupJob(resets *repo.ResetTokenRepo) *ResetTokenCleanupJob {
	return &ResetTokenCleanupJob{resets: resets}
}

func (j *ResetTokenCleanupJob) Name() string {
	return "reset_token_cleanup"
}

func (j *ResetTokenCleanupJob) Run(ctx context.Context) error {
	deleted, err := j.resets.DeleteStale(ctx, timeutil.NowUnix())
	if err != nil {
		return err
	}
	if deleted > 0 {
		logutil.GetLogger(ctx).Info("reset tokens purged", zap.Int64("count", deleted))
	}
	return nil
}
