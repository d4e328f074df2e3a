package scheduler

import (
	"context"
	"time"

	"github.com/burakmert236/goodswipe-escrow/common/logger"
)

type Retrier interface {
	Retry(ctx context.Context) (int, error)
}

// PayoutRetryJob resends failed transfers on every tick.
type PayoutRetryJob struct {
	retrier Retrier
	timeout time.Duration
	logger  *logger.Logger
}

func NewPayoutRetryJob(retrier Retrier, timeout time.Duration, logger *logger.Logger) *PayoutRetryJob {
	return &PayoutRetryJob{
		retrier: retrier,
		timeout: timeout,
		logger:  logger,
	}
}

func (j *PayoutRetryJob) Run() {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	sent, err := j.retrier.Retry(ctx)
	if err != nil {
		j.logger.Warn("Payout retry finished with errors", "sent", sent, "error", err)
		return
	}
	if sent > 0 {
		j.logger.Info("Payout retry finished", "sent", sent)
	}
}
