package scheduler

import (
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/burakmert236/goodswipe-escrow/common/logger"
)

const DefaultRetryInterval = 30 * time.Second

type Scheduler struct {
	sched  gocron.Scheduler
	logger *logger.Logger
}

// NewScheduler registers the payout retry job to run every interval. A
// run that overlaps the previous one is skipped.
func NewScheduler(job *PayoutRetryJob, interval time.Duration, logger *logger.Logger) (*Scheduler, error) {
	if interval <= 0 {
		interval = DefaultRetryInterval
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(job.Run),
		gocron.WithName("payout-retry"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	return &Scheduler{sched: sched, logger: logger}, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
	s.logger.Info("Payout retry scheduler started")
}

func (s *Scheduler) Stop() error {
	if err := s.sched.Shutdown(); err != nil {
		return err
	}
	s.logger.Info("Payout retry scheduler stopped")
	return nil
}
