package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Job is one scheduled unit of work. A nil error is the success signal that
// advances State's last run.
type Job func(ctx context.Context) error

type Scheduler struct {
	job        Job
	interval   time.Duration
	jobTimeout time.Duration
	state      *State
}

func NewScheduler(job Job, interval, jobTimeout time.Duration, state *State) *Scheduler {
	if state == nil {
		state = NewState(interval, true)
	}
	return &Scheduler{
		job:        job,
		interval:   interval,
		jobTimeout: jobTimeout,
		state:      state,
	}
}

// Start fires the job every interval until ctx is done.
func (s *Scheduler) Start(ctx context.Context, runOnStart bool) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.state.setStarted(true)
	defer s.state.setStarted(false)

	logrus.WithField("interval", s.interval.String()).Info("Scheduler started")

	if runOnStart {
		s.Trigger(ctx)
	}

	for {
		select {
		case <-ticker.C:
			s.Trigger(ctx)
		case <-ctx.Done():
			logrus.Info("Scheduler stopped")
			return
		}
	}
}

// Trigger runs the job now unless a previous run is still in flight, in which
// case the fire is skipped and false is returned.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	if !s.state.begin() {
		logrus.Warn("Scheduled run skipped: previous run still in progress")
		return false
	}

	started := time.Now()
	jobCtx := ctx
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	err := s.runJob(jobCtx)
	finished := time.Now()
	s.state.finish(finished, err)

	entry := logrus.WithField("duration", finished.Sub(started).String())
	if err != nil {
		entry.WithError(err).Error("Scheduled run failed")
	} else {
		entry.Info("Scheduled run succeeded")
	}
	return true
}

func (s *Scheduler) runJob(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{value: r}
		}
	}()
	return s.job(ctx)
}
