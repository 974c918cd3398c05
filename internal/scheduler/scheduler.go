// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"tradebook/internal/logger"
)

// Job is a unit of scheduled work.
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs. A job that is still running when its
// next tick fires is skipped.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.SugaredLogger
}

// New creates a scheduler whose specs accept an optional seconds field,
// e.g. "0 */5 * * * *" or "@every 5m".
func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  logger.Named("scheduler"),
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}

// AddJob registers job under a cron schedule.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	var running sync.Mutex
	_, err := s.cron.AddFunc(schedule, func() {
		if !running.TryLock() {
			s.log.Warnw("job still running, skipping tick", "job", job.Name())
			return
		}
		defer running.Unlock()
		s.run(job)
	})
	if err != nil {
		return err
	}

	s.log.Infow("job registered", "schedule", schedule, "job", job.Name())
	return nil
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	s.log.Infow("running job immediately", "job", job.Name())
	return job.Run()
}

func (s *Scheduler) run(job Job) {
	s.log.Debugw("running job", "job", job.Name())
	if err := job.Run(); err != nil {
		s.log.Errorw("job failed", "job", job.Name(), "error", err)
		return
	}
	s.log.Debugw("job completed", "job", job.Name())
}
