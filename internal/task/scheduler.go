// Package task runs background maintenance jobs on a fixed interval.
package task

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultInterval = time.Minute

// Job is one unit of background work.
type Job func(ctx context.Context) error

// Scheduler runs a job every interval, on demand through Trigger, and
// optionally once more when stopped.
type Scheduler struct {
	name     string
	interval time.Duration
	job      Job
	logger   *zap.Logger
	finalRun bool
	trigger  chan struct{}

	controlMutex sync.Mutex
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewScheduler runs job every interval, one minute when interval is not positive.
func NewScheduler(name string, interval time.Duration, job Job, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		name:     name,
		interval: interval,
		job:      job,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// WithFinalRun makes Stop run the job one last time after the loop exits.
func (scheduler *Scheduler) WithFinalRun() *Scheduler {
	scheduler.finalRun = true
	return scheduler
}

// Start launches the loop. Starting a running scheduler does nothing.
func (scheduler *Scheduler) Start(ctx context.Context) {
	if scheduler == nil || scheduler.job == nil {
		return
	}
	scheduler.controlMutex.Lock()
	defer scheduler.controlMutex.Unlock()
	if scheduler.cancel != nil {
		return
	}
	loopContext, cancel := context.WithCancel(ctx)
	scheduler.cancel = cancel
	scheduler.done = make(chan struct{})
	go scheduler.loop(loopContext, scheduler.done)
}

// Trigger requests an immediate run; requests made while one is pending coalesce.
func (scheduler *Scheduler) Trigger() {
	if scheduler == nil {
		return
	}
	select {
	case scheduler.trigger <- struct{}{}:
	default:
	}
}

// Stop ends the loop and waits for it.
func (scheduler *Scheduler) Stop() {
	if scheduler == nil {
		return
	}
	scheduler.controlMutex.Lock()
	cancel := scheduler.cancel
	done := scheduler.done
	scheduler.cancel = nil
	scheduler.done = nil
	scheduler.controlMutex.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	if scheduler.finalRun {
		scheduler.run(context.Background())
	}
}

func (scheduler *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(scheduler.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-scheduler.trigger:
			scheduler.run(ctx)
		case <-ticker.C:
			scheduler.run(ctx)
		}
	}
}

func (scheduler *Scheduler) run(ctx context.Context) {
	if scheduler.job == nil {
		return
	}
	if jobErr := scheduler.job(ctx); jobErr != nil {
		scheduler.logger.Warn("task_failed", zap.String("task", scheduler.name), zap.Error(jobErr))
	}
}
