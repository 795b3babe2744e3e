// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package jobs

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Pruner drops expired entries and reports how many it removed.
type Pruner interface {
	Prune() int
}

// Job is a periodic cleanup task.
type Job struct {
	Name  string
	Every time.Duration
	Run   func() int
}

// Runner runs jobs on a gocron scheduler. A job never overlaps itself.
type Runner struct {
	sched *gocron.Scheduler
}

func New(jobs ...Job) (*Runner, error) {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	for _, j := range jobs {
		if j.Every <= 0 || j.Run == nil {
			return nil, fmt.Errorf("job %q: interval and run func required", j.Name)
		}
		if _, err := s.Every(j.Every).Tag(j.Name).WaitForSchedule().Do(run, j); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", j.Name, err)
		}
	}

	return &Runner{sched: s}, nil
}

func (r *Runner) Start() {
	r.sched.StartAsync()
}

func (r *Runner) Stop() {
	r.sched.Stop()
}

func (r *Runner) Len() int {
	return r.sched.Len()
}

// RunNow triggers a job by name on a started runner.
func (r *Runner) RunNow(name string) error {
	if !r.sched.IsRunning() {
		return errors.New("scheduler is not running")
	}
	return r.sched.RunByTag(name)
}

func run(j Job) {
	start := time.Now()
	if n := j.Run(); n > 0 {
		slog.Info("job finished", "job", j.Name, "removed", n, "duration_ms", time.Since(start).Milliseconds())
	}
}

// Maintenance returns the cache garbage collection and idle session jobs.
func Maintenance(cache Pruner, cacheEvery time.Duration, sessions Pruner, sessionEvery time.Duration) []Job {
	return []Job{
		{Name: "cache-gc", Every: cacheEvery, Run: cache.Prune},
		{Name: "session-prune", Every: sessionEvery, Run: sessions.Prune},
	}
}
