// Package schedule runs scrape jobs on fixed intervals until cancelled.
package schedule

import (
	"context"
	"sync"
	"time"

	"redscraper/pkg/logger"
)

// JobFunc performs one scheduled run.
type JobFunc func(ctx context.Context) error

// Job is one recurring task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      JobFunc

	mu      sync.Mutex
	runs    int
	lastErr error
	nextRun time.Time
}

// Runs returns how many times the job has executed.
func (j *Job) Runs() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}

// LastErr returns the error of the most recent run, if any.
func (j *Job) LastErr() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastErr
}

// NextRun returns when the job will fire next.
func (j *Job) NextRun() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.nextRun
}

// Scheduler owns a set of jobs and drives them sequentially on one
// goroutine per job.
type Scheduler struct {
	jobs   []*Job
	logger logger.Logger
	wg     sync.WaitGroup
}

// New creates an empty scheduler.
func New(log logger.Logger) *Scheduler {
	return &Scheduler{logger: log}
}

// Add registers a job. Must be called before Start.
func (s *Scheduler) Add(job *Job) {
	s.jobs = append(s.jobs, job)
}

// Jobs returns the registered jobs.
func (s *Scheduler) Jobs() []*Job {
	return s.jobs
}

// Start runs every job immediately and then on its interval, until the
// context is cancelled. It blocks until all job loops have exited.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runLoop(ctx, job)
	}
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, job *Job) {
	defer s.wg.Done()

	s.logger.InfoWithFields("Job scheduled", map[string]interface{}{
		"job":      job.Name,
		"interval": job.Interval.String(),
	})

	for {
		s.execute(ctx, job)

		job.mu.Lock()
		job.nextRun = time.Now().Add(job.Interval)
		job.mu.Unlock()

		select {
		case <-ctx.Done():
			s.logger.WithField("job", job.Name).Info("Job stopped")
			return
		case <-time.After(job.Interval):
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, job *Job) {
	start := time.Now()
	err := job.Run(ctx)

	job.mu.Lock()
	job.runs++
	job.lastErr = err
	job.mu.Unlock()

	if err != nil {
		s.logger.WithError(err).WithField("job", job.Name).Warn("Job run failed")
		return
	}
	s.logger.InfoWithFields("Job run finished", map[string]interface{}{
		"job":      job.Name,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	})
}
