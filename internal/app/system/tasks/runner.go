// internal/app/system/tasks/runner.go
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/docuverse/internal/app/system/metrics"
	"github.com/dalemusser/docuverse/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ErrUnknownJob is returned by RunOnce for a name that was never registered.
var ErrUnknownJob = errors.New("unknown job")

// Job is a periodic maintenance task. Run executes once at Start and then
// every Interval. Each execution gets its own deadline: Timeout when set,
// timeouts.Batch() otherwise.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Runner executes registered jobs on their intervals until stopped.
type Runner struct {
	logger *zap.Logger
	jobs   []Job

	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu     sync.Mutex
	active map[string]int // executions in flight per job name
}

// New creates a task runner.
func New(logger *zap.Logger) *Runner {
	return &Runner{
		logger: logger,
		active: make(map[string]int),
	}
}

// Register adds a job. Jobs registered after Start are not scheduled.
func (r *Runner) Register(job Job) {
	r.jobs = append(r.jobs, job)
}

// Start schedules every registered job.
func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, job)
	}

	r.logger.Info("background task runner started", zap.Int("job_count", len(r.jobs)))
}

// Stop cancels all jobs and waits for in-flight executions. It returns
// ctx.Err() when ctx ends first; the jobs still running are logged.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("background task runner stopped")
		return nil
	case <-ctx.Done():
		r.logger.Warn("background task runner shutdown timed out",
			zap.Strings("jobs_still_running", r.Running()))
		return ctx.Err()
	}
}

// Running lists the jobs with an execution in flight, sorted by name.
func (r *Runner) Running() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.active))
	for name, n := range r.active {
		if n > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// RunOnce executes the named job immediately, outside its schedule.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	for _, job := range r.jobs {
		if job.Name == name {
			return r.execute(ctx, job)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownJob, name)
}

func (r *Runner) loop(ctx context.Context, job Job) {
	defer r.wg.Done()

	r.execute(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.execute(ctx, job)
		}
	}
}

// execute runs one job execution with its deadline. A panic is converted to
// an error so one broken job cannot take the process down.
func (r *Runner) execute(parent context.Context, job Job) (err error) {
	r.track(job.Name, 1)
	defer r.track(job.Name, -1)

	timeout := job.Timeout
	if timeout <= 0 {
		timeout = timeouts.Batch()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, p)
		}
		elapsed := time.Since(start)

		// Shutdown cancellations are not failures.
		if parent.Err() != nil {
			r.logger.Debug("job cancelled during shutdown", zap.String("job", job.Name))
			return
		}
		metrics.RecordJob(job.Name, elapsed, err)
		if err != nil {
			r.logger.Error("job failed",
				zap.String("job", job.Name),
				zap.Duration("duration", elapsed),
				zap.Error(err))
			return
		}
		r.logger.Debug("job completed",
			zap.String("job", job.Name),
			zap.Duration("duration", elapsed))
	}()

	return job.Run(ctx)
}

func (r *Runner) track(name string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[name] += delta
	if r.active[name] <= 0 {
		delete(r.active, name)
	}
}
