package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"casservice/pkg/logging"
)

const (
	// DefaultTimeout bounds a subprocess when the caller does not specify one.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxOutput caps each captured stream at 64 KB.
	DefaultMaxOutput = 64 * 1024
	// DefaultMaxJobs bounds the tracked job table.
	DefaultMaxJobs = 100

	// sentinelReturnCode marks outcomes where the process did not exit
	// normally (timeout, command not found, spawn failure).
	sentinelReturnCode = -1
)

// Outcome is the captured result of one subprocess invocation.
type Outcome struct {
	ReturnCode int
	Stdout     string
	Stderr     string
	TimeMs     int64
	TimedOut   bool
	Truncated  bool
}

// RunSpec describes one subprocess invocation. Zero values for Timeout and
// MaxOutput fall back to the executor defaults.
type RunSpec struct {
	Command   []string
	Input     string
	Timeout   time.Duration
	MaxOutput int
}

// Executor runs external commands with isolation, wall-clock timeouts and
// output caps. It offers a blocking Run and an asynchronous Submit/Wait pair
// backed by a bounded job table.
type Executor struct {
	defaultTimeout time.Duration
	maxOutput      int
	maxJobs        int

	mu   sync.Mutex
	jobs map[string]*Job
}

// Option configures an Executor.
type Option func(*Executor)

// WithDefaultTimeout overrides the default per-subprocess timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Executor) { e.defaultTimeout = d }
}

// WithMaxOutput overrides the per-stream output cap in bytes.
func WithMaxOutput(n int) Option {
	return func(e *Executor) { e.maxOutput = n }
}

// WithMaxJobs overrides the tracked job bound.
func WithMaxJobs(n int) Option {
	return func(e *Executor) { e.maxJobs = n }
}

// New creates an Executor with the given options.
func New(opts ...Option) *Executor {
	e := &Executor{
		defaultTimeout: DefaultTimeout,
		maxOutput:      DefaultMaxOutput,
		maxJobs:        DefaultMaxJobs,
		jobs:           make(map[string]*Job),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes a subprocess synchronously. The command's stdin receives
// spec.Input, both output streams are captured and truncated to the output
// cap, and the child is killed when the wall-clock timeout expires.
// Failures are captured into the Outcome and never returned as errors.
func (e *Executor) Run(spec RunSpec) Outcome {
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}
	limit := spec.MaxOutput
	if limit <= 0 {
		limit = e.maxOutput
	}
	start := time.Now()

	if len(spec.Command) == 0 {
		return Outcome{
			ReturnCode: sentinelReturnCode,
			Stderr:     "empty command",
			TimeMs:     time.Since(start).Milliseconds(),
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, spec.Command[0], spec.Command[1:]...)
	if spec.Input != "" {
		cmd.Stdin = strings.NewReader(spec.Input)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	if ctx.Err() == context.DeadlineExceeded {
		return Outcome{
			ReturnCode: sentinelReturnCode,
			Stderr:     fmt.Sprintf("Process timed out after %s", timeout),
			TimeMs:     elapsed,
			TimedOut:   true,
		}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// Spawn failure: command not found, permission denied.
			return Outcome{
				ReturnCode: sentinelReturnCode,
				Stderr:     fmt.Sprintf("Command not found or failed to start: %s: %v", spec.Command[0], err),
				TimeMs:     elapsed,
			}
		}
	}

	outStr, outTrunc := truncate(stdout.String(), limit)
	errStr, errTrunc := truncate(stderr.String(), limit)

	return Outcome{
		ReturnCode: cmd.ProcessState.ExitCode(),
		Stdout:     outStr,
		Stderr:     errStr,
		TimeMs:     elapsed,
		Truncated:  outTrunc || errTrunc,
	}
}

// Submit schedules a subprocess for background execution and returns the
// job ID immediately. Each job runs on its own goroutine.
func (e *Executor) Submit(spec RunSpec) string {
	if spec.Timeout <= 0 {
		spec.Timeout = e.defaultTimeout
	}
	if spec.MaxOutput <= 0 {
		spec.MaxOutput = e.maxOutput
	}

	job := newJob(spec)

	e.mu.Lock()
	e.evictOldJobs()
	e.jobs[job.id] = job
	e.mu.Unlock()

	go e.executeJob(job)
	return job.id
}

// Job returns a snapshot of the job with the given ID.
func (e *Executor) Job(id string) (JobSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	job, ok := e.jobs[id]
	if !ok {
		return JobSnapshot{}, false
	}
	return job.snapshotLocked(), true
}

// Wait blocks until the job reaches a terminal state and returns its
// outcome. The second return is false when the ID is unknown.
func (e *Executor) Wait(id string) (Outcome, bool) {
	e.mu.Lock()
	job, ok := e.jobs[id]
	e.mu.Unlock()
	if !ok {
		return Outcome{}, false
	}

	<-job.done

	e.mu.Lock()
	defer e.mu.Unlock()
	return job.result, true
}

// Cancel cancels a job that is still pending. Cancelling a running job is
// a no-op: the subprocess runs to its natural timeout.
func (e *Executor) Cancel(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	job, ok := e.jobs[id]
	if !ok || job.status != JobPending {
		return false
	}
	job.status = JobCancelled
	job.completedAt = time.Now()
	close(job.done)
	return true
}

// ListJobs returns a summary of all tracked jobs.
func (e *Executor) ListJobs() []JobSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	summaries := make([]JobSummary, 0, len(e.jobs))
	for _, job := range e.jobs {
		summaries = append(summaries, job.summaryLocked())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries
}

func (e *Executor) executeJob(job *Job) {
	e.mu.Lock()
	if job.status == JobCancelled {
		e.mu.Unlock()
		return
	}
	job.status = JobRunning
	job.startedAt = time.Now()
	e.mu.Unlock()

	result := e.Run(job.spec)

	e.mu.Lock()
	defer e.mu.Unlock()
	job.result = result
	job.completedAt = time.Now()
	switch {
	case result.TimedOut:
		job.status = JobTimeout
	case result.ReturnCode == 0:
		job.status = JobCompleted
	default:
		job.status = JobFailed
	}
	close(job.done)
	logging.Debug("Executor", "Job %s finished: status=%s rc=%d time=%dms",
		job.id, job.status, result.ReturnCode, result.TimeMs)
}

// evictOldJobs removes the oldest terminal jobs to restore the bound.
// Non-terminal jobs are never evicted. Caller must hold the mutex.
func (e *Executor) evictOldJobs() {
	if len(e.jobs) < e.maxJobs {
		return
	}
	terminal := make([]*Job, 0, len(e.jobs))
	for _, job := range e.jobs {
		if job.status.Terminal() {
			terminal = append(terminal, job)
		}
	}
	sort.Slice(terminal, func(i, j int) bool {
		return terminal[i].createdAt.Before(terminal[j].createdAt)
	})
	excess := len(e.jobs) - e.maxJobs + 1
	for i := 0; i < len(terminal) && i < excess; i++ {
		delete(e.jobs, terminal[i].id)
	}
}

func truncate(s string, limit int) (string, bool) {
	if len(s) > limit {
		return s[:limit], true
	}
	return s, false
}

func newJobID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
