package executor

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCapturesOutput(t *testing.T) {
	e := New()
	outcome := e.Run(RunSpec{Command: []string{"sh", "-c", "echo out; echo err >&2"}})

	assert.Equal(t, 0, outcome.ReturnCode)
	assert.Equal(t, "out\n", outcome.Stdout)
	assert.Equal(t, "err\n", outcome.Stderr)
	assert.False(t, outcome.TimedOut)
	assert.False(t, outcome.Truncated)
	assert.GreaterOrEqual(t, outcome.TimeMs, int64(0))
}

func TestRunPipesInput(t *testing.T) {
	e := New()
	outcome := e.Run(RunSpec{Command: []string{"cat"}, Input: "hello stdin"})

	assert.Equal(t, 0, outcome.ReturnCode)
	assert.Equal(t, "hello stdin", outcome.Stdout)
}

func TestRunNonZeroExit(t *testing.T) {
	e := New()
	outcome := e.Run(RunSpec{Command: []string{"sh", "-c", "exit 3"}})

	assert.Equal(t, 3, outcome.ReturnCode)
	assert.False(t, outcome.TimedOut)
}

func TestRunCommandNotFound(t *testing.T) {
	e := New()
	outcome := e.Run(RunSpec{Command: []string{"definitely-not-a-command-xyz"}})

	assert.Equal(t, -1, outcome.ReturnCode)
	assert.Contains(t, outcome.Stderr, "definitely-not-a-command-xyz")
}

func TestRunTimeout(t *testing.T) {
	e := New()
	start := time.Now()
	outcome := e.Run(RunSpec{
		Command: []string{"sleep", "10"},
		Timeout: 200 * time.Millisecond,
	})

	assert.True(t, outcome.TimedOut)
	assert.Equal(t, -1, outcome.ReturnCode)
	assert.Empty(t, outcome.Stdout)
	assert.Contains(t, outcome.Stderr, "timed out")
	assert.Less(t, time.Since(start), 5*time.Second, "child must be killed promptly")
}

func TestRunOutputCap(t *testing.T) {
	e := New()
	outcome := e.Run(RunSpec{
		Command:   []string{"sh", "-c", "printf '%01000d' 7"},
		MaxOutput: 100,
	})

	assert.Equal(t, 0, outcome.ReturnCode)
	assert.Len(t, outcome.Stdout, 100)
	assert.True(t, outcome.Truncated)
}

func TestRunOutputBelowCapNotTruncated(t *testing.T) {
	e := New()
	outcome := e.Run(RunSpec{
		Command:   []string{"echo", "short"},
		MaxOutput: 100,
	})

	assert.False(t, outcome.Truncated)
}

func TestSubmitAndWait(t *testing.T) {
	e := New()
	id := e.Submit(RunSpec{Command: []string{"echo", "async"}})
	require.NotEmpty(t, id)

	outcome, ok := e.Wait(id)
	require.True(t, ok)
	assert.Equal(t, 0, outcome.ReturnCode)
	assert.Equal(t, "async\n", outcome.Stdout)

	snapshot, ok := e.Job(id)
	require.True(t, ok)
	assert.Equal(t, JobCompleted, snapshot.Status)
	assert.False(t, snapshot.CompletedAt.IsZero())
}

func TestWaitUnknownJob(t *testing.T) {
	e := New()
	_, ok := e.Wait("nope")
	assert.False(t, ok)
}

func TestSubmitFailedJob(t *testing.T) {
	e := New()
	id := e.Submit(RunSpec{Command: []string{"sh", "-c", "exit 1"}})

	_, ok := e.Wait(id)
	require.True(t, ok)

	snapshot, _ := e.Job(id)
	assert.Equal(t, JobFailed, snapshot.Status)
}

func TestSubmitTimeoutJob(t *testing.T) {
	e := New()
	id := e.Submit(RunSpec{
		Command: []string{"sleep", "10"},
		Timeout: 100 * time.Millisecond,
	})

	outcome, ok := e.Wait(id)
	require.True(t, ok)
	assert.True(t, outcome.TimedOut)

	snapshot, _ := e.Job(id)
	assert.Equal(t, JobTimeout, snapshot.Status)
}

func TestCancelRunningJobIsNoop(t *testing.T) {
	e := New()
	id := e.Submit(RunSpec{
		Command: []string{"sleep", "0.3"},
		Timeout: 5 * time.Second,
	})

	// Give the worker time to move the job to running.
	deadline := time.Now().Add(2 * time.Second)
	for {
		snapshot, ok := e.Job(id)
		require.True(t, ok)
		if snapshot.Status != JobPending || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	e.Cancel(id)
	outcome, ok := e.Wait(id)
	require.True(t, ok)
	assert.Equal(t, 0, outcome.ReturnCode)
}

func TestCancelUnknownJob(t *testing.T) {
	e := New()
	assert.False(t, e.Cancel("unknown"))
}

func TestEvictionKeepsBound(t *testing.T) {
	e := New(WithMaxJobs(5))

	ids := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		id := e.Submit(RunSpec{Command: []string{"true"}})
		ids = append(ids, id)
		_, ok := e.Wait(id)
		require.True(t, ok)
	}

	jobs := e.ListJobs()
	assert.LessOrEqual(t, len(jobs), 5)

	// The most recent job must survive.
	_, ok := e.Job(ids[len(ids)-1])
	assert.True(t, ok)
}

func TestEvictionSkipsNonTerminal(t *testing.T) {
	e := New(WithMaxJobs(2))

	slow := e.Submit(RunSpec{
		Command: []string{"sleep", "2"},
		Timeout: 10 * time.Second,
	})
	for i := 0; i < 4; i++ {
		id := e.Submit(RunSpec{Command: []string{"true"}})
		_, ok := e.Wait(id)
		require.True(t, ok)
	}

	// The running job must never be evicted, even though it is oldest.
	_, ok := e.Job(slow)
	assert.True(t, ok)

	_, ok = e.Wait(slow)
	require.True(t, ok)
}

func TestListJobsSortedByCreation(t *testing.T) {
	e := New()
	first := e.Submit(RunSpec{Command: []string{"true"}})
	_, _ = e.Wait(first)
	second := e.Submit(RunSpec{Command: []string{"true"}})
	_, _ = e.Wait(second)

	jobs := e.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, first, jobs[0].ID)
	assert.Equal(t, second, jobs[1].ID)
	assert.Equal(t, "true", jobs[0].Command)
}

func TestJobIDFormat(t *testing.T) {
	e := New()
	id := e.Submit(RunSpec{Command: []string{"true"}})
	assert.Len(t, id, 12)
	assert.NotContains(t, id, "-")
	_, _ = e.Wait(id)
}

func TestTruncate(t *testing.T) {
	s, truncated := truncate(strings.Repeat("a", 10), 4)
	assert.Equal(t, "aaaa", s)
	assert.True(t, truncated)

	s, truncated = truncate("ab", 4)
	assert.Equal(t, "ab", s)
	assert.False(t, truncated)
}
