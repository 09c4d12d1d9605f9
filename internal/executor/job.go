package executor

import "time"

// JobStatus is the lifecycle state of a tracked job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
	JobTimeout   JobStatus = "timeout"
)

// Terminal reports whether the status is final. A job reaches a terminal
// state exactly once and is immutable afterwards.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled, JobTimeout:
		return true
	}
	return false
}

// Job is a tracked subprocess invocation. All fields are protected by the
// owning executor's mutex; done is closed exactly once, when the job
// reaches a terminal state.
type Job struct {
	id          string
	spec        RunSpec
	status      JobStatus
	result      Outcome
	createdAt   time.Time
	startedAt   time.Time
	completedAt time.Time
	done        chan struct{}
}

func newJob(spec RunSpec) *Job {
	return &Job{
		id:        newJobID(),
		spec:      spec,
		status:    JobPending,
		createdAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// JobSnapshot is a point-in-time copy of a job's externally visible state.
type JobSnapshot struct {
	ID          string
	Command     []string
	Status      JobStatus
	Result      Outcome
	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// JobSummary is the compact form returned by ListJobs.
type JobSummary struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	Command   string    `json:"command"`
	CreatedAt time.Time `json:"created_at"`
	TimeMs    int64     `json:"time_ms"`
}

func (j *Job) snapshotLocked() JobSnapshot {
	command := make([]string, len(j.spec.Command))
	copy(command, j.spec.Command)
	return JobSnapshot{
		ID:          j.id,
		Command:     command,
		Status:      j.status,
		Result:      j.result,
		CreatedAt:   j.createdAt,
		StartedAt:   j.startedAt,
		CompletedAt: j.completedAt,
	}
}

func (j *Job) summaryLocked() JobSummary {
	command := ""
	if len(j.spec.Command) > 0 {
		command = j.spec.Command[0]
	}
	return JobSummary{
		ID:        j.id,
		Status:    j.status,
		Command:   command,
		CreatedAt: j.createdAt,
		TimeMs:    j.result.TimeMs,
	}
}
