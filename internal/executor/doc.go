// Package executor provides the subprocess primitive shared by all
// external-binary CAS engines.
//
// It offers two modes of operation over the same semantics:
//
//   - Run: spawn a command, pipe input on stdin, capture stdout/stderr with
//     a byte cap, and kill the child when the wall-clock timeout expires.
//     Failures (timeout, command not found, non-zero exit) are captured
//     into the Outcome and never escape as errors.
//   - Submit/Wait/Cancel: fire-and-forget job submission with a tracked
//     lifecycle (pending, running, completed, failed, timeout, cancelled).
//     Each job runs on its own goroutine; there is no shared worker pool.
//
// The job table is bounded (100 jobs by default). When an insertion would
// exceed the bound, the oldest terminal jobs are evicted; non-terminal jobs
// are never evicted. All job-table mutations are serialized behind one
// mutex, and Wait observers synchronize on a per-job done channel.
package executor
