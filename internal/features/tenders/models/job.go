package models

import "time"

// JobState describes what a scheduler job is currently doing
type JobState string

const (
	JobIdle    JobState = "idle"
	JobRunning JobState = "running"
	JobError   JobState = "error"
)

// Job is the scheduler-owned runtime state for one source. Jobs are
// created when the scheduler starts and live for the whole process;
// only the run executing a job may mutate it.
type Job struct {
	SourceID     string
	Status       JobState
	LastRun      time.Time
	NextRun      time.Time
	SuccessCount int
	ErrorCount   int
	LastError    string
	LastRunID    string
	FetchedCount int
	StoredCount  int
}

// JobStatus is a read-only snapshot of a Job for the observability
// surface. Mutating a snapshot never touches scheduler state.
type JobStatus struct {
	SourceID     string     `json:"source_id"`
	SourceName   string     `json:"source_name"`
	Status       JobState   `json:"status"`
	Priority     int        `json:"priority"`
	Interval     string     `json:"interval"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	NextRun      *time.Time `json:"next_run,omitempty"`
	SuccessCount int        `json:"success_count"`
	ErrorCount   int        `json:"error_count"`
	LastError    string     `json:"last_error,omitempty"`
	LastRunID    string     `json:"last_run_id,omitempty"`
	FetchedCount int        `json:"fetched_count"`
	StoredCount  int        `json:"stored_count"`
}
