// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package job defines the Job and JobTask types: a durable handle for
// an isolated out-of-process execution, distinct from the Kubernetes
// Job resource the isolated-goal scheduler's kubernetes strategy
// happens to create (see lib/isolate).
package job

// ID is the bus-assigned identifier for a Job record.
type ID string

// TaskState is a JobTask's lifecycle state.
type TaskState string

const (
	TaskCreated TaskState = "created"
	TaskRunning TaskState = "running"
	TaskSuccess TaskState = "success"
	TaskFailed  TaskState = "failed"
)

// Task is one unit of work within a Job.
type Task struct {
	Name       string
	Parameters map[string]string
	State      TaskState
	Message    string
}

// Job is a durable handle for an isolated execution: a name, an
// owning registration, opaque trigger data, and the list of tasks it
// comprises.
type Job struct {
	ID    ID
	Name  string
	Owner string
	Data  string
	Tasks []Task
}

// SetTaskState updates the named task's state and message in place.
// Returns false if no task with that name exists.
func (j *Job) SetTaskState(name string, state TaskState, message string) bool {
	for i := range j.Tasks {
		if j.Tasks[i].Name == name {
			j.Tasks[i].State = state
			j.Tasks[i].Message = message
			return true
		}
	}
	return false
}
