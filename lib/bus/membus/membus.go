// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package membus implements bus.EventBus entirely in memory, for
// tests that need a real EventBus without a network dependency.
package membus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/atomist-sdm/sdmcore/lib/bus"
	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
	"github.com/atomist-sdm/sdmcore/lib/schema/job"
)

// Bus is an in-memory bus.EventBus. The zero value is not usable; use
// New.
type Bus struct {
	mu sync.Mutex

	goalSets map[ref.GoalSetID]*goal.Set
	jobs     map[job.ID]*job.Job
	nextJob  int

	subscribers map[bus.EventKind][]chan bus.Envelope
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		goalSets:    make(map[ref.GoalSetID]*goal.Set),
		jobs:        make(map[job.ID]*job.Job),
		subscribers: make(map[bus.EventKind][]chan bus.Envelope),
	}
}

// SeedGoalSet installs a goal set for GetGoalSet/PutGoalState to
// operate on, bypassing Publish. Tests call this to set up fixtures.
func (b *Bus) SeedGoalSet(set goal.Set) {
	b.mu.Lock()
	defer b.mu.Unlock()
	copied := set
	b.goalSets[set.GoalSetID] = &copied
}

// Publish records payload and delivers it to every live subscriber for
// kind. Subscribers that aren't currently receiving are skipped
// (buffered channel, capacity 16); a slow subscriber can miss events,
// matching the at-most-once, best-effort delivery a real bus gives no
// stronger guarantee than either.
func (b *Bus) Publish(_ context.Context, kind bus.EventKind, payload any) (bus.RecordID, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("membus: encoding payload: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	recordID := bus.RecordID(fmt.Sprintf("%s-%d", kind, len(b.subscribers[kind])))
	for _, ch := range b.subscribers[kind] {
		select {
		case ch <- bus.Envelope{Kind: kind, Payload: encoded}:
		default:
		}
	}
	return recordID, nil
}

// Subscribe returns a channel of future events of kind. The channel is
// closed when ctx is canceled.
func (b *Bus) Subscribe(ctx context.Context, kind bus.EventKind) (<-chan bus.Envelope, error) {
	ch := make(chan bus.Envelope, 16)

	b.mu.Lock()
	b.subscribers[kind] = append(b.subscribers[kind], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[kind]
		for i, existing := range subs {
			if existing == ch {
				b.subscribers[kind] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch, nil
}

// GetGoalSet returns the seeded or published goal set for goalSetID.
func (b *Bus) GetGoalSet(_ context.Context, goalSetID ref.GoalSetID) (*goal.Set, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.goalSets[goalSetID]
	if !ok {
		return nil, fmt.Errorf("membus: no goal set %s", goalSetID)
	}
	copied := *set
	return &copied, nil
}

// PutGoalState applies update to the matching goal event within its
// set, creating the set record if this is its first goal.
func (b *Bus) PutGoalState(_ context.Context, update goal.StateUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.goalSets[update.GoalSetID]
	if !ok {
		set = &goal.Set{GoalSetID: update.GoalSetID}
		b.goalSets[update.GoalSetID] = set
	}

	key := goal.Key{Environment: update.Environment, UniqueName: update.UniqueName}
	for i := range set.Goals {
		if set.Goals[i].Key() == key {
			set.Goals[i].State = update.State
			set.Goals[i].Description = update.Description
			set.Goals[i].URL = update.URL
			set.Goals[i].ExternalURLs = update.ExternalURLs
			set.Goals[i].Data = update.Data
			return nil
		}
	}

	set.Goals = append(set.Goals, goal.Event{
		GoalSetID:    update.GoalSetID,
		UniqueName:   update.UniqueName,
		Environment:  update.Environment,
		State:        update.State,
		Description:  update.Description,
		URL:          update.URL,
		ExternalURLs: update.ExternalURLs,
		Data:         update.Data,
	})
	return nil
}

// CreateJob stores j under a newly assigned ID.
func (b *Bus) CreateJob(_ context.Context, j job.Job) (job.ID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextJob++
	id := job.ID(fmt.Sprintf("job-%d", b.nextJob))
	stored := j
	stored.ID = id
	b.jobs[id] = &stored
	return id, nil
}

// SetTaskState updates one task's state within an existing Job.
func (b *Bus) SetTaskState(_ context.Context, jobID job.ID, task string, state job.TaskState) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	j, ok := b.jobs[jobID]
	if !ok {
		return fmt.Errorf("membus: no job %s", jobID)
	}
	if !j.SetTaskState(task, state, "") {
		return fmt.Errorf("membus: job %s has no task %q", jobID, task)
	}
	return nil
}

var _ bus.EventBus = (*Bus)(nil)
