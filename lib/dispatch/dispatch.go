// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/atomist-sdm/sdmcore/lib/goalsign"
	"github.com/atomist-sdm/sdmcore/lib/goalstate"
	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
)

// Registry resolves the Implementation responsible for a goal, keyed
// by its (environment, uniqueName).
type Registry map[goal.Key]Implementation

// Dispatcher holds everything needed to admit and execute requested
// goal events for one SDM registration.
type Dispatcher struct {
	Self ref.RegistrationName

	Verifier       *goalsign.Verifier
	SigningEnabled bool

	Implementations Registry

	// FetchSet re-fetches the authoritative goal-set state, used by
	// admission filter 3 to detect a cancellation race.
	FetchSet func(ctx context.Context, id ref.GoalSetID) (goal.Set, error)

	// Publish persists an updated goal event (state transition,
	// description, URL) to the external store and bus.
	Publish func(ctx context.Context, e goal.Event) error

	// Host identifies this process for the in_process start metadata
	// the dispatcher records. Version is read separately from build
	// info by the caller wiring the Dispatcher.
	Host    string
	Version string
}

// Dispatch runs a requested goal event through the admission filters
// and, if admitted, executes it. It returns
// nil both when the goal was ignored and when it completed
// successfully; it returns a non-nil error only for infrastructure
// failures (fetch/publish errors), never for a goal that failed —
// a failed goal is a successfully processed event.
func (d *Dispatcher) Dispatch(ctx context.Context, e goal.Event) error {
	// Filter 1: relevance.
	if !e.Relevant(d.Self) {
		return nil
	}

	// Filter 2: signature.
	if err := d.Verifier.Verify(e, d.SigningEnabled); err != nil {
		return d.rejectThroughInProcess(ctx, e, err.Error())
	}

	// Filter 3: not already canceled since requested.
	if d.FetchSet != nil {
		set, err := d.FetchSet(ctx, e.GoalSetID)
		if err != nil {
			return fmt.Errorf("dispatch %s: re-fetching goal set: %w", e.Key(), err)
		}
		if current, found := set.Find(e.Key()); found && current.State != goal.StateRequested {
			// Someone else already moved this goal on (most likely the
			// cancellation cascade); nothing left for the dispatcher to do.
			return nil
		}
	}

	// Filter 4: fulfillment method switch.
	switch e.Fulfillment.Method {
	case goal.FulfillmentSdm:
		// execute below
	case goal.FulfillmentSideEffect:
		if e.Fulfillment.Name != d.Self {
			return nil
		}
	case goal.FulfillmentOther:
		return d.rejectThroughInProcess(ctx, e, "No fulfillment")
	default:
		return d.rejectThroughInProcess(ctx, e, "No fulfillment")
	}

	impl, ok := d.Implementations[e.Key()]
	if !ok {
		return d.rejectThroughInProcess(ctx, e, fmt.Sprintf("no implementation registered for %s", e.Key()))
	}

	return d.execute(ctx, e, impl)
}

// rejectThroughInProcess marks e in_process (the only state the
// requested->failure path can reach through, per the permitted
// transition table) and immediately completes it with a failure
// carrying message.
func (d *Dispatcher) rejectThroughInProcess(ctx context.Context, e goal.Event, message string) error {
	inProcess, err := goalstate.Apply(e, goal.StateInProcess)
	if err != nil {
		return fmt.Errorf("dispatch %s: %w", e.Key(), err)
	}
	if err := d.publish(ctx, inProcess); err != nil {
		return err
	}

	failed, err := goalstate.Apply(inProcess, goal.StateFailure)
	if err != nil {
		return fmt.Errorf("dispatch %s: %w", e.Key(), err)
	}
	failed.Description = message
	return d.publish(ctx, failed)
}

func (d *Dispatcher) execute(ctx context.Context, e goal.Event, impl Implementation) error {
	inProcess, err := goalstate.Apply(e, goal.StateInProcess)
	if err != nil {
		return fmt.Errorf("dispatch %s: %w", e.Key(), err)
	}
	inProcess.Description = fmt.Sprintf("Running on %s (%s %s) for %s@%s",
		d.Host, d.Self, d.Version, e.Repo, e.SHA.Short())
	if err := d.publish(ctx, inProcess); err != nil {
		return err
	}

	inv := GoalInvocation{Goal: inProcess, Parameters: parseParameters(inProcess.Data)}

	for _, l := range impl.Listeners {
		if l.Before != nil {
			l.Before(ctx, inv)
		}
	}

	scheduler := d.selectScheduler(impl, inv)

	var result Result
	var execErr error
	if scheduler != nil {
		result, execErr = scheduler.Schedule(ctx, inv)
	} else if impl.Executor != nil {
		result, execErr = impl.Executor.Execute(ctx, inv)
	} else {
		execErr = fmt.Errorf("no executor or scheduler configured for %s", e.Key())
	}

	// Any thrown error is captured as failure rather than propagated —
	// processing the event itself succeeded even though the goal failed.
	if execErr != nil {
		result = Result{Code: 1, State: goal.StateFailure, Message: execErr.Error()}
	}

	for _, l := range impl.Listeners {
		if l.After != nil {
			l.After(ctx, inv, result)
		}
	}

	if scheduler != nil && result.Code == 0 && result.State == "" {
		// Scheduled execution with no terminal state yet: the goal
		// moves to in_process/scheduled and an external worker will
		// later publish the real terminal state.
		scheduled := inProcess
		scheduled.Description = "Scheduled"
		if result.Phase == "" {
			result.Phase = "scheduled"
		}
		return d.publish(ctx, scheduled)
	}

	terminal, err := goalstate.Apply(inProcess, result.terminalState())
	if err != nil {
		return fmt.Errorf("dispatch %s: %w", e.Key(), err)
	}
	terminal.Description = result.Message
	terminal.URL = result.URL
	terminal.ExternalURLs = result.ExternalURLs
	return d.publish(ctx, terminal)
}

// selectScheduler returns the first configured scheduler whose
// Supports reports true for inv, or nil if none claim it (meaning
// in-process execution).
func (d *Dispatcher) selectScheduler(impl Implementation, inv GoalInvocation) Scheduler {
	for _, s := range impl.Schedulers {
		if s.Supports(inv) {
			return s
		}
	}
	return nil
}

// parseParameters reads a goal's free-form Data field as a flat JSON
// object of string values (the "isolation", "correlationId", "team",
// "teamName" keys the isolated-goal schedulers and worker bootstrap
// read, plus whatever else a goal definition puts there). Data that
// is empty or not a flat string object yields no parameters rather
// than an error — Data is documented as free-form, not guaranteed to
// be a parameter object.
func parseParameters(data string) map[string]string {
	if data == "" {
		return nil
	}
	var params map[string]string
	if err := json.Unmarshal([]byte(data), &params); err != nil {
		return nil
	}
	return params
}

func (d *Dispatcher) publish(ctx context.Context, e goal.Event) error {
	if d.Publish == nil {
		return nil
	}
	if err := d.Publish(ctx, e); err != nil {
		return fmt.Errorf("publishing goal %s: %w", e.Key(), err)
	}
	return nil
}
