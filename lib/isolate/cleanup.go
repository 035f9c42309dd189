// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package isolate

import (
	"context"
	"log/slog"

	"github.com/atomist-sdm/sdmcore/lib/clock"
	"github.com/atomist-sdm/sdmcore/lib/cron"
)

// DefaultCleanupSchedule sweeps finished Jobs every two hours.
const DefaultCleanupSchedule = "0 */2 * * *"

// Cleanup periodically deletes succeeded Jobs this deployment created,
// so a long-lived cluster doesn't accumulate one Job object per goal
// forever.
type Cleanup struct {
	Client     Client
	Clock      clock.Clock
	Schedule   cron.Schedule
	Namespace  string
	Deployment string
	Logger     *slog.Logger
}

// NewCleanup parses expression and builds a Cleanup ready to Run. An
// empty expression uses DefaultCleanupSchedule.
func NewCleanup(client Client, clk clock.Clock, namespace, deployment, expression string, logger *slog.Logger) (*Cleanup, error) {
	if expression == "" {
		expression = DefaultCleanupSchedule
	}
	schedule, err := cron.Parse(expression)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleanup{
		Client:     client,
		Clock:      clk,
		Schedule:   schedule,
		Namespace:  namespace,
		Deployment: deployment,
		Logger:     logger,
	}, nil
}

// Run blocks, sweeping at each scheduled tick until ctx is canceled.
func (c *Cleanup) Run(ctx context.Context) error {
	for {
		next, err := c.Schedule.Next(c.Clock.Now())
		if err != nil {
			return err
		}
		wait := next.Sub(c.Clock.Now())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.Clock.After(wait):
			c.sweep(ctx)
		}
	}
}

// sweep deletes every succeeded Job this deployment created. A single
// Job's delete failure is logged and does not stop the sweep.
func (c *Cleanup) sweep(ctx context.Context) {
	prefix := c.Deployment + "-job-"
	names, err := c.Client.ListSucceededJobNames(ctx, c.Namespace, prefix)
	if err != nil {
		c.Logger.Error("isolate: listing succeeded jobs for cleanup", "error", err)
		return
	}
	for _, name := range names {
		if err := c.Client.DeleteJob(ctx, c.Namespace, name); err != nil {
			c.Logger.Error("isolate: deleting succeeded job", "job", name, "error", err)
		}
	}
}
