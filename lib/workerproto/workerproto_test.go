// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package workerproto

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
)

func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "worker.sock")
	server := &Server{
		SocketPath: socketPath,
		FetchGoal: func(ctx context.Context, goalSetID, uniqueName string) (goal.Event, error) {
			return goal.Event{
				UniqueName: ref.MustParseUniqueName(uniqueName),
				State:      goal.StateRequested,
			}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the listener a moment to bind.
	time.Sleep(10 * time.Millisecond)

	return server, socketPath
}

func TestFetchGoalRoundTrip(t *testing.T) {
	_, socketPath := startTestServer(t)
	client := &Client{SocketPath: socketPath}

	g, err := client.FetchGoal(context.Background(), "set-1", "build")
	if err != nil {
		t.Fatalf("FetchGoal: %v", err)
	}
	if g.UniqueName.String() != "build" {
		t.Errorf("UniqueName = %q, want %q", g.UniqueName.String(), "build")
	}
}

func TestReportResultReachesHandler(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "worker.sock")
	var received WorkerResult
	server := &Server{
		SocketPath: socketPath,
		ReportResult: func(ctx context.Context, result WorkerResult) error {
			received = result
			return nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	defer func() { cancel(); <-done }()
	time.Sleep(10 * time.Millisecond)

	client := &Client{SocketPath: socketPath}
	if err := client.ReportResult(context.Background(), WorkerResult{Code: 0, State: string(goal.StateSuccess)}); err != nil {
		t.Fatalf("ReportResult: %v", err)
	}
	if received.State != string(goal.StateSuccess) {
		t.Errorf("server received state %q, want %q", received.State, goal.StateSuccess)
	}
}

func TestUnknownActionIsRejected(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "worker.sock")
	server := &Server{SocketPath: socketPath}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	defer func() { cancel(); <-done }()
	time.Sleep(10 * time.Millisecond)

	client := &Client{SocketPath: socketPath}
	if _, err := client.call(ctx, Request{Action: "not-a-real-action"}); err == nil {
		t.Fatal("expected an error for an unrecognized action")
	}
}
