// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package isolate

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/atomist-sdm/sdmcore/lib/bootstrap"
	"github.com/atomist-sdm/sdmcore/lib/dispatch"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
	"github.com/atomist-sdm/sdmcore/lib/workerproto"
)

// isolationSubprocess is the GoalInvocation.Parameters["isolation"]
// value that routes an invocation to SubprocessScheduler.
const isolationSubprocess = "subprocess"

// shutdownGracePeriod is how long a canceled worker's process group
// gets to exit on SIGTERM before SIGKILL follows.
const shutdownGracePeriod = 5 * time.Second

// SubprocessScheduler fulfills a goal by re-executing the current
// binary with ATOMIST_ISOLATED_GOAL=true: a self re-exec into a
// worker role, rather than a distinct worker binary.
type SubprocessScheduler struct {
	// WorkerBinary is the executable to re-exec. Defaults to the
	// result of os.Executable when empty.
	WorkerBinary string

	// Args are extra arguments passed to WorkerBinary, ahead of the
	// environment-variable bootstrap contract. Production callers
	// normally leave this nil; it exists so tests can re-exec the test
	// binary itself with a -test.run filter.
	Args []string

	// RunDir is the directory bootstrap sockets and config files are
	// created under, one subdirectory per invocation.
	RunDir string

	// FetchGoal resolves the exact goal event the worker asks for over
	// its bootstrap socket.
	FetchGoal workerproto.FetchGoalFunc
}

// Supports claims invocations whose goal implementation requested
// subprocess isolation.
func (s *SubprocessScheduler) Supports(inv dispatch.GoalInvocation) bool {
	return inv.Parameters["isolation"] == isolationSubprocess
}

// Schedule launches the worker subprocess, serves its bootstrap
// socket until it reports a result or exits, and translates the
// reported WorkerResult into a dispatch.Result.
func (s *SubprocessScheduler) Schedule(ctx context.Context, inv dispatch.GoalInvocation) (dispatch.Result, error) {
	e := inv.Goal

	workDir, err := os.MkdirTemp(s.RunDir, "goal-"+e.UniqueName.String()+"-")
	if err != nil {
		return dispatch.Result{}, fmt.Errorf("creating worker run directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	socketPath := filepath.Join(workDir, "bootstrap.sock")
	resultCh := make(chan workerproto.WorkerResult, 1)

	server := &workerproto.Server{
		SocketPath: socketPath,
		FetchGoal:  s.FetchGoal,
		ReportResult: func(_ context.Context, result workerproto.WorkerResult) error {
			select {
			case resultCh <- result:
			default:
			}
			return nil
		},
	}
	serverCtx, stopServer := context.WithCancel(ctx)
	serverDone := make(chan error, 1)
	go func() { serverDone <- server.Serve(serverCtx) }()

	configPath := filepath.Join(workDir, "bootstrap.json")
	config := &bootstrap.Config{
		GoalSetID:     e.GoalSetID.String(),
		UniqueName:    e.UniqueName.String(),
		CorrelationID: inv.Parameters["correlationId"],
		Team:          inv.Parameters["team"],
		TeamName:      inv.Parameters["teamName"],
		SocketPath:    socketPath,
	}
	if err := bootstrap.WriteConfig(configPath, config); err != nil {
		stopServer()
		<-serverDone
		return dispatch.Result{}, fmt.Errorf("writing worker bootstrap config: %w", err)
	}

	binary := s.WorkerBinary
	if binary == "" {
		resolved, err := os.Executable()
		if err != nil {
			stopServer()
			<-serverDone
			return dispatch.Result{}, fmt.Errorf("resolving worker binary: %w", err)
		}
		binary = resolved
	}

	cmd := exec.CommandContext(ctx, binary, s.Args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		"ATOMIST_ISOLATED_GOAL=true",
		"ATOMIST_GOAL_SET_ID="+e.GoalSetID.String(),
		"ATOMIST_GOAL_UNIQUE_NAME="+e.UniqueName.String(),
		"ATOMIST_CORRELATION_ID="+inv.Parameters["correlationId"],
		"ATOMIST_GOAL_TEAM="+inv.Parameters["team"],
		"ATOMIST_GOAL_TEAM_NAME="+inv.Parameters["teamName"],
		"ATOMIST_BOOTSTRAP_CONFIG="+configPath,
	)

	// Own process group: a canceled goal's worker may have spawned
	// children (a build tool, a shell) that must die with it.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		pgid := -cmd.Process.Pid
		if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil {
			return syscall.Kill(pgid, syscall.SIGKILL)
		}
		go func() {
			time.Sleep(shutdownGracePeriod)
			_ = syscall.Kill(pgid, syscall.SIGKILL)
		}()
		return nil
	}

	runErr := cmd.Run()
	stopServer()
	<-serverDone

	select {
	case result := <-resultCh:
		return dispatch.Result{
			Code:         result.Code,
			Message:      result.Message,
			State:        goal.State(result.State),
			Phase:        result.Phase,
			URL:          result.URL,
			ExternalURLs: result.ExternalURLs,
		}, nil
	default:
	}

	if runErr != nil {
		return dispatch.Result{}, fmt.Errorf("worker process for %s: %w", e.Key(), runErr)
	}
	return dispatch.Result{}, fmt.Errorf("worker process for %s exited without reporting a result", e.Key())
}
