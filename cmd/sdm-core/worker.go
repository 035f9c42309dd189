// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/atomist-sdm/sdmcore/lib/bootstrap"
	"github.com/atomist-sdm/sdmcore/lib/sealed"
	"github.com/atomist-sdm/sdmcore/lib/secret"
	"github.com/atomist-sdm/sdmcore/lib/workerproto"
)

// workerGracePeriod is how long a running command gets to exit on
// SIGTERM, mirroring SubprocessScheduler's shutdown grace period,
// before this worker gives up waiting and reports whatever exit
// status the command process last gave.
const workerGracePeriod = 5 * time.Second

// runWorker fulfills exactly one goal and exits. It refuses to run
// unless ATOMIST_ISOLATED_GOAL=true, mirroring the re-entry refusal
// a sandboxed subprocess executor uses to distinguish "I was launched
// to do isolated work" from "I was invoked directly by mistake."
func runWorker(ctx context.Context, logger *slog.Logger) error {
	if os.Getenv("ATOMIST_ISOLATED_GOAL") != "true" {
		return fmt.Errorf("worker: refusing to run outside an isolated goal invocation (ATOMIST_ISOLATED_GOAL not set)")
	}

	configPath := os.Getenv("ATOMIST_BOOTSTRAP_CONFIG")
	if configPath == "" {
		return fmt.Errorf("worker: kubernetes isolation has no bootstrap socket wired yet; ATOMIST_BOOTSTRAP_CONFIG is required")
	}

	cfg, err := bootstrap.ReadConfig(configPath)
	if err != nil {
		return fmt.Errorf("worker: reading bootstrap config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("worker: invalid bootstrap config: %w", err)
	}

	client := &workerproto.Client{SocketPath: cfg.SocketPath}

	goalEvent, err := client.FetchGoal(ctx, cfg.GoalSetID, cfg.UniqueName)
	if err != nil {
		return fmt.Errorf("worker: fetching goal event: %w", err)
	}

	env, err := resolveEnv(cfg)
	if err != nil {
		return fmt.Errorf("worker: resolving sealed credentials: %w", err)
	}

	params := parseData(goalEvent.Data)
	command := params["command"]
	if command == "" {
		return fmt.Errorf("worker: goal %s has no command to run", goalEvent.UniqueName.String())
	}

	logger.Info("worker: running goal", "uniqueName", goalEvent.UniqueName.String(), "goalSetId", cfg.GoalSetID)
	code, runErr := runShellCommand(ctx, command, env)

	result := workerproto.WorkerResult{Code: code}
	if runErr != nil {
		result.Message = runErr.Error()
	}
	if err := client.ReportResult(ctx, result); err != nil {
		return fmt.Errorf("worker: reporting result: %w", err)
	}
	return nil
}

// resolveEnv unseals the credential bundle the parent process
// encrypted to this worker's ephemeral key, when the goal's
// implementation needs live credentials. A goal with no sealed
// credentials runs with no extra environment beyond its own.
func resolveEnv(cfg *bootstrap.Config) (map[string]string, error) {
	if cfg.CredentialSealPath == "" {
		return nil, nil
	}

	sealedBytes, err := os.ReadFile(cfg.CredentialSealPath)
	if err != nil {
		return nil, fmt.Errorf("reading sealed credential bundle: %w", err)
	}
	privateKey, err := secret.ReadFromPath(cfg.WorkerPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading worker private key: %w", err)
	}
	defer privateKey.Close()

	plaintext, err := sealed.Decrypt(strings.TrimSpace(string(sealedBytes)), privateKey)
	if err != nil {
		return nil, fmt.Errorf("unsealing credential bundle: %w", err)
	}
	defer plaintext.Close()

	var env map[string]string
	if err := json.Unmarshal(plaintext.Bytes(), &env); err != nil {
		return nil, fmt.Errorf("parsing unsealed credential bundle: %w", err)
	}
	return env, nil
}

// parseData reads a goal's free-form Data field as a flat JSON object
// of string values, the same relaxed parsing the dispatcher applies
// to admission parameters. Data that is empty or not a flat string
// object yields no parameters.
func parseData(data string) map[string]string {
	if data == "" {
		return nil
	}
	var params map[string]string
	if err := json.Unmarshal([]byte(data), &params); err != nil {
		return nil
	}
	return params
}

// runShellCommand runs command through sh -c with env merged onto
// the worker's own environment, returning its exit code. A context
// cancellation sends SIGTERM to the whole process group and escalates
// to SIGKILL after workerGracePeriod.
func runShellCommand(ctx context.Context, command string, env map[string]string) (int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	for key, value := range env {
		cmd.Env = append(cmd.Env, key+"="+value)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}
	cmd.WaitDelay = workerGracePeriod

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 1, err
}
