// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package workerproto

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/atomist-sdm/sdmcore/lib/codec"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
)

const (
	dialTimeout         = 5 * time.Second
	responseReadTimeout = 30 * time.Second
	maxResponseSize     = 1024 * 1024
)

// Client dials the parent process's bootstrap socket on behalf of an
// isolated goal worker. Each call opens a new connection rather than
// holding one open for the worker's lifetime.
type Client struct {
	SocketPath string
}

// FetchGoal retrieves the exact goal event this worker was launched
// to fulfill.
func (c *Client) FetchGoal(ctx context.Context, goalSetID, uniqueName string) (goal.Event, error) {
	response, err := c.call(ctx, Request{Action: "fetch-goal", GoalSetID: goalSetID, UniqueName: uniqueName})
	if err != nil {
		return goal.Event{}, err
	}
	if response.Goal == nil {
		return goal.Event{}, fmt.Errorf("fetch-goal: parent returned no goal")
	}
	return *response.Goal, nil
}

// ReportResult sends the worker's terminal outcome to the parent
// process before exiting.
func (c *Client) ReportResult(ctx context.Context, result WorkerResult) error {
	_, err := c.call(ctx, Request{Action: "report-result", Result: &result})
	return err
}

func (c *Client) call(ctx context.Context, request Request) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", c.SocketPath, err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing %s request: %w", request.Action, err)
	}
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		return nil, fmt.Errorf("reading %s response: %w", request.Action, err)
	}
	if !response.OK {
		return nil, fmt.Errorf("%s rejected: %s", request.Action, response.Error)
	}
	return &response, nil
}
