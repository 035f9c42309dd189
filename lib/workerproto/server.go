// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package workerproto

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/atomist-sdm/sdmcore/lib/codec"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
)

const (
	readTimeout    = 30 * time.Second
	writeTimeout   = 10 * time.Second
	maxRequestSize = 1024 * 1024
)

// FetchGoalFunc resolves the exact goal event an isolated worker
// asked for.
type FetchGoalFunc func(ctx context.Context, goalSetID, uniqueName string) (goal.Event, error)

// ReportResultFunc records the terminal outcome an isolated worker
// reported before exiting.
type ReportResultFunc func(ctx context.Context, result WorkerResult) error

// Server serves the worker re-entry protocol on a Unix socket owned
// by the dispatching process. Each connection handles exactly one
// request-response cycle.
type Server struct {
	SocketPath   string
	Logger       *slog.Logger
	FetchGoal    FetchGoalFunc
	ReportResult ReportResultFunc

	activeConnections sync.WaitGroup
}

// Serve listens on SocketPath until ctx is canceled, handling
// connections concurrently. It removes any stale socket file left
// behind by a prior run before listening.
func (s *Server) Serve(ctx context.Context) error {
	os.Remove(s.SocketPath)

	listener, err := net.Listen("unix", s.SocketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.SocketPath, err)
	}
	defer listener.Close()

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.activeConnections.Wait()
				return nil
			default:
				return fmt.Errorf("accepting connection on %s: %w", s.SocketPath, err)
			}
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(readTimeout))

	var request Request
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&request); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		s.writeError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}

	switch request.Action {
	case "fetch-goal":
		s.handleFetchGoal(ctx, conn, request)
	case "report-result":
		s.handleReportResult(ctx, conn, request)
	default:
		s.writeError(conn, fmt.Sprintf("unknown action %q", request.Action))
	}
}

func (s *Server) handleFetchGoal(ctx context.Context, conn net.Conn, request Request) {
	if s.FetchGoal == nil {
		s.writeError(conn, "fetch-goal not supported by this server")
		return
	}
	g, err := s.FetchGoal(ctx, request.GoalSetID, request.UniqueName)
	if err != nil {
		s.logDebug("fetch-goal failed", "error", err)
		s.writeError(conn, err.Error())
		return
	}
	s.writeSuccess(conn, Response{OK: true, Goal: &g})
}

func (s *Server) handleReportResult(ctx context.Context, conn net.Conn, request Request) {
	if request.Result == nil {
		s.writeError(conn, "report-result: missing result")
		return
	}
	if s.ReportResult == nil {
		s.writeError(conn, "report-result not supported by this server")
		return
	}
	if err := s.ReportResult(ctx, *request.Result); err != nil {
		s.logDebug("report-result failed", "error", err)
		s.writeError(conn, err.Error())
		return
	}
	s.writeSuccess(conn, Response{OK: true})
}

func (s *Server) writeError(conn net.Conn, message string) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(Response{OK: false, Error: message}); err != nil {
		s.logDebug("failed to write error response", "error", err)
	}
}

func (s *Server) writeSuccess(conn net.Conn, response Response) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	response.OK = true
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logDebug("failed to write success response", "error", err)
	}
}

func (s *Server) logDebug(msg string, args ...any) {
	if s.Logger != nil {
		s.Logger.Debug(msg, args...)
	}
}
