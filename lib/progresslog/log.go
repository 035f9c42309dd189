// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package progresslog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/atomist-sdm/sdmcore/lib/clock"
)

// DefaultBufferBytes and DefaultFlushInterval match the stated
// defaults: a flush is triggered by size or time, whichever comes
// first.
const (
	DefaultBufferBytes   = 1000
	DefaultFlushInterval = 2 * time.Second
)

// Config configures a Log's persistent sink and flush behavior. Read
// from the operational configuration file, not hardcoded, so operators
// can tune buffering per environment.
type Config struct {
	// BufferBytes is the size threshold that triggers a flush.
	BufferBytes int

	// FlushInterval is the time threshold that triggers a flush.
	FlushInterval time.Duration

	// RemoteURL is the base URL of the remote log service. Each Log
	// posts to RemoteURL plus a goal-specific path. Empty disables the
	// remote sink.
	RemoteURL string

	// LocalDir is the directory local log files are written under
	// when the remote sink is unavailable. Empty disables the local
	// fallback sink.
	LocalDir string
}

func (c Config) withDefaults() Config {
	if c.BufferBytes <= 0 {
		c.BufferBytes = DefaultBufferBytes
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	return c
}

// Log is one goal's progress log: an always-on ephemeral sink plus,
// when one could be established, a persistent sink. It satisfies
// lib/dispatch.ProgressLog.
type Log struct {
	mu         sync.Mutex
	ephemeral  sink
	persistent sink
	publicURL  string

	buf           bytes.Buffer
	bufferBytes   int
	flushInterval time.Duration

	clk    clock.Clock
	ticker *clock.Ticker
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// New establishes a progress log for the goal identified by
// goalSetID/uniqueName. It tries the remote log service first; if
// RemoteURL is unset or unreachable, it falls back to a local file
// under LocalDir; if neither is available, the log runs
// ephemeral-only.
func New(ctx context.Context, cfg Config, clk clock.Clock, goalSetID, uniqueName string) (*Log, error) {
	cfg = cfg.withDefaults()
	logCtx, cancel := context.WithCancel(ctx)

	l := &Log{
		ephemeral:     newEphemeralSink(os.Stdout),
		bufferBytes:   cfg.BufferBytes,
		flushInterval: cfg.FlushInterval,
		clk:           clk,
		ctx:           logCtx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}

	if cfg.RemoteURL != "" {
		endpoint := cfg.RemoteURL + "/" + goalSetID + "/" + uniqueName
		if probeRemote(ctx, endpoint) {
			l.persistent = newRemoteSink(endpoint)
			l.publicURL = endpoint
		}
	}
	if l.persistent == nil && cfg.LocalDir != "" {
		path := filepath.Join(cfg.LocalDir, goalSetID, uniqueName+".log.lz4")
		local, err := newLocalSink(path)
		if err != nil {
			cancel()
			return nil, err
		}
		l.persistent = local
		l.publicURL = "file://" + path
	}

	l.ticker = clk.NewTicker(cfg.FlushInterval)
	go l.flushLoop()
	return l, nil
}

func (l *Log) flushLoop() {
	defer close(l.done)
	for {
		select {
		case <-l.ticker.C:
			l.mu.Lock()
			err := l.flushLocked()
			l.mu.Unlock()
			_ = err // best-effort periodic flush; Write and Close surface errors to callers
		case <-l.ctx.Done():
			return
		}
	}
}

// Write appends line to the buffered persistent chunk and writes it
// through to the ephemeral sink immediately. A flush to the
// persistent sink is triggered once the buffer reaches BufferBytes.
func (l *Log) Write(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return errors.New("progresslog: write after close")
	}

	chunk := []byte(line + "\n")
	errs := make([]error, 0, 2)
	if err := l.ephemeral.write(l.ctx, chunk); err != nil {
		errs = append(errs, fmt.Errorf("ephemeral sink: %w", err))
	}
	l.buf.Write(chunk)

	if l.buf.Len() >= l.bufferBytes {
		if err := l.flushLocked(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// flushLocked sends the buffered chunk to the persistent sink, if
// any, and resets the buffer. Callers must hold l.mu.
func (l *Log) flushLocked() error {
	if l.persistent == nil || l.buf.Len() == 0 {
		return nil
	}
	chunk := append([]byte(nil), l.buf.Bytes()...)
	l.buf.Reset()
	if err := l.persistent.write(l.ctx, chunk); err != nil {
		return fmt.Errorf("persistent sink: %w", err)
	}
	return nil
}

// Close flushes any buffered output and releases both sinks. It is
// safe to call more than once; subsequent calls are no-ops. Callers
// must invoke Close on every exit path (success, failure, exception)
// before publishing the goal's terminal state.
func (l *Log) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	flushErr := l.flushLocked()
	l.mu.Unlock()

	l.ticker.Stop()
	l.cancel()
	<-l.done

	errs := []error{flushErr}
	if err := l.ephemeral.close(); err != nil {
		errs = append(errs, err)
	}
	if l.persistent != nil {
		if err := l.persistent.close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// URL returns the persistent log's public location, or the empty
// string when no persistent sink could be established.
func (l *Log) URL() string {
	return l.publicURL
}
