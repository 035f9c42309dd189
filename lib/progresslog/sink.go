// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package progresslog

import (
	"context"
	"io"
)

// sink is a single destination progress log chunks are written to.
// The ephemeral sink writes every call immediately and uncompressed;
// the persistent sinks (remote, local) receive already-buffered
// chunks from Log's flush logic.
type sink interface {
	write(ctx context.Context, chunk []byte) error
	close() error
}

// ephemeralSink writes straight through to an io.Writer, with no
// buffering or compression of its own. It is always active, matching
// the "always-on, in-memory, e.g. stdout" ephemeral log.
type ephemeralSink struct {
	w io.Writer
}

func newEphemeralSink(w io.Writer) *ephemeralSink {
	return &ephemeralSink{w: w}
}

func (s *ephemeralSink) write(_ context.Context, chunk []byte) error {
	_, err := s.w.Write(chunk)
	return err
}

// close is a no-op: the ephemeral sink never owns the underlying
// writer (typically os.Stdout) and has nothing to release.
func (s *ephemeralSink) close() error {
	return nil
}
