// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS admissions (
	goal_set_id TEXT NOT NULL,
	unique_name TEXT NOT NULL,
	last_ts     INTEGER NOT NULL,
	PRIMARY KEY (goal_set_id, unique_name)
);
`

// Config holds the parameters for opening a ledger.
type Config struct {
	// Path is the filesystem path to the SQLite database file. Use
	// ":memory:" for an in-memory database in tests.
	Path string

	// PoolSize defaults to 4 if zero or negative; admission checks are
	// short, serialized writes, so a large pool buys little.
	PoolSize int

	Logger *slog.Logger
}

// Store is the local admission ledger. The zero value is not usable;
// use Open.
type Store struct {
	pool *sqlitepool.Pool
}

// Open creates or opens the ledger database and ensures its schema
// exists. The caller must call Close when done.
func Open(cfg Config) (*Store, error) {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: poolSize,
		Logger:   cfg.Logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Admit records ts as observed for (goalSetID, uniqueName) and reports
// whether this call should proceed to execute: true if ts is newer
// than anything previously admitted for this key, false if ts (or a
// newer value) was already admitted — the caller is seeing a
// redelivered or stale event and must not execute it again.
func (s *Store) Admit(ctx context.Context, goalSetID ref.GoalSetID, uniqueName ref.UniqueName, ts int64) (bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return false, fmt.Errorf("ledger: admit: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return false, fmt.Errorf("ledger: admit: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	lastTS, found, err := lastObserved(conn, goalSetID, uniqueName)
	if err != nil {
		return false, err
	}
	if found && lastTS >= ts {
		return false, nil
	}

	err = sqlitex.Execute(conn, `
		INSERT INTO admissions (goal_set_id, unique_name, last_ts) VALUES (?, ?, ?)
		ON CONFLICT (goal_set_id, unique_name) DO UPDATE SET last_ts = excluded.last_ts`,
		&sqlitex.ExecOptions{Args: []any{goalSetID.String(), uniqueName.String(), ts}})
	if err != nil {
		return false, fmt.Errorf("ledger: admit: recording ts: %w", err)
	}

	return true, nil
}

// LastObserved returns the highest ts ever admitted for
// (goalSetID, uniqueName), and whether any admission has been recorded
// at all.
func (s *Store) LastObserved(ctx context.Context, goalSetID ref.GoalSetID, uniqueName ref.UniqueName) (int64, bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("ledger: last observed: %w", err)
	}
	defer s.pool.Put(conn)
	return lastObserved(conn, goalSetID, uniqueName)
}

func lastObserved(conn *sqlite.Conn, goalSetID ref.GoalSetID, uniqueName ref.UniqueName) (int64, bool, error) {
	var lastTS int64
	var found bool
	err := sqlitex.Execute(conn,
		"SELECT last_ts FROM admissions WHERE goal_set_id = ? AND unique_name = ?",
		&sqlitex.ExecOptions{
			Args: []any{goalSetID.String(), uniqueName.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				lastTS = stmt.ColumnInt64(0)
				found = true
				return nil
			},
		})
	if err != nil {
		return 0, false, fmt.Errorf("ledger: reading last observed ts: %w", err)
	}
	return lastTS, found, nil
}
