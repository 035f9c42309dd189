// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"
	"testing"

	"github.com/atomist-sdm/sdmcore/lib/ref"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(Config{Path: ":memory:", PoolSize: 1})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAdmitAcceptsFirstObservationOfAKey(t *testing.T) {
	store := openTestStore(t)
	goalSetID := ref.NewGoalSetID()
	uniqueName := ref.MustParseUniqueName("build")

	admitted, err := store.Admit(context.Background(), goalSetID, uniqueName, 10)
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if !admitted {
		t.Fatal("expected first observation to be admitted")
	}
}

func TestAdmitRejectsRedeliveredOrStaleTS(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	goalSetID := ref.NewGoalSetID()
	uniqueName := ref.MustParseUniqueName("build")

	if _, err := store.Admit(ctx, goalSetID, uniqueName, 10); err != nil {
		t.Fatalf("Admit (first): %v", err)
	}

	admitted, err := store.Admit(ctx, goalSetID, uniqueName, 10)
	if err != nil {
		t.Fatalf("Admit (redelivery): %v", err)
	}
	if admitted {
		t.Fatal("expected redelivered ts to be rejected")
	}

	admitted, err = store.Admit(ctx, goalSetID, uniqueName, 5)
	if err != nil {
		t.Fatalf("Admit (stale): %v", err)
	}
	if admitted {
		t.Fatal("expected stale ts to be rejected")
	}
}

func TestAdmitAcceptsStrictlyNewerTS(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	goalSetID := ref.NewGoalSetID()
	uniqueName := ref.MustParseUniqueName("build")

	if _, err := store.Admit(ctx, goalSetID, uniqueName, 10); err != nil {
		t.Fatalf("Admit (first): %v", err)
	}

	admitted, err := store.Admit(ctx, goalSetID, uniqueName, 20)
	if err != nil {
		t.Fatalf("Admit (newer): %v", err)
	}
	if !admitted {
		t.Fatal("expected strictly newer ts to be admitted")
	}

	lastTS, found, err := store.LastObserved(ctx, goalSetID, uniqueName)
	if err != nil {
		t.Fatalf("LastObserved: %v", err)
	}
	if !found || lastTS != 20 {
		t.Fatalf("LastObserved = (%d, %v), want (20, true)", lastTS, found)
	}
}

func TestLastObservedReportsNotFoundForUnknownKey(t *testing.T) {
	store := openTestStore(t)
	_, found, err := store.LastObserved(context.Background(), ref.NewGoalSetID(), ref.MustParseUniqueName("build"))
	if err != nil {
		t.Fatalf("LastObserved: %v", err)
	}
	if found {
		t.Fatal("expected not found for unknown key")
	}
}

func TestAdmitKeysAreIndependentAcrossGoalSets(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	uniqueName := ref.MustParseUniqueName("build")

	first := ref.NewGoalSetID()
	second := ref.NewGoalSetID()

	if _, err := store.Admit(ctx, first, uniqueName, 100); err != nil {
		t.Fatalf("Admit (first set): %v", err)
	}

	admitted, err := store.Admit(ctx, second, uniqueName, 1)
	if err != nil {
		t.Fatalf("Admit (second set): %v", err)
	}
	if !admitted {
		t.Fatal("expected an independent goal set's ts to be admitted regardless of the first set's ts")
	}
}
