// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/atomist-sdm/sdmcore/lib/goalsign"
	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
	"github.com/atomist-sdm/sdmcore/lib/secret"
)

func testSigner(t *testing.T) *goalsign.Signer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating RSA key: %v", err)
	}
	der := x509.MarshalPKCS1PrivateKey(key)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der})
	buf, err := secret.NewFromBytes(pemBytes)
	if err != nil {
		t.Fatalf("secret.NewFromBytes: %v", err)
	}
	signer, err := goalsign.LoadSigner(buf)
	if err != nil {
		t.Fatalf("LoadSigner: %v", err)
	}
	return signer
}

func baseEvent() goal.Event {
	return goal.Event{
		GoalSetID:   ref.NewGoalSetID(),
		UniqueName:  ref.MustParseUniqueName("build"),
		Environment: ref.MustParseEnvironment("testing"),
		State:       goal.StateRequested,
		Fulfillment: goal.Fulfillment{Name: ref.MustParseRegistrationName("my-sdm"), Method: goal.FulfillmentSdm},
	}
}

func newDispatcherNoSigning(t *testing.T) *Dispatcher {
	t.Helper()
	verifier, err := goalsign.NewVerifier()
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	var published []goal.Event
	d := &Dispatcher{
		Self:            ref.MustParseRegistrationName("my-sdm"),
		Verifier:        verifier,
		SigningEnabled:  false,
		Implementations: Registry{},
		Publish: func(ctx context.Context, e goal.Event) error {
			published = append(published, e)
			return nil
		},
		Host: "worker-1",
	}
	return d
}

func TestDispatchIgnoresIrrelevantSideEffect(t *testing.T) {
	d := newDispatcherNoSigning(t)
	e := baseEvent()
	e.Fulfillment = goal.Fulfillment{Name: ref.MustParseRegistrationName("other-sdm"), Method: goal.FulfillmentSideEffect}

	var calls int
	d.Publish = func(ctx context.Context, ev goal.Event) error { calls++; return nil }

	if err := d.Dispatch(context.Background(), e); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no publish calls for an irrelevant side effect, got %d", calls)
	}
}

func TestDispatchFailsOtherFulfillment(t *testing.T) {
	d := newDispatcherNoSigning(t)
	e := baseEvent()
	e.Fulfillment = goal.Fulfillment{Method: goal.FulfillmentOther}

	var final goal.Event
	d.Publish = func(ctx context.Context, ev goal.Event) error { final = ev; return nil }

	if err := d.Dispatch(context.Background(), e); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if final.State != goal.StateFailure {
		t.Errorf("expected final state failure, got %v", final.State)
	}
	if final.Description != "No fulfillment" {
		t.Errorf("expected description %q, got %q", "No fulfillment", final.Description)
	}
}

func TestDispatchRejectsInvalidSignatureWhenSigningRequired(t *testing.T) {
	d := newDispatcherNoSigning(t)
	d.SigningEnabled = true
	e := baseEvent()
	e.Signature = "" // missing

	var final goal.Event
	d.Publish = func(ctx context.Context, ev goal.Event) error { final = ev; return nil }

	if err := d.Dispatch(context.Background(), e); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if final.State != goal.StateFailure {
		t.Errorf("expected final state failure, got %v", final.State)
	}
}

func TestDispatchAcceptsValidSignature(t *testing.T) {
	signer := testSigner(t)
	defer signer.Close()

	verifier, err := goalsign.NewVerifier()
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	e := baseEvent()
	sig, err := signer.Sign(e)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	e.Signature = sig

	var executed bool
	executor := ExecutorFunc(func(ctx context.Context, inv GoalInvocation) (Result, error) {
		executed = true
		return Result{Code: 0}, nil
	})

	var final goal.Event
	d := &Dispatcher{
		Self:           ref.MustParseRegistrationName("my-sdm"),
		Verifier:       verifier,
		SigningEnabled: true,
		Implementations: Registry{
			e.Key(): {Executor: executor},
		},
		Publish: func(ctx context.Context, ev goal.Event) error { final = ev; return nil },
		Host:    "worker-1",
	}

	if err := d.Dispatch(context.Background(), e); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !executed {
		t.Error("expected the executor to run")
	}
	if final.State != goal.StateSuccess {
		t.Errorf("expected final state success, got %v", final.State)
	}
}

func TestDispatchCapturesExecutorError(t *testing.T) {
	e := baseEvent()
	failing := ExecutorFunc(func(ctx context.Context, inv GoalInvocation) (Result, error) {
		return Result{}, errBoom
	})

	var final goal.Event
	d := newDispatcherNoSigning(t)
	d.Implementations = Registry{e.Key(): {Executor: failing}}
	d.Publish = func(ctx context.Context, ev goal.Event) error { final = ev; return nil }

	if err := d.Dispatch(context.Background(), e); err != nil {
		t.Fatalf("Dispatch returned error for a failed goal: %v", err)
	}
	if final.State != goal.StateFailure {
		t.Errorf("expected final state failure, got %v", final.State)
	}
}

func TestDispatchHonorsCancellationRace(t *testing.T) {
	e := baseEvent()
	d := newDispatcherNoSigning(t)
	d.Implementations = Registry{e.Key(): {Executor: ExecutorFunc(func(ctx context.Context, inv GoalInvocation) (Result, error) {
		t.Fatal("executor should not run once the goal was canceled")
		return Result{}, nil
	})}}
	d.FetchSet = func(ctx context.Context, id ref.GoalSetID) (goal.Set, error) {
		canceled := e
		canceled.State = goal.StateCanceled
		return goal.Set{GoalSetID: id, Goals: []goal.Event{canceled}}, nil
	}

	var calls int
	d.Publish = func(ctx context.Context, ev goal.Event) error { calls++; return nil }

	if err := d.Dispatch(context.Background(), e); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no publish calls once the cancellation race is detected, got %d", calls)
	}
}

var errBoom = &boomError{}

type boomError struct{}

func (e *boomError) Error() string { return "boom" }
