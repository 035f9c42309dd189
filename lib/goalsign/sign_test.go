// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package goalsign

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
	"github.com/atomist-sdm/sdmcore/lib/secret"
)

func generateTestSigner(t *testing.T) (*Signer, VerificationKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating test RSA key: %v", err)
	}
	der := x509.MarshalPKCS1PrivateKey(key)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der})

	buffer, err := secret.NewFromBytes(pemBytes)
	if err != nil {
		t.Fatalf("protecting test key: %v", err)
	}
	signer, err := LoadSigner(buffer)
	if err != nil {
		t.Fatalf("LoadSigner: %v", err)
	}
	return signer, VerificationKey{Label: "test", Key: &key.PublicKey}
}

func testEvent() goal.Event {
	return goal.Event{
		GoalSetID:   ref.NewGoalSetID(),
		UniqueName:  ref.MustParseUniqueName("npm-build"),
		Environment: ref.MustParseEnvironment("testing"),
		SHA:         ref.MustParseSHA("a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"),
		Branch:      ref.MustParseBranchName("main"),
		Repo: ref.RepoCoordinate{
			Provider: ref.MustParseProviderID("github-app-1"),
			Owner:    "atomist",
			Name:     "sdmcore",
		},
		State: goal.StateRequested,
		TS:    1,
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	signer, vk := generateTestSigner(t)
	defer signer.Close()

	event := testEvent()
	signature, err := signer.Sign(event)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	event.Signature = signature

	verifier, err := NewVerifier(vk)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	if err := verifier.Verify(event, true); err != nil {
		t.Errorf("Verify failed for validly signed event: %v", err)
	}
}

func TestVerifyRejectsMissingSignatureWhenRequired(t *testing.T) {
	_, vk := generateTestSigner(t)
	verifier, err := NewVerifier(vk)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	event := testEvent()
	err = verifier.Verify(event, true)
	if err == nil {
		t.Fatal("expected rejection for missing signature")
	}
	var rejected *RejectedError
	if !asRejected(err, &rejected) {
		t.Fatalf("expected *RejectedError, got %T: %v", err, err)
	}
}

func TestVerifyAllowsMissingSignatureWhenNotRequired(t *testing.T) {
	_, vk := generateTestSigner(t)
	verifier, err := NewVerifier(vk)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	event := testEvent()
	if err := verifier.Verify(event, false); err != nil {
		t.Errorf("expected no error when signing disabled, got %v", err)
	}
}

func TestVerifyRejectsTamperedEvent(t *testing.T) {
	signer, vk := generateTestSigner(t)
	defer signer.Close()

	event := testEvent()
	signature, err := signer.Sign(event)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	event.Signature = signature
	event.State = goal.StateSuccess // tamper after signing

	verifier, err := NewVerifier(vk)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	if err := verifier.Verify(event, true); err == nil {
		t.Error("expected rejection for tampered event")
	}
}

func TestCanonicalIsInjective(t *testing.T) {
	a := testEvent()
	b := testEvent()
	b.State = goal.StateSuccess

	if Canonical(a) == Canonical(b) {
		t.Error("canonical forms of differently-stated events should differ")
	}
}

func asRejected(err error, target **RejectedError) bool {
	r, ok := err.(*RejectedError)
	if ok {
		*target = r
	}
	return ok
}
