// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package goalsign

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"

	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
	"github.com/atomist-sdm/sdmcore/lib/secret"
)

// Signer holds an RSA private key, protected in mmap-backed memory
// the way lib/sealed protects age private keys — a goal-signing key
// is no less sensitive than a credential-bundle key, so it gets the
// same treatment.
type Signer struct {
	key *rsa.PrivateKey
	raw *secret.Buffer
}

// LoadSigner parses a PEM-encoded PKCS#1 or PKCS#8 RSA private key
// held in buffer. The buffer is retained (not closed) so its memory
// protection covers the key for the Signer's lifetime; call Close on
// the returned Signer to release it.
func LoadSigner(buffer *secret.Buffer) (*Signer, error) {
	key, err := parseRSAPrivateKey(buffer.Bytes())
	if err != nil {
		return nil, fmt.Errorf("loading goal signing key: %w", err)
	}
	return &Signer{key: key, raw: buffer}, nil
}

// Close releases the underlying key memory. Idempotent.
func (s *Signer) Close() error {
	if s.raw != nil {
		return s.raw.Close()
	}
	return nil
}

// Sign computes the canonical form of e and returns its RSA-SHA512
// signature, base64-encoded.
func (s *Signer) Sign(e goal.Event) (string, error) {
	digest := sha512.Sum512([]byte(Canonical(e)))
	signature, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA512, digest[:])
	if err != nil {
		return "", fmt.Errorf("signing goal event %s/%s: %w", e.GoalSetID, e.UniqueName, err)
	}
	return base64.StdEncoding.EncodeToString(signature), nil
}

// VerificationKey is a single RSA public key trusted to sign goal
// events, identified by a human-readable label for error messages and
// audit logs.
type VerificationKey struct {
	Label string
	Key   *rsa.PublicKey
}

// Verifier holds the set of public keys this core trusts. The
// well-known platform public key ships embedded (see
// wellKnownPlatformKey below) and is always present: every goal's
// public key store must include the published platform public key,
// whether or not an operator configures any keys of their own.
type Verifier struct {
	keys []VerificationKey
}

// NewVerifier builds a Verifier from configured keys plus the
// embedded well-known platform key.
func NewVerifier(configured ...VerificationKey) (*Verifier, error) {
	platform, err := parseRSAPublicKeyPEM(wellKnownPlatformKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded platform verification key: %w", err)
	}
	keys := append([]VerificationKey{{Label: "platform", Key: platform}}, configured...)
	return &Verifier{keys: keys}, nil
}

// RejectedError reports why Verify rejected a goal event's signature,
// matching the "Rejected because <reason>" description the dispatcher
// writes to the goal's description field on rejection.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return "Rejected because " + e.Reason }

// Verify checks e.Signature against the canonical form of e, trying
// every configured key and succeeding on the first match. Returns a
// *RejectedError when signing is required (signingEnabled) and the
// signature is missing or matches no key.
func (v *Verifier) Verify(e goal.Event, signingEnabled bool) error {
	if e.Signature == "" {
		if signingEnabled {
			return &RejectedError{Reason: "signature was missing"}
		}
		return nil
	}

	signature, err := base64.StdEncoding.DecodeString(e.Signature)
	if err != nil {
		return &RejectedError{Reason: "signature was invalid"}
	}

	digest := sha512.Sum512([]byte(Canonical(e)))
	for _, vk := range v.keys {
		if rsa.VerifyPKCS1v15(vk.Key, crypto.SHA512, digest[:], signature) == nil {
			return nil
		}
	}
	return &RejectedError{Reason: "signature was invalid"}
}

func parseRSAPrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing PKCS#1/PKCS#8 private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not RSA")
	}
	return key, nil
}

func parseRSAPublicKeyPEM(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing PKIX public key: %w", err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not RSA")
	}
	return key, nil
}

// ParseVerificationKeyPEM validates and wraps an operator-configured
// RSA public key, for Verifier construction from lib/config.
func ParseVerificationKeyPEM(label string, pemBytes []byte) (VerificationKey, error) {
	key, err := parseRSAPublicKeyPEM(pemBytes)
	if err != nil {
		return VerificationKey{}, fmt.Errorf("verification key %q: %w", label, err)
	}
	return VerificationKey{Label: label, Key: key}, nil
}
