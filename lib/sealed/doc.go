// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed provides age encryption for isolated goal worker
// credential bundles. It wraps filippo.io/age for the specific
// operations this package needs: generate x25519 keypairs, encrypt to
// multiple recipients, and decrypt with a private key.
//
// Ciphertext is base64-encoded for storage in sealed credential
// bundles delivered to isolated workers. Callers pass plaintext
// []byte to [Encrypt] and receive a base64 string; [Decrypt] accepts
// a base64 string and returns plaintext. Private keys and decrypted
// plaintext are returned as [secret.Buffer] values backed by mmap
// memory outside the Go heap (locked against swap, excluded from core
// dumps, zeroed on Close).
//
// Key exports:
//
//   - [GenerateKeypair] -- new age x25519 keypair in a secret.Buffer
//   - [Encrypt] / [EncryptJSON] -- encrypt to age public key recipients
//   - [Decrypt] / [DecryptJSON] -- decrypt with a secret.Buffer key
//   - [ParsePublicKey] / [ParsePrivateKey] -- key validation
//
// Used by the master process (encrypt credential bundles to a worker's
// public key before dispatch) and the isolated worker (decrypt the
// bundle with its own private key on startup).
//
// Depends on lib/secret for secure memory allocation.
package sealed
