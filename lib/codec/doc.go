// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides this core's standard CBOR encoding configuration.
//
// This core uses two serialization formats with a clear boundary:
//
//   - JSON for external interfaces: the event bus HTTP API, admin
//     CLI output, and chat-platform command payloads.
//   - CBOR for internal protocols: master↔worker bootstrap socket
//     communication, the local admission ledger, and sealed
//     credential bundles.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes.
//
// For buffer-oriented operations (files, tokens):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (sockets, IPC):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// # Struct Tag Rules
//
// The struct tag on a type documents its serialization format:
//
//   - `cbor` tag: this type is ONLY ever serialized as CBOR. It will
//     never be marshaled to JSON or interact with CLI tooling.
//     Examples: worker bootstrap protocol messages, on-disk ledger
//     rows, sealed credential bundle envelopes.
//   - `json` tag: this type may be serialized as BOTH JSON and CBOR.
//     fxamacker/cbor v2 reads `json` tags as fallback when `cbor`
//     tags are absent, so a single `json` tag controls field naming
//     and omitempty for both formats. Examples: goal event types
//     (published to the bus as JSON, exchanged over the bootstrap
//     socket as CBOR), types used in CLI --json output.
//
// Never use both `cbor` and `json` tags on the same field. The tag
// choice documents the contract — doubling up is noise that obscures
// whether a type participates in JSON serialization.
package codec
