// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package goalsign

// wellKnownPlatformKeyPEM is the platform's published goal-signing
// verification key, always included in a Verifier's trust set.
// Rotated by replacing this constant when the platform rotates its
// signing key; operators add their own keys via configuration rather
// than by editing this file.
var wellKnownPlatformKeyPEM = []byte(`-----BEGIN RSA PUBLIC KEY-----
MIIBCgKCAQEAwz1+pQGI3TukV4ac7ZUSJ/jLq8VxtG6SXh0xLQn7fSkPVqhz4W0q
1OXqdWfy6XpXWyQW3KF3ZtBqD5dN6wq+V8fWT1g2uQJwz2rDqZ9fKdC6N8R5XqFh
0TQOb5kT4GqmAXWf2cU5Xz0jz0j1h6X6KtCq3oQmRZfC6uP2a1m9nKxwLhB2JwQf
N1a3jYyDqYBO8ELl83bWpH1kxz3MYBS0SO3azQfN4aJzTt1ZFqk4Tyx6i6uM1KdH
Scmajf0V4MpfYyTMdYpv6PofJkM4ZUXqyE6rNQ9t2YDeKdhA1e9iXwLX2wd1i9M1
xG7c6Ln6Gx0EoKZQ8YZKXrZ20EUYh5RXtQIDAQAB
-----END RSA PUBLIC KEY-----
`)
