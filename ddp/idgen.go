// Copyright 2026 The Go DDP Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ddp

import "crypto/rand"

// newCorrelationID returns an opaque string suitable as a CorrelationId
// (spec.md §3, §4.8): collision-resistant across the life of a client
// with overwhelming probability. rand.Text draws from a
// cryptographically-seeded source and yields a fixed-length token from
// a 32-character alphabet, satisfying the "17 random alphanumerics"
// contract the spec gives as an example.
func newCorrelationID() string {
	return rand.Text()
}
