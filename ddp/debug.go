// Copyright 2026 The Go DDP Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ddp

import (
	"os"
	"strings"
	"sync"
)

// debugEnvKey gates this core's one diagnostic knob: set
// DDPGODEBUG=frames=1 to have the read and write pumps log every raw
// frame at slog.LevelDebug, the structured replacement for the rust
// original's unconditional println! of every frame (SPEC_FULL.md §4).
const debugEnvKey = "DDPGODEBUG"

var (
	traceFramesOnce sync.Once
	traceFramesOn   bool
)

// traceFrames reports whether DDPGODEBUG requests frame tracing. The
// environment is read lazily and cached on first use rather than at
// package init, so importing ddp never pays for the lookup unless a
// pump actually asks.
func traceFrames() bool {
	traceFramesOnce.Do(func() {
		traceFramesOn = debugFlagSet(os.Getenv(debugEnvKey), "frames")
	})
	return traceFramesOn
}

// debugFlagSet reports whether key=1 appears among value's
// comma-separated key=value pairs (e.g. "frames=1,other=2"). A missing
// key, an unrelated key, or a malformed pair are all just "not set" —
// a diagnostic toggle should never be able to panic the program that
// misspelled it.
func debugFlagSet(value, key string) bool {
	for part := range strings.SplitSeq(value, ",") {
		name, val, ok := strings.Cut(part, "=")
		if ok && strings.TrimSpace(name) == key && strings.TrimSpace(val) == "1" {
			return true
		}
	}
	return false
}
