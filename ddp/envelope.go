// Copyright 2026 The Go DDP Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ddp

import (
	"fmt"

	json "github.com/segmentio/encoding/json"
)

// envelope is the on-wire shape of every DDP frame (spec.md §6): a
// single JSON object with a mandatory "msg" field plus whichever other
// fields that msg kind carries. Unused fields are omitted on encode via
// the segmentio/encoding/json fast path the teacher's go.mod already
// depends on.
type envelope struct {
	Msg string `json:"msg"`

	// connect / connected / failed
	Version string   `json:"version,omitempty"`
	Support []string `json:"support,omitempty"`
	Session string   `json:"session,omitempty"`

	// legacy pre-DDP preamble; presence (even null) marks the frame as
	// ignorable regardless of its msg value (spec.md §4.2 step 2).
	ServerID json.RawMessage `json:"server_id,omitempty"`

	// ping / pong
	ID string `json:"id,omitempty"`

	// method / result
	Method string  `json:"method,omitempty"`
	Params []EJson `json:"params,omitempty"`
	Result EJson   `json:"result,omitempty"`
	Error  EJson   `json:"error,omitempty"`

	// sub / unsub / ready / nosub
	Name string   `json:"name,omitempty"`
	Subs []string `json:"subs,omitempty"`

	// added / changed / removed
	Collection string   `json:"collection,omitempty"`
	Fields     EJson    `json:"fields,omitempty"`
	Cleared    []string `json:"cleared,omitempty"`
}

// decodeEnvelope parses one text frame into an envelope. It reports
// false for anything spec.md §4.3/§6 calls malformed: frames that
// aren't a JSON object, or that lack a string "msg" field.
func decodeEnvelope(frame string) (*envelope, bool) {
	if len(frame) == 0 {
		return nil, false
	}
	var e envelope
	if err := json.Unmarshal([]byte(frame), &e); err != nil {
		return nil, false
	}
	if e.Msg == "" {
		return nil, false
	}
	return &e, true
}

func encodeEnvelope(e *envelope) (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("ddp: encode %q envelope: %w", e.Msg, err)
	}
	return string(data), nil
}
