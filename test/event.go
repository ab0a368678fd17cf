// Copyright 2022 The Matrix.org Foundation C.I.C.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package test

import (
	"encoding/json"
	"testing"

	"github.com/tidwall/sjson"
)

type eventMods struct {
	extra map[string]interface{}
}

type eventModifier func(e *eventMods)

// WithField sets an additional top-level field on the event, such as
// "room_id" or "sender".
func WithField(key string, value interface{}) eventModifier {
	return func(e *eventMods) {
		if e.extra == nil {
			e.extra = make(map[string]interface{})
		}
		e.extra[key] = value
	}
}

// RawEvent builds the wire form of an event with the given type and
// content. content may be a Go value or a json.RawMessage.
func RawEvent(t *testing.T, eventType string, content interface{}, mods ...eventModifier) json.RawMessage {
	t.Helper()
	var m eventMods
	for _, mod := range mods {
		mod(&m)
	}

	contentJSON, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("RawEvent: failed to marshal content: %s", err)
	}
	ev, err := sjson.SetBytes([]byte(`{}`), "type", eventType)
	if err != nil {
		t.Fatalf("RawEvent: %s", err)
	}
	ev, err = sjson.SetRawBytes(ev, "content", contentJSON)
	if err != nil {
		t.Fatalf("RawEvent: %s", err)
	}
	for key, value := range m.extra {
		if ev, err = sjson.SetBytes(ev, key, value); err != nil {
			t.Fatalf("RawEvent: failed to set %q: %s", key, err)
		}
	}
	return ev
}

// Reverse a list of raw events
func Reversed(in []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, len(in))
	for i := 0; i < len(in); i++ {
		out[i] = in[len(in)-i-1]
	}
	return out
}
