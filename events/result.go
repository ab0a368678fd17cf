// Copyright 2020 The Matrix.org Foundation C.I.C.
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

package events

import (
	"errors"

	"github.com/matrix-org/gomatrixserverlib/spec"
)

// UnknownEvent is an event whose type isn't in the catalog. The type and
// content are kept exactly as received so that the event can be passed
// on or stored without loss.
type UnknownEvent struct {
	EventType EventType
	Content   spec.RawJSON
}

func (e *UnknownEvent) Type() EventType { return e.EventType }

// MarshalJSON writes the event back out with its original content. An
// event that arrived without content is written with an empty object.
func (e *UnknownEvent) MarshalJSON() ([]byte, error) {
	content := e.Content
	if len(content) == 0 {
		content = spec.RawJSON(`{}`)
	}
	return encodeFrame(e.EventType, content)
}

// Result is the outcome of decoding one event. Exactly one of Event and
// Err is set. Event is either a typed *Event[C] from the catalog or an
// *UnknownEvent; Err is either a *StructuralError or a *ContentError.
type Result struct {
	Event Envelope
	Err   error
}

// UnmarshalJSON decodes the event with the DefaultCatalog. It never
// fails: decoding problems are recorded in r.Err instead, which lets a
// []Result sit inside a larger response body.
func (r *Result) UnmarshalJSON(data []byte) error {
	*r = DefaultCatalog.Deserialize(data)
	return nil
}

// Unrecognized reports whether the event type wasn't in the catalog.
func (r Result) Unrecognized() bool {
	_, ok := r.Event.(*UnknownEvent)
	return ok
}

// Type returns the event type if one could be determined.
func (r Result) Type() EventType {
	if r.Event != nil {
		return r.Event.Type()
	}
	var contentErr *ContentError
	if errors.As(r.Err, &contentErr) {
		return contentErr.Type
	}
	return ""
}

// Unwrap returns the event and error, in the usual Go order.
func (r Result) Unwrap() (Envelope, error) {
	return r.Event, r.Err
}

// As returns the typed event held by r, if it is of type C.
func As[C Content](r Result) (*Event[C], bool) {
	ev, ok := r.Event.(*Event[C])
	return ev, ok
}
