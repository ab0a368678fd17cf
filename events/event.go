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
	"bytes"
	"encoding/json"
)

// EventType is the "type" discriminator of an event, e.g. "m.direct".
// Event types are compared verbatim and are case-sensitive.
type EventType string

func (t EventType) String() string { return string(t) }

// Content is implemented by every event content type. The event type is
// a property of the content type rather than of a value, so EventType
// must be implemented on a value receiver and must not look at the
// receiver: it is called on the zero value.
type Content interface {
	EventType() EventType
}

// Validator can optionally be implemented by content types which have
// constraints that JSON decoding alone doesn't enforce, such as
// required keys.
type Validator interface {
	Validate() error
}

// Envelope is any event which can be written to the wire, whether it is
// one of the typed events from a catalog or an UnknownEvent.
type Envelope interface {
	Type() EventType
	json.Marshaler
}

// Event is a basic event of the form {"type": ..., "content": ...}.
// The type is taken from C, so an Event[DirectContent] is always an
// "m.direct" event.
type Event[C Content] struct {
	Content C
}

// New wraps content in an event envelope.
func New[C Content](content C) *Event[C] {
	return &Event[C]{Content: content}
}

// Type returns the event type declared by the content type.
func (e Event[C]) Type() EventType {
	return typeOf[C]()
}

// MarshalJSON implements json.Marshaler. Content which encodes as null
// is refused with a *ContentError, as the catalog would refuse it too.
func (e Event[C]) MarshalJSON() ([]byte, error) {
	content, err := marshalContent(e.Content)
	if err != nil {
		return nil, &ContentError{Type: e.Type(), Err: err}
	}
	if bytes.Equal(content, []byte("null")) {
		return nil, &ContentError{Type: e.Type(), Err: errNullContent}
	}
	return encodeFrame(e.Type(), content)
}

// UnmarshalJSON implements json.Unmarshaler. If the event has a
// different type then a *TypeMismatchError is returned, which matches
// ErrTypeMismatch with errors.Is.
func (e *Event[C]) UnmarshalJSON(data []byte) error {
	f, err := decodeFrame(data)
	if err != nil {
		return err
	}
	if want := e.Type(); f.eventType != want {
		return &TypeMismatchError{Want: want, Got: f.eventType}
	}
	content, err := decodeContent[C](f)
	if err != nil {
		return err
	}
	e.Content = content
	return nil
}

// Decode parses a single event of a known type.
func Decode[C Content](data []byte) (*Event[C], error) {
	var ev Event[C]
	if err := ev.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Serialize returns the wire form of any event envelope.
func Serialize(ev Envelope) ([]byte, error) {
	return ev.MarshalJSON()
}

// marshalContent is json.Marshal without HTML escaping, so that "<", ">"
// and "&" are written back as they were received.
func marshalContent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func typeOf[C Content]() EventType {
	var c C
	return c.EventType()
}

func decodeContent[C Content](f frame) (C, error) {
	var content C
	eventType := typeOf[C]()
	if !f.content.Exists() {
		return content, &ContentError{Type: eventType, Err: errMissingContent}
	}
	raw := f.rawContent()
	if err := checkContent(f.content); err != nil {
		return content, &ContentError{Type: eventType, Content: raw, Err: err}
	}
	if err := json.Unmarshal(raw, &content); err != nil {
		return content, &ContentError{Type: eventType, Content: raw, Err: err}
	}
	if v, ok := any(&content).(Validator); ok {
		if err := v.Validate(); err != nil {
			return content, &ContentError{Type: eventType, Content: raw, Err: err}
		}
	}
	return content, nil
}
