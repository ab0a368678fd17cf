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
	"fmt"

	"github.com/matrix-org/gomatrixserverlib/spec"
)

// ErrTypeMismatch is matched by a *TypeMismatchError.
var ErrTypeMismatch = errors.New("event type mismatch")

var (
	errMissingContent = errors.New("missing 'content'")
	errNullContent    = errors.New("'content' is null")
)

// StructuralError means that the input couldn't be framed as an event at
// all: it wasn't a JSON object, or it had no usable "type". There is no
// content to recover.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return "malformed event: " + e.Reason
}

// TypeMismatchError is returned when decoding an event as a specific
// type but the event declares a different type.
type TypeMismatchError struct {
	Want EventType
	Got  EventType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("expected event type %q, got %q", e.Want, e.Got)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// ContentError means that the event type was recognised but the content
// didn't have the expected shape. Content holds the raw content, if any.
type ContentError struct {
	Type    EventType
	Content spec.RawJSON
	Err     error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("invalid content for %q event: %s", e.Type, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}
