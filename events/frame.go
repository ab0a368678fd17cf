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
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// maxContentDepth bounds how deeply nested event content may be.
const maxContentDepth = 100

// maxNesting bounds the nesting of any input before it is walked.
// gjson validates and iterates recursively, so deeper input could
// exhaust the stack.
const maxNesting = 1000

var (
	errInvalidJSON = errors.New("not valid JSON")
	errTooDeep     = fmt.Errorf("nested more than %d levels deep", maxNesting)
)

// Valid reports whether data is valid JSON which is nested no more than
// a fixed number of levels deep. Input which is not Valid is rejected
// by the catalog without being parsed.
func Valid(data []byte) bool {
	return validJSON(data) == nil
}

func validJSON(data []byte) error {
	if !withinNesting(data, maxNesting) {
		return errTooDeep
	}
	if !gjson.ValidBytes(data) {
		return errInvalidJSON
	}
	return nil
}

// withinNesting scans data once, without recursion, and reports whether
// arrays and objects outside of strings are nested no more than limit
// levels deep. It doesn't validate anything else.
func withinNesting(data []byte, limit int) bool {
	depth := 0
	inString := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			depth++
			if depth > limit {
				return false
			}
		case ']', '}':
			depth--
		}
	}
	return true
}

// frame is the outer {"type", "content"} object of an event, with the
// content still undecoded.
type frame struct {
	eventType EventType
	content   gjson.Result
}

func (f frame) rawContent() spec.RawJSON {
	if !f.content.Exists() {
		return nil
	}
	return spec.RawJSON(f.content.Raw)
}

func decodeFrame(data []byte) (frame, error) {
	if err := validJSON(data); err != nil {
		return frame{}, &StructuralError{Reason: "event is " + err.Error()}
	}
	obj := gjson.ParseBytes(data)
	if !obj.IsObject() {
		return frame{}, &StructuralError{Reason: fmt.Sprintf("event must be a JSON object, got %s", describe(obj))}
	}
	if key, dup := duplicateKey(obj); dup {
		return frame{}, &StructuralError{Reason: fmt.Sprintf("event has duplicate key %q", key)}
	}

	t := obj.Get("type")
	switch {
	case !t.Exists():
		return frame{}, &StructuralError{Reason: "event is missing 'type'"}
	case t.Type != gjson.String:
		return frame{}, &StructuralError{Reason: fmt.Sprintf("event 'type' must be a string, got %s", describe(t))}
	case t.Str == "":
		return frame{}, &StructuralError{Reason: "event 'type' is empty"}
	}

	return frame{
		eventType: EventType(t.Str),
		content:   obj.Get("content"),
	}, nil
}

// encodeFrame writes the envelope with "type" first and "content"
// second. content must already be valid JSON.
func encodeFrame(eventType EventType, content []byte) ([]byte, error) {
	out, err := sjson.SetBytes([]byte(`{}`), "type", string(eventType))
	if err != nil {
		return nil, fmt.Errorf("sjson.SetBytes: %w", err)
	}
	out, err = sjson.SetRawBytes(out, "content", content)
	if err != nil {
		return nil, fmt.Errorf("sjson.SetRawBytes: %w", err)
	}
	return out, nil
}

// checkContent rejects content which encoding/json would otherwise
// accept silently: null, duplicate object keys (the last one would win)
// and excessive nesting.
func checkContent(content gjson.Result) error {
	if content.Type == gjson.Null {
		return errNullContent
	}
	return checkNested(content, 0)
}

func checkNested(value gjson.Result, depth int) error {
	if !value.IsObject() && !value.IsArray() {
		return nil
	}
	if depth >= maxContentDepth {
		return fmt.Errorf("content is nested more than %d levels deep", maxContentDepth)
	}
	if key, dup := duplicateKey(value); dup {
		return fmt.Errorf("duplicate key %q", key)
	}
	var err error
	value.ForEach(func(_, child gjson.Result) bool {
		err = checkNested(child, depth+1)
		return err == nil
	})
	return err
}

// duplicateKey reports the first key which appears more than once in a
// JSON object. Arrays never have duplicates.
func duplicateKey(obj gjson.Result) (string, bool) {
	if !obj.IsObject() {
		return "", false
	}
	seen := make(map[string]struct{})
	var dup string
	var found bool
	obj.ForEach(func(key, _ gjson.Result) bool {
		if _, ok := seen[key.Str]; ok {
			dup, found = key.Str, true
			return false
		}
		seen[key.Str] = struct{}{}
		return true
	})
	return dup, found
}

func describe(value gjson.Result) string {
	switch {
	case value.IsObject():
		return "object"
	case value.IsArray():
		return "array"
	case value.Type == gjson.True, value.Type == gjson.False:
		return "boolean"
	}
	switch value.Type {
	case gjson.Null:
		return "null"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	}
	return "unknown value"
}
