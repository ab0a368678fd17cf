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

package eventbatch

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"

	"github.com/matrix-org/mxevents/events"
)

// ErrNoEvents is returned by SplitEvents when the input has no recognisable
// list of events.
var ErrNoEvents = errors.New("input contains no list of events")

// Sections of a sync response which hold lists of basic events.
var (
	syncSections = []string{"account_data.events", "presence.events", "to_device.events"}
	roomSections = []string{"account_data.events", "ephemeral.events"}
)

// SplitEvents finds the individual events in data, which may be:
//   - a JSON array of events,
//   - an object with an "events" array, or
//   - a /sync response body, in which case the global sections are
//     returned first followed by the sections of each joined room.
//
// The events themselves are not looked at, so a malformed event is still
// returned for the catalog to classify.
func SplitEvents(data []byte) ([]json.RawMessage, error) {
	if !events.Valid(data) {
		return nil, errors.New("input is not valid JSON or is nested too deeply")
	}
	root := gjson.ParseBytes(data)
	switch {
	case root.IsArray():
		return elements(root), nil
	case !root.IsObject():
		return nil, ErrNoEvents
	}

	if evs := root.Get("events"); evs.IsArray() {
		return elements(evs), nil
	}

	var raws []json.RawMessage
	found := false
	for _, path := range syncSections {
		if evs := root.Get(path); evs.IsArray() {
			found = true
			raws = append(raws, elements(evs)...)
		}
	}
	root.Get("rooms.join").ForEach(func(_, room gjson.Result) bool {
		for _, path := range roomSections {
			if evs := room.Get(path); evs.IsArray() {
				found = true
				raws = append(raws, elements(evs)...)
			}
		}
		return true
	})
	if !found {
		return nil, ErrNoEvents
	}
	return raws, nil
}

func elements(arr gjson.Result) []json.RawMessage {
	elems := arr.Array()
	raws := make([]json.RawMessage, 0, len(elems))
	for _, elem := range elems {
		raws = append(raws, json.RawMessage(elem.Raw))
	}
	return raws
}
