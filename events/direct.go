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

import "github.com/matrix-org/mxevents/identifiers"

// MDirect is the event type of DirectEvent.
const MDirect EventType = "m.direct"

// DirectContent is the content of an m.direct event: the rooms which
// are considered direct chats with each user. The room list is kept in
// the order it was received and may contain duplicates.
type DirectContent map[identifiers.UserID][]identifiers.RoomID

// DirectEvent informs the client about the rooms that are considered
// direct by a user.
type DirectEvent = Event[DirectContent]

func (DirectContent) EventType() EventType { return MDirect }

// MarshalJSON writes a nil DirectContent as an empty object.
func (c DirectContent) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return marshalContent(map[identifiers.UserID][]identifiers.RoomID(c))
}

// RoomsFor returns the direct rooms for a user.
func (c DirectContent) RoomsFor(userID identifiers.UserID) []identifiers.RoomID {
	return c[userID]
}

// Add marks a room as direct with a user, if it isn't already.
func (c DirectContent) Add(userID identifiers.UserID, roomID identifiers.RoomID) {
	for _, existing := range c[userID] {
		if existing == roomID {
			return
		}
	}
	c[userID] = append(c[userID], roomID)
}
