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

// Package identifiers contains validated Matrix user and room IDs which can
// be used directly as JSON values and JSON object keys.
package identifiers

import (
	"crypto/rand"
	"fmt"

	"github.com/matrix-org/gomatrixserverlib/spec"
)

// localpartLength is the length of generated localparts.
const localpartLength = 18

const localpartChars = "abcdefghijklmnopqrstuvwxyz0123456789"

// UserID is a validated Matrix user ID, e.g. "@alice:example.org".
// The zero value is not a valid user ID; use IsZero to check.
type UserID struct {
	id string
}

// ParseUserID validates a user ID. Historical user IDs (with characters
// outside of the current grammar) are accepted, as they can still appear
// in events received over federation.
func ParseUserID(raw string) (UserID, error) {
	if _, err := spec.NewUserID(raw, true); err != nil {
		return UserID{}, fmt.Errorf("invalid user ID %q: %w", raw, err)
	}
	return UserID{id: raw}, nil
}

// MustParseUserID is like ParseUserID but panics on invalid input. Only
// for use with constant IDs.
func MustParseUserID(raw string) UserID {
	userID, err := ParseUserID(raw)
	if err != nil {
		panic(err)
	}
	return userID
}

// NewUserID generates a user ID with a random localpart on the given server.
func NewUserID(serverName spec.ServerName) (UserID, error) {
	localpart, err := randomLocalpart()
	if err != nil {
		return UserID{}, err
	}
	return ParseUserID(fmt.Sprintf("@%s:%s", localpart, serverName))
}

func (u UserID) String() string { return u.id }

// IsZero reports whether the UserID is uninitialised.
func (u UserID) IsZero() bool { return u.id == "" }

// Domain returns the server name part of the user ID.
func (u UserID) Domain() spec.ServerName {
	userID, err := spec.NewUserID(u.id, true)
	if err != nil {
		return ""
	}
	return userID.Domain()
}

func (u UserID) MarshalText() ([]byte, error) {
	if u.IsZero() {
		return nil, fmt.Errorf("cannot marshal empty user ID")
	}
	return []byte(u.id), nil
}

func (u *UserID) UnmarshalText(text []byte) error {
	userID, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*u = userID
	return nil
}

// RoomID is a validated Matrix room ID, e.g. "!abc123:example.org".
// The zero value is not a valid room ID; use IsZero to check.
type RoomID struct {
	id string
}

// ParseRoomID validates a room ID.
func ParseRoomID(raw string) (RoomID, error) {
	if _, err := spec.NewRoomID(raw); err != nil {
		return RoomID{}, fmt.Errorf("invalid room ID %q: %w", raw, err)
	}
	return RoomID{id: raw}, nil
}

// MustParseRoomID is like ParseRoomID but panics on invalid input.
func MustParseRoomID(raw string) RoomID {
	roomID, err := ParseRoomID(raw)
	if err != nil {
		panic(err)
	}
	return roomID
}

// NewRoomID generates a room ID with a random opaque part on the given server.
func NewRoomID(serverName spec.ServerName) (RoomID, error) {
	localpart, err := randomLocalpart()
	if err != nil {
		return RoomID{}, err
	}
	return ParseRoomID(fmt.Sprintf("!%s:%s", localpart, serverName))
}

func (r RoomID) String() string { return r.id }

// IsZero reports whether the RoomID is uninitialised.
func (r RoomID) IsZero() bool { return r.id == "" }

func (r RoomID) MarshalText() ([]byte, error) {
	if r.IsZero() {
		return nil, fmt.Errorf("cannot marshal empty room ID")
	}
	return []byte(r.id), nil
}

func (r *RoomID) UnmarshalText(text []byte) error {
	roomID, err := ParseRoomID(string(text))
	if err != nil {
		return err
	}
	*r = roomID
	return nil
}

func randomLocalpart() (string, error) {
	b := make([]byte, localpartLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = localpartChars[int(b[i])%len(localpartChars)]
	}
	return string(b), nil
}
