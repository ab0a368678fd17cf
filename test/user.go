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
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/matrix-org/gomatrixserverlib/spec"

	"github.com/matrix-org/mxevents/identifiers"
)

var (
	userIDCounter = int64(0)
	roomIDCounter = int64(0)

	serverName = spec.ServerName("test")
)

type idMods struct {
	serverName spec.ServerName
}

type IDOpt func(*idMods)

func WithServerName(srvName spec.ServerName) IDOpt {
	return func(m *idMods) {
		m.serverName = srvName
	}
}

func applyIDOpts(opts []IDOpt) idMods {
	m := idMods{serverName: serverName}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// NewUserID returns a new, unique user ID. IDs are sequential so that
// test output is stable.
func NewUserID(t *testing.T, opts ...IDOpt) identifiers.UserID {
	t.Helper()
	m := applyIDOpts(opts)
	counter := atomic.AddInt64(&userIDCounter, 1)
	userID, err := identifiers.ParseUserID(fmt.Sprintf("@%d:%s", counter, m.serverName))
	if err != nil {
		t.Fatalf("NewUserID: %s", err)
	}
	t.Logf("NewUserID: created user %s", userID)
	return userID
}

// NewRoomID returns a new, unique room ID.
func NewRoomID(t *testing.T, opts ...IDOpt) identifiers.RoomID {
	t.Helper()
	m := applyIDOpts(opts)
	counter := atomic.AddInt64(&roomIDCounter, 1)
	roomID, err := identifiers.ParseRoomID(fmt.Sprintf("!%d:%s", counter, m.serverName))
	if err != nil {
		t.Fatalf("NewRoomID: %s", err)
	}
	return roomID
}
