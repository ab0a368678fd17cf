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
	"strings"

	"github.com/matrix-org/mxevents/identifiers"
)

const (
	MIgnoredUserList EventType = "m.ignored_user_list"
	MFullyRead       EventType = "m.fully_read"
	MTag             EventType = "m.tag"
)

// IgnoredUserListContent is the content of m.ignored_user_list.
type IgnoredUserListContent struct {
	IgnoredUsers map[identifiers.UserID]struct{} `json:"ignored_users"`
}

type IgnoredUserListEvent = Event[IgnoredUserListContent]

func (IgnoredUserListContent) EventType() EventType { return MIgnoredUserList }

func (c IgnoredUserListContent) MarshalJSON() ([]byte, error) {
	type ignoredUserListContent IgnoredUserListContent
	if c.IgnoredUsers == nil {
		c.IgnoredUsers = map[identifiers.UserID]struct{}{}
	}
	return marshalContent(ignoredUserListContent(c))
}

func (c *IgnoredUserListContent) Validate() error {
	if c.IgnoredUsers == nil {
		return errors.New("missing 'ignored_users'")
	}
	return nil
}

// IsIgnored reports whether the user is on the ignore list.
func (c *IgnoredUserListContent) IsIgnored(userID identifiers.UserID) bool {
	_, ok := c.IgnoredUsers[userID]
	return ok
}

// FullyReadContent is the content of the m.fully_read room account data
// event, the read marker of a room.
type FullyReadContent struct {
	EventID string `json:"event_id"`
}

type FullyReadEvent = Event[FullyReadContent]

func (FullyReadContent) EventType() EventType { return MFullyRead }

// MarshalJSON refuses to write a read marker without a valid event ID.
func (c FullyReadContent) MarshalJSON() ([]byte, error) {
	type fullyReadContent FullyReadContent
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return marshalContent(fullyReadContent(c))
}

func (c *FullyReadContent) Validate() error {
	if c.EventID == "" {
		return errors.New("missing 'event_id'")
	}
	if !strings.HasPrefix(c.EventID, "$") {
		return fmt.Errorf("event ID %q must start with '$'", c.EventID)
	}
	return nil
}

// TagContent is the content of the m.tag room account data event.
type TagContent struct {
	Tags map[string]Tag `json:"tags"`
}

// Tag holds the properties of a single room tag.
type Tag struct {
	Order *float64 `json:"order,omitempty"`
}

type TagEvent = Event[TagContent]

func (TagContent) EventType() EventType { return MTag }

func (c TagContent) MarshalJSON() ([]byte, error) {
	type tagContent TagContent
	if c.Tags == nil {
		c.Tags = map[string]Tag{}
	}
	return marshalContent(tagContent(c))
}

func (c *TagContent) Validate() error {
	if c.Tags == nil {
		return errors.New("missing 'tags'")
	}
	return nil
}
