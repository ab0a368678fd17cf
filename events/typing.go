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

	"github.com/matrix-org/mxevents/identifiers"
)

const MTyping EventType = "m.typing"

// TypingContent is the content of the m.typing ephemeral event.
type TypingContent struct {
	UserIDs []identifiers.UserID `json:"user_ids"`
}

type TypingEvent = Event[TypingContent]

func (TypingContent) EventType() EventType { return MTyping }

// MarshalJSON writes nil UserIDs as an empty list: nobody is typing.
func (c TypingContent) MarshalJSON() ([]byte, error) {
	type typingContent TypingContent
	if c.UserIDs == nil {
		c.UserIDs = []identifiers.UserID{}
	}
	return marshalContent(typingContent(c))
}

func (c *TypingContent) Validate() error {
	if c.UserIDs == nil {
		return errors.New("missing 'user_ids'")
	}
	return nil
}
