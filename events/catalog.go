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
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"
)

// DefaultCatalog contains every event type declared in this package.
var DefaultCatalog = NewCatalog(
	Declare[DirectContent](),
	Declare[IgnoredUserListContent](),
	Declare[FullyReadContent](),
	Declare[TagContent](),
	Declare[TypingContent](),
)

// A Kind is one declared event type: its type tag and how to decode it.
// Kinds are created with Declare.
type Kind interface {
	Type() EventType
	decode(f frame) (Envelope, error)
}

type kind[C Content] struct{}

// Declare creates the Kind for the content type C. The resulting events
// are *Event[C].
func Declare[C Content]() Kind {
	return kind[C]{}
}

func (kind[C]) Type() EventType {
	return typeOf[C]()
}

func (kind[C]) decode(f frame) (Envelope, error) {
	content, err := decodeContent[C](f)
	if err != nil {
		return nil, err
	}
	return New(content), nil
}

// Catalog routes events to a Kind by their type. A Catalog is immutable
// once created and is safe for concurrent use.
type Catalog struct {
	kinds map[EventType]Kind
}

// NewCatalog builds a catalog from the given kinds. It panics if a type
// is empty or declared twice, since either is a programming error.
func NewCatalog(kinds ...Kind) *Catalog {
	c := &Catalog{
		kinds: make(map[EventType]Kind, len(kinds)),
	}
	for _, k := range kinds {
		t := k.Type()
		if t == "" {
			panic(fmt.Sprintf("events: kind %T has an empty event type", k))
		}
		if _, ok := c.kinds[t]; ok {
			panic(fmt.Sprintf("events: event type %q declared more than once", t))
		}
		c.kinds[t] = k
	}
	return c
}

// With returns a new catalog containing the kinds of c plus the given
// kinds.
func (c *Catalog) With(kinds ...Kind) *Catalog {
	all := make([]Kind, 0, len(c.kinds)+len(kinds))
	for _, k := range c.kinds {
		all = append(all, k)
	}
	return NewCatalog(append(all, kinds...)...)
}

// Knows reports whether the event type is in the catalog.
func (c *Catalog) Knows(t EventType) bool {
	_, ok := c.kinds[t]
	return ok
}

// Types returns the event types in the catalog in sorted order.
func (c *Catalog) Types() []EventType {
	types := make([]EventType, 0, len(c.kinds))
	for t := range c.kinds {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Deserialize decodes a single event. It never panics on bad input; the
// returned Result always holds either an event or an error.
func (c *Catalog) Deserialize(data []byte) (res Result) {
	f, err := decodeFrame(data)
	if err != nil {
		return Result{Err: err}
	}
	k, ok := c.kinds[f.eventType]
	if !ok {
		return Result{Event: &UnknownEvent{
			EventType: f.eventType,
			Content:   f.rawContent(),
		}}
	}
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: &ContentError{
				Type:    f.eventType,
				Content: f.rawContent(),
				Err:     fmt.Errorf("panic while decoding content: %v", r),
			}}
		}
	}()
	ev, err := k.decode(f)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Event: ev}
}

// DeserializeBatch decodes each event independently. The results are in
// the same order as the input and there is always one per input.
func (c *Catalog) DeserializeBatch(raws []json.RawMessage) []Result {
	results := make([]Result, len(raws))
	for i, raw := range raws {
		results[i] = c.Deserialize(raw)
	}
	return results
}

// DeserializeArray decodes a JSON array of events, such as the "events"
// array of an account_data section in a sync response. An error is only
// returned if data isn't an array; problems with individual events are
// reported in their Result.
func (c *Catalog) DeserializeArray(data []byte) ([]Result, error) {
	if err := validJSON(data); err != nil {
		return nil, &StructuralError{Reason: "event array is " + err.Error()}
	}
	arr := gjson.ParseBytes(data)
	if !arr.IsArray() {
		return nil, &StructuralError{Reason: fmt.Sprintf("expected an array of events, got %s", describe(arr))}
	}
	elems := arr.Array()
	results := make([]Result, 0, len(elems))
	for _, elem := range elems {
		results = append(results, c.Deserialize([]byte(elem.Raw)))
	}
	return results, nil
}
