package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/matrix-org/gomatrixserverlib/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrix-org/mxevents/identifiers"
)

var (
	alice = identifiers.MustParseUserID("@alice:ruma.io")
	bob   = identifiers.MustParseUserID("@bob:ruma.io")
	room1 = identifiers.MustParseRoomID("!r1:ruma.io")
	room2 = identifiers.MustParseRoomID("!r2:ruma.io")
)

func TestDirectEventSerialization(t *testing.T) {
	user, err := identifiers.NewUserID("ruma.io")
	require.NoError(t, err)
	room, err := identifiers.NewRoomID("ruma.io")
	require.NoError(t, err)

	ev := New(DirectContent{user: {room}})

	b, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf(`{"type":"m.direct","content":{"%s":["%s"]}}`, user, room), string(b))

	// Value and pointer forms marshal identically.
	b2, err := json.Marshal(*ev)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(b2))
}

func TestDirectEventDeserialization(t *testing.T) {
	data := `{
		"type": "m.direct",
		"content": { "@alice:ruma.io": ["!r1:ruma.io", "!r2:ruma.io"] }
	}`

	var res Result
	require.NoError(t, json.Unmarshal([]byte(data), &res))
	require.NoError(t, res.Err)

	ev, ok := As[DirectContent](res)
	require.True(t, ok, "expected a DirectEvent, got %T", res.Event)
	assert.Equal(t, []identifiers.RoomID{room1, room2}, ev.Content.RoomsFor(alice))
}

func TestDirectEventEndToEnd(t *testing.T) {
	data := `{"type":"m.direct","content":{"@alice:ruma.io":["!room:ruma.io"]}}`

	res := DefaultCatalog.Deserialize([]byte(data))
	require.NoError(t, res.Err)
	ev, ok := As[DirectContent](res)
	require.True(t, ok)
	assert.Equal(t, DirectContent{alice: {identifiers.MustParseRoomID("!room:ruma.io")}}, ev.Content)

	out, err := Serialize(ev)
	require.NoError(t, err)
	assert.Equal(t, data, string(out))
}

func TestRoundTrip(t *testing.T) {
	order := 0.5
	tsts := []struct {
		Name  string
		Event Envelope
	}{
		{"direct", New(DirectContent{alice: {room1, room2, room1}, bob: {}})},
		{"ignored_user_list", New(IgnoredUserListContent{IgnoredUsers: map[identifiers.UserID]struct{}{bob: {}}})},
		{"fully_read", New(FullyReadContent{EventID: "$abc:ruma.io"})},
		{"tag", New(TagContent{Tags: map[string]Tag{"m.favourite": {Order: &order}, "u.work": {}}})},
		{"typing", New(TypingContent{UserIDs: []identifiers.UserID{alice, bob}})},
	}
	for _, tst := range tsts {
		t.Run(tst.Name, func(t *testing.T) {
			b, err := json.Marshal(tst.Event)
			require.NoError(t, err)

			res := DefaultCatalog.Deserialize(b)
			require.NoError(t, res.Err)
			assert.False(t, res.Unrecognized())
			assert.Equal(t, tst.Event.Type(), res.Type())
			if diff := cmp.Diff(tst.Event, res.Event, cmp.AllowUnexported(identifiers.UserID{}, identifiers.RoomID{})); diff != "" {
				t.Errorf("+got -want:\n%s", diff)
			}
		})
	}
}

func TestZeroContentRoundTrip(t *testing.T) {
	tsts := []struct {
		Name  string
		Event Envelope
		Want  string
	}{
		{"nil direct", New(DirectContent(nil)), `{"type":"m.direct","content":{}}`},
		{"zero ignored_user_list", New(IgnoredUserListContent{}), `{"type":"m.ignored_user_list","content":{"ignored_users":{}}}`},
		{"zero tag", New(TagContent{}), `{"type":"m.tag","content":{"tags":{}}}`},
		{"zero typing", New(TypingContent{}), `{"type":"m.typing","content":{"user_ids":[]}}`},
	}
	for _, tst := range tsts {
		t.Run(tst.Name, func(t *testing.T) {
			b, err := json.Marshal(tst.Event)
			require.NoError(t, err)
			assert.Equal(t, tst.Want, string(b))

			res := DefaultCatalog.Deserialize(b)
			require.NoError(t, res.Err)
			if diff := cmp.Diff(tst.Event, res.Event, cmpopts.EquateEmpty(), cmp.AllowUnexported(identifiers.UserID{}, identifiers.RoomID{})); diff != "" {
				t.Errorf("+got -want:\n%s", diff)
			}
		})
	}

	// There is nothing sensible to write for a read marker without an event.
	_, err := json.Marshal(New(FullyReadContent{}))
	var contentErr *ContentError
	require.True(t, errors.As(err, &contentErr), "expected ContentError, got %v", err)
	assert.Equal(t, MFullyRead, contentErr.Type)
}

func TestSerializeDoesNotEscapeHTML(t *testing.T) {
	data := `{"type":"m.tag","content":{"tags":{"u.a<b>&c":{}}}}`
	res := DefaultCatalog.Deserialize([]byte(data))
	require.NoError(t, res.Err)

	out, err := Serialize(res.Event)
	require.NoError(t, err)
	assert.Equal(t, data, string(out))
}

func TestTagFidelity(t *testing.T) {
	// Content that looks like another event must not change the tag.
	ev := New(TagContent{Tags: map[string]Tag{"type": {}}})
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"m.tag","content":{"tags":{"type":{}}}}`, string(b))
}

func TestDecodeTypeMismatch(t *testing.T) {
	_, err := Decode[DirectContent]([]byte(`{"type":"m.typing","content":{"user_ids":[]}}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	var mismatch *TypeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, MDirect, mismatch.Want)
	assert.Equal(t, MTyping, mismatch.Got)

	ev, err := Decode[TypingContent]([]byte(`{"type":"m.typing","content":{"user_ids":["@alice:ruma.io"]}}`))
	require.NoError(t, err)
	assert.Equal(t, []identifiers.UserID{alice}, ev.Content.UserIDs)
}

func TestDecodeIsCaseSensitive(t *testing.T) {
	_, err := Decode[DirectContent]([]byte(`{"type":"M.Direct","content":{}}`))
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	res := DefaultCatalog.Deserialize([]byte(`{"type":"M.Direct","content":{}}`))
	assert.True(t, res.Unrecognized())
}

func TestDuplicateKeysRejected(t *testing.T) {
	data := `{"type":"m.direct","content":{"@alice:x":["!a:x"], "@alice:x":["!b:x"]}}`

	res := DefaultCatalog.Deserialize([]byte(data))
	require.Nil(t, res.Event)
	var contentErr *ContentError
	require.True(t, errors.As(res.Err, &contentErr), "expected ContentError, got %v", res.Err)
	assert.Equal(t, MDirect, contentErr.Type)
	assert.Equal(t, spec.RawJSON(`{"@alice:x":["!a:x"], "@alice:x":["!b:x"]}`), contentErr.Content)

	_, err := Decode[DirectContent]([]byte(data))
	assert.True(t, errors.As(err, &contentErr))

	// Nested objects are checked too.
	res = DefaultCatalog.Deserialize([]byte(`{"type":"m.tag","content":{"tags":{"a":{"order":1},"a":{}}}}`))
	assert.True(t, errors.As(res.Err, &contentErr))
}

func TestContentErrors(t *testing.T) {
	tsts := map[string]string{
		"missing content":     `{"type":"m.direct"}`,
		"null content":        `{"type":"m.direct","content":null}`,
		"wrong shape":         `{"type":"m.direct","content":["!r1:ruma.io"]}`,
		"bad user ID key":     `{"type":"m.direct","content":{"alice":["!r1:ruma.io"]}}`,
		"bad room ID value":   `{"type":"m.direct","content":{"@alice:ruma.io":["r1"]}}`,
		"missing user_ids":    `{"type":"m.typing","content":{}}`,
		"missing event_id":    `{"type":"m.fully_read","content":{}}`,
		"bad event_id":        `{"type":"m.fully_read","content":{"event_id":"abc"}}`,
		"missing tags":        `{"type":"m.tag","content":{"tags":null}}`,
		"missing ignore list": `{"type":"m.ignored_user_list","content":{"ignored":{}}}`,
	}
	for name, data := range tsts {
		t.Run(name, func(t *testing.T) {
			res := DefaultCatalog.Deserialize([]byte(data))
			assert.Nil(t, res.Event)
			var contentErr *ContentError
			require.True(t, errors.As(res.Err, &contentErr), "expected ContentError, got %v", res.Err)
			assert.NotEmpty(t, contentErr.Type)
			assert.Equal(t, contentErr.Type, res.Type())
		})
	}
}
