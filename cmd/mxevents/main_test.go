package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrix-org/mxevents/internal"
)

const batch = `[
	{"type":"m.direct","content":{"@alice:ruma.io":["!room:ruma.io"]}},
	{"type":"m.direct","content":{"@alice:ruma.io":["!a:ruma.io"],"@alice:ruma.io":["!b:ruma.io"]}},
	{"type":"m.unknown.future","content":{"x":1}},
	{"content":{}}
]`

func runTest(t *testing.T, args []string, stdin string) []string {
	t.Helper()
	var stdout bytes.Buffer
	err := run(context.Background(), flag.NewFlagSet("main_test", flag.ContinueOnError), args, strings.NewReader(stdin), &stdout)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(stdout.String()), "\n")
}

func TestRun(t *testing.T) {
	lines := runTest(t, nil, batch)
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "0\tok\tm.direct\t"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1\tinvalid_content\tm.direct\t"), lines[1])
	assert.Contains(t, lines[1], "duplicate key")
	assert.True(t, strings.HasPrefix(lines[2], "2\tunrecognised\tm.unknown.future\t"), lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "3\tmalformed\t\t"), lines[3])
}

func TestRunPrint(t *testing.T) {
	lines := runTest(t, []string{"-print", "-workers", "2"}, batch)
	require.Len(t, lines, 6)
	assert.Equal(t, `{"type":"m.direct","content":{"@alice:ruma.io":["!room:ruma.io"]}}`, strings.TrimSpace(lines[1]))
	assert.Equal(t, `{"type":"m.unknown.future","content":{"x":1}}`, strings.TrimSpace(lines[4]))
}

func TestRunWithConfigAndFiles(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "mxevents.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("version: 1\nevent_batch:\n  workers: 1\nmetrics:\n  enabled: true\n"), 0o600))
	eventsPath := filepath.Join(dir, "events.json")
	require.NoError(t, os.WriteFile(eventsPath, []byte(`{"events":[{"type":"m.typing","content":{"user_ids":[]}}]}`), 0o600))

	lines := runTest(t, []string{"-config", configPath, eventsPath}, "")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[0], "0\tok\tm.typing\t"), lines[0])
	assert.Contains(t, lines, `mxevents_eventbatch_events_total{outcome="ok"} 1`)
}

func TestRunVersion(t *testing.T) {
	lines := runTest(t, []string{"-version"}, "")
	assert.Equal(t, []string{internal.VersionString()}, lines)
}

func TestRunErrors(t *testing.T) {
	var stdout bytes.Buffer
	err := run(context.Background(), flag.NewFlagSet("main_test", flag.ContinueOnError), nil, strings.NewReader(`{"next_batch":"s1"}`), &stdout)
	assert.Error(t, err)

	err = run(context.Background(), flag.NewFlagSet("main_test", flag.ContinueOnError), []string{"-config", "/does/not/exist.yaml"}, strings.NewReader(`[]`), &stdout)
	assert.Error(t, err)
}
