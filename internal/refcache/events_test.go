package refcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEventsIsCopy(t *testing.T) {
	events := DefaultEvents()
	require.Len(t, events, 11)
	events[0] = "mutated"
	assert.Equal(t, "task.created", DefaultEvents()[0])
}

func TestLoadEventsFileMissing(t *testing.T) {
	events, err := LoadEventsFile("/nonexistent/events.yaml")
	require.NoError(t, err, "missing override file is a no-op")
	assert.Nil(t, events)
}

func TestLoadEventsFileFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
events:
  - task.created
  - project.created
`), 0o644))

	events, err := LoadEventsFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"task.created", "project.created"}, events)
}

func TestLoadEventsFileInvalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`{{{nope`), 0o644))
		_, err := LoadEventsFile(path)
		assert.ErrorContains(t, err, "parsing events file")
	})

	t.Run("empty list", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`events: []`), 0o644))
		_, err := LoadEventsFile(path)
		assert.ErrorContains(t, err, "lists no events")
	})
}
