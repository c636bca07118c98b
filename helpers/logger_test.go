package helpers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLog(t *testing.T) {
	file := filepath.Join(t.TempDir(), "events.json")
	log := NewEventLog(file, 5, 100)

	log.LogError("TestCrawler", errors.New("test error"))
	log.LogInfo("Test info message: %s", "hello")

	events := log.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "error", events[0].Kind)
	assert.Equal(t, "TestCrawler", events[0].Component)
	assert.Equal(t, "test error", events[0].Message)
	assert.Equal(t, "Test info message: hello", events[1].Message)

	require.NoError(t, log.Flush())
	var stored []Event
	found, err := ReadJSONFile(file, &stored)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, stored, 2)
}

func TestEventLogEvictsOldest(t *testing.T) {
	log := NewEventLog("", 3, 100)
	for i := 0; i < 5; i++ {
		log.Record("info", "", fmt.Sprintf("event %d", i))
	}

	events := log.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "event 2", events[0].Message)
	assert.Equal(t, "event 4", events[2].Message)
}

func TestEventLogFlushesEveryN(t *testing.T) {
	file := filepath.Join(t.TempDir(), "events.json")
	log := NewEventLog(file, 100, 3)

	log.Record("info", "", "a")
	log.Record("info", "", "b")
	found, err := ReadJSONFile(file, &[]Event{})
	require.NoError(t, err)
	assert.False(t, found)

	log.Record("info", "", "c")
	var stored []Event
	found, err = ReadJSONFile(file, &stored)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, stored, 3)
}

func TestReadJSONFileMissing(t *testing.T) {
	var v []string
	found, err := ReadJSONFile(filepath.Join(t.TempDir(), "nope.json"), &v)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestWriteJSONFileConcurrentWriters(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seen.json")

	var wg sync.WaitGroup
	errs := make(chan error, 400)
	for g := 0; g < 2; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				errs <- WriteJSONFile(path, []int{g, i})
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var v []int
	found, err := ReadJSONFile(path, &v)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, v, 2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}
