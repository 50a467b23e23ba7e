package retrieval

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := NewQueryLogger(&buf)

	logger.Log(QueryLogEntry{Query: "test", NumResults: 5, Duration: 1500 * time.Millisecond})

	var entry QueryLogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test", entry.Query)
	assert.Equal(t, 5, entry.NumResults)
	assert.Equal(t, int64(1500), entry.LatencyMs)
}

func TestQueryLogger_OneLinePerEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := NewQueryLogger(&buf)

	logger.Log(QueryLogEntry{Query: "first"})
	logger.Log(QueryLogEntry{Query: "second"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestQueryLogger_ConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	logger := NewQueryLogger(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Log(QueryLogEntry{Query: "concurrent"})
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 20)
	for _, line := range lines {
		var entry QueryLogEntry
		assert.NoError(t, json.Unmarshal([]byte(line), &entry))
	}
}

func TestNewFileQueryLogger_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "query.log")
	logger, err := NewFileQueryLogger(path)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
