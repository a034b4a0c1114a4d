package debug

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLogFileRedirects(t *testing.T) {
	t.Cleanup(func() { SetLogFile(defaultLogFile) })
	dir := t.TempDir()
	first := filepath.Join(dir, "first.log")
	second := filepath.Join(dir, "second.log")

	SetLogFile(first)
	log := GetLogger()
	log.Info("to first")
	opened := logFile

	SetLogFile(second)
	log.Info("to second")
	assert.Same(t, log, GetLogger())

	// The replaced file is closed.
	_, err := opened.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)

	content, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Contains(t, string(content), "to first")
	assert.NotContains(t, string(content), "to second")

	content, err = os.ReadFile(second)
	require.NoError(t, err)
	assert.Contains(t, string(content), "to second")
}

func TestSetLogFileConcurrent(t *testing.T) {
	t.Cleanup(func() { SetLogFile(defaultLogFile) })
	dir := t.TempDir()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			SetLogFile(filepath.Join(dir, string(rune('a'+i))+".log"))
			GetLogger().Debug("switched")
		}(i)
	}
	wg.Wait()
	assert.NotNil(t, GetLogger())
}
