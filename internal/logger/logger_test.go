package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// resetLogger restores package state after a test.
func resetLogger(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
}

func TestVerboseToggle(t *testing.T) {
	resetLogger(t)

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebugSilentByDefault(t *testing.T) {
	resetLogger(t)

	var buf bytes.Buffer
	SetOutput(&buf)

	Debug("should not appear")
	assert.Empty(t, buf.String())
}

func TestDebugWhenVerbose(t *testing.T) {
	resetLogger(t)

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("embedding %d chunks", 3)
	assert.Contains(t, buf.String(), "[DEBUG] embedding 3 chunks")
}

func TestInfoWarnSection(t *testing.T) {
	resetLogger(t)

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Info("index version %d", 7)
	Warn("retrying batch %d", 2)
	Section("Ingestion")

	out := buf.String()
	assert.Contains(t, out, "[INFO] index version 7")
	assert.Contains(t, out, "[WARN] retrying batch 2")
	assert.Contains(t, out, "=== Ingestion ===")
}
