package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, "ccftest", false)
	logger.Debug("hidden")
	logger.Info("shown", "name", "a.txt")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "ccftest")
}

func TestNewLogger_Verbose(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, "ccftest", true)
	logger.Debug("visible")

	assert.Contains(t, buf.String(), "visible")
}
