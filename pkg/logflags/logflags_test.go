package logflags

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	defer Setup("", false, false)

	require.NoError(t, Setup("", false, false))
	assert.Equal(t, logrus.InfoLevel, level)

	require.NoError(t, Setup("warn", true, false))
	assert.Equal(t, logrus.DebugLevel, level)
	assert.True(t, DebugEvents())
	assert.False(t, DebugExceptions())

	require.NoError(t, Setup("trace", false, true))
	assert.Equal(t, logrus.TraceLevel, level)
	assert.True(t, DebugExceptions())

	assert.Error(t, Setup("loud", false, false))
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer Setup("", false, false)
	require.NoError(t, Setup("debug", false, false))

	WindowsNatLogger().Debug("event")
	CommandLogger().Info("prompt")
	assert.Contains(t, buf.String(), "layer=windows-nat")
	assert.Contains(t, buf.String(), "layer=cmd")
}
