package physobx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gekko3d/physobx/boxrt/rt/core"
)

func TestDefaultLoggerSetDebug(t *testing.T) {
	l := NewDefaultLogger("physobx", false)
	assert.False(t, l.DebugEnabled())
	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.SetDebug(false)
	assert.False(t, l.DebugEnabled())

	var _ core.Logger = l
	var _ core.Logger = NewNopLogger()
}

func TestLoggerFromZap(t *testing.T) {
	obs, logs := observer.New(zap.DebugLevel)
	l := NewLoggerFromZap(zap.New(obs))
	assert.True(t, l.DebugEnabled())

	l.Infof("ready %dx%d", 64, 48)
	l.Debugf("frame %d", 1)
	l.SetDebug(false)
	l.Debugf("dropped")
	l.Warnf("fallback")

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "ready 64x48", entries[0].Message)
		assert.Equal(t, "frame 1", entries[1].Message)
		assert.Equal(t, zap.WarnLevel, entries[2].Level)
	}
}

func TestRendererLogsBackend(t *testing.T) {
	obs, logs := observer.New(zap.InfoLevel)
	r, err := NewRenderer(testConfig(), BackendSoftware, NewLoggerFromZap(zap.New(obs)))
	assert.NoError(t, err)
	defer r.Close()
	assert.Positive(t, logs.FilterMessage("Renderer selected: software (64x48)").Len())
}

func TestCheckShadersLogsEveryProgram(t *testing.T) {
	obs, logs := observer.New(zap.InfoLevel)
	require.NoError(t, CheckShaders(NewLoggerFromZap(zap.New(obs))))
	checked := logs.FilterMessage("6 shader programs checked").Len()
	skipped := logs.FilterMessageSnippet("shader not checked").Len()
	assert.Equal(t, 1, checked)
	assert.LessOrEqual(t, skipped, 6)

	assert.NoError(t, CheckShaders(nil))
}
