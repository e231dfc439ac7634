package logger

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewDefaultLevels(t *testing.T) {
	prod, err := New("production", "")
	require.NoError(t, err)
	defer prod.Sync()
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, prod.Core().Enabled(zapcore.InfoLevel))

	dev, err := New("development", "")
	require.NoError(t, err)
	defer dev.Sync()
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))
}

// Property: an explicit level is honoured in every environment
func TestProperty_ExplicitLevelOverridesEnvironment(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("enabled levels start at the configured one", prop.ForAll(
		func(env string, level string) bool {
			logger, err := New(env, level)
			if err != nil {
				return false
			}
			defer logger.Sync()

			lvl, _ := zapcore.ParseLevel(level)
			return logger.Core().Enabled(lvl) && !logger.Core().Enabled(lvl-1)
		},
		gen.OneConstOf("development", "production"),
		gen.OneConstOf("debug", "info", "warn", "error"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("production", "chatty")

	assert.Error(t, err)
}
