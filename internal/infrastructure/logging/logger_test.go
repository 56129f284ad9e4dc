package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewLoggerFromCore(core), logs
}

func TestZapLogger_Levels(t *testing.T) {
	log, logs := newObserved(zapcore.DebugLevel)

	log.Debug("d")
	log.Info("i")
	log.Warn("w")
	log.Error("e")

	require.Equal(t, 4, logs.Len())
	entries := logs.All()
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestZapLogger_Fields(t *testing.T) {
	log, logs := newObserved(zapcore.InfoLevel)

	log.Info("loaded",
		String("file", "compounds.csv"),
		Int("rows", 42),
		Float64("fraction", 0.5),
		Bool("ok", true),
		Duration("took", time.Second),
		Err(errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "compounds.csv", fields["file"])
	assert.Equal(t, int64(42), fields["rows"])
	assert.Equal(t, 0.5, fields["fraction"])
	assert.Equal(t, true, fields["ok"])
	assert.Equal(t, "boom", fields["error"])
}

func TestErr_Nil(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestZapLogger_With(t *testing.T) {
	log, logs := newObserved(zapcore.InfoLevel)

	child := log.With(String("stage", "docking"))
	child.Info("started")
	log.Info("no stage field")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "docking", logs.All()[0].ContextMap()["stage"])
	assert.NotContains(t, logs.All()[1].ContextMap(), "stage")
}

func TestZapLogger_Named(t *testing.T) {
	log, logs := newObserved(zapcore.InfoLevel)
	log.Named("pipeline").Named("embed").Info("x")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "pipeline.embed", logs.All()[0].LoggerName)
}

func TestNewLogger_Defaults(t *testing.T) {
	log, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	// Must not panic, and chaining returns a usable logger.
	log.With(String("k", "v")).Named("n").Info("discarded")
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	log := NewNopLogger()
	SetDefault(log)
	assert.Equal(t, log, Default())

	// nil is ignored.
	SetDefault(nil)
	assert.Equal(t, log, Default())
}
