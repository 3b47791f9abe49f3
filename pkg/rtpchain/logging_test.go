package rtpchain_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
)

func TestLogrusLoggerFactory(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)

	l := rtpchain.LogrusLoggerFactory(logger).NewLogger("test-scope")

	l.Trace("t")
	l.Debugf("d %d", 1)
	l.Info("i")
	l.Warnf("w %s", "x")
	l.Error("e")

	entries := hook.AllEntries()
	require.Len(t, entries, 5)
	levels := make([]logrus.Level, len(entries))
	for i, e := range entries {
		levels[i] = e.Level
		assert.Equal(t, "test-scope", e.Data["scope"])
	}
	assert.Equal(t, []logrus.Level{
		logrus.TraceLevel, logrus.DebugLevel, logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel,
	}, levels)
	assert.Equal(t, "d 1", entries[1].Message)
	assert.Equal(t, "w x", entries[3].Message)
}

func TestLogrusLoggerFactory_Level(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.WarnLevel)

	l := rtpchain.LogrusLoggerFactory(logger).NewLogger("s")
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "shown", hook.LastEntry().Message)
}

func TestLogrusLoggerFactory_NilUsesStandardLogger(t *testing.T) {
	assert.NotNil(t, rtpchain.LogrusLoggerFactory(nil).NewLogger("s"))
}
