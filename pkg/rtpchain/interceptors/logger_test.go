package interceptors

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/rtpchain/pkg/rtpchain/testutil"
)

func TestLogger_LogsAndPassesThrough(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	l := NewLogger(logger)

	pkt := testutil.RTP(42, 7, 20)
	out, ok := l.InterceptIncomingRTP(pkt, nil).Get()
	require.True(t, ok)
	assert.True(t, out.Equal(pkt))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, "incoming", entry.Data["direction"])
	assert.Equal(t, uint32(42), entry.Data["ssrc"])
	assert.Equal(t, uint16(7), entry.Data["seq"])
	assert.Equal(t, 20, entry.Data["payload_size"])
	assert.Equal(t, "logger", entry.Data["interceptor"])

	rr := testutil.ReceiverReport(1, 2)
	rout, ok := l.InterceptOutgoingRTCP(rr).Get()
	require.True(t, ok)
	assert.True(t, rout.Equal(rr))
	assert.Equal(t, len(rr.Data), hook.LastEntry().Data["size"])
	assert.Len(t, hook.AllEntries(), 2)
}

func TestLogger_LevelDisabled(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)
	l := NewLogger(logger)

	l.InterceptOutgoingRTP(testutil.RTP(1, 1, 1), nil)
	assert.Empty(t, hook.AllEntries())

	loud := NewLogger(logger, WithLogLevel(logrus.InfoLevel))
	loud.InterceptOutgoingRTP(testutil.RTP(1, 1, 1), nil)
	assert.Len(t, hook.AllEntries(), 1)
}
