package interceptors

import (
	"github.com/sirupsen/logrus"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
)

// Logger logs a line per packet and passes every packet through.
type Logger struct {
	log   *logrus.Entry
	level logrus.Level
}

// LoggerOption configures a Logger.
type LoggerOption func(*Logger)

// WithLogLevel sets the level packets are logged at. Default: debug.
func WithLogLevel(level logrus.Level) LoggerOption {
	return func(l *Logger) {
		l.level = level
	}
}

// NewLogger creates a packet logger writing to l, or to logrus's standard
// logger if l is nil.
func NewLogger(l *logrus.Logger, opts ...LoggerOption) *Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	lg := &Logger{
		log:   l.WithField("interceptor", "logger"),
		level: logrus.DebugLevel,
	}
	for _, opt := range opts {
		opt(lg)
	}
	return lg
}

// InterceptOutgoingRTP implements rtpchain.Interceptor.
func (l *Logger) InterceptOutgoingRTP(pkt rtpchain.RTPPacket, _ *rtpchain.StreamInfo) rtpchain.RTPResult {
	l.logRTP(rtpchain.Outgoing, pkt)
	return rtpchain.Keep(pkt)
}

// InterceptIncomingRTP implements rtpchain.Interceptor.
func (l *Logger) InterceptIncomingRTP(pkt rtpchain.RTPPacket, _ *rtpchain.StreamInfo) rtpchain.RTPResult {
	l.logRTP(rtpchain.Incoming, pkt)
	return rtpchain.Keep(pkt)
}

// InterceptOutgoingRTCP implements rtpchain.Interceptor.
func (l *Logger) InterceptOutgoingRTCP(pkt rtpchain.RTCPPacket) rtpchain.RTCPResult {
	l.logRTCP(rtpchain.Outgoing, pkt)
	return rtpchain.Keep(pkt)
}

// InterceptIncomingRTCP implements rtpchain.Interceptor.
func (l *Logger) InterceptIncomingRTCP(pkt rtpchain.RTCPPacket) rtpchain.RTCPResult {
	l.logRTCP(rtpchain.Incoming, pkt)
	return rtpchain.Keep(pkt)
}

func (l *Logger) logRTP(dir rtpchain.Direction, pkt rtpchain.RTPPacket) {
	// Building the fields allocates; skip it when the level is off.
	if !l.log.Logger.IsLevelEnabled(l.level) {
		return
	}
	l.log.WithFields(logrus.Fields{
		"direction":    dir.String(),
		"ssrc":         pkt.Header.SSRC,
		"seq":          pkt.Header.SequenceNumber,
		"ts":           pkt.Header.Timestamp,
		"pt":           pkt.Header.PayloadType,
		"payload_size": len(pkt.Payload),
		"extensions":   len(pkt.Extensions),
	}).Log(l.level, "RTP packet")
}

func (l *Logger) logRTCP(dir rtpchain.Direction, pkt rtpchain.RTCPPacket) {
	if !l.log.Logger.IsLevelEnabled(l.level) {
		return
	}
	l.log.WithFields(logrus.Fields{
		"direction": dir.String(),
		"size":      len(pkt.Data),
	}).Log(l.level, "RTCP packet")
}
