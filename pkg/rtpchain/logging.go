package rtpchain

import (
	"github.com/pion/logging"
	"github.com/sirupsen/logrus"
)

// LogrusLoggerFactory routes pion/logging output into a logrus logger. Each
// scope becomes a "scope" field. A nil logger uses logrus's standard logger.
func LogrusLoggerFactory(l *logrus.Logger) logging.LoggerFactory {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return logrusFactory{l: l}
}

type logrusFactory struct {
	l *logrus.Logger
}

func (f logrusFactory) NewLogger(scope string) logging.LeveledLogger {
	return logrusLogger{e: f.l.WithField("scope", scope)}
}

// logrusLogger implements logging.LeveledLogger.
type logrusLogger struct {
	e *logrus.Entry
}

func (l logrusLogger) Trace(msg string)                          { l.e.Trace(msg) }
func (l logrusLogger) Tracef(format string, args ...interface{}) { l.e.Tracef(format, args...) }
func (l logrusLogger) Debug(msg string)                          { l.e.Debug(msg) }
func (l logrusLogger) Debugf(format string, args ...interface{}) { l.e.Debugf(format, args...) }
func (l logrusLogger) Info(msg string)                           { l.e.Info(msg) }
func (l logrusLogger) Infof(format string, args ...interface{})  { l.e.Infof(format, args...) }
func (l logrusLogger) Warn(msg string)                           { l.e.Warn(msg) }
func (l logrusLogger) Warnf(format string, args ...interface{})  { l.e.Warnf(format, args...) }
func (l logrusLogger) Error(msg string)                          { l.e.Error(msg) }
func (l logrusLogger) Errorf(format string, args ...interface{}) { l.e.Errorf(format, args...) }
