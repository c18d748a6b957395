package lfvec

import "github.com/joeycumines/logiface"

// logifaceLogger adapts lfvec's Logger interface onto a logiface.Logger, so
// that a caller who already routes their own diagnostics through logiface
// can plug the vector's pool diagnostics into the same
// sink without writing their own adapter.
type logifaceLogger struct {
	logger *logiface.Logger[logiface.Event]
}

// NewLogifaceLogger wraps a logiface.Logger[logiface.Event] (obtained from
// any typed logiface.Logger[E] via its Logger() method) as an lfvec.Logger.
func NewLogifaceLogger(logger *logiface.Logger[logiface.Event]) Logger {
	return &logifaceLogger{logger: logger}
}

// IsEnabled reports whether the wrapped logiface logger would emit at the
// given level. logiface severities ascend from LevelEmergency(0) downward
// in urgency, the opposite ordering from lfvec's LogLevel, so "enabled"
// means the mapped level is at least as severe as the configured threshold.
func (l *logifaceLogger) IsEnabled(level LogLevel) bool {
	return logifaceLevel(level) <= l.logger.Level()
}

// Log forwards entry to the wrapped logiface logger, mapping lfvec's field
// set onto logiface's builder chain.
func (l *logifaceLogger) Log(entry LogEntry) {
	b := l.logger.Build(logifaceLevel(entry.Level))
	if b == nil {
		return
	}
	b = b.Str("category", entry.Category)
	if entry.PoolID != 0 {
		b = b.Int("pool", entry.PoolID)
	}
	if entry.NodeID != 0 {
		b = b.Int("node", entry.NodeID)
	}
	if entry.Bucket != 0 {
		b = b.Int("bucket", entry.Bucket)
	}
	if entry.Position != 0 {
		b = b.Int64("position", int64(entry.Position))
	}
	for k, v := range entry.Context {
		b = b.Any(k, v)
	}
	if entry.Err != nil {
		b = b.Err(entry.Err)
	}
	b.Log(entry.Message)
}

func logifaceLevel(level LogLevel) logiface.Level {
	switch level {
	case LevelDebug:
		return logiface.LevelDebug
	case LevelInfo:
		return logiface.LevelInformational
	case LevelWarn:
		return logiface.LevelWarning
	case LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}
