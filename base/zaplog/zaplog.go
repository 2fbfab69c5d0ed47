package zaplog

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	logger atomic.Pointer[zap.Logger]
	nop    = zap.NewNop()
)

// Logger returns the process-wide logger, or a no-op logger if none has been
// set yet.
func Logger() *zap.Logger {
	l := logger.Load()
	if l == nil {
		return nop
	}
	return l
}

func SetLogger(l *zap.Logger) { logger.Store(l) }

// Or returns l unless it is nil, in which case it returns Logger().
func Or(l *zap.Logger) *zap.Logger {
	if l != nil {
		return l
	}
	return Logger()
}
