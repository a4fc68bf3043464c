package layout

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

// Logger returns the layout package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	nop := zap.NewNop()
	logger.CompareAndSwap(nil, nop)
	return logger.Load()
}

// SetLogger configures the layout package's logger. Only composition events
// (variant registration, bit-field allocation) are logged; encode and decode
// never log.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}
