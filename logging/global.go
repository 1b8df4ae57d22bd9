package logging

import "sync"

var (
	globalLogger Logger
	globalMu     sync.RWMutex
)

// Global returns the process logger, creating a default one on first use.
func Global() Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = NewLogger(DefaultConfig())
	}
	return globalLogger
}

// SetGlobal replaces the process logger.
func SetGlobal(logger Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// Init builds a logger from config, installs it globally and returns it.
func Init(config Config) Logger {
	l := NewLogger(config)
	SetGlobal(l)
	return l
}
