package logger

import (
	"os"
	"sync"
)

var (
	globalLogger *Logger
	mu           sync.RWMutex
	once         sync.Once
)

// GetLogger returns the process-wide logger. Until SetLogger is called it
// logs JSON to stdout at the level named by DEBUG / KEYWORD_RADAR_LOG_LEVEL.
func GetLogger() *Logger {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if globalLogger != nil {
			return
		}

		defaultLevel := "warn"
		if os.Getenv("DEBUG") == "true" {
			defaultLevel = "debug"
		} else if level := os.Getenv("KEYWORD_RADAR_LOG_LEVEL"); level != "" {
			defaultLevel = level
		}

		globalLogger = New(Config{
			Level:  defaultLevel,
			Format: "json",
			Output: "stdout",
		})
	})

	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// SetLogger replaces the process-wide logger. Components that already
// captured a child logger keep the old one, so call this before wiring.
func SetLogger(logger *Logger) {
	once.Do(func() {})
	mu.Lock()
	globalLogger = logger
	mu.Unlock()
	SetGlobalLogger(logger)
}

// WithComponent returns a child of the global logger tagged with a component name
func WithComponent(name string) *Logger {
	return GetLogger().WithField("component", name)
}
