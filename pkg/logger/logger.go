package logger

import "sync"

// LoggerInstance is a logging backend. Keyvals are alternating key/value
// pairs as accepted by charmbracelet/log.
type LoggerInstance interface {
	Log(message string, keyvals ...any)
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

type level int

const (
	levelLog level = iota
	levelDebug
	levelInfo
	levelWarn
	levelError
	levelFatal
)

var (
	mu        sync.RWMutex
	instances []LoggerInstance
)

// Init replaces the global set of backends. Calls made before Init, or after
// Init with no backends, are dropped.
func Init(backends ...LoggerInstance) {
	mu.Lock()
	defer mu.Unlock()
	instances = backends
}

// Enabled reports whether at least one backend is installed.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return len(instances) > 0
}

func dispatch(lvl level, message string, keyvals []any) {
	mu.RLock()
	backends := instances
	mu.RUnlock()

	for _, b := range backends {
		switch lvl {
		case levelDebug:
			b.Debug(message, keyvals...)
		case levelInfo:
			b.Info(message, keyvals...)
		case levelWarn:
			b.Warn(message, keyvals...)
		case levelError:
			b.Error(message, keyvals...)
		case levelFatal:
			b.Fatal(message, keyvals...)
		default:
			b.Log(message, keyvals...)
		}
	}
}

func Log(message string, keyvals ...any)   { dispatch(levelLog, message, keyvals) }
func Debug(message string, keyvals ...any) { dispatch(levelDebug, message, keyvals) }
func Info(message string, keyvals ...any)  { dispatch(levelInfo, message, keyvals) }
func Warn(message string, keyvals ...any)  { dispatch(levelWarn, message, keyvals) }
func Error(message string, keyvals ...any) { dispatch(levelError, message, keyvals) }

// Fatal logs on every backend. Backends are expected to exit the process.
func Fatal(message string, keyvals ...any) { dispatch(levelFatal, message, keyvals) }
