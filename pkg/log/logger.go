package log

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

const (
	// ErrAttrKey is the field key under which error values are logged.
	ErrAttrKey = "error"
	// StacktraceAttrKey is the field key under which stack traces are logged.
	StacktraceAttrKey = "stacktrace"
	// ComponentAttrKey is the field key under which component names are logged.
	ComponentAttrKey = "component"
)

var (
	providerMu      sync.RWMutex
	defaultProvider LoggerProvider = NewZerologProvider(LevelWarn)
)

// GetLogger returns the default logger.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return defaultProvider.GetLogger()
}

// GetLoggerWithName returns a logger tagged with the given component name.
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return defaultProvider.GetLoggerWithName(name)
}

// SetLevel sets the minimum level emitted by the default provider.
func SetLevel(level Level) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	defaultProvider.SetLevel(level)
}

// SetProvider replaces the default provider. Intended for tests and for
// applications that supply their own logging backend.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	defaultProvider = p
}

// GetProvider returns the current default provider, so callers replacing it
// can restore it afterwards.
func GetProvider() LoggerProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return defaultProvider
}

// ZerologProvider is the default LoggerProvider backed by rs/zerolog.
// Log records are emitted as JSON lines on standard error.
type ZerologProvider struct {
	mu    sync.Mutex
	root  zerolog.Logger
	level Level
}

// NewZerologProvider creates a provider emitting records at or above level.
func NewZerologProvider(level Level) *ZerologProvider {
	root := zerolog.New(os.Stderr).With().Timestamp().Logger()
	return &ZerologProvider{root: root, level: level}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &zerologLogger{zl: p.root.Level(toZerologLevel(p.level))}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentAttrKey, name)
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// zerologLogger adapts a zerolog.Logger to the Logger interface.
type zerologLogger struct {
	zl zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...any) { l.emit(l.zl.Debug(), msg, fields) }
func (l *zerologLogger) Info(msg string, fields ...any)  { l.emit(l.zl.Info(), msg, fields) }
func (l *zerologLogger) Warn(msg string, fields ...any)  { l.emit(l.zl.Warn(), msg, fields) }

// Error logs at error level. If the first field is an error value, it is
// logged under ErrAttrKey with any cockroachdb/errors stack trace attached
// under StacktraceAttrKey.
func (l *zerologLogger) Error(msg string, fields ...any) {
	ev := l.zl.Error()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ev = ev.AnErr(ErrAttrKey, err)
			if st := extractStacktrace(err); st != "" {
				ev = ev.Str(StacktraceAttrKey, st)
			}
			fields = fields[1:]
		}
	}
	l.emit(ev, msg, fields)
}

func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		ctx = ctx.Interface(fmt.Sprintf("%v", fields[i]), fields[i+1])
	}
	return &zerologLogger{zl: ctx.Logger()}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= l.zl.GetLevel()
}

func (l *zerologLogger) emit(ev *zerolog.Event, msg string, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		if err, ok := fields[i+1].(error); ok {
			ev = ev.AnErr(key, err)
			continue
		}
		ev = ev.Interface(key, fields[i+1])
	}
	ev.Msg(msg)
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
