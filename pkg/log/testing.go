// Package log provides testing utilities for structured logging.
//
// This file contains a capturing Logger implementation used to verify log
// output in tests without touching the process-wide default provider.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// TestLogger is a Logger implementation that captures all log messages in
// memory for later inspection.
type TestLogger struct {
	buffer *bytes.Buffer
	level  Level
	fields map[string]interface{}
}

// NewTestLogger creates a new TestLogger with the specified minimum level.
// The returned buffer contains the captured log output as JSON lines.
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	return &TestLogger{
		buffer: buffer,
		level:  level,
		fields: make(map[string]interface{}),
	}, buffer
}

// Debug implements Logger.Debug.
func (t *TestLogger) Debug(msg string, fields ...any) {
	if t.level <= LevelDebug {
		t.writeLog("DEBUG", msg, fields...)
	}
}

// Info implements Logger.Info.
func (t *TestLogger) Info(msg string, fields ...any) {
	if t.level <= LevelInfo {
		t.writeLog("INFO", msg, fields...)
	}
}

// Warn implements Logger.Warn.
func (t *TestLogger) Warn(msg string, fields ...any) {
	if t.level <= LevelWarn {
		t.writeLog("WARN", msg, fields...)
	}
}

// Error implements Logger.Error.
func (t *TestLogger) Error(msg string, fields ...any) {
	if t.level <= LevelError {
		t.writeLog("ERROR", msg, fields...)
	}
}

// With implements Logger.With.
func (t *TestLogger) With(fields ...any) Logger {
	newFields := make(map[string]interface{}, len(t.fields)+len(fields)/2)
	for k, v := range t.fields {
		newFields[k] = v
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		if err, ok := fields[i+1].(error); ok {
			newFields[key] = err.Error()
		} else {
			newFields[key] = fields[i+1]
		}
	}
	return &TestLogger{buffer: t.buffer, level: t.level, fields: newFields}
}

// Enabled implements Logger.Enabled.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return t.level <= level
}

func (t *TestLogger) writeLog(level, msg string, fields ...any) {
	entry := map[string]interface{}{
		"level":   level,
		"message": msg,
	}
	for k, v := range t.fields {
		entry[k] = v
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		if err, ok := fields[i+1].(error); ok {
			entry[key] = err.Error()
		} else {
			entry[key] = fields[i+1]
		}
	}
	jsonData, _ := json.Marshal(entry)
	t.buffer.WriteString(string(jsonData) + "\n")
}

// GetLogEntries parses the captured log output into structured entries.
func (t *TestLogger) GetLogEntries() ([]map[string]interface{}, error) {
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(t.buffer.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage checks if the captured logs contain the given message content.
func (t *TestLogger) ContainsMessage(message string) bool {
	return strings.Contains(t.buffer.String(), message)
}

// ContainsField checks if any captured entry has the given field and value.
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if fieldValue, exists := entry[key]; exists && fieldValue == value {
			return true
		}
	}
	return false
}

// Clear clears all captured log content.
func (t *TestLogger) Clear() {
	t.buffer.Reset()
}

// TestLoggerProvider implements LoggerProvider for testing scenarios.
type TestLoggerProvider struct {
	logger *TestLogger
	buffer *bytes.Buffer
}

// NewTestLoggerProvider creates a new test logger provider.
func NewTestLoggerProvider(level Level) (*TestLoggerProvider, *bytes.Buffer) {
	logger, buffer := NewTestLogger(level)
	return &TestLoggerProvider{logger: logger, buffer: buffer}, buffer
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *TestLoggerProvider) GetLogger() Logger {
	return p.logger
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With(ComponentAttrKey, name)
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *TestLoggerProvider) SetLevel(level Level) {
	p.logger.level = level
}
