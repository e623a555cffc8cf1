package logger

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger is a logger implementation for testing that captures all log messages
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	buffer   *bytes.Buffer
	zerolog  *zerolog.Logger
}

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Error   error
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	nopLogger := zerolog.Nop()
	return &TestLogger{
		messages: make([]LogMessage, 0),
		buffer:   &bytes.Buffer{},
		zerolog:  &nopLogger,
	}
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg, nil, nil) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg, nil, nil) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg, nil, nil) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg, nil, nil) }
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg, nil, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields, nil)
}

func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields, nil)
}

func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields, nil)
}

func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields, nil)
}

func (l *TestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	l.log("FATAL", msg, fields, nil)
}

// WithError adds an error to the logger context
func (l *TestLogger) WithError(err error) Logger {
	return &testLoggerWithFields{TestLogger: l, err: err}
}

// WithField adds a field to the logger context
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return &testLoggerWithFields{
		TestLogger: l,
		fields:     map[string]interface{}{key: value},
	}
}

// WithFields adds multiple fields to the logger context
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	return &testLoggerWithFields{
		TestLogger: l,
		fields:     fields,
	}
}

// GetZerolog returns the underlying zerolog instance
func (l *TestLogger) GetZerolog() *zerolog.Logger {
	return l.zerolog
}

// log captures a log message
func (l *TestLogger) log(level, msg string, fields map[string]interface{}, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, LogMessage{
		Level:   level,
		Message: msg,
		Fields:  fields,
		Error:   err,
	})

	// Also write to buffer for debugging
	fmt.Fprintf(l.buffer, "[%s] %s", level, msg)
	if len(fields) > 0 {
		fmt.Fprintf(l.buffer, " fields=%v", fields)
	}
	if err != nil {
		fmt.Fprintf(l.buffer, " error=%v", err)
	}
	fmt.Fprintln(l.buffer)
}

// GetMessages returns all captured log messages
func (l *TestLogger) GetMessages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages := make([]LogMessage, len(l.messages))
	copy(messages, l.messages)
	return messages
}

// GetMessagesByLevel returns all messages of a specific level
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	var filtered []LogMessage
	for _, m := range l.messages {
		if m.Level == level {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// HasMessage reports whether any captured message contains the given text
func (l *TestLogger) HasMessage(text string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, m := range l.messages {
		if m.Message == text {
			return true
		}
	}
	return false
}

// Reset clears all captured messages
func (l *TestLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = l.messages[:0]
	l.buffer.Reset()
}

// testLoggerWithFields wraps the test logger, merging context fields into
// every captured message.
type testLoggerWithFields struct {
	*TestLogger
	fields map[string]interface{}
	err    error
}

func (l *testLoggerWithFields) merged(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(l.fields)+len(fields)+1)
	for k, v := range l.fields {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	if l.err != nil {
		out["error"] = l.err.Error()
	}
	return out
}

func (l *testLoggerWithFields) Debug(msg string) { l.TestLogger.log("DEBUG", msg, l.merged(nil), l.err) }
func (l *testLoggerWithFields) Info(msg string)  { l.TestLogger.log("INFO", msg, l.merged(nil), l.err) }
func (l *testLoggerWithFields) Warn(msg string)  { l.TestLogger.log("WARN", msg, l.merged(nil), l.err) }
func (l *testLoggerWithFields) Error(msg string) { l.TestLogger.log("ERROR", msg, l.merged(nil), l.err) }
func (l *testLoggerWithFields) Fatal(msg string) { l.TestLogger.log("FATAL", msg, l.merged(nil), l.err) }

func (l *testLoggerWithFields) DebugWithFields(msg string, fields map[string]interface{}) {
	l.TestLogger.log("DEBUG", msg, l.merged(fields), l.err)
}

func (l *testLoggerWithFields) InfoWithFields(msg string, fields map[string]interface{}) {
	l.TestLogger.log("INFO", msg, l.merged(fields), l.err)
}

func (l *testLoggerWithFields) WarnWithFields(msg string, fields map[string]interface{}) {
	l.TestLogger.log("WARN", msg, l.merged(fields), l.err)
}

func (l *testLoggerWithFields) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.TestLogger.log("ERROR", msg, l.merged(fields), l.err)
}

func (l *testLoggerWithFields) WithField(key string, value interface{}) Logger {
	return &testLoggerWithFields{
		TestLogger: l.TestLogger,
		fields:     l.merged(map[string]interface{}{key: value}),
		err:        l.err,
	}
}

func (l *testLoggerWithFields) WithFields(fields map[string]interface{}) Logger {
	return &testLoggerWithFields{
		TestLogger: l.TestLogger,
		fields:     l.merged(fields),
		err:        l.err,
	}
}

func (l *testLoggerWithFields) WithError(err error) Logger {
	return &testLoggerWithFields{
		TestLogger: l.TestLogger,
		fields:     l.merged(nil),
		err:        err,
	}
}
