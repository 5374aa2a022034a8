package handler

import (
	"strings"
	"sync"
)

// Mock logger used by handler package tests.
type MockHandlerLogger struct {
	mu       sync.Mutex
	messages []string
}

func NewMockHandlerLogger() *MockHandlerLogger {
	return &MockHandlerLogger{}
}

func (l *MockHandlerLogger) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, s)
}

func (l *MockHandlerLogger) Info(msg string, fields ...interface{})  { l.add("INFO: " + msg) }
func (l *MockHandlerLogger) Debug(msg string, fields ...interface{}) { l.add("DEBUG: " + msg) }
func (l *MockHandlerLogger) Warn(msg string, fields ...interface{})  { l.add("WARN: " + msg) }

func (l *MockHandlerLogger) Error(msg string, err error, fields ...interface{}) {
	l.add("ERROR: " + msg + " - " + err.Error())
}

func (l *MockHandlerLogger) has(prefix string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}
