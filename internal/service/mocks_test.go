package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"docbuilder/internal/domain"
)

// Mock implementations for testing
type MockLogger struct {
	mu       sync.Mutex
	messages []string
}

func NewMockLogger() *MockLogger {
	return &MockLogger{messages: []string{}}
}

func (m *MockLogger) add(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, s)
}

func (m *MockLogger) Info(msg string, args ...interface{})  { m.add("INFO: " + msg) }
func (m *MockLogger) Debug(msg string, args ...interface{}) { m.add("DEBUG: " + msg) }
func (m *MockLogger) Warn(msg string, args ...interface{})  { m.add("WARN: " + msg) }

func (m *MockLogger) Error(msg string, err error, args ...interface{}) {
	m.add("ERROR: " + msg + " - " + err.Error())
}

func (m *MockLogger) has(prefix string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}

type MockMetrics struct {
	mu     sync.Mutex
	counts map[string]int
	active int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{counts: make(map[string]int)}
}

func (m *MockMetrics) inc(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
}

func (m *MockMetrics) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key]
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *MockMetrics) StorageOperation(op string, err error) { m.inc("storage:" + op + ":" + outcome(err)) }
func (m *MockMetrics) StorageRecovered()                     { m.inc("recovered") }
func (m *MockMetrics) TemplateExported(format string)        { m.inc("export:" + format) }
func (m *MockMetrics) EditorCommand(op string, err error)    { m.inc("command:" + op + ":" + outcome(err)) }

func (m *MockMetrics) TemplateImported(source string, success bool) {
	m.inc(fmt.Sprintf("import:%s:%t", source, success))
}

func (m *MockMetrics) SessionsActive(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = n
}

func (m *MockMetrics) ComplianceRequest(op string, outcome string) {
	m.inc("compliance:" + op + ":" + outcome)
}

func (m *MockMetrics) WebhookDelivery(event string, success bool) {
	m.inc(fmt.Sprintf("webhook:%s:%t", event, success))
}

// MockStore is an in-memory domain.KeyValueStore that can be told to fail.
type MockStore struct {
	data    map[string]string
	failGet bool
	failSet bool
	sets    int
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]string)}
}

func (m *MockStore) Get(ctx context.Context, key string) (string, bool, error) {
	if m.failGet {
		return "", false, errors.New("store offline")
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MockStore) Set(ctx context.Context, key, value string) error {
	if m.failSet {
		return errors.New("store offline")
	}
	m.sets++
	m.data[key] = value
	return nil
}

type MockClipboard struct {
	text    string
	written bool
	fail    bool
}

func (m *MockClipboard) ReadText(ctx context.Context) (string, error) {
	if m.fail || !m.written {
		return "", domain.ErrClipboardEmpty
	}
	return m.text, nil
}

func (m *MockClipboard) WriteText(ctx context.Context, text string) error {
	if m.fail {
		return errors.New("clipboard denied")
	}
	m.text, m.written = text, true
	return nil
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) { return 0, io.ErrUnexpectedEOF }

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func newTestStorage(store domain.KeyValueStore) (*TemplateStorage, *MockLogger, *MockMetrics) {
	logger := NewMockLogger()
	metrics := NewMockMetrics()
	s := NewTemplateStorage(store, "pdfmaker_templates", logger, metrics)
	s.now = func() time.Time { return fixedNow }
	return s, logger, metrics
}

func testTemplate(id, name string) *domain.Template {
	return &domain.Template{
		ID:          id,
		Name:        name,
		Elements:    []domain.DocumentElement{},
		PageSize:    domain.PageSizeA4,
		Orientation: domain.OrientationPortrait,
		CreatedAt:   fixedNow,
		UpdatedAt:   fixedNow,
	}
}
