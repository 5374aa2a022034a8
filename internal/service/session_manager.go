package service

import (
	"context"
	"sync"
	"time"

	"docbuilder/internal/domain"
	"docbuilder/internal/editor"

	"github.com/google/uuid"
)

// Notice is a user-facing message emitted while applying an operation.
type Notice struct {
	Level   domain.NoticeLevel `json:"level"`
	Message string             `json:"message"`
}

type noticeBuffer struct {
	notices []Notice
}

func (b *noticeBuffer) Notify(level domain.NoticeLevel, message string) {
	b.notices = append(b.notices, Notice{Level: level, Message: message})
}

func (b *noticeBuffer) drain() []Notice {
	out := b.notices
	b.notices = nil
	return out
}

// session is one editor with its own lock. The editor itself is not safe
// for concurrent use.
type session struct {
	id       string
	mu       sync.Mutex
	editor   *editor.Editor
	notices  *noticeBuffer
	lastUsed time.Time
}

// SessionState is the editor state of a session plus the notices emitted
// by the last call.
type SessionState struct {
	ID string `json:"id"`
	editor.State
	Notices []Notice `json:"notices,omitempty"`
}

// CommandOutcome is the result of applying one command.
type CommandOutcome struct {
	Result editor.Result `json:"result"`
	State  SessionState  `json:"state"`
}

// SessionOptions configures a SessionManager.
type SessionOptions struct {
	HistoryDepth int
	TTL          time.Duration
}

// SessionManager owns the open editor sessions. Sessions idle for longer
// than the TTL are dropped by CleanupExpired.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*session

	storage *TemplateStorage
	logger  domain.Logger
	metrics domain.Metrics
	opts    SessionOptions
	now     func() time.Time
	newID   func() string
}

func NewSessionManager(
	storage *TemplateStorage,
	opts SessionOptions,
	logger domain.Logger,
	metrics domain.Metrics,
) *SessionManager {
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	return &SessionManager{
		sessions: make(map[string]*session),
		storage:  storage,
		logger:   logger,
		metrics:  metrics,
		opts:     opts,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

func (m *SessionManager) newSession() *session {
	notices := &noticeBuffer{}
	return &session{
		id:      m.newID(),
		notices: notices,
		editor: editor.New(editor.Options{
			HistoryDepth: m.opts.HistoryDepth,
			Logger:       m.logger,
			Notifier:     notices,
		}),
		lastUsed: m.now(),
	}
}

func (m *SessionManager) register(s *session) {
	m.mu.Lock()
	m.sessions[s.id] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SessionsActive(n)
	m.logger.Info("Editor session opened", "session_id", s.id)
}

// Create opens a session. An empty templateID starts a new document (or a
// presentation); otherwise the stored template is loaded.
func (m *SessionManager) Create(ctx context.Context, templateID string, presentation bool) (SessionState, error) {
	s := m.newSession()
	switch {
	case templateID != "":
		t, err := m.storage.GetTemplate(ctx, templateID)
		if err != nil {
			return SessionState{}, err
		}
		s.editor.Load(t)
	case presentation:
		s.editor.CreateNewPresentation()
	default:
		s.editor.CreateNew()
	}
	m.register(s)
	return s.state(), nil
}

// Open starts a session on a copy of t, for example an imported template.
func (m *SessionManager) Open(t *domain.Template) SessionState {
	s := m.newSession()
	s.editor.Load(t)
	m.register(s)
	return s.state()
}

func (s *session) state() SessionState {
	return SessionState{ID: s.id, State: s.editor.State(), Notices: s.notices.drain()}
}

// with runs fn with the session locked and marks it used.
func (m *SessionManager) with(id string, fn func(s *session) error) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = m.now()
	return fn(s)
}

// Get returns the session state.
func (m *SessionManager) Get(id string) (SessionState, error) {
	var st SessionState
	err := m.with(id, func(s *session) error {
		st = s.state()
		return nil
	})
	return st, err
}

// Apply executes cmd. A refused command still returns the (unchanged)
// state along with the error.
func (m *SessionManager) Apply(id string, cmd editor.Command) (CommandOutcome, error) {
	var out CommandOutcome
	var cmdErr error
	err := m.with(id, func(s *session) error {
		out.Result, cmdErr = s.editor.Execute(cmd)
		out.State = s.state()
		return nil
	})
	if err != nil {
		return out, err
	}
	m.metrics.EditorCommand(cmd.Op, cmdErr)
	if cmdErr != nil {
		m.logger.Debug("Editor command refused", "session_id", id, "op", cmd.Op, "error", cmdErr)
	}
	return out, cmdErr
}

// Undo steps back once; it is a no-op on an empty history.
func (m *SessionManager) Undo(id string) (SessionState, error) {
	var st SessionState
	err := m.with(id, func(s *session) error {
		s.editor.Undo()
		st = s.state()
		return nil
	})
	return st, err
}

func (m *SessionManager) Redo(id string) (SessionState, error) {
	var st SessionState
	err := m.with(id, func(s *session) error {
		s.editor.Redo()
		st = s.state()
		return nil
	})
	return st, err
}

// Template returns a copy of the session's current template.
func (m *SessionManager) Template(id string) (*domain.Template, error) {
	var t *domain.Template
	err := m.with(id, func(s *session) error {
		if !s.editor.HasTemplate() {
			return domain.ErrNoTemplate
		}
		t = s.editor.Template()
		return nil
	})
	return t, err
}

// Save writes the session's template to storage.
func (m *SessionManager) Save(ctx context.Context, id string) (*domain.Template, error) {
	t, err := m.Template(id)
	if err != nil {
		return nil, err
	}
	if err := m.storage.SaveTemplate(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Close drops a session.
func (m *SessionManager) Close(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}
	m.metrics.SessionsActive(n)
	m.logger.Info("Editor session closed", "session_id", id)
	return nil
}

// Count returns the number of open sessions.
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CleanupExpired drops every session idle for longer than the TTL and
// returns how many were dropped.
func (m *SessionManager) CleanupExpired() int {
	cutoff := m.now().Add(-m.opts.TTL)

	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.lastUsed.Before(cutoff)
		s.mu.Unlock()
		if idle {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, id := range expired {
		m.logger.Warn("Editor session expired", "session_id", id)
	}
	if len(expired) > 0 {
		m.metrics.SessionsActive(n)
	}
	return len(expired)
}

// Run calls CleanupExpired every interval until ctx is done.
func (m *SessionManager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupExpired()
		}
	}
}
