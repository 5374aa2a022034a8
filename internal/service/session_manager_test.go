package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"docbuilder/internal/domain"
	"docbuilder/internal/editor"
)

func newTestSessions(t *testing.T) (*SessionManager, *TemplateStorage, *MockLogger, *MockMetrics) {
	t.Helper()
	storage, _, _ := newTestStorage(NewMockStore())
	logger := NewMockLogger()
	metrics := NewMockMetrics()
	m := NewSessionManager(storage, SessionOptions{HistoryDepth: 10, TTL: time.Minute}, logger, metrics)
	n := 0
	m.newID = func() string {
		n++
		return fmt.Sprintf("session-%d", n)
	}
	return m, storage, logger, metrics
}

// Commands mutate the session template and can be undone and redone
func TestSessionManager_ApplyUndoRedo(t *testing.T) {
	m, _, _, metrics := newTestSessions(t)

	st, err := m.Create(context.Background(), "", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if st.ID != "session-1" || st.Template == nil {
		t.Fatalf("unexpected state %+v", st)
	}
	before := len(st.Template.AllElements())

	out, err := m.Apply(st.ID, editor.Command{Op: "addElement", Type: domain.ElementText})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out.Result.Element == nil {
		t.Fatalf("Expected the created element in the result")
	}
	if got := len(out.State.Template.AllElements()); got != before+1 {
		t.Errorf("Expected %d elements, got %d", before+1, got)
	}
	if !out.State.CanUndo {
		t.Errorf("Expected CanUndo after a mutation")
	}

	undone, err := m.Undo(st.ID)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if len(undone.Template.AllElements()) != before || !undone.CanRedo {
		t.Errorf("undo did not restore the template")
	}

	redone, _ := m.Redo(st.ID)
	if len(redone.Template.AllElements()) != before+1 {
		t.Errorf("redo did not reapply the element")
	}
	if metrics.count("command:addElement:ok") != 1 {
		t.Errorf("Expected command metric, got %v", metrics.counts)
	}
}

// A refused command returns its error with the unchanged state and notices
func TestSessionManager_RefusedCommand(t *testing.T) {
	m, _, _, metrics := newTestSessions(t)
	st, _ := m.Create(context.Background(), "", false)
	pageID := ""
	if len(st.Template.Pages) > 0 {
		pageID = st.Template.Pages[0].ID
	}

	out, err := m.Apply(st.ID, editor.Command{Op: "deletePage", ID: pageID})
	if !errors.Is(err, domain.ErrLastPage) {
		t.Fatalf("Expected ErrLastPage, got %v", err)
	}
	if out.State.ID != st.ID || out.State.CanUndo {
		t.Errorf("Expected unchanged state, got %+v", out.State)
	}
	if len(out.State.Notices) != 1 || out.State.Notices[0].Level != domain.NoticeError {
		t.Errorf("Expected one error notice, got %+v", out.State.Notices)
	}
	if metrics.count("command:deletePage:error") != 1 {
		t.Errorf("Expected error metric")
	}

	again, _ := m.Get(st.ID)
	if len(again.Notices) != 0 {
		t.Errorf("Expected notices to be drained, got %+v", again.Notices)
	}
}

// Sessions opened from storage save back under the same id
func TestSessionManager_CreateFromStorageAndSave(t *testing.T) {
	ctx := context.Background()
	m, storage, _, _ := newTestSessions(t)
	_ = storage.SaveTemplate(ctx, testTemplate("stored", "Stored"))

	st, err := m.Create(ctx, "stored", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.Apply(st.ID, editor.Command{Op: "updateTemplateName", Name: "Renamed"}); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, err := m.Save(ctx, st.ID); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _ := storage.GetTemplate(ctx, "stored")
	if got.Name != "Renamed" {
		t.Errorf("Expected saved name Renamed, got %s", got.Name)
	}

	if _, err := m.Create(ctx, "missing", false); !errors.Is(err, domain.ErrTemplateNotFound) {
		t.Errorf("Expected ErrTemplateNotFound, got %v", err)
	}
}

func TestSessionManager_UnknownSession(t *testing.T) {
	m, _, _, _ := newTestSessions(t)

	if _, err := m.Get("nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Get: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := m.Apply("nope", editor.Command{Op: "undo"}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Apply: expected ErrSessionNotFound, got %v", err)
	}
	if err := m.Close("nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Close: expected ErrSessionNotFound, got %v", err)
	}
}

// Idle sessions are dropped once the TTL has passed
func TestSessionManager_CleanupExpired(t *testing.T) {
	m, _, logger, metrics := newTestSessions(t)
	now := fixedNow
	m.now = func() time.Time { return now }

	idle, _ := m.Create(context.Background(), "", false)
	busy, _ := m.Create(context.Background(), "", true)

	now = now.Add(45 * time.Second)
	if _, err := m.Get(busy.ID); err != nil {
		t.Fatalf("get: %v", err)
	}
	now = now.Add(30 * time.Second)

	if n := m.CleanupExpired(); n != 1 {
		t.Fatalf("Expected 1 expired session, got %d", n)
	}
	if _, err := m.Get(idle.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Expected idle session to be gone")
	}
	if m.Count() != 1 || metrics.active != 1 {
		t.Errorf("Expected one active session, got %d (gauge %d)", m.Count(), metrics.active)
	}
	if !logger.has("WARN: Editor session expired") {
		t.Errorf("Expected expiry warning")
	}
}

func TestSessionManager_OpenAndClose(t *testing.T) {
	m, _, _, metrics := newTestSessions(t)

	st := m.Open(testTemplate("imported", "Imported"))
	tpl, err := m.Template(st.ID)
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	if tpl.ID != "imported" {
		t.Errorf("Expected template imported, got %s", tpl.ID)
	}
	if err := m.Close(st.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if m.Count() != 0 || metrics.active != 0 {
		t.Errorf("Expected no sessions left")
	}
}
