// Package editor implements the template mutation engine. Every template
// change produces a new immutable snapshot; the previous snapshot goes onto a
// bounded undo stack.
package editor

import (
	"time"

	"docbuilder/internal/domain"

	"github.com/google/uuid"
)

// DefaultHistoryDepth is the number of undo steps kept when none is configured.
const DefaultHistoryDepth = 20

// Zoom bounds in percent.
const (
	MinZoom     = 25
	MaxZoom     = 200
	DefaultZoom = 100
)

// Options configures an Editor. Zero values select the defaults.
type Options struct {
	HistoryDepth int
	Logger       domain.Logger
	Notifier     domain.Notifier
	NewID        func() string
	Now          func() time.Time
}

// snapshot is one entry of the undo or redo stack. Templates held here are
// never mutated.
type snapshot struct {
	template    *domain.Template
	selectedID  string
	selectedIDs []string
}

// Editor owns one editing session: the current template, selection, view
// settings, clipboard and undo/redo history. It is not safe for concurrent use.
type Editor struct {
	template    *domain.Template
	selectedID  string
	selectedIDs []string

	zoom        int
	showGrid    bool
	snapToGrid  bool
	gridSize    int
	activePanel string

	drawingMode  bool
	drawingTool  string
	drawingColor string
	drawingWidth float64
	drawingPaths []domain.DrawingPath

	clipboard   []domain.DocumentElement
	copiedStyle *domain.ElementStyle

	undoStack []snapshot
	redoStack []snapshot
	depth     int

	logger   domain.Logger
	notifier domain.Notifier
	newID    func() string
	now      func() time.Time
}

// New creates an Editor with no template loaded.
func New(opts Options) *Editor {
	e := &Editor{
		zoom:         DefaultZoom,
		showGrid:     true,
		snapToGrid:   true,
		gridSize:     20,
		activePanel:  "elements",
		drawingTool:  "pen",
		drawingColor: "#000000",
		drawingWidth: 2,
		depth:        opts.HistoryDepth,
		logger:       opts.Logger,
		notifier:     opts.Notifier,
		newID:        opts.NewID,
		now:          opts.Now,
	}
	if e.depth <= 0 {
		e.depth = DefaultHistoryDepth
	}
	if e.logger == nil {
		e.logger = nopLogger{}
	}
	if e.notifier == nil {
		e.notifier = nopNotifier{}
	}
	if e.newID == nil {
		e.newID = func() string { return uuid.New().String() }
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// HasTemplate reports whether a template is loaded.
func (e *Editor) HasTemplate() bool {
	return e.template != nil
}

// Template returns a deep copy of the current template, or nil.
func (e *Editor) Template() *domain.Template {
	return e.template.Clone()
}

// SelectedElementID returns the primary selection.
func (e *Editor) SelectedElementID() string {
	return e.selectedID
}

// SelectedElementIDs returns the multi-selection.
func (e *Editor) SelectedElementIDs() []string {
	return append([]string{}, e.selectedIDs...)
}

// CanUndo reports whether Undo would change anything.
func (e *Editor) CanUndo() bool { return len(e.undoStack) > 0 }

// CanRedo reports whether Redo would change anything.
func (e *Editor) CanRedo() bool { return len(e.redoStack) > 0 }

// Undo restores the most recent snapshot. It is a no-op on an empty stack
// and reports whether anything changed.
func (e *Editor) Undo() bool {
	if len(e.undoStack) == 0 {
		return false
	}
	prev := e.undoStack[len(e.undoStack)-1]
	e.undoStack = e.undoStack[:len(e.undoStack)-1]
	e.redoStack = append(e.redoStack, e.capture())
	e.restore(prev)
	return true
}

// Redo reapplies the most recently undone snapshot. It is a no-op on an
// empty stack and reports whether anything changed.
func (e *Editor) Redo() bool {
	if len(e.redoStack) == 0 {
		return false
	}
	next := e.redoStack[len(e.redoStack)-1]
	e.redoStack = e.redoStack[:len(e.redoStack)-1]
	e.undoStack = append(e.undoStack, e.capture())
	e.restore(next)
	return true
}

func (e *Editor) capture() snapshot {
	return snapshot{
		template:    e.template,
		selectedID:  e.selectedID,
		selectedIDs: append([]string(nil), e.selectedIDs...),
	}
}

func (e *Editor) restore(s snapshot) {
	e.template = s.template
	e.selectedID = s.selectedID
	e.selectedIDs = append([]string(nil), s.selectedIDs...)
}

func (e *Editor) pushUndo(s snapshot) {
	e.undoStack = append(e.undoStack, s)
	if over := len(e.undoStack) - e.depth; over > 0 {
		e.undoStack = append([]snapshot(nil), e.undoStack[over:]...)
	}
	e.redoStack = nil
}

func (e *Editor) resetHistory() {
	e.undoStack = nil
	e.redoStack = nil
}

// apply runs fn against a copy of the current template. When fn succeeds the
// copy becomes current and the previous snapshot is pushed onto the undo
// stack; when it fails nothing changes.
func (e *Editor) apply(fn func(t *domain.Template) error) error {
	if e.template == nil {
		return domain.ErrNoTemplate
	}
	next := e.template.Clone()
	if err := fn(next); err != nil {
		return err
	}
	next.UpdatedAt = e.now()
	e.pushUndo(e.capture())
	e.template = next
	return nil
}

// replace swaps in a modified copy without recording history. It is used
// for view-only changes that live on the template, such as the current page.
func (e *Editor) replace(fn func(t *domain.Template) bool) {
	if e.template == nil {
		return
	}
	next := e.template.Clone()
	if fn(next) {
		e.template = next
	}
}

func (e *Editor) notify(level domain.NoticeLevel, msg string) {
	e.notifier.Notify(level, msg)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})         {}
func (nopLogger) Error(string, error, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{})        {}
func (nopLogger) Warn(string, ...interface{})         {}

type nopNotifier struct{}

func (nopNotifier) Notify(domain.NoticeLevel, string) {}
