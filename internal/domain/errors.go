package domain

import "errors"

// Domain errors
var (
	ErrTemplateNotFound     = errors.New("template not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrNoTemplate           = errors.New("no template loaded")
	ErrLastPage             = errors.New("cannot delete the last page")
	ErrPageNotFound         = errors.New("page not found")
	ErrMinimumGradientStops = errors.New("a gradient needs at least two stops")
	ErrNoGradient           = errors.New("element has no gradient")
	ErrNoCopiedStyle        = errors.New("no style to paste")
	ErrNothingSelected      = errors.New("no element selected")
	ErrDrawingModeActive    = errors.New("element edits are disabled while drawing")
	ErrDrawingModeInactive  = errors.New("drawing mode is off")
	ErrNotATable            = errors.New("element is not a table")
	ErrCellOutOfRange       = errors.New("table cell out of range")
	ErrUnknownElementType   = errors.New("unknown element type")
	ErrElementNotFound      = errors.New("element not found")
	ErrInvalidPageSize      = errors.New("invalid page size")
	ErrInvalidOrientation   = errors.New("invalid orientation")
	ErrNoStrokes            = errors.New("no strokes to commit")
	ErrInvalidToken         = errors.New("invalid token")
	ErrStorageUnavailable   = errors.New("storage unavailable")
	ErrClipboardEmpty       = errors.New("clipboard is empty")
	ErrArchiveDisabled      = errors.New("document archive is not configured")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
