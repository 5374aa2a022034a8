package editor

import (
	"errors"
	"fmt"
	"time"

	"docbuilder/internal/domain"
)

// ErrUnknownCommand is returned by Execute for an unrecognised op.
var ErrUnknownCommand = errors.New("unknown editor command")

// Command is a serialisable editor operation. Only the fields the op reads
// need to be set.
type Command struct {
	Op string `json:"op"`

	ID  string   `json:"id,omitempty"`
	IDs []string `json:"ids,omitempty"`

	Type      domain.ElementType `json:"type,omitempty"`
	Position  *domain.Position   `json:"position,omitempty"`
	Size      *domain.Size       `json:"size,omitempty"`
	Patch     ElementPatch       `json:"patch,omitempty"`
	Direction Direction          `json:"direction,omitempty"`

	Name        string                     `json:"name,omitempty"`
	Description string                     `json:"description,omitempty"`
	PageSize    domain.PageSize            `json:"pageSize,omitempty"`
	Orientation domain.Orientation         `json:"orientation,omitempty"`
	Properties  *domain.DocumentProperties `json:"properties,omitempty"`
	Permissions []string                   `json:"permissions,omitempty"`
	ExpiresAt   *time.Time                 `json:"expiresAt,omitempty"`

	Find     string `json:"find,omitempty"`
	Replace  string `json:"replace,omitempty"`
	AllPages bool   `json:"allPages,omitempty"`

	Rows    int    `json:"rows,omitempty"`
	Cols    int    `json:"cols,omitempty"`
	Row     int    `json:"row,omitempty"`
	Col     int    `json:"col,omitempty"`
	Content string `json:"content,omitempty"`

	Style    *domain.ElementStyle `json:"style,omitempty"`
	Gradient *domain.Gradient     `json:"gradient,omitempty"`
	Stop     *domain.GradientStop `json:"stop,omitempty"`
	Index    int                  `json:"index,omitempty"`

	Zoom     int     `json:"zoom,omitempty"`
	GridSize int     `json:"gridSize,omitempty"`
	Panel    string  `json:"panel,omitempty"`
	Tool     string  `json:"tool,omitempty"`
	Color    string  `json:"color,omitempty"`
	Width    float64 `json:"width,omitempty"`

	Points       []domain.Point `json:"points,omitempty"`
	Alignment    Alignment      `json:"alignment,omitempty"`
	Distribution Distribution   `json:"distribution,omitempty"`
}

// Result carries whatever an executed command produced.
type Result struct {
	Element  *domain.DocumentElement  `json:"element,omitempty"`
	Elements []domain.DocumentElement `json:"elements,omitempty"`
	Page     *domain.Page             `json:"page,omitempty"`
	Token    *domain.IntegrationToken `json:"token,omitempty"`
	Count    int                      `json:"count"`
}

// Execute runs one command against the editor.
func (e *Editor) Execute(cmd Command) (Result, error) {
	var res Result
	var err error

	switch cmd.Op {
	case "createNew":
		e.CreateNew()
	case "createNewPresentation":
		e.CreateNewPresentation()
	case "updateTemplateName":
		err = e.UpdateTemplateName(cmd.Name)
	case "updateTemplateDescription":
		err = e.UpdateTemplateDescription(cmd.Description)
	case "updateDocumentProperties":
		if cmd.Properties == nil {
			return res, fmt.Errorf("%s: properties are required", cmd.Op)
		}
		err = e.UpdateDocumentProperties(*cmd.Properties)
	case "setPageSize":
		err = e.SetPageSize(cmd.PageSize)
	case "setOrientation":
		err = e.SetOrientation(cmd.Orientation)
	case "addIntegrationToken":
		var tok domain.IntegrationToken
		tok, err = e.AddIntegrationToken(cmd.Name, cmd.Permissions, cmd.ExpiresAt)
		if err == nil {
			res.Token = &tok
		}
	case "removeIntegrationToken":
		err = e.RemoveIntegrationToken(cmd.ID)

	case "addElement":
		var el domain.DocumentElement
		el, err = e.AddElement(cmd.Type, cmd.Position)
		if err == nil {
			res.Element = &el
		}
	case "updateElement":
		err = e.UpdateElement(cmd.ID, cmd.Patch)
	case "moveElement":
		if cmd.Position == nil {
			return res, fmt.Errorf("%s: position is required", cmd.Op)
		}
		err = e.MoveElement(cmd.ID, *cmd.Position)
	case "resizeElement":
		if cmd.Size == nil {
			return res, fmt.Errorf("%s: size is required", cmd.Op)
		}
		err = e.ResizeElement(cmd.ID, *cmd.Size)
	case "deleteElement":
		err = e.DeleteElement(cmd.ID)
	case "deleteSelected":
		err = e.DeleteSelected()
	case "duplicateElement":
		res.Element, err = e.DuplicateElement(cmd.ID)
	case "reorderElement":
		err = e.ReorderElement(cmd.ID, cmd.Direction)
	case "bringToFront":
		err = e.BringToFront(cmd.ID)
	case "sendToBack":
		err = e.SendToBack(cmd.ID)
	case "toggleVisibility":
		err = e.ToggleVisibility(cmd.ID)
	case "toggleLock":
		err = e.ToggleLock(cmd.ID)
	case "resizeTable":
		err = e.ResizeTable(cmd.ID, cmd.Rows, cmd.Cols)
	case "updateTableCell":
		err = e.UpdateTableCell(cmd.ID, cmd.Row, cmd.Col, cmd.Content)
	case "findAndReplace":
		scope := ScopeTemplateElements
		if cmd.AllPages {
			scope = ScopeAllPages
		}
		res.Count, err = e.FindAndReplace(cmd.Find, cmd.Replace, scope)

	case "copyStyle":
		err = e.CopyStyle(cmd.ID)
	case "pasteStyle":
		err = e.PasteStyle(cmd.ID)
	case "applyStylePreset":
		if cmd.Style == nil {
			return res, fmt.Errorf("%s: style is required", cmd.Op)
		}
		err = e.ApplyStylePreset(*cmd.Style)
	case "setGradient":
		if cmd.Gradient == nil {
			return res, fmt.Errorf("%s: gradient is required", cmd.Op)
		}
		err = e.SetGradient(cmd.ID, *cmd.Gradient)
	case "clearGradient":
		err = e.ClearGradient(cmd.ID)
	case "addGradientStop":
		if cmd.Stop == nil {
			return res, fmt.Errorf("%s: stop is required", cmd.Op)
		}
		err = e.AddGradientStop(cmd.ID, *cmd.Stop)
	case "updateGradientStop":
		if cmd.Stop == nil {
			return res, fmt.Errorf("%s: stop is required", cmd.Op)
		}
		err = e.UpdateGradientStop(cmd.ID, cmd.Index, *cmd.Stop)
	case "removeGradientStop":
		err = e.RemoveGradientStop(cmd.ID, cmd.Index)

	case "copyElements":
		res.Count = e.CopySelected()
	case "pasteElements":
		res.Elements, err = e.PasteElements()
		res.Count = len(res.Elements)
	case "alignSelected":
		err = e.AlignSelected(cmd.Alignment)
	case "distributeSelected":
		err = e.DistributeSelected(cmd.Distribution)

	case "addPage":
		var p domain.Page
		p, err = e.AddPage()
		if err == nil {
			res.Page = &p
		}
	case "deletePage":
		err = e.DeletePage(cmd.ID)
	case "duplicatePage":
		res.Page, err = e.DuplicatePage(cmd.ID)
	case "reorderPage":
		err = e.ReorderPage(cmd.ID, cmd.Direction)
	case "renamePage":
		err = e.RenamePage(cmd.ID, cmd.Name)
	case "rotatePage":
		err = e.RotatePage(cmd.ID)
	case "setPageBackground":
		err = e.SetPageBackground(cmd.ID, cmd.Color)
	case "selectPage":
		err = e.SelectPage(cmd.ID)

	case "selectElement":
		e.SelectElement(cmd.ID)
	case "selectElements":
		e.SelectElements(cmd.IDs)
	case "toggleSelection":
		e.ToggleSelection(cmd.ID)
	case "clearSelection":
		e.ClearSelection()
	case "setZoom":
		e.SetZoom(cmd.Zoom)
	case "toggleGrid":
		e.ToggleGrid()
	case "toggleSnapToGrid":
		e.ToggleSnapToGrid()
	case "setGridSize":
		e.SetGridSize(cmd.GridSize)
	case "setActivePanel":
		e.SetActivePanel(cmd.Panel)

	case "toggleDrawingMode":
		e.ToggleDrawingMode()
	case "setDrawingTool":
		e.SetDrawingTool(cmd.Tool)
	case "setDrawingColor":
		e.SetDrawingColor(cmd.Color)
	case "setDrawingWidth":
		e.SetDrawingWidth(cmd.Width)
	case "addStroke":
		_, err = e.AddStroke(cmd.Points)
	case "clearDrawings":
		e.ClearDrawings()
	case "commitDrawing":
		res.Element, err = e.CommitDrawing()

	case "undo":
		if e.Undo() {
			res.Count = 1
		}
	case "redo":
		if e.Redo() {
			res.Count = 1
		}
	default:
		return res, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Op)
	}
	return res, err
}
