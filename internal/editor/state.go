package editor

import (
	"math"

	"docbuilder/internal/domain"
)

// State is a read-only view of the whole session, suitable for encoding.
type State struct {
	Template           *domain.Template     `json:"currentTemplate"`
	SelectedElementID  string               `json:"selectedElementId,omitempty"`
	SelectedElementIDs []string             `json:"selectedElementIds"`
	Zoom               int                  `json:"zoom"`
	ShowGrid           bool                 `json:"showGrid"`
	SnapToGrid         bool                 `json:"snapToGrid"`
	GridSize           int                  `json:"gridSize"`
	ActivePanel        string               `json:"activePanel"`
	IsDrawingMode      bool                 `json:"isDrawingMode"`
	DrawingTool        string               `json:"currentDrawingTool"`
	DrawingColor       string               `json:"drawingColor"`
	DrawingWidth       float64              `json:"drawingWidth"`
	DrawingPaths       []domain.DrawingPath `json:"drawingPaths"`
	CopiedStyle        *domain.ElementStyle `json:"copiedStyle,omitempty"`
	ClipboardCount     int                  `json:"clipboardCount"`
	CanUndo            bool                 `json:"canUndo"`
	CanRedo            bool                 `json:"canRedo"`
}

// State returns a snapshot of the session.
func (e *Editor) State() State {
	s := State{
		Template:           e.template.Clone(),
		SelectedElementID:  e.selectedID,
		SelectedElementIDs: e.SelectedElementIDs(),
		Zoom:               e.zoom,
		ShowGrid:           e.showGrid,
		SnapToGrid:         e.snapToGrid,
		GridSize:           e.gridSize,
		ActivePanel:        e.activePanel,
		IsDrawingMode:      e.drawingMode,
		DrawingTool:        e.drawingTool,
		DrawingColor:       e.drawingColor,
		DrawingWidth:       e.drawingWidth,
		DrawingPaths:       append([]domain.DrawingPath{}, e.drawingPaths...),
		ClipboardCount:     len(e.clipboard),
		CanUndo:            e.CanUndo(),
		CanRedo:            e.CanRedo(),
	}
	if e.copiedStyle != nil {
		cs := e.copiedStyle.Clone()
		s.CopiedStyle = &cs
	}
	return s
}

// SelectElement makes id the only selected element. An empty id clears the
// selection.
func (e *Editor) SelectElement(id string) {
	if id == "" {
		e.clearSelection()
		return
	}
	e.selectedID = id
	e.selectedIDs = []string{id}
}

// SelectElements replaces the multi-selection. The last id becomes primary.
func (e *Editor) SelectElements(ids []string) {
	e.selectedIDs = append([]string(nil), ids...)
	e.selectedID = ""
	if len(ids) > 0 {
		e.selectedID = ids[len(ids)-1]
	}
}

// ToggleSelection adds id to or removes it from the multi-selection.
func (e *Editor) ToggleSelection(id string) {
	for i, sel := range e.selectedIDs {
		if sel == id {
			e.selectedIDs = append(e.selectedIDs[:i:i], e.selectedIDs[i+1:]...)
			e.selectedID = ""
			if n := len(e.selectedIDs); n > 0 {
				e.selectedID = e.selectedIDs[n-1]
			}
			return
		}
	}
	e.selectedIDs = append(e.selectedIDs, id)
	e.selectedID = id
}

func (e *Editor) ClearSelection() {
	e.clearSelection()
}

func (e *Editor) clearSelection() {
	e.selectedID = ""
	e.selectedIDs = nil
}

// dropFromSelection removes ids that no longer exist after a deletion.
func (e *Editor) dropFromSelection(removed map[string]bool) {
	if removed[e.selectedID] {
		e.selectedID = ""
	}
	kept := e.selectedIDs[:0:0]
	for _, id := range e.selectedIDs {
		if !removed[id] {
			kept = append(kept, id)
		}
	}
	e.selectedIDs = kept
}

// SetZoom sets the zoom percentage, clamped to [MinZoom, MaxZoom].
func (e *Editor) SetZoom(zoom int) {
	if zoom < MinZoom {
		zoom = MinZoom
	}
	if zoom > MaxZoom {
		zoom = MaxZoom
	}
	e.zoom = zoom
}

func (e *Editor) Zoom() int { return e.zoom }

func (e *Editor) ToggleGrid() { e.showGrid = !e.showGrid }

func (e *Editor) ToggleSnapToGrid() { e.snapToGrid = !e.snapToGrid }

// SetGridSize sets the grid pitch; values below one are raised to one.
func (e *Editor) SetGridSize(size int) {
	if size < 1 {
		size = 1
	}
	e.gridSize = size
}

func (e *Editor) SetActivePanel(panel string) {
	e.activePanel = panel
}

// snap rounds v to the nearest grid line when snapping is on.
func (e *Editor) snap(v float64) float64 {
	if !e.snapToGrid || e.gridSize <= 0 {
		return v
	}
	g := float64(e.gridSize)
	return math.Round(v/g) * g
}
