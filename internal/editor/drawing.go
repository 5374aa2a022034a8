package editor

import (
	"math"

	"docbuilder/internal/domain"
)

// ToggleDrawingMode switches between element editing and freehand stroke
// capture. The element selection is cleared either way.
func (e *Editor) ToggleDrawingMode() {
	e.drawingMode = !e.drawingMode
	e.clearSelection()
}

func (e *Editor) IsDrawingMode() bool { return e.drawingMode }

func (e *Editor) SetDrawingTool(tool string) { e.drawingTool = tool }

func (e *Editor) SetDrawingColor(color string) { e.drawingColor = color }

// SetDrawingWidth sets the stroke width; non-positive widths are raised to one.
func (e *Editor) SetDrawingWidth(width float64) {
	if width <= 0 {
		width = 1
	}
	e.drawingWidth = width
}

// AddStroke records a freehand stroke with the current tool settings. It is
// refused unless drawing mode is on.
func (e *Editor) AddStroke(points []domain.Point) (domain.DrawingPath, error) {
	if !e.drawingMode {
		return domain.DrawingPath{}, domain.ErrDrawingModeInactive
	}
	path := domain.DrawingPath{
		ID:     e.newID(),
		Tool:   e.drawingTool,
		Color:  e.drawingColor,
		Width:  e.drawingWidth,
		Points: append([]domain.Point{}, points...),
	}
	e.drawingPaths = append(e.drawingPaths, path)
	return path, nil
}

// ClearDrawings discards captured strokes that have not been committed.
func (e *Editor) ClearDrawings() {
	e.drawingPaths = nil
}

// CommitDrawing turns the captured strokes into one drawing element on the
// current page. The element is placed at the strokes' bounding box and its
// points are stored relative to that box. Committing is undoable.
func (e *Editor) CommitDrawing() (*domain.DocumentElement, error) {
	if len(e.drawingPaths) == 0 {
		return nil, domain.ErrNoStrokes
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range e.drawingPaths {
		for _, pt := range p.Points {
			minX = math.Min(minX, pt.X)
			minY = math.Min(minY, pt.Y)
			maxX = math.Max(maxX, pt.X)
			maxY = math.Max(maxY, pt.Y)
		}
	}
	if math.IsInf(minX, 1) {
		minX, minY, maxX, maxY = 0, 0, 0, 0
	}

	el, _ := newElement(domain.ElementDrawing, domain.Position{X: minX, Y: minY}, e.now())
	el.ID = e.newID()
	el.Size = &domain.Size{Width: math.Max(maxX-minX, 1), Height: math.Max(maxY-minY, 1)}
	el.DrawingPaths = make([]domain.DrawingPath, len(e.drawingPaths))
	for i, p := range e.drawingPaths {
		rel := p
		rel.Points = make([]domain.Point, len(p.Points))
		for k, pt := range p.Points {
			rel.Points[k] = domain.Point{X: pt.X - minX, Y: pt.Y - minY}
		}
		el.DrawingPaths[i] = rel
	}

	err := e.apply(func(t *domain.Template) error {
		list := t.ActiveElements()
		*list = append(*list, el.Clone())
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.drawingPaths = nil
	return &el, nil
}
