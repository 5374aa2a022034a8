package editor

import (
	"sort"

	"docbuilder/internal/domain"
)

// Alignment targets for AlignSelected.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
	AlignTop    Alignment = "top"
	AlignMiddle Alignment = "middle"
	AlignBottom Alignment = "bottom"
)

// Distribution axes for DistributeSelected.
type Distribution string

const (
	DistributeHorizontal Distribution = "horizontal"
	DistributeVertical   Distribution = "vertical"
)

// CopySelected puts deep copies of the selected elements on the clipboard
// and returns how many were copied.
func (e *Editor) CopySelected() int {
	if e.template == nil {
		return 0
	}
	ids := e.selectionSet()
	var copied []domain.DocumentElement
	for _, el := range e.template.AllElements() {
		if ids[el.ID] {
			copied = append(copied, el.Clone())
		}
	}
	if len(copied) > 0 {
		e.clipboard = copied
	}
	return len(copied)
}

// PasteElements adds copies of the clipboard to the current page with fresh
// ids and a +20,+20 offset, then selects them.
func (e *Editor) PasteElements() ([]domain.DocumentElement, error) {
	if len(e.clipboard) == 0 {
		return nil, domain.ErrClipboardEmpty
	}
	pasted := make([]domain.DocumentElement, len(e.clipboard))
	for i, src := range e.clipboard {
		el := src.Clone()
		el.ID = e.newID()
		if el.Position != nil {
			el.Position = &domain.Position{X: el.Position.X + duplicateOffset, Y: el.Position.Y + duplicateOffset}
		}
		pasted[i] = el
	}
	err := e.apply(func(t *domain.Template) error {
		list := t.ActiveElements()
		for _, el := range pasted {
			*list = append(*list, el.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(pasted))
	for i, el := range pasted {
		ids[i] = el.ID
	}
	e.SelectElements(ids)
	return pasted, nil
}

// selectedBoxes returns the selected elements that have a position and size.
func selectedBoxes(t *domain.Template, ids map[string]bool) []*domain.DocumentElement {
	var out []*domain.DocumentElement
	collect := func(list []domain.DocumentElement) {
		for i := range list {
			el := &list[i]
			if ids[el.ID] && el.Position != nil && el.Size != nil && !el.Locked {
				out = append(out, el)
			}
		}
	}
	collect(t.Elements)
	for p := range t.Pages {
		collect(t.Pages[p].Elements)
	}
	return out
}

// AlignSelected lines up the selected elements along one edge or centre
// line of their combined bounding box. Fewer than two elements is a no-op.
func (e *Editor) AlignSelected(a Alignment) error {
	ids := e.selectionSet()
	if len(ids) < 2 {
		return nil
	}
	return e.apply(func(t *domain.Template) error {
		els := selectedBoxes(t, ids)
		if len(els) < 2 {
			return nil
		}
		minX, minY := els[0].Position.X, els[0].Position.Y
		maxX, maxY := minX+els[0].Size.Width, minY+els[0].Size.Height
		for _, el := range els[1:] {
			minX = min(minX, el.Position.X)
			minY = min(minY, el.Position.Y)
			maxX = max(maxX, el.Position.X+el.Size.Width)
			maxY = max(maxY, el.Position.Y+el.Size.Height)
		}
		for _, el := range els {
			pos := *el.Position
			switch a {
			case AlignLeft:
				pos.X = minX
			case AlignCenter:
				pos.X = (minX+maxX)/2 - el.Size.Width/2
			case AlignRight:
				pos.X = maxX - el.Size.Width
			case AlignTop:
				pos.Y = minY
			case AlignMiddle:
				pos.Y = (minY+maxY)/2 - el.Size.Height/2
			case AlignBottom:
				pos.Y = maxY - el.Size.Height
			}
			el.Position = &pos
		}
		return nil
	})
}

// DistributeSelected spaces the selected elements evenly between the first
// and last along the given axis. Fewer than three elements is a no-op.
func (e *Editor) DistributeSelected(d Distribution) error {
	ids := e.selectionSet()
	if len(ids) < 3 {
		return nil
	}
	return e.apply(func(t *domain.Template) error {
		els := selectedBoxes(t, ids)
		if len(els) < 3 {
			return nil
		}
		start := func(el *domain.DocumentElement) float64 { return el.Position.X }
		extent := func(el *domain.DocumentElement) float64 { return el.Size.Width }
		if d == DistributeVertical {
			start = func(el *domain.DocumentElement) float64 { return el.Position.Y }
			extent = func(el *domain.DocumentElement) float64 { return el.Size.Height }
		}
		sort.SliceStable(els, func(i, j int) bool { return start(els[i]) < start(els[j]) })

		first, last := els[0], els[len(els)-1]
		span := start(last) + extent(last) - start(first)
		total := 0.0
		for _, el := range els {
			total += extent(el)
		}
		gap := (span - total) / float64(len(els)-1)

		cursor := start(first) + extent(first) + gap
		for _, el := range els[1 : len(els)-1] {
			pos := *el.Position
			if d == DistributeVertical {
				pos.Y = cursor
			} else {
				pos.X = cursor
			}
			el.Position = &pos
			cursor += extent(el) + gap
		}
		return nil
	})
}
