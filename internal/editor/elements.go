package editor

import (
	"fmt"
	"strings"

	"docbuilder/internal/domain"
)

// Direction moves an element or page one slot in its list.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ReplaceScope selects which elements FindAndReplace scans.
type ReplaceScope int

const (
	// ScopeTemplateElements scans only the template's top-level element
	// list. Elements stored on pages are not visited.
	ScopeTemplateElements ReplaceScope = iota
	// ScopeAllPages scans the top-level list and every page.
	ScopeAllPages
)

// duplicateOffset shifts copies so they do not sit exactly on the source.
const duplicateOffset = 20

func indexOf(elements []domain.DocumentElement, id string) int {
	for i := range elements {
		if elements[i].ID == id {
			return i
		}
	}
	return -1
}

// AddElement appends a new element of the given type to the current page
// (or the top-level list of a legacy template) and selects it. A nil
// position places the element at the default spot.
func (e *Editor) AddElement(typ domain.ElementType, pos *domain.Position) (domain.DocumentElement, error) {
	p := defaultPosition
	if pos != nil {
		p = *pos
	}
	el, ok := newElement(typ, p, e.now())
	if !ok {
		return domain.DocumentElement{}, fmt.Errorf("%w: %s", domain.ErrUnknownElementType, typ)
	}
	el.ID = e.newID()

	err := e.apply(func(t *domain.Template) error {
		elements := t.ActiveElements()
		*elements = append(*elements, el.Clone())
		return nil
	})
	if err != nil {
		return domain.DocumentElement{}, err
	}
	e.SelectElement(el.ID)
	return el, nil
}

// UpdateElement shallow-merges patch into the element with the given id.
// An unknown id leaves the template unchanged but still records an undo step.
func (e *Editor) UpdateElement(id string, patch ElementPatch) error {
	return e.apply(func(t *domain.Template) error {
		el, ok := t.FindElement(id)
		if !ok {
			return nil
		}
		updated, err := applyPatch(*el, patch)
		if err != nil {
			return err
		}
		*el = updated
		return nil
	})
}

// MoveElement places an element at pos, snapped to the grid when snapping is
// on. It is refused while drawing mode is active.
func (e *Editor) MoveElement(id string, pos domain.Position) error {
	if e.drawingMode {
		return domain.ErrDrawingModeActive
	}
	return e.apply(func(t *domain.Template) error {
		el, ok := t.FindElement(id)
		if !ok || el.Locked {
			return nil
		}
		el.Position = &domain.Position{X: e.snap(pos.X), Y: e.snap(pos.Y)}
		return nil
	})
}

// ResizeElement sets an element's size. Dimensions below one are raised to
// one. It is refused while drawing mode is active.
func (e *Editor) ResizeElement(id string, size domain.Size) error {
	if e.drawingMode {
		return domain.ErrDrawingModeActive
	}
	if size.Width < 1 {
		size.Width = 1
	}
	if size.Height < 1 {
		size.Height = 1
	}
	return e.apply(func(t *domain.Template) error {
		el, ok := t.FindElement(id)
		if !ok || el.Locked {
			return nil
		}
		el.Size = &size
		return nil
	})
}

// DeleteElement removes an element and drops it from the selection.
func (e *Editor) DeleteElement(id string) error {
	return e.deleteElements(map[string]bool{id: true})
}

// DeleteSelected removes every selected element.
func (e *Editor) DeleteSelected() error {
	ids := e.selectionSet()
	if len(ids) == 0 {
		return nil
	}
	return e.deleteElements(ids)
}

func (e *Editor) deleteElements(ids map[string]bool) error {
	err := e.apply(func(t *domain.Template) error {
		t.Elements = removeElements(t.Elements, ids)
		for p := range t.Pages {
			t.Pages[p].Elements = removeElements(t.Pages[p].Elements, ids)
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.dropFromSelection(ids)
	return nil
}

func removeElements(elements []domain.DocumentElement, ids map[string]bool) []domain.DocumentElement {
	if elements == nil {
		return nil
	}
	kept := make([]domain.DocumentElement, 0, len(elements))
	for _, el := range elements {
		if !ids[el.ID] {
			kept = append(kept, el)
		}
	}
	return kept
}

// DuplicateElement copies an element onto the same list with a new id and
// a +20,+20 offset, then selects the copy. It returns nil, recording no
// history, when the id is unknown.
func (e *Editor) DuplicateElement(id string) (*domain.DocumentElement, error) {
	if e.template == nil {
		return nil, domain.ErrNoTemplate
	}
	if _, ok := e.template.FindElement(id); !ok {
		return nil, nil
	}
	var dup domain.DocumentElement
	err := e.apply(func(t *domain.Template) error {
		list := listContaining(t, id)
		src := (*list)[indexOf(*list, id)]
		dup = src.Clone()
		dup.ID = e.newID()
		if src.Position != nil {
			dup.Position = &domain.Position{X: src.Position.X + duplicateOffset, Y: src.Position.Y + duplicateOffset}
		}
		*list = append(*list, dup.Clone())
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.SelectElement(dup.ID)
	return &dup, nil
}

// listContaining returns the element list holding id, or nil.
func listContaining(t *domain.Template, id string) *[]domain.DocumentElement {
	if indexOf(t.Elements, id) >= 0 {
		return &t.Elements
	}
	for p := range t.Pages {
		if indexOf(t.Pages[p].Elements, id) >= 0 {
			return &t.Pages[p].Elements
		}
	}
	return nil
}

// ReorderElement swaps an element with its neighbour. Up moves it one step
// toward the top of the stack (later in the list). Moving past either end
// is a no-op.
func (e *Editor) ReorderElement(id string, dir Direction) error {
	return e.apply(func(t *domain.Template) error {
		list := listContaining(t, id)
		if list == nil {
			return nil
		}
		i := indexOf(*list, id)
		j := i - 1
		if dir == DirectionUp {
			j = i + 1
		}
		if j < 0 || j >= len(*list) {
			return nil
		}
		(*list)[i], (*list)[j] = (*list)[j], (*list)[i]
		return nil
	})
}

// BringToFront moves an element to the end of its list.
func (e *Editor) BringToFront(id string) error {
	return e.apply(func(t *domain.Template) error {
		list := listContaining(t, id)
		if list == nil {
			return nil
		}
		i := indexOf(*list, id)
		el := (*list)[i]
		rest := append((*list)[:i:i], (*list)[i+1:]...)
		*list = append(rest, el)
		return nil
	})
}

// SendToBack moves an element to the start of its list.
func (e *Editor) SendToBack(id string) error {
	return e.apply(func(t *domain.Template) error {
		list := listContaining(t, id)
		if list == nil {
			return nil
		}
		i := indexOf(*list, id)
		el := (*list)[i]
		rest := append((*list)[:i:i], (*list)[i+1:]...)
		*list = append([]domain.DocumentElement{el}, rest...)
		return nil
	})
}

func (e *Editor) ToggleVisibility(id string) error {
	return e.apply(func(t *domain.Template) error {
		if el, ok := t.FindElement(id); ok {
			el.Visible = !el.Visible
		}
		return nil
	})
}

func (e *Editor) ToggleLock(id string) error {
	return e.apply(func(t *domain.Template) error {
		if el, ok := t.FindElement(id); ok {
			el.Locked = !el.Locked
		}
		return nil
	})
}

// ResizeTable changes a table's dimensions, keeping cells in the overlap.
func (e *Editor) ResizeTable(id string, rows, cols int) error {
	return e.apply(func(t *domain.Template) error {
		el, ok := t.FindElement(id)
		if !ok {
			return nil
		}
		if el.TableData == nil {
			return domain.ErrNotATable
		}
		resized := el.TableData.Resize(rows, cols)
		el.TableData = &resized
		return nil
	})
}

// UpdateTableCell sets the text of one cell.
func (e *Editor) UpdateTableCell(id string, row, col int, content string) error {
	return e.apply(func(t *domain.Template) error {
		el, ok := t.FindElement(id)
		if !ok {
			return nil
		}
		if el.TableData == nil {
			return domain.ErrNotATable
		}
		td := el.TableData
		if row < 0 || row >= len(td.Cells) || col < 0 || col >= len(td.Cells[row]) {
			return domain.ErrCellOutOfRange
		}
		td.Cells[row][col].Content = content
		return nil
	})
}

// FindAndReplace replaces every occurrence of find in the content of the
// elements in scope and returns how many elements changed. An empty find,
// or no match, changes nothing and records no history.
func (e *Editor) FindAndReplace(find, replace string, scope ReplaceScope) (int, error) {
	if find == "" {
		return 0, nil
	}
	if e.template == nil {
		return 0, domain.ErrNoTemplate
	}
	if countMatches(e.template, find, scope) == 0 {
		e.notify(domain.NoticeSuccess, "Replaced 0 occurrence(s)")
		return 0, nil
	}

	touched := 0
	err := e.apply(func(t *domain.Template) error {
		touched = replaceIn(t.Elements, find, replace)
		if scope == ScopeAllPages {
			for p := range t.Pages {
				touched += replaceIn(t.Pages[p].Elements, find, replace)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	e.notify(domain.NoticeSuccess, fmt.Sprintf("Replaced %d occurrence(s)", touched))
	return touched, nil
}

func countMatches(t *domain.Template, find string, scope ReplaceScope) int {
	n := 0
	lists := [][]domain.DocumentElement{t.Elements}
	if scope == ScopeAllPages {
		for _, p := range t.Pages {
			lists = append(lists, p.Elements)
		}
	}
	for _, list := range lists {
		for _, el := range list {
			if strings.Contains(el.Content, find) {
				n++
			}
		}
	}
	return n
}

func replaceIn(elements []domain.DocumentElement, find, replace string) int {
	n := 0
	for i := range elements {
		if strings.Contains(elements[i].Content, find) {
			elements[i].Content = strings.ReplaceAll(elements[i].Content, find, replace)
			n++
		}
	}
	return n
}

func (e *Editor) selectionSet() map[string]bool {
	ids := make(map[string]bool, len(e.selectedIDs)+1)
	for _, id := range e.selectedIDs {
		ids[id] = true
	}
	if e.selectedID != "" {
		ids[e.selectedID] = true
	}
	return ids
}
