package editor

import (
	"fmt"

	"docbuilder/internal/domain"
)

var pageRotations = []int{0, 90, 180, 270}

func pageIndex(t *domain.Template, id string) int {
	for i := range t.Pages {
		if t.Pages[i].ID == id {
			return i
		}
	}
	return -1
}

// AddPage appends an empty page and makes it current.
func (e *Editor) AddPage() (domain.Page, error) {
	var page domain.Page
	err := e.apply(func(t *domain.Template) error {
		page = e.newPage(fmt.Sprintf("Page %d", len(t.Pages)+1))
		t.Pages = append(t.Pages, page.Clone())
		t.CurrentPageIndex = len(t.Pages) - 1
		return nil
	})
	if err != nil {
		return domain.Page{}, err
	}
	e.clearSelection()
	e.notify(domain.NoticeSuccess, "Page added")
	return page, nil
}

// DeletePage removes a page. It is refused when only one page remains; the
// template and history are then left untouched.
func (e *Editor) DeletePage(id string) error {
	if e.template == nil {
		return domain.ErrNoTemplate
	}
	if len(e.template.Pages) <= 1 {
		e.notify(domain.NoticeError, "Cannot delete the last page")
		return domain.ErrLastPage
	}
	removed := map[string]bool{}
	err := e.apply(func(t *domain.Template) error {
		idx := pageIndex(t, id)
		if idx < 0 {
			return nil
		}
		for _, el := range t.Pages[idx].Elements {
			removed[el.ID] = true
		}
		t.Pages = append(t.Pages[:idx:idx], t.Pages[idx+1:]...)
		if t.CurrentPageIndex > len(t.Pages)-1 {
			t.CurrentPageIndex = len(t.Pages) - 1
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.dropFromSelection(removed)
	return nil
}

// DuplicatePage deep-copies a page with fresh element ids, inserts the copy
// right after the source and makes it current.
func (e *Editor) DuplicatePage(id string) (*domain.Page, error) {
	if e.template == nil {
		return nil, domain.ErrNoTemplate
	}
	if pageIndex(e.template, id) < 0 {
		return nil, domain.ErrPageNotFound
	}
	var dup domain.Page
	err := e.apply(func(t *domain.Template) error {
		idx := pageIndex(t, id)
		dup = t.Pages[idx].Clone()
		dup.ID = e.newID()
		dup.Name = t.Pages[idx].Name + " (Copy)"
		for i := range dup.Elements {
			dup.Elements[i].ID = e.newID()
		}
		pages := make([]domain.Page, 0, len(t.Pages)+1)
		pages = append(pages, t.Pages[:idx+1]...)
		pages = append(pages, dup.Clone())
		pages = append(pages, t.Pages[idx+1:]...)
		t.Pages = pages
		t.CurrentPageIndex = idx + 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(domain.NoticeSuccess, "Page duplicated")
	return &dup, nil
}

// ReorderPage swaps a page with its neighbour. Up moves it one slot toward
// the first page. The moved page becomes current.
func (e *Editor) ReorderPage(id string, dir Direction) error {
	return e.apply(func(t *domain.Template) error {
		i := pageIndex(t, id)
		if i < 0 {
			return nil
		}
		j := i + 1
		if dir == DirectionUp {
			j = i - 1
		}
		if j < 0 || j >= len(t.Pages) {
			return nil
		}
		t.Pages[i], t.Pages[j] = t.Pages[j], t.Pages[i]
		t.CurrentPageIndex = j
		return nil
	})
}

func (e *Editor) RenamePage(id, name string) error {
	return e.apply(func(t *domain.Template) error {
		if i := pageIndex(t, id); i >= 0 {
			t.Pages[i].Name = name
		}
		return nil
	})
}

// RotatePage advances a page's rotation 0 -> 90 -> 180 -> 270 -> 0.
func (e *Editor) RotatePage(id string) error {
	return e.apply(func(t *domain.Template) error {
		i := pageIndex(t, id)
		if i < 0 {
			return nil
		}
		next := 0
		for k, r := range pageRotations {
			if r == t.Pages[i].Rotation {
				next = pageRotations[(k+1)%len(pageRotations)]
				break
			}
		}
		t.Pages[i].Rotation = next
		return nil
	})
}

// SetPageBackground sets a page's background color.
func (e *Editor) SetPageBackground(id, color string) error {
	return e.apply(func(t *domain.Template) error {
		if i := pageIndex(t, id); i >= 0 {
			t.Pages[i].BackgroundColor = color
		}
		return nil
	})
}

// SelectPage switches the current page and clears the element selection.
// It is a view change and records no history.
func (e *Editor) SelectPage(id string) error {
	if e.template == nil {
		return domain.ErrNoTemplate
	}
	idx := pageIndex(e.template, id)
	if idx < 0 {
		return domain.ErrPageNotFound
	}
	e.replace(func(t *domain.Template) bool {
		t.CurrentPageIndex = idx
		return true
	})
	e.clearSelection()
	return nil
}
