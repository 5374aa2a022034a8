package editor

import (
	"errors"

	"docbuilder/internal/domain"
)

// CopyStyle captures an element's style for a later PasteStyle.
func (e *Editor) CopyStyle(id string) error {
	if e.template == nil {
		return domain.ErrNoTemplate
	}
	el, ok := e.template.FindElement(id)
	if !ok {
		return domain.ErrElementNotFound
	}
	s := el.Style.Clone()
	e.copiedStyle = &s
	e.notify(domain.NoticeSuccess, "Style copied")
	return nil
}

// PasteStyle replaces the target's whole style with the copied one. Unlike
// UpdateElement and ApplyStylePreset nothing of the old style survives.
func (e *Editor) PasteStyle(id string) error {
	if e.copiedStyle == nil {
		e.notify(domain.NoticeError, "No style to paste")
		return domain.ErrNoCopiedStyle
	}
	style := e.copiedStyle.Clone()
	err := e.apply(func(t *domain.Template) error {
		if el, ok := t.FindElement(id); ok {
			el.Style = style.Clone()
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.notify(domain.NoticeSuccess, "Style applied")
	return nil
}

// ApplyStylePreset merges the attributes set in preset into the selected
// element's style.
func (e *Editor) ApplyStylePreset(preset domain.ElementStyle) error {
	if e.template == nil {
		return domain.ErrNoTemplate
	}
	if e.selectedID == "" {
		return domain.ErrNothingSelected
	}
	if _, ok := e.template.FindElement(e.selectedID); !ok {
		return domain.ErrNothingSelected
	}
	id := e.selectedID
	err := e.apply(func(t *domain.Template) error {
		el, _ := t.FindElement(id)
		merged, err := mergeStyle(el.Style, preset)
		if err != nil {
			return err
		}
		el.Style = merged
		return nil
	})
	if err != nil {
		return err
	}
	e.notify(domain.NoticeSuccess, "Preset applied")
	return nil
}

// SetGradient installs a gradient on an element. It must carry at least
// two stops; offsets and opacities are clamped into range.
func (e *Editor) SetGradient(id string, g domain.Gradient) error {
	if len(g.Stops) < domain.MinGradientStops {
		return domain.ErrMinimumGradientStops
	}
	return e.apply(func(t *domain.Template) error {
		el, ok := t.FindElement(id)
		if !ok {
			return nil
		}
		gc := g.Clone()
		el.Style.Gradient = &gc
		el.Style.Normalize()
		return nil
	})
}

// ClearGradient removes an element's gradient entirely.
func (e *Editor) ClearGradient(id string) error {
	return e.apply(func(t *domain.Template) error {
		if el, ok := t.FindElement(id); ok {
			el.Style.Gradient = nil
		}
		return nil
	})
}

// AddGradientStop appends a stop to an element's gradient.
func (e *Editor) AddGradientStop(id string, stop domain.GradientStop) error {
	return e.editGradient(id, func(g *domain.Gradient) error {
		stop.Normalize()
		g.Stops = append(g.Stops, stop)
		return nil
	})
}

// UpdateGradientStop replaces the stop at index.
func (e *Editor) UpdateGradientStop(id string, index int, stop domain.GradientStop) error {
	return e.editGradient(id, func(g *domain.Gradient) error {
		if index < 0 || index >= len(g.Stops) {
			return nil
		}
		stop.Normalize()
		g.Stops[index] = stop
		return nil
	})
}

// RemoveGradientStop deletes the stop at index. It is refused when the
// gradient would be left with fewer than two stops.
func (e *Editor) RemoveGradientStop(id string, index int) error {
	err := e.editGradient(id, func(g *domain.Gradient) error {
		if len(g.Stops) <= domain.MinGradientStops {
			return domain.ErrMinimumGradientStops
		}
		if index < 0 || index >= len(g.Stops) {
			return nil
		}
		g.Stops = append(g.Stops[:index:index], g.Stops[index+1:]...)
		return nil
	})
	if errors.Is(err, domain.ErrMinimumGradientStops) {
		e.notify(domain.NoticeError, "A gradient needs at least two color stops")
	}
	return err
}

func (e *Editor) editGradient(id string, fn func(g *domain.Gradient) error) error {
	if e.template == nil {
		return domain.ErrNoTemplate
	}
	el, ok := e.template.FindElement(id)
	if !ok {
		return nil
	}
	if el.Style.Gradient == nil {
		return domain.ErrNoGradient
	}
	return e.apply(func(t *domain.Template) error {
		target, _ := t.FindElement(id)
		return fn(target.Style.Gradient)
	})
}
