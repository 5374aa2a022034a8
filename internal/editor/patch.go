package editor

import (
	"bytes"
	"encoding/json"
	"fmt"

	"docbuilder/internal/domain"
)

// ElementPatch is a partial element keyed by JSON field name. Applying it
// replaces each named top-level field and leaves the rest untouched.
type ElementPatch map[string]json.RawMessage

// Patch builds an ElementPatch from Go values.
func Patch(fields map[string]interface{}) (ElementPatch, error) {
	p := make(ElementPatch, len(fields))
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode patch field %q: %w", k, err)
		}
		p[k] = raw
	}
	return p, nil
}

// applyPatch shallow-merges p into el. The id is immutable; type, position
// and size are required, so null or mistyped entries for them are ignored.
func applyPatch(el domain.DocumentElement, p ElementPatch) (domain.DocumentElement, error) {
	base, err := json.Marshal(el)
	if err != nil {
		return el, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return el, err
	}
	for k, v := range p {
		if !patchable(k, v) {
			continue
		}
		if string(v) == "null" {
			delete(fields, k)
			continue
		}
		fields[k] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return el, err
	}
	var out domain.DocumentElement
	if err := json.Unmarshal(merged, &out); err != nil {
		return el, fmt.Errorf("apply patch: %w", err)
	}
	out.ID = el.ID
	out.Style.Normalize()
	return out, nil
}

func patchable(key string, value json.RawMessage) bool {
	switch key {
	case "id":
		return false
	case "type":
		var t domain.ElementType
		return json.Unmarshal(value, &t) == nil && t.IsValid()
	case "position":
		var pos domain.Position
		return isObject(value) && json.Unmarshal(value, &pos) == nil
	case "size":
		var size domain.Size
		return isObject(value) && json.Unmarshal(value, &size) == nil
	}
	return true
}

func isObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}

// mergeStyle overlays every attribute set in preset onto base.
func mergeStyle(base, preset domain.ElementStyle) (domain.ElementStyle, error) {
	baseRaw, err := json.Marshal(base)
	if err != nil {
		return base, err
	}
	presetRaw, err := json.Marshal(preset)
	if err != nil {
		return base, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(baseRaw, &fields); err != nil {
		return base, err
	}
	overlay := map[string]json.RawMessage{}
	if err := json.Unmarshal(presetRaw, &overlay); err != nil {
		return base, err
	}
	for k, v := range overlay {
		fields[k] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return base, err
	}
	var out domain.ElementStyle
	if err := json.Unmarshal(merged, &out); err != nil {
		return base, err
	}
	out.Normalize()
	return out, nil
}
