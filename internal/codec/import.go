package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"docbuilder/internal/domain"
)

const missingVersionWarning = "Missing schema version, assuming compatibility"

// ImportFromPDFMaker converts an interchange document into a new local
// template. Every structural problem is collected before giving up. The
// imported template always gets a fresh id; the producer's id is kept as
// SourceTemplateID.
func (c *Codec) ImportFromPDFMaker(doc PDFMakerTemplate) ImportResult {
	var warnings []string
	if doc.SchemaVersion == "" {
		warnings = append(warnings, missingVersionWarning)
	}
	if doc.Template == nil {
		return failed("Missing template data")
	}

	body := doc.Template
	var errs []string
	if body.Name == "" {
		errs = append(errs, "Template name is required")
	}
	if body.Elements == nil {
		errs = append(errs, "Template elements must be an array")
	}
	if len(errs) > 0 {
		return ImportResult{Success: false, Errors: errs, Warnings: warnings}
	}

	now := c.now()
	t := &domain.Template{
		ID:               c.newID(),
		Name:             body.Name,
		Description:      body.Description,
		Elements:         domain.CloneElements(body.Elements),
		PageSize:         domain.PageSizeA4,
		Orientation:      domain.OrientationPortrait,
		LayoutType:       domain.LayoutDocument,
		CreatedAt:        now,
		UpdatedAt:        now,
		SourceApp:        importedSource,
		SourceTemplateID: body.ID,
	}
	if s := body.Settings; s != nil {
		if s.PageSize != "" {
			t.PageSize = s.PageSize
		}
		if s.Orientation != "" {
			t.Orientation = s.Orientation
		}
	}
	if m := body.Metadata; m != nil && m.Category != "" {
		t.SourceApp = m.Category
	}
	if len(body.Pages) > 0 {
		t.Pages, t.Elements = splitPages(body.Pages, body.Elements)
	}

	c.logger.Debug("Template imported", "template_id", t.ID, "source_id", body.ID, "elements", len(t.AllElements()))
	return ImportResult{Success: true, Template: t, Warnings: warnings}
}

// splitPages rebuilds a multi-page template from its flattened export:
// elements already present on a page are not repeated at the top level.
func splitPages(pages []domain.Page, flat []domain.DocumentElement) ([]domain.Page, []domain.DocumentElement) {
	out := make([]domain.Page, len(pages))
	onPage := map[string]bool{}
	for i, p := range pages {
		out[i] = p.Clone()
		if out[i].Elements == nil {
			out[i].Elements = []domain.DocumentElement{}
		}
		for _, el := range p.Elements {
			onPage[el.ID] = true
		}
	}
	legacy := []domain.DocumentElement{}
	for _, el := range flat {
		if !onPage[el.ID] {
			legacy = append(legacy, el.Clone())
		}
	}
	return out, legacy
}

// ImportJSON imports one template from raw JSON. It accepts a PDFMaker
// template, a bundle (whose first template is imported) or a bare template
// object with at least a name and elements.
func (c *Codec) ImportJSON(data []byte) ImportResult {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return failed("Invalid JSON: " + err.Error())
	}

	switch stringField(fields, "type") {
	case TypeTemplate:
		return c.importDocument(data)
	case TypeBundle:
		if raw, ok := fields["templates"]; ok && !isNull(raw) {
			var docs []json.RawMessage
			if err := json.Unmarshal(raw, &docs); err != nil {
				return failed("Invalid JSON: " + err.Error())
			}
			if len(docs) == 0 {
				return failed("Bundle is empty")
			}
			return c.importDocument(docs[0])
		}
	}

	if stringField(fields, "name") != "" && truthy(fields["elements"]) {
		return c.importBare(fields)
	}
	return failed("Unrecognized template format")
}

// importDocument checks the name and elements of an interchange document
// before decoding it, so shape problems are reported together instead of
// failing the typed decode.
func (c *Codec) importDocument(data []byte) ImportResult {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return failed("Invalid JSON: " + err.Error())
	}
	if body, ok := fields["template"]; ok && !isNull(body) {
		var bodyFields map[string]json.RawMessage
		if err := json.Unmarshal(body, &bodyFields); err != nil {
			return failed("Invalid JSON: " + err.Error())
		}
		var errs []string
		if stringField(bodyFields, "name") == "" {
			errs = append(errs, "Template name is required")
		}
		if !isArray(bodyFields["elements"]) {
			errs = append(errs, "Template elements must be an array")
		}
		if len(errs) > 0 {
			res := ImportResult{Success: false, Errors: errs}
			if stringField(fields, "schemaVersion") == "" {
				res.Warnings = []string{missingVersionWarning}
			}
			return res
		}
	}

	var doc PDFMakerTemplate
	if err := json.Unmarshal(data, &doc); err != nil {
		return failed("Invalid JSON: " + err.Error())
	}
	return c.ImportFromPDFMaker(doc)
}

// importBare handles a loosely shaped template object, such as a local
// save or a payload from another application.
func (c *Codec) importBare(fields map[string]json.RawMessage) ImportResult {
	elementsIsArray := isArray(fields["elements"])
	if elementsIsArray {
		elements, err := dropMistypedFields(fields["elements"])
		if err != nil {
			return failed("Invalid JSON: " + err.Error())
		}
		fields["elements"] = elements
	} else {
		delete(fields, "elements")
	}
	normalised, err := json.Marshal(fields)
	if err != nil {
		return failed("Invalid JSON: " + err.Error())
	}
	var t domain.Template
	if err := json.Unmarshal(normalised, &t); err != nil {
		return failed("Invalid JSON: " + err.Error())
	}

	now := c.now()
	if t.ID == "" {
		t.ID = c.newID()
	}
	if !elementsIsArray {
		t.Elements = nil
	}
	if t.PageSize == "" {
		t.PageSize = domain.PageSizeA4
	}
	if t.Orientation == "" {
		t.Orientation = domain.OrientationPortrait
	}
	if t.LayoutType == "" {
		t.LayoutType = domain.LayoutDocument
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	if v := domain.ValidateTemplate(&t); !v.Valid {
		c.logger.Warn("Bare template rejected", "errors", len(v.Errors))
		return ImportResult{Success: false, Errors: v.Errors}
	}
	return ImportResult{Success: true, Template: &t}
}

// ImportBundle imports every template of a bundle. Templates that fail are
// reported by their 1-based position; the import succeeds if at least one
// template was read.
func (c *Codec) ImportBundle(data []byte) BundleResult {
	res := BundleResult{Templates: []*domain.Template{}, Errors: []string{}}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		res.Errors = append(res.Errors, "Parse error: "+err.Error())
		return res
	}
	if stringField(fields, "type") != TypeBundle || !isArray(fields["templates"]) {
		res.Errors = append(res.Errors, "Not a valid bundle file")
		return res
	}
	var docs []json.RawMessage
	if err := json.Unmarshal(fields["templates"], &docs); err != nil {
		res.Errors = append(res.Errors, "Parse error: "+err.Error())
		return res
	}

	for i, raw := range docs {
		r := c.importDocument(raw)
		if r.Success {
			res.Templates = append(res.Templates, r.Template)
			continue
		}
		res.Errors = append(res.Errors, fmt.Sprintf("Template %d: %s", i+1, strings.Join(r.Errors, ", ")))
	}
	res.Success = len(res.Templates) > 0
	return res
}

// dropMistypedFields removes element fields whose value does not fit the
// element schema, so validation reports them as missing instead of the whole
// import failing on one bad value.
func dropMistypedFields(raw json.RawMessage) (json.RawMessage, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, err
	}
	for i, el := range elements {
		var whole domain.DocumentElement
		if json.Unmarshal(el, &whole) == nil {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(el, &fields); err != nil {
			return nil, fmt.Errorf("element at index %d is not an object", i)
		}
		for key, value := range fields {
			single, _ := json.Marshal(map[string]json.RawMessage{key: value})
			var one domain.DocumentElement
			if json.Unmarshal(single, &one) != nil {
				delete(fields, key)
			}
		}
		cleaned, err := json.Marshal(fields)
		if err != nil {
			return nil, err
		}
		elements[i] = cleaned
	}
	return json.Marshal(elements)
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isArray(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '['
}

// truthy reports whether a raw value is present and not null, false, zero
// or an empty string.
func truthy(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}
