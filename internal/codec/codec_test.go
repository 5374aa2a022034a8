package codec

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"docbuilder/internal/domain"
)

// MockLogger discards log output
type MockLogger struct{}

func (m *MockLogger) Info(msg string, keysAndValues ...interface{})             {}
func (m *MockLogger) Error(msg string, err error, keysAndValues ...interface{}) {}
func (m *MockLogger) Debug(msg string, keysAndValues ...interface{})            {}
func (m *MockLogger) Warn(msg string, keysAndValues ...interface{})             {}

var testNow = time.Date(2024, 5, 4, 10, 30, 0, 0, time.UTC)

func newTestCodec() *Codec {
	seq := 0
	return New(&MockLogger{},
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("imported-%d", seq)
		}),
	)
}

func sampleTemplate() *domain.Template {
	return &domain.Template{
		ID:          "tpl-1",
		Name:        "Invoice",
		Description: "Monthly invoice",
		Elements: []domain.DocumentElement{
			{
				ID:       "el-1",
				Type:     domain.ElementText,
				Position: &domain.Position{X: 10, Y: 20},
				Size:     &domain.Size{Width: 200, Height: 40},
				Content:  "Dear {{ customer }}, total {{amount}}",
				Visible:  true,
			},
			{
				ID:           "el-2",
				Type:         domain.ElementDynamicField,
				Position:     &domain.Position{X: 10, Y: 80},
				Size:         &domain.Size{Width: 150, Height: 30},
				DynamicField: "invoice_no",
				Content:      "{{invoice_no}}",
				Visible:      true,
			},
		},
		PageSize:    domain.PageSizeLetter,
		Orientation: domain.OrientationLandscape,
		CreatedAt:   testNow.Add(-time.Hour),
		UpdatedAt:   testNow.Add(-time.Hour),
	}
}

func elementsJSON(t *testing.T, els []domain.DocumentElement) string {
	t.Helper()
	b, err := json.Marshal(els)
	if err != nil {
		t.Fatalf("marshal elements: %v", err)
	}
	return string(b)
}

// Test the exported document shape
func TestExportForPDFMaker(t *testing.T) {
	c := newTestCodec()
	doc := c.ExportForPDFMaker(sampleTemplate(), ExportOptions{})

	if doc.SchemaVersion != "1.0" || doc.Type != TypeTemplate {
		t.Errorf("header = %s/%s", doc.SchemaVersion, doc.Type)
	}
	if doc.ExportedAt != "2024-05-04T10:30:00.000Z" {
		t.Errorf("ExportedAt = %q", doc.ExportedAt)
	}
	body := doc.Template
	if body.Metadata.Category != "Custom" || body.Metadata.Version != "1.0.0" {
		t.Errorf("metadata = %+v", body.Metadata)
	}
	if body.Settings.Margins != (Margins{Top: 20, Right: 20, Bottom: 20, Left: 20}) {
		t.Errorf("margins = %+v", body.Settings.Margins)
	}
	if body.Settings.PageSize != domain.PageSizeLetter || body.Settings.Orientation != domain.OrientationLandscape {
		t.Errorf("settings = %+v", body.Settings)
	}
	if len(body.DynamicFields) != 3 {
		t.Errorf("dynamic fields = %+v", body.DynamicFields)
	}
}

// Test the export options
func TestExportForPDFMaker_Options(t *testing.T) {
	c := newTestCodec()
	tpl := sampleTemplate()
	tpl.SourceApp = "wm-compliance"

	doc := c.ExportForPDFMaker(tpl, ExportOptions{})
	if doc.Template.Metadata.Category != "wm-compliance" {
		t.Errorf("category = %q, want the source app", doc.Template.Metadata.Category)
	}

	doc = c.ExportForPDFMaker(tpl, ExportOptions{SkipMetadata: true, SkipDynamicFields: true, SchemaVersion: "0.9"})
	if doc.SchemaVersion != "0.9" {
		t.Errorf("SchemaVersion = %q", doc.SchemaVersion)
	}
	if doc.Template.Metadata.Category != "" || doc.Template.Metadata.Version != "1.0.0" {
		t.Errorf("metadata = %+v", doc.Template.Metadata)
	}
	if doc.Template.DynamicFields == nil || len(doc.Template.DynamicFields) != 0 {
		t.Errorf("dynamic fields should be an empty list, got %v", doc.Template.DynamicFields)
	}
}

// Test that repeated placeholders yield one definition each
func TestExtractDynamicFields(t *testing.T) {
	tests := []struct {
		name     string
		elements []domain.DocumentElement
		want     []string
	}{
		{
			name: "Repeated names",
			elements: []domain.DocumentElement{
				{ID: "1", Content: "{{a}} {{a}}"},
				{ID: "2", Content: "{{a}} and {{b}}"},
			},
			want: []string{"a", "b"},
		},
		{
			name: "Dynamic field element first",
			elements: []domain.DocumentElement{
				{ID: "1", Type: domain.ElementDynamicField, DynamicField: "z", Content: "{{y}}"},
			},
			want: []string{"z", "y"},
		},
		{
			name: "Whitespace trimmed",
			elements: []domain.DocumentElement{
				{ID: "1", Content: "{{  name }} {{name}}"},
			},
			want: []string{"name"},
		},
		{
			name:     "No fields",
			elements: []domain.DocumentElement{{ID: "1", Content: "plain {text}"}},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractDynamicFields(tt.elements)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d fields %+v, want %v", len(got), got, tt.want)
			}
			for i, f := range got {
				if f.Name != tt.want[i] || f.Type != "string" || f.Required {
					t.Errorf("field %d = %+v, want name %q", i, f, tt.want[i])
				}
			}
		})
	}
}

// Test that export followed by import keeps elements and page setup
func TestRoundTrip(t *testing.T) {
	c := newTestCodec()
	src := sampleTemplate()

	text, err := SerializeTemplate(c.ExportForPDFMaker(src, ExportOptions{}), false)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	res := c.ImportJSON([]byte(text))
	if !res.Success {
		t.Fatalf("import failed: %v", res.Errors)
	}

	got := res.Template
	if elementsJSON(t, got.Elements) != elementsJSON(t, src.Elements) {
		t.Errorf("elements differ after round trip")
	}
	if got.PageSize != src.PageSize || got.Orientation != src.Orientation {
		t.Errorf("page setup = %s/%s", got.PageSize, got.Orientation)
	}
	if got.ID == "" || got.ID == src.ID {
		t.Errorf("imported id = %q, want a fresh id", got.ID)
	}
	if got.SourceTemplateID != src.ID || got.SourceApp != "Custom" {
		t.Errorf("provenance = %q/%q", got.SourceTemplateID, got.SourceApp)
	}
	if !got.CreatedAt.Equal(testNow) {
		t.Errorf("CreatedAt = %v", got.CreatedAt)
	}
}

// Test that multi-page templates come back with their pages
func TestRoundTrip_MultiPage(t *testing.T) {
	c := newTestCodec()
	src := sampleTemplate()
	src.Pages = []domain.Page{
		{ID: "p1", Name: "Page 1", Elements: []domain.DocumentElement{
			{ID: "p1-el", Type: domain.ElementText, Position: &domain.Position{}, Size: &domain.Size{Width: 1, Height: 1}, Content: "{{page_field}}", Visible: true},
		}},
		{ID: "p2", Name: "Page 2", Elements: []domain.DocumentElement{}},
	}

	doc := c.ExportForPDFMaker(src, ExportOptions{})
	if len(doc.Template.Elements) != 3 {
		t.Errorf("flattened elements = %d, want 3", len(doc.Template.Elements))
	}
	if len(doc.Template.DynamicFields) != 4 {
		t.Errorf("dynamic fields = %+v", doc.Template.DynamicFields)
	}

	res := c.ImportFromPDFMaker(doc)
	if !res.Success {
		t.Fatalf("import failed: %v", res.Errors)
	}
	got := res.Template
	if len(got.Pages) != 2 || len(got.Pages[0].Elements) != 1 {
		t.Fatalf("pages = %+v", got.Pages)
	}
	if elementsJSON(t, got.Elements) != elementsJSON(t, src.Elements) {
		t.Error("top-level elements should not repeat page elements")
	}
}

// Test that import collects every structural error
func TestImportFromPDFMaker_Errors(t *testing.T) {
	c := newTestCodec()

	tests := []struct {
		name     string
		doc      PDFMakerTemplate
		errors   []string
		warnings int
	}{
		{
			name:   "Missing template",
			doc:    PDFMakerTemplate{SchemaVersion: "1.0", Type: TypeTemplate},
			errors: []string{"Missing template data"},
		},
		{
			name:     "Missing name and elements",
			doc:      PDFMakerTemplate{Type: TypeTemplate, Template: &TemplateBody{}},
			errors:   []string{"Template name is required", "Template elements must be an array"},
			warnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.ImportFromPDFMaker(tt.doc)
			if res.Success {
				t.Fatal("expected failure")
			}
			if strings.Join(res.Errors, "|") != strings.Join(tt.errors, "|") {
				t.Errorf("errors = %v, want %v", res.Errors, tt.errors)
			}
			if len(res.Warnings) != tt.warnings {
				t.Errorf("warnings = %v", res.Warnings)
			}
		})
	}
}

// Test that a missing schema version only warns
func TestImportFromPDFMaker_MissingVersionWarns(t *testing.T) {
	c := newTestCodec()
	res := c.ImportFromPDFMaker(PDFMakerTemplate{
		Type:     TypeTemplate,
		Template: &TemplateBody{Name: "Legacy", Elements: []domain.DocumentElement{}},
	})
	if !res.Success {
		t.Fatalf("import failed: %v", res.Errors)
	}
	if len(res.Warnings) != 1 || res.Warnings[0] != "Missing schema version, assuming compatibility" {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if res.Template.PageSize != domain.PageSizeA4 || res.Template.Orientation != domain.OrientationPortrait {
		t.Errorf("defaults = %s/%s", res.Template.PageSize, res.Template.Orientation)
	}
	if res.Template.SourceApp != "Imported" {
		t.Errorf("SourceApp = %q", res.Template.SourceApp)
	}
}

// Test the raw JSON dispatch paths
func TestImportJSON(t *testing.T) {
	c := newTestCodec()

	tests := []struct {
		name    string
		input   string
		success bool
		errors  []string
		check   func(t *testing.T, tpl *domain.Template)
	}{
		{
			name:   "Empty bundle",
			input:  `{"type":"pdfmaker-bundle","templates":[]}`,
			errors: []string{"Bundle is empty"},
		},
		{
			name:    "Bundle imports the first template",
			input:   `{"type":"pdfmaker-bundle","templates":[{"schemaVersion":"1.0","type":"pdfmaker-template","template":{"id":"x","name":"First","elements":[]}},{"template":{"name":"Second","elements":[]}}]}`,
			success: true,
			check: func(t *testing.T, tpl *domain.Template) {
				if tpl.Name != "First" {
					t.Errorf("Name = %q", tpl.Name)
				}
			},
		},
		{
			name:    "Bare template keeps its id",
			input:   `{"id":"local-1","name":"Bare","elements":[{"id":"e","type":"text","position":{"x":0,"y":0},"size":{"width":1,"height":1}}]}`,
			success: true,
			check: func(t *testing.T, tpl *domain.Template) {
				if tpl.ID != "local-1" || tpl.PageSize != domain.PageSizeA4 || !tpl.Elements[0].Visible {
					t.Errorf("template = %+v", tpl)
				}
			},
		},
		{
			name:    "Bare template without id gets one",
			input:   `{"name":"Bare","elements":[]}`,
			success: true,
			check: func(t *testing.T, tpl *domain.Template) {
				if !strings.HasPrefix(tpl.ID, "imported-") {
					t.Errorf("ID = %q", tpl.ID)
				}
			},
		},
		{
			name:   "Bare template failing validation",
			input:  `{"name":"Bad","elements":[{"type":"text"}],"pageSize":"Tabloid"}`,
			errors: []string{"Element at index 0 is missing an ID", "Element at index 0 is missing position", "Element at index 0 is missing size", "Invalid page size: Tabloid"},
		},
		{
			name:   "Bare template with non-array elements",
			input:  `{"name":"Bad","elements":{"a":1}}`,
			errors: []string{"Template elements must be an array"},
		},
		{
			name:   "PDFMaker template with non-array elements and no name",
			input:  `{"type":"pdfmaker-template","template":{"elements":"nope"}}`,
			errors: []string{"Template name is required", "Template elements must be an array"},
		},
		{
			name:   "Bundle whose first template has non-array elements",
			input:  `{"type":"pdfmaker-bundle","templates":[{"schemaVersion":"1.0","type":"pdfmaker-template","template":{"name":"X","elements":{"a":1}}}]}`,
			errors: []string{"Template elements must be an array"},
		},
		{
			name:   "Bare template with a mistyped element field",
			input:  `{"name":"Bad","elements":[{"id":"e1","type":"text","position":"oops","size":{"width":10,"height":10}}]}`,
			errors: []string{"Element at index 0 is missing position"},
		},
		{
			name:   "Unknown shape",
			input:  `{"hello":"world"}`,
			errors: []string{"Unrecognized template format"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.ImportJSON([]byte(tt.input))
			if res.Success != tt.success {
				t.Fatalf("Success = %v, errors %v", res.Success, res.Errors)
			}
			if tt.errors != nil && strings.Join(res.Errors, "|") != strings.Join(tt.errors, "|") {
				t.Errorf("errors = %v, want %v", res.Errors, tt.errors)
			}
			if tt.check != nil {
				tt.check(t, res.Template)
			}
		})
	}
}

// Test that malformed JSON is reported, not raised
func TestImportJSON_InvalidJSON(t *testing.T) {
	c := newTestCodec()
	res := c.ImportJSON([]byte(`{"name":`))
	if res.Success || len(res.Errors) != 1 || !strings.HasPrefix(res.Errors[0], "Invalid JSON: ") {
		t.Errorf("result = %+v", res)
	}
}

// Test importing every template of a bundle
func TestImportBundle(t *testing.T) {
	c := newTestCodec()
	bundle := c.ExportBundle([]*domain.Template{sampleTemplate(), sampleTemplate()})
	bundle.Templates[1].Template.Name = ""
	text, err := SerializeBundle(bundle, true)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	res := c.ImportBundle([]byte(text))
	if !res.Success || len(res.Templates) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Errors) != 1 || res.Errors[0] != "Template 2: Template name is required" {
		t.Errorf("errors = %v", res.Errors)
	}

	tests := []struct {
		input string
		want  string
	}{
		{input: `{"type":"pdfmaker-template"}`, want: "Not a valid bundle file"},
		{input: `not json`, want: "Parse error: "},
	}
	for _, tt := range tests {
		res := c.ImportBundle([]byte(tt.input))
		if res.Success || len(res.Errors) != 1 || !strings.HasPrefix(res.Errors[0], tt.want) {
			t.Errorf("ImportBundle(%q) = %+v", tt.input, res)
		}
	}
}

// Test that bundle entries report shape problems instead of decode errors
func TestImportBundle_ShapeErrors(t *testing.T) {
	c := newTestCodec()
	input := `{"type":"pdfmaker-bundle","templates":[` +
		`{"schemaVersion":"1.0","type":"pdfmaker-template","template":{"name":"Ok","elements":[]}},` +
		`{"schemaVersion":"1.0","type":"pdfmaker-template","template":{"elements":"nope"}}]}`

	res := c.ImportBundle([]byte(input))
	if !res.Success || len(res.Templates) != 1 {
		t.Fatalf("result = %+v", res)
	}
	want := "Template 2: Template name is required, Template elements must be an array"
	if len(res.Errors) != 1 || res.Errors[0] != want {
		t.Errorf("errors = %v, want %q", res.Errors, want)
	}
}

// Test manifest and bundle headers
func TestManifestAndBundle(t *testing.T) {
	c := newTestCodec()
	a := sampleTemplate()
	b := sampleTemplate()
	b.ID, b.SourceApp = "tpl-2", "crm"

	m := c.CreateTemplateManifest([]*domain.Template{a, b})
	if m.Type != TypeManifest || m.Count != 2 || m.Templates[1].Metadata.Category != "crm" {
		t.Errorf("manifest = %+v", m)
	}

	text, err := SerializeManifest(m, true)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if strings.Contains(text, "elements") {
		t.Error("manifest must not embed elements")
	}

	bundle := c.ExportBundle([]*domain.Template{a})
	if bundle.Type != TypeBundle || len(bundle.Templates) != 1 || bundle.Manifest.Count != 1 {
		t.Errorf("bundle = %+v", bundle)
	}
}

// Test serialization formatting
func TestSerializeTemplate(t *testing.T) {
	c := newTestCodec()
	tpl := sampleTemplate()
	tpl.Elements[0].Content = "<b>&</b>"
	doc := c.ExportForPDFMaker(tpl, ExportOptions{})

	pretty, err := SerializeTemplate(doc, false)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !strings.Contains(pretty, "\n  \"type\": \"pdfmaker-template\"") {
		t.Error("pretty output should use two-space indentation")
	}
	if strings.HasSuffix(pretty, "\n") {
		t.Error("output should not end with a newline")
	}
	if !strings.Contains(pretty, "<b>&</b>") {
		t.Error("HTML characters should not be escaped")
	}

	mini, _ := SerializeTemplate(doc, true)
	if strings.Contains(mini, "\n") {
		t.Error("minified output should be a single line")
	}
}

// Test filename sanitising
func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Monthly Invoice (v2)", want: "monthly-invoice-v2"},
		{in: "--Hello__World--", want: "hello-world"},
		{in: strings.Repeat("a", 60), want: strings.Repeat("a", 50)},
		{in: "???", want: ""},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
