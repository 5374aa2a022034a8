package pdf

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"docbuilder/internal/domain"
)

type MockLogger struct {
	warnings []string
}

func (m *MockLogger) Info(msg string, keysAndValues ...interface{})             {}
func (m *MockLogger) Error(msg string, err error, keysAndValues ...interface{}) {}
func (m *MockLogger) Debug(msg string, keysAndValues ...interface{})            {}
func (m *MockLogger) Warn(msg string, keysAndValues ...interface{}) {
	m.warnings = append(m.warnings, msg)
}

func element(typ domain.ElementType, x, y, w, h float64) domain.DocumentElement {
	return domain.DocumentElement{
		ID:       string(typ),
		Type:     typ,
		Position: &domain.Position{X: x, Y: y},
		Size:     &domain.Size{Width: w, Height: h},
		Visible:  true,
	}
}

func pngDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func sampleTemplate(t *testing.T) *domain.Template {
	text := element(domain.ElementText, 40, 40, 300, 40)
	text.Content = "Hello {{customer}}"
	text.Style.FontWeight = "bold"
	text.Style.TextAlign = "center"

	shape := element(domain.ElementShape, 40, 100, 100, 60)
	shape.ShapeType = "circle"
	shape.Style.Fill = "#3366ff"

	table := element(domain.ElementTable, 40, 180, 300, 90)
	td := domain.NewTableData(3, 2)
	td.HeaderRow = true
	td.Cells[0][0].Content = "Item"
	td.Cells[1][1].Content = "{{amount}}"
	table.TableData = &td

	qr := element(domain.ElementBarcode, 400, 40, 80, 80)
	qr.BarcodeType = "qr"
	qr.BarcodeValue = "https://example.com/{{customer}}"

	img := element(domain.ElementImage, 400, 140, 80, 40)
	img.ImageURL = pngDataURL(t)
	img.ObjectFit = "contain"

	hidden := element(domain.ElementText, 0, 0, 10, 10)
	hidden.Content = "hidden"
	hidden.Visible = false

	return &domain.Template{
		ID:          "tpl-1",
		Name:        "Invoice",
		PageSize:    domain.PageSizeA4,
		Orientation: domain.OrientationPortrait,
		Elements:    []domain.DocumentElement{text, shape, table, qr, img, hidden},
		DocumentProperties: &domain.DocumentProperties{
			Title:    "Invoice",
			Author:   "Billing",
			Keywords: []string{"invoice", "billing"},
		},
	}
}

// A legacy template renders to a PDF document
func TestRender_SinglePage(t *testing.T) {
	logger := &MockLogger{}
	r := NewRenderer(logger)
	r.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }

	var buf bytes.Buffer
	err := r.Render(&buf, sampleTemplate(t), map[string]string{"customer": "Acme", "amount": "42.00"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header")
	}
	if len(logger.warnings) != 0 {
		t.Errorf("unexpected warnings: %v", logger.warnings)
	}
	if r.ContentType() != "application/pdf" {
		t.Errorf("ContentType = %q", r.ContentType())
	}
}

// Each page of a multi-page template becomes a PDF page
func TestRender_MultiPage(t *testing.T) {
	pageNumber := element(domain.ElementPageNumber, 20, 800, 100, 20)
	divider := element(domain.ElementDivider, 20, 400, 500, 4)
	divider.Style.StrokeStyle = "dashed"

	tpl := &domain.Template{
		ID:          "tpl-2",
		Name:        "Deck",
		PageSize:    domain.PageSizeLetter,
		Orientation: domain.OrientationLandscape,
		Pages: []domain.Page{
			{ID: "p1", Name: "Page 1", Elements: []domain.DocumentElement{pageNumber}, BackgroundColor: "#f0f0f0"},
			{ID: "p2", Name: "Page 2", Elements: []domain.DocumentElement{divider}, Rotation: 90},
		},
	}

	var buf bytes.Buffer
	if err := NewRenderer(&MockLogger{}).Render(&buf, tpl, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := bytes.Count(buf.Bytes(), []byte("/Type /Page\n")); got != 2 {
		t.Errorf("page objects = %d, want 2", got)
	}
}

// A password-protected template still renders
func TestRender_Protected(t *testing.T) {
	tpl := sampleTemplate(t)
	tpl.DocumentProperties.Password = "secret"
	tpl.DocumentProperties.Permissions = &domain.Permissions{Printing: "none", Copying: false}

	var buf bytes.Buffer
	if err := NewRenderer(&MockLogger{}).Render(&buf, tpl, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("/Encrypt")) {
		t.Errorf("protected document has no /Encrypt entry")
	}
}

// An unencodable barcode falls back to text and logs a warning
func TestRender_InvalidBarcode(t *testing.T) {
	bc := element(domain.ElementBarcode, 10, 10, 120, 40)
	bc.BarcodeType = "ean13"
	bc.BarcodeValue = "not-digits"
	tpl := &domain.Template{ID: "t", Name: "t", PageSize: domain.PageSizeA4, Elements: []domain.DocumentElement{bc}}

	logger := &MockLogger{}
	var buf bytes.Buffer
	if err := NewRenderer(logger).Render(&buf, tpl, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(logger.warnings) != 1 {
		t.Errorf("warnings = %v, want one", logger.warnings)
	}
}

func TestRender_NilTemplate(t *testing.T) {
	if err := NewRenderer(&MockLogger{}).Render(&bytes.Buffer{}, nil, nil); err != domain.ErrNoTemplate {
		t.Errorf("err = %v, want ErrNoTemplate", err)
	}
}

func TestSubstitute(t *testing.T) {
	values := map[string]string{"name": "Ada", "order.id": "7"}
	tests := []struct {
		in   string
		want string
	}{
		{"Hello {{name}}", "Hello Ada"},
		{"Order {{ order.id }}", "Order 7"},
		{"{{missing}} stays", "{{missing}} stays"},
		{"no placeholders", "no placeholders"},
	}
	for _, tt := range tests {
		if got := Substitute(tt.in, values); got != tt.want {
			t.Errorf("Substitute(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want rgb
		ok   bool
	}{
		{"#fff", rgb{255, 255, 255, 1}, true},
		{"#3366ff", rgb{51, 102, 255, 1}, true},
		{"rgb(10, 20, 30)", rgb{10, 20, 30, 1}, true},
		{"rgba(10,20,30,0.5)", rgb{10, 20, 30, 0.5}, true},
		{"black", rgb{0, 0, 0, 1}, true},
		{"transparent", rgb{}, false},
		{"#12", rgb{}, false},
		{"", rgb{}, false},
	}
	for _, tt := range tests {
		got, ok := parseColor(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("parseColor(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPermissionFlags(t *testing.T) {
	all := permissionFlags(nil)
	if all != 4|8|16|32 {
		t.Errorf("nil permissions = %d", all)
	}
	got := permissionFlags(&domain.Permissions{Printing: "highResolution", Copying: true})
	if got != 4|16 {
		t.Errorf("flags = %d, want print|copy", got)
	}
}

func TestFit(t *testing.T) {
	x, y, w, h := fit("contain", 200, 100, 0, 0, 100, 100)
	if x != 0 || y != 25 || w != 100 || h != 50 {
		t.Errorf("contain = %v %v %v %v", x, y, w, h)
	}
	_, _, w, h = fit("fill", 200, 100, 0, 0, 100, 100)
	if w != 100 || h != 100 {
		t.Errorf("fill = %v %v", w, h)
	}
}
