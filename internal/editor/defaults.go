package editor

import (
	"time"

	"docbuilder/internal/domain"
)

// typeDefaults describes how a freshly added element of one type looks.
type typeDefaults struct {
	size    domain.Size
	style   func() domain.ElementStyle
	content func() string
	payload func(el *domain.DocumentElement, now time.Time)
}

var defaultPosition = domain.Position{X: 100, Y: 100}

// elementDefaults is indexed once at startup; creation never branches on
// type outside this table.
var elementDefaults = buildElementDefaults()

func buildElementDefaults() map[domain.ElementType]typeDefaults {
	sizes := map[domain.ElementType]domain.Size{
		domain.ElementText:         {Width: 200, Height: 40},
		domain.ElementImage:        {Width: 200, Height: 150},
		domain.ElementTable:        {Width: 400, Height: 150},
		domain.ElementShape:        {Width: 100, Height: 100},
		domain.ElementDivider:      {Width: 500, Height: 2},
		domain.ElementHeader:       {Width: 500, Height: 60},
		domain.ElementFooter:       {Width: 500, Height: 40},
		domain.ElementSignature:    {Width: 200, Height: 80},
		domain.ElementDynamicField: {Width: 150, Height: 30},
		domain.ElementBarcode:      {Width: 150, Height: 80},
		domain.ElementIcon:         {Width: 48, Height: 48},
		domain.ElementList:         {Width: 250, Height: 100},
		domain.ElementPageNumber:   {Width: 100, Height: 30},
		domain.ElementWatermark:    {Width: 300, Height: 100},
		domain.ElementDate:         {Width: 150, Height: 30},

		domain.ElementFormText:      {Width: 200, Height: 36},
		domain.ElementFormCheckbox:  {Width: 24, Height: 24},
		domain.ElementFormRadio:     {Width: 24, Height: 24},
		domain.ElementFormDropdown:  {Width: 200, Height: 36},
		domain.ElementFormSignature: {Width: 250, Height: 80},

		domain.ElementAnnotationComment:   {Width: 200, Height: 100},
		domain.ElementAnnotationNote:      {Width: 40, Height: 40},
		domain.ElementAnnotationStamp:     {Width: 150, Height: 50},
		domain.ElementAnnotationHighlight: {Width: 200, Height: 24},

		domain.ElementDrawing: {Width: 300, Height: 200},
	}

	contents := map[domain.ElementType]string{
		domain.ElementText:              "Enter text here...",
		domain.ElementHeader:            "Header Title",
		domain.ElementFooter:            "Footer text",
		domain.ElementDynamicField:      "{{field_name}}",
		domain.ElementFormCheckbox:      "Checkbox option",
		domain.ElementFormRadio:         "Radio option",
		domain.ElementFormDropdown:      "Select an option",
		domain.ElementAnnotationComment: "Add your comment here...",
		domain.ElementAnnotationStamp:   "APPROVED",
	}

	formFieldTypes := map[domain.ElementType]string{
		domain.ElementFormText:      "text",
		domain.ElementFormCheckbox:  "checkbox",
		domain.ElementFormRadio:     "radio",
		domain.ElementFormDropdown:  "dropdown",
		domain.ElementFormSignature: "signature",
	}

	payloads := map[domain.ElementType]func(*domain.DocumentElement, time.Time){
		domain.ElementTable: func(el *domain.DocumentElement, _ time.Time) {
			td := domain.NewTableData(3, 3)
			el.TableData = &td
		},
		domain.ElementShape: func(el *domain.DocumentElement, _ time.Time) {
			el.ShapeType = "rectangle"
			el.ShapeFilled = domain.Bool(true)
		},
		domain.ElementImage: func(el *domain.DocumentElement, _ time.Time) {
			f := domain.DefaultImageFilters()
			el.ImageFilters = &f
			el.ObjectFit = "contain"
		},
		domain.ElementList: func(el *domain.DocumentElement, _ time.Time) {
			el.ListType = "bullet"
			el.ListItems = []string{"Item 1", "Item 2", "Item 3"}
		},
		domain.ElementBarcode: func(el *domain.DocumentElement, _ time.Time) {
			el.BarcodeType = "qr"
		},
		domain.ElementDynamicField: func(el *domain.DocumentElement, _ time.Time) {
			el.DynamicField = "field_name"
		},
		domain.ElementWatermark: func(el *domain.DocumentElement, _ time.Time) {
			el.WatermarkPattern = "single"
		},
		domain.ElementDrawing: func(el *domain.DocumentElement, _ time.Time) {
			el.DrawingPaths = []domain.DrawingPath{}
		},
	}
	for typ, fieldType := range formFieldTypes {
		fieldType := fieldType
		payloads[typ] = func(el *domain.DocumentElement, _ time.Time) {
			el.FormField = &domain.FormField{
				FieldType:   fieldType,
				Placeholder: "Enter value...",
				Required:    false,
			}
		}
	}
	for _, typ := range domain.ElementTypes {
		if !typ.IsAnnotation() {
			continue
		}
		stamp := ""
		if typ == domain.ElementAnnotationStamp {
			stamp = "approved"
		}
		payloads[typ] = func(el *domain.DocumentElement, now time.Time) {
			el.Annotation = &domain.Annotation{
				Author:    "User",
				CreatedAt: now,
				Status:    "open",
				StampType: stamp,
			}
		}
	}

	table := make(map[domain.ElementType]typeDefaults, len(domain.ElementTypes))
	for _, typ := range domain.ElementTypes {
		typ := typ
		content := contents[typ]
		table[typ] = typeDefaults{
			size:    sizes[typ],
			style:   func() domain.ElementStyle { return defaultStyle(typ) },
			content: func() string { return content },
			payload: payloads[typ],
		}
	}
	return table
}

func defaultStyle(typ domain.ElementType) domain.ElementStyle {
	s := domain.ElementStyle{
		FontSize:        domain.Float64(14),
		FontWeight:      "normal",
		Color:           "#1a1a1a",
		BackgroundColor: "transparent",
		TextAlign:       "left",
		Padding:         domain.Uniform(8),
	}
	if typ == domain.ElementHeader {
		s.FontSize = domain.Float64(24)
		s.FontWeight = "bold"
	}
	if typ == domain.ElementShape {
		s.BackgroundColor = "#e5e7eb"
	}
	return s
}

// newElement builds an element of the given type with every default filled
// in. The caller assigns the id.
func newElement(typ domain.ElementType, pos domain.Position, now time.Time) (domain.DocumentElement, bool) {
	def, ok := elementDefaults[typ]
	if !ok {
		return domain.DocumentElement{}, false
	}
	size := def.size
	el := domain.DocumentElement{
		Type:     typ,
		Position: &pos,
		Size:     &size,
		Style:    def.style(),
		Content:  def.content(),
		Visible:  true,
		Locked:   false,
	}
	if def.payload != nil {
		def.payload(&el, now)
	}
	return el, true
}
