package pdf

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"docbuilder/internal/domain"

	"github.com/jung-kurt/gofpdf"
)

const (
	defaultFontSize   = 12
	defaultLineHeight = 1.2
)

type pageContext struct {
	doc    *gofpdf.Fpdf
	tr     func(string) string
	values map[string]string
	width  float64
	height float64
	logger domain.Logger
	now    func() time.Time
}

func box(el domain.DocumentElement) (x, y, w, h float64) {
	if el.Position != nil {
		x, y = el.Position.X, el.Position.Y
	}
	w, h = 100, 30
	if el.Size != nil {
		w, h = math.Max(el.Size.Width, 1), math.Max(el.Size.Height, 1)
	}
	return x, y, w, h
}

func (pc *pageContext) element(el domain.DocumentElement) {
	x, y, w, h := box(el)
	doc := pc.doc

	if el.Style.Opacity != nil && *el.Style.Opacity < 1 {
		doc.SetAlpha(clampUnit(*el.Style.Opacity), "Normal")
		defer doc.SetAlpha(1, "Normal")
	}
	if el.Rotation != 0 {
		doc.TransformBegin()
		doc.TransformRotate(-el.Rotation, x+w/2, y+h/2)
		defer doc.TransformEnd()
	}

	switch el.Type {
	case domain.ElementShape:
		pc.shape(el, x, y, w, h)
		return
	case domain.ElementDivider:
		pc.divider(el, x, y, w, h)
		return
	case domain.ElementDrawing:
		pc.drawing(el, x, y)
		return
	case domain.ElementWatermark:
		pc.watermark(el, x, y, w, h)
		return
	case domain.ElementAnnotationComment, domain.ElementAnnotationNote:
		return
	case domain.ElementAnnotationHighlight:
		pc.highlight(el, x, y, w, h)
		return
	}

	pc.background(el.Style, x, y, w, h)
	switch el.Type {
	case domain.ElementText, domain.ElementHeader, domain.ElementFooter:
		pc.textBox(el.Style, pc.substitute(el.Content), x, y, w, h)
	case domain.ElementDynamicField:
		pc.textBox(el.Style, pc.dynamicValue(el), x, y, w, h)
	case domain.ElementPageNumber:
		content := el.Content
		if content == "" {
			content = "Page {{page}} of {{pages}}"
		}
		pc.textBox(el.Style, pc.substitute(content), x, y, w, h)
	case domain.ElementDate:
		content := pc.substitute(el.Content)
		if content == "" {
			content = pc.now().Format("January 2, 2006")
		}
		pc.textBox(el.Style, content, x, y, w, h)
	case domain.ElementList:
		pc.list(el, x, y, w, h)
	case domain.ElementTable:
		pc.table(el, x, y, w, h)
	case domain.ElementImage:
		pc.image(el, x, y, w, h)
	case domain.ElementBarcode:
		pc.barcode(el, x, y, w, h)
	case domain.ElementSignature, domain.ElementFormSignature:
		pc.signature(el, x, y, w, h)
	case domain.ElementFormText, domain.ElementFormDropdown:
		pc.inputField(el, x, y, w, h)
	case domain.ElementFormCheckbox, domain.ElementFormRadio:
		pc.choiceField(el, x, y, w, h)
	case domain.ElementAnnotationStamp:
		pc.stamp(el, x, y, w, h)
	default:
		pc.logger.Debug("Element type not printed", "type", string(el.Type), "id", el.ID)
	}
	pc.border(el.Style, x, y, w, h)
}

func (pc *pageContext) substitute(text string) string {
	return Substitute(text, pc.values)
}

func (pc *pageContext) dynamicValue(el domain.DocumentElement) string {
	if v, ok := pc.values[el.DynamicField]; ok && el.DynamicField != "" {
		return v
	}
	return pc.substitute(el.Content)
}

// setFont selects the core font closest to the style.
func (pc *pageContext) setFont(st domain.ElementStyle) float64 {
	family := "Helvetica"
	switch f := strings.ToLower(st.FontFamily); {
	case strings.Contains(f, "mono"), strings.Contains(f, "courier"):
		family = "Courier"
	case strings.Contains(f, "times"), strings.Contains(f, "georgia"),
		strings.Contains(f, "serif") && !strings.Contains(f, "sans"):
		family = "Times"
	}

	var style string
	if isBold(st.FontWeight) {
		style += "B"
	}
	if st.FontStyle == "italic" || st.FontStyle == "oblique" {
		style += "I"
	}
	if strings.Contains(st.TextDecoration, "underline") {
		style += "U"
	}

	size := float64(defaultFontSize)
	if st.FontSize != nil && *st.FontSize > 0 {
		size = *st.FontSize
	}
	pc.doc.SetFont(family, style, size)
	return size
}

func isBold(weight string) bool {
	if weight == "bold" || weight == "bolder" {
		return true
	}
	n, err := strconv.Atoi(weight)
	return err == nil && n >= 600
}

func (pc *pageContext) setTextColor(color string) {
	c, ok := parseColor(color)
	if !ok {
		c = rgb{}
	}
	pc.doc.SetTextColor(c.R, c.G, c.B)
}

func setStroke(doc *gofpdf.Fpdf, color string, width float64) {
	c, ok := parseColor(color)
	if !ok {
		c = rgb{}
	}
	doc.SetDrawColor(c.R, c.G, c.B)
	doc.SetLineWidth(width)
}

func insets(st domain.ElementStyle) (top, right, bottom, left float64) {
	p := st.Padding
	if p == nil {
		return 0, 0, 0, 0
	}
	if p.All != nil {
		return *p.All, *p.All, *p.All, *p.All
	}
	get := func(v *float64) float64 {
		if v == nil {
			return 0
		}
		return *v
	}
	return get(p.Top), get(p.Right), get(p.Bottom), get(p.Left)
}

func transform(text, mode string) string {
	switch mode {
	case "uppercase":
		return strings.ToUpper(text)
	case "lowercase":
		return strings.ToLower(text)
	case "capitalize":
		prev := ' '
		return strings.Map(func(r rune) rune {
			out := r
			if unicode.IsSpace(prev) {
				out = unicode.ToUpper(r)
			}
			prev = r
			return out
		}, text)
	}
	return text
}

func alignment(textAlign string) string {
	switch textAlign {
	case "center":
		return "C"
	case "right":
		return "R"
	case "justify":
		return "J"
	}
	return "L"
}

// textBox lays text out inside the box honouring padding, alignment and
// line height.
func (pc *pageContext) textBox(st domain.ElementStyle, text string, x, y, w, h float64) {
	if text == "" {
		return
	}
	doc := pc.doc
	size := pc.setFont(st)
	pc.setTextColor(st.Color)

	top, right, bottom, left := insets(st)
	inner := math.Max(w-left-right, 1)
	lineH := size * defaultLineHeight
	if st.LineHeight != nil && *st.LineHeight > 0 {
		lineH = size * *st.LineHeight
	}

	text = pc.tr(transform(text, st.TextTransform))
	lines := len(doc.SplitLines([]byte(text), inner))
	total := float64(lines) * lineH

	ty := y + top
	switch st.VerticalAlign {
	case "middle":
		ty = y + (h-total)/2
	case "bottom":
		ty = y + h - bottom - total
	}
	doc.SetXY(x+left, ty)
	doc.MultiCell(inner, lineH, text, "", alignment(st.TextAlign), false)
}

func (pc *pageContext) background(st domain.ElementStyle, x, y, w, h float64) {
	doc := pc.doc
	if g := st.Gradient; g != nil && len(g.Stops) >= domain.MinGradientStops {
		from, ok1 := parseColor(g.Stops[0].Color)
		to, ok2 := parseColor(g.Stops[len(g.Stops)-1].Color)
		if ok1 && ok2 {
			if g.Type == "radial" {
				doc.RadialGradient(x, y, w, h, from.R, from.G, from.B, to.R, to.G, to.B, 0.5, 0.5, 0.5, 0.5, 0.5)
				return
			}
			angle := 180.0
			if g.Angle != nil {
				angle = *g.Angle
			}
			rad := angle * math.Pi / 180
			dx, dy := math.Sin(rad)/2, math.Cos(rad)/2
			doc.LinearGradient(x, y, w, h, from.R, from.G, from.B, to.R, to.G, to.B, 0.5-dx, 0.5-dy, 0.5+dx, 0.5+dy)
			return
		}
	}
	if c, ok := parseColor(st.BackgroundColor); ok {
		doc.SetFillColor(c.R, c.G, c.B)
		doc.Rect(x, y, w, h, "F")
	}
}

// border draws the per-side border block, falling back to the legacy
// borderColor/borderWidth pair.
func (pc *pageContext) border(st domain.ElementStyle, x, y, w, h float64) {
	doc := pc.doc
	if b := st.Border; b != nil {
		all := domain.BorderSide{Color: b.Color, Style: b.Style}
		if b.Width != nil {
			all.Width = *b.Width
		}
		side := func(s *domain.BorderSide) domain.BorderSide {
			if s == nil {
				return all
			}
			return *s
		}
		edges := []struct {
			side           domain.BorderSide
			x1, y1, x2, y2 float64
		}{
			{side(b.Top), x, y, x + w, y},
			{side(b.Right), x + w, y, x + w, y + h},
			{side(b.Bottom), x, y + h, x + w, y + h},
			{side(b.Left), x, y, x, y + h},
		}
		for _, e := range edges {
			if e.side.Width <= 0 || e.side.Style == "none" {
				continue
			}
			setStroke(doc, e.side.Color, e.side.Width)
			pc.dashed(e.side.Style, func() { doc.Line(e.x1, e.y1, e.x2, e.y2) })
		}
		return
	}
	if st.BorderWidth != nil && *st.BorderWidth > 0 {
		setStroke(doc, st.BorderColor, *st.BorderWidth)
		doc.Rect(x, y, w, h, "D")
	}
}

func (pc *pageContext) dashed(style string, draw func()) {
	switch style {
	case "dashed":
		pc.doc.SetDashPattern([]float64{4, 2}, 0)
	case "dotted":
		pc.doc.SetDashPattern([]float64{1, 2}, 0)
	default:
		draw()
		return
	}
	draw()
	pc.doc.SetDashPattern([]float64{}, 0)
}

func (pc *pageContext) shape(el domain.DocumentElement, x, y, w, h float64) {
	doc := pc.doc
	st := el.Style

	stroke := st.StrokeColor
	if stroke == "" {
		stroke = st.BorderColor
	}
	width := 1.0
	if st.StrokeWidth != nil {
		width = *st.StrokeWidth
	}
	setStroke(doc, stroke, width)

	mode := "D"
	filled := el.ShapeFilled == nil || *el.ShapeFilled
	fill := st.Fill
	if fill == "" {
		fill = st.BackgroundColor
	}
	if c, ok := parseColor(fill); ok && filled {
		doc.SetFillColor(c.R, c.G, c.B)
		mode = "FD"
		if width <= 0 {
			mode = "F"
		}
	}

	pc.dashed(st.StrokeStyle, func() {
		switch el.ShapeType {
		case "circle", "ellipse":
			doc.Ellipse(x+w/2, y+h/2, w/2, h/2, 0, mode)
		case "triangle":
			doc.Polygon([]gofpdf.PointType{{X: x + w/2, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}}, mode)
		case "line":
			doc.Line(x, y+h/2, x+w, y+h/2)
		case "arrow":
			head := math.Min(h, w/3)
			doc.Line(x, y+h/2, x+w-head, y+h/2)
			doc.Polygon([]gofpdf.PointType{{X: x + w - head, Y: y}, {X: x + w, Y: y + h/2}, {X: x + w - head, Y: y + h}}, "FD")
		case "star":
			doc.Polygon(starPoints(x+w/2, y+h/2, w/2, h/2), mode)
		default:
			doc.Rect(x, y, w, h, mode)
		}
	})
}

func starPoints(cx, cy, rx, ry float64) []gofpdf.PointType {
	pts := make([]gofpdf.PointType, 0, 10)
	for i := 0; i < 10; i++ {
		scale := 1.0
		if i%2 == 1 {
			scale = 0.4
		}
		a := -math.Pi/2 + float64(i)*math.Pi/5
		pts = append(pts, gofpdf.PointType{X: cx + rx*scale*math.Cos(a), Y: cy + ry*scale*math.Sin(a)})
	}
	return pts
}

func (pc *pageContext) divider(el domain.DocumentElement, x, y, w, h float64) {
	color := el.Style.StrokeColor
	if color == "" {
		color = el.Style.BorderColor
	}
	if color == "" {
		color = "#cccccc"
	}
	width := 1.0
	if el.Style.StrokeWidth != nil {
		width = *el.Style.StrokeWidth
	}
	setStroke(pc.doc, color, width)
	pc.dashed(el.Style.StrokeStyle, func() { pc.doc.Line(x, y+h/2, x+w, y+h/2) })
}

func (pc *pageContext) drawing(el domain.DocumentElement, x, y float64) {
	doc := pc.doc
	doc.SetLineCapStyle("round")
	doc.SetLineJoinStyle("round")
	defer doc.SetLineCapStyle("butt")
	defer doc.SetLineJoinStyle("miter")

	for _, p := range el.DrawingPaths {
		if p.Tool == "eraser" || len(p.Points) < 2 {
			continue
		}
		width := p.Width
		if width <= 0 {
			width = 2
		}
		setStroke(doc, p.Color, width)
		if p.Tool == "highlighter" {
			doc.SetAlpha(0.4, "Multiply")
		}
		doc.MoveTo(x+p.Points[0].X, y+p.Points[0].Y)
		for _, pt := range p.Points[1:] {
			doc.LineTo(x+pt.X, y+pt.Y)
		}
		doc.DrawPath("D")
		if p.Tool == "highlighter" {
			doc.SetAlpha(1, "Normal")
		}
	}
}

func (pc *pageContext) watermark(el domain.DocumentElement, x, y, w, h float64) {
	doc := pc.doc
	opacity := 0.15
	if el.WatermarkOpacity != nil {
		opacity = clampUnit(*el.WatermarkOpacity)
	}
	st := el.Style
	if st.FontSize == nil {
		st.FontSize = domain.Float64(48)
	}
	if st.Color == "" {
		st.Color = "#999999"
	}
	st.TextAlign = "center"
	st.VerticalAlign = "middle"
	text := pc.substitute(el.Content)
	if text == "" {
		return
	}

	doc.SetAlpha(opacity, "Normal")
	defer doc.SetAlpha(1, "Normal")

	if el.WatermarkPattern != "tiled" {
		pc.textBox(st, text, x, y, w, h)
		return
	}
	stepX, stepY := math.Max(w, 50), math.Max(h*2, 50)
	for ty := 0.0; ty < pc.height; ty += stepY {
		for tx := 0.0; tx < pc.width; tx += stepX {
			doc.TransformBegin()
			doc.TransformRotate(45, tx+w/2, ty+h/2)
			pc.textBox(st, text, tx, ty, w, h)
			doc.TransformEnd()
		}
	}
}

func (pc *pageContext) highlight(el domain.DocumentElement, x, y, w, h float64) {
	color := "#fde047"
	if el.Annotation != nil && el.Annotation.Color != "" {
		color = el.Annotation.Color
	}
	c, ok := parseColor(color)
	if !ok {
		return
	}
	pc.doc.SetAlpha(0.35, "Multiply")
	pc.doc.SetFillColor(c.R, c.G, c.B)
	pc.doc.Rect(x, y, w, h, "F")
	pc.doc.SetAlpha(1, "Normal")
}

func (pc *pageContext) stamp(el domain.DocumentElement, x, y, w, h float64) {
	color := "#dc2626"
	if el.Annotation != nil && el.Annotation.Color != "" {
		color = el.Annotation.Color
	}
	setStroke(pc.doc, color, 2)
	pc.doc.Rect(x, y, w, h, "D")

	st := el.Style
	st.Color = color
	st.FontWeight = "bold"
	st.TextAlign = "center"
	st.VerticalAlign = "middle"
	st.TextTransform = "uppercase"
	pc.textBox(st, pc.substitute(el.Content), x, y, w, h)
}

func (pc *pageContext) list(el domain.DocumentElement, x, y, w, h float64) {
	items := make([]string, len(el.ListItems))
	for i, item := range el.ListItems {
		marker := "• "
		if el.ListType == "numbered" {
			marker = strconv.Itoa(i+1) + ". "
		}
		items[i] = marker + pc.substitute(item)
	}
	pc.textBox(el.Style, strings.Join(items, "\n"), x, y, w, h)
}

// spread divides total across n slots, scaling explicit sizes when they
// are given for every slot.
func spread(explicit []float64, n int, total float64) []float64 {
	out := make([]float64, n)
	var sum float64
	if len(explicit) == n {
		for _, v := range explicit {
			sum += v
		}
	}
	for i := range out {
		if sum > 0 {
			out[i] = explicit[i] * total / sum
		} else {
			out[i] = total / float64(n)
		}
	}
	return out
}

func (pc *pageContext) table(el domain.DocumentElement, x, y, w, h float64) {
	td := el.TableData
	if td == nil || td.Rows < 1 || td.Cols < 1 {
		return
	}
	doc := pc.doc
	cols := spread(td.ColumnWidths, td.Cols, w)
	rows := spread(td.RowHeights, td.Rows, h)

	cy := y
	for r := 0; r < td.Rows && r < len(td.Cells); r++ {
		cx := x
		for c := 0; c < td.Cols && c < len(td.Cells[r]); c++ {
			cell := td.Cells[r][c]
			cw := cols[c]
			for k := 1; k < cell.ColSpan && c+k < td.Cols; k++ {
				cw += cols[c+k]
			}

			st := el.Style
			st.BackgroundColor = ""
			st.Gradient = nil
			if st.Padding == nil {
				st.Padding = domain.Uniform(4)
			}
			if td.HeaderRow && r == 0 {
				st.FontWeight = "bold"
				st.BackgroundColor = "#f3f4f6"
			} else if td.AlternatingRowColors && r%2 == 0 {
				st.BackgroundColor = td.AlternatingColor
				if st.BackgroundColor == "" {
					st.BackgroundColor = "#f9fafb"
				}
			}
			if cs := cell.Style; cs != nil {
				if cs.BackgroundColor != "" {
					st.BackgroundColor = cs.BackgroundColor
				}
				if cs.Color != "" {
					st.Color = cs.Color
				}
				if cs.FontWeight != "" {
					st.FontWeight = cs.FontWeight
				}
				if cs.TextAlign != "" {
					st.TextAlign = cs.TextAlign
				}
				if cs.FontSize != nil {
					st.FontSize = cs.FontSize
				}
			}

			pc.background(st, cx, cy, cw, rows[r])
			setStroke(doc, "#d1d5db", 0.5)
			doc.Rect(cx, cy, cw, rows[r], "D")
			st.VerticalAlign = "middle"
			pc.textBox(st, pc.substitute(cell.Content), cx, cy, cw, rows[r])

			cx += cw
			if cell.ColSpan > 1 {
				c += cell.ColSpan - 1
			}
		}
		cy += rows[r]
	}
}

func (pc *pageContext) image(el domain.DocumentElement, x, y, w, h float64) {
	if el.ImageURL == "" {
		return
	}
	img, err := decodeDataURL(el.ImageURL)
	if err != nil {
		pc.logger.Debug("Image not embedded", "id", el.ID, "error", err)
		return
	}
	doc := pc.doc
	opts := gofpdf.ImageOptions{ImageType: img.Type}
	name := "image-" + el.ID
	info := doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	if info == nil || doc.Err() {
		return
	}

	dx, dy, dw, dh := fit(el.ObjectFit, info.Width(), info.Height(), x, y, w, h)
	if el.FlipHorizontal || el.FlipVertical {
		doc.TransformBegin()
		if el.FlipHorizontal {
			doc.TransformMirrorHorizontal(x + w/2)
		}
		if el.FlipVertical {
			doc.TransformMirrorVertical(y + h/2)
		}
		defer doc.TransformEnd()
	}
	if el.ObjectFit == "cover" {
		doc.ClipRect(x, y, w, h, false)
		defer doc.ClipEnd()
	}
	doc.ImageOptions(name, dx, dy, dw, dh, false, opts, 0, "")
}

// fit places an iw x ih image in the box according to object-fit.
func fit(mode string, iw, ih, x, y, w, h float64) (float64, float64, float64, float64) {
	if iw <= 0 || ih <= 0 || mode == "fill" || mode == "" {
		return x, y, w, h
	}
	scale := math.Min(w/iw, h/ih)
	if mode == "cover" {
		scale = math.Max(w/iw, h/ih)
	}
	if mode == "none" {
		scale = 1
	}
	dw, dh := iw*scale, ih*scale
	return x + (w-dw)/2, y + (h-dh)/2, dw, dh
}

func (pc *pageContext) barcode(el domain.DocumentElement, x, y, w, h float64) {
	value := pc.substitute(el.BarcodeValue)
	if value == "" {
		value = pc.substitute(el.Content)
	}
	data, err := encodeBarcode(el.BarcodeType, value, w, h)
	if err != nil {
		pc.logger.Warn("Barcode not rendered", "id", el.ID, "error", err)
		st := el.Style
		st.TextAlign = "center"
		st.VerticalAlign = "middle"
		pc.textBox(st, value, x, y, w, h)
		return
	}
	doc := pc.doc
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	name := "barcode-" + el.ID
	doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	doc.ImageOptions(name, x, y, w, h, false, opts, 0, "")
}

func (pc *pageContext) signature(el domain.DocumentElement, x, y, w, h float64) {
	setStroke(pc.doc, el.Style.BorderColor, 0.75)
	lineY := y + h - 14
	pc.doc.Line(x, lineY, x+w, lineY)

	label := pc.substitute(el.Content)
	if label == "" && el.FormField != nil {
		label = el.FormField.Placeholder
	}
	if label == "" {
		label = "Signature"
	}
	st := el.Style
	st.FontSize = domain.Float64(9)
	pc.textBox(st, label, x, lineY+2, w, 12)
}

func (pc *pageContext) inputField(el domain.DocumentElement, x, y, w, h float64) {
	setStroke(pc.doc, "#9ca3af", 0.75)
	pc.doc.Rect(x, y, w, h, "D")

	st := el.Style
	st.VerticalAlign = "middle"
	if st.Padding == nil {
		st.Padding = domain.Uniform(4)
	}
	text := ""
	if ff := el.FormField; ff != nil {
		text = ff.DefaultValue
		if v, ok := pc.values[ff.Name]; ok && ff.Name != "" {
			text = v
		}
		if text == "" {
			text = ff.Placeholder
			st.Color = "#9ca3af"
		}
	}
	if text == "" {
		text = pc.substitute(el.Content)
	}
	pc.textBox(st, text, x, y, w, h)
}

func (pc *pageContext) choiceField(el domain.DocumentElement, x, y, w, h float64) {
	doc := pc.doc
	side := math.Min(math.Min(w, h), 14)
	by := y + (h-side)/2
	setStroke(doc, "#374151", 0.75)
	if el.Type == domain.ElementFormRadio {
		doc.Circle(x+side/2, by+side/2, side/2, "D")
	} else {
		doc.Rect(x, by, side, side, "D")
	}

	checked := false
	if ff := el.FormField; ff != nil {
		value := ff.DefaultValue
		if v, ok := pc.values[ff.Name]; ok && ff.Name != "" {
			value = v
		}
		checked = value == "true" || value == "checked" || value == "on"
	}
	if checked {
		if el.Type == domain.ElementFormRadio {
			doc.SetFillColor(55, 65, 81)
			doc.Circle(x+side/2, by+side/2, side/4, "F")
		} else {
			doc.Line(x+2, by+2, x+side-2, by+side-2)
			doc.Line(x+side-2, by+2, x+2, by+side-2)
		}
	}

	if label := pc.substitute(el.Content); label != "" && w > side+4 {
		st := el.Style
		st.VerticalAlign = "middle"
		pc.textBox(st, label, x+side+4, y, w-side-4, h)
	}
}
