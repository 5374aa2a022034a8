package pdf

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"docbuilder/internal/domain"

	"github.com/jung-kurt/gofpdf"
)

const ContentType = "application/pdf"

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// Renderer draws templates with gofpdf. Coordinates are points, the same
// unit the document model uses.
type Renderer struct {
	logger domain.Logger
	now    func() time.Time
}

func NewRenderer(logger domain.Logger) *Renderer {
	return &Renderer{logger: logger, now: time.Now}
}

func (r *Renderer) ContentType() string { return ContentType }

// Render writes t as a PDF to w. Every {{name}} placeholder with an entry
// in values is replaced; unknown placeholders are left as written.
func (r *Renderer) Render(w io.Writer, t *domain.Template, values map[string]string) error {
	if t == nil {
		return domain.ErrNoTemplate
	}
	width, height := domain.PageDimensions(t.PageSize, t.Orientation)
	doc := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetCellMargin(0)
	doc.SetAutoPageBreak(false, 0)
	applyProperties(doc, t)

	pages := pagesOf(t)
	for i, page := range pages {
		pw, ph := width, height
		if page.Rotation == 90 || page.Rotation == 270 {
			pw, ph = ph, pw
		}
		doc.AddPageFormat("P", gofpdf.SizeType{Wd: pw, Ht: ph})
		if c, ok := parseColor(page.BackgroundColor); ok {
			doc.SetFillColor(c.R, c.G, c.B)
			doc.Rect(0, 0, pw, ph, "F")
		}

		pc := &pageContext{
			doc:    doc,
			tr:     doc.UnicodeTranslatorFromDescriptor(""),
			values: withPageNumbers(values, i+1, len(pages)),
			width:  pw,
			height: ph,
			logger: r.logger,
			now:    r.now,
		}
		for _, el := range paintOrder(page.Elements) {
			if !el.Visible {
				continue
			}
			pc.element(el)
		}
		if doc.Err() {
			return fmt.Errorf("render: page %d: %w", i+1, doc.Error())
		}
	}

	if doc.Err() {
		return fmt.Errorf("render: %w", doc.Error())
	}
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	r.logger.Debug("Template rendered", "id", t.ID, "pages", len(pages))
	return nil
}

// Substitute replaces {{name}} placeholders that have an entry in values.
func Substitute(text string, values map[string]string) string {
	if len(values) == 0 || !strings.Contains(text, "{{") {
		return text
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(m string) string {
		name := placeholderPattern.FindStringSubmatch(m)[1]
		if v, ok := values[name]; ok {
			return v
		}
		return m
	})
}

func withPageNumbers(values map[string]string, page, pages int) map[string]string {
	out := make(map[string]string, len(values)+2)
	out["page"] = fmt.Sprint(page)
	out["pages"] = fmt.Sprint(pages)
	for k, v := range values {
		out[k] = v
	}
	return out
}

// pagesOf returns the pages to print. A legacy template prints its
// element list as a single page.
func pagesOf(t *domain.Template) []domain.Page {
	if t.IsMultiPage() {
		return t.Pages
	}
	return []domain.Page{{ID: t.ID, Name: t.Name, Elements: t.Elements}}
}

// paintOrder sorts by z-index, keeping list order for ties.
func paintOrder(elements []domain.DocumentElement) []domain.DocumentElement {
	out := append([]domain.DocumentElement(nil), elements...)
	sort.SliceStable(out, func(i, j int) bool {
		return zIndex(out[i]) < zIndex(out[j])
	})
	return out
}

func zIndex(el domain.DocumentElement) int {
	if el.ZIndex == nil {
		return 0
	}
	return *el.ZIndex
}

func applyProperties(doc *gofpdf.Fpdf, t *domain.Template) {
	props := t.DocumentProperties
	title := t.Name
	if props != nil && props.Title != "" {
		title = props.Title
	}
	doc.SetTitle(title, true)
	if props == nil {
		doc.SetCreator("DocBuilder", true)
		return
	}

	if props.Author != "" {
		doc.SetAuthor(props.Author, true)
	}
	if props.Subject != "" {
		doc.SetSubject(props.Subject, true)
	}
	if len(props.Keywords) > 0 {
		doc.SetKeywords(strings.Join(props.Keywords, " "), true)
	}
	creator := props.Creator
	if creator == "" {
		creator = "DocBuilder"
	}
	doc.SetCreator(creator, true)
	if props.CreationDate != nil {
		doc.SetCreationDate(*props.CreationDate)
	}
	if props.Password != "" || restricts(props.Permissions) {
		doc.SetProtection(permissionFlags(props.Permissions), props.Password, "")
	}
}

func restricts(p *domain.Permissions) bool {
	if p == nil {
		return false
	}
	return p.Printing == "none" || !p.Copying || !p.Editing || !p.Annotating || !p.FormFilling
}

// permissionFlags maps template permissions to gofpdf protection flags.
// Without a permissions block everything is allowed.
func permissionFlags(p *domain.Permissions) byte {
	if p == nil {
		return gofpdf.CnProtectPrint | gofpdf.CnProtectModify | gofpdf.CnProtectCopy | gofpdf.CnProtectAnnotForms
	}
	var flags byte
	if p.Printing != "none" {
		flags |= gofpdf.CnProtectPrint
	}
	if p.Editing {
		flags |= gofpdf.CnProtectModify
	}
	if p.Copying {
		flags |= gofpdf.CnProtectCopy
	}
	if p.Annotating || p.FormFilling {
		flags |= gofpdf.CnProtectAnnotForms
	}
	return flags
}
