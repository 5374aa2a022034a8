package domain

import "time"

type PageSize string

const (
	PageSizeA4     PageSize = "A4"
	PageSizeLetter PageSize = "Letter"
	PageSizeLegal  PageSize = "Legal"
	PageSizeCustom PageSize = "Custom"
)

type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// Layout types distinguish documents from slide decks.
const (
	LayoutDocument     = "document"
	LayoutPresentation = "presentation"
)

// pageDimensions holds portrait width and height in points.
var pageDimensions = map[PageSize][2]float64{
	PageSizeA4:     {595.28, 841.89},
	PageSizeLetter: {612, 792},
	PageSizeLegal:  {612, 1008},
}

// PageDimensions returns the page width and height in points for the
// given size and orientation. Unknown sizes fall back to A4.
func PageDimensions(size PageSize, orientation Orientation) (float64, float64) {
	dims, ok := pageDimensions[size]
	if !ok {
		dims = pageDimensions[PageSizeA4]
	}
	if orientation == OrientationLandscape {
		return dims[1], dims[0]
	}
	return dims[0], dims[1]
}

// Page is one page of a multi-page template.
type Page struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Elements        []DocumentElement `json:"elements"`
	BackgroundColor string            `json:"backgroundColor,omitempty"`
	Rotation        int               `json:"rotation"`
}

// Clone returns a deep copy of the page.
func (p Page) Clone() Page {
	out := p
	out.Elements = CloneElements(p.Elements)
	return out
}

// Permissions are the security flags applied to exported PDFs.
type Permissions struct {
	Printing    string `json:"printing,omitempty"`
	Copying     bool   `json:"copying"`
	Editing     bool   `json:"editing"`
	Annotating  bool   `json:"annotating"`
	FormFilling bool   `json:"formFilling"`
}

// DocumentProperties is the PDF metadata block of a template.
type DocumentProperties struct {
	Title            string       `json:"title"`
	Author           string       `json:"author"`
	Subject          string       `json:"subject,omitempty"`
	Keywords         []string     `json:"keywords,omitempty"`
	Creator          string       `json:"creator,omitempty"`
	Producer         string       `json:"producer,omitempty"`
	CreationDate     *time.Time   `json:"creationDate,omitempty"`
	ModificationDate *time.Time   `json:"modificationDate,omitempty"`
	Password         string       `json:"password,omitempty"`
	Permissions      *Permissions `json:"permissions,omitempty"`
}

// Clone returns a deep copy of the properties.
func (d DocumentProperties) Clone() DocumentProperties {
	out := d
	out.Keywords = cloneStrings(d.Keywords)
	if d.CreationDate != nil {
		t := *d.CreationDate
		out.CreationDate = &t
	}
	if d.ModificationDate != nil {
		t := *d.ModificationDate
		out.ModificationDate = &t
	}
	if d.Permissions != nil {
		p := *d.Permissions
		out.Permissions = &p
	}
	return out
}

// Integration token permissions.
const (
	PermissionRead     = "read"
	PermissionWrite    = "write"
	PermissionGenerate = "generate"
)

// IntegrationToken grants an external system access to one template.
type IntegrationToken struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Token       string     `json:"token"`
	Permissions []string   `json:"permissions"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	LastUsed    *time.Time `json:"lastUsed,omitempty"`
}

// Template is the aggregate root of the document model. Legacy single-page
// templates keep their elements in Elements; multi-page templates use Pages
// with CurrentPageIndex pointing at the page being edited.
type Template struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	Elements         []DocumentElement `json:"elements"`
	Pages            []Page            `json:"pages,omitempty"`
	CurrentPageIndex int               `json:"currentPageIndex"`
	PageSize         PageSize          `json:"pageSize"`
	Orientation      Orientation       `json:"orientation"`
	LayoutType       string            `json:"layoutType,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`

	DocumentProperties *DocumentProperties `json:"documentProperties,omitempty"`

	SourceApp        string `json:"sourceApp,omitempty"`
	SourceTemplateID string `json:"sourceTemplateId,omitempty"`

	PublicToken       string             `json:"publicToken,omitempty"`
	IntegrationTokens []IntegrationToken `json:"integrationTokens,omitempty"`
}

// IsMultiPage reports whether the template stores its elements on pages.
func (t *Template) IsMultiPage() bool {
	return len(t.Pages) > 0
}

// CurrentPage returns the page being edited, or nil for legacy templates.
func (t *Template) CurrentPage() *Page {
	if len(t.Pages) == 0 {
		return nil
	}
	idx := t.CurrentPageIndex
	if idx < 0 || idx >= len(t.Pages) {
		idx = 0
	}
	return &t.Pages[idx]
}

// ActiveElements returns a pointer to the element slice that edits apply
// to: the current page's elements, or the legacy top-level list.
func (t *Template) ActiveElements() *[]DocumentElement {
	if page := t.CurrentPage(); page != nil {
		return &page.Elements
	}
	return &t.Elements
}

// AllElements returns the legacy elements followed by every page's
// elements in page order.
func (t *Template) AllElements() []DocumentElement {
	out := make([]DocumentElement, 0, len(t.Elements))
	out = append(out, t.Elements...)
	for _, p := range t.Pages {
		out = append(out, p.Elements...)
	}
	return out
}

// FindElement returns the element with the given id from any page.
func (t *Template) FindElement(id string) (*DocumentElement, bool) {
	for i := range t.Elements {
		if t.Elements[i].ID == id {
			return &t.Elements[i], true
		}
	}
	for p := range t.Pages {
		for i := range t.Pages[p].Elements {
			if t.Pages[p].Elements[i].ID == id {
				return &t.Pages[p].Elements[i], true
			}
		}
	}
	return nil, false
}

// Clone returns a deep copy of the template.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	out := *t
	out.Elements = CloneElements(t.Elements)
	if t.Pages != nil {
		out.Pages = make([]Page, len(t.Pages))
		for i, p := range t.Pages {
			out.Pages[i] = p.Clone()
		}
	}
	if t.DocumentProperties != nil {
		dp := t.DocumentProperties.Clone()
		out.DocumentProperties = &dp
	}
	if t.IntegrationTokens != nil {
		out.IntegrationTokens = make([]IntegrationToken, len(t.IntegrationTokens))
		for i, tok := range t.IntegrationTokens {
			tok.Permissions = cloneStrings(tok.Permissions)
			if tok.ExpiresAt != nil {
				e := *tok.ExpiresAt
				tok.ExpiresAt = &e
			}
			if tok.LastUsed != nil {
				l := *tok.LastUsed
				tok.LastUsed = &l
			}
			out.IntegrationTokens[i] = tok
		}
	}
	return &out
}
