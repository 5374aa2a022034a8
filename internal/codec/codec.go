// Package codec converts templates to and from the portable PDFMaker JSON
// interchange format.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"docbuilder/internal/domain"

	"github.com/google/uuid"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

var placeholderPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Codec exports and imports templates. It holds no mutable state and is
// safe for concurrent use.
type Codec struct {
	logger domain.Logger
	now    func() time.Time
	newID  func() string
}

// Option customises a Codec.
type Option func(*Codec)

// WithClock replaces the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// WithIDGenerator replaces the generator used for imported template ids.
func WithIDGenerator(newID func() string) Option {
	return func(c *Codec) { c.newID = newID }
}

// New creates a Codec.
func New(logger domain.Logger, opts ...Option) *Codec {
	c := &Codec{
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Codec) timestamp() string {
	return c.now().UTC().Format(isoMillis)
}

func defaultMargins() Margins {
	return Margins{Top: defaultMarginMM, Right: defaultMarginMM, Bottom: defaultMarginMM, Left: defaultMarginMM}
}

func category(t *domain.Template) string {
	if t.SourceApp != "" {
		return t.SourceApp
	}
	return defaultCategory
}

// ExportForPDFMaker builds the interchange document for t.
func (c *Codec) ExportForPDFMaker(t *domain.Template, opts ExportOptions) PDFMakerTemplate {
	version := opts.SchemaVersion
	if version == "" {
		version = SchemaVersion
	}

	meta := &Metadata{Version: metadataVersion}
	if !opts.SkipMetadata {
		meta.Tags = []string{}
		meta.Category = category(t)
	}

	elements := t.AllElements()
	fields := []DynamicField{}
	if !opts.SkipDynamicFields {
		fields = ExtractDynamicFields(elements)
	}

	body := &TemplateBody{
		ID:            t.ID,
		Name:          t.Name,
		Description:   t.Description,
		Metadata:      meta,
		Settings:      &Settings{PageSize: t.PageSize, Orientation: t.Orientation, Margins: defaultMargins()},
		Elements:      domain.CloneElements(elements),
		DynamicFields: fields,
	}
	if t.IsMultiPage() {
		body.Pages = make([]domain.Page, len(t.Pages))
		for i, p := range t.Pages {
			body.Pages[i] = p.Clone()
		}
	}

	return PDFMakerTemplate{
		SchemaVersion: version,
		Type:          TypeTemplate,
		ExportedAt:    c.timestamp(),
		Template:      body,
	}
}

// ExtractDynamicFields lists every field name referenced by the elements,
// either as a dynamic-field element or as a {{name}} placeholder in
// content. Each name appears once, in order of first discovery.
func ExtractDynamicFields(elements []domain.DocumentElement) []DynamicField {
	fields := []DynamicField{}
	seen := map[string]bool{}

	add := func(name, description string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		fields = append(fields, DynamicField{
			Name:         name,
			Type:         "string",
			Required:     false,
			DefaultValue: "",
			Description:  description,
		})
	}

	for _, el := range elements {
		if el.Type == domain.ElementDynamicField && el.DynamicField != "" {
			add(el.DynamicField, "Dynamic field from element: "+el.ID)
		}
		if el.Content == "" {
			continue
		}
		for _, m := range placeholderPattern.FindAllStringSubmatch(el.Content, -1) {
			add(strings.TrimSpace(m[1]), "Extracted from content in element: "+el.ID)
		}
	}
	return fields
}

// CreateTemplateManifest indexes templates without their element payloads.
func (c *Codec) CreateTemplateManifest(templates []*domain.Template) Manifest {
	m := Manifest{
		SchemaVersion: SchemaVersion,
		Type:          TypeManifest,
		ExportedAt:    c.timestamp(),
		Count:         len(templates),
		Templates:     make([]ManifestEntry, 0, len(templates)),
	}
	for _, t := range templates {
		m.Templates = append(m.Templates, ManifestEntry{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Metadata:    Metadata{Version: metadataVersion, Category: category(t)},
		})
	}
	return m
}

// ExportBundle exports every template together with a manifest.
func (c *Codec) ExportBundle(templates []*domain.Template) Bundle {
	b := Bundle{
		SchemaVersion: SchemaVersion,
		Type:          TypeBundle,
		ExportedAt:    c.timestamp(),
		Manifest:      c.CreateTemplateManifest(templates),
		Templates:     make([]PDFMakerTemplate, 0, len(templates)),
	}
	for _, t := range templates {
		b.Templates = append(b.Templates, c.ExportForPDFMaker(t, ExportOptions{}))
	}
	return b
}

// SerializeTemplate renders an interchange document as JSON, indented with
// two spaces unless minify is set.
func SerializeTemplate(doc PDFMakerTemplate, minify bool) (string, error) {
	return serialize(doc, minify)
}

func SerializeBundle(b Bundle, minify bool) (string, error) {
	return serialize(b, minify)
}

func SerializeManifest(m Manifest, minify bool) (string, error) {
	return serialize(m, minify)
}

func serialize(v interface{}, minify bool) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if !minify {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("serialize: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

var filenameUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeFilename turns a template name into a safe file stem of at most
// 50 characters.
func SanitizeFilename(name string) string {
	s := filenameUnsafe.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}
