package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"docbuilder/internal/codec"
	"docbuilder/internal/domain"
)

const jsonContentType = "application/json"

// Download is a named file produced by an export.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IntegrationOptions tunes WriteForIntegration.
type IntegrationOptions struct {
	SkipMetadata      bool
	SkipDynamicFields bool
	Minify            bool
}

// TemplateExporter turns templates into downloadable interchange files and
// reads them back from files and the clipboard.
type TemplateExporter struct {
	codec     *codec.Codec
	clipboard domain.Clipboard
	logger    domain.Logger
	metrics   domain.Metrics
	now       func() time.Time
}

func NewTemplateExporter(
	c *codec.Codec,
	clipboard domain.Clipboard,
	logger domain.Logger,
	metrics domain.Metrics,
) *TemplateExporter {
	return &TemplateExporter{
		codec:     c,
		clipboard: clipboard,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// DownloadTemplateAsJSON exports t as an indented interchange document
// named after the template unless filename is given.
func (e *TemplateExporter) DownloadTemplateAsJSON(t *domain.Template, filename string) (*Download, error) {
	data, err := e.TemplateExportString(t)
	if err != nil {
		return nil, err
	}
	if filename == "" {
		filename = codec.SanitizeFilename(t.Name) + ".json"
	}
	return &Download{Filename: filename, ContentType: jsonContentType, Data: []byte(data)}, nil
}

// DownloadTemplatesBundle exports templates as one bundle file.
func (e *TemplateExporter) DownloadTemplatesBundle(templates []*domain.Template, bundleName string) (*Download, error) {
	data, err := codec.SerializeBundle(e.codec.ExportBundle(templates), false)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize bundle: %w", err)
	}
	if bundleName == "" {
		bundleName = fmt.Sprintf("templates-bundle-%d.json", e.now().UnixMilli())
	}
	e.metrics.TemplateExported("bundle")
	return &Download{Filename: bundleName, ContentType: jsonContentType, Data: []byte(data)}, nil
}

// DownloadManifest exports the manifest of templates without their elements.
func (e *TemplateExporter) DownloadManifest(templates []*domain.Template) (*Download, error) {
	data, err := codec.SerializeManifest(e.codec.CreateTemplateManifest(templates), false)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize manifest: %w", err)
	}
	e.metrics.TemplateExported("manifest")
	return &Download{
		Filename:    fmt.Sprintf("templates-manifest-%d.json", e.now().UnixMilli()),
		ContentType: jsonContentType,
		Data:        []byte(data),
	}, nil
}

// WriteForIntegration exports t for an external PDFMaker consumer.
func (e *TemplateExporter) WriteForIntegration(t *domain.Template, opts IntegrationOptions) (*Download, error) {
	doc := e.codec.ExportForPDFMaker(t, codec.ExportOptions{
		SkipMetadata:      opts.SkipMetadata,
		SkipDynamicFields: opts.SkipDynamicFields,
	})
	data, err := codec.SerializeTemplate(doc, opts.Minify)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize template: %w", err)
	}
	e.metrics.TemplateExported("integration")
	return &Download{
		Filename:    "pdfmaker-" + codec.SanitizeFilename(t.Name) + ".json",
		ContentType: jsonContentType,
		Data:        []byte(data),
	}, nil
}

// TemplateExportString returns the indented interchange document for t.
func (e *TemplateExporter) TemplateExportString(t *domain.Template) (string, error) {
	data, err := codec.SerializeTemplate(e.codec.ExportForPDFMaker(t, codec.ExportOptions{}), false)
	if err != nil {
		return "", fmt.Errorf("failed to serialize template: %w", err)
	}
	e.metrics.TemplateExported("json")
	return data, nil
}

// ExportData returns the interchange document for t with every section.
func (e *TemplateExporter) ExportData(t *domain.Template) codec.PDFMakerTemplate {
	return e.codec.ExportForPDFMaker(t, codec.ExportOptions{})
}

// CopyTemplateToClipboard reports whether the export reached the clipboard.
func (e *TemplateExporter) CopyTemplateToClipboard(ctx context.Context, t *domain.Template) bool {
	data, err := e.TemplateExportString(t)
	if err != nil {
		e.logger.Error("Failed to export template for clipboard", err, "id", t.ID)
		return false
	}
	if err := e.clipboard.WriteText(ctx, data); err != nil {
		e.logger.Error("Failed to write clipboard", err, "id", t.ID)
		return false
	}
	return true
}

// ImportTemplateFromJSON accepts an interchange document, a bundle (first
// template) or a bare template.
func (e *TemplateExporter) ImportTemplateFromJSON(data []byte) codec.ImportResult {
	res := e.codec.ImportJSON(data)
	e.metrics.TemplateImported("json", res.Success)
	if !res.Success {
		e.logger.Warn("Template import failed", "errors", strings.Join(res.Errors, "; "))
	}
	return res
}

// ImportTemplateFromFile reads r completely and imports its content.
func (e *TemplateExporter) ImportTemplateFromFile(r io.Reader) codec.ImportResult {
	data, err := io.ReadAll(r)
	if err != nil {
		e.logger.Warn("Failed to read import file", "error", err)
		return codec.ImportResult{Errors: []string{"Error reading file"}}
	}
	if len(data) == 0 {
		return codec.ImportResult{Errors: []string{"Failed to read file"}}
	}
	return e.ImportTemplateFromJSON(data)
}

// ImportTemplateFromClipboard imports whatever text the clipboard holds.
func (e *TemplateExporter) ImportTemplateFromClipboard(ctx context.Context) codec.ImportResult {
	text, err := e.clipboard.ReadText(ctx)
	if err != nil {
		return codec.ImportResult{Errors: []string{"Failed to read from clipboard"}}
	}
	return e.ImportTemplateFromJSON([]byte(text))
}

// ImportTemplatesBundle imports every template of a bundle file.
func (e *TemplateExporter) ImportTemplatesBundle(r io.Reader) codec.BundleResult {
	data, err := io.ReadAll(r)
	if err != nil {
		return codec.BundleResult{Templates: []*domain.Template{}, Errors: []string{"Error reading file"}}
	}
	if len(data) == 0 {
		return codec.BundleResult{Templates: []*domain.Template{}, Errors: []string{"Failed to read file"}}
	}
	res := e.codec.ImportBundle(data)
	e.metrics.TemplateImported("bundle", res.Success)
	return res
}
