package codec

import "docbuilder/internal/domain"

// Wire identifiers of the interchange format.
const (
	SchemaVersion = "1.0"

	TypeTemplate = "pdfmaker-template"
	TypeBundle   = "pdfmaker-bundle"
	TypeManifest = "pdfmaker-manifest"

	metadataVersion = "1.0.0"
	defaultCategory = "Custom"
	importedSource  = "Imported"
	defaultMarginMM = 20
)

// Metadata describes an exported template for catalogue purposes.
type Metadata struct {
	Version  string   `json:"version"`
	Tags     []string `json:"tags,omitempty"`
	Category string   `json:"category,omitempty"`
}

// Margins are page margins in millimetres.
type Margins struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Settings is the page setup block of an exported template.
type Settings struct {
	PageSize    domain.PageSize    `json:"pageSize,omitempty"`
	Orientation domain.Orientation `json:"orientation,omitempty"`
	Margins     Margins            `json:"margins"`
}

// DynamicField declares a placeholder a consumer must supply at render time.
type DynamicField struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Required     bool   `json:"required"`
	DefaultValue string `json:"defaultValue"`
	Description  string `json:"description,omitempty"`
}

// TemplateBody is the template payload of a PDFMakerTemplate. Pages is only
// present for multi-page templates; Elements then holds every element of
// the document flattened in page order.
type TemplateBody struct {
	ID            string                   `json:"id"`
	Name          string                   `json:"name"`
	Description   string                   `json:"description,omitempty"`
	Metadata      *Metadata                `json:"metadata,omitempty"`
	Settings      *Settings                `json:"settings,omitempty"`
	Elements      []domain.DocumentElement `json:"elements"`
	DynamicFields []DynamicField           `json:"dynamicFields"`
	Pages         []domain.Page            `json:"pages,omitempty"`
}

// PDFMakerTemplate is the portable, versioned document shape.
type PDFMakerTemplate struct {
	SchemaVersion string        `json:"schemaVersion"`
	Type          string        `json:"type"`
	ExportedAt    string        `json:"exportedAt"`
	Template      *TemplateBody `json:"template"`
}

// ManifestEntry is one template in a manifest.
type ManifestEntry struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

// Manifest is a lightweight index of templates without their elements.
type Manifest struct {
	SchemaVersion string          `json:"schemaVersion"`
	Type          string          `json:"type"`
	ExportedAt    string          `json:"exportedAt"`
	Count         int             `json:"count"`
	Templates     []ManifestEntry `json:"templates"`
}

// Bundle packs several exported templates with their manifest.
type Bundle struct {
	SchemaVersion string             `json:"schemaVersion"`
	Type          string             `json:"type"`
	ExportedAt    string             `json:"exportedAt"`
	Manifest      Manifest           `json:"manifest"`
	Templates     []PDFMakerTemplate `json:"templates"`
}

// ExportOptions tunes ExportForPDFMaker. The zero value exports everything
// at the current schema version.
type ExportOptions struct {
	SkipMetadata      bool
	SkipDynamicFields bool
	SchemaVersion     string
}

// ImportResult is the outcome of importing one template. Import never
// returns a Go error; problems are reported in Errors.
type ImportResult struct {
	Success  bool             `json:"success"`
	Template *domain.Template `json:"template,omitempty"`
	Errors   []string         `json:"errors,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
}

// BundleResult is the outcome of importing every template of a bundle.
type BundleResult struct {
	Success   bool               `json:"success"`
	Templates []*domain.Template `json:"templates"`
	Errors    []string           `json:"errors"`
}

func failed(errs ...string) ImportResult {
	return ImportResult{Success: false, Errors: errs}
}
