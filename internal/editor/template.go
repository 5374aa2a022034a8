package editor

import (
	"fmt"
	"strings"
	"time"

	"docbuilder/internal/domain"
)

const (
	defaultTemplateName = "Untitled Template"
	defaultCreator      = "DocBuilder"
	defaultProducer     = "DocBuilder PDF Engine"
)

func (e *Editor) newPage(name string) domain.Page {
	return domain.Page{
		ID:              e.newID(),
		Name:            name,
		Elements:        []domain.DocumentElement{},
		BackgroundColor: "#ffffff",
		Rotation:        0,
	}
}

func (e *Editor) defaultTemplate() *domain.Template {
	now := e.now()
	return &domain.Template{
		ID:               e.newID(),
		Name:             defaultTemplateName,
		Elements:         []domain.DocumentElement{},
		Pages:            []domain.Page{e.newPage("Page 1")},
		CurrentPageIndex: 0,
		PageSize:         domain.PageSizeA4,
		Orientation:      domain.OrientationPortrait,
		LayoutType:       domain.LayoutDocument,
		CreatedAt:        now,
		UpdatedAt:        now,
		DocumentProperties: &domain.DocumentProperties{
			Creator:      defaultCreator,
			Producer:     defaultProducer,
			CreationDate: &now,
		},
	}
}

// CreateNew replaces the session with a fresh single-page A4 template.
// History and selection are reset.
func (e *Editor) CreateNew() *domain.Template {
	e.template = e.defaultTemplate()
	e.clearSelection()
	e.resetHistory()
	return e.template.Clone()
}

// CreateNewPresentation is CreateNew with a landscape Letter slide layout.
func (e *Editor) CreateNewPresentation() *domain.Template {
	t := e.defaultTemplate()
	t.LayoutType = domain.LayoutPresentation
	t.PageSize = domain.PageSizeLetter
	t.Orientation = domain.OrientationLandscape
	e.template = t
	e.clearSelection()
	e.resetHistory()
	return e.template.Clone()
}

// Load makes a copy of t the current template. History and selection are
// reset so undo never crosses into a different document.
func (e *Editor) Load(t *domain.Template) {
	if t == nil {
		return
	}
	next := t.Clone()
	if next.Elements == nil {
		next.Elements = []domain.DocumentElement{}
	}
	if next.CurrentPageIndex < 0 || next.CurrentPageIndex >= len(next.Pages) {
		next.CurrentPageIndex = 0
	}
	e.template = next
	e.clearSelection()
	e.resetHistory()
	e.drawingPaths = nil
	e.logger.Debug("Template loaded into editor", "template_id", next.ID)
}

func (e *Editor) UpdateTemplateName(name string) error {
	return e.apply(func(t *domain.Template) error {
		t.Name = name
		return nil
	})
}

func (e *Editor) UpdateTemplateDescription(description string) error {
	return e.apply(func(t *domain.Template) error {
		t.Description = description
		return nil
	})
}

// UpdateDocumentProperties replaces the PDF metadata block. The
// modification date is stamped with the current time.
func (e *Editor) UpdateDocumentProperties(props domain.DocumentProperties) error {
	return e.apply(func(t *domain.Template) error {
		p := props.Clone()
		now := e.now()
		p.ModificationDate = &now
		t.DocumentProperties = &p
		return nil
	})
}

func (e *Editor) SetPageSize(size domain.PageSize) error {
	switch size {
	case domain.PageSizeA4, domain.PageSizeLetter, domain.PageSizeLegal:
	default:
		return fmt.Errorf("%w: %s", domain.ErrInvalidPageSize, size)
	}
	return e.apply(func(t *domain.Template) error {
		t.PageSize = size
		return nil
	})
}

func (e *Editor) SetOrientation(o domain.Orientation) error {
	if o != domain.OrientationPortrait && o != domain.OrientationLandscape {
		return fmt.Errorf("%w: %s", domain.ErrInvalidOrientation, o)
	}
	return e.apply(func(t *domain.Template) error {
		t.Orientation = o
		return nil
	})
}

// SetPublicToken stores an opaque share token on the template. An empty
// token revokes sharing.
func (e *Editor) SetPublicToken(token string) error {
	return e.apply(func(t *domain.Template) error {
		t.PublicToken = token
		return nil
	})
}

// AddIntegrationToken issues a new access token for external systems.
// Unknown permissions are dropped; an empty set defaults to read.
func (e *Editor) AddIntegrationToken(name string, permissions []string, expiresAt *time.Time) (domain.IntegrationToken, error) {
	perms := make([]string, 0, len(permissions))
	for _, p := range permissions {
		switch p {
		case domain.PermissionRead, domain.PermissionWrite, domain.PermissionGenerate:
			perms = append(perms, p)
		}
	}
	if len(perms) == 0 {
		perms = []string{domain.PermissionRead}
	}
	tok := domain.IntegrationToken{
		ID:          e.newID(),
		Name:        name,
		Token:       "int_" + strings.ReplaceAll(e.newID(), "-", ""),
		Permissions: perms,
		CreatedAt:   e.now(),
	}
	if expiresAt != nil {
		exp := *expiresAt
		tok.ExpiresAt = &exp
	}
	err := e.apply(func(t *domain.Template) error {
		t.IntegrationTokens = append(t.IntegrationTokens, tok)
		return nil
	})
	if err != nil {
		return domain.IntegrationToken{}, err
	}
	return tok, nil
}

// RemoveIntegrationToken revokes a token by id. Unknown ids are ignored.
func (e *Editor) RemoveIntegrationToken(id string) error {
	return e.apply(func(t *domain.Template) error {
		kept := t.IntegrationTokens[:0]
		for _, tok := range t.IntegrationTokens {
			if tok.ID != id {
				kept = append(kept, tok)
			}
		}
		if len(kept) == 0 {
			kept = nil
		}
		t.IntegrationTokens = kept
		return nil
	})
}
