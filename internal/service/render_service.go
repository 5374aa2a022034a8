package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"docbuilder/internal/codec"
	"docbuilder/internal/domain"
)

// RenderService produces print output for stored templates and open
// editor sessions.
type RenderService struct {
	renderer domain.Renderer
	storage  *TemplateStorage
	sessions *SessionManager
	archive  Archiver
	logger   domain.Logger
	metrics  domain.Metrics
	now      func() time.Time
}

// NewRenderService builds the service. archive may be nil, which disables
// ArchiveTemplate.
func NewRenderService(
	renderer domain.Renderer,
	storage *TemplateStorage,
	sessions *SessionManager,
	archive Archiver,
	logger domain.Logger,
	metrics domain.Metrics,
) *RenderService {
	return &RenderService{
		renderer: renderer,
		storage:  storage,
		sessions: sessions,
		archive:  archive,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

func (s *RenderService) ContentType() string {
	return s.renderer.ContentType()
}

// RenderTemplate renders the stored template id into w.
func (s *RenderService) RenderTemplate(ctx context.Context, id string, values map[string]string, w io.Writer) error {
	t, err := s.storage.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	return s.render(w, t, values)
}

// RenderSession renders the current template of an editor session,
// including unsaved changes.
func (s *RenderService) RenderSession(sessionID string, values map[string]string, w io.Writer) error {
	t, err := s.sessions.Template(sessionID)
	if err != nil {
		return err
	}
	return s.render(w, t, values)
}

func (s *RenderService) render(w io.Writer, t *domain.Template, values map[string]string) error {
	if err := s.renderer.Render(w, t, values); err != nil {
		s.logger.Error("Failed to render template", err, "id", t.ID)
		return fmt.Errorf("failed to render template: %w", err)
	}
	s.metrics.TemplateExported("pdf")
	return nil
}

// ArchiveTemplate renders a stored template and uploads the result,
// returning the object path.
func (s *RenderService) ArchiveTemplate(ctx context.Context, id string, values map[string]string) (string, error) {
	if s.archive == nil {
		return "", domain.ErrArchiveDisabled
	}
	var buf bytes.Buffer
	if err := s.RenderTemplate(ctx, id, values, &buf); err != nil {
		return "", err
	}
	path := fmt.Sprintf("%s/%d.pdf", id, s.now().UnixMilli())
	if err := s.archive.Upload(ctx, path, s.renderer.ContentType(), &buf); err != nil {
		s.logger.Error("Failed to archive rendered template", err, "id", id)
		return "", err
	}
	s.logger.Info("Rendered template archived", "id", id, "path", path)
	return path, nil
}

// ExportFilename is the download name for a rendered template.
func ExportFilename(t *domain.Template) string {
	return codec.SanitizeFilename(t.Name) + ".pdf"
}
