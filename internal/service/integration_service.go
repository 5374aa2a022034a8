package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"docbuilder/internal/codec"
	"docbuilder/internal/domain"
	"docbuilder/internal/infra/compliance"
	apperrors "docbuilder/pkg/errors"
)

const (
	complianceSourceApp = "wm-compliance"
	importedSuffix      = " (Imported)"
)

// ComplianceAPI is the part of the compliance client the integration
// service uses.
type ComplianceAPI interface {
	ListTemplates(ctx context.Context) (*compliance.ListResult, error)
	FetchTemplate(ctx context.Context, id string) (json.RawMessage, error)
	SaveTemplate(ctx context.Context, payload compliance.RemotePayload, action string) (json.RawMessage, error)
}

// IntegrationService moves templates between local storage and the
// compliance service.
type IntegrationService struct {
	client  ComplianceAPI
	codec   *codec.Codec
	storage *TemplateStorage
	logger  domain.Logger
	metrics domain.Metrics
	now     func() time.Time
}

func NewIntegrationService(
	client ComplianceAPI,
	c *codec.Codec,
	storage *TemplateStorage,
	logger domain.Logger,
	metrics domain.Metrics,
) *IntegrationService {
	return &IntegrationService{
		client:  client,
		codec:   c,
		storage: storage,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// ListRemote returns the remote listing or its discovery payload.
func (s *IntegrationService) ListRemote(ctx context.Context) (*compliance.ListResult, error) {
	return s.client.ListTemplates(ctx)
}

// PullTemplate imports a remote template through the bare template path
// and stores it. The copy gets a fresh id; the remote id is kept as its
// source template id.
func (s *IntegrationService) PullTemplate(ctx context.Context, remoteID string) (*domain.Template, error) {
	raw, err := s.client.FetchTemplate(ctx, remoteID)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, apperrors.NewProcessingError("remote template is not a JSON object", err)
	}

	name := jsonString(fields["name"])
	if name == "" {
		name = jsonString(fields["title"])
	}
	if name == "" {
		name = "Untitled Template"
	}
	sourceID := jsonString(fields["id"])
	if sourceID == "" {
		sourceID = remoteID
	}

	fields["name"], _ = json.Marshal(name + importedSuffix)
	if elements, ok := fields["elements"]; !ok || string(elements) == "null" {
		fields["elements"] = json.RawMessage("[]")
	}
	delete(fields, "id")
	delete(fields, "type")

	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode remote template: %w", err)
	}
	res := s.codec.ImportJSON(payload)
	s.metrics.TemplateImported(complianceSourceApp, res.Success)
	if !res.Success {
		return nil, apperrors.NewImportError("remote template could not be imported", res.Errors)
	}

	t := res.Template
	t.SourceApp = complianceSourceApp
	t.SourceTemplateID = sourceID
	if err := s.storage.SaveTemplate(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("Pulled compliance template", "remote_id", sourceID, "id", t.ID)
	return t, nil
}

// RemotePayloadFor maps a template to the shape the compliance service
// stores.
func RemotePayloadFor(t *domain.Template, now time.Time) compliance.RemotePayload {
	id := t.SourceTemplateID
	if id == "" {
		id = t.ID
	}
	return compliance.RemotePayload{
		ID:                 id,
		Name:               strings.Replace(t.Name, importedSuffix, "", 1),
		Description:        t.Description,
		Elements:           t.AllElements(),
		PageSize:           t.PageSize,
		Orientation:        t.Orientation,
		UpdatedAt:          now.UTC().Format(isoMillis),
		UpdatedBy:          "DocBuilder",
		SourceDocBuilderID: t.ID,
	}
}

// PushTemplate sends a stored template to the compliance service.
func (s *IntegrationService) PushTemplate(ctx context.Context, templateID, action string) (json.RawMessage, error) {
	t, err := s.storage.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	result, err := s.client.SaveTemplate(ctx, RemotePayloadFor(t, s.now()), action)
	if err != nil {
		s.logger.Warn("Compliance push failed", "id", templateID, "error", err)
		return nil, err
	}
	s.logger.Info("Template pushed to compliance", "id", templateID)
	return result, nil
}

func jsonString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}
