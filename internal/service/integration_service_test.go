package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"docbuilder/internal/codec"
	"docbuilder/internal/domain"
	"docbuilder/internal/infra/compliance"
	apperrors "docbuilder/pkg/errors"
)

type MockComplianceAPI struct {
	templates map[string]string
	saved     []compliance.RemotePayload
	actions   []string
	saveErr   error
}

func (m *MockComplianceAPI) ListTemplates(ctx context.Context) (*compliance.ListResult, error) {
	res := &compliance.ListResult{Success: true}
	for id := range m.templates {
		res.Templates = append(res.Templates, compliance.RemoteTemplate{ID: id})
	}
	return res, nil
}

func (m *MockComplianceAPI) FetchTemplate(ctx context.Context, id string) (json.RawMessage, error) {
	raw, ok := m.templates[id]
	if !ok {
		return nil, apperrors.NewNetworkError("Failed to fetch template details", errors.New("404"))
	}
	return json.RawMessage(raw), nil
}

func (m *MockComplianceAPI) SaveTemplate(ctx context.Context, payload compliance.RemotePayload, action string) (json.RawMessage, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.saved = append(m.saved, payload)
	m.actions = append(m.actions, action)
	return json.RawMessage(`{"success":true}`), nil
}

func newTestIntegration(api ComplianceAPI) (*IntegrationService, *TemplateStorage, *MockMetrics) {
	storage, logger, _ := newTestStorage(NewMockStore())
	metrics := NewMockMetrics()
	ids := 0
	c := codec.New(logger,
		codec.WithClock(func() time.Time { return fixedNow }),
		codec.WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("local-%d", ids)
		}),
	)
	svc := NewIntegrationService(api, c, storage, logger, metrics)
	svc.now = func() time.Time { return fixedNow }
	return svc, storage, metrics
}

// Pulled templates get a fresh id, an imported name and the remote id as source
func TestIntegrationService_PullTemplate(t *testing.T) {
	api := &MockComplianceAPI{templates: map[string]string{
		"r-1": `{"id":"r-1","name":"Site Inspection","type":"inspection","elements":[{"id":"e1","type":"text","content":"Hi","position":{"x":1,"y":2},"size":{"width":10,"height":5}}]}`,
		"r-2": `{"id":"r-2","title":"Titled Only","elements":null}`,
		"r-3": `{"description":"no name at all"}`,
	}}
	svc, storage, metrics := newTestIntegration(api)
	ctx := context.Background()

	tests := []struct {
		remoteID string
		name     string
		elements int
	}{
		{"r-1", "Site Inspection (Imported)", 1},
		{"r-2", "Titled Only (Imported)", 0},
		{"r-3", "Untitled Template (Imported)", 0},
	}

	for _, tt := range tests {
		t.Run(tt.remoteID, func(t *testing.T) {
			tpl, err := svc.PullTemplate(ctx, tt.remoteID)
			if err != nil {
				t.Fatalf("pull: %v", err)
			}
			if tpl.Name != tt.name {
				t.Errorf("Name = %q, want %q", tpl.Name, tt.name)
			}
			if tpl.ID == tt.remoteID || tpl.SourceTemplateID != tt.remoteID {
				t.Errorf("ids = %s/%s", tpl.ID, tpl.SourceTemplateID)
			}
			if tpl.SourceApp != "wm-compliance" {
				t.Errorf("SourceApp = %s", tpl.SourceApp)
			}
			if len(tpl.Elements) != tt.elements {
				t.Errorf("elements = %d, want %d", len(tpl.Elements), tt.elements)
			}
			if _, err := storage.GetTemplate(ctx, tpl.ID); err != nil {
				t.Errorf("Expected pulled template to be stored: %v", err)
			}
		})
	}
	if metrics.count("import:wm-compliance:true") != 3 {
		t.Errorf("Expected 3 successful imports, got %v", metrics.counts)
	}
}

func TestIntegrationService_PullTemplate_Errors(t *testing.T) {
	api := &MockComplianceAPI{templates: map[string]string{
		"array": `[1,2]`,
	}}
	svc, _, _ := newTestIntegration(api)
	ctx := context.Background()

	if _, err := svc.PullTemplate(ctx, "missing"); !apperrors.IsType(err, apperrors.ErrorTypeNetwork) {
		t.Errorf("Expected network error, got %v", err)
	}
	if _, err := svc.PullTemplate(ctx, "array"); !apperrors.IsType(err, apperrors.ErrorTypeProcessing) {
		t.Errorf("Expected processing error, got %v", err)
	}
}

func TestRemotePayloadFor(t *testing.T) {
	pulled := testTemplate("local-1", "Site Inspection (Imported)")
	pulled.SourceTemplateID = "r-1"
	pulled.Elements = []domain.DocumentElement{{ID: "e1", Type: domain.ElementText, Visible: true}}

	p := RemotePayloadFor(pulled, fixedNow)
	if p.ID != "r-1" || p.SourceDocBuilderID != "local-1" {
		t.Errorf("ids = %s/%s", p.ID, p.SourceDocBuilderID)
	}
	if p.Name != "Site Inspection" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.UpdatedBy != "DocBuilder" || p.UpdatedAt != "2024-05-06T07:08:09.000Z" {
		t.Errorf("update stamp = %s/%s", p.UpdatedBy, p.UpdatedAt)
	}
	if len(p.Elements) != 1 {
		t.Errorf("elements = %d", len(p.Elements))
	}

	local := RemotePayloadFor(testTemplate("only-local", "Local"), fixedNow)
	if local.ID != "only-local" {
		t.Errorf("Expected local id when no source id, got %s", local.ID)
	}
}

func TestIntegrationService_PushTemplate(t *testing.T) {
	api := &MockComplianceAPI{}
	svc, storage, _ := newTestIntegration(api)
	ctx := context.Background()
	_ = storage.SaveTemplate(ctx, testTemplate("tpl-1", "Local"))

	if _, err := svc.PushTemplate(ctx, "tpl-1", "publish"); err != nil {
		t.Fatalf("push: %v", err)
	}
	if len(api.saved) != 1 || api.actions[0] != "publish" || api.saved[0].ID != "tpl-1" {
		t.Errorf("unexpected save %+v %v", api.saved, api.actions)
	}

	api.saveErr = compliance.ErrSaveEndpointMissing
	if _, err := svc.PushTemplate(ctx, "tpl-1", ""); !errors.Is(err, compliance.ErrSaveEndpointMissing) {
		t.Errorf("Expected ErrSaveEndpointMissing, got %v", err)
	}
	if _, err := svc.PushTemplate(ctx, "missing", ""); !errors.Is(err, domain.ErrTemplateNotFound) {
		t.Errorf("Expected ErrTemplateNotFound, got %v", err)
	}
}
