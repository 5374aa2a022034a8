package domain

import (
	"context"
	"encoding/json"
	"time"
)

// SyncedTemplate is a template row in the shared sync table.
type SyncedTemplate struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description *string                `json:"description"`
	Elements    json.RawMessage        `json:"elements"`
	PageSize    string                 `json:"pageSize"`
	Orientation string                 `json:"orientation"`
	LayoutType  string                 `json:"layoutType"`
	SourceApp   string                 `json:"sourceApp"`
	ExternalID  *string                `json:"externalId"`
	Metadata    map[string]interface{} `json:"metadata"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// SyncTemplateInput carries the fields a create or update may set.
// Nil pointers and empty values leave the stored column untouched on update.
type SyncTemplateInput struct {
	ID          string                 `json:"id,omitempty"`
	Name        string                 `json:"name"`
	Description *string                `json:"description,omitempty"`
	Elements    json.RawMessage        `json:"elements,omitempty"`
	PageSize    string                 `json:"pageSize,omitempty"`
	Orientation string                 `json:"orientation,omitempty"`
	LayoutType  string                 `json:"layoutType,omitempty"`
	SourceApp   string                 `json:"sourceApp,omitempty"`
	ExternalID  *string                `json:"externalId,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// SyncRepository persists templates shared with external applications.
type SyncRepository interface {
	List(ctx context.Context) ([]*SyncedTemplate, error)
	Get(ctx context.Context, id string) (*SyncedTemplate, error)
	Create(ctx context.Context, in *SyncTemplateInput) (*SyncedTemplate, error)
	Update(ctx context.Context, in *SyncTemplateInput) (*SyncedTemplate, error)
	Delete(ctx context.Context, id string) error
}

// Sync webhook event names.
const (
	EventTemplateCreated = "template.created"
	EventTemplateUpdated = "template.updated"
	EventTemplateDeleted = "template.deleted"
)

// WebhookPayload is posted to the configured webhook after each sync change.
type WebhookPayload struct {
	Event     string          `json:"event"`
	Timestamp string          `json:"timestamp"`
	Template  *SyncedTemplate `json:"template"`
	Source    string          `json:"source"`
}
