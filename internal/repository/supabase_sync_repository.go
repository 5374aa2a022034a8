package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"docbuilder/internal/domain"

	"github.com/supabase-community/postgrest-go"
)

const syncTable = "templates"

// syncRow mirrors a row of the templates table.
type syncRow struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description *string                `json:"description"`
	Elements    json.RawMessage        `json:"elements"`
	PageSize    string                 `json:"page_size"`
	Orientation string                 `json:"orientation"`
	LayoutType  string                 `json:"layout_type"`
	SourceApp   string                 `json:"source_app"`
	ExternalID  *string                `json:"external_id"`
	Metadata    map[string]interface{} `json:"metadata"`
	CreatedAt   string                 `json:"created_at"`
	UpdatedAt   string                 `json:"updated_at"`
}

// SupabaseSyncRepository implements the domain.SyncRepository interface
type SupabaseSyncRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

// NewSupabaseSyncRepository creates a new Supabase sync repository
func NewSupabaseSyncRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.SyncRepository {
	return &SupabaseSyncRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

// List returns every synced template, most recently updated first
func (r *SupabaseSyncRepository) List(ctx context.Context) ([]*domain.SyncedTemplate, error) {
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From(syncTable).
		Select("*", "", false).
		Order("updated_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	return decodeSyncRows(data)
}

// Get retrieves a synced template by id
func (r *SupabaseSyncRepository) Get(ctx context.Context, id string) (*domain.SyncedTemplate, error) {
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From(syncTable).
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return firstSyncRow(data)
}

// Create inserts a template, filling the column defaults
func (r *SupabaseSyncRepository) Create(ctx context.Context, in *domain.SyncTemplateInput) (*domain.SyncedTemplate, error) {
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From(syncTable).
		Insert(insertValues(in), false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	created, err := firstSyncRow(data)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Synced template created", "id", created.ID, "source_app", created.SourceApp)
	return created, nil
}

// Update writes only the fields set on in
func (r *SupabaseSyncRepository) Update(ctx context.Context, in *domain.SyncTemplateInput) (*domain.SyncedTemplate, error) {
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From(syncTable).
		Update(updateValues(in), "representation", "").
		Eq("id", in.ID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}

	return firstSyncRow(data)
}

// Delete removes a synced template
func (r *SupabaseSyncRepository) Delete(ctx context.Context, id string) error {
	client := r.supabaseClient.DB()
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	if _, _, err := client.From(syncTable).Delete("", "").Eq("id", id).Execute(); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	r.logger.Info("Synced template deleted", "id", id)
	return nil
}

func insertValues(in *domain.SyncTemplateInput) map[string]interface{} {
	values := map[string]interface{}{
		"name":        in.Name,
		"description": nil,
		"elements":    json.RawMessage("[]"),
		"page_size":   orDefault(in.PageSize, string(domain.PageSizeA4)),
		"orientation": orDefault(in.Orientation, string(domain.OrientationPortrait)),
		"layout_type": orDefault(in.LayoutType, domain.LayoutDocument),
		"source_app":  orDefault(in.SourceApp, "api"),
		"external_id": nil,
		"metadata":    map[string]interface{}{},
	}
	if in.ID != "" {
		values["id"] = in.ID
	}
	if in.Description != nil && *in.Description != "" {
		values["description"] = *in.Description
	}
	if len(in.Elements) > 0 && string(in.Elements) != "null" {
		values["elements"] = in.Elements
	}
	if in.ExternalID != nil && *in.ExternalID != "" {
		values["external_id"] = *in.ExternalID
	}
	if in.Metadata != nil {
		values["metadata"] = in.Metadata
	}
	return values
}

// updateValues keeps unset fields out of the update. A non-nil empty
// description or external id clears the column.
func updateValues(in *domain.SyncTemplateInput) map[string]interface{} {
	values := map[string]interface{}{}
	if in.Name != "" {
		values["name"] = in.Name
	}
	if in.Description != nil {
		values["description"] = *in.Description
	}
	if len(in.Elements) > 0 && string(in.Elements) != "null" {
		values["elements"] = in.Elements
	}
	if in.PageSize != "" {
		values["page_size"] = in.PageSize
	}
	if in.Orientation != "" {
		values["orientation"] = in.Orientation
	}
	if in.LayoutType != "" {
		values["layout_type"] = in.LayoutType
	}
	if in.SourceApp != "" {
		values["source_app"] = in.SourceApp
	}
	if in.ExternalID != nil {
		values["external_id"] = *in.ExternalID
	}
	if in.Metadata != nil {
		values["metadata"] = in.Metadata
	}
	return values
}

func decodeSyncRows(data []byte) ([]*domain.SyncedTemplate, error) {
	var rows []syncRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	out := make([]*domain.SyncedTemplate, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func firstSyncRow(data []byte) (*domain.SyncedTemplate, error) {
	rows, err := decodeSyncRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrTemplateNotFound
	}
	return rows[0], nil
}

func (row *syncRow) toDomain() *domain.SyncedTemplate {
	elements := row.Elements
	if len(elements) == 0 || string(elements) == "null" {
		elements = json.RawMessage("[]")
	}
	return &domain.SyncedTemplate{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Elements:    elements,
		PageSize:    row.PageSize,
		Orientation: row.Orientation,
		LayoutType:  row.LayoutType,
		SourceApp:   row.SourceApp,
		ExternalID:  row.ExternalID,
		Metadata:    row.Metadata,
		CreatedAt:   parseTimestamp(row.CreatedAt),
		UpdatedAt:   parseTimestamp(row.UpdatedAt),
	}
}

func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	// timestamp without time zone columns come back without an offset
	if t, err := time.Parse("2006-01-02T15:04:05.999999", s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
