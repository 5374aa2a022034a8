package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"docbuilder/internal/domain"
)

// Saving an existing id replaces it in place
func TestTemplateStorage_SaveUpsert(t *testing.T) {
	ctx := context.Background()
	storage, _, metrics := newTestStorage(NewMockStore())

	if err := storage.SaveTemplate(ctx, testTemplate("a", "First")); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := storage.SaveTemplate(ctx, testTemplate("b", "Second")); err != nil {
		t.Fatalf("save b: %v", err)
	}
	if err := storage.SaveTemplate(ctx, testTemplate("a", "Renamed")); err != nil {
		t.Fatalf("save a again: %v", err)
	}

	res, err := storage.LoadTemplates(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Templates) != 2 {
		t.Fatalf("Expected 2 templates, got %d", len(res.Templates))
	}
	if res.Templates[0].ID != "a" || res.Templates[0].Name != "Renamed" {
		t.Errorf("Expected first template to be renamed in place, got %s/%s", res.Templates[0].ID, res.Templates[0].Name)
	}
	if res.Recovered {
		t.Errorf("Expected recovered=false")
	}
	if metrics.count("storage:save:ok") != 3 {
		t.Errorf("Expected 3 save metrics, got %d", metrics.count("storage:save:ok"))
	}
}

// Saving stores a copy, later edits to the caller's value are not persisted
func TestTemplateStorage_SaveStoresCopy(t *testing.T) {
	ctx := context.Background()
	storage, _, _ := newTestStorage(NewMockStore())

	tpl := testTemplate("a", "Original")
	_ = storage.SaveTemplate(ctx, tpl)
	tpl.Name = "Changed"

	got, err := storage.GetTemplate(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Original" {
		t.Errorf("Expected stored name Original, got %s", got.Name)
	}
}

func TestTemplateStorage_SaveRequiresID(t *testing.T) {
	storage, _, _ := newTestStorage(NewMockStore())
	if err := storage.SaveTemplate(context.Background(), testTemplate("", "x")); err == nil {
		t.Errorf("Expected error for template without id")
	}
}

// A corrupt envelope is replaced by an empty one and reported as recovered
func TestTemplateStorage_CorruptRecovery(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{broken"},
		{"missing version", `{"templates":[]}`},
		{"numeric version", `{"version":1,"templates":[]}`},
		{"missing templates", `{"version":"1.0"}`},
		{"null templates", `{"version":"1.0","templates":null}`},
		{"templates not array", `{"version":"1.0","templates":{"a":1}}`},
		{"null template entry", `{"version":"1.0","lastUpdated":"x","templates":[null]}`},
		{"template without id", `{"version":"1.0","templates":[{"name":"No id"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMockStore()
			store.data["pdfmaker_templates"] = tt.raw
			storage, logger, metrics := newTestStorage(store)

			res, err := storage.LoadTemplates(context.Background())
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if !res.Recovered {
				t.Errorf("Expected recovered=true")
			}
			if len(res.Templates) != 0 {
				t.Errorf("Expected no templates, got %d", len(res.Templates))
			}
			if !logger.has("WARN: Storage corrupted") {
				t.Errorf("Expected corruption warning, got %v", logger.messages)
			}
			if metrics.count("recovered") != 1 {
				t.Errorf("Expected recovery metric")
			}

			if err := storage.SaveTemplate(context.Background(), testTemplate("tpl-1", "After reset")); err != nil {
				t.Fatalf("Expected save after reset to succeed, got %v", err)
			}
			if _, err := storage.GetTemplate(context.Background(), "tpl-1"); err != nil {
				t.Errorf("Expected saved template to be readable, got %v", err)
			}
		})
	}
}

func TestTemplateStorage_StoreFailure(t *testing.T) {
	store := NewMockStore()
	store.failGet = true
	storage, _, metrics := newTestStorage(store)

	if _, err := storage.LoadTemplates(context.Background()); err == nil {
		t.Fatalf("Expected store error")
	}
	if metrics.count("storage:load:error") != 1 {
		t.Errorf("Expected load error metric")
	}
}

func TestTemplateStorage_GetMissing(t *testing.T) {
	storage, _, _ := newTestStorage(NewMockStore())
	if _, err := storage.GetTemplate(context.Background(), "nope"); !errors.Is(err, domain.ErrTemplateNotFound) {
		t.Errorf("Expected ErrTemplateNotFound, got %v", err)
	}
}

// Deleting an unknown id does not touch the store
func TestTemplateStorage_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	storage, _, _ := newTestStorage(store)
	_ = storage.SaveTemplate(ctx, testTemplate("a", "A"))
	writes := store.sets

	deleted, err := storage.DeleteTemplate(ctx, "missing")
	if err != nil || deleted {
		t.Fatalf("Expected (false, nil), got (%v, %v)", deleted, err)
	}
	if store.sets != writes {
		t.Errorf("Expected no write for unknown id")
	}

	deleted, err = storage.DeleteTemplate(ctx, "a")
	if err != nil || !deleted {
		t.Fatalf("Expected (true, nil), got (%v, %v)", deleted, err)
	}
	info, _ := storage.Info(ctx)
	if info.Count != 0 {
		t.Errorf("Expected empty storage, got %d", info.Count)
	}
}

// The exported envelope can be imported into another storage
func TestTemplateStorage_ExportImport(t *testing.T) {
	ctx := context.Background()
	src, _, _ := newTestStorage(NewMockStore())
	_ = src.SaveTemplate(ctx, testTemplate("a", "Alpha"))
	_ = src.SaveTemplate(ctx, testTemplate("b", "Beta <&>"))

	data, err := src.ExportAllAsJSON(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(data, "\n  \"version\": \"1.0\"") {
		t.Errorf("Expected two-space indented envelope, got %s", data)
	}
	if !strings.Contains(data, "Beta <&>") {
		t.Errorf("Expected unescaped HTML characters")
	}

	dst, _, _ := newTestStorage(NewMockStore())
	_ = dst.SaveTemplate(ctx, testTemplate("a", "Old Alpha"))
	summary, err := dst.ImportFromJSON(ctx, data)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !summary.Success || summary.Count != 2 || len(summary.Errors) != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	res, _ := dst.LoadTemplates(ctx)
	if len(res.Templates) != 2 || res.Templates[0].Name != "Alpha" {
		t.Errorf("Expected merge by id, got %d templates", len(res.Templates))
	}
}

func TestTemplateStorage_ImportErrors(t *testing.T) {
	ctx := context.Background()
	storage, _, _ := newTestStorage(NewMockStore())

	tests := []struct {
		name      string
		data      string
		success   bool
		count     int
		errPrefix string
	}{
		{"malformed", "{", false, 0, "Parse error: "},
		{"no templates", `{"version":"1.0"}`, false, 0, "Invalid format: templates array not found"},
		{"skips incomplete", `{"templates":[{"id":"x"},{"name":"y"},{"id":"z","name":"Z"}]}`, true, 1, ""},
		{"bad entry", `{"templates":[{"id":"q","name":"Q","elements":"nope"}]}`, true, 0, "Template 1: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := storage.ImportFromJSON(ctx, tt.data)
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if summary.Success != tt.success || summary.Count != tt.count {
				t.Errorf("summary = %+v", summary)
			}
			if tt.errPrefix == "" {
				if len(summary.Errors) != 0 {
					t.Errorf("unexpected errors %v", summary.Errors)
				}
				return
			}
			if len(summary.Errors) != 1 || !strings.HasPrefix(summary.Errors[0], tt.errPrefix) {
				t.Errorf("errors = %v, want prefix %q", summary.Errors, tt.errPrefix)
			}
		})
	}
}

func TestTemplateStorage_ClearAndInfo(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	storage, _, _ := newTestStorage(store)
	_ = storage.SaveTemplate(ctx, testTemplate("a", "A"))

	if err := storage.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	info, err := storage.Info(ctx)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Count != 0 || info.LastUpdated != "2024-05-06T07:08:09.000Z" {
		t.Errorf("info = %+v", info)
	}

	var env map[string]interface{}
	if err := json.Unmarshal([]byte(store.data["pdfmaker_templates"]), &env); err != nil {
		t.Fatalf("stored envelope is not JSON: %v", err)
	}
	if env["version"] != StorageVersion {
		t.Errorf("version = %v", env["version"])
	}
}
