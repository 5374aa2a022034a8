package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"docbuilder/internal/domain"
)

// StorageVersion is written into every envelope.
const StorageVersion = "1.0"

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// StorageEnvelope is the single document stored under the storage key.
type StorageEnvelope struct {
	Version     string             `json:"version"`
	LastUpdated string             `json:"lastUpdated"`
	Templates   []*domain.Template `json:"templates"`
}

// LoadResult reports the stored templates and whether a corrupt envelope
// was replaced while reading them.
type LoadResult struct {
	Templates []*domain.Template `json:"templates"`
	Recovered bool               `json:"recovered"`
}

// ImportSummary is the result of merging an exported envelope.
type ImportSummary struct {
	Success bool     `json:"success"`
	Count   int      `json:"count"`
	Errors  []string `json:"errors"`
}

// StorageInfo summarizes the envelope.
type StorageInfo struct {
	Count       int    `json:"count"`
	LastUpdated string `json:"lastUpdated"`
}

// TemplateStorage keeps templates in one versioned envelope on a
// domain.KeyValueStore. Corrupt envelopes are replaced with an empty one
// instead of failing the read.
type TemplateStorage struct {
	store   domain.KeyValueStore
	key     string
	logger  domain.Logger
	metrics domain.Metrics
	now     func() time.Time
	mu      sync.Mutex
}

func NewTemplateStorage(
	store domain.KeyValueStore,
	key string,
	logger domain.Logger,
	metrics domain.Metrics,
) *TemplateStorage {
	return &TemplateStorage{
		store:   store,
		key:     key,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

func (s *TemplateStorage) timestamp() string {
	return s.now().UTC().Format(isoMillis)
}

func (s *TemplateStorage) emptyEnvelope() *StorageEnvelope {
	return &StorageEnvelope{
		Version:     StorageVersion,
		LastUpdated: s.timestamp(),
		Templates:   []*domain.Template{},
	}
}

// load reads the envelope. Store errors are returned; anything unreadable
// in the stored value yields a fresh envelope and recovered=true.
func (s *TemplateStorage) load(ctx context.Context) (*StorageEnvelope, bool, error) {
	raw, found, err := s.store.Get(ctx, s.key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read storage: %w", err)
	}
	if !found || raw == "" {
		return s.emptyEnvelope(), false, nil
	}

	env, reason := decodeEnvelope(raw)
	if env == nil {
		s.logger.Warn("Storage corrupted, resetting", "key", s.key, "reason", reason)
		s.metrics.StorageRecovered()
		return s.emptyEnvelope(), true, nil
	}
	return env, false, nil
}

func decodeEnvelope(raw string) (*StorageEnvelope, string) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, err.Error()
	}
	var version string
	if err := json.Unmarshal(fields["version"], &version); err != nil || version == "" {
		return nil, "missing version"
	}
	templates, ok := fields["templates"]
	if !ok || string(templates) == "null" {
		return nil, "missing templates"
	}

	env := &StorageEnvelope{Version: version}
	_ = json.Unmarshal(fields["lastUpdated"], &env.LastUpdated)
	if err := json.Unmarshal(templates, &env.Templates); err != nil {
		return nil, "unreadable templates: " + err.Error()
	}
	if env.Templates == nil {
		env.Templates = []*domain.Template{}
	}
	for i, t := range env.Templates {
		if t == nil || t.ID == "" {
			return nil, fmt.Sprintf("template entry %d has no id", i)
		}
	}
	return env, ""
}

func (s *TemplateStorage) save(ctx context.Context, env *StorageEnvelope) error {
	env.LastUpdated = s.timestamp()
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode storage: %w", err)
	}
	if err := s.store.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}

// SaveTemplate inserts t or replaces the stored template with the same id.
func (s *TemplateStorage) SaveTemplate(ctx context.Context, t *domain.Template) (err error) {
	defer func() { s.metrics.StorageOperation("save", err) }()
	if t == nil || t.ID == "" {
		return fmt.Errorf("template id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	env, _, err := s.load(ctx)
	if err != nil {
		return err
	}
	stored := t.Clone()
	replaced := false
	for i, existing := range env.Templates {
		if existing.ID == t.ID {
			env.Templates[i] = stored
			replaced = true
			break
		}
	}
	if !replaced {
		env.Templates = append(env.Templates, stored)
	}
	if err := s.save(ctx, env); err != nil {
		return err
	}
	s.logger.Info("Template saved", "id", t.ID, "name", t.Name)
	return nil
}

// LoadTemplates returns every stored template in insertion order.
func (s *TemplateStorage) LoadTemplates(ctx context.Context) (LoadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, recovered, err := s.load(ctx)
	s.metrics.StorageOperation("load", err)
	if err != nil {
		return LoadResult{}, err
	}
	return LoadResult{Templates: env.Templates, Recovered: recovered}, nil
}

// GetTemplate returns domain.ErrTemplateNotFound when id is not stored.
func (s *TemplateStorage) GetTemplate(ctx context.Context, id string) (*domain.Template, error) {
	res, err := s.LoadTemplates(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range res.Templates {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, domain.ErrTemplateNotFound
}

// DeleteTemplate reports whether a template was removed. Nothing is written
// when id is unknown.
func (s *TemplateStorage) DeleteTemplate(ctx context.Context, id string) (deleted bool, err error) {
	defer func() { s.metrics.StorageOperation("delete", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	env, _, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	for i, t := range env.Templates {
		if t.ID == id {
			env.Templates = append(env.Templates[:i], env.Templates[i+1:]...)
			if err := s.save(ctx, env); err != nil {
				return false, err
			}
			s.logger.Info("Template deleted", "id", id)
			return true, nil
		}
	}
	return false, nil
}

// ClearAll replaces the envelope with an empty one.
func (s *TemplateStorage) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.save(ctx, s.emptyEnvelope())
	s.metrics.StorageOperation("clear", err)
	return err
}

// ExportAllAsJSON returns the whole envelope, indented.
func (s *TemplateStorage) ExportAllAsJSON(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, _, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return "", fmt.Errorf("failed to encode storage: %w", err)
	}
	s.metrics.TemplateExported("envelope")
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// ImportFromJSON merges the templates of an exported envelope by id.
// Entries without both an id and a name are skipped. Parse problems are
// reported in the summary; only store failures return an error.
func (s *TemplateStorage) ImportFromJSON(ctx context.Context, data string) (ImportSummary, error) {
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &parsed); err != nil {
		s.metrics.TemplateImported("envelope", false)
		return ImportSummary{Errors: []string{"Parse error: " + err.Error()}}, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(parsed["templates"], &entries); err != nil || entries == nil {
		s.metrics.TemplateImported("envelope", false)
		return ImportSummary{Errors: []string{"Invalid format: templates array not found"}}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	env, _, err := s.load(ctx)
	if err != nil {
		return ImportSummary{}, err
	}

	summary := ImportSummary{Success: true, Errors: []string{}}
	for i, raw := range entries {
		var t domain.Template
		if err := json.Unmarshal(raw, &t); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("Template %d: %s", i+1, err.Error()))
			continue
		}
		if t.ID == "" || t.Name == "" {
			continue
		}
		merged := false
		for j, existing := range env.Templates {
			if existing.ID == t.ID {
				env.Templates[j] = &t
				merged = true
				break
			}
		}
		if !merged {
			env.Templates = append(env.Templates, &t)
		}
		summary.Count++
	}

	if err := s.save(ctx, env); err != nil {
		return ImportSummary{}, err
	}
	s.metrics.TemplateImported("envelope", true)
	s.logger.Info("Templates imported", "count", summary.Count)
	return summary, nil
}

// Info returns the template count and the envelope's last update time.
func (s *TemplateStorage) Info(ctx context.Context) (StorageInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, _, err := s.load(ctx)
	if err != nil {
		return StorageInfo{}, err
	}
	return StorageInfo{Count: len(env.Templates), LastUpdated: env.LastUpdated}, nil
}
