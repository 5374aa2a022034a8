package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"docbuilder/internal/domain"
	apperrors "docbuilder/pkg/errors"
)

type MockSyncRepository struct {
	rows map[string]*domain.SyncedTemplate
}

func NewMockSyncRepository() *MockSyncRepository {
	return &MockSyncRepository{rows: make(map[string]*domain.SyncedTemplate)}
}

func (m *MockSyncRepository) List(ctx context.Context) ([]*domain.SyncedTemplate, error) {
	out := []*domain.SyncedTemplate{}
	for _, row := range m.rows {
		out = append(out, row)
	}
	return out, nil
}

func (m *MockSyncRepository) Get(ctx context.Context, id string) (*domain.SyncedTemplate, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrTemplateNotFound
	}
	return row, nil
}

func (m *MockSyncRepository) Create(ctx context.Context, in *domain.SyncTemplateInput) (*domain.SyncedTemplate, error) {
	id := in.ID
	if id == "" {
		id = "generated"
	}
	row := &domain.SyncedTemplate{ID: id, Name: in.Name, SourceApp: "api"}
	m.rows[id] = row
	return row, nil
}

func (m *MockSyncRepository) Update(ctx context.Context, in *domain.SyncTemplateInput) (*domain.SyncedTemplate, error) {
	row, ok := m.rows[in.ID]
	if !ok {
		return nil, domain.ErrTemplateNotFound
	}
	if in.Name != "" {
		row.Name = in.Name
	}
	return row, nil
}

func (m *MockSyncRepository) Delete(ctx context.Context, id string) error {
	delete(m.rows, id)
	return nil
}

type webhookRecorder struct {
	mu       sync.Mutex
	payloads []domain.WebhookPayload
	keys     []string
	statuses []int
}

func (w *webhookRecorder) handler(t *testing.T) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		w.mu.Lock()
		defer w.mu.Unlock()

		status := http.StatusOK
		if len(w.statuses) > 0 {
			status, w.statuses = w.statuses[0], w.statuses[1:]
		}
		var p domain.WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("webhook body: %v", err)
		}
		w.payloads = append(w.payloads, p)
		w.keys = append(w.keys, r.Header.Get("X-Sync-Key"))
		rw.WriteHeader(status)
	}
}

func newTestSync(t *testing.T, statuses ...int) (*SyncService, *MockSyncRepository, *webhookRecorder, *MockMetrics) {
	t.Helper()
	rec := &webhookRecorder{statuses: statuses}
	srv := httptest.NewServer(rec.handler(t))
	t.Cleanup(srv.Close)

	repo := NewMockSyncRepository()
	metrics := NewMockMetrics()
	svc := NewSyncService(repo, srv.URL, "sync-key", NewMockLogger(), metrics)
	svc.backoff = time.Millisecond
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, rec, metrics
}

func TestSyncService_Authorized(t *testing.T) {
	svc := NewSyncService(NewMockSyncRepository(), "", "sync-key", NewMockLogger(), NewMockMetrics())
	if !svc.Authorized("sync-key") || svc.Authorized("wrong") || svc.Authorized("") {
		t.Errorf("unexpected authorization result")
	}
	open := NewSyncService(NewMockSyncRepository(), "", "", NewMockLogger(), NewMockMetrics())
	if open.Authorized("") {
		t.Errorf("Expected an unset key to reject every request")
	}
}

// Every change posts a webhook carrying the event and the row
func TestSyncService_Webhooks(t *testing.T) {
	svc, repo, rec, metrics := newTestSync(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &domain.SyncTemplateInput{ID: "t1", Name: "Template"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Update(ctx, &domain.SyncTemplateInput{ID: created.ID, Name: "Renamed"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(repo.rows) != 0 {
		t.Errorf("Expected row to be deleted")
	}

	want := []string{domain.EventTemplateCreated, domain.EventTemplateUpdated, domain.EventTemplateDeleted}
	if len(rec.payloads) != len(want) {
		t.Fatalf("Expected %d webhooks, got %d", len(want), len(rec.payloads))
	}
	for i, p := range rec.payloads {
		if p.Event != want[i] {
			t.Errorf("webhook %d event = %s, want %s", i, p.Event, want[i])
		}
		if p.Source != "docbuilder" || p.Timestamp != "2024-05-06T07:08:09.000Z" || p.Template == nil {
			t.Errorf("webhook %d = %+v", i, p)
		}
		if rec.keys[i] != "sync-key" {
			t.Errorf("webhook %d X-Sync-Key = %q", i, rec.keys[i])
		}
	}
	if metrics.count("webhook:template.created:true") != 1 {
		t.Errorf("Expected delivery metric, got %v", metrics.counts)
	}
}

// Deleting an id that does not exist succeeds without a webhook
func TestSyncService_DeleteMissing(t *testing.T) {
	svc, _, rec, _ := newTestSync(t)
	if err := svc.Delete(context.Background(), "ghost"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(rec.payloads) != 0 {
		t.Errorf("Expected no webhook, got %d", len(rec.payloads))
	}
}

func TestSyncService_WebhookRetry(t *testing.T) {
	tests := []struct {
		name     string
		statuses []int
		calls    int
		success  bool
	}{
		{"recovers after 5xx", []int{500, 502}, 3, true},
		{"gives up after three attempts", []int{503, 503, 503}, 3, false},
		{"no retry on 4xx", []int{400}, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, rec, metrics := newTestSync(t, tt.statuses...)
			if _, err := svc.Create(context.Background(), &domain.SyncTemplateInput{Name: "T"}); err != nil {
				t.Fatalf("create must not fail on webhook errors: %v", err)
			}
			if len(rec.payloads) != tt.calls {
				t.Errorf("Expected %d calls, got %d", tt.calls, len(rec.payloads))
			}
			key := "webhook:template.created:false"
			if tt.success {
				key = "webhook:template.created:true"
			}
			if metrics.count(key) != 1 {
				t.Errorf("Expected metric %s, got %v", key, metrics.counts)
			}
		})
	}
}

func TestSyncService_Validation(t *testing.T) {
	svc, _, _, _ := newTestSync(t)
	ctx := context.Background()

	if _, err := svc.Get(ctx, ""); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Get: expected validation error, got %v", err)
	}
	if _, err := svc.Create(ctx, &domain.SyncTemplateInput{}); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Create: expected validation error, got %v", err)
	}
	if _, err := svc.Update(ctx, &domain.SyncTemplateInput{Name: "x"}); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Update: expected validation error, got %v", err)
	}
	if err := svc.Delete(ctx, ""); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Delete: expected validation error, got %v", err)
	}
}
