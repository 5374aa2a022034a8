package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"docbuilder/internal/domain"
	apperrors "docbuilder/pkg/errors"
)

const (
	webhookSource   = "docbuilder"
	webhookAttempts = 3
)

// SyncService manages the shared template table and notifies the configured
// webhook after every change. Webhook failures are logged, never returned.
type SyncService struct {
	repo       domain.SyncRepository
	webhookURL string
	syncKey    string
	http       *http.Client
	backoff    time.Duration
	logger     domain.Logger
	metrics    domain.Metrics
	now        func() time.Time
}

func NewSyncService(
	repo domain.SyncRepository,
	webhookURL string,
	syncKey string,
	logger domain.Logger,
	metrics domain.Metrics,
) *SyncService {
	return &SyncService{
		repo:       repo,
		webhookURL: webhookURL,
		syncKey:    syncKey,
		http:       &http.Client{Timeout: 10 * time.Second},
		backoff:    500 * time.Millisecond,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Authorized reports whether key matches the configured sync key. An
// unconfigured key rejects everything.
func (s *SyncService) Authorized(key string) bool {
	return s.syncKey != "" && key == s.syncKey
}

func (s *SyncService) List(ctx context.Context) ([]*domain.SyncedTemplate, error) {
	return s.repo.List(ctx)
}

func (s *SyncService) Get(ctx context.Context, id string) (*domain.SyncedTemplate, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("Missing id parameter")
	}
	return s.repo.Get(ctx, id)
}

// Create inserts a template and emits template.created.
func (s *SyncService) Create(ctx context.Context, in *domain.SyncTemplateInput) (*domain.SyncedTemplate, error) {
	if in == nil || in.Name == "" {
		return nil, apperrors.NewValidationError("Missing template data")
	}
	created, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, domain.EventTemplateCreated, created)
	return created, nil
}

// Update changes the fields set on in and emits template.updated.
func (s *SyncService) Update(ctx context.Context, in *domain.SyncTemplateInput) (*domain.SyncedTemplate, error) {
	if in == nil || in.ID == "" {
		return nil, apperrors.NewValidationError("Missing template id")
	}
	updated, err := s.repo.Update(ctx, in)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, domain.EventTemplateUpdated, updated)
	return updated, nil
}

// Delete removes a template. template.deleted is only emitted when the
// template existed.
func (s *SyncService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.NewValidationError("Missing template id")
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrTemplateNotFound) {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if existing != nil {
		s.notify(ctx, domain.EventTemplateDeleted, existing)
	}
	return nil
}

func (s *SyncService) notify(ctx context.Context, event string, t *domain.SyncedTemplate) {
	if s.webhookURL == "" {
		s.logger.Debug("No webhook URL configured, skipping notification", "event", event)
		return
	}
	payload := domain.WebhookPayload{
		Event:     event,
		Timestamp: s.now().UTC().Format(isoMillis),
		Template:  t,
		Source:    webhookSource,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("Failed to encode webhook payload", err, "event", event)
		return
	}

	err = s.deliver(ctx, body)
	s.metrics.WebhookDelivery(event, err == nil)
	if err != nil {
		s.logger.Error("Webhook failed", err, "event", event, "template_id", t.ID)
		return
	}
	s.logger.Info("Webhook sent", "event", event, "template_id", t.ID)
}

// deliver posts body, retrying transport errors and 5xx responses.
func (s *SyncService) deliver(ctx context.Context, body []byte) error {
	var lastErr error
	for attempt := 0; attempt < webhookAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff << (attempt - 1)):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Sync-Key", s.syncKey)

		resp, err := s.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("webhook returned %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("webhook returned %d", resp.StatusCode)
		}
		return nil
	}
	return lastErr
}
