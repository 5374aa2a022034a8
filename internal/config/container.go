package config

import (
	"context"
	"fmt"
	"io"

	"docbuilder/internal/codec"
	"docbuilder/internal/domain"
	"docbuilder/internal/infra/compliance"
	"docbuilder/internal/infra/supabase"
	"docbuilder/internal/metrics"
	"docbuilder/internal/render/pdf"
	"docbuilder/internal/repository"
	"docbuilder/internal/service"
	"docbuilder/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies
type Container struct {
	Config         domain.Config
	Logger         domain.Logger
	Metrics        *metrics.Metrics
	SupabaseClient domain.SupabaseClient

	Store          domain.KeyValueStore
	Codec          *codec.Codec
	Storage        *service.TemplateStorage
	Exporter       *service.TemplateExporter
	Sessions       *service.SessionManager
	Render         *service.RenderService
	Share          *service.ShareService
	Integration    *service.IntegrationService
	Compliance     *compliance.Client
	SyncRepository domain.SyncRepository
	Sync           *service.SyncService

	closers []io.Closer
}

// NewContainer creates a new dependency injection container
func NewContainer() (*Container, error) {
	config := NewConfig()
	appLogger := logger.NewLogger(config.GetLogLevel())
	m := metrics.New(nil)

	c := &Container{
		Config:  config,
		Logger:  appLogger,
		Metrics: m,
	}

	store, err := c.openStore()
	if err != nil {
		return nil, err
	}
	c.Store = store

	// Supabase backs the sync table and the document archive
	if config.GetSupabaseURL() != "" && config.GetSupabaseKey() != "" {
		syncLogger := appLogger.With("component", "sync")
		supabaseClient := supabase.NewSupabaseClient(config, syncLogger)
		if err := supabaseClient.Initialize(); err != nil {
			syncLogger.Error("Supabase unavailable, template sync disabled", err)
		} else {
			c.SupabaseClient = supabaseClient
			c.SyncRepository = repository.NewSupabaseSyncRepository(supabaseClient, syncLogger)
			c.Sync = service.NewSyncService(c.SyncRepository, config.GetWebhookURL(), config.GetSyncKey(), syncLogger, m)
		}
	}

	c.Codec = codec.New(appLogger)
	c.Storage = service.NewTemplateStorage(store, config.GetStorageKey(), appLogger, m)
	c.Exporter = service.NewTemplateExporter(c.Codec, repository.NewMemoryClipboard(), appLogger, m)
	c.Sessions = service.NewSessionManager(c.Storage, service.SessionOptions{
		HistoryDepth: config.GetHistoryDepth(),
		TTL:          config.GetSessionTTL(),
	}, appLogger.With("component", "sessions"), m)

	var archive service.Archiver
	bucket := service.NewStorageService(config.GetSupabaseURL(), config.GetSupabaseKey(), config.GetArchiveBucket())
	if bucket.Configured() {
		archive = bucket
	}
	c.Render = service.NewRenderService(pdf.NewRenderer(appLogger), c.Storage, c.Sessions, archive, appLogger, m)
	c.Share = service.NewShareService(config.GetJWTSecret(), c.Storage, c.Exporter, appLogger)

	complianceLogger := appLogger.With("component", "compliance")
	c.Compliance = compliance.NewClient(compliance.Options{
		BaseURL: config.GetComplianceURL(),
		APIKey:  config.GetComplianceAPIKey(),
		Timeout: config.GetComplianceTimeout(),
		RPS:     5,
		Burst:   5,
	}, complianceLogger, m)
	if !c.Compliance.Configured() {
		complianceLogger.Warn("WM Compliance API not configured, integration endpoints will answer 503")
	}
	c.Integration = service.NewIntegrationService(c.Compliance, c.Codec, c.Storage, complianceLogger, m)

	return c, nil
}

// openStore selects the key-value backend for the template envelope.
func (c *Container) openStore() (domain.KeyValueStore, error) {
	backend := c.Config.GetStorageBackend()
	switch backend {
	case "memory":
		c.Logger.Warn("Using in-memory template storage, templates are lost on restart")
		return repository.NewMemoryStore(), nil
	case "file", "":
		c.Logger.Info("Using file template storage", "path", c.Config.GetStoragePath())
		return repository.NewFileStore(c.Config.GetStoragePath(), c.Logger), nil
	case "redis":
		store := repository.NewRedisStore(&redis.Options{
			Addr:     c.Config.GetRedisAddr(),
			Password: c.Config.GetRedisPassword(),
			DB:       c.Config.GetRedisDB(),
		}, c.Logger)
		if err := store.Ping(context.Background()); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.closers = append(c.closers, store)
		c.Logger.Info("Using redis template storage", "addr", c.Config.GetRedisAddr())
		return store, nil
	case "sql":
		store, err := repository.OpenGormStore(c.Config.GetDatabaseDriver(), c.Config.GetDatabaseDSN(), c.Logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, store)
		c.Logger.Info("Using SQL template storage", "driver", c.Config.GetDatabaseDriver())
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// Close releases the storage backend connections.
func (c *Container) Close() {
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.Logger.Error("Failed to close storage backend", err)
		}
	}
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}
