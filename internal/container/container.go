package container

import (
	"fmt"
	"net/http"

	"go-chart-analyzer/internal/auth"
	"go-chart-analyzer/internal/config"
	"go-chart-analyzer/internal/gemini"
	"go-chart-analyzer/internal/history"
	"go-chart-analyzer/internal/pipeline"
	"go-chart-analyzer/internal/service"
	"go-chart-analyzer/internal/storage"
	"go-chart-analyzer/internal/transport"
)

// Container holds all application dependencies.
type Container struct {
	config   *config.Config
	model    *gemini.Client
	pipeline *pipeline.Pipeline
	service  service.AnalysisService
	handler  http.Handler
}

// NewContainer builds the dependency graph. The model client is
// constructed exactly once here and injected down; nothing else in the
// tree creates one.
func NewContainer(cfg *config.Config) (*Container, error) {
	model, err := gemini.NewClient(gemini.Config{
		APIKey:        cfg.GeminiAPIKey,
		BaseURL:       cfg.GeminiBaseURL,
		VisionModel:   cfg.VisionModel,
		ImageGenModel: cfg.ImageGenModel,
		TextModel:     cfg.TextModel,
		Timeout:       cfg.ModelCallTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	var archive storage.ScreenshotArchive = storage.NoopArchive{}
	if cfg.ArchiveEnabled() {
		archive, err = storage.NewAzureArchive(cfg.AzureStorageAccount, cfg.AzureStorageKey, cfg.AzureContainer)
		if err != nil {
			return nil, fmt.Errorf("failed to create screenshot archive: %w", err)
		}
	}

	pipe := pipeline.New(model, cfg.DisclaimerLanguage)
	store := history.NewStore(cfg.HistoryPath)
	svc := service.NewAnalysisService(pipe, store, archive)
	authenticator := auth.NewAuthenticator(cfg.AdminUserID, cfg.AdminPassword)
	handler := transport.NewHandler(svc, authenticator, cfg)

	return &Container{
		config:   cfg,
		model:    model,
		pipeline: pipe,
		service:  svc,
		handler:  handler,
	}, nil
}

// Handler returns the HTTP handler.
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration.
func (c *Container) Config() *config.Config {
	return c.config
}
