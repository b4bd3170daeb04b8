package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ppiankov/spacetraveling/internal/cms"
	"github.com/ppiankov/spacetraveling/internal/config"
	"github.com/ppiankov/spacetraveling/internal/logging"
	"github.com/ppiankov/spacetraveling/internal/site"
)

// app bundles what every content command needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	client *cms.Client
	site   *site.Site
}

func loadApp() (*app, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.Init(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	client, err := newClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	s, err := site.New(site.Options{
		Source:         client,
		DocumentType:   cfg.CMS.DocumentType,
		PageSize:       cfg.CMS.PageSize,
		Orderings:      cfg.CMS.Orderings,
		Title:          cfg.Site.Title,
		BaseURL:        cfg.Site.BaseURL,
		Locale:         cfg.Site.Locale,
		WordsPerMinute: cfg.Site.WordsPerMinute,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, client: client, site: s}, nil
}

func newClient(cfg *config.Config, logger *slog.Logger) (*cms.Client, error) {
	client, err := cms.New(cms.Options{
		Endpoint:    cfg.CMS.Endpoint,
		AccessToken: cfg.CMS.AccessToken,
		Timeout:     cfg.CMS.Timeout.Duration,
		MaxRetries:  cfg.CMS.MaxRetries,
		RateLimit:   cfg.CMS.RateLimit.Duration,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("cms client: %w", err)
	}
	return client, nil
}
