package main

import (
	"context"
	"errors"
	"os"

	"chinampa/assistant"
	"chinampa/geo"
	"chinampa/models"
	"chinampa/report"
	"chinampa/sources"

	"go.uber.org/zap"
)

type reportBuilder interface {
	Build(ctx context.Context, c models.Coordinate) (models.RawReport, error)
}

type advisor interface {
	Ask(ctx context.Context, message string, r *models.RawReport) (string, error)
	Recommend(ctx context.Context, r models.RawReport) ([]string, error)
}

type App struct {
	cfg      Config
	logger   *zap.Logger
	reports  reportBuilder
	advisor  advisor
	geocoder geo.ReverseGeocoder
}

func newApp(ctx context.Context, cfg Config, logger *zap.Logger) (*App, error) {
	var et sources.ETSource
	table, err := sources.LoadETForecast(cfg.ETForecastCSV)
	switch {
	case err == nil:
		logger.Info("evapotranspiration forecast loaded", zap.String("path", cfg.ETForecastCSV), zap.Int("rows", table.Len()))
		et = table
	case errors.Is(err, os.ErrNotExist):
		logger.Warn("evapotranspiration forecast not found, field will be null", zap.String("path", cfg.ETForecastCSV))
	default:
		return nil, err
	}

	kb, err := assistant.LoadKnowledge(cfg.KnowledgeFile)
	if err != nil {
		return nil, err
	}

	var model assistant.Model
	if cfg.GeminiAPIKey != "" {
		gm, err := assistant.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		model = gm
	} else {
		logger.Warn("GEMINI_API_KEY not set, /api/askAI will answer 503")
	}

	app := &App{
		cfg:    cfg,
		logger: logger,
		reports: &sources.Aggregator{
			Weather: &sources.Weather{
				Archive: &sources.OpenMeteoArchive{BaseURL: cfg.ArchiveURL},
				Current: &sources.OpenWeatherCurrent{BaseURL: cfg.OpenWeatherURL, APIKey: cfg.OpenWeatherAPIKey},
			},
			Satellite: &sources.Processor{BaseURL: cfg.ProcessorURI},
			ET:        et,
			Logger:    logger.Named("sources"),
		},
		advisor:  assistant.NewAdvisor(model, kb, logger.Named("assistant")),
		geocoder: geo.NewNominatimGeocoder(cfg.NominatimURL),
	}
	return app, nil
}

// localSource serves the report page from the in-process aggregator.
type localSource struct{ reports reportBuilder }

func (s localSource) FetchReport(ctx context.Context, c models.Coordinate) (models.ReportModel, error) {
	raw, err := s.reports.Build(ctx, c)
	if err != nil {
		return models.ReportModel{}, &report.FetchError{Kind: report.Transport, Err: err}
	}
	m := report.ToModel(raw)
	if m.Empty() {
		return models.ReportModel{}, &report.FetchError{Kind: report.NoData, Err: report.ErrNoData}
	}
	return m, nil
}
