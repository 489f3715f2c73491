package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	httpadapter "github.com/couchcryptid/snowpack-swe/internal/adapter/http"
	"github.com/couchcryptid/snowpack-swe/internal/adapter/csvsource"
	kafkaadapter "github.com/couchcryptid/snowpack-swe/internal/adapter/kafka"
	"github.com/couchcryptid/snowpack-swe/internal/adapter/mapbox"
	"github.com/couchcryptid/snowpack-swe/internal/config"
	"github.com/couchcryptid/snowpack-swe/internal/domain"
	"github.com/couchcryptid/snowpack-swe/internal/observability"
	"github.com/couchcryptid/snowpack-swe/internal/pipeline"
	"github.com/couchcryptid/snowpack-swe/internal/render"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	catalog := domain.NiwotCatalog()

	// Place names are optional (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		geocoder = mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	source := csvsource.New(cfg.CSVPath, logger)
	years := domain.YearRange{First: cfg.FirstYear, Last: cfg.LastYear}
	builder := pipeline.NewReportBuilder(catalog, years, source.Path(), geocoder, logger, metrics)

	loaders := []pipeline.Loader{
		render.NewChartWriter(cfg.OutputDir, logger),
		render.NewSiteMapWriter(cfg.OutputDir, catalog, logger),
		render.NewAnimationWriter(cfg.OutputDir, catalog, cfg.AnimationFrameDelay, cfg.AnimationLoops, cfg.AnimationFrames, logger),
		render.NewReportWriter(cfg.OutputDir, logger),
	}
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loaders = append(loaders, writer)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	p := pipeline.New(source, builder, loaders, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, cfg.OutputDir, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	exitCode := 0
	report, err := p.Run(ctx)
	if err != nil {
		logger.Error("pipeline error", "error", err)
		exitCode = 1
	} else {
		logger.Info("report written",
			"output_dir", cfg.OutputDir,
			"sites", len(report.Sites),
			"excluded_sites", report.ExcludedSites,
			"observations", report.Clean.Retained,
		)
	}

	if cfg.MetricsTextfile != "" {
		if err := observability.WriteTextfile(cfg.MetricsTextfile, prometheus.DefaultGatherer); err != nil {
			logger.Error("metrics textfile error", "error", err)
		}
	}

	// With an HTTP server the report stays available until shutdown is requested.
	if srv != nil && exitCode == 0 {
		logger.Info("serving report", "addr", cfg.HTTPAddr)
		<-ctx.Done()
	}

	logger.Info("shutting down")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		cancel()
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	stop()
	os.Exit(exitCode)
}
