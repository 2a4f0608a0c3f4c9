package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/czar/internal/config"
	"github.com/fyrsmithlabs/czar/internal/logging"
	"github.com/fyrsmithlabs/czar/internal/telemetry"
	"github.com/fyrsmithlabs/czar/internal/tracker"
)

const instrumentationName = "github.com/fyrsmithlabs/czar/cmd/czar"

// options holds the persistent flag values.
type options struct {
	dir        string
	dataDir    string
	configPath string
	logLevel   string
}

// session is everything one command needs: configuration, diagnostics and
// an open tracker holding the data directory lock.
type session struct {
	cfg     *config.Config
	logger  *logging.Logger
	tel     *telemetry.Telemetry
	tracker *tracker.Tracker
}

// loadConfig assembles configuration and applies flag overrides on top.
func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFile(o.configPath)
	if err != nil {
		return nil, &configError{err: err}
	}

	if o.dataDir != "" {
		dir, err := filepath.Abs(config.ExpandHome(o.dataDir))
		if err != nil {
			return nil, &configError{err: fmt.Errorf("invalid data directory: %w", err)}
		}
		cfg.Data.Dir = dir
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, &configError{err: err}
	}
	return cfg, nil
}

// workDir returns the directory commands operate on.
func (o *options) workDir() (string, error) {
	if o.dir == "" {
		return os.Getwd()
	}
	return filepath.Abs(config.ExpandHome(o.dir))
}

// openSession wires config, logging, telemetry and the tracker in that
// order. Diagnostics go to stderr.
func openSession(ctx context.Context, o *options, stderr io.Writer) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.Telemetry, version))
	if err != nil {
		return nil, &configError{err: err}
	}

	logCfg, err := logging.FromAppConfig(cfg.Log, tel.IsEnabled())
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, &configError{err: err}
	}
	logCfg.Output.Writer = stderr

	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, &configError{err: fmt.Errorf("failed to initialize logger: %w", err)}
	}
	logger = logger.With(zap.String("version", version))

	for _, reason := range tel.Degraded() {
		logger.Warn(ctx, "telemetry degraded", zap.String("reason", reason))
	}

	tr, err := tracker.Open(ctx, cfg.Data.Dir,
		tracker.WithLogger(logger.Named("tracker")),
		tracker.WithTracer(tel.Tracer(instrumentationName)),
		tracker.WithMeter(tel.Meter(instrumentationName)),
	)
	if err != nil {
		_ = logger.Sync()
		_ = tel.Shutdown(ctx)
		return nil, err
	}

	logger.Debug(ctx, "session opened",
		zap.String("data_dir", cfg.Data.Dir),
		zap.Bool("telemetry", tel.IsEnabled()))

	return &session{cfg: cfg, logger: logger, tel: tel, tracker: tr}, nil
}

// Close releases the tracker lock and flushes diagnostics.
func (s *session) Close(ctx context.Context) {
	if err := s.tracker.Close(); err != nil {
		s.logger.Warn(ctx, "failed to close tracker", zap.Error(err))
	}
	if err := s.tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = s.logger.Sync() // Best-effort sync on exit
}
