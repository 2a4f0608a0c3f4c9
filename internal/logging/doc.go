// Package logging provides structured diagnostic logging with OpenTelemetry integration.
//
// # Overview
//
// Logging package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Output on stderr, optionally mirrored to OpenTelemetry
//   - Automatic context field injection (trace_id, command, project.id)
//
// Diagnostics never go to stdout. Stdout belongs to command output.
//
// # Usage
//
//	cfg, err := logging.FromAppConfig(appCfg.Log, appCfg.Telemetry.Enabled)
//	if err != nil {
//	    return err
//	}
//	logger, err := logging.NewLogger(cfg, tel.LoggerProvider())
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
// Log with context:
//
//	ctx = logging.WithCommand(ctx, "start")
//	ctx = logging.WithProjectID(ctx, p.UUID)
//	logger.Debug(ctx, "pointer saved")
//
// # Testing
//
// Use TestLogger for test assertions:
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertField(t, "test message", "key", "value")
//
// # Concurrency Safety
//
// Logger is safe for concurrent use. Child loggers (With, Named) are
// independent and do not affect parent or siblings.
package logging
