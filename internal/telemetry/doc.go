// Package telemetry provides OpenTelemetry instrumentation for czar.
//
// # Overview
//
// Each czar invocation creates one Telemetry, wraps its command in spans
// and counts appended events. Export goes to an OTLP collector over
// HTTP/protobuf or gRPC. When disabled, tracers and meters are no-ops.
//
// # Usage
//
//	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.Telemetry, version))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//
//	ctx, span := tel.Tracer("czar").Start(ctx, "tracker.start")
//	defer span.End()
//
// # Configuration
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4318"
//	  protocol: "http/protobuf"   # or grpc
//
// # Error Handling
//
// Exporter construction failures are recorded in Degraded and the matching
// provider falls back to the global no-op.
//
// # Testing
//
//	tt := telemetry.NewTestTelemetry()
//	_, span := tt.Tracer("test").Start(ctx, "test-span")
//	span.End()
//	tt.AssertSpanExists(t, "test-span")
package telemetry
