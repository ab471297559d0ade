// Package observability provides OpenTelemetry tracing and metrics
// integration for pipeline run observability.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, &tracerCfg)
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanPipelineRun)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &meterCfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("tomopipe"))
//	metrics.RecordRunEnd(ctx, "tomopipe", "ok", duration)
//
// Health Checks:
//
//	health := observability.NewServiceHealth("tomopipe", "1.0.0")
//	health.AddComponent(checker.CheckHealth(ctx))
package observability
