// Package observability wires OpenTelemetry tracing and metrics for the
// transcription pipeline. Each pipeline stage (normalize, recognize) gets a
// span and a duration sample; job outcomes are counted by status and code.
//
//	providers := observability.NewComponent(cfg.Observability, "transcriber", version.Version, log)
//	metrics, _ := observability.NewMetrics(observability.Meter("transcriber"))
//
//	ctx, end := observability.StartStage(ctx, metrics, "normalize", attribute.String("job.id", id))
//	outcome, err := normalize(ctx)
//	end(outcome.String(), err)
package observability
