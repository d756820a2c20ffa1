// Package bootstrap runs the service lifecycle: it validates the typed
// config, starts registered components in order, runs hooks, blocks until a
// shutdown signal and then stops everything within a graceful timeout.
//
//	app, err := bootstrap.NewApp(&cfg, bootstrap.WithLogger(log))
//	app.RegisterComponent(httpServer)
//	app.OnStop(func(ctx context.Context) error { return orchestrator.Drain(ctx) })
//	err = app.Run(ctx)
package bootstrap
