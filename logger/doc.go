// Package logger provides structured logging on top of zerolog.
//
// Components receive a *Logger from their constructor and tag it with
// WithComponent. Fields are passed as maps so call sites stay short:
//
//	log := base.WithComponent("orchestrator")
//	log.Info("job completed", logger.Fields(logger.FieldJobID, id, "segments", n))
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"   # or "console"
package logger
