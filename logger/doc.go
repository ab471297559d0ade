// Package logger provides structured logging for tomopipe components
// using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("executor")
//	log.Info("run finished", logger.Fields("run_id", id))
package logger
