// Package logging provides structured logging for Shadowline Core.
//
// It wraps Go's standard log/slog package to give every component the same
// structured, level-filtered output with default service/version fields.
//
// Logging is configured via LoggingConfig in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("device initialised", "device", name)
//	logger.Error("bus write failed", "error", err)
package logging
