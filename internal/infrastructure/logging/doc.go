// Package logging provides structured logging for the catalog service.
//
// It wraps log/slog: JSON output for production, text for development,
// level filtering, and default service and version fields on every record.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("starting service", "port", 8080)
//	rooms.SetLogger(logger.Component("rooms"))
//
// Never log secrets such as the MQTT password or the InfluxDB token.
package logging
