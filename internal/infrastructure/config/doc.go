// Package config handles loading and validating the catalog service
// configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with DOMOTICA_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Secrets (MQTT password, InfluxDB token) should be set via environment
// variables rather than committed to the config file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config
