// Package config loads the application configuration and builds the database engine, the slog logger
// and the OpenTelemetry providers from it.
//
// Configuration is layered: defaults, then an optional YAML file, then an optional .env file,
// then environment variables. The result is validated before use.
package config
