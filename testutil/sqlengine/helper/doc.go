// Package helper provides test helpers for everything built on sqlengine: SQLite engines in
// temporary directories, fixture rows, and spies for logging, metrics and tracing.
package helper
