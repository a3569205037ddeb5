// Package oteladapters implements the librarystore observability interfaces on top of OpenTelemetry.
//
// Wire them into the engine like this:
//
//	engine, err := sqlengine.NewEngineFromPGXPool(pool,
//		sqlengine.WithMetrics(oteladapters.NewMetricsCollector(otel.Meter("librarydesk"))),
//		sqlengine.WithTracing(oteladapters.NewTracingCollector(otel.Tracer("librarydesk"))),
//		sqlengine.WithContextualLogger(oteladapters.NewSlogBridgeLogger("librarydesk")),
//	)
//
// All adapters use whatever providers they are given, so tests can plug in the SDK's
// in-memory exporters and manual readers.
package oteladapters
