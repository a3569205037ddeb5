package oteladapters_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/librarydesk/librarystore/oteladapters"
)

type recordedLog struct {
	ctx      context.Context
	severity log.Severity
	body     log.Value
	attrs    map[string]log.Value
}

type recordingLoggerProvider struct {
	embedded.LoggerProvider
	logger *recordingLogger
}

func (p *recordingLoggerProvider) Logger(string, ...log.LoggerOption) log.Logger {
	return p.logger
}

type recordingLogger struct {
	embedded.Logger
	mu      sync.Mutex
	records []recordedLog
}

func (l *recordingLogger) Emit(ctx context.Context, record log.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	attrs := make(map[string]log.Value, record.AttributesLen())
	record.WalkAttributes(func(kv log.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})

	l.records = append(l.records, recordedLog{
		ctx:      ctx,
		severity: record.Severity(),
		body:     record.Body(),
		attrs:    attrs,
	})
}

func (l *recordingLogger) Enabled(context.Context, log.EnabledParameters) bool {
	return true
}

func (l *recordingLogger) attrs(i int) map[string]log.Value {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.records[i].attrs
}

func givenTracer() (trace.Tracer, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	return provider.Tracer("test"), exporter
}

func givenMeter() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("test")), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Metrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				return m
			}
		}
	}

	require.Failf(t, "metric not found", "metric %s was not collected", name)

	return metricdata.Metrics{}
}

func assertSpanHasAttribute(t *testing.T, span tracetest.SpanStub, key, expected string) {
	t.Helper()

	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			assert.Equal(t, expected, attr.Value.AsString(), "attribute %s", key)
			return
		}
	}

	assert.Failf(t, "attribute not found", "span %s has no attribute %s", span.Name, key)
}

func Test_MetricsCollector_RecordDuration_RecordsSecondsInAHistogram(t *testing.T) {
	// arrange
	collector, reader := givenMeter()

	// act
	collector.RecordDuration("sqlengine_statement_duration_seconds", 250*time.Millisecond, map[string]string{
		"fetch_mode": "fetch_all",
		"status":     "success",
	})

	// assert
	m := collect(t, reader, "sqlengine_statement_duration_seconds")
	assert.Equal(t, "s", m.Unit)

	histogram, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "expected a float64 histogram")
	require.Len(t, histogram.DataPoints, 1)
	assert.Equal(t, uint64(1), histogram.DataPoints[0].Count)
	assert.InDelta(t, 0.25, histogram.DataPoints[0].Sum, 0.0001)

	value, found := histogram.DataPoints[0].Attributes.Value(attribute.Key("fetch_mode"))
	assert.True(t, found)
	assert.Equal(t, "fetch_all", value.AsString())
}

func Test_MetricsCollector_IncrementCounter_AddsOnePerCall(t *testing.T) {
	// arrange
	collector, reader := givenMeter()
	labels := map[string]string{"outcome": "committed"}

	// act
	collector.IncrementCounter("sqlengine_transactions_total", labels)
	collector.IncrementCounterContext(context.Background(), "sqlengine_transactions_total", labels)

	// assert
	m := collect(t, reader, "sqlengine_transactions_total")

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum")
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
	assert.True(t, sum.IsMonotonic)
}

func Test_MetricsCollector_RecordValue_KeepsTheLastValue(t *testing.T) {
	// arrange
	collector, reader := givenMeter()

	// act
	collector.RecordValue("sqlengine_statement_rows", 3, nil)
	collector.RecordValueContext(context.Background(), "sqlengine_statement_rows", 7, nil)

	// assert
	m := collect(t, reader, "sqlengine_statement_rows")

	gauge, ok := m.Data.(metricdata.Gauge[float64])
	require.True(t, ok, "expected a float64 gauge")
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, float64(7), gauge.DataPoints[0].Value)
}

func Test_MetricsCollector_When_UsedConcurrently_CreatesEachInstrumentOnce(t *testing.T) {
	// arrange
	collector, reader := givenMeter()
	var wg sync.WaitGroup

	// act
	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			collector.IncrementCounter("library_borrow_total", map[string]string{"status": "success"})
		}()
	}

	wg.Wait()

	// assert
	sum, ok := collect(t, reader, "library_borrow_total").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(20), sum.DataPoints[0].Value)
}

func Test_TracingCollector_StartAndFinishSpan_RecordsAttributesAndStatus(t *testing.T) {
	// arrange
	tracer, exporter := givenTracer()
	collector := oteladapters.NewTracingCollector(tracer)

	// act
	_, spanCtx := collector.StartSpan(context.Background(), "sqlengine.execute", map[string]string{
		"fetch_mode": "fetch_one",
		"dialect":    "postgres",
	})
	spanCtx.AddAttribute("table", "books")
	collector.FinishSpan(spanCtx, "success", map[string]string{"rows_read": "1"})

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	span := spans[0]
	assert.Equal(t, "sqlengine.execute", span.Name)
	assert.Equal(t, codes.Ok, span.Status.Code)
	assertSpanHasAttribute(t, span, "fetch_mode", "fetch_one")
	assertSpanHasAttribute(t, span, "dialect", "postgres")
	assertSpanHasAttribute(t, span, "table", "books")
	assertSpanHasAttribute(t, span, "rows_read", "1")
}

func Test_TracingCollector_StatusMapping(t *testing.T) {
	testCases := []struct {
		status              string
		expectedCode        codes.Code
		expectedDescription string
	}{
		{"ok", codes.Ok, ""},
		{"success", codes.Ok, ""},
		{"committed", codes.Ok, ""},
		{"error", codes.Error, "operation failed"},
		{"failed", codes.Error, "operation failed"},
		{"canceled", codes.Error, "operation canceled"},
		{"timeout", codes.Error, "operation timed out"},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			// arrange
			tracer, exporter := givenTracer()
			collector := oteladapters.NewTracingCollector(tracer)

			// act
			_, spanCtx := collector.StartSpan(context.Background(), "test", nil)
			collector.FinishSpan(spanCtx, tc.status, nil)

			// assert
			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.expectedCode, spans[0].Status.Code)
			assert.Equal(t, tc.expectedDescription, spans[0].Status.Description)
		})
	}
}

func Test_TracingCollector_When_StatusIsUnknown_RecordsItAsAttribute(t *testing.T) {
	// arrange
	tracer, exporter := givenTracer()
	collector := oteladapters.NewTracingCollector(tracer)

	// act
	_, spanCtx := collector.StartSpan(context.Background(), "test", nil)
	collector.FinishSpan(spanCtx, "partial_write", nil)

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assertSpanHasAttribute(t, spans[0], "status", "partial_write")
}

func Test_TracingCollector_StartSpan_NestsUnderTheParentSpan(t *testing.T) {
	// arrange
	tracer, exporter := givenTracer()
	collector := oteladapters.NewTracingCollector(tracer)
	parentCtx, parent := tracer.Start(context.Background(), "http.request")

	// act
	_, spanCtx := collector.StartSpan(parentCtx, "sqlengine.transaction", nil)
	collector.FinishSpan(spanCtx, "success", nil)
	parent.End()

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, parent.SpanContext().TraceID(), spans[0].SpanContext.TraceID())
	assert.Equal(t, parent.SpanContext().SpanID(), spans[0].Parent.SpanID())
}

func Test_SlogBridgeLogger_WithHandler_WritesAllLevels(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "debug message", "copies", 2)
	logger.InfoContext(ctx, "info message")
	logger.WarnContext(ctx, "warn message")
	logger.ErrorContext(ctx, "error message")

	// assert
	output := buf.String()
	assert.Contains(t, output, `"level":"DEBUG","msg":"debug message","copies":2`)
	assert.Contains(t, output, `"msg":"info message"`)
	assert.Contains(t, output, `"msg":"warn message"`)
	assert.Contains(t, output, `"msg":"error message"`)
}

func Test_SlogBridgeLogger_WithProvider_PassesTheTraceContext(t *testing.T) {
	// arrange
	recorder := &recordingLogger{}
	logger := oteladapters.NewSlogBridgeLoggerWithProvider("test", &recordingLoggerProvider{logger: recorder})
	tracer, _ := givenTracer()
	ctx, span := tracer.Start(context.Background(), "borrow")
	defer span.End()

	// act
	logger.InfoContext(ctx, "book borrowed", "book_id", int64(7))

	// assert
	require.Len(t, recorder.records, 1)
	assert.Equal(t, "book borrowed", recorder.records[0].body.AsString())
	assert.Equal(t, span.SpanContext().TraceID(), trace.SpanContextFromContext(recorder.records[0].ctx).TraceID())
	assert.Equal(t, int64(7), recorder.attrs(0)["book_id"].AsInt64())
}

func Test_OTelLogger_EmitsRecordsWithSeverityAndTypedAttributes(t *testing.T) {
	// arrange
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "debug")
	logger.InfoContext(ctx, "info", "title", "Dune", "copies", 2, "ratio", 0.5, "active", true, "dangling")
	logger.WarnContext(ctx, "warn")
	logger.ErrorContext(ctx, "error", "delay", time.Second)

	// assert
	require.Len(t, recorder.records, 4)
	assert.Equal(t, log.SeverityDebug, recorder.records[0].severity)
	assert.Equal(t, log.SeverityInfo, recorder.records[1].severity)
	assert.Equal(t, log.SeverityWarn, recorder.records[2].severity)
	assert.Equal(t, log.SeverityError, recorder.records[3].severity)

	infoAttrs := recorder.attrs(1)
	assert.Len(t, infoAttrs, 4)
	assert.Equal(t, "Dune", infoAttrs["title"].AsString())
	assert.Equal(t, int64(2), infoAttrs["copies"].AsInt64())
	assert.InDelta(t, 0.5, infoAttrs["ratio"].AsFloat64(), 0.0001)
	assert.True(t, infoAttrs["active"].AsBool())

	assert.Equal(t, "1s", recorder.attrs(3)["delay"].AsString())
}
