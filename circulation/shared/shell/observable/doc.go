// Package observable provides wrappers that instrument command and query handlers
// with metrics, tracing and logging while keeping the handlers free of those concerns.
//
// The wrappers are applied externally at wiring time:
//
//	coreHandler := borrowbook.NewCommandHandler(engine)
//
//	handler, err := observable.NewCommandWrapper[borrowbook.Command](
//		coreHandler,
//		observable.WithCommandMetrics[borrowbook.Command](metricsCollector),
//		observable.WithCommandTracing[borrowbook.Command](tracingCollector),
//		observable.WithCommandContextualLogging[borrowbook.Command](logger),
//	)
//
// Business rejections (unknown member, no copies left, duplicate email, ...) are reported
// with the status "rejected" and logged as warnings. Technical failures are reported as
// "error", "connection_failure", "canceled" or "timeout" and logged as errors.
//
// For tests focused on business logic, use the handlers without any wrapper.
package observable
