// Package sqlengine provides the connection pool manager of the library store.
//
// An Engine wraps one of several database handles (pgxpool, a direct pgx connection config,
// database/sql or sqlx) behind the same API. It acquires connections with bounded retries and
// exponential backoff, releases them on every exit path and rolls back failed writes.
//
// Key features:
//   - Multiple database adapter support (PGX pool, PGX direct, SQL, SQLX)
//   - PostgreSQL, MySQL and SQLite dialects via goqu, always with bound parameters
//   - Connection acquisition with per-attempt timeout, exponential backoff and a typed terminal error
//   - Fetch modes for writes, single-row and multi-row reads
//   - Transactions that roll back every write when any statement fails
//   - Optional read replica routing based on librarystore consistency levels
//   - Logging, metrics and tracing through dependency-free interfaces
//
// Usage examples:
//
//	pool, _ := pgxpool.New(context.Background(), dsn)
//	engine, _ := sqlengine.NewEngineFromPGXPool(pool, sqlengine.WithLogger(slog.Default()))
//
//	var title string
//	found, err := engine.QueryOne(ctx,
//		engine.Builder().From("books").Select("title").Where(goqu.C("book_id").Eq(42)),
//		func(row sqlengine.Row) error { return row.Scan(&title) },
//	)
//
//	err = engine.InTransaction(ctx, func(ctx context.Context, tx *sqlengine.Tx) error {
//		if _, err := tx.Exec(ctx, stmtOne); err != nil {
//			return err
//		}
//		_, err := tx.Exec(ctx, stmtTwo)
//		return err
//	})
package sqlengine
