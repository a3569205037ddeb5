// Package librarystore provides core abstractions and types for pooled, parameterized
// access to the relational library database.
//
// This package defines the fundamental types shared by the storage engine implementations,
// including fetch modes, consistency levels, observability interfaces and the common error
// definitions that form the storage error taxonomy.
//
// Error taxonomy:
//   - ErrConnectionFailure: no connection could be acquired after all retries
//   - ErrConstraintViolation: the database rejected a write (unique, foreign key, check)
//   - ErrPartialWrite: a transaction could not be rolled back after a successful write
//
// Common usage pattern:
//
//	engine, _ := sqlengine.NewEngineFromPGXPool(pool, sqlengine.WithLogger(logger))
//
//	stmt := engine.Builder().From("books").Select("book_id", "title").Prepared(true)
//	_, err := engine.QueryAll(ctx, stmt, func(row sqlengine.Row) error {
//		// scan the row
//	})
//
//	err = engine.InTransaction(ctx, func(ctx context.Context, tx *sqlengine.Tx) error {
//		// multiple dependent writes, committed or rolled back together
//	})
package librarystore
