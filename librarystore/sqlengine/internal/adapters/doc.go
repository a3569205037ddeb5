// Package adapters provide database adapter implementations for the sql engine.
//
// This package implements the adapter pattern to support multiple database libraries:
// pgxpool.Pool, direct pgx.Conn connections, sql.DB and sqlx.DB. All adapters provide
// equivalent functionality through a common DBAdapter interface, allowing the engine to work
// with any supported connection type.
//
// The adapters hand out single connections (DBConn) that are used for plain statements or
// for a transaction (DBTx) and must be released back to their pool exactly once.
package adapters
