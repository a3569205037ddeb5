package helper

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/librarydesk/circulation/shared/shell/config"
	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine"
)

// EnvAdapterType selects the adapter GivenEngineForAdapterUnderTest connects with.
const EnvAdapterType = "ADAPTER_TYPE"

// GivenEngineForAdapterUnderTest returns a migrated engine with empty tables for the adapter named by
// ADAPTER_TYPE (pgx, postgres, sqlx or mysql). The connection settings come from the DB_* variables.
// Without ADAPTER_TYPE, or with sqlite3, it is GivenMigratedEngine. The test is skipped if the
// server can't be reached.
func GivenEngineForAdapterUnderTest(t testing.TB, options ...sqlengine.Option) *sqlengine.Engine {
	t.Helper()

	adapterType := strings.ToLower(os.Getenv(EnvAdapterType))
	if adapterType == "" || adapterType == config.DriverSQLite {
		return GivenMigratedEngine(t, options...)
	}

	cfg, err := config.Load("", "")
	require.NoError(t, err, "error in loading test database config")

	cfg.Database.Driver = adapterType

	ctx := context.Background()

	engine, err := config.NewEngine(ctx, cfg.Database, options...)
	require.NoError(t, err, "error in arranging test engine for %s", adapterType)
	t.Cleanup(engine.Close)

	if _, pingErr := engine.Ping(ctx); pingErr != nil {
		t.Skipf("%s database not reachable: %v", adapterType, pingErr)
	}

	require.NoError(t, engine.Migrate(ctx), "error in arranging test schema")

	_, err = engine.ExecMany(ctx,
		engine.Builder().Delete(sqlengine.TableBorrowing),
		engine.Builder().Delete(sqlengine.TableMembers),
		engine.Builder().Delete(sqlengine.TableBooks),
	)
	require.NoError(t, err, "error in cleaning tables")

	return engine
}
