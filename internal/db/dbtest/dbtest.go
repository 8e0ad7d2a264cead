// Package dbtest opens throwaway databases for package tests.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/stepup/internal/db"
)

// PostgresDSNEnv names the variable that enables Postgres-backed tests.
const PostgresDSNEnv = "TEST_POSTGRES_DSN"

func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	gdb.Logger = logger.Default.LogMode(logger.Silent)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() {
		_ = db.Close(gdb)
	})
	return gdb
}

// Postgres opens the database named by TEST_POSTGRES_DSN inside a fresh
// schema that is dropped on cleanup. The test is skipped when the variable is unset.
func Postgres(t testing.TB) *gorm.DB {
	t.Helper()

	base := os.Getenv(PostgresDSNEnv)
	if base == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}
	ctx := context.Background()
	schema := "t_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	admin, err := db.Open(ctx, db.DriverPostgres, base)
	require.NoError(t, err)
	require.NoError(t, admin.Exec("CREATE SCHEMA "+schema).Error)

	gdb, err := db.Open(ctx, db.DriverPostgres, withSearchPath(base, schema))
	require.NoError(t, err)
	gdb.Logger = logger.Default.LogMode(logger.Silent)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() {
		_ = db.Close(gdb)
		_ = admin.Exec("DROP SCHEMA " + schema + " CASCADE").Error
		_ = db.Close(admin)
	})
	return gdb
}

func withSearchPath(dsn, schema string) string {
	if !strings.Contains(dsn, "://") {
		return dsn + " search_path=" + schema
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&search_path=" + schema
	}
	return dsn + "?search_path=" + schema
}
