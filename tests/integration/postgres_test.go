package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/installments/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// startPostgres runs a throwaway postgres and returns a connection to it.
// Skipped in -short mode and when no container runtime is reachable.
func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests are skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("installments_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, sqlDB.PingContext(ctx))
	return sqlDB
}

func migrateUp(t *testing.T, sqlDB *sql.DB) *migration.Migrator {
	t.Helper()
	m, err := migration.New(sqlDB, migration.Embedded(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	return m
}

func TestMigrations_UpAndDown(t *testing.T) {
	sqlDB := startPostgres(t)
	m := migrateUp(t, sqlDB)

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.EqualValues(t, 1, version)

	var tables int
	require.NoError(t, sqlDB.QueryRow(`SELECT count(*) FROM pg_tables WHERE schemaname = 'public'
		AND tablename IN ('customers','contracts','installments','notifications','settings')`).Scan(&tables))
	assert.Equal(t, 5, tables)

	require.NoError(t, m.Down())
	require.NoError(t, sqlDB.QueryRow(`SELECT count(*) FROM pg_tables WHERE schemaname = 'public'
		AND tablename IN ('customers','contracts','installments','notifications','settings')`).Scan(&tables))
	assert.Zero(t, tables)
}

func TestInstallmentLifecycle_Postgres(t *testing.T) {
	sqlDB := startPostgres(t)
	migrateUp(t, sqlDB)

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	runInstallmentLifecycle(t, newServerOn(t, db))
}
