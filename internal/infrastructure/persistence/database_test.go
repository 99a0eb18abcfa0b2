package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/installments/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	db, err := NewDatabase(&config.DatabaseConfig{MaxOpenConns: 4, MaxIdleConns: 2, ConnMaxLifetime: 5},
		WithDialector(postgres.New(postgres.Config{Conn: conn, DriverName: "postgres"})))
	require.NoError(t, err)
	return db, mock
}

func TestNewDatabase_AppliesPoolConfig(t *testing.T) {
	db, mock := newMockDatabase(t)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	assert.Equal(t, 4, sqlDB.Stats().MaxOpenConnections)

	mock.ExpectClose()
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewDatabase_PingFailure(t *testing.T) {
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer conn.Close()
	mock.ExpectPing().WillReturnError(assert.AnError)

	_, err = NewDatabase(&config.DatabaseConfig{},
		WithDialector(postgres.New(postgres.Config{Conn: conn, DriverName: "postgres"})))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping database")
}

func TestDatabase_PingContext(t *testing.T) {
	db, mock := newMockDatabase(t)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectPing()
	assert.NoError(t, db.PingContext(context.Background()))

	mock.ExpectPing().WillReturnError(assert.AnError)
	assert.ErrorIs(t, db.PingContext(context.Background()), assert.AnError)
}

func TestDatabase_AutoMigrate(t *testing.T) {
	db := &Database{DB: newTestDB(t)}

	require.NoError(t, db.AutoMigrate(context.Background()))
	for _, table := range []string{"customers", "contracts", "installments", "notifications", "settings"} {
		assert.True(t, db.DB.Migrator().HasTable(table), table)
	}
	assert.True(t, db.DB.Migrator().HasIndex("installments", "idx_installments_contract_number"))
}
