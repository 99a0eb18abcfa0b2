package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/domain/customer"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

// newTestDB opens an isolated in-memory sqlite database with every table migrated.
// A single connection keeps concurrent callers serialized like row locks would.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(AllModels()...))
	return db
}

// newMockGormDB opens a postgres flavored gorm handle on top of sqlmock
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return gormDB, mock, mockDB
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedCustomer(t *testing.T, db *gorm.DB, name, phone, email string) *customer.Customer {
	t.Helper()
	c, err := customer.NewCustomer(customer.Profile{Name: name, Phone: phone, Email: email}, testNow)
	require.NoError(t, err)
	require.NoError(t, NewGormCustomerRepository(db).Save(context.Background(), c))
	return c
}

// seedContract stores a contract with its generated schedule
func seedContract(t *testing.T, db *gorm.DB, customerID uuid.UUID, total, down string, n int, start time.Time) (*contract.Contract, []contract.Installment) {
	t.Helper()
	ctx := context.Background()
	contracts := NewGormContractRepository(db)
	number, err := contracts.NextContractNumber(ctx)
	require.NoError(t, err)

	c, err := contract.NewContract(customerID, number, contract.Terms{
		TotalAmount:          dec(total),
		DownPayment:          dec(down),
		NumberOfInstallments: n,
		StartDate:            start,
	}, "", testNow)
	require.NoError(t, err)
	require.NoError(t, contracts.Save(ctx, c))

	schedule, err := contract.GenerateSchedule(c, testNow)
	require.NoError(t, err)
	require.NoError(t, NewGormInstallmentRepository(db).SaveBatch(ctx, schedule))
	return c, schedule
}
