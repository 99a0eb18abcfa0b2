// Package testutil holds helpers shared by the installments backend tests:
// database fixtures, gin test contexts, bearer tokens and polling assertions.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/installments/backend/internal/infrastructure/auth"
	"github.com/installments/backend/internal/infrastructure/config"
	"github.com/installments/backend/internal/infrastructure/logger"
	"github.com/installments/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB wraps a postgres flavored GORM handle backed by sqlmock
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a mock database closed when the test ends
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err, "Failed to open GORM connection")

	t.Cleanup(func() { _ = mockDB.Close() })
	return &MockDB{DB: gormDB, Mock: mock, SqlDB: mockDB}
}

// ExpectationsWereMet fails the test on unmet sqlmock expectations
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}

// NewSQLiteDB opens a private in-memory sqlite database and migrates models.
// One connection serializes writers the way row locks would on postgres.
func NewSQLiteDB(t *testing.T, models ...any) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if len(models) > 0 {
		require.NoError(t, db.AutoMigrate(models...), "Failed to migrate test schema")
	}
	return db
}

// TestContext wraps a gin test context and its recorder
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
	Engine   *gin.Engine
}

// NewTestContext creates a gin test context serving GET /
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()
	return NewTestContextWithRequest(t, httptest.NewRequest(http.MethodGet, "/", nil))
}

// NewTestContextWithRequest creates a gin test context for req
func NewTestContextWithRequest(t *testing.T, req *http.Request) *TestContext {
	t.Helper()

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = req
	return &TestContext{Context: c, Recorder: w, Engine: engine}
}

// SetRequestID stores a request ID the way the RequestID middleware does
func (tc *TestContext) SetRequestID(id string) {
	tc.Context.Set(logger.RequestIDKey, id)
}

// SetUser stores the identity JWTAuth would derive from a token
func (tc *TestContext) SetUser(userID uuid.UUID, role auth.Role) {
	tc.Context.Set(middleware.JWTUserIDKey, userID.String())
	tc.Context.Set(middleware.JWTRoleKey, string(role))
	tc.Context.Set(middleware.JWTClaimsKey, &auth.Claims{UserID: userID.String(), Role: role})
}

// SetHeader sets a request header
func (tc *TestContext) SetHeader(key, value string) {
	tc.Context.Request.Header.Set(key, value)
}

// ResponseBody returns the recorded body
func (tc *TestContext) ResponseBody() []byte {
	return tc.Recorder.Body.Bytes()
}

// ResponseCode returns the recorded status code
func (tc *TestContext) ResponseCode() int {
	return tc.Recorder.Code
}

// TestJWTConfig is a signing configuration valid for tests only
func TestJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret: "installments-test-secret-at-least-32-chars",
		Issuer: "installments-test",
	}
}

// Tokens signs bearer tokens for a fixed test identity per role
type Tokens struct {
	Service *auth.JWTService
}

// NewTokens creates a token signer on clock
func NewTokens(clock shared.Clock) *Tokens {
	return &Tokens{Service: auth.NewJWTService(TestJWTConfig(), clock)}
}

// Bearer returns an Authorization header value for role
func (tk *Tokens) Bearer(t *testing.T, role auth.Role) string {
	t.Helper()
	token, _, err := tk.Service.Sign(auth.TokenInput{
		UserID:   NewTestUUID("user-" + string(role)),
		Username: string(role),
		Role:     role,
		TTL:      time.Hour,
	})
	require.NoError(t, err, "Failed to sign token")
	return middleware.BearerPrefix + token
}

// NewTestUUID derives a stable UUID from seed
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// ContextWithTimeout creates a context cancelled when the test ends
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// AssertEventually polls condition until it holds or timeout elapses
func AssertEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()
	if !WaitForCondition(t, condition, timeout, interval) {
		require.Fail(t, fmt.Sprintf("condition not met within %v", timeout), msgAndArgs...)
	}
}

// AssertNever fails if condition becomes true within duration
func AssertNever(t *testing.T, condition func() bool, duration, interval time.Duration, msgAndArgs ...any) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if condition() {
			require.Fail(t, "condition unexpectedly became true", msgAndArgs...)
		}
		time.Sleep(interval)
	}
}

// WaitForCondition reports whether condition held before timeout
func WaitForCondition(t *testing.T, condition func() bool, timeout, interval time.Duration) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(interval)
	}
	return condition()
}
