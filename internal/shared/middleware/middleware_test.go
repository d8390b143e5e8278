package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"billetter/internal/users"
	"billetter/pkg/cache"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newAuthHarness(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	engine := gin.New()
	engine.Use(BasicAuth(gormDB, cache.NewService(client), 15*time.Minute))
	engine.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, CurrentUser(c))
	})
	return engine, mock, mr
}

func basicHeader(email, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(email+":"+password))
}

func userRows(plain string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"user_id", "email", "password_hash", "password_plain",
		"first_name", "surname", "birthday", "registered_at", "is_active", "last_logged_in",
	}).AddRow(
		int64(1), "u@test.local", "-", plain,
		"Ivan", "Petrov", nil, time.Now(), true, time.Now(),
	)
}

func TestBasicAuthMissingHeader(t *testing.T) {
	engine, _, _ := newAuthHarness(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBasicAuthWrongPassword(t *testing.T) {
	engine, mock, _ := newAuthHarness(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows("correct"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", basicHeader("u@test.local", "wrong"))
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBasicAuthUnknownUser(t *testing.T) {
	engine, mock, _ := newAuthHarness(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnError(gorm.ErrRecordNotFound)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", basicHeader("nobody@test.local", "x"))
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBasicAuthSuccessCachesPrincipal(t *testing.T) {
	engine, mock, mr := newAuthHarness(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows("secret"))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET "last_logged_in"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", basicHeader("u@test.local", "secret"))
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"u@test.local"`)

	// Principal landed in the auth cache under the hashed password key.
	require.Len(t, mr.Keys(), 1)
	assert.Contains(t, mr.Keys()[0], "auth:u@test.local:")

	// Second request is served from the cache: no further DB traffic.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", basicHeader("u@test.local", "secret"))
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrentUserOutsideAuthIsZero(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Equal(t, users.Principal{}, CurrentUser(c))
}
