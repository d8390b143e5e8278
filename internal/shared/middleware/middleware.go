package middleware

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"billetter/internal/shared/constants"
	"billetter/internal/users"
	"billetter/pkg/cache"
	"billetter/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ctxUserKey      = "auth_user"
	ctxRequestIDKey = "request_id"

	// RequestIDHeader is echoed back to clients for correlation.
	RequestIDHeader = "X-Request-ID"
)

// BasicAuth authenticates requests with HTTP Basic credentials against
// the users table. Successful principals are cached in Redis under
// auth:{email}:{sha256(password)} so the hot path skips the database.
func BasicAuth(db *gorm.DB, cacheService cache.Service, authTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, password, ok := parseBasicAuth(c.GetHeader("Authorization"))
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Требуется авторизация"})
			c.Abort()
			return
		}

		cacheKey := constants.BuildAuthKey(email, hashPassword(password))

		var principal users.Principal
		if err := cacheService.Get(c.Request.Context(), cacheKey, &principal); err == nil {
			c.Set(ctxUserKey, principal)
			c.Next()
			return
		}

		var user users.User
		err := db.WithContext(c.Request.Context()).
			Where("email = ? AND is_active = true", email).
			First(&user).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusUnauthorized, gin.H{"message": "Неверный логин или пароль"})
			} else {
				logger.GetDefault().Error("auth lookup failed", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"message": "Внутренняя ошибка сервера"})
			}
			c.Abort()
			return
		}

		if !user.CheckPassword(password) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Неверный логин или пароль"})
			c.Abort()
			return
		}

		// Best-effort; auth works without Redis.
		db.WithContext(c.Request.Context()).
			Model(&users.User{}).
			Where("user_id = ?", user.UserID).
			Update("last_logged_in", time.Now().UTC())

		principal = users.Principal{
			UserID:    user.UserID,
			Email:     user.Email,
			FirstName: user.FirstName,
			Surname:   user.Surname,
		}
		if err := cacheService.Set(c.Request.Context(), cacheKey, principal, authTTL); err != nil {
			logger.GetDefault().Warn("failed to cache auth principal", "error", err)
		}

		c.Set(ctxUserKey, principal)
		c.Next()
	}
}

// CurrentUser returns the authenticated principal. Handlers behind
// BasicAuth may call it unconditionally.
func CurrentUser(c *gin.Context) users.Principal {
	if v, ok := c.Get(ctxUserKey); ok {
		if p, ok := v.(users.Principal); ok {
			return p
		}
	}
	return users.Principal{}
}

// RequestID tags every request with an id for log correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(ctxRequestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs each request after completion.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		requestID, _ := c.Get(ctxRequestIDKey)
		logger.GetDefault().Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"ip", c.ClientIP(),
			"request_id", requestID,
		)
	}
}

func parseBasicAuth(header string) (email, password string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}
	creds := string(decoded)
	idx := strings.IndexByte(creds, ':')
	if idx < 0 {
		return "", "", false
	}
	return creds[:idx], creds[idx+1:], true
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
