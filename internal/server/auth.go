package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// CronSecretHeader 는 패키지 상수다.
const CronSecretHeader = "X-Cron-Secret"

// CronAuthMiddleware: cron/sync 트리거 요청의 시크릿을 검증하는 미들웨어.
// 시크릿은 평문 비교 대신 bcrypt 해시와 대조하고, 실패는 IP별로 횟수 제한한다.
func CronAuthMiddleware(secretHash string, limiter *AuthRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		if allowed, retryIn := limiter.IsAllowed(clientIP); !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryIn.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "too many failed attempts",
			})
			return
		}

		secret := extractCronSecret(c)
		if secret == "" {
			limiter.RecordFailure(clientIP)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "cron secret required",
			})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(secretHash), []byte(secret)); err != nil {
			limiter.RecordFailure(clientIP)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "invalid cron secret",
			})
			return
		}

		limiter.RecordSuccess(clientIP)
		c.Next()
	}
}

// extractCronSecret: 헤더 또는 Bearer 토큰에서 시크릿을 꺼낸다.
func extractCronSecret(c *gin.Context) string {
	if secret := c.GetHeader(CronSecretHeader); secret != "" {
		return secret
	}
	auth := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
