package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"hotelbooking/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// InternalTokenAuth protects machine-to-machine endpoints (external cron
// triggers) with a static bearer token and an optional IP allow list.
// An empty token disables the endpoints.
func InternalTokenAuth(token string, allowedIPs []string, log logrus.FieldLogger) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedIPs))
	for _, ip := range allowedIPs {
		if ip = strings.TrimSpace(ip); ip != "" {
			allowed[ip] = true
		}
	}

	return func(c *gin.Context) {
		if token == "" {
			logAuthFailure(c, log, http.StatusForbidden, "disabled")
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Internal endpoints are disabled")
			c.Abort()
			return
		}

		if len(allowed) > 0 && !allowed[c.ClientIP()] {
			logAuthFailure(c, log, http.StatusForbidden, "ip_not_allowed")
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "IP not allowed")
			c.Abort()
			return
		}

		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			logAuthFailure(c, log, http.StatusUnauthorized, "invalid_auth_format")
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
			logAuthFailure(c, log, http.StatusForbidden, "invalid_token")
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Invalid internal token")
			c.Abort()
			return
		}

		c.Next()
	}
}

func logAuthFailure(c *gin.Context, log logrus.FieldLogger, status int, reason string) {
	log.WithFields(logrus.Fields{
		"status":     status,
		"reason":     reason,
		"client_ip":  c.ClientIP(),
		"request_id": c.GetString("request_id"),
	}).Warn("internal auth rejected")
}
