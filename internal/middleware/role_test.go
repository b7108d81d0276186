package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func roleRouter(role string, mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}, mw)
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		role string
		mw   gin.HandlerFunc
		want int
	}{
		{"staff on staff route", "STAFF", StaffOnly(), http.StatusNoContent},
		{"admin on staff route", "ADMIN", StaffOnly(), http.StatusNoContent},
		{"guest on staff route", "GUEST", StaffOnly(), http.StatusForbidden},
		{"staff on admin route", "STAFF", AdminOnly(), http.StatusForbidden},
		{"admin on admin route", "ADMIN", AdminOnly(), http.StatusNoContent},
		{"no role", "", StaffOnly(), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			roleRouter(tt.role, tt.mw).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
