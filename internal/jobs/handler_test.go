package jobs

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestHandler_Sweeps(t *testing.T) {
	gin.SetMode(gin.TestMode)
	b, p := new(mockBookings), new(mockPayments)
	b.On("MarkOverdueNoShows", mock.Anything).Return(4, nil)
	p.On("FailStalePayments", mock.Anything, time.Hour).Return(0, errors.New("db down")).Once()
	p.On("FailStalePayments", mock.Anything, time.Hour).Return(1, nil)

	log, _ := test.NewNullLogger()
	r := gin.New()
	NewHandler(NewSweeper(b, p, time.Hour, log)).RegisterRoutes(r.Group("/internal"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/internal/sweeps/no-shows", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"no_shows":4}}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/internal/sweeps/stale-payments", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/internal/sweeps/run", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"no_shows":4,"stale_payments":1}}`, w.Body.String())
}
