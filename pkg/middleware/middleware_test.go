package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(path string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit())
	router.POST(path, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doRequest(router *gin.Engine, path, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.RemoteAddr = remoteAddr
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitKeysByClientIP(t *testing.T) {
	path := "/api/v1/auth/login"
	router := newLimitedRouter(path)

	// Auth routes allow a burst of one, so the second immediate request
	// from the same address is rejected.
	require.Equal(t, http.StatusOK, doRequest(router, path, "10.0.0.1:4000").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(router, path, "10.0.0.1:4000").Code)

	t.Run("OtherClientsUnaffected", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, doRequest(router, path, "10.0.0.2:4000").Code)
	})
}

func TestRateLimitTradingRoutes(t *testing.T) {
	path := "/api/v1/accounts/me/contracts"
	router := newLimitedRouter(path)

	require.Equal(t, http.StatusOK, doRequest(router, path, "10.0.1.1:4000").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(router, path, "10.0.1.1:4000").Code)
}

func TestRateLimitUnlistedRoutesUnlimited(t *testing.T) {
	path := "/api/v1/settings"
	router := newLimitedRouter(path)

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, doRequest(router, path, "10.0.2.1:4000").Code)
	}
}
