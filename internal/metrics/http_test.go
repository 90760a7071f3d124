package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	provider, err := NewProvider("marketplace")
	require.NoError(t, err)
	defer provider.Shutdown(context.Background()) //nolint:errcheck

	router := gin.New()
	router.Use(HTTPMetricsMiddleware(provider.MeterProvider(), "marketplace"))
	router.GET("/v1/notifications", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"items": []string{}})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/notifications", nil))
	require.Equal(t, http.StatusOK, w.Code)

	mw := httptest.NewRecorder()
	provider.Handler().ServeHTTP(mw, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := mw.Body.String()
	assert.Contains(t, body, "marketplace_http_requests_total")
	assert.Contains(t, body, `path="/v1/notifications"`)
}

func TestSanitizePath(t *testing.T) {
	assert.Equal(t, "unknown", sanitizePath(""))
	assert.Equal(t, "/v1/notifications/:id/read", sanitizePath("/v1/notifications/:id/read"))
}
