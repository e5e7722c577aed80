package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func resolveThrough(t *testing.T, headers map[string]string) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RealIP())

	var got string
	r.GET("/", func(c *gin.Context) {
		got = ClientIP(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestRealIP(t *testing.T) {
	assert.Equal(t, "198.51.100.2",
		resolveThrough(t, map[string]string{"CF-Connecting-IP": "198.51.100.2"}))

	assert.Equal(t, "198.51.100.3",
		resolveThrough(t, map[string]string{"X-Forwarded-For": "198.51.100.3, 10.0.0.1"}))

	// garbage headers fall back to the socket address
	assert.Equal(t, "203.0.113.7",
		resolveThrough(t, map[string]string{"CF-Connecting-IP": "not-an-ip"}))
}

func TestRequestIDHonorsUpstream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id-1")
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-id-1", w.Header().Get("X-Request-ID"))

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w2.Header().Get("X-Request-ID"))
}
