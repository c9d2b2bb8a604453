package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID_Generated(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		id, ok := c.Get("request_id")
		assert.True(t, ok)
		assert.NotEmpty(t, id)
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestID_HonorsClientHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-supplied-id")
	r.ServeHTTP(rec, req)

	assert.Equal(t, "client-supplied-id", rec.Header().Get(RequestIDHeader))
}

func TestSafeHeader(t *testing.T) {
	r := gin.New()
	r.Use(SafeHeader())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestSizeLimit(t *testing.T) {
	r := gin.New()
	r.POST("/", SizeLimit(16), func(c *gin.Context) {
		_, err := c.GetRawData()
		var maxBytesError *http.MaxBytesError
		if assert.ErrorAs(t, err, &maxBytesError) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	// The limiter pads by the declared content length, so the body must
	// comfortably exceed limit + length + padding to trip it.
	body := bytes.Repeat([]byte("x"), 64*1024)
	rec := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.ContentLength = -1
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	var lastCode int
	var lastBody string
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(rec, req)
		lastCode = rec.Code
		lastBody = rec.Body.String()
	}

	require.Equal(t, http.StatusTooManyRequests, lastCode)
	assert.True(t, strings.Contains(lastBody, "Too many requests"))
}
