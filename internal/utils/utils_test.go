package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney(t *testing.T) {
	assert.Equal(t, 0.3, SumMoney(0.1, 0.2))
	assert.Equal(t, 10.01, RoundMoney(10.005))
	assert.Equal(t, 12.0, PercentOf(100, 12))
	assert.Equal(t, 0.0, PercentOf(100, 0))
	assert.Equal(t, 29.97, LineTotal(9.99, 3))
	assert.Equal(t, 90.0, SubMoney(100, 10))
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+972 50-123-4567": "+972501234567",
		"050 123 4567":     "0501234567",
		"  ":               "",
		"+":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePhone(in), in)
	}
	assert.Equal(t, "a@b.co", NormalizeEmail("  A@B.co "))
}

func newContext(target string, headers map[string]string) *gin.Context {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	return c
}

func TestParsePagination(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p := ParsePagination(newContext("/x", nil), 20)
		assert.Equal(t, Pagination{Page: 1, Limit: 20}, p)
		assert.Equal(t, 0, p.Offset())
	})
	t.Run("clamps", func(t *testing.T) {
		p := ParsePagination(newContext("/x?page=-3&limit=500", nil), 20)
		assert.Equal(t, Pagination{Page: 1, Limit: MaxPageSize}, p)
	})
	t.Run("offset", func(t *testing.T) {
		p := ParsePagination(newContext("/x?page=3&limit=10", nil), 20)
		assert.Equal(t, 20, p.Offset())
	})
	t.Run("garbage falls back", func(t *testing.T) {
		p := ParsePagination(newContext("/x?page=abc&limit=0", nil), 20)
		assert.Equal(t, Pagination{Page: 1, Limit: 1}, p)
	})
}

func TestClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	resolve := func(t *testing.T, trusted []string, headers map[string]string) string {
		t.Helper()
		r := gin.New()
		require.NoError(t, r.SetTrustedProxies(trusted))
		var got string
		r.GET("/", func(c *gin.Context) { got = ClientIP(c) })

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.10:41000"
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		r.ServeHTTP(httptest.NewRecorder(), req)
		return got
	}

	t.Run("ignores forwarding headers from untrusted peers", func(t *testing.T) {
		assert.Equal(t, "192.0.2.10", resolve(t, nil, map[string]string{"X-Forwarded-For": "10.0.0.1"}))
		assert.Equal(t, "192.0.2.10", resolve(t, nil, map[string]string{"X-Real-IP": "10.0.0.9"}))
	})

	t.Run("honours forwarding headers from trusted proxies", func(t *testing.T) {
		trusted := []string{"192.0.2.0/24"}
		assert.Equal(t, "10.0.0.1", resolve(t, trusted, map[string]string{"X-Forwarded-For": "10.0.0.1"}))
		assert.Equal(t, "10.0.0.9", resolve(t, trusted, map[string]string{"X-Real-IP": "10.0.0.9"}))
	})
}

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("api error", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		WriteError(c, Conflict("user_exists", "user already registered"))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), `"error":"user_exists"`)
	})

	t.Run("wrapped api error", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		err := errors.Join(errors.New("ctx"), BadRequest("cart_empty", "cart is empty"))
		WriteError(c, err)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown error", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		WriteError(c, errors.New("db down"))
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "db down")
	})
}
