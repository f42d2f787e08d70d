package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCORSConfig(t *testing.T) {
	c := CORSConfig("http://localhost:3000")
	assert.Equal(t, []string{"http://localhost:3000"}, c.AllowOrigins)
	assert.True(t, c.AllowCredentials)
	assert.False(t, c.AllowAllOrigins)

	c = CORSConfig("*")
	assert.True(t, c.AllowAllOrigins)
	assert.Empty(t, c.AllowOrigins)
}

func TestNewRouter_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(zap.NewNop(), Options{AllowedOrigin: "http://localhost:3000"})
	r.PUT("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestAddr(t *testing.T) {
	assert.Equal(t, "0.0.0.0:3001", Addr("0.0.0.0", 3001))
}
