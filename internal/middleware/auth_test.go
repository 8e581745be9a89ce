package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"depot-backend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signTestToken(t *testing.T, secret []byte, role string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "11111111-1111-1111-1111-111111111111",
		"email": "vendor@depot.test",
		"role":  role,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func newTestRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	auth := NewAuth(testSecret)
	router.GET("/private", auth.RequireAuth(), handler)
	router.GET("/admin", auth.RequireRole(model.RoleAdmin), handler)
	return router
}

func doRequest(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	router := newTestRouter(func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString("userID"),
			"email":   c.GetString("userEmail"),
			"role":    c.GetString("userRole"),
		})
	})

	t.Run("missing header", func(t *testing.T) {
		w := doRequest(router, "/private", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := doRequest(router, "/private", "token-without-scheme")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong signature", func(t *testing.T) {
		token := signTestToken(t, []byte("other-secret"), model.RoleVendor, time.Minute)
		w := doRequest(router, "/private", "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signTestToken(t, testSecret, model.RoleVendor, -time.Minute)
		w := doRequest(router, "/private", "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token exposes identity", func(t *testing.T) {
		token := signTestToken(t, testSecret, model.RoleVendor, time.Minute)
		w := doRequest(router, "/private", "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "11111111-1111-1111-1111-111111111111")
		assert.Contains(t, w.Body.String(), "vendor@depot.test")
		assert.Contains(t, w.Body.String(), model.RoleVendor)
	})
}

func TestRequireRole(t *testing.T) {
	router := newTestRouter(func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	t.Run("role not in allow list", func(t *testing.T) {
		token := signTestToken(t, testSecret, model.RoleVendor, time.Minute)
		w := doRequest(router, "/admin", "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("allowed role", func(t *testing.T) {
		token := signTestToken(t, testSecret, model.RoleAdmin, time.Minute)
		w := doRequest(router, "/admin", "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("still rejects a bad token", func(t *testing.T) {
		w := doRequest(router, "/admin", "Bearer not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
