package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authedHandler(t *testing.T) http.Handler {
	t.Helper()
	return ClerkAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestClerkAuthRejectsMissingHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/user/streak", nil)
	rec := httptest.NewRecorder()

	authedHandler(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClerkAuthRejectsMalformedHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/user/streak", nil)
	req.Header.Set("Authorization", "Token abc123")
	rec := httptest.NewRecorder()

	authedHandler(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// A well-formed but self-signed token never passes Clerk verification.
func TestClerkAuthRejectsSelfSignedToken(t *testing.T) {
	claims := jwt.MapClaims{
		"sub": "user_test123",
		"iss": "https://clerk.test",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret-key-for-testing-only"))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/v1/user/streak", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()

	authedHandler(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetClerkIDMissing(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	_, ok := GetClerkID(req.Context())
	assert.False(t, ok)
}
