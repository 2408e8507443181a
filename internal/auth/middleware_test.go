package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicalforge/contributor-portal/contributor-portal-backend/internal/submissions"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func protectedRouter() (*gin.Engine, *submissions.UserProfile) {
	gin.SetMode(gin.TestMode)
	captured := &submissions.UserProfile{}
	router := gin.New()
	router.GET("/me", Middleware(testSecret), func(c *gin.Context) {
		if profile := CollaboratorFrom(c); profile != nil {
			*captured = *profile
		}
		c.Status(http.StatusOK)
	})
	return router, captured
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	router, captured := protectedRouter()

	token := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		DisplayName: "Dr. Mehta",
		Institution: "City Hospital",
		Role:        "contributor",
	})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/me", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "uid-123", captured.UID)
	assert.Equal(t, "Dr. Mehta", captured.DisplayName)
	assert.Equal(t, "contributor", captured.Role)
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	router, _ := protectedRouter()

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestMiddlewareRejectsBadSignature(t *testing.T) {
	router, _ := protectedRouter()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "uid-123"},
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/me", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestMiddlewareRejectsExpiredToken(t *testing.T) {
	router, _ := protectedRouter()

	token := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/me", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestMiddlewareRejectsTokenWithoutSubject(t *testing.T) {
	router, _ := protectedRouter()

	token := signToken(t, Claims{DisplayName: "Dr. Mehta"})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/me", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestCollaboratorFromUnauthenticatedContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, CollaboratorFrom(c))
}
