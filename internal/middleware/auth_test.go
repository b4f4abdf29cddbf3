package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/models"
	"fintrack/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthTokenService(tokenDuration time.Duration) services.TokenServiceInterface {
	return services.NewTokenService(&config.JWTConfig{
		Secret:        []byte("test-secret-key-for-middleware-tests"),
		TokenDuration: tokenDuration,
		Issuer:        "fintrack-api",
	})
}

func authTestUser() *models.User {
	return &models.User{
		ID:       uuid.New(),
		Username: "alice",
	}
}

// invokeAuth runs the middleware with a passthrough handler that records
// whether it was reached.
func invokeAuth(t *testing.T, tokens services.TokenServiceInterface, authHeader string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/list/alice", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	reached := false
	handler := RequireAuth(tokens)(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	return rec, c, reached
}

func TestRequireAuth_ValidToken(t *testing.T) {
	tokens := newAuthTokenService(time.Hour)
	user := authTestUser()
	token, _, err := tokens.GenerateToken(user)
	require.NoError(t, err)

	rec, c, reached := invokeAuth(t, tokens, "Bearer "+token)

	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.ID, c.Get("user_id"))
	assert.Equal(t, "alice", c.Get("username"))
	assert.NotEmpty(t, c.Get("token_jti"))
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	tokens := newAuthTokenService(time.Hour)

	rec, _, reached := invokeAuth(t, tokens, "")

	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "AUTH_002")
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	tokens := newAuthTokenService(time.Hour)

	rec, _, reached := invokeAuth(t, tokens, "Basic not-a-bearer-token")

	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "AUTH_004")
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	tokens := newAuthTokenService(time.Hour)

	rec, _, reached := invokeAuth(t, tokens, "Bearer not.a.jwt")

	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "AUTH_004")
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	expired := newAuthTokenService(-time.Minute)
	token, _, err := expired.GenerateToken(authTestUser())
	require.NoError(t, err)

	rec, _, reached := invokeAuth(t, newAuthTokenService(time.Hour), "Bearer "+token)

	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "AUTH_003")
}
