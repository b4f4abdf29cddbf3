package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runTraceID(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, string) {
	t.Helper()

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	var seen string
	handler := TraceID()(func(c echo.Context) error {
		seen = GetTraceID(c)
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	return rec, seen
}

func TestTraceID_AssignsUUID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	rec, seen := runTraceID(t, req)

	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, seen)
	assert.Equal(t, seen, rec.Header().Get(HeaderTraceID))
}

func TestTraceID_ReusesInboundID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set(HeaderTraceID, "proxy-assigned-id")

	rec, seen := runTraceID(t, req)

	assert.Equal(t, "proxy-assigned-id", seen)
	assert.Equal(t, "proxy-assigned-id", rec.Header().Get(HeaderTraceID))
}

func TestGetTraceID_EmptyWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := echo.New().NewContext(req, httptest.NewRecorder())

	assert.Empty(t, GetTraceID(c))
}
