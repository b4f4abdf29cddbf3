package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// HeaderTraceID carries the trace ID on requests and responses
	HeaderTraceID = "X-Trace-ID"
	// ContextKeyTraceID is the echo context key holding the trace ID.
	// Error responses embed the same value, so a user-reported trace ID
	// can be matched against the ingest logs.
	ContextKeyTraceID = "trace_id"
)

// TraceID tags every request with a trace ID and echoes it in the response
// header. An inbound X-Trace-ID from a proxy or a retrying client is reused
// so both sides log the same ID; otherwise a fresh UUID is assigned.
func TraceID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			traceID := c.Request().Header.Get(HeaderTraceID)
			if traceID == "" {
				traceID = uuid.New().String()
			}

			c.Set(ContextKeyTraceID, traceID)
			c.Response().Header().Set(HeaderTraceID, traceID)

			return next(c)
		}
	}
}

// GetTraceID returns the request's trace ID, or "" when the TraceID
// middleware has not run for this request.
func GetTraceID(c echo.Context) string {
	traceID, ok := c.Get(ContextKeyTraceID).(string)
	if !ok {
		return ""
	}
	return traceID
}
