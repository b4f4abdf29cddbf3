package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	apierrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/services"

	"github.com/labstack/echo/v4"
)

// StreamHandler serves the live transaction feed over Server-Sent Events.
// Each event is named ReceiveTransaction and carries the same JSON payload
// as a submitted transaction response.
type StreamHandler struct {
	broadcaster  services.BroadcasterInterface
	tokenService services.TokenServiceInterface
}

// NewStreamHandler creates a new event stream handler
func NewStreamHandler(
	broadcaster services.BroadcasterInterface,
	tokenService services.TokenServiceInterface,
) *StreamHandler {
	return &StreamHandler{
		broadcaster:  broadcaster,
		tokenService: tokenService,
	}
}

// Stream subscribes the caller to their own transaction events.
//
// Method: GET /transactionHub
// Authentication: Bearer token in the Authorization header, or an
// access_token query parameter for clients that cannot set headers
// on EventSource connections.
//
// The response is a text/event-stream. Events use the ReceiveTransaction
// event name. Slow consumers lose events instead of blocking ingestion and
// are expected to re-read the summary endpoint after reconnecting.
func (h *StreamHandler) Stream(c echo.Context) error {
	claims, err := h.authenticate(c)
	if err != nil {
		return SendError(c, apierrors.AuthMissingToken)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	flusher, ok := res.Writer.(http.Flusher)
	if !ok {
		return fmt.Errorf("response writer does not support streaming")
	}

	sub := h.broadcaster.Subscribe(claims.Username)
	defer sub.Close()

	// Initial comment line confirms the stream is open before any event
	if _, err := fmt.Fprintf(res, ": connected\n\n"); err != nil {
		return nil
	}
	flusher.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-sub.Events():
			if !ok {
				return nil
			}

			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}

			if _, err := fmt.Fprintf(res, "event: ReceiveTransaction\ndata: %s\n\n", payload); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}

// authenticate resolves the caller's claims from the Authorization header or
// the access_token query parameter.
func (h *StreamHandler) authenticate(c echo.Context) (*models.CustomClaims, error) {
	tokenString := ""

	if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
		extracted, err := h.tokenService.ExtractTokenFromHeader(authHeader)
		if err != nil {
			return nil, err
		}
		tokenString = extracted
	} else if queryToken := c.QueryParam("access_token"); queryToken != "" {
		tokenString = queryToken
	}

	if tokenString == "" {
		return nil, services.ErrEmptyToken
	}

	return h.tokenService.ValidateToken(tokenString)
}
