package handlers

import (
	"errors"
	"net/http"

	"fintrack/internal/dto"
	apierrors "fintrack/internal/errors"
	"fintrack/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService services.AuthServiceInterface
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService services.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Signup handles user registration
//
// Method: POST /api/auth/signup
// Body: {username, password}
//
// Success Response: 201 Created with a token response so the client is
// logged in immediately after signup.
//
// Error Responses:
//   - 400: Invalid request body or validation failure
//   - 409: Username already taken
//   - 500: Internal error
func (h *AuthHandler) Signup(c echo.Context) error {
	var req dto.SignupRequest

	if err := c.Bind(&req); err != nil {
		return SendError(c, apierrors.ValidationGeneral, apierrors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	tokens, err := h.authService.Signup(c.Request().Context(), &req, getClientIP(c))
	if err != nil {
		if errors.Is(err, services.ErrUserAlreadyExists) {
			return SendError(c, apierrors.UserAlreadyExists)
		}
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusCreated, tokens)
}

// Login handles user authentication
//
// Method: POST /api/auth/login
// Body: {username, password}
//
// Success Response: 200 OK with access token.
//
// Error Responses:
//   - 400: Invalid request body or validation failure
//   - 401: Invalid credentials (unknown username gets the same response)
//   - 500: Internal error
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest

	if err := c.Bind(&req); err != nil {
		return SendError(c, apierrors.ValidationGeneral, apierrors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	tokens, err := h.authService.Login(c.Request().Context(), &req, getClientIP(c))
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return SendError(c, apierrors.AuthInvalidCredentials)
		}
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, tokens)
}
