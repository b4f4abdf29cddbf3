package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintrack/internal/dto"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

func TestAuthHandler(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

type AuthHandlerSuite struct {
	suite.Suite
	stack   *testStack
	handler *AuthHandler
}

func (s *AuthHandlerSuite) SetupTest() {
	s.stack = newTestStack(s.T())
	s.handler = NewAuthHandler(s.stack.auth)
}

func (s *AuthHandlerSuite) postJSON(path string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return s.stack.echo.NewContext(req, rec), rec
}

func (s *AuthHandlerSuite) TestSignup() {
	c, rec := s.postJSON("/api/auth/signup", dto.SignupRequest{
		Username: "alice",
		Password: "secret-password",
	})

	s.NoError(s.handler.Signup(c))
	s.Equal(http.StatusCreated, rec.Code)

	var tokens dto.TokenResponse
	s.NoError(json.Unmarshal(rec.Body.Bytes(), &tokens))
	s.Equal("alice", tokens.Username)
	s.NotEmpty(tokens.AccessToken)
	s.Equal("Bearer", tokens.TokenType)
}

func (s *AuthHandlerSuite) TestSignup_DuplicateUsername() {
	c, rec := s.postJSON("/api/auth/signup", dto.SignupRequest{
		Username: "alice",
		Password: "secret-password",
	})
	s.NoError(s.handler.Signup(c))
	s.Equal(http.StatusCreated, rec.Code)

	c, rec = s.postJSON("/api/auth/signup", dto.SignupRequest{
		Username: "alice",
		Password: "other-password",
	})
	s.NoError(s.handler.Signup(c))
	s.Equal(http.StatusConflict, rec.Code)

	var errorResponse ErrorResponse
	s.NoError(json.Unmarshal(rec.Body.Bytes(), &errorResponse))
	s.Equal("USER_002", errorResponse.Error.Code)
}

func (s *AuthHandlerSuite) TestSignup_InvalidUsername() {
	cases := []string{"ab", "bad name", "weird!chars"}

	for _, username := range cases {
		c, _ := s.postJSON("/api/auth/signup", dto.SignupRequest{
			Username: username,
			Password: "secret-password",
		})

		// Validation failures surface through the echo error handler
		err := s.handler.Signup(c)
		s.Error(err, "username %q should be rejected", username)
	}
}

func (s *AuthHandlerSuite) TestSignup_ShortPassword() {
	c, _ := s.postJSON("/api/auth/signup", dto.SignupRequest{
		Username: "alice",
		Password: "short",
	})

	s.Error(s.handler.Signup(c))
}

func (s *AuthHandlerSuite) TestSignup_MalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewReader([]byte("{not json")))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := s.stack.echo.NewContext(req, rec)

	s.NoError(s.handler.Signup(c))
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *AuthHandlerSuite) TestLogin() {
	c, rec := s.postJSON("/api/auth/signup", dto.SignupRequest{
		Username: "alice",
		Password: "secret-password",
	})
	s.NoError(s.handler.Signup(c))
	s.Require().Equal(http.StatusCreated, rec.Code)

	c, rec = s.postJSON("/api/auth/login", dto.LoginRequest{
		Username: "alice",
		Password: "secret-password",
	})
	s.NoError(s.handler.Login(c))
	s.Equal(http.StatusOK, rec.Code)

	var tokens dto.TokenResponse
	s.NoError(json.Unmarshal(rec.Body.Bytes(), &tokens))
	s.NotEmpty(tokens.AccessToken)
}

func (s *AuthHandlerSuite) TestLogin_WrongPassword() {
	c, rec := s.postJSON("/api/auth/signup", dto.SignupRequest{
		Username: "alice",
		Password: "secret-password",
	})
	s.NoError(s.handler.Signup(c))
	s.Require().Equal(http.StatusCreated, rec.Code)

	c, rec = s.postJSON("/api/auth/login", dto.LoginRequest{
		Username: "alice",
		Password: "wrong-password",
	})
	s.NoError(s.handler.Login(c))
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *AuthHandlerSuite) TestLogin_UnknownUser() {
	c, rec := s.postJSON("/api/auth/login", dto.LoginRequest{
		Username: "nobody",
		Password: "whatever-password",
	})
	s.NoError(s.handler.Login(c))

	// Unknown usernames are indistinguishable from wrong passwords
	s.Equal(http.StatusUnauthorized, rec.Code)
}
