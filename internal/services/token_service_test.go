package services

import (
	"testing"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestTokenService(t *testing.T) {
	suite.Run(t, new(TokenServiceSuite))
}

type TokenServiceSuite struct {
	suite.Suite
	service TokenServiceInterface
	user    *models.User
}

func (s *TokenServiceSuite) SetupTest() {
	s.service = NewTokenService(&config.JWTConfig{
		Secret:        []byte("test-secret-key-for-unit-tests-only!"),
		TokenDuration: time.Hour,
		Issuer:        "fintrack-api",
	})
	s.user = &models.User{
		ID:       uuid.New(),
		Username: "alice",
	}
}

func (s *TokenServiceSuite) TestGenerateAndValidateToken() {
	token, expiresAt, err := s.service.GenerateToken(s.user)
	s.NoError(err)
	s.NotEmpty(token)
	s.WithinDuration(time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := s.service.ValidateToken(token)
	s.NoError(err)
	s.Equal(s.user.ID.String(), claims.UserID)
	s.Equal("alice", claims.Username)
	s.Equal("fintrack-api", claims.Issuer)
	s.NotEmpty(claims.ID)
}

func (s *TokenServiceSuite) TestGenerateToken_NilUser() {
	_, _, err := s.service.GenerateToken(nil)
	s.Error(err)
}

func (s *TokenServiceSuite) TestValidateToken_Empty() {
	_, err := s.service.ValidateToken("")
	s.ErrorIs(err, ErrEmptyToken)
}

func (s *TokenServiceSuite) TestValidateToken_Garbage() {
	_, err := s.service.ValidateToken("not.a.token")
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *TokenServiceSuite) TestValidateToken_WrongSecret() {
	other := NewTokenService(&config.JWTConfig{
		Secret:        []byte("another-secret-key-for-unit-tests!!!"),
		TokenDuration: time.Hour,
		Issuer:        "fintrack-api",
	})

	token, _, err := other.GenerateToken(s.user)
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *TokenServiceSuite) TestValidateToken_Expired() {
	expired := NewTokenService(&config.JWTConfig{
		Secret:        []byte("test-secret-key-for-unit-tests-only!"),
		TokenDuration: -time.Minute,
		Issuer:        "fintrack-api",
	})

	token, _, err := expired.GenerateToken(s.user)
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(token)
	s.ErrorIs(err, ErrExpiredToken)
}

func (s *TokenServiceSuite) TestValidateToken_WrongIssuer() {
	other := NewTokenService(&config.JWTConfig{
		Secret:        []byte("test-secret-key-for-unit-tests-only!"),
		TokenDuration: time.Hour,
		Issuer:        "someone-else",
	})

	token, _, err := other.GenerateToken(s.user)
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(token)
	s.ErrorIs(err, ErrInvalidIssuer)
}

func (s *TokenServiceSuite) TestExtractTokenFromHeader() {
	token, err := s.service.ExtractTokenFromHeader("Bearer abc123")
	s.NoError(err)
	s.Equal("abc123", token)

	// Scheme is case-insensitive
	token, err = s.service.ExtractTokenFromHeader("bearer abc123")
	s.NoError(err)
	s.Equal("abc123", token)
}

func (s *TokenServiceSuite) TestExtractTokenFromHeader_Invalid() {
	cases := []string{
		"",
		"Bearer",
		"Bearer ",
		"Basic abc123",
		"abc123",
	}

	for _, header := range cases {
		_, err := s.service.ExtractTokenFromHeader(header)
		s.ErrorIs(err, ErrInvalidAuthHeader, "header %q", header)
	}
}
