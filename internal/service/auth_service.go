package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// IAuthService implements the single-credential login of the admin deployment
// profile: one username/password pair from configuration, exchanged for a JWT.
type IAuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	username     string
	passwordHash []byte
	jwtSecret    []byte
	log          logger.ILogger
}

func NewAuthService(username, password, jwtSecret string, log logger.ILogger) (IAuthService, error) {
	// Hash once at construction so the plaintext never lingers on the struct.
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}

	return &authService{
		username:     username,
		passwordHash: hash,
		jwtSecret:    []byte(jwtSecret),
		log:          log,
	}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if req.Username != s.username {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": s.username,
		"iat":     now.Unix(),
		"exp":     now.Add(24 * time.Hour).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.log.Info("auth", "Login succeeded", map[string]interface{}{"username": req.Username})
	return &dto.LoginResponse{
		Token:      token,
		Identifier: s.username,
	}, nil
}
