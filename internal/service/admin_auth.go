package service

import (
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAuthNotConfigured  = errors.New("admin auth not configured")
)

// AdminAuthService autentica al único administrador del servicio,
// definido por configuración (email + hash bcrypt).
type AdminAuthService struct {
	logger       *zap.Logger
	email        string
	passwordHash string
	jwt          *JWTService
}

func NewAdminAuthService(logger *zap.Logger, email, passwordHash string, jwtSvc *JWTService) *AdminAuthService {
	return &AdminAuthService{
		logger:       logger,
		email:        normalizeEmail(email),
		passwordHash: strings.TrimSpace(passwordHash),
		jwt:          jwtSvc,
	}
}

// Login valida credenciales y emite el par de tokens.
func (s *AdminAuthService) Login(email, password string) (TokenPair, error) {
	if s.email == "" || s.passwordHash == "" || s.jwt == nil {
		return TokenPair{}, ErrAuthNotConfigured
	}

	email = normalizeEmail(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" || email != s.email {
		return TokenPair{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.jwt.GeneratePair(email)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("jwt issue failed", zap.Error(err))
		}
		return TokenPair{}, err
	}
	return pair, nil
}

// Refresh rota el par de tokens a partir de un refresh válido.
func (s *AdminAuthService) Refresh(refreshToken string) (TokenPair, error) {
	if s.jwt == nil {
		return TokenPair{}, ErrAuthNotConfigured
	}
	return s.jwt.RefreshPair(refreshToken)
}

// Logout revoca el refresh token entregado.
func (s *AdminAuthService) Logout(refreshToken string) error {
	if s.jwt == nil {
		return ErrAuthNotConfigured
	}
	return s.jwt.RevokeRefresh(refreshToken)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
