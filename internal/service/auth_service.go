package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"single_sensor/internal/repository"
)

// Domain errors for auth flows.
var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidToken    = errors.New("invalid token")
)

// AuthConfig carries the JWT signing key and lifetime.
type AuthConfig struct {
	SigningKey []byte
	TokenTTL   time.Duration
}

// AuthService handles operator sign-in.
type AuthService struct {
	repo       repository.OperatorRepo
	signingKey []byte
	tokenTTL   time.Duration
}

func NewAuthService(repo repository.OperatorRepo, cfg AuthConfig) *AuthService {
	return &AuthService{repo: repo, signingKey: cfg.SigningKey, tokenTTL: cfg.TokenTTL}
}

// EnsureOperator creates the operator account if it does not exist yet and
// returns its ID. An existing account keeps its stored password.
func (s *AuthService) EnsureOperator(username, password string) (int, error) {
	op, err := s.repo.GetByUsername(username)
	if err != nil {
		return 0, err
	}
	if op != nil {
		return op.ID, nil
	}
	hash, err := hashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("invalid password: %w", err)
	}
	return s.repo.Create(username, hash)
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// GenerateToken validates credentials and returns JWT
func (s *AuthService) GenerateToken(username, password string) (string, error) {
	op, err := s.repo.GetByUsername(username)
	if err != nil {
		return "", err
	}
	if op == nil {
		return "", ErrUserNotFound
	}
	if err := verifyPassword(op.PasswordHash, password); err != nil {
		return "", ErrInvalidPassword
	}
	return s.issueToken(op.ID)
}

// ParseToken parses JWT and returns the operator ID
func (s *AuthService) ParseToken(accessToken string) (int, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}

func hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) issueToken(userID int) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
	})
	return token.SignedString(s.signingKey)
}
