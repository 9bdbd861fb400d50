package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTokenExpiration applies when IssueToken is given no ttl
	DefaultTokenExpiration = 12 * time.Hour

	RoleAdmin   = "admin"
	RoleAnalyst = "analyst"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
	ErrMissingRole  = errors.New("token has no role")
)

// TokenService issues and validates the bearer tokens guarding analytics routes
type TokenService interface {
	IssueToken(subject, role string, ttl time.Duration) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents the JWT claims
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type tokenService struct {
	jwtSecret []byte
	now       func() time.Time
}

// NewTokenService creates a new instance of TokenService
func NewTokenService(jwtSecret string) TokenService {
	return &tokenService{
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

// IssueToken signs an HS256 token for subject carrying role
func (s *tokenService) IssueToken(subject, role string, ttl time.Duration) (string, error) {
	if role == "" {
		return "", ErrMissingRole
	}
	if ttl <= 0 {
		ttl = DefaultTokenExpiration
	}

	now := s.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *tokenService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role == "" {
		return nil, ErrMissingRole
	}

	return claims, nil
}
