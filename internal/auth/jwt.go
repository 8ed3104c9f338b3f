package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/craftedby/marketplace/internal/config"
	"github.com/craftedby/marketplace/internal/model"
)

type Claims struct {
	jwt.RegisteredClaims
	Role  model.Role `json:"role"`
	Email string     `json:"email"`
}

// TokenManager issues and verifies the JWTs protecting the API.
type TokenManager struct {
	secret   []byte
	tokenTTL time.Duration
}

func NewTokenManager(cfg config.Auth) *TokenManager {
	return &TokenManager{
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: cfg.TokenTTL,
	}
}

func (m *TokenManager) Issue(user model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
		},
		Role:  user.Role,
		Email: user.Email,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return token, nil
}

func (m *TokenManager) Verify(tokenString string) (Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Principal{}, fmt.Errorf("parse token: %w", err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, fmt.Errorf("parse subject: %w", err)
	}
	if err := claims.Role.Validate(); err != nil {
		return Principal{}, fmt.Errorf("validate role: %w", err)
	}

	return Principal{UserID: userID, Role: claims.Role}, nil
}
