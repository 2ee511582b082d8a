package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// minSecretLength HS256 密钥最小长度
const minSecretLength = 32

// Claims 服务调用方令牌声明
type Claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// JWTService 签发与校验调用方令牌
type JWTService struct {
	secret []byte
	issuer string
}

// NewJWTService 创建 JWT 服务
func NewJWTService(secret, issuer string) (*JWTService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("JWT secret must be at least %d characters long, got %d", minSecretLength, len(secret))
	}
	return &JWTService{secret: []byte(secret), issuer: issuer}, nil
}

// GenerateToken 为调用方签发访问令牌，ttl <= 0 表示不过期
func (s *JWTService) GenerateToken(subject string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("token subject is required")
	}

	now := time.Now()
	claims := Claims{
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			Issuer:   s.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}

	var expiry time.Time
	if ttl > 0 {
		expiry = now.Add(ttl)
		claims.ExpiresAt = jwt.NewNumericDate(expiry)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, expiry, nil
}

// ParseToken 解析和验证令牌
func (s *JWTService) ParseToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid || claims.Type != "access" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
