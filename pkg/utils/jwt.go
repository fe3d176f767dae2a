package utils

import (
	"time"

	"blog_post_api/internal/pkg/config"
	"blog_post_api/internal/pkg/identity"

	"github.com/golang-jwt/jwt/v5"
)

// Claims 会话 JWT Claims
// Name 为组合身份 "<name>_<subject>"，与会话接口返回的 user.name 一致
type Claims struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Image       string `json:"image,omitempty"`
	jwt.RegisteredClaims
}

// Identity 从 claims 还原用户身份
func (c *Claims) Identity() identity.Identity {
	return identity.Identity{Name: c.DisplayName, Subject: c.Subject}
}

// GenerateToken 生成会话 Token
func GenerateToken(id identity.Identity, email, image string) (string, *time.Time, error) {
	now := time.Now()
	expire := time.Duration(config.GlobalConfig.JWT.Expire) * time.Hour
	if expire <= 0 {
		expire = 30 * 24 * time.Hour
	}
	expireTime := now.Add(expire)

	claims := Claims{
		Name:        id.Composite(),
		DisplayName: id.Name,
		Email:       email,
		Image:       image,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expireTime),
			Issuer:    "blog-post-api",
		},
	}

	tokenClaims := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err := tokenClaims.SignedString([]byte(config.GlobalConfig.JWT.Secret))
	if err != nil {
		return "", nil, err
	}
	return token, &expireTime, nil
}

// ParseToken 验证会话 Token
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(config.GlobalConfig.JWT.Secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenInvalidClaims
}
