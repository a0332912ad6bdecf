package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tokoassist/internal/config"
)

// Login is cosmetic: the token issued here carries the chosen role but is
// never required for access. RoleFromToken exists so requests can be
// tagged in logs.

func GenerateToken(role string) (string, error) {
	claims := jwt.MapClaims{
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour * 24).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.TokenSecret))
}

func RoleFromToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.TokenSecret), nil
	})

	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		if role, ok := claims["role"].(string); ok {
			return role, nil
		}
	}

	return "", fmt.Errorf("invalid token")
}
