package util

import (
	"errors"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/siwachprerit/Drafted/config"
)

func GenerateToken(userID int) (string, error) {
	expiresIn := config.AppConfig.JWTExpiresIn
	if expiresIn <= 0 {
		expiresIn = 7 * 24 * time.Hour
	}

	// jti 保证同一秒内刷新得到的令牌也不相同
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"jti":     uuid.NewString(),
		"user_id": userID,
		"exp":     time.Now().Add(expiresIn).Unix(),
	})

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

func parseToken(tokenString string) (jwt.MapClaims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	if tokenString == "" {
		return nil, errors.New("令牌为空")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("不支持的签名算法")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("无效的令牌")
	}
	return claims, nil
}

func ValidateToken(tokenString string) (int, error) {
	claims, err := parseToken(tokenString)
	if err != nil {
		return 0, err
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, errors.New("无效的用户ID")
	}
	return int(userID), nil
}

// TokenExpiry 返回令牌的过期时间
func TokenExpiry(tokenString string) (time.Time, error) {
	claims, err := parseToken(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, errors.New("令牌缺少过期时间")
	}
	return time.Unix(int64(exp), 0), nil
}

func RefreshToken(tokenString string) (string, error) {
	userID, err := ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return GenerateToken(userID)
}
