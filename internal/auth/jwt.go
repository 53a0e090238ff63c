package auth

import (
	"context"
	"errors"
	"fmt"

	"wisefido-vitals-hub/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims 登录接口签发的 token 载荷：{id, username, exp}
type Claims struct {
	UserID   interface{} `json:"id"`
	Username string      `json:"username"`
	jwt.RegisteredClaims
}

// JWTVerifier 本地校验 HS256 签名的 token
type JWTVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewJWTVerifier(secret string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &JWTVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, ErrInvalidToken
	}

	var claims Claims
	if _, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}); err != nil {
		return models.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	userID, ok := userIDString(claims.UserID)
	if !ok {
		return models.Identity{}, fmt.Errorf("%w: missing id claim", ErrInvalidToken)
	}
	return models.Identity{UserID: userID, Username: claims.Username}, nil
}
