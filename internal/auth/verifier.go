package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"wisefido-vitals-hub/internal/config"
	"wisefido-vitals-hub/internal/models"

	"go.uber.org/zap"
)

// ErrInvalidToken is returned (possibly wrapped) for any token that does not
// resolve to a user.
var ErrInvalidToken = errors.New("invalid token")

// Verifier resolves a session token to a user identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (models.Identity, error)
}

// New 根据模式创建 token 校验器："jwt" 本地校验，"remote" 调用用户服务
func New(mode, jwtSecret, remoteURL string, timeout time.Duration, logger *zap.Logger) (Verifier, error) {
	switch mode {
	case config.AuthModeJWT:
		v, err := NewJWTVerifier(jwtSecret)
		if err != nil {
			return nil, err
		}
		return v, nil
	case config.AuthModeRemote:
		v, err := NewRemoteVerifier(remoteURL, timeout, logger)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", mode)
	}
}

// userIDString normalizes a numeric or string user id claim.
func userIDString(v interface{}) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(id, 10), true
	case int:
		return strconv.Itoa(id), true
	default:
		return "", false
	}
}
