package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"wisefido-vitals-hub/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// profileResponse GET /api/profile 响应
type profileResponse struct {
	User *struct {
		ID       interface{} `json:"id"`
		Username string      `json:"username"`
	} `json:"user"`
}

// RemoteVerifier 通过用户服务的 /api/profile 接口校验 token
type RemoteVerifier struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewRemoteVerifier(baseURL string, timeout time.Duration, logger *zap.Logger) (*RemoteVerifier, error) {
	if baseURL == "" {
		return nil, errors.New("remote auth url is empty")
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &RemoteVerifier{httpClient: client, logger: logger}, nil
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, ErrInvalidToken
	}

	var profile profileResponse
	resp, err := v.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&profile).
		Get("/api/profile")
	if err != nil {
		v.logger.Warn("Profile request failed", zap.Error(err))
		return models.Identity{}, fmt.Errorf("%w: profile request: %w", ErrInvalidToken, err)
	}

	if resp.StatusCode() != http.StatusOK {
		v.logger.Debug("Profile request rejected", zap.Int("status_code", resp.StatusCode()))
		return models.Identity{}, fmt.Errorf("%w: profile status %d", ErrInvalidToken, resp.StatusCode())
	}

	if profile.User == nil {
		return models.Identity{}, fmt.Errorf("%w: empty profile", ErrInvalidToken)
	}
	userID, ok := userIDString(profile.User.ID)
	if !ok {
		return models.Identity{}, fmt.Errorf("%w: profile without id", ErrInvalidToken)
	}
	return models.Identity{UserID: userID, Username: profile.User.Username}, nil
}
